package errors

import (
	"fmt"
)

// ConfigNotFound creates a configuration not found error
func ConfigNotFound(path string) *Error {
	return New(ErrCodeConfigNotFound, fmt.Sprintf("configuration file not found: %s", path)).
		WithDetail("path", path)
}

// ConfigInvalid creates an invalid configuration error
func ConfigInvalid(reason string) *Error {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", reason))
}

// StorageUnavailable creates an error for a backend that cannot be opened or read
func StorageUnavailable(backend string, err error) *Error {
	return Wrap(err, ErrCodeStorageUnavailable, fmt.Sprintf("storage backend %q unavailable", backend)).
		WithDetail("backend", backend)
}

// StateDecode creates an error for a persisted blob that cannot be decoded
func StateDecode(key string, err error) *Error {
	return Wrap(err, ErrCodeStateDecode, fmt.Sprintf("cannot decode persisted state %q", key)).
		WithDetail("key", key)
}

// StateMigration creates an error for a failed schema migration
func StateMigration(key string, fromVer, toVer int, err error) *Error {
	return Wrap(err, ErrCodeStateMigration,
		fmt.Sprintf("cannot migrate persisted state %q from version %d to %d", key, fromVer, toVer)).
		WithDetail("key", key).
		WithDetail("from", fromVer).
		WithDetail("to", toVer)
}

// NotFound creates an error for a missing entity
func NotFound(kind, id string) *Error {
	return New(ErrCodeNotFound, fmt.Sprintf("%s %q not found", kind, id)).
		WithDetail("kind", kind).
		WithDetail("id", id)
}

// InvalidInput creates an error for rejected user input
func InvalidInput(reason string) *Error {
	return New(ErrCodeInvalidInput, reason)
}
