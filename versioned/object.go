// Package versioned wraps persisted payloads with the schema version they were
// written under and runs migrations when that version is not the current one.
package versioned

import "errors"

var (
	// ErrUnsupportedVersion is returned for versions the migration chain cannot handle.
	ErrUnsupportedVersion = errors.New("unsupported schema version")

	// ErrMissingStep is returned when the chain has a gap between two versions.
	ErrMissingStep = errors.New("missing migration step")
)

// Object is a payload tagged with its schema version.
type Object[T any] struct {
	Ver int `json:"ver" yaml:"ver"`
	Obj T   `json:"obj" yaml:"obj"`
}

// MigrateFunc converts obj written under fromVer into the current schema.
type MigrateFunc[T any] func(obj T, fromVer int) (T, error)

// Create wraps obj at version ver.
func Create[T any](obj T, ver int) Object[T] {
	return Object[T]{Ver: ver, Obj: obj}
}

// Unwrap returns the payload in the current schema. When the stored version
// matches currentVer the payload is returned as is and migrate is never called.
func Unwrap[T any](v Object[T], currentVer int, migrate MigrateFunc[T]) (T, error) {
	if v.Ver == currentVer {
		return v.Obj, nil
	}
	if migrate == nil {
		var zero T
		return zero, ErrMissingStep
	}
	return migrate(v.Obj, v.Ver)
}
