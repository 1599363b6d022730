// Package statestore persists a domain state as a versioned JSON blob under a
// single key of a kv.Storage.
package statestore

import (
	"context"
	"encoding/json"
	stderrors "errors"

	"github.com/grovetools/widgetdeck/errors"
	"github.com/grovetools/widgetdeck/kv"
	"github.com/grovetools/widgetdeck/logging"
	"github.com/grovetools/widgetdeck/versioned"
	"github.com/sirupsen/logrus"
)

// Codec converts between the domain state and its persisted JSON form.
type Codec[S any] struct {
	// Migrate upgrades a payload written under an older version to the
	// current one. It is never called for current-version payloads.
	Migrate versioned.MigrateFunc[json.RawMessage]
	// Decode turns a current-version payload into the domain state.
	Decode func(json.RawMessage) (S, error)
	// Encode produces the current-version persisted shape of a state.
	Encode func(S) (any, error)
}

// Storage loads and saves one state blob.
type Storage[S any] struct {
	json         *kv.JSON
	key          string
	current      int
	minSupported int
	codec        Codec[S]
	logger       *logrus.Entry
}

// New creates a Storage for key. Blobs older than minSupportedVersion or
// newer than currentVersion are treated as absent.
func New[S any](store *kv.JSON, key string, currentVersion, minSupportedVersion int, codec Codec[S]) *Storage[S] {
	return &Storage[S]{
		json:         store,
		key:          key,
		current:      currentVersion,
		minSupported: minSupportedVersion,
		codec:        codec,
		logger:       logging.NewLogger("statestore").WithField("key", key),
	}
}

// Key returns the storage key.
func (s *Storage[S]) Key() string { return s.key }

// CurrentVersion returns the version SaveState writes.
func (s *Storage[S]) CurrentVersion() int { return s.current }

// LoadState reads and decodes the persisted state. It returns (nil, nil)
// when nothing usable is stored: the key is absent, the blob cannot be
// decoded or migrated, or its version is unsupported. Errors are returned
// only for backend failures.
func (s *Storage[S]) LoadState(ctx context.Context) (*S, error) {
	raw, err := s.LoadRaw(ctx)
	if err != nil {
		if stderrors.Is(err, kv.ErrNotFound) {
			return nil, nil
		}
		if errors.Is(err, errors.ErrCodeStateDecode) {
			s.logger.WithError(err).Warn("Ignoring undecodable persisted state")
			return nil, nil
		}
		return nil, err
	}

	state, err := s.Decode(*raw)
	if err != nil {
		s.logger.WithError(err).WithField("version", raw.Ver).Warn("Ignoring persisted state")
		return nil, nil
	}
	return &state, nil
}

// LoadRaw returns the stored envelope without migrating or decoding the
// payload. It returns kv.ErrNotFound when the key is absent.
func (s *Storage[S]) LoadRaw(ctx context.Context) (*versioned.Object[json.RawMessage], error) {
	text, err := s.json.GetText(ctx, s.key)
	if err != nil {
		if stderrors.Is(err, kv.ErrNotFound) {
			return nil, err
		}
		return nil, errors.Wrap(err, errors.ErrCodeStorageUnavailable, "failed to read persisted state").
			WithDetail("key", s.key)
	}

	var obj versioned.Object[json.RawMessage]
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return nil, errors.StateDecode(s.key, err)
	}
	if len(obj.Obj) == 0 || string(obj.Obj) == "null" {
		return nil, errors.StateDecode(s.key, stderrors.New("missing obj"))
	}
	return &obj, nil
}

// Decode migrates and decodes an envelope.
func (s *Storage[S]) Decode(obj versioned.Object[json.RawMessage]) (S, error) {
	var zero S

	if obj.Ver > s.current || obj.Ver < s.minSupported {
		return zero, errors.Wrap(versioned.ErrUnsupportedVersion, errors.ErrCodeUnsupportedVersion, "persisted state version is not supported").
			WithDetail("key", s.key).
			WithDetail("version", obj.Ver).
			WithDetail("current", s.current).
			WithDetail("min_supported", s.minSupported)
	}

	payload, err := versioned.Unwrap(obj, s.current, s.codec.Migrate)
	if err != nil {
		return zero, errors.StateMigration(s.key, obj.Ver, s.current, err)
	}
	if obj.Ver != s.current {
		s.logger.WithField("from", obj.Ver).WithField("to", s.current).Info("Migrated persisted state")
	}

	state, err := s.codec.Decode(payload)
	if err != nil {
		return zero, errors.StateDecode(s.key, err)
	}
	return state, nil
}

// SaveState wraps state at the current version and writes it.
func (s *Storage[S]) SaveState(ctx context.Context, state S) error {
	obj, err := s.codec.Encode(state)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to encode state").WithDetail("key", s.key)
	}
	if err := s.json.SetJSON(ctx, s.key, versioned.Create(obj, s.current)); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageWrite, "failed to write persisted state").WithDetail("key", s.key)
	}
	return nil
}

// Clear deletes the persisted state.
func (s *Storage[S]) Clear(ctx context.Context) error {
	if err := s.json.DeleteItem(ctx, s.key); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageWrite, "failed to delete persisted state").WithDetail("key", s.key)
	}
	return nil
}
