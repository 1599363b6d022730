package kv

import (
	"context"
	"encoding/json"
	"fmt"
)

// JSON layers JSON encoding on top of a text Storage.
type JSON struct {
	Storage
}

// NewJSON wraps s.
func NewJSON(s Storage) *JSON {
	return &JSON{Storage: s}
}

// GetJSON decodes the value stored under key into v.
// It returns ErrNotFound when the key does not exist.
func (j *JSON) GetJSON(ctx context.Context, key string, v any) error {
	text, err := j.GetText(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(text), v); err != nil {
		return fmt.Errorf("decode %q: %w", key, err)
	}
	return nil
}

// SetJSON encodes v and stores it under key.
func (j *JSON) SetJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	return j.SetText(ctx, key, string(data))
}
