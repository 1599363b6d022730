package testutil

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/grovetools/widgetdeck/kv"
	"github.com/stretchr/testify/require"
)

// RequireEnv skips the test unless the environment variable is set and returns its value.
func RequireEnv(t *testing.T, name string) string {
	t.Helper()

	v := os.Getenv(name)
	if v == "" {
		t.Skipf("%s not set", name)
	}
	return v
}

// RandomString generates a random string of the specified length
func RandomString(length int) string {
	bytes := make([]byte, length/2+1)
	if _, err := rand.Read(bytes); err != nil {
		panic(err)
	}
	return hex.EncodeToString(bytes)[:length]
}

// WriteFile writes content to dir/name and returns the full path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// ErrInjected is returned by FlakyStorage while failures are enabled.
var ErrInjected = errors.New("injected storage failure")

// FlakyStorage wraps a kv.Storage and fails reads or writes on demand.
type FlakyStorage struct {
	kv.Storage

	mu         sync.Mutex
	failReads  bool
	failWrites bool
	writes     int
}

// NewFlakyStorage wraps s. Failures are disabled initially.
func NewFlakyStorage(s kv.Storage) *FlakyStorage {
	return &FlakyStorage{Storage: s}
}

// FailReads toggles read failures.
func (f *FlakyStorage) FailReads(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failReads = fail
}

// FailWrites toggles write failures.
func (f *FlakyStorage) FailWrites(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failWrites = fail
}

// Writes returns the number of SetText calls attempted.
func (f *FlakyStorage) Writes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}

func (f *FlakyStorage) GetText(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	fail := f.failReads
	f.mu.Unlock()
	if fail {
		return "", ErrInjected
	}
	return f.Storage.GetText(ctx, key)
}

func (f *FlakyStorage) SetText(ctx context.Context, key, value string) error {
	f.mu.Lock()
	f.writes++
	fail := f.failWrites
	f.mu.Unlock()
	if fail {
		return ErrInjected
	}
	return f.Storage.SetText(ctx, key, value)
}
