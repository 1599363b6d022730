package statestore_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/grovetools/widgetdeck/errors"
	"github.com/grovetools/widgetdeck/kv"
	"github.com/grovetools/widgetdeck/statestore"
	"github.com/grovetools/widgetdeck/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// v1 stored the count under "n".
func newStorage(t *testing.T, backend kv.Storage, migrations *int) *statestore.Storage[counter] {
	t.Helper()
	return statestore.New(kv.NewJSON(backend), "app-state", 2, 1, statestore.Codec[counter]{
		Migrate: func(obj json.RawMessage, fromVer int) (json.RawMessage, error) {
			*migrations++
			var v1 struct {
				Name string `json:"name"`
				N    int    `json:"n"`
			}
			if err := json.Unmarshal(obj, &v1); err != nil {
				return nil, err
			}
			return json.Marshal(counter{Name: v1.Name, Count: v1.N})
		},
		Decode: func(obj json.RawMessage) (counter, error) {
			var c counter
			err := json.Unmarshal(obj, &c)
			return c, err
		},
		Encode: func(c counter) (any, error) { return c, nil },
	})
}

func TestLoadAbsent(t *testing.T) {
	var migrations int
	s := newStorage(t, kv.NewMemory(), &migrations)

	got, err := s.LoadState(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSaveThenLoad(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	var migrations int
	s := newStorage(t, mem, &migrations)

	require.NoError(t, s.SaveState(ctx, counter{Name: "a", Count: 3}))

	raw, err := mem.GetText(ctx, "app-state")
	require.NoError(t, err)
	assert.JSONEq(t, `{"ver":2,"obj":{"name":"a","count":3}}`, raw)

	got, err := s.LoadState(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, counter{Name: "a", Count: 3}, *got)
	assert.Zero(t, migrations, "current-version blobs are never migrated")
}

func TestLoadMigratesOlderVersion(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	require.NoError(t, mem.SetText(ctx, "app-state", `{"ver":1,"obj":{"name":"old","n":7}}`))

	var migrations int
	s := newStorage(t, mem, &migrations)

	got, err := s.LoadState(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, counter{Name: "old", Count: 7}, *got)
	assert.Equal(t, 1, migrations)
}

func TestLoadUnusableBlobsAreAbsent(t *testing.T) {
	tests := map[string]string{
		"not json":         `{oops`,
		"missing obj":      `{"ver":2}`,
		"newer version":    `{"ver":3,"obj":{"name":"x","count":1}}`,
		"too old":          `{"ver":0,"obj":{"name":"x"}}`,
		"undecodable obj":  `{"ver":2,"obj":{"count":"many"}}`,
		"migration failed": `{"ver":1,"obj":[1,2,3]}`,
	}
	for name, blob := range tests {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			mem := kv.NewMemory()
			require.NoError(t, mem.SetText(ctx, "app-state", blob))

			var migrations int
			got, err := newStorage(t, mem, &migrations).LoadState(ctx)
			require.NoError(t, err)
			assert.Nil(t, got)
		})
	}
}

func TestDecodeReportsCodes(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	var migrations int
	s := newStorage(t, mem, &migrations)

	require.NoError(t, mem.SetText(ctx, "app-state", `{"ver":9,"obj":{}}`))
	raw, err := s.LoadRaw(ctx)
	require.NoError(t, err)
	_, err = s.Decode(*raw)
	assert.True(t, errors.Is(err, errors.ErrCodeUnsupportedVersion))

	require.NoError(t, mem.SetText(ctx, "app-state", `nope`))
	_, err = s.LoadRaw(ctx)
	assert.True(t, errors.Is(err, errors.ErrCodeStateDecode))
}

func TestBackendFailures(t *testing.T) {
	ctx := context.Background()
	flaky := testutil.NewFlakyStorage(kv.NewMemory())
	var migrations int
	s := newStorage(t, flaky, &migrations)

	flaky.FailReads(true)
	got, err := s.LoadState(ctx)
	assert.Nil(t, got)
	assert.True(t, errors.Is(err, errors.ErrCodeStorageUnavailable))

	flaky.FailWrites(true)
	err = s.SaveState(ctx, counter{Name: "x"})
	assert.True(t, errors.Is(err, errors.ErrCodeStorageWrite))
	assert.ErrorIs(t, err, testutil.ErrInjected)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	var migrations int
	s := newStorage(t, kv.NewMemory(), &migrations)

	require.NoError(t, s.SaveState(ctx, counter{Name: "x"}))
	require.NoError(t, s.Clear(ctx))

	got, err := s.LoadState(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}
