package engine

import (
	"context"
	"os"
	"path/filepath"

	"github.com/grovetools/widgetdeck/config"
	"github.com/grovetools/widgetdeck/errors"
	"github.com/grovetools/widgetdeck/kv"
	"github.com/grovetools/widgetdeck/util/pathutil"
)

// OpenBackend opens the key/value backend selected by cfg. Backends holding
// external resources are released with kv.Close.
func OpenBackend(ctx context.Context, cfg config.StorageConfig) (kv.Storage, error) {
	path, err := pathutil.Expand(cfg.Path)
	if err != nil {
		return nil, errors.ConfigInvalid("invalid storage path").WithDetail("path", cfg.Path)
	}

	switch cfg.Backend {
	case config.BackendMemory:
		return kv.NewMemory(), nil
	case config.BackendFile, "":
		f, err := kv.NewFile(path)
		if err != nil {
			return nil, errors.StorageUnavailable(config.BackendFile, err).WithDetail("path", cfg.Path)
		}
		return f, nil
	case config.BackendSQLite:
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, errors.StorageUnavailable(config.BackendSQLite, err).WithDetail("path", cfg.Path)
		}
		db, err := kv.OpenSQLite(path)
		if err != nil {
			return nil, errors.StorageUnavailable(config.BackendSQLite, err).WithDetail("path", cfg.Path)
		}
		return db, nil
	case config.BackendRedis:
		r, err := kv.OpenRedis(ctx, kv.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
		if err != nil {
			return nil, errors.StorageUnavailable(config.BackendRedis, err).WithDetail("addr", cfg.Redis.Addr)
		}
		return r, nil
	}
	return nil, errors.ConfigInvalid("unknown storage backend " + cfg.Backend).WithDetail("backend", cfg.Backend)
}
