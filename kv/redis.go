package kv

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Redis is a Storage backed by Redis. It uses a simple key structure:
//
//	<prefix>kv:<key>   => string value
//	<prefix>kv_keys    => SET of stored keys
//
// The key set is what Clear and GetKeys operate on, so unrelated keys in the
// same database are never touched.
type Redis struct {
	client *redis.Client
	prefix string
	owned  bool
}

var _ Storage = (*Redis)(nil)

// RedisOptions configures OpenRedis.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// OpenRedis connects to the server described by opts and pings it.
func OpenRedis(ctx context.Context, opts RedisOptions) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	r := NewRedis(client, opts.Prefix)
	r.owned = true
	return r, nil
}

// NewRedis creates a Redis storage on an existing client.
// prefix is optional but recommended (e.g. "widgetdeck:").
func NewRedis(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = "widgetdeck:"
	}
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) keyValue(key string) string { return r.prefix + "kv:" + key }

func (r *Redis) keyIndex() string { return r.prefix + "kv_keys" }

func (r *Redis) GetText(ctx context.Context, key string) (string, error) {
	v, err := r.client.Get(ctx, r.keyValue(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", err
	}
	return v, nil
}

func (r *Redis) SetText(ctx context.Context, key, value string) error {
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, r.keyValue(key), value, 0)
		p.SAdd(ctx, r.keyIndex(), key)
		return nil
	})
	return err
}

func (r *Redis) DeleteItem(ctx context.Context, key string) error {
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, r.keyValue(key))
		p.SRem(ctx, r.keyIndex(), key)
		return nil
	})
	return err
}

func (r *Redis) Clear(ctx context.Context) error {
	keys, err := r.GetKeys(ctx)
	if err != nil {
		return err
	}
	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for _, k := range keys {
			p.Del(ctx, r.keyValue(k))
		}
		p.Del(ctx, r.keyIndex())
		return nil
	})
	return err
}

func (r *Redis) GetKeys(ctx context.Context) ([]string, error) {
	keys, err := r.client.SMembers(ctx, r.keyIndex()).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

// Close closes the client when it was created by OpenRedis.
func (r *Redis) Close() error {
	if !r.owned {
		return nil
	}
	return r.client.Close()
}

// String describes the storage for logs.
func (r *Redis) String() string {
	return "redis(" + strings.TrimSuffix(r.prefix, ":") + ")"
}
