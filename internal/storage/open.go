package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/redis/go-redis/v9"
)

const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

type OpenOptions struct {
	Driver        string
	StateFile     string
	Profile       string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open builds the store named by opts.Driver. The returned closer releases
// any connection the store holds.
func Open(ctx context.Context, opts OpenOptions) (KeyValueStore, io.Closer, error) {
	switch opts.Driver {
	case DriverMemory:
		return NewMemoryStore(), nopCloser{}, nil

	case DriverFile, "":
		store, err := NewFileStore(opts.StateFile)
		if err != nil {
			return nil, nil, err
		}
		return store, nopCloser{}, nil

	case DriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return NewRedisStore(client, opts.Profile), client, nil

	case DriverPostgres:
		db, err := ConnectPostgres(opts.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		store := NewPostgresStore(db, opts.Profile)
		if err := store.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return store, db, nil
	}
	return nil, nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
}
