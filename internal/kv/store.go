package kv

import (
	"context"
	"fmt"
	"time"

	"contact-relay-go/internal/config"
)

// Store is the key-value contract the submission pipeline depends on.
// Expiry is managed by the store.
type Store interface {
	// Get returns the value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, value string, ttl time.Duration) error
	Ping(ctx context.Context) error
	Close() error
}

// Purger is implemented by stores without native expiry.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// Open builds the store selected by cfg. It returns a nil Store when no
// driver is configured; callers treat that as the degraded mode.
func Open(cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "", config.StoreNone:
		return nil, nil
	case config.StoreMemory:
		return NewMemoryStore(), nil
	case config.StoreRedis:
		s, err := NewRedisStore(RedisOptions{URL: cfg.RedisURL, Password: cfg.RedisPassword})
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.StoreMySQL:
		s, err := NewSQLStore(cfg.Database)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
