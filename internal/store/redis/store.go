package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// DefaultSnapshotTTL bounds how long a stale timeline snapshot can warm the index
	DefaultSnapshotTTL = 7 * 24 * time.Hour
	// DefaultCacheTTL is the default TTL for cached timeline queries
	DefaultCacheTTL = 10 * time.Minute
)

// Store handles Redis operations for the timeline snapshot, the query cache
// and usage statistics. Redis is never the source of truth: everything kept
// here can be rebuilt from the data files.
type Store struct {
	client   redis.UniversalClient
	cacheTTL time.Duration
}

// NewStore creates a new Redis store. A non-positive ttl uses DefaultCacheTTL.
func NewStore(client redis.UniversalClient, cacheTTL time.Duration) *Store {
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}
	return &Store{
		client:   client,
		cacheTTL: cacheTTL,
	}
}

// Ping checks that Redis answers.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}
