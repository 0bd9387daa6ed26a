package redis

import (
	"context"
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/hrtlog/internal/domain"
)

// Cache scopes.
const (
	ScopeTimeline = "timeline"
	ScopeExport   = "export"
)

// CacheTimeline stores the result of a timeline query
func (s *Store) CacheTimeline(ctx context.Context, gen uint64, f domain.Filter, records []domain.Record) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to marshal timeline: %w", err)
	}
	if err := s.client.Set(ctx, CacheKey(ScopeTimeline, gen, f), data, s.cacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache timeline: %w", err)
	}
	return nil
}

// GetCachedTimeline retrieves a cached timeline query. A miss is (nil, false, nil).
func (s *Store) GetCachedTimeline(ctx context.Context, gen uint64, f domain.Filter) ([]domain.Record, bool, error) {
	data, err := s.client.Get(ctx, CacheKey(ScopeTimeline, gen, f)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil // Cache miss
		}
		return nil, false, fmt.Errorf("failed to get cached timeline: %w", err)
	}

	var records []domain.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cached timeline: %w", err)
	}
	return records, true, nil
}

// CacheRows stores flattened export rows
func (s *Store) CacheRows(ctx context.Context, gen uint64, f domain.Filter, rows []domain.Row) error {
	data, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to marshal rows: %w", err)
	}
	if err := s.client.Set(ctx, CacheKey(ScopeExport, gen, f), data, s.cacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache rows: %w", err)
	}
	return nil
}

// GetCachedRows retrieves cached export rows. A miss is (nil, false, nil).
func (s *Store) GetCachedRows(ctx context.Context, gen uint64, f domain.Filter) ([]domain.Row, bool, error) {
	data, err := s.client.Get(ctx, CacheKey(ScopeExport, gen, f)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get cached rows: %w", err)
	}

	var rows []domain.Row
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cached rows: %w", err)
	}
	return rows, true, nil
}

// FlushCache removes all cached queries
func (s *Store) FlushCache(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, KeyPrefixCache+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to delete cache key: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to flush cache: %w", err)
	}
	return nil
}
