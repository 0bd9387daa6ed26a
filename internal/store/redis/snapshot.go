package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/hrtlog/internal/domain"
)

// SaveSnapshot stores the merged timeline so a restarting instance can serve
// reads before its first reload completes.
func (s *Store) SaveSnapshot(ctx context.Context, timeline []domain.Record, at time.Time) error {
	data, err := json.Marshal(timeline)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, KeySnapshot, data, DefaultSnapshotTTL)
	pipe.Set(ctx, KeySnapshotAt, at.UTC().Format(time.RFC3339), DefaultSnapshotTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot returns the last stored timeline, or nil when there is none.
func (s *Store) LoadSnapshot(ctx context.Context) ([]domain.Record, time.Time, error) {
	data, err := s.client.Get(ctx, KeySnapshot).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, time.Time{}, nil
		}
		return nil, time.Time{}, fmt.Errorf("failed to get snapshot: %w", err)
	}

	var timeline []domain.Record
	if err := json.Unmarshal(data, &timeline); err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}

	var at time.Time
	if raw, err := s.client.Get(ctx, KeySnapshotAt).Result(); err == nil {
		at, _ = time.Parse(time.RFC3339, raw)
	}
	return timeline, at, nil
}
