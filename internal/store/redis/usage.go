package redis

import (
	"context"
	"fmt"
	"strconv"
)

// IncrementUsage bumps the counter of an API operation
func (s *Store) IncrementUsage(ctx context.Context, op string) error {
	if err := s.client.HIncrBy(ctx, KeyStats, op, 1).Err(); err != nil {
		return fmt.Errorf("failed to increment usage: %w", err)
	}
	return nil
}

// GetUsageStats retrieves the counters of every operation
func (s *Store) GetUsageStats(ctx context.Context) (map[string]int64, error) {
	raw, err := s.client.HGetAll(ctx, KeyStats).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get usage stats: %w", err)
	}

	stats := make(map[string]int64, len(raw))
	for op, v := range raw {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		stats[op] = n
	}
	return stats, nil
}
