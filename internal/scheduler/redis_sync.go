package scheduler

import (
	"context"

	"github.com/MrSnakeDoc/hrtlog/internal/index"
	"github.com/MrSnakeDoc/hrtlog/internal/logger"
	redisstore "github.com/MrSnakeDoc/hrtlog/internal/store/redis"
)

// RedisSyncer warms the timeline index from the last Redis snapshot on startup
type RedisSyncer struct {
	store  *redisstore.Store
	index  *index.TimelineIndex
	logger logger.Logger
}

// NewRedisSyncer creates a new Redis syncer
func NewRedisSyncer(
	store *redisstore.Store,
	idx *index.TimelineIndex,
	log logger.Logger,
) *RedisSyncer {
	return &RedisSyncer{
		store:  store,
		index:  idx,
		logger: log,
	}
}

// Sync loads the snapshot into the index. An index that already holds a
// reload is left alone.
func (rs *RedisSyncer) Sync(ctx context.Context) error {
	if !rs.index.GetLastReload().IsZero() {
		return nil
	}

	rs.logger.Info("syncing timeline snapshot from redis to memory")

	timeline, at, err := rs.store.LoadSnapshot(ctx)
	if err != nil {
		return err
	}

	if len(timeline) == 0 {
		rs.logger.Info("no timeline snapshot found in redis")
		return nil
	}

	rs.index.Update(timeline)

	rs.logger.Info("synced timeline snapshot from redis",
		logger.Int("count", len(timeline)),
		logger.String("snapshot_at", at.Format("2006-01-02T15:04:05Z07:00")))

	return nil
}
