package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/hrtlog/internal/index"
	"github.com/MrSnakeDoc/hrtlog/internal/logger"
	"github.com/MrSnakeDoc/hrtlog/internal/store"
	redisstore "github.com/MrSnakeDoc/hrtlog/internal/store/redis"
)

// ReloadRecorder is told about every finished reload
type ReloadRecorder interface {
	TimelineReloaded(size int, took time.Duration, err error)
}

type nopRecorder struct{}

func (nopRecorder) TimelineReloaded(int, time.Duration, error) {}

// TimelineReloader keeps the timeline index in step with the data files
type TimelineReloader struct {
	mu            sync.Mutex
	store         *store.Store
	cache         *redisstore.Store
	index         *index.TimelineIndex
	recorder      ReloadRecorder
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	stopOnce      sync.Once
	manualTrigger chan struct{}
}

// NewTimelineReloader creates a new timeline reloader. cache and rec may be nil.
func NewTimelineReloader(
	st *store.Store,
	cache *redisstore.Store,
	idx *index.TimelineIndex,
	rec ReloadRecorder,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *TimelineReloader {
	if rec == nil {
		rec = nopRecorder{}
	}
	return &TimelineReloader{
		store:         st,
		cache:         cache,
		index:         idx,
		recorder:      rec,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start loads the timeline once, then reloads on every tick and trigger
func (tr *TimelineReloader) Start(ctx context.Context) error {
	// Load immediately on start
	if err := tr.Reload(ctx); err != nil {
		return fmt.Errorf("initial reload failed: %w", err)
	}

	ticker := time.NewTicker(tr.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := tr.Reload(ctx); err != nil {
					tr.logger.Error("failed to reload timeline",
						logger.Error(err))
				}
			case <-tr.manualTrigger:
				tr.logger.Debug("triggered reload")
				if err := tr.Reload(ctx); err != nil {
					tr.logger.Error("failed to reload timeline",
						logger.Error(err))
				}
			case <-tr.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the reloader
func (tr *TimelineReloader) Stop() {
	tr.stopOnce.Do(func() { close(tr.stopCh) })
}

// Reload merges the entry collections, replaces the index and drops every
// cached query. Reloads never overlap.
func (tr *TimelineReloader) Reload(ctx context.Context) error {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	start := time.Now()
	timeline, err := tr.store.Timeline()
	if err != nil {
		tr.recorder.TimelineReloaded(0, time.Since(start), err)
		return fmt.Errorf("failed to load timeline: %w", err)
	}

	tr.index.Update(timeline)
	took := time.Since(start)
	tr.recorder.TimelineReloaded(len(timeline), took, nil)

	tr.logger.Info("timeline reloaded",
		logger.Int("entries", len(timeline)),
		logger.Duration("took", took))

	// Update Redis (best effort)
	if tr.cache != nil {
		if err := tr.cache.FlushCache(ctx); err != nil {
			tr.logger.Warn("failed to flush timeline cache",
				logger.Error(err))
		}
		if err := tr.cache.SaveSnapshot(ctx, timeline, time.Now()); err != nil {
			tr.logger.Warn("failed to save timeline snapshot",
				logger.Error(err))
		}
	}

	return nil
}

// Trigger asks the running loop for a reload without waiting for it.
// A trigger already pending absorbs this one.
func (tr *TimelineReloader) Trigger() {
	select {
	case tr.manualTrigger <- struct{}{}:
	default:
	}
}
