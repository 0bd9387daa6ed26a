package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/hrtlog/internal/logger"
	"github.com/MrSnakeDoc/hrtlog/internal/sources/seed"
	"github.com/MrSnakeDoc/hrtlog/internal/store"
)

// ResourceSeeder merges a YAML seed list into the resources collection
type ResourceSeeder struct {
	loader   *seed.Loader
	mapper   *seed.Mapper
	store    *store.Store
	logger   logger.Logger
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewResourceSeeder creates a new resource seeder
func NewResourceSeeder(
	seedFile string,
	st *store.Store,
	log logger.Logger,
	interval time.Duration,
) *ResourceSeeder {
	return &ResourceSeeder{
		loader:   seed.NewLoader(seedFile),
		mapper:   seed.NewMapper(),
		store:    st,
		logger:   log,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start seeds once, then again on every tick so edits to the seed file
// are picked up.
func (rs *ResourceSeeder) Start(ctx context.Context) error {
	if _, err := rs.Seed(ctx); err != nil {
		return fmt.Errorf("initial resource seed failed: %w", err)
	}

	ticker := time.NewTicker(rs.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := rs.Seed(ctx); err != nil {
					rs.logger.Error("failed to seed resources",
						logger.Error(err))
				}
			case <-rs.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the seeder
func (rs *ResourceSeeder) Stop() {
	rs.stopOnce.Do(func() { close(rs.stopCh) })
}

// Seed loads the seed file and adds the resources whose name is missing
func (rs *ResourceSeeder) Seed(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	config, err := rs.loader.Load()
	if err != nil {
		return 0, fmt.Errorf("failed to load seed file: %w", err)
	}

	resources, err := rs.mapper.MapResources(config)
	if err != nil {
		return 0, fmt.Errorf("failed to map seed resources: %w", err)
	}

	added, err := rs.store.MergeResources(resources)
	if err != nil {
		return 0, err
	}

	if added > 0 {
		rs.logger.Info("seeded resources",
			logger.Int("seeded", len(resources)),
			logger.Int("added", added))
	} else {
		rs.logger.Debug("no new resources to seed")
	}

	return added, nil
}
