package scheduler

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/MrSnakeDoc/hrtlog/internal/logger"
	"github.com/MrSnakeDoc/hrtlog/internal/storage/jsonfile"
)

const (
	// DefaultTempThreshold is the age after which a temp file is considered abandoned
	DefaultTempThreshold = time.Hour
)

// TempSweeper removes temp files left in the data directory by writes
// that never reached their rename, e.g. after a crash.
type TempSweeper struct {
	dir       string
	logger    logger.Logger
	interval  time.Duration
	threshold time.Duration
	stopCh    chan struct{}
	stopOnce  sync.Once
}

// NewTempSweeper creates a new temp file sweeper
func NewTempSweeper(
	dir string,
	log logger.Logger,
	interval time.Duration,
	threshold time.Duration,
) *TempSweeper {
	if threshold == 0 {
		threshold = DefaultTempThreshold
	}

	return &TempSweeper{
		dir:       dir,
		logger:    log,
		interval:  interval,
		threshold: threshold,
		stopCh:    make(chan struct{}),
	}
}

// Start begins the periodic sweep
func (ts *TempSweeper) Start(ctx context.Context) error {
	// Run immediately on start
	if _, err := ts.Sweep(time.Now()); err != nil {
		ts.logger.Warn("initial temp sweep failed",
			logger.Error(err))
	}

	ticker := time.NewTicker(ts.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case now := <-ticker.C:
				if _, err := ts.Sweep(now); err != nil {
					ts.logger.Error("temp sweep failed",
						logger.Error(err))
				}
			case <-ts.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the sweeper
func (ts *TempSweeper) Stop() {
	ts.stopOnce.Do(func() { close(ts.stopCh) })
}

// Sweep deletes temp files older than the threshold and returns how many
// were removed. A missing data directory is not an error.
func (ts *TempSweeper) Sweep(now time.Time) (int, error) {
	entries, err := os.ReadDir(ts.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), jsonfile.TempPrefix) {
			continue
		}

		info, err := e.Info()
		if err != nil {
			continue
		}

		age := now.Sub(info.ModTime())
		if age < ts.threshold {
			continue
		}

		path := filepath.Join(ts.dir, e.Name())
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			ts.logger.Warn("failed to remove temp file",
				logger.String("file", path),
				logger.Error(err))
			continue
		}

		ts.logger.Info("removed abandoned temp file",
			logger.String("file", path),
			logger.String("age", age.String()))
		removed++
	}

	if removed == 0 {
		ts.logger.Debug("no temp files to sweep")
	}

	return removed, nil
}
