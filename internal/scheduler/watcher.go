package scheduler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/MrSnakeDoc/hrtlog/internal/logger"
	"github.com/MrSnakeDoc/hrtlog/internal/storage/jsonfile"
)

// DefaultWatchDebounce is used when the configured debounce is not positive
const DefaultWatchDebounce = 250 * time.Millisecond

// FileWatcher triggers a reload when a data file changes outside the process
type FileWatcher struct {
	dir      string
	debounce time.Duration
	trigger  func()
	logger   logger.Logger
	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewFileWatcher creates a watcher on dir. trigger must not block.
func NewFileWatcher(dir string, debounce time.Duration, trigger func(), log logger.Logger) *FileWatcher {
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}
	return &FileWatcher{
		dir:      dir,
		debounce: debounce,
		trigger:  trigger,
		logger:   log,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins watching, creating the directory first when it does not exist
// yet. Bursts of events collapse into one trigger.
func (fw *FileWatcher) Start(ctx context.Context) error {
	if err := os.MkdirAll(fw.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", fw.dir, err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.Add(fw.dir); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to watch %s: %w", fw.dir, err)
	}

	fw.logger.Info("watching data directory",
		logger.String("dir", fw.dir),
		logger.Duration("debounce", fw.debounce))

	go func() {
		defer close(fw.done)
		defer w.Close()

		var timer *time.Timer
		var fire <-chan time.Time
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if !Relevant(ev) {
					continue
				}
				fw.logger.Debug("data file changed",
					logger.String("file", ev.Name),
					logger.String("op", ev.Op.String()))
				if timer == nil {
					timer = time.NewTimer(fw.debounce)
				} else {
					if !timer.Stop() {
						select {
						case <-timer.C:
						default:
						}
					}
					timer.Reset(fw.debounce)
				}
				fire = timer.C
			case <-fire:
				fire = nil
				fw.trigger()
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				fw.logger.Warn("watcher error", logger.Error(err))
			case <-fw.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the watcher and waits for its loop to exit
func (fw *FileWatcher) Stop() {
	fw.stopOnce.Do(func() { close(fw.stopCh) })
	<-fw.done
}

// Relevant reports whether ev can change the timeline: a write, create,
// remove or rename of a .json file that is not a temp file.
func Relevant(ev fsnotify.Event) bool {
	base := filepath.Base(ev.Name)
	if strings.HasPrefix(base, jsonfile.TempPrefix) || filepath.Ext(base) != ".json" {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) ||
		ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)
}
