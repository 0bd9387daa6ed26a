package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"strings"
	"sync"

	json "github.com/goccy/go-json"

	"github.com/MrSnakeDoc/hrtlog/internal/logger"
	"github.com/MrSnakeDoc/hrtlog/internal/storage/jsonfile"
)

// Manager keeps the application settings, a flat JSON object whose values
// are opaque to the rest of the program.
type Manager struct {
	mu     sync.RWMutex
	path   string
	log    logger.Logger
	values map[string]any
}

// Open reads path. A missing or unreadable file yields empty settings.
func Open(path string, log logger.Logger) *Manager {
	m := &Manager{path: path, log: log}
	m.values = m.read()
	return m
}

func (m *Manager) read() map[string]any {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			m.log.Warn("Failed to read settings", logger.String("path", m.path), logger.Error(err))
		}
		return map[string]any{}
	}

	var values map[string]any
	if err := json.Unmarshal(data, &values); err != nil || values == nil {
		m.log.Warn("Settings file is not a JSON object, ignoring it", logger.String("path", m.path))
		return map[string]any{}
	}
	return values
}

// Get returns the value stored under key, or def.
func (m *Manager) Get(key string, def any) any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if v, ok := m.values[key]; ok {
		return v
	}
	return def
}

// Set stores value under key and persists the settings.
func (m *Manager) Set(key string, value any) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("setting key is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	next := maps.Clone(m.values)
	next[key] = value
	if err := m.write(next); err != nil {
		return err
	}
	m.values = next
	return nil
}

// All returns a copy of every setting.
func (m *Manager) All() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return maps.Clone(m.values)
}

// Reset clears every setting and persists the empty object.
func (m *Manager) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.write(map[string]any{}); err != nil {
		return err
	}
	m.values = map[string]any{}
	return nil
}

func (m *Manager) write(values map[string]any) error {
	data, err := json.MarshalIndent(values, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := jsonfile.WriteFile(m.path, append(data, '\n')); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}
