package jsonfile

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"

	"github.com/MrSnakeDoc/hrtlog/internal/logger"
)

// ErrMalformed marks a collection file whose content could not be used.
var ErrMalformed = errors.New("malformed collection file")

const indent = "    "

// Collection is an ordered list of T persisted as one JSON document.
//
// Reads accept both {"<key>": [...]} and a bare [...]; writes always use the
// wrapped form. Reads never fail: a missing, unreadable or malformed file is
// an empty collection.
type Collection[T any] struct {
	path string
	key  string
	log  logger.Logger

	onMalformed func(path string, err error)
}

// New creates a collection stored at path under key.
func New[T any](path, key string, log logger.Logger) *Collection[T] {
	return &Collection[T]{
		path: path,
		key:  key,
		log:  log,
	}
}

// OnMalformed registers fn to be called every time a read degrades to empty.
func (c *Collection[T]) OnMalformed(fn func(path string, err error)) *Collection[T] {
	c.onMalformed = fn
	return c
}

func (c *Collection[T]) Path() string { return c.path }
func (c *Collection[T]) Key() string  { return c.key }

// Exists reports whether the backing file is present.
func (c *Collection[T]) Exists() bool {
	_, err := os.Stat(c.path)
	return err == nil
}

// Seed returns the backing file's modification time in Unix seconds, or 0
// when the file does not exist yet.
func (c *Collection[T]) Seed() int64 {
	info, err := os.Stat(c.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			c.log.Warn("Failed to stat collection file",
				logger.String("path", c.path),
				logger.Error(err),
			)
		}
		return 0
	}
	return info.ModTime().Unix()
}

// LoadRaw reads the collection without side effects.
func (c *Collection[T]) LoadRaw() []T {
	items, _ := c.Read()
	return items
}

// Read is LoadRaw that also reports whether the file existed and decoded.
// Callers rewriting the file in normalized form must only do so when ok.
func (c *Collection[T]) Read() (items []T, ok bool) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			c.malformed(fmt.Errorf("failed to read collection: %w", err))
		}
		return []T{}, false
	}

	items, err = c.Decode(data)
	if err != nil {
		c.malformed(err)
		return []T{}, false
	}
	return items, true
}

// Decode extracts the list from a collection document.
func (c *Collection[T]) Decode(data []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrMalformed)
	}

	var list json.RawMessage
	switch trimmed[0] {
	case '{':
		var doc map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		value, ok := doc[c.key]
		if !ok {
			return nil, fmt.Errorf("%w: missing %q key", ErrMalformed, c.key)
		}
		list = value
	case '[':
		list = trimmed
	default:
		return nil, fmt.Errorf("%w: top level is neither an object nor a list", ErrMalformed)
	}

	list = bytes.TrimSpace(list)
	if len(list) == 0 || list[0] != '[' {
		return nil, fmt.Errorf("%w: %q is not a list", ErrMalformed, c.key)
	}

	var items []T
	if err := json.Unmarshal(list, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// Encode renders items in the wrapped on-disk form.
func (c *Collection[T]) Encode(items []T) ([]byte, error) {
	if items == nil {
		items = []T{}
	}
	data, err := json.MarshalIndent(map[string][]T{c.key: items}, "", indent)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", c.key, err)
	}
	return append(data, '\n'), nil
}

// Save replaces the whole file with items.
func (c *Collection[T]) Save(items []T) error {
	data, err := c.Encode(items)
	if err != nil {
		return err
	}
	return WriteFile(c.path, data)
}

// InSync reports whether the file already holds exactly the encoding of items.
func (c *Collection[T]) InSync(items []T) bool {
	want, err := c.Encode(items)
	if err != nil {
		return false
	}
	got, err := os.ReadFile(c.path)
	if err != nil {
		return false
	}
	return bytes.Equal(got, want)
}

func (c *Collection[T]) malformed(err error) {
	c.log.Warn("Collection unreadable, treating as empty",
		logger.String("path", c.path),
		logger.Error(err),
	)
	if c.onMalformed != nil {
		c.onMalformed(c.path, err)
	}
}

// WriteFile writes data to path through a synced temp file renamed into place.
func WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, TempPrefix+"*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

// TempPrefix starts the name of every in-flight write in the data directory.
const TempPrefix = ".tmp-"
