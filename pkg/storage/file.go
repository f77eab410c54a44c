package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

// FileStore keeps all keys in one JSON object file. A sibling ".lock" file
// serializes access between processes.
type FileStore struct {
	path     string
	fileLock *flock.Flock
	timeout  time.Duration
	mu       sync.Mutex
	closed   bool
}

// FileStoreOption configures FileStore behavior.
type FileStoreOption func(*FileStore)

// WithLockTimeout bounds how long an operation waits for the file lock.
// Default: 3 seconds.
func WithLockTimeout(d time.Duration) FileStoreOption {
	return func(f *FileStore) {
		f.timeout = d
	}
}

// NewFileStore creates a store backed by the file at path. The file and its
// directory are created on first write.
func NewFileStore(path string, opts ...FileStoreOption) *FileStore {
	f := &FileStore{
		path:     path,
		fileLock: flock.New(path + ".lock"),
		timeout:  3 * time.Second,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Path returns the backing file path.
func (f *FileStore) Path() string {
	return f.path
}

// Get returns the value stored under key.
func (f *FileStore) Get(ctx context.Context, key string) (string, bool, error) {
	var (
		value string
		found bool
	)
	err := f.withLock(ctx, func() error {
		items, err := f.readLocked()
		if err != nil {
			return err
		}
		value, found = items[key]
		return nil
	})
	return value, found, err
}

// Set stores value under key.
func (f *FileStore) Set(ctx context.Context, key, value string) error {
	return f.withLock(ctx, func() error {
		items, err := f.readLocked()
		if err != nil {
			return err
		}
		items[key] = value
		return f.writeLocked(items)
	})
}

// Delete removes key.
func (f *FileStore) Delete(ctx context.Context, key string) error {
	return f.withLock(ctx, func() error {
		items, err := f.readLocked()
		if err != nil {
			return err
		}
		if _, ok := items[key]; !ok {
			return nil
		}
		delete(items, key)
		return f.writeLocked(items)
	})
}

// Close marks the store closed.
func (f *FileStore) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *FileStore) withLock(ctx context.Context, fn func() error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrStoreClosed
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("storage: create directory: %w", err)
	}

	lockCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	locked, err := f.fileLock.TryLockContext(lockCtx, 50*time.Millisecond)
	if err != nil {
		return fmt.Errorf("storage: acquire lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("storage: could not acquire lock on %s", f.path)
	}
	defer func() { _ = f.fileLock.Unlock() }()

	return fn()
}

// readLocked loads the key map. A missing or empty file is an empty map; the
// values themselves are opaque, so only the outer object must decode.
func (f *FileStore) readLocked() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", f.path, err)
	}
	if len(data) == 0 {
		return make(map[string]string), nil
	}

	items := make(map[string]string)
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("storage: parse %s: %w", f.path, err)
	}
	return items, nil
}

// writeLocked replaces the file atomically via a temp file and rename.
func (f *FileStore) writeLocked(items map[string]string) error {
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("storage: encode: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("storage: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("storage: rename %s: %w", tmp, err)
	}
	return nil
}
