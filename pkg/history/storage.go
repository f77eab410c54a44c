package history

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tidwall/gjson"

	"github.com/vango-dev/navrouter/internal/errors"
	"github.com/vango-dev/navrouter/pkg/storage"
)

const (
	// DefaultKey is the storage key of the stack.
	DefaultKey = "history"

	// DefaultMaxLength bounds the stack.
	DefaultMaxLength = 15
)

// Storage is the persisted, bounded state stack. Newest entries are last.
type Storage struct {
	kv        storage.KV
	key       string
	maxLength int
	logger    *slog.Logger

	// mu serializes read-modify-write cycles on the stored stack.
	mu sync.Mutex
}

// Option configures a Storage.
type Option func(*Storage)

// WithKey sets the storage key. Default: "history".
func WithKey(key string) Option {
	return func(s *Storage) {
		s.key = key
	}
}

// WithMaxLength bounds the stack. Values below 1 are ignored. Default: 15.
func WithMaxLength(n int) Option {
	return func(s *Storage) {
		if n >= 1 {
			s.maxLength = n
		}
	}
}

// WithLogger sets the logger used to report recovered corruption.
func WithLogger(l *slog.Logger) Option {
	return func(s *Storage) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewStorage creates a stack persisted in kv.
func NewStorage(kv storage.KV, opts ...Option) *Storage {
	s := &Storage{
		kv:        kv,
		key:       DefaultKey,
		maxLength: DefaultMaxLength,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the storage key.
func (s *Storage) Key() string { return s.key }

// MaxLength returns the stack bound.
func (s *Storage) MaxLength() int { return s.maxLength }

// Latest returns the top of the stack.
func (s *Storage) Latest(ctx context.Context) (State, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load(ctx)
	if err != nil || len(items) == 0 {
		return State{}, false, err
	}
	return items[len(items)-1], true, nil
}

// CanGoBack reports whether the stack holds at least two entries.
func (s *Storage) CanGoBack(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load(ctx)
	if err != nil {
		return false, err
	}
	return len(items) >= 2, nil
}

// TryGoBack pops the top entry and returns the new top. With fewer than two
// entries it changes nothing and returns false.
func (s *Storage) TryGoBack(ctx context.Context) (State, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load(ctx)
	if err != nil {
		return State{}, false, err
	}
	if len(items) <= 1 {
		return State{}, false, nil
	}

	items = items[:len(items)-1]
	if err := s.save(ctx, items); err != nil {
		return State{}, false, err
	}
	return items[len(items)-1], true, nil
}

// Push appends item, evicting the oldest entries beyond the bound. With
// expectDifferent, pushing a copy of the current top fails with
// ErrDuplicateState and leaves the stack unchanged.
func (s *Storage) Push(ctx context.Context, item State, expectDifferent bool) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load(ctx)
	if err != nil {
		return State{}, err
	}
	return s.pushLocked(ctx, items, item, expectDifferent)
}

// Replace swaps the top entry for item (or pushes it onto an empty stack).
func (s *Storage) Replace(ctx context.Context, item State) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load(ctx)
	if err != nil {
		return State{}, err
	}
	if len(items) > 0 {
		items = items[:len(items)-1]
	}
	return s.pushLocked(ctx, items, item, false)
}

// Clear empties the stack.
func (s *Storage) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, nil)
}

// Items returns a copy of the stack, oldest first.
func (s *Storage) Items(ctx context.Context) ([]State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]State, len(items))
	copy(out, items)
	return out, nil
}

func (s *Storage) pushLocked(ctx context.Context, items []State, item State, expectDifferent bool) (State, error) {
	if expectDifferent && len(items) > 0 && Equal(items[len(items)-1], item) {
		return State{}, errors.New(errors.CodeDuplicateState).WithDetail(item.String())
	}

	if keep := s.maxLength - 1; len(items) > keep {
		items = items[len(items)-keep:]
	}
	items = append(items, item)

	if err := s.save(ctx, items); err != nil {
		return State{}, err
	}
	return item, nil
}

// load reads and decodes the stack. Corrupt values are reset to an empty
// array; only backend failures are returned.
func (s *Storage) load(ctx context.Context) ([]State, error) {
	raw, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("history: read %q: %w", s.key, err)
	}
	if !ok {
		return nil, s.save(ctx, nil)
	}

	items, decodeErr := decode(raw)
	if decodeErr != nil {
		s.logger.Warn("history storage corrupt, clearing",
			"key", s.key,
			"error", errors.New(errors.CodeStorageCorruption).Wrap(decodeErr))
		return nil, s.save(ctx, nil)
	}

	// Handles stacks written with a larger bound.
	if len(items) > s.maxLength {
		items = items[len(items)-s.maxLength:]
	}
	return items, nil
}

func (s *Storage) save(ctx context.Context, items []State) error {
	if items == nil {
		items = []State{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("history: encode: %w", err)
	}
	if err := s.kv.Set(ctx, s.key, string(data)); err != nil {
		return fmt.Errorf("history: write %q: %w", s.key, err)
	}
	return nil
}

func decode(raw string) ([]State, error) {
	if !gjson.Valid(raw) {
		return nil, fmt.Errorf("invalid JSON")
	}
	if !gjson.Parse(raw).IsArray() {
		return nil, fmt.Errorf("stored value is not an array")
	}
	var items []State
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, err
	}
	return items, nil
}
