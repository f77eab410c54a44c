package browser

import (
	"fmt"
	"net/url"
	"sort"
	"sync"
)

// Simulator is an in-memory Window with a native session history.
// Popstate listeners run synchronously inside Back, Forward, Go and
// UserNavigate. It is safe for concurrent use.
type Simulator struct {
	mu        sync.Mutex
	origin    *url.URL
	entries   []*url.URL
	index     int
	listeners map[uint64]func()
	nextID    uint64
}

// NewSimulator creates a window whose history holds a single entry for startURL.
func NewSimulator(startURL string) (*Simulator, error) {
	u, err := url.Parse(startURL)
	if err != nil {
		return nil, fmt.Errorf("browser: parse %q: %w", startURL, err)
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("browser: start URL %q must be absolute", startURL)
	}
	if u.Path == "" {
		u.Path = "/"
	}
	origin := &url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/"}
	return &Simulator{
		origin:    origin,
		entries:   []*url.URL{u},
		listeners: make(map[uint64]func()),
	}, nil
}

// Origin returns scheme://host.
func (s *Simulator) Origin() string {
	return s.origin.Scheme + "://" + s.origin.Host
}

// Location returns a copy of the current URL.
func (s *Simulator) Location() *url.URL {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := *s.entries[s.index]
	return &u
}

// Href returns the current URL as a string.
func (s *Simulator) Href() string {
	return s.Location().String()
}

// PushState drops forward entries and appends path.
func (s *Simulator) PushState(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.resolve(path)
	s.entries = append(s.entries[:s.index+1], u)
	s.index++
}

// ReplaceState rewrites the current entry.
func (s *Simulator) ReplaceState(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[s.index] = s.resolve(path)
}

// OnPopState registers fn for history traversal.
func (s *Simulator) OnPopState(fn func()) (remove func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// ListenerCount returns the number of popstate listeners.
func (s *Simulator) ListenerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}

// Back moves one entry back. It reports false at the first entry.
func (s *Simulator) Back() bool { return s.Go(-1) }

// Forward moves one entry forward. It reports false at the last entry.
func (s *Simulator) Forward() bool { return s.Go(1) }

// Go moves delta entries and fires popstate. Out-of-range moves do nothing.
func (s *Simulator) Go(delta int) bool {
	s.mu.Lock()
	target := s.index + delta
	if delta == 0 || target < 0 || target >= len(s.entries) {
		s.mu.Unlock()
		return false
	}
	s.index = target
	s.mu.Unlock()

	s.firePopState()
	return true
}

// UserNavigate models the user changing the URL within the document, such
// as editing the hash: a new entry is pushed and popstate fires.
func (s *Simulator) UserNavigate(path string) {
	s.PushState(path)
	s.firePopState()
}

// Entries returns the native history as strings, oldest first.
func (s *Simulator) Entries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.entries))
	for i, u := range s.entries {
		out[i] = PathOf(u, true, true)
	}
	return out
}

// Index returns the position of the current entry.
func (s *Simulator) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

func (s *Simulator) resolve(path string) *url.URL {
	ref, err := url.Parse(path)
	if err != nil {
		ref = &url.URL{Path: path}
	}
	u := s.origin.ResolveReference(ref)
	if u.Path == "" {
		u.Path = "/"
	}
	return u
}

// firePopState calls listeners in registration order.
func (s *Simulator) firePopState() {
	s.mu.Lock()
	ids := make([]uint64, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	fns := make([]func(), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.listeners[id])
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

var _ Window = (*Simulator)(nil)
