package pathmatch

import (
	"sort"
	"strings"

	"github.com/vango-dev/navrouter/internal/errors"
)

const (
	wildcardToken = "*"
	catchAllToken = "**"
)

// Match is the result of resolving a concrete path.
type Match[T any] struct {
	// Selector is the registered pattern that matched.
	Selector string

	// Params holds the named captures (":id" -> "id").
	Params map[string]string

	// Data is the value registered with the pattern.
	Data T
}

// Matcher maps path patterns to data. It is not safe for concurrent
// mutation; concurrent MatchOne calls are fine once registration is done.
type Matcher[T any] struct {
	root *node
	data map[string]T
}

// New creates an empty matcher.
func New[T any]() *Matcher[T] {
	return &Matcher[T]{
		root: newNode(""),
		data: make(map[string]T),
	}
}

// Add registers pattern with data. Re-adding a pattern overwrites its data.
func (m *Matcher[T]) Add(pattern string, data T) error {
	segments := splitPath(pattern)
	if err := validateSegments(pattern, segments); err != nil {
		return err
	}

	current := m.root
	for _, seg := range segments {
		current = current.insertChild(seg)
	}

	m.data[joinSelector(segments)] = data
	return nil
}

// MatchOne resolves path to the first matching pattern by precedence.
// It returns false when nothing matches; it never fails otherwise.
func (m *Matcher[T]) MatchOne(path string) (*Match[T], bool) {
	segments := splitPath(path)
	params := make(map[string]string)

	selector, ok := m.match(m.root, segments, make([]string, 0, len(segments)), params)
	if !ok {
		return nil, false
	}

	return &Match[T]{
		Selector: selector,
		Params:   params,
		Data:     m.data[selector],
	}, true
}

// ClearAll empties the trie and the pattern index.
func (m *Matcher[T]) ClearAll() {
	m.root = newNode("")
	m.data = make(map[string]T)
}

// Lookup returns the data registered for an exact pattern.
func (m *Matcher[T]) Lookup(pattern string) (T, bool) {
	d, ok := m.data[joinSelector(splitPath(pattern))]
	return d, ok
}

// Len returns the number of registered patterns.
func (m *Matcher[T]) Len() int {
	return len(m.data)
}

// Patterns returns the registered patterns in lexical order.
func (m *Matcher[T]) Patterns() []string {
	out := make([]string, 0, len(m.data))
	for p := range m.data {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// match consumes segments from n. tokens holds the pattern tokens consumed so
// far; params is mutated in place and restored on backtrack.
func (m *Matcher[T]) match(n *node, segments []string, tokens []string, params map[string]string) (string, bool) {
	if len(segments) == 0 {
		return "", false
	}

	segment := segments[0]
	remaining := segments[1:]

	// Try exact match first
	if child := n.findChild(segment); child != nil {
		if sel, ok := m.descend(child, remaining, tokens, params); ok {
			return sel, true
		}
	}

	// The root segment is empty and never fills a capture or a "*"
	if segment == "" {
		return m.matchCatchAll(n, tokens)
	}

	// Named captures, registration order
	for _, child := range n.paramChildren {
		name := child.paramName()
		prev, had := params[name]
		params[name] = segment
		if sel, ok := m.descend(child, remaining, tokens, params); ok {
			return sel, true
		}
		// Backtrack on failure
		if had {
			params[name] = prev
		} else {
			delete(params, name)
		}
	}

	if n.wildcardChild != nil {
		if sel, ok := m.descend(n.wildcardChild, remaining, tokens, params); ok {
			return sel, true
		}
	}

	return m.matchCatchAll(n, tokens)
}

// matchCatchAll consumes the rest of the path. It is always terminal.
func (m *Matcher[T]) matchCatchAll(n *node, tokens []string) (string, bool) {
	if n.catchAllChild == nil {
		return "", false
	}
	sel := joinSelector(append(tokens, catchAllToken))
	if _, ok := m.data[sel]; ok {
		return sel, true
	}
	return "", false
}

// descend accepts child for the current segment: either it is the last
// segment and the selector is registered, or matching continues below it.
func (m *Matcher[T]) descend(child *node, remaining []string, tokens []string, params map[string]string) (string, bool) {
	tokens = append(tokens, child.segment)
	if len(remaining) == 0 {
		sel := joinSelector(tokens)
		if _, ok := m.data[sel]; ok {
			return sel, true
		}
		return "", false
	}
	return m.match(child, remaining, tokens, params)
}

func validateSegments(pattern string, segments []string) error {
	for i, seg := range segments {
		switch {
		case seg == catchAllToken:
			if i != len(segments)-1 {
				return errors.New(errors.CodeInvalidPattern).
					WithDetailf("%q: ** must be the last segment", pattern)
			}
		case strings.Contains(seg, catchAllToken):
			return errors.New(errors.CodeInvalidPattern).
				WithDetailf("%q: ** must be a whole segment", pattern)
		case seg == ":":
			return errors.New(errors.CodeInvalidPattern).
				WithDetailf("%q: named segment without a name", pattern)
		}
	}
	return nil
}

// splitPath splits a path into segments, dropping empty ones. The root path
// is the single empty segment.
func splitPath(path string) []string {
	parts := strings.Split(path, "/")
	segments := parts[:0]
	for _, p := range parts {
		if p != "" {
			segments = append(segments, p)
		}
	}
	if len(segments) == 0 {
		return []string{""}
	}
	return segments
}

// joinSelector is the canonical pattern string for a token list.
func joinSelector(tokens []string) string {
	return "/" + strings.Join(tokens, "/")
}
