package pathmatch

import (
	"reflect"
	"testing"

	"github.com/vango-dev/navrouter/internal/errors"
)

func TestAddRejectsMisplacedCatchAll(t *testing.T) {
	tests := []struct {
		pattern string
		wantErr bool
	}{
		{"/files/**", false},
		{"/**", false},
		{"/a/:id/**", false},
		{"/a/**/b", true},
		{"/a/x**", true},
		{"/a/**x/", true},
		{"/a/:", true},
		{"/a/*/b", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			m := New[int]()
			err := m.Add(tt.pattern, 1)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Add(%q) err = %v, wantErr %v", tt.pattern, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errors.ErrInvalidPattern) {
				t.Errorf("Add(%q) err = %v, want ErrInvalidPattern", tt.pattern, err)
			}
		})
	}
}

func TestMatchOneConcreteExample(t *testing.T) {
	m := New[map[string]string]()
	if err := m.Add("/users/:id", map[string]string{"owner": "users"}); err != nil {
		t.Fatal(err)
	}

	got, ok := m.MatchOne("/users/42")
	if !ok {
		t.Fatal("expected match")
	}
	if got.Selector != "/users/:id" {
		t.Errorf("Selector = %q, want %q", got.Selector, "/users/:id")
	}
	if !reflect.DeepEqual(got.Params, map[string]string{"id": "42"}) {
		t.Errorf("Params = %v", got.Params)
	}
	if got.Data["owner"] != "users" {
		t.Errorf("Data = %v", got.Data)
	}
}

func TestMatchOnePrecedence(t *testing.T) {
	m := New[string]()
	for _, p := range []string{"/a/**", "/a/*", "/a/:x", "/a/b"} {
		if err := m.Add(p, p); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		path       string
		wantSel    string
		wantParams map[string]string
	}{
		{"/a/b", "/a/b", map[string]string{}},
		{"/a/c", "/a/:x", map[string]string{"x": "c"}},
		{"/a/c/d", "/a/**", map[string]string{}},
		{"/a/b/c", "/a/**", map[string]string{}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := m.MatchOne(tt.path)
			if !ok {
				t.Fatalf("MatchOne(%q) no match", tt.path)
			}
			if got.Selector != tt.wantSel {
				t.Errorf("Selector = %q, want %q", got.Selector, tt.wantSel)
			}
			if !reflect.DeepEqual(got.Params, tt.wantParams) {
				t.Errorf("Params = %v, want %v", got.Params, tt.wantParams)
			}
		})
	}
}

func TestMatchOneWildcardBeforeCatchAll(t *testing.T) {
	m := New[string]()
	_ = m.Add("/a/*", "one")
	_ = m.Add("/a/**", "rest")

	got, ok := m.MatchOne("/a/z")
	if !ok || got.Selector != "/a/*" {
		t.Errorf("MatchOne(/a/z) = %+v, want /a/*", got)
	}
}

func TestMatchOneTrailingWildcard(t *testing.T) {
	m := New[string]()
	_ = m.Add("/files/**", "files")

	got, ok := m.MatchOne("/files/x/y/z")
	if !ok {
		t.Fatal("expected match")
	}
	if got.Selector != "/files/**" {
		t.Errorf("Selector = %q", got.Selector)
	}
	if len(got.Params) != 0 {
		t.Errorf("Params = %v, want none", got.Params)
	}

	// ** needs at least one segment below /files
	if _, ok := m.MatchOne("/files"); ok {
		t.Error("/files should not match /files/**")
	}
}

func TestMatchOneBacktracks(t *testing.T) {
	m := New[string]()
	_ = m.Add("/a/b/c", "literal")
	_ = m.Add("/a/:x/d", "param")

	got, ok := m.MatchOne("/a/b/d")
	if !ok {
		t.Fatal("expected match after backtracking")
	}
	if got.Selector != "/a/:x/d" || got.Params["x"] != "b" {
		t.Errorf("got %+v", got)
	}

	// A failed capture branch must not leak its params
	_ = m.Add("/p/:first/q", "deep")
	_ = m.Add("/p/*", "shallow")
	got, ok = m.MatchOne("/p/v")
	if !ok || got.Selector != "/p/*" {
		t.Fatalf("got %+v", got)
	}
	if _, leaked := got.Params["first"]; leaked {
		t.Errorf("Params leaked from failed branch: %v", got.Params)
	}
}

func TestMatchOneIntermediateNodeWithoutData(t *testing.T) {
	m := New[string]()
	_ = m.Add("/a/b/c", "deep")

	if _, ok := m.MatchOne("/a/b"); ok {
		t.Error("/a/b has no data and must not match")
	}
}

func TestMatchOneNamedCaptureRegistrationOrder(t *testing.T) {
	m := New[string]()
	_ = m.Add("/items/:id", "first")
	_ = m.Add("/items/:slug", "second")

	for i := 0; i < 10; i++ {
		got, ok := m.MatchOne("/items/7")
		if !ok || got.Selector != "/items/:id" {
			t.Fatalf("MatchOne = %+v, want /items/:id", got)
		}
	}

	// The second capture is still reachable when the first dead-ends.
	_ = m.Add("/items/:slug/edit", "edit")
	got, ok := m.MatchOne("/items/7/edit")
	if !ok || got.Selector != "/items/:slug/edit" || got.Params["slug"] != "7" {
		t.Errorf("got %+v", got)
	}
}

func TestMatchOneRoot(t *testing.T) {
	m := New[string]()
	_ = m.Add("/", "home")

	for _, p := range []string{"/", ""} {
		got, ok := m.MatchOne(p)
		if !ok || got.Selector != "/" || got.Data != "home" {
			t.Errorf("MatchOne(%q) = %+v", p, got)
		}
	}
}

func TestMatchOneRootFillsNoCapture(t *testing.T) {
	m := New[string]()
	_ = m.Add("/:lang", "lang")
	_ = m.Add("/*", "any")

	if got, ok := m.MatchOne("/"); ok {
		t.Errorf("MatchOne(/) = %+v, want no match", got)
	}

	_ = m.Add("/**", "rest")
	got, ok := m.MatchOne("/")
	if !ok || got.Selector != "/**" || len(got.Params) != 0 {
		t.Errorf("MatchOne(/) = %+v, want /** without params", got)
	}
}

func TestMatchOneUnmatched(t *testing.T) {
	m := New[string]()
	_ = m.Add("/users/:id", "users")

	if got, ok := m.MatchOne("/nope"); ok || got != nil {
		t.Errorf("MatchOne(/nope) = %+v, %v", got, ok)
	}
}

func TestMatchOneIgnoresEmptySegments(t *testing.T) {
	m := New[string]()
	_ = m.Add("/a/b/", "ab")

	got, ok := m.MatchOne("//a//b")
	if !ok || got.Selector != "/a/b" {
		t.Errorf("got %+v", got)
	}
}

func TestMatchOneDeterministic(t *testing.T) {
	m := New[string]()
	for _, p := range []string{"/a/:x/:y", "/a/:z/*", "/a/**", "/b"} {
		_ = m.Add(p, p)
	}

	first, _ := m.MatchOne("/a/1/2")
	for i := 0; i < 20; i++ {
		got, _ := m.MatchOne("/a/1/2")
		if !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d: %+v != %+v", i, got, first)
		}
	}
}

func TestAddOverwrites(t *testing.T) {
	m := New[string]()
	_ = m.Add("/a", "old")
	_ = m.Add("/a/", "new")

	if m.Len() != 1 {
		t.Errorf("Len = %d, want 1", m.Len())
	}
	got, _ := m.MatchOne("/a")
	if got.Data != "new" {
		t.Errorf("Data = %q, want new", got.Data)
	}
}

func TestClearAll(t *testing.T) {
	m := New[string]()
	_ = m.Add("/a", "a")
	m.ClearAll()

	if m.Len() != 0 {
		t.Errorf("Len = %d", m.Len())
	}
	if _, ok := m.MatchOne("/a"); ok {
		t.Error("cleared matcher should not match")
	}
}

func TestPatternsAndLookup(t *testing.T) {
	m := New[int]()
	_ = m.Add("/b", 2)
	_ = m.Add("/a/:id", 1)

	if got := m.Patterns(); !reflect.DeepEqual(got, []string{"/a/:id", "/b"}) {
		t.Errorf("Patterns = %v", got)
	}
	if v, ok := m.Lookup("/a/:id/"); !ok || v != 1 {
		t.Errorf("Lookup = %v, %v", v, ok)
	}
}

func TestExpand(t *testing.T) {
	tests := []struct {
		pattern string
		vars    map[string]string
		want    string
		wantErr bool
	}{
		{"/users/:id", map[string]string{"id": "42"}, "/users/42", false},
		{"/", nil, "/", false},
		{"/files/**", map[string]string{"**": "a/b"}, "/files/a/b", false},
		{"/files/*", map[string]string{"*": "x"}, "/files/x", false},
		{"/users/:id", nil, "", true},
		{"/a/**/b", nil, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			got, err := Expand(tt.pattern, tt.vars)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Expand = %q, want %q", got, tt.want)
			}
		})
	}
}
