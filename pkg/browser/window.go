package browser

import (
	"net/url"
	"strings"
)

// Window is the subset of a browser window the router uses.
type Window interface {
	// Location returns the current URL.
	Location() *url.URL

	// PushState adds a session history entry for path (history.pushState(null, "", path)).
	PushState(path string)

	// ReplaceState rewrites the current entry (history.replaceState(null, "", path)).
	ReplaceState(path string)

	// OnPopState registers fn for back/forward notifications.
	OnPopState(fn func()) (remove func())
}

// PathOf returns the path of u with the query and fragment selected by the flags.
func PathOf(u *url.URL, includeSearch, includeHash bool) string {
	p := u.EscapedPath()
	if p == "" {
		p = "/"
	}
	if includeSearch && u.RawQuery != "" {
		p += "?" + u.RawQuery
	}
	if includeHash && u.Fragment != "" {
		p += "#" + u.EscapedFragment()
	}
	return p
}

// ParseSearch decodes a query string into a map holding the first value of
// every parameter.
func ParseSearch(rawQuery string) map[string]string {
	out := make(map[string]string)
	values, err := url.ParseQuery(strings.TrimPrefix(rawQuery, "?"))
	if err != nil {
		return out
	}
	for k, v := range values {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}
