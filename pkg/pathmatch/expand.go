package pathmatch

import (
	"fmt"
	"strings"
)

// Expand builds a concrete path from pattern. Named segments are taken from
// vars by name; "*" and "**" are taken from vars["*"] and vars["**"].
func Expand(pattern string, vars map[string]string) (string, error) {
	segments := splitPath(pattern)
	if err := validateSegments(pattern, segments); err != nil {
		return "", err
	}

	out := make([]string, 0, len(segments))
	for _, seg := range segments {
		switch {
		case seg == wildcardToken || seg == catchAllToken:
			v, ok := vars[seg]
			if !ok {
				return "", fmt.Errorf("pathmatch: %q needs a value for %s", pattern, seg)
			}
			v = strings.Trim(v, "/")
			if v != "" {
				out = append(out, v)
			}
		case strings.HasPrefix(seg, ":"):
			name := seg[1:]
			v, ok := vars[name]
			if !ok || v == "" {
				return "", fmt.Errorf("pathmatch: %q needs a value for %s", pattern, seg)
			}
			out = append(out, v)
		default:
			if seg != "" {
				out = append(out, seg)
			}
		}
	}
	return "/" + strings.Join(out, "/"), nil
}
