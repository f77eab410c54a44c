// Package pathmatch implements the segment trie that maps route patterns to
// route data.
//
// Patterns are slash-separated segments of four kinds:
//
//	/users          literal segment
//	/users/:id      named capture of one segment
//	/files/*        anonymous wildcard for one segment
//	/files/**       trailing wildcard for all remaining segments
//
// MatchOne walks the trie depth-first. At every segment it tries, in order,
// the literal child, the named captures (in registration order), the single
// wildcard and finally the trailing wildcard, backtracking when a branch
// dead-ends. The first branch that ends on a registered pattern wins; the
// search is greedy, not globally optimal.
//
//	m := pathmatch.New[string]()
//	_ = m.Add("/users/:id", "users")
//	match, ok := m.MatchOne("/users/42")
//	// match.Selector == "/users/:id", match.Params["id"] == "42"
package pathmatch
