// Package errors provides the coded, actionable errors used across navrouter.
//
// Every failure the router core can raise has a stable code that maps to a
// short message, a longer explanation and a category:
//   - config: route table problems found at registration time
//   - runtime: resolution failures (not configured, no route matched)
//   - validation: caller contract violations (duplicate state, bad state shape)
//   - storage: persisted history problems (recovered locally, logged only)
//
// # Usage
//
//	err := errors.New(errors.CodeNoRouteFound).
//	    WithDetail(`path "/nope" matches no registered pattern`).
//	    WithSuggestion(`Register a route labelled "not-found"`)
//
//	fmt.Println(err.Format())
//
// Errors compare by code, so a fresh error matches the package sentinels:
//
//	if errors.Is(err, errors.ErrNoRouteFound) { ... }
//
// The standard library's errors.Is/As are re-exported for convenience.
package errors
