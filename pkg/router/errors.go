package router

import "github.com/vango-dev/navrouter/internal/errors"

// Errors returned by the router. Compare with errors.Is.
var (
	ErrInvalidPattern    = errors.ErrInvalidPattern
	ErrNotConfigured     = errors.ErrNotConfigured
	ErrNoRouteFound      = errors.ErrNoRouteFound
	ErrDuplicateState    = errors.ErrDuplicateState
	ErrInvalidStateShape = errors.ErrInvalidStateShape
	ErrRedirectLoop      = errors.ErrRedirectLoop
	ErrInvalidRoute      = errors.ErrInvalidRoute
)
