package router

import "github.com/vango-dev/navrouter/pkg/history"

// RedirectOptions configures RedirectTo and RedirectToRoute.
type RedirectOptions struct {
	// Replace replaces the current history entry instead of pushing.
	Replace bool

	// StateData is attached to the new state.
	StateData any

	// ReturnState, when set, is wrapped into the new state's data so the
	// target can send the user back (see Return).
	ReturnState *history.State

	// Defer runs the navigation on the scheduler instead of inline.
	Defer bool

	// Vars fill the named segments of the target route's pattern.
	Vars map[string]string
}

// RedirectOption is a functional option for RedirectTo.
type RedirectOption func(*RedirectOptions)

// WithReplace replaces the current history entry instead of pushing.
func WithReplace() RedirectOption {
	return func(o *RedirectOptions) {
		o.Replace = true
	}
}

// WithStateData attaches data to the new state.
func WithStateData(data any) RedirectOption {
	return func(o *RedirectOptions) {
		o.StateData = data
	}
}

// WithReturnState records where the target should return to.
func WithReturnState(s history.State) RedirectOption {
	return func(o *RedirectOptions) {
		o.ReturnState = &s
	}
}

// WithDefer runs the navigation after the current task.
func WithDefer() RedirectOption {
	return func(o *RedirectOptions) {
		o.Defer = true
	}
}

// WithVars fills the target pattern's named segments.
func WithVars(vars map[string]string) RedirectOption {
	return func(o *RedirectOptions) {
		o.Vars = vars
	}
}

func buildRedirectOptions(opts []RedirectOption) RedirectOptions {
	var o RedirectOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
