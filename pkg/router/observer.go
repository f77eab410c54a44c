package router

import "context"

// NavigationKind names the primitive that changed the history.
type NavigationKind string

const (
	NavigationPush     NavigationKind = "push"
	NavigationReplace  NavigationKind = "replace"
	NavigationBack     NavigationKind = "back"
	NavigationPopState NavigationKind = "popstate"
)

// Observer receives router events. Implementations must not call back into
// the router.
type Observer interface {
	// OnPublish is called after a new value is published.
	OnPublish(ctx context.Context, value RouteAndState)

	// OnNavigate is called after the history changed.
	OnNavigate(ctx context.Context, kind NavigationKind, path string)

	// OnRedirect is called when a route or missing route forwards elsewhere.
	OnRedirect(ctx context.Context, from, to string)

	// OnError is called when an operation fails.
	OnError(ctx context.Context, op string, err error)
}

// NopObserver ignores all events.
type NopObserver struct{}

func (NopObserver) OnPublish(context.Context, RouteAndState)           {}
func (NopObserver) OnNavigate(context.Context, NavigationKind, string) {}
func (NopObserver) OnRedirect(context.Context, string, string)         {}
func (NopObserver) OnError(context.Context, string, error)             {}
