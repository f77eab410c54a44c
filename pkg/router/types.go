package router

import (
	"reflect"

	"github.com/vango-dev/navrouter/pkg/history"
)

// Layout describes the component tree a route renders. The router only
// checks its shape.
type Layout struct {
	Component string         `json:"component" yaml:"component"`
	Props     map[string]any `json:"props,omitempty" yaml:"props,omitempty"`
}

// Panel is a named region of a layout.
type Panel struct {
	Component string         `json:"component" yaml:"component"`
	Props     map[string]any `json:"props,omitempty" yaml:"props,omitempty"`
}

// Route is a static route registration.
type Route struct {
	// Label identifies the route within its language.
	Label string `json:"label" yaml:"label"`

	// Path is the pattern, e.g. "/items/:id" or "/files/**".
	Path string `json:"path" yaml:"path"`

	// Language scopes the label. Empty means the router's default language.
	Language string `json:"language,omitempty" yaml:"language,omitempty"`

	// RedirectToRoute forwards to another label transparently.
	RedirectToRoute string `json:"redirectToRoute,omitempty" yaml:"redirectToRoute,omitempty"`

	Layout *Layout           `json:"layout,omitempty" yaml:"layout,omitempty"`
	Panels map[string]*Panel `json:"panels,omitempty" yaml:"panels,omitempty"`

	// IsHome and IsNotFound override the default home ("/") and
	// not-found ("not-found") detection.
	IsHome     bool `json:"isHome,omitempty" yaml:"isHome,omitempty"`
	IsNotFound bool `json:"isNotFound,omitempty" yaml:"isNotFound,omitempty"`
}

// ResolvedRoute is a matched route: the pattern, its captured variables,
// the query parameters and the route's static fields.
type ResolvedRoute struct {
	Route

	// Selector is the pattern that matched.
	Selector string `json:"selector"`

	// Vars holds the captured ":name" segments.
	Vars map[string]string `json:"vars"`

	// Search holds the first value of every query parameter.
	Search map[string]string `json:"search,omitempty"`
}

// RouteAndState is the value the router publishes.
type RouteAndState struct {
	Route ResolvedRoute `json:"route"`
	State history.State `json:"state"`
}

// Label returns the resolved route label.
func (r *RouteAndState) Label() string {
	if r == nil {
		return ""
	}
	return r.Route.Label
}

// equalRouteAndState compares published values, treating state data by its
// JSON form.
func equalRouteAndState(a, b *RouteAndState) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if !history.Equal(a.State, b.State) {
		return false
	}
	return reflect.DeepEqual(a.Route, b.Route)
}
