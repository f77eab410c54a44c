package router

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/vango-dev/navrouter/internal/errors"
	"github.com/vango-dev/navrouter/pkg/browser"
	"github.com/vango-dev/navrouter/pkg/history"
)

// maxRedirectHops bounds path-to-label-to-path indirection that the
// configure-time cycle check cannot see, such as a redirect target whose
// path is shadowed by another redirecting pattern.
const maxRedirectHops = 16

// RedirectTo navigates to path. A path whose route redirects is followed to
// the target route; a path matching nothing goes to the not-found route,
// else home.
func (r *Router) RedirectTo(ctx context.Context, path string, opts ...RedirectOption) (err error) {
	o := buildRedirectOptions(opts)
	if o.Defer {
		r.deferNavigation(ctx, "redirect", func(ctx context.Context) error {
			return r.redirectTo(ctx, path, o, 0)
		})
		return nil
	}

	ctx, span := r.startSpan(ctx, "RedirectTo",
		attribute.String("navrouter.path", path),
		attribute.Bool("navrouter.replace", o.Replace))
	defer func() { r.endSpan(ctx, span, "redirect", err) }()
	return r.redirectTo(ctx, path, o, 0)
}

// RedirectToRoute navigates to the route labelled label, filling its
// pattern from WithVars.
func (r *Router) RedirectToRoute(ctx context.Context, label string, opts ...RedirectOption) (err error) {
	o := buildRedirectOptions(opts)
	if o.Defer {
		r.deferNavigation(ctx, "redirect", func(ctx context.Context) error {
			return r.redirectToRoute(ctx, label, o, 0)
		})
		return nil
	}

	ctx, span := r.startSpan(ctx, "RedirectToRoute",
		attribute.String("navrouter.label", label),
		attribute.Bool("navrouter.replace", o.Replace))
	defer func() { r.endSpan(ctx, span, "redirect", err) }()
	return r.redirectToRoute(ctx, label, o, 0)
}

func (r *Router) deferNavigation(ctx context.Context, op string, fn func(context.Context) error) {
	ctx = context.WithoutCancel(ctx)
	r.scheduler.Defer(func() {
		if err := fn(ctx); err != nil {
			r.logger.Error("deferred navigation failed", "op", op, "error", err)
			r.observer.OnError(ctx, op, err)
		}
	})
}

func (r *Router) redirectTo(ctx context.Context, path string, o RedirectOptions, hops int) error {
	table, err := r.requireConfigured()
	if err != nil {
		return err
	}
	if hops > maxRedirectHops {
		return errors.New(errors.CodeRedirectLoop).WithDetailf("gave up at %q after %d hops", path, hops)
	}

	base, query := splitLocation(path)
	m, ok := table.match(r.Language(), base)
	if !ok {
		target := table.fallback()
		if target == "" {
			return errors.New(errors.CodeNoRouteFound).WithDetail(base)
		}
		r.logger.Debug("no route for path, redirecting", "path", base, "label", target)
		r.observer.OnRedirect(ctx, base, target)
		o.Vars = nil
		return r.redirectToRoute(ctx, target, o, hops+1)
	}

	if target := m.Data.RedirectToRoute; target != "" {
		r.logger.Debug("route redirects", "path", base, "label", m.Data.Label, "target", target)
		r.observer.OnRedirect(ctx, base, target)
		vars := make(map[string]string, len(m.Params)+len(o.Vars))
		for k, v := range m.Params {
			vars[k] = v
		}
		for k, v := range o.Vars {
			vars[k] = v
		}
		o.Vars = vars
		return r.redirectToRoute(ctx, target, o, hops+1)
	}

	state := history.State{Path: base, Data: o.StateData}
	if query != "" {
		state.Path += "?" + query
	}
	if o.ReturnState != nil {
		state.Data = wrapReturnState(*o.ReturnState, o.StateData)
	}
	if o.Replace {
		return r.replaceState(ctx, state)
	}
	return r.pushState(ctx, state)
}

func (r *Router) redirectToRoute(ctx context.Context, label string, o RedirectOptions, hops int) error {
	table, err := r.requireConfigured()
	if err != nil {
		return err
	}
	route, err := table.followRedirects(r.Language(), label)
	if err != nil {
		return err
	}
	if route.Label != label {
		r.observer.OnRedirect(ctx, label, route.Label)
	}
	path, err := expandRoute(route, o.Vars)
	if err != nil {
		return err
	}
	o.Vars = nil
	return r.redirectTo(ctx, path, o, hops+1)
}

// PushState normalizes s and appends it to the history unless it equals the
// current state.
func (r *Router) PushState(ctx context.Context, s history.State) (err error) {
	ctx, span := r.startSpan(ctx, "PushState", attribute.String("navrouter.path", s.Path))
	defer func() { r.endSpan(ctx, span, "push", err) }()
	return r.pushState(ctx, s)
}

// ReplaceState normalizes s and replaces the current history entry with it
// unless it equals the current state.
func (r *Router) ReplaceState(ctx context.Context, s history.State) (err error) {
	ctx, span := r.startSpan(ctx, "ReplaceState", attribute.String("navrouter.path", s.Path))
	defer func() { r.endSpan(ctx, span, "replace", err) }()
	return r.replaceState(ctx, s)
}

// PushStateMap is PushState for an untyped state object. Keys other than
// path, data and id are rejected.
func (r *Router) PushStateMap(ctx context.Context, m map[string]any) error {
	s, err := history.StateFromMap(m)
	if err != nil {
		return err
	}
	return r.PushState(ctx, s)
}

// ReplaceStateMap is ReplaceState for an untyped state object.
func (r *Router) ReplaceStateMap(ctx context.Context, m map[string]any) error {
	s, err := history.StateFromMap(m)
	if err != nil {
		return err
	}
	return r.ReplaceState(ctx, s)
}

func (r *Router) pushState(ctx context.Context, s history.State) error {
	if _, err := r.requireConfigured(); err != nil {
		return err
	}
	next, current, err := r.normalizeState(ctx, s)
	if err != nil {
		return err
	}
	if history.Equal(next, current) {
		return nil
	}
	if _, err := r.history.Push(ctx, next, true); err != nil {
		return err
	}
	r.window.PushState(next.Path)
	r.observer.OnNavigate(ctx, NavigationPush, next.Path)
	return r.publish(ctx)
}

func (r *Router) replaceState(ctx context.Context, s history.State) error {
	if _, err := r.requireConfigured(); err != nil {
		return err
	}
	next, current, err := r.normalizeState(ctx, s)
	if err != nil {
		return err
	}
	if history.Equal(next, current) {
		return nil
	}
	if _, err := r.history.Replace(ctx, next); err != nil {
		return err
	}
	r.window.ReplaceState(next.Path)
	r.observer.OnNavigate(ctx, NavigationReplace, next.Path)
	return r.publish(ctx)
}

// CanGoBack reports whether GoBack would pop a state.
func (r *Router) CanGoBack(ctx context.Context) (bool, error) {
	return r.history.CanGoBack(ctx)
}

// GoBack pops the history stack and mirrors the new top into the native
// entry. It reports whether anything was popped.
func (r *Router) GoBack(ctx context.Context) (ok bool, err error) {
	ctx, span := r.startSpan(ctx, "GoBack")
	defer func() { r.endSpan(ctx, span, "back", err) }()

	if _, err := r.requireConfigured(); err != nil {
		return false, err
	}
	prev, ok, err := r.history.TryGoBack(ctx)
	if err != nil || !ok {
		return false, err
	}
	r.window.ReplaceState(prev.Path)
	r.observer.OnNavigate(ctx, NavigationBack, prev.Path)
	return true, r.publish(ctx)
}

// GoBackOrHome goes back, or home when there is nothing to go back to.
func (r *Router) GoBackOrHome(ctx context.Context) error {
	ok, err := r.GoBack(ctx)
	if err != nil || ok {
		return err
	}
	return r.GoHome(ctx)
}

// GoHome replaces the current entry with the home route unless it is
// already showing.
func (r *Router) GoHome(ctx context.Context) (err error) {
	ctx, span := r.startSpan(ctx, "GoHome")
	defer func() { r.endSpan(ctx, span, "home", err) }()

	table, err := r.requireConfigured()
	if err != nil {
		return err
	}
	if table.home == "" {
		return errors.New(errors.CodeNoRouteFound).
			WithDetail("no home route").
			WithSuggestion("Mark a route with IsHome or register one at \"/\".")
	}
	if home, _ := r.isHome(ctx, table); home {
		return nil
	}
	return r.redirectToRoute(ctx, table.home, RedirectOptions{Replace: true}, 0)
}

// IsHome reports whether the current location resolves to the home route.
func (r *Router) IsHome(ctx context.Context) (bool, error) {
	table, err := r.requireConfigured()
	if err != nil {
		return false, err
	}
	return r.isHome(ctx, table)
}

func (r *Router) isHome(ctx context.Context, table *routeTable) (bool, error) {
	value, err := r.resolve(ctx)
	if err != nil {
		return false, err
	}
	return table.home != "" && value.Route.Label == table.home, nil
}

// Return navigates to the state recorded with WithReturnState. If that
// state is the previous history entry the router goes back; otherwise it
// replaces the current entry. It reports false when there is nothing to
// return to.
func (r *Router) Return(ctx context.Context) (bool, error) {
	value, err := r.resolve(ctx)
	if err != nil {
		return false, err
	}
	ret, ok := ReturnStateOf(value.State)
	if !ok {
		return false, nil
	}

	items, err := r.history.Items(ctx)
	if err != nil {
		return false, err
	}
	if n := len(items); n >= 2 && history.Equal(items[n-2], ret) {
		return r.GoBack(ctx)
	}
	return true, r.RedirectTo(ctx, ret.Path, WithReplace(), WithStateData(ret.Data))
}

// handlePopState reconciles the stack after native back/forward. It
// reports whether the event was handled, in which case the browser must
// not reload.
func (r *Router) handlePopState() bool {
	ctx := context.Background()
	if !r.IsConfigured() {
		return false
	}

	loc := r.window.Location()
	live := browser.PathOf(loc, true, true)

	prev, ok, err := r.history.TryGoBack(ctx)
	if err != nil {
		r.logger.Error("popstate: history unavailable", "error", err)
		r.observer.OnError(ctx, "popstate", err)
		return false
	}
	if ok && prev.Path == live {
		r.observer.OnNavigate(ctx, NavigationPopState, live)
		r.publishLater(ctx)
		return true
	}

	// The fragment was not written by the router; treat it as user input.
	clean := browser.PathOf(loc, true, false)
	if loc.Fragment != "" {
		r.logger.Debug("popstate: dropping user hash", "hash", loc.Fragment)
		r.window.ReplaceState(clean)
	}
	if _, err := r.history.Push(ctx, history.State{Path: clean}, false); err != nil {
		r.logger.Error("popstate: push failed", "error", err)
		r.observer.OnError(ctx, "popstate", err)
		return false
	}
	r.observer.OnNavigate(ctx, NavigationPopState, clean)
	r.publishLater(ctx)
	return true
}
