package router

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/navrouter/internal/errors"
	"github.com/vango-dev/navrouter/pkg/browser"
	"github.com/vango-dev/navrouter/pkg/history"
	"github.com/vango-dev/navrouter/pkg/pathmatch"
	"github.com/vango-dev/navrouter/pkg/reactive"
	"github.com/vango-dev/navrouter/pkg/storage"
)

const tracerName = "github.com/vango-dev/navrouter/pkg/router"

// Router resolves the window location to a route and publishes it.
type Router struct {
	window    browser.Window
	history   *history.Storage
	store     *reactive.Store[*RouteAndState]
	scheduler reactive.Scheduler
	logger    *slog.Logger
	observer  Observer
	newID     history.IDGenerator
	tracer    trace.Tracer

	defaultLanguage string
	language        *reactive.Cell[string]

	table atomic.Pointer[routeTable]

	// mu guards the activation state below.
	mu             sync.Mutex
	active         bool
	detach         []func()
	stopActivation func()
}

// New creates a router for window whose history stack is persisted in kv.
// Routes must be registered with ConfigureRoutes before anything resolves.
func New(window browser.Window, kv storage.KV, opts ...Option) *Router {
	cfg := config{
		scheduler:        reactive.Immediate{},
		logger:           slog.Default(),
		historyKey:       history.DefaultKey,
		maxHistoryLength: history.DefaultMaxLength,
		defaultLanguage:  DefaultLanguage,
		observer:         NopObserver{},
		newID:            history.NewID,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.tracerProvider == nil {
		cfg.tracerProvider = otel.GetTracerProvider()
	}

	r := &Router{
		window: window,
		history: history.NewStorage(kv,
			history.WithKey(cfg.historyKey),
			history.WithMaxLength(cfg.maxHistoryLength),
			history.WithLogger(cfg.logger),
		),
		scheduler:       cfg.scheduler,
		logger:          cfg.logger,
		observer:        cfg.observer,
		newID:           cfg.newID,
		tracer:          cfg.tracerProvider.Tracer(tracerName),
		defaultLanguage: cfg.defaultLanguage,
		language:        cfg.language,
	}
	r.store = reactive.NewStore[*RouteAndState](nil, cfg.scheduler).WithEquals(equalRouteAndState)
	r.stopActivation = r.store.HasSubscribers().Subscribe(r.setActive)
	return r
}

// Close detaches all listeners. The router must not be used afterwards.
func (r *Router) Close() {
	r.stopActivation()
	r.setActive(false)
}

// History returns the persisted stack.
func (r *Router) History() *history.Storage {
	return r.history
}

// Store returns the published {route, state} store. Its value is nil until
// the first publish.
func (r *Router) Store() *reactive.Store[*RouteAndState] {
	return r.store
}

// Subscribe is shorthand for Store().Subscribe.
func (r *Router) Subscribe(fn func(*RouteAndState)) (unsubscribe func()) {
	return r.store.Subscribe(fn)
}

// Current returns the last published value, or nil.
func (r *Router) Current() *RouteAndState {
	return r.store.Get()
}

// IsConfigured reports whether ConfigureRoutes has succeeded.
func (r *Router) IsConfigured() bool {
	return r.table.Load() != nil
}

// Language returns the active language.
func (r *Router) Language() string {
	if r.language != nil {
		if lang := r.language.Get(); lang != "" {
			return lang
		}
	}
	return r.defaultLanguage
}

// ConfigureRoutes replaces the route table. If the current location matches
// no route, or a route that redirects, the router redirects right away;
// otherwise the first publish is deferred to the scheduler.
func (r *Router) ConfigureRoutes(ctx context.Context, routes []Route) (err error) {
	ctx, span := r.startSpan(ctx, "ConfigureRoutes", attribute.Int("navrouter.routes", len(routes)))
	defer func() { r.endSpan(ctx, span, "configure", err) }()

	table, err := buildTable(routes, r.defaultLanguage)
	if err != nil {
		return err
	}
	r.table.Store(table)
	r.logger.Debug("routes configured",
		"count", len(routes),
		"home", table.home,
		"not_found", table.notFound)

	redirected, err := r.tryCurrentRouteIsRedirect(ctx)
	if err != nil {
		return err
	}
	if !redirected {
		r.publishLater(ctx)
	}
	return nil
}

// Routes returns the registered routes in registration order.
func (r *Router) Routes() []Route {
	table := r.table.Load()
	if table == nil {
		return nil
	}
	return table.routes()
}

// RouteByLabel looks label up in the active language, falling back to the
// default language.
func (r *Router) RouteByLabel(label string) (Route, bool) {
	table := r.table.Load()
	if table == nil {
		return Route{}, false
	}
	route, ok := table.lookup(r.Language(), label)
	if !ok {
		return Route{}, false
	}
	return *route, true
}

// PathForRoute builds a concrete path for label from vars.
func (r *Router) PathForRoute(label string, vars map[string]string) (string, error) {
	table := r.table.Load()
	if table == nil {
		return "", errors.New(errors.CodeNotConfigured)
	}
	route, ok := table.lookup(r.Language(), label)
	if !ok {
		return "", errors.New(errors.CodeNoRouteFound).WithDetailf("no route labelled %q", label)
	}
	return expandRoute(route, vars)
}

// MatchPath resolves path (query and fragment ignored) without touching
// any history.
func (r *Router) MatchPath(path string) (ResolvedRoute, error) {
	table := r.table.Load()
	if table == nil {
		return ResolvedRoute{}, errors.New(errors.CodeNotConfigured)
	}
	base, query := splitLocation(path)
	m, ok := table.match(r.Language(), base)
	if !ok {
		return ResolvedRoute{}, errors.New(errors.CodeNoRouteFound).WithDetail(base)
	}
	return resolved(m, query), nil
}

// RouteAndState resolves the current location to a route and its history
// state, repairing the history stack if it disagrees with the location.
func (r *Router) RouteAndState(ctx context.Context) (value RouteAndState, err error) {
	ctx, span := r.startSpan(ctx, "RouteAndState")
	defer func() { r.endSpan(ctx, span, "resolve", err) }()
	return r.resolve(ctx)
}

func (r *Router) resolve(ctx context.Context) (RouteAndState, error) {
	table := r.table.Load()
	if table == nil {
		return RouteAndState{}, errors.New(errors.CodeNotConfigured)
	}

	state, err := r.currentState(ctx)
	if err != nil {
		return RouteAndState{}, err
	}

	base, query := splitLocation(state.Path)
	m, ok := table.match(r.Language(), base)
	if !ok {
		return RouteAndState{}, errors.New(errors.CodeNoRouteFound).WithDetail(base)
	}
	return RouteAndState{Route: resolved(m, query), State: state}, nil
}

func resolved(m *pathmatch.Match[*Route], query string) ResolvedRoute {
	rr := ResolvedRoute{
		Route:    *m.Data,
		Selector: m.Selector,
		Vars:     unescapeVars(m.Params),
	}
	if query != "" {
		rr.Search = browser.ParseSearch(query)
	}
	return rr
}

// unescapeVars decodes captured segments. A segment that is not valid
// percent-encoding is kept as matched.
func unescapeVars(params map[string]string) map[string]string {
	if params == nil {
		return nil
	}
	out := make(map[string]string, len(params))
	for k, v := range params {
		if dec, err := url.PathUnescape(v); err == nil {
			v = dec
		}
		out[k] = v
	}
	return out
}

// tryCurrentRouteIsRedirect redirects when the live location matches no
// route or a route with RedirectToRoute. It reports whether it redirected.
func (r *Router) tryCurrentRouteIsRedirect(ctx context.Context) (bool, error) {
	table := r.table.Load()
	path := browser.PathOf(r.window.Location(), false, false)

	m, ok := table.match(r.Language(), path)
	if !ok {
		target := table.fallback()
		if target == "" {
			return false, errors.New(errors.CodeNoRouteFound).
				WithDetail(path).
				WithSuggestion("Register a route labelled \"not-found\" or a home route at \"/\".")
		}
		r.logger.Debug("no route for location, redirecting", "path", path, "label", target)
		r.observer.OnRedirect(ctx, path, target)
		return true, r.redirectToRoute(ctx, target, RedirectOptions{Replace: true}, 0)
	}

	if target := m.Data.RedirectToRoute; target != "" {
		r.logger.Debug("route redirects", "path", path, "label", m.Data.Label, "target", target)
		r.observer.OnRedirect(ctx, path, target)
		return true, r.redirectToRoute(ctx, target, RedirectOptions{Replace: true, Vars: m.Params}, 0)
	}
	return false, nil
}

// publish resolves the current route and publishes it unless unchanged.
func (r *Router) publish(ctx context.Context) error {
	value, err := r.resolve(ctx)
	if err != nil {
		return err
	}
	if equalRouteAndState(r.store.Get(), &value) {
		return nil
	}
	r.store.Set(&value, false)
	r.observer.OnPublish(ctx, value)
	return nil
}

// publishLater runs publish after the current task so that consumers
// created in the same task can subscribe first.
func (r *Router) publishLater(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	r.scheduler.Defer(func() {
		if err := r.publish(ctx); err != nil {
			r.logger.Error("deferred publish failed", "error", err)
			r.observer.OnError(ctx, "publish", err)
		}
	})
}

// setActive attaches or detaches the popstate and language listeners.
func (r *Router) setActive(active bool) {
	r.mu.Lock()
	if active == r.active {
		r.mu.Unlock()
		return
	}
	r.active = active

	if !active {
		detach := r.detach
		r.detach = nil
		r.mu.Unlock()
		for _, fn := range detach {
			fn()
		}
		r.logger.Debug("router inactive")
		return
	}

	r.detach = append(r.detach, r.window.OnPopState(func() { r.handlePopState() }))
	if r.language != nil {
		first := true
		r.detach = append(r.detach, r.language.Subscribe(func(lang string) {
			if first {
				first = false
				return
			}
			r.languageChanged(lang)
		}))
	}
	r.mu.Unlock()

	r.logger.Debug("router active")
	if r.IsConfigured() {
		r.publishLater(context.Background())
	}
}

// languageChanged re-resolves the current location in the new language.
// Routes are not redirected to their counterpart in the new language.
func (r *Router) languageChanged(lang string) {
	if !r.IsConfigured() {
		return
	}
	ctx := context.Background()
	r.logger.Debug("language changed", "language", lang)
	if err := r.publish(ctx); err != nil {
		r.logger.Error("re-resolve after language change failed", "language", lang, "error", err)
		r.observer.OnError(ctx, "language", err)
	}
}

func (r *Router) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return r.tracer.Start(ctx, "navrouter."+name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

func (r *Router) endSpan(ctx context.Context, span trace.Span, op string, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.observer.OnError(ctx, op, err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

func (r *Router) requireConfigured() (*routeTable, error) {
	table := r.table.Load()
	if table == nil {
		return nil, errors.New(errors.CodeNotConfigured)
	}
	return table, nil
}

func expandRoute(route *Route, vars map[string]string) (string, error) {
	path, err := pathmatch.Expand(route.Path, vars)
	if err != nil {
		return "", errors.New(errors.CodeInvalidRoute).
			WithDetailf("route %q", route.Label).
			Wrap(err)
	}
	return path, nil
}

// canonicalPath drops any origin and fragment and escapes the path the way
// the window reports its location, so "/a b" and "/a%20b" compare equal.
func canonicalPath(p string) string {
	if strings.Contains(p, "://") {
		if u, err := url.Parse(p); err == nil {
			return browser.PathOf(u, true, false)
		}
	}
	path, query, hasQuery := strings.Cut(stripHash(p), "?")
	if dec, err := url.PathUnescape(path); err == nil {
		path = (&url.URL{Path: dec, RawPath: path}).EscapedPath()
	}
	if hasQuery {
		return path + "?" + query
	}
	return path
}

// splitLocation canonicalizes p and splits off the query.
func splitLocation(p string) (path, query string) {
	p = canonicalPath(p)
	if i := strings.IndexByte(p, '?'); i >= 0 {
		return p[:i], p[i+1:]
	}
	return p, ""
}

// stripHash removes a "#..." suffix.
func stripHash(p string) string {
	if i := strings.IndexByte(p, '#'); i >= 0 {
		return p[:i]
	}
	return p
}

// basePath returns p without origin, query and fragment.
func basePath(p string) string {
	base, _ := splitLocation(p)
	return base
}
