package router

import (
	"github.com/vango-dev/navrouter/internal/errors"
	"github.com/vango-dev/navrouter/pkg/pathmatch"
)

// notFoundLabel is the conventional label of the not-found route.
const notFoundLabel = "not-found"

// routeTable is the immutable product of one ConfigureRoutes call.
type routeTable struct {
	defaultLanguage string

	// matchers and labels are keyed by language.
	matchers map[string]*pathmatch.Matcher[*Route]
	labels   map[string]map[string]*Route

	// order keeps registration order for listing.
	order []*Route

	home     string
	notFound string
}

// ValidateRoutes reports the error ConfigureRoutes would return for routes,
// without touching any router.
func ValidateRoutes(routes []Route, defaultLanguage string) error {
	if defaultLanguage == "" {
		defaultLanguage = DefaultLanguage
	}
	_, err := buildTable(routes, defaultLanguage)
	return err
}

// buildTable validates routes and indexes them by language.
func buildTable(routes []Route, defaultLanguage string) (*routeTable, error) {
	t := &routeTable{
		defaultLanguage: defaultLanguage,
		matchers:        make(map[string]*pathmatch.Matcher[*Route]),
		labels:          make(map[string]map[string]*Route),
	}

	var explicitHome, explicitNotFound, rootHome string

	for i := range routes {
		route := routes[i]
		if route.Language == "" {
			route.Language = defaultLanguage
		}
		if err := validateRoute(&route); err != nil {
			return nil, err
		}

		labels := t.labels[route.Language]
		if labels == nil {
			labels = make(map[string]*Route)
			t.labels[route.Language] = labels
		}
		if _, dup := labels[route.Label]; dup {
			return nil, errors.New(errors.CodeInvalidRoute).
				WithDetailf("duplicate label %q for language %q", route.Label, route.Language)
		}

		m := t.matchers[route.Language]
		if m == nil {
			m = pathmatch.New[*Route]()
			t.matchers[route.Language] = m
		}
		r := &route
		if err := m.Add(route.Path, r); err != nil {
			return nil, err
		}
		labels[route.Label] = r
		t.order = append(t.order, r)

		if route.IsHome && explicitHome == "" {
			explicitHome = route.Label
		}
		if route.IsNotFound && explicitNotFound == "" {
			explicitNotFound = route.Label
		}
		if rootHome == "" && route.Language == defaultLanguage && isRootPattern(route.Path) {
			rootHome = route.Label
		}
	}

	t.home = explicitHome
	if t.home == "" {
		t.home = rootHome
	}
	t.notFound = explicitNotFound
	if t.notFound == "" {
		if _, ok := t.lookup(defaultLanguage, notFoundLabel); ok {
			t.notFound = notFoundLabel
		}
	}

	if err := t.checkRedirects(); err != nil {
		return nil, err
	}
	return t, nil
}

func validateRoute(r *Route) error {
	if r.Label == "" {
		return errors.New(errors.CodeInvalidRoute).WithDetailf("route with path %q has no label", r.Path)
	}
	if r.Path == "" {
		return errors.New(errors.CodeInvalidRoute).WithDetailf("route %q has no path", r.Label)
	}
	if r.Layout != nil && r.Layout.Component == "" {
		return errors.New(errors.CodeInvalidRoute).WithDetailf("route %q: layout has no component", r.Label)
	}
	for name, p := range r.Panels {
		if p == nil || p.Component == "" {
			return errors.New(errors.CodeInvalidRoute).WithDetailf("route %q: panel %q has no component", r.Label, name)
		}
	}
	return nil
}

func isRootPattern(p string) bool {
	for _, c := range p {
		if c != '/' {
			return false
		}
	}
	return true
}

// checkRedirects rejects unknown targets and cycles up front.
func (t *routeTable) checkRedirects() error {
	for _, r := range t.order {
		if r.RedirectToRoute == "" {
			continue
		}
		if _, ok := t.lookup(r.Language, r.RedirectToRoute); !ok {
			return errors.New(errors.CodeInvalidRoute).
				WithDetailf("route %q redirects to unknown label %q", r.Label, r.RedirectToRoute)
		}
		if _, err := t.followRedirects(r.Language, r.Label); err != nil {
			return err
		}
	}
	return nil
}

// lookup finds label in lang, falling back to the default language.
func (t *routeTable) lookup(lang, label string) (*Route, bool) {
	if r, ok := t.labels[lang][label]; ok {
		return r, true
	}
	r, ok := t.labels[t.defaultLanguage][label]
	return r, ok
}

// match resolves path in lang, falling back to the default language.
func (t *routeTable) match(lang, path string) (*pathmatch.Match[*Route], bool) {
	if m, ok := t.matchers[lang]; ok {
		if res, ok := m.MatchOne(path); ok {
			return res, true
		}
	}
	if lang == t.defaultLanguage {
		return nil, false
	}
	if m, ok := t.matchers[t.defaultLanguage]; ok {
		return m.MatchOne(path)
	}
	return nil, false
}

// followRedirects resolves label through its redirectToRoute chain.
func (t *routeTable) followRedirects(lang, label string) (*Route, error) {
	visited := make(map[string]bool)
	chain := []string{label}
	for {
		r, ok := t.lookup(lang, label)
		if !ok {
			return nil, errors.New(errors.CodeNoRouteFound).WithDetailf("no route labelled %q", label)
		}
		if r.RedirectToRoute == "" {
			return r, nil
		}
		visited[label] = true
		label = r.RedirectToRoute
		chain = append(chain, label)
		if visited[label] {
			return nil, errors.New(errors.CodeRedirectLoop).WithDetailf("%v", chain)
		}
	}
}

// routes returns copies of the registered routes in registration order.
func (t *routeTable) routes() []Route {
	out := make([]Route, len(t.order))
	for i, r := range t.order {
		out[i] = *r
	}
	return out
}

// fallback is the label unmatched locations are redirected to.
func (t *routeTable) fallback() string {
	if t.notFound != "" {
		return t.notFound
	}
	return t.home
}
