package router

import (
	"context"
	"sync"

	"github.com/vango-dev/navrouter/pkg/history"
	"github.com/vango-dev/navrouter/pkg/reactive"
)

// StateStoreForCurrentRoute returns a store that mirrors the published
// state while the location path (without query and fragment) stays the
// one current now. Once the path changes the store freezes at its last
// value for good. It follows the router only while it has subscribers.
func (r *Router) StateStoreForCurrentRoute(ctx context.Context) (*reactive.Store[history.State], error) {
	value, err := r.resolve(ctx)
	if err != nil {
		return nil, err
	}

	t := &routeTracker{
		router: r,
		path:   basePath(value.State.Path),
		store:  reactive.NewStore(value.State, r.scheduler).WithEquals(history.Equal),
	}
	release := t.store.HasSubscribers().Subscribe(t.setTracking)
	t.mu.Lock()
	if t.frozen {
		t.mu.Unlock()
		release()
		return t.store, nil
	}
	t.release = release
	t.mu.Unlock()
	return t.store, nil
}

type routeTracker struct {
	router *Router
	path   string
	store  *reactive.Store[history.State]

	mu     sync.Mutex
	frozen bool
	// stop ends the router subscription; release ends the activation
	// listener on store.
	stop    func()
	release func()
}

func (t *routeTracker) setTracking(tracking bool) {
	t.mu.Lock()
	if !tracking {
		stop := t.stop
		t.stop = nil
		t.mu.Unlock()
		if stop != nil {
			stop()
		}
		return
	}
	if t.frozen || t.stop != nil {
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()

	// Subscribe delivers the current value at once, which may freeze.
	stop := t.router.store.Subscribe(t.follow)

	t.mu.Lock()
	if t.frozen {
		t.mu.Unlock()
		stop()
		return
	}
	t.stop = stop
	t.mu.Unlock()
}

// freeze stops following the router for good. t.mu must be held; it is
// released before the listeners are removed.
func (t *routeTracker) freeze() {
	t.frozen = true
	stop, release := t.stop, t.release
	t.stop, t.release = nil, nil
	t.mu.Unlock()
	if stop != nil {
		stop()
	}
	if release != nil {
		release()
	}
}

func (t *routeTracker) follow(value *RouteAndState) {
	if value == nil {
		return
	}

	t.mu.Lock()
	if t.frozen {
		t.mu.Unlock()
		return
	}
	if basePath(value.State.Path) != t.path {
		t.freeze()
		t.router.logger.Debug("route store frozen", "path", t.path, "now", value.State.Path)
		return
	}
	t.mu.Unlock()

	t.store.Set(value.State, false)
}
