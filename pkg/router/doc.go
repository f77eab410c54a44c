// Package router implements the client-side router state machine.
//
// A Router keeps three sources of truth consistent: the persisted history
// stack (history.Storage), the window's native session history and the
// published {route, state} value consumers subscribe to.
//
// # Routes
//
// Routes are registered wholesale with ConfigureRoutes. Each route has a
// label, unique per language, and a path pattern understood by pathmatch:
//
//	err := r.ConfigureRoutes(ctx, []router.Route{
//	    {Label: "home", Path: "/"},
//	    {Label: "item", Path: "/items/:id"},
//	    {Label: "docs", Path: "/docs/**"},
//	    {Label: "old-items", Path: "/products/:id", RedirectToRoute: "item"},
//	    {Label: "not-found", Path: "/404"},
//	})
//
// The home route is the one marked IsHome, else the route at "/". The
// not-found route is the one marked IsNotFound, else the route labelled
// "not-found". A location matching nothing is redirected there.
//
// # Navigation
//
//	r.RedirectTo(ctx, "/items/7", router.WithStateData(map[string]any{"tab": "specs"}))
//	r.RedirectToRoute(ctx, "home", router.WithReplace())
//	r.GoBack(ctx)
//
// States carrying data get a "#<id>" fragment so the native history can
// tell entries for the same path apart.
//
// # Activation
//
// While the published store has subscribers the router listens for
// popstate and for changes of the active language; without subscribers it
// detaches both.
//
// # Concurrency
//
// A Router is driven from one goroutine, normally a reactive.Loop whose
// microtask queue is the router's scheduler. Deferred publishes run on that
// scheduler after the current task.
package router
