// Package devserver serves router sessions over HTTP for local development.
//
// Each session owns a simulated browser window, an event loop and a Router
// whose history lives under a per-session prefix of the shared key-value
// store. Sessions are driven with JSON requests and stream every published
// route over a WebSocket, so a frontend or a test can follow navigation
// without a real browser.
//
// # Endpoints
//
//	GET    /healthz
//	GET    /metrics
//	GET    /routes
//	POST   /sessions                  {"url": "/start"}
//	GET    /sessions/{id}
//	DELETE /sessions/{id}
//	POST   /sessions/{id}/navigate    {"path": "/x", "replace": false, "data": ...}
//	POST   /sessions/{id}/route       {"label": "x", "vars": {...}, "replace": false}
//	POST   /sessions/{id}/back
//	POST   /sessions/{id}/browser/back
//	POST   /sessions/{id}/browser/forward
//	POST   /sessions/{id}/home
//	POST   /sessions/{id}/return
//	POST   /sessions/{id}/visit       {"url": "/x#frag"}
//	GET    /sessions/{id}/ws
//
// The back endpoint pops the router's own history. The browser endpoints
// press the simulated back and forward buttons, which reach the router as
// popstate events.
//
// When the configuration names a routes file, Watch reloads it on change
// and reconfigures every live session.
package devserver
