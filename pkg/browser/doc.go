// Package browser defines the window collaborators the router talks to and
// an in-process Simulator implementing them.
//
// The router reads the current URL, mirrors its history stack into the
// native session history with push/replace, and listens for popstate when
// the user moves through that history:
//
//	w, _ := browser.NewSimulator("https://app.test/items/7")
//	r := router.New(w, storage.NewMemoryStore())
//	w.Back() // fires popstate listeners
//
// A WebAssembly build can implement Window over syscall/js with the same
// three calls the Simulator models.
package browser
