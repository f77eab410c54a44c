package devserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/navrouter/pkg/browser"
	"github.com/vango-dev/navrouter/pkg/history"
	"github.com/vango-dev/navrouter/pkg/reactive"
	"github.com/vango-dev/navrouter/pkg/router"
	"github.com/vango-dev/navrouter/pkg/storage"
)

// MessageType is the kind of a message streamed to session clients.
type MessageType string

const (
	MessageRoute MessageType = "route"
	MessageError MessageType = "error"
)

// Message is sent to session clients via WebSocket.
type Message struct {
	Type  MessageType           `json:"type"`
	Value *router.RouteAndState `json:"value,omitempty"`
	Error string                `json:"error,omitempty"`
}

// Snapshot is the observable state of a session.
type Snapshot struct {
	ID       string                `json:"id"`
	Location string                `json:"location"`
	Value    *router.RouteAndState `json:"value"`
	History  []history.State       `json:"history"`
	Entries  []string              `json:"entries"`
	Index    int                   `json:"index"`
}

// Session is one simulated browser tab driven by its own event loop.
// Every router call runs as a loop task.
type Session struct {
	ID string

	loop        *reactive.Loop
	window      *browser.Simulator
	router      *router.Router
	cancel      context.CancelFunc
	unsubscribe func()
	logger      *slog.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	last    []byte
}

type sessionConfig struct {
	id       string
	startURL string
	kv       storage.KV
	routes   []router.Route
	options  []router.Option
	logger   *slog.Logger
}

func openSession(ctx context.Context, cfg sessionConfig) (*Session, error) {
	win, err := browser.NewSimulator(cfg.startURL)
	if err != nil {
		return nil, err
	}

	loop := reactive.NewLoop(64)
	runCtx, cancel := context.WithCancel(context.Background())
	go loop.Run(runCtx)

	opts := append(cfg.options, router.WithScheduler(loop.Scheduler()))
	s := &Session{
		ID:      cfg.id,
		loop:    loop,
		window:  win,
		router:  router.New(win, cfg.kv, opts...),
		cancel:  cancel,
		logger:  cfg.logger.With("session", cfg.id),
		clients: make(map[*websocket.Conn]struct{}),
	}

	err = loop.Do(ctx, func() error {
		if err := s.router.ConfigureRoutes(ctx, cfg.routes); err != nil {
			return err
		}
		s.unsubscribe = s.router.Subscribe(s.publish)
		return nil
	})
	if err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Router returns the session's router. Calls must go through Do.
func (s *Session) Router() *router.Router {
	return s.router
}

// Window returns the session's simulated window.
func (s *Session) Window() *browser.Simulator {
	return s.window
}

// Do runs fn on the session loop and waits for it and any publish it caused.
func (s *Session) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.loop.Do(ctx, func() error { return fn(ctx) })
}

// Configure replaces the session's routes.
func (s *Session) Configure(ctx context.Context, routes []router.Route) error {
	err := s.Do(ctx, func(ctx context.Context) error {
		return s.router.ConfigureRoutes(ctx, routes)
	})
	if err != nil {
		s.send(Message{Type: MessageError, Error: err.Error()})
	}
	return err
}

// Navigate redirects to path, optionally replacing the current entry.
func (s *Session) Navigate(ctx context.Context, path string, replace bool, data any) error {
	var opts []router.RedirectOption
	if replace {
		opts = append(opts, router.WithReplace())
	}
	if data != nil {
		opts = append(opts, router.WithStateData(data))
	}
	return s.Do(ctx, func(ctx context.Context) error {
		return s.router.RedirectTo(ctx, path, opts...)
	})
}

// NavigateToRoute redirects to the route with label.
func (s *Session) NavigateToRoute(ctx context.Context, label string, vars map[string]string, replace bool) error {
	opts := []router.RedirectOption{router.WithVars(vars)}
	if replace {
		opts = append(opts, router.WithReplace())
	}
	return s.Do(ctx, func(ctx context.Context) error {
		return s.router.RedirectToRoute(ctx, label, opts...)
	})
}

// Back pops the router history. It reports false when there was nothing to
// go back to.
func (s *Session) Back(ctx context.Context) (ok bool, err error) {
	err = s.Do(ctx, func(ctx context.Context) error {
		ok, err = s.router.GoBack(ctx)
		return err
	})
	return ok, err
}

// Home goes back to the home route.
func (s *Session) Home(ctx context.Context) error {
	return s.Do(ctx, s.router.GoBackOrHome)
}

// Return resumes the entry recorded in the current state's return state.
func (s *Session) Return(ctx context.Context) (ok bool, err error) {
	err = s.Do(ctx, func(ctx context.Context) error {
		ok, err = s.router.Return(ctx)
		return err
	})
	return ok, err
}

// BrowserBack presses the browser back button.
func (s *Session) BrowserBack(ctx context.Context) (ok bool, err error) {
	err = s.Do(ctx, func(context.Context) error {
		ok = s.window.Back()
		return nil
	})
	return ok, err
}

// BrowserForward presses the browser forward button.
func (s *Session) BrowserForward(ctx context.Context) (ok bool, err error) {
	err = s.Do(ctx, func(context.Context) error {
		ok = s.window.Forward()
		return nil
	})
	return ok, err
}

// Visit follows a link the router did not create, such as a fragment link.
func (s *Session) Visit(ctx context.Context, path string) error {
	return s.Do(ctx, func(context.Context) error {
		s.window.UserNavigate(path)
		return nil
	})
}

// Snapshot reads the session state.
func (s *Session) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := s.Do(ctx, func(ctx context.Context) error {
		items, err := s.router.History().Items(ctx)
		if err != nil {
			return err
		}
		snap = Snapshot{
			ID:       s.ID,
			Location: s.window.Href(),
			Value:    s.router.Current(),
			History:  items,
			Entries:  s.window.Entries(),
			Index:    s.window.Index(),
		}
		return nil
	})
	return snap, err
}

// Close stops the loop and disconnects clients.
func (s *Session) Close() {
	_ = s.loop.Do(context.Background(), func() error {
		if s.unsubscribe != nil {
			s.unsubscribe()
		}
		s.router.Close()
		return nil
	})
	s.cancel()
	s.loop.Close()

	s.mu.Lock()
	for conn := range s.clients {
		conn.Close()
	}
	s.clients = make(map[*websocket.Conn]struct{})
	s.mu.Unlock()
}

// publish runs on the loop for every value the router publishes.
func (s *Session) publish(v *router.RouteAndState) {
	if v == nil {
		return
	}
	s.logger.Debug("publish", "label", v.Label(), "path", v.State.Path)
	s.send(Message{Type: MessageRoute, Value: v})
}

func (s *Session) send(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error("encode message", "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if msg.Type == MessageRoute {
		s.last = data
	}
	for conn := range s.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			conn.Close()
			delete(s.clients, conn)
		}
	}
}

// attach registers conn and sends it the latest route.
func (s *Session) attach(conn *websocket.Conn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last != nil {
		if err := conn.WriteMessage(websocket.TextMessage, s.last); err != nil {
			return err
		}
	}
	s.clients[conn] = struct{}{}
	return nil
}

func (s *Session) detach(conn *websocket.Conn) {
	s.mu.Lock()
	delete(s.clients, conn)
	s.mu.Unlock()
	conn.Close()
}

// ClientCount returns the number of connected WebSocket clients.
func (s *Session) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}
