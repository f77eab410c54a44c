package devserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/navrouter/internal/config"
	"github.com/vango-dev/navrouter/internal/errors"
	"github.com/vango-dev/navrouter/pkg/router"
	"github.com/vango-dev/navrouter/pkg/telemetry"
)

var testRoutes = []router.Route{
	{Label: "home", Path: "/"},
	{Label: "item", Path: "/items/:id"},
	{Label: "docs", Path: "/docs/**"},
	{Label: "not-found", Path: "/404"},
}

type fixture struct {
	srv      *Server
	ts       *httptest.Server
	registry *prometheus.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := config.New()
	cfg.Routes = testRoutes

	registry := prometheus.NewRegistry()
	srv, err := New(Options{
		Config:   cfg,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Metrics:  telemetry.Prometheus(telemetry.WithRegistry(registry)),
		Gatherer: registry,
	})
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})
	return &fixture{srv: srv, ts: ts, registry: registry}
}

func (f *fixture) post(t *testing.T, path string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	resp, err := http.Post(f.ts.URL+path, "application/json", &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (f *fixture) get(t *testing.T, path string, out any) int {
	t.Helper()
	resp, err := http.Get(f.ts.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (f *fixture) open(t *testing.T, url string) Snapshot {
	t.Helper()
	var snap Snapshot
	status := f.post(t, "/sessions", createSessionRequest{URL: url}, &snap)
	require.Equal(t, http.StatusCreated, status)
	require.NotEmpty(t, snap.ID)
	require.NotNil(t, snap.Value)
	return snap
}

func TestCreateSessionResolvesStartURL(t *testing.T) {
	f := newFixture(t)

	snap := f.open(t, "/items/7")
	assert.Equal(t, "item", snap.Value.Label())
	assert.Equal(t, "7", snap.Value.Route.Vars["id"])
	assert.Equal(t, "http://localhost/items/7", snap.Location)
	require.Len(t, snap.History, 1)
	assert.Equal(t, "/items/7", snap.History[0].Path)
	assert.Equal(t, 1, f.srv.SessionCount())
}

func TestCreateSessionEmptyBody(t *testing.T) {
	f := newFixture(t)

	var snap Snapshot
	status := f.post(t, "/sessions", nil, &snap)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "home", snap.Value.Label())
}

func TestCreateSessionUnknownPath(t *testing.T) {
	f := newFixture(t)

	snap := f.open(t, "/nope")
	assert.Equal(t, "not-found", snap.Value.Label())
}

func TestNavigateAndBack(t *testing.T) {
	f := newFixture(t)
	id := f.open(t, "/items/7").ID

	var snap Snapshot
	status := f.post(t, "/sessions/"+id+"/navigate", navigateRequest{Path: "/docs/a/b"}, &snap)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "docs", snap.Value.Label())
	assert.Len(t, snap.History, 2)

	var res okResponse
	status = f.post(t, "/sessions/"+id+"/back", nil, &res)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, res.OK)
	assert.Equal(t, "item", res.Snapshot.Value.Label())
	assert.Len(t, res.Snapshot.History, 1)

	status = f.post(t, "/sessions/"+id+"/back", nil, &res)
	require.Equal(t, http.StatusOK, status)
	assert.False(t, res.OK)
}

func TestNavigateWithData(t *testing.T) {
	f := newFixture(t)
	id := f.open(t, "/").ID

	var snap Snapshot
	body := navigateRequest{Path: "/items/3", Data: map[string]any{"tab": "reviews"}}
	require.Equal(t, http.StatusOK, f.post(t, "/sessions/"+id+"/navigate", body, &snap))

	state := snap.Value.State
	assert.Equal(t, map[string]any{"tab": "reviews"}, state.Data)
	require.NotEmpty(t, state.ID)
	assert.Equal(t, "/items/3#"+state.ID, state.Path)
	assert.True(t, strings.HasSuffix(snap.Location, "#"+state.ID))
}

func TestNavigateReplace(t *testing.T) {
	f := newFixture(t)
	id := f.open(t, "/items/1").ID

	var snap Snapshot
	body := navigateRequest{Path: "/items/2", Replace: true}
	require.Equal(t, http.StatusOK, f.post(t, "/sessions/"+id+"/navigate", body, &snap))
	require.Len(t, snap.History, 1)
	assert.Equal(t, "/items/2", snap.History[0].Path)
	assert.Len(t, snap.Entries, 1)
}

func TestRedirectToRoute(t *testing.T) {
	f := newFixture(t)
	id := f.open(t, "/").ID

	var snap Snapshot
	body := routeRequest{Label: "item", Vars: map[string]string{"id": "42"}}
	require.Equal(t, http.StatusOK, f.post(t, "/sessions/"+id+"/route", body, &snap))
	assert.Equal(t, "/items/42", snap.Value.State.Path)

	var resp errorResponse
	body = routeRequest{Label: "missing"}
	require.Equal(t, http.StatusNotFound, f.post(t, "/sessions/"+id+"/route", body, &resp))
	assert.Equal(t, errors.CodeNoRouteFound, resp.Code)
}

func TestHomeAndReturn(t *testing.T) {
	f := newFixture(t)
	id := f.open(t, "/items/1").ID
	f.post(t, "/sessions/"+id+"/navigate", navigateRequest{Path: "/docs/x"}, nil)

	// Home goes back while there is history, then replaces the entry.
	var res okResponse
	require.Equal(t, http.StatusOK, f.post(t, "/sessions/"+id+"/home", nil, &res))
	assert.Equal(t, "item", res.Snapshot.Value.Label())

	require.Equal(t, http.StatusOK, f.post(t, "/sessions/"+id+"/home", nil, &res))
	assert.Equal(t, "home", res.Snapshot.Value.Label())
	assert.Len(t, res.Snapshot.History, 1)

	require.Equal(t, http.StatusOK, f.post(t, "/sessions/"+id+"/return", nil, &res))
	assert.False(t, res.OK)
}

func TestBrowserButtons(t *testing.T) {
	f := newFixture(t)
	id := f.open(t, "/items/7").ID
	f.post(t, "/sessions/"+id+"/navigate", navigateRequest{Path: "/docs/a"}, nil)

	var res okResponse
	require.Equal(t, http.StatusOK, f.post(t, "/sessions/"+id+"/browser/back", nil, &res))
	assert.True(t, res.OK)
	assert.Equal(t, "item", res.Snapshot.Value.Label())
	assert.Equal(t, 0, res.Snapshot.Index)

	require.Equal(t, http.StatusOK, f.post(t, "/sessions/"+id+"/browser/back", nil, &res))
	assert.False(t, res.OK)
}

func TestVisitDropsUserHash(t *testing.T) {
	f := newFixture(t)
	id := f.open(t, "/items/7").ID

	var snap Snapshot
	require.Equal(t, http.StatusOK, f.post(t, "/sessions/"+id+"/visit", visitRequest{URL: "/items/1#frag"}, &snap))
	assert.Equal(t, "item", snap.Value.Label())
	assert.Equal(t, "1", snap.Value.Route.Vars["id"])
	assert.Equal(t, "http://localhost/items/1", snap.Location)
	require.NotEmpty(t, snap.History)
	assert.Equal(t, "/items/1", snap.History[len(snap.History)-1].Path)
}

func TestBadRequests(t *testing.T) {
	f := newFixture(t)
	id := f.open(t, "/").ID

	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"unknown session", "/sessions/missing/navigate", `{"path":"/"}`, http.StatusNotFound},
		{"invalid json", "/sessions/" + id + "/navigate", `{`, http.StatusBadRequest},
		{"missing path", "/sessions/" + id + "/navigate", `{}`, http.StatusBadRequest},
		{"missing label", "/sessions/" + id + "/route", `{}`, http.StatusBadRequest},
		{"missing url", "/sessions/" + id + "/visit", `{}`, http.StatusBadRequest},
		{"invalid session body", "/sessions", `[`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(f.ts.URL+tt.path, "application/json", strings.NewReader(tt.body))
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestDeleteSession(t *testing.T) {
	f := newFixture(t)
	id := f.open(t, "/").ID

	req, err := http.NewRequest(http.MethodDelete, f.ts.URL+"/sessions/"+id, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, 0, f.srv.SessionCount())

	assert.Equal(t, http.StatusNotFound, f.get(t, "/sessions/"+id, nil))
}

func TestListSessionsAndRoutes(t *testing.T) {
	f := newFixture(t)
	a := f.open(t, "/").ID
	b := f.open(t, "/").ID

	var ids []string
	require.Equal(t, http.StatusOK, f.get(t, "/sessions", &ids))
	assert.ElementsMatch(t, []string{a, b}, ids)

	var routes []router.Route
	require.Equal(t, http.StatusOK, f.get(t, "/routes", &routes))
	assert.Len(t, routes, len(testRoutes))
}

func TestSessionsAreIsolated(t *testing.T) {
	f := newFixture(t)
	a := f.open(t, "/").ID
	b := f.open(t, "/").ID

	f.post(t, "/sessions/"+a+"/navigate", navigateRequest{Path: "/items/1"}, nil)

	var snap Snapshot
	require.Equal(t, http.StatusOK, f.get(t, "/sessions/"+b, &snap))
	assert.Equal(t, "home", snap.Value.Label())
	assert.Len(t, snap.History, 1)
}

func TestWebSocketStreamsPublishes(t *testing.T) {
	f := newFixture(t)
	id := f.open(t, "/items/7").ID

	wsURL := "ws" + strings.TrimPrefix(f.ts.URL, "http") + "/sessions/" + id + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	first := readMessage(t, conn)
	assert.Equal(t, MessageRoute, first.Type)

	f.post(t, "/sessions/"+id+"/navigate", navigateRequest{Path: "/docs/guide"}, nil)

	msg := first
	for msg.Value == nil || msg.Value.Label() != "docs" {
		msg = readMessage(t, conn)
	}
	assert.Equal(t, "/docs/guide", msg.Value.State.Path)
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)
	f.open(t, "/items/1")

	scrape := func() string {
		resp, err := http.Get(f.ts.URL + "/metrics")
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return string(body)
	}

	text := scrape()
	assert.Contains(t, text, `navrouter_publishes_total{label="item"} 1`)
	assert.Contains(t, text, "navrouter_active_sessions 1")

	// Durations are recorded after the response is written.
	assert.Eventually(t, func() bool {
		return strings.Contains(scrape(), `navrouter_request_duration_seconds_count{method="POST"`)
	}, 2*time.Second, 50*time.Millisecond)
}

func TestReload(t *testing.T) {
	f := newFixture(t)
	id := f.open(t, "/").ID

	routes := append([]router.Route{{Label: "settings", Path: "/settings"}}, testRoutes...)
	require.NoError(t, f.srv.Reload(context.Background(), routes))
	assert.Len(t, f.srv.Routes(), len(testRoutes)+1)

	var snap Snapshot
	require.Equal(t, http.StatusOK, f.post(t, "/sessions/"+id+"/navigate", navigateRequest{Path: "/settings"}, &snap))
	assert.Equal(t, "settings", snap.Value.Label())
}

func TestReloadRejectsInvalidRoutes(t *testing.T) {
	f := newFixture(t)

	err := f.srv.Reload(context.Background(), []router.Route{{Label: "", Path: "/"}})
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidRoute, errors.CodeOf(err))

	err = f.srv.Reload(context.Background(), nil)
	assert.Equal(t, errors.CodeConfigInvalid, errors.CodeOf(err))
	assert.Len(t, f.srv.Routes(), len(testRoutes))
}

func TestNewRejectsMissingRoutes(t *testing.T) {
	_, err := New(Options{Config: config.New()})
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.CodeOf(err))
}

func TestWatchReloadsRoutesFile(t *testing.T) {
	f := newFixture(t)
	path := filepath.Join(t.TempDir(), "routes.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- label: home\n  path: /\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.srv.Watch(ctx, path) }()

	updated := []byte(`
- label: home
  path: /
- label: about
  path: /about
`)
	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, updated, 0o644)
		return len(f.srv.Routes()) == 2
	}, 5*time.Second, 200*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errors.ErrNoRouteFound, http.StatusNotFound},
		{errors.ErrInvalidStateShape, http.StatusBadRequest},
		{errors.ErrRedirectLoop, http.StatusBadRequest},
		{errors.ErrNotConfigured, http.StatusConflict},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusOf(tt.err); got != tt.want {
			t.Errorf("statusOf(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
