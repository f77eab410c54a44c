package devserver

import (
	"encoding/json"
	"io"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/vango-dev/navrouter/internal/errors"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in dev
	},
}

type createSessionRequest struct {
	URL string `json:"url"`
}

type navigateRequest struct {
	Path    string `json:"path"`
	Replace bool   `json:"replace"`
	Data    any    `json:"data"`
}

type routeRequest struct {
	Label   string            `json:"label"`
	Vars    map[string]string `json:"vars"`
	Replace bool              `json:"replace"`
}

type visitRequest struct {
	URL string `json:"url"`
}

type okResponse struct {
	OK       bool     `json:"ok"`
	Snapshot Snapshot `json:"snapshot"`
}

type errorResponse struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func (s *Server) handleRoutes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Routes())
}

func (s *Server) handleListSessions(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	sort.Strings(ids)
	writeJSON(w, http.StatusOK, ids)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if !decodeOptional(w, r, &req) {
		return
	}
	sess, err := s.OpenSession(r.Context(), req.URL)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeSnapshot(w, r, sess, http.StatusCreated)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.writeSnapshot(w, r, sess, http.StatusOK)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.CloseSession(chi.URLParam(r, "id")) {
		writeJSON(w, http.StatusNotFound, errorResponse{Message: "session not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req navigateRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Path == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "path is required"})
		return
	}
	if err := sess.Navigate(r.Context(), req.Path, req.Replace, req.Data); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeSnapshot(w, r, sess, http.StatusOK)
}

func (s *Server) handleRedirectToRoute(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req routeRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Label == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "label is required"})
		return
	}
	if err := sess.NavigateToRoute(r.Context(), req.Label, req.Vars, req.Replace); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeSnapshot(w, r, sess, http.StatusOK)
}

func (s *Server) handleBack(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	went, err := sess.Back(r.Context())
	s.writeResult(w, r, sess, went, err)
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	err := sess.Home(r.Context())
	s.writeResult(w, r, sess, err == nil, err)
}

func (s *Server) handleReturn(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	returned, err := sess.Return(r.Context())
	s.writeResult(w, r, sess, returned, err)
}

func (s *Server) handleBrowserBack(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	went, err := sess.BrowserBack(r.Context())
	s.writeResult(w, r, sess, went, err)
}

func (s *Server) handleBrowserForward(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	went, err := sess.BrowserForward(r.Context())
	s.writeResult(w, r, sess, went, err)
}

func (s *Server) handleVisit(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req visitRequest
	if !decode(w, r, &req) {
		return
	}
	if req.URL == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "url is required"})
		return
	}
	if err := sess.Visit(r.Context(), req.URL); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeSnapshot(w, r, sess, http.StatusOK)
}

// handleWebSocket streams the session's published routes until the client
// disconnects.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	if err := sess.attach(conn); err != nil {
		conn.Close()
		return
	}

	// Keep connection alive until client disconnects
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	sess.detach(conn)
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	sess, ok := s.Session(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Message: "session not found"})
	}
	return sess, ok
}

func (s *Server) writeSnapshot(w http.ResponseWriter, r *http.Request, sess *Session, status int) {
	snap, err := sess.Snapshot(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, status, snap)
}

func (s *Server) writeResult(w http.ResponseWriter, r *http.Request, sess *Session, ok bool, err error) {
	if err != nil {
		s.writeError(w, err)
		return
	}
	snap, err := sess.Snapshot(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: ok, Snapshot: snap})
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	resp := errorResponse{Code: errors.CodeOf(err), Message: err.Error()}
	var re *errors.RouterError
	if errors.As(err, &re) {
		resp.Message = re.Message
		resp.Detail = re.Detail
	}
	writeJSON(w, status, resp)
}

// statusOf maps router error codes to HTTP statuses.
func statusOf(err error) int {
	switch errors.CodeOf(err) {
	case errors.CodeNoRouteFound:
		return http.StatusNotFound
	case errors.CodeInvalidPattern, errors.CodeInvalidStateShape, errors.CodeInvalidRoute,
		errors.CodeRedirectLoop, errors.CodeConfigInvalid:
		return http.StatusBadRequest
	case errors.CodeNotConfigured, errors.CodeDuplicateState:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid JSON body", Detail: err.Error()})
		return false
	}
	return true
}

// decodeOptional is decode for requests whose body may be empty.
func decodeOptional(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil && err != io.EOF {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid JSON body", Detail: err.Error()})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
