package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/mimurillof/chat-agent-service/internal/session"
)

// SessionsResponse represents the sessions list.
type SessionsResponse struct {
	Sessions []session.Info `json:"sessions"`
}

// sessionsHandler handles create and list on the sessions collection.
func (s *Server) sessionsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req struct {
			UserID string `json:"user_id"`
		}
		// An empty body is a valid anonymous create.
		decodeJSONBody(r, &req)

		sess := session.New(req.UserID, s.cfg.Models.Fast)
		if err := s.sessions.Put(r.Context(), sess); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to create session", err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, sess.Info())

	case http.MethodGet:
		live, err := s.sessions.List(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to list sessions", err.Error())
			return
		}
		infos := make([]session.Info, 0, len(live))
		for _, sess := range live {
			infos = append(infos, sess.Info())
		}
		writeJSON(w, http.StatusOK, SessionsResponse{Sessions: infos})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// sessionHandler handles info and close on one session.
func (s *Server) sessionHandler(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/sessions/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		sess, err := s.sessions.Get(r.Context(), id)
		if errors.Is(err, session.ErrNotFound) {
			writeError(w, http.StatusNotFound, "session not found", "")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load session", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, sess.Info())

	case http.MethodDelete:
		err := s.sessions.Delete(r.Context(), id)
		if errors.Is(err, session.ErrNotFound) {
			writeError(w, http.StatusNotFound, "session not found", "")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to close session", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "closed", "session_id": id})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
