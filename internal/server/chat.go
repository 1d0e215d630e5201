package server

import (
	"encoding/json"
	"net/http"

	"github.com/mimurillof/chat-agent-service/internal/agent"
)

func decodeChatRequest(w http.ResponseWriter, r *http.Request) (agent.Request, bool) {
	var req agent.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return req, false
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message required", "")
		return req, false
	}
	return req, true
}

// chatHandler handles synchronous chat turns. Provider failures never
// surface as 5xx: the agent degrades to an apology payload.
func (s *Server) chatHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req, ok := decodeChatRequest(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, s.chat.Chat(r.Context(), req))
}

// chatStreamHandler handles streaming chat turns over SSE: one `chunk`
// event per text fragment, then a terminal `done` event with the
// aggregate metadata.
func (s *Server) chatStreamHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req, ok := decodeChatRequest(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported", "")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	for chunk := range s.chat.ChatStream(r.Context(), req) {
		if chunk.Done {
			writeSSE(w, "done", chunk.Metadata)
		} else {
			writeSSE(w, "chunk", map[string]any{"text": chunk.Text})
		}
		flusher.Flush()
	}
}

func writeSSE(w http.ResponseWriter, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	w.Write([]byte("event: " + event + "\ndata: " + string(data) + "\n\n"))
}
