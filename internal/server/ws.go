package server

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/mimurillof/chat-agent-service/internal/agent"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The service sits behind the platform gateway, which owns origin
	// policy.
	CheckOrigin: func(*http.Request) bool { return true },
}

// wsChatHandler is the websocket twin of the SSE stream endpoint: the
// client sends one chat request per message and receives the chunk
// sequence, ending with a done frame, for each.
func (s *Server) wsChatHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	for {
		var req agent.Request
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("websocket read failed", "error", err)
			}
			return
		}
		if req.Message == "" {
			if err := conn.WriteJSON(ErrorResponse{Error: "message required"}); err != nil {
				return
			}
			continue
		}

		for chunk := range s.chat.ChatStream(r.Context(), req) {
			if err := conn.WriteJSON(chunk); err != nil {
				s.logger.Warn("websocket write failed", "error", err)
				return
			}
		}
	}
}
