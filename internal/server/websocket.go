package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// askMessage is the incoming WebSocket message format.
type askMessage struct {
	ID       string `json:"id,omitempty"` // echoed back; generated when empty
	Question string `json:"question"`
	TopK     int    `json:"top_k,omitempty"`
}

// askReply is the outgoing WebSocket message format.
type askReply struct {
	Type    string       `json:"type"` // "answer" or "error"
	ID      string       `json:"id"`
	Answer  string       `json:"answer,omitempty"`
	Sources []sourceJSON `json:"sources,omitempty"`
	Error   string       `json:"error,omitempty"`
}

// handleWebSocket answers one question per message until the client
// disconnects.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade", "error", err)
		return
	}
	defer conn.Close()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("websocket read", "error", err)
			}
			return
		}

		var req askMessage
		if err := json.Unmarshal(msg, &req); err != nil {
			s.send(conn, askReply{Type: "error", Error: "invalid message format"})
			continue
		}
		if req.ID == "" {
			req.ID = uuid.NewString()
		}

		if strings.TrimSpace(req.Question) == "" {
			s.send(conn, askReply{Type: "error", ID: req.ID, Error: "question is required"})
			continue
		}

		ans, err := s.answerer.Answer(r.Context(), req.Question, s.topK(req.TopK))
		if err != nil {
			s.send(conn, askReply{Type: "error", ID: req.ID, Error: "question failed: " + err.Error()})
			continue
		}

		s.send(conn, askReply{
			Type:    "answer",
			ID:      req.ID,
			Answer:  ans.Text,
			Sources: toSources(ans.Hits, false),
		})
	}
}

func (s *Server) send(conn *websocket.Conn, reply askReply) {
	if err := conn.WriteJSON(reply); err != nil {
		s.logger.Warn("websocket write", "error", err)
	}
}
