package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pkazmirchuk/workbot/internal/chat"
)

// handleChatWS serves a development chat client over a websocket: inbound
// JSON events are fed to the dispatcher, and prompts for that session are
// written back on the same connection.
func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing_session_id", "query parameter session_id is required")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	outbound := s.registry.Register(sessionID)
	defer s.registry.Unregister(sessionID, outbound)

	// Every write to the connection funnels through this channel: gorilla
	// connections allow a single concurrent writer, so the read loop's error
	// replies must not race the prompt writer.
	writes := make(chan any, 16)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		var failed bool
		for msg := range writes {
			if failed {
				// Keep draining so senders never block on a dead socket.
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(msg); err != nil {
				failed = true
			}
		}
	}()

	forwardDone := make(chan struct{})
	go func() {
		defer close(forwardDone)
		for prompt := range outbound {
			writes <- prompt
		}
	}()

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		return nil
	})

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if msgType != websocket.TextMessage {
			continue
		}

		ev, err := chat.ParseEvent(data)
		if err != nil {
			writes <- errorResponse{Error: err.Error(), Code: "invalid_event"}
			continue
		}
		// The socket speaks for exactly one session.
		if ev.SessionID != sessionID {
			writes <- errorResponse{Error: "session_id mismatch", Code: "invalid_event"}
			continue
		}

		if err := s.dispatcher.Submit(r.Context(), ev); err != nil {
			s.logger.Warn("ws submit failed", "session_id", sessionID, "error", err)
			break
		}
	}

	// Closing the outbound channel stops the forwarder; only then is it safe
	// to close writes and let the writer drain out.
	s.registry.Unregister(sessionID, outbound)
	<-forwardDone
	close(writes)
	<-writerDone
}
