package api

import (
	"net/http"
	"time"

	"github.com/giraffenet/webdesk/internal/logger"
	"github.com/giraffenet/webdesk/internal/window"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// StreamMessage is sent to WebSocket clients: the full desktop state, and
// the event that caused it unless it is the initial message.
type StreamMessage struct {
	Event *window.Event        `json:"event,omitempty"`
	State window.DesktopState `json:"state"`
}

const writeWait = 10 * time.Second

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WithComponent("api").Error().Err(err).Msg("WebSocket upgrade error")
		return
	}
	defer conn.Close()

	log := logger.WithComponent("api").With().Str("client", uuid.NewString()).Logger()
	log.Debug().Msg("Stream client connected")
	defer log.Debug().Msg("Stream client disconnected")

	// Subscribe to window changes
	updates := s.windowMgr.Subscribe()
	defer s.windowMgr.Unsubscribe(updates)

	// The client sends nothing; reading only detects the close.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func(msg StreamMessage) bool {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("WebSocket write error")
			}
			return false
		}
		return true
	}

	// Send initial state
	if !send(StreamMessage{State: s.windowMgr.State()}) {
		return
	}

	// Stream updates
	for {
		select {
		case <-gone:
			return
		case ev, ok := <-updates:
			if !ok {
				return
			}
			if !send(StreamMessage{Event: &ev, State: s.windowMgr.State()}) {
				return
			}
		}
	}
}
