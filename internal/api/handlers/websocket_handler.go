package handlers

import (
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/eroland11241988/insightlm/internal/realtime"
	"github.com/eroland11241988/insightlm/pkg/logger"
)

type WebSocketHandler struct {
	hub *realtime.Hub
}

func NewWebSocketHandler(hub *realtime.Hub) *WebSocketHandler {
	return &WebSocketHandler{
		hub: hub,
	}
}

// HandleConnection streams every history message appended to the session for
// as long as the client stays connected.
func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	sessionID := c.Params("sessionId")
	if sessionID == "" {
		c.Close()
		return
	}

	logger.Info("Realtime subscriber connected", zap.String("session_id", sessionID))

	msgs, cancel := h.hub.Subscribe(sessionID)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			// Reads are discarded; the socket is outbound-only. The read
			// loop exists to notice the client going away.
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case msg, ok := <-msgs:
			if !ok {
				c.Close()
				<-done
				return
			}
			if err := c.WriteJSON(msg); err != nil {
				logger.Debug("Failed to write realtime message",
					zap.String("session_id", sessionID),
					zap.Error(err),
				)
				c.Close()
				<-done
				return
			}
		case <-done:
			logger.Info("Realtime subscriber disconnected", zap.String("session_id", sessionID))
			return
		}
	}
}
