package realtime

import (
	"sync"

	"go.uber.org/zap"

	"github.com/eroland11241988/insightlm/internal/metrics"
	"github.com/eroland11241988/insightlm/internal/storage/models"
	"github.com/eroland11241988/insightlm/pkg/logger"
)

const subscriberBuffer = 16

// Hub fans appended history messages out to websocket subscribers, keyed by
// session. Delivery is best-effort: a slow subscriber drops messages rather
// than blocking the relay that published them.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]map[chan models.StoredMessage]struct{}
}

func NewHub() *Hub {
	return &Hub{
		sessions: make(map[string]map[chan models.StoredMessage]struct{}),
	}
}

// Subscribe registers a listener for one session. The returned cancel
// function must be called when the subscriber goes away; it closes the
// channel.
func (h *Hub) Subscribe(sessionID string) (<-chan models.StoredMessage, func()) {
	ch := make(chan models.StoredMessage, subscriberBuffer)

	h.mu.Lock()
	subs, ok := h.sessions[sessionID]
	if !ok {
		subs = make(map[chan models.StoredMessage]struct{})
		h.sessions[sessionID] = subs
	}
	subs[ch] = struct{}{}
	h.mu.Unlock()

	metrics.RealtimeSubscribers.Inc()

	cancel := func() {
		h.mu.Lock()
		if subs, ok := h.sessions[sessionID]; ok {
			if _, present := subs[ch]; present {
				delete(subs, ch)
				close(ch)
				metrics.RealtimeSubscribers.Dec()
			}
			if len(subs) == 0 {
				delete(h.sessions, sessionID)
			}
		}
		h.mu.Unlock()
	}

	return ch, cancel
}

// Publish delivers a message to every subscriber of the session without
// blocking the caller.
func (h *Hub) Publish(sessionID string, msg models.StoredMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.sessions[sessionID] {
		select {
		case ch <- msg:
		default:
			logger.Debug("Dropped realtime message for slow subscriber",
				zap.String("session_id", sessionID),
			)
		}
	}
}
