package relay

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/eroland11241988/insightlm/internal/storage/models"
)

// MessageWriter is the append-only slice of the storage collaborator the
// history recorder depends on.
type MessageWriter interface {
	InsertMessage(ctx context.Context, msg *models.StoredMessage) error
}

// Publisher receives every successfully appended message for realtime
// fan-out. Publishing is best-effort and must never block the relay.
type Publisher interface {
	Publish(sessionID string, msg models.StoredMessage)
}

// Recorder appends messages to a conversation's durable transcript. Whether
// a write failure is fatal is the caller's decision; the recorder only
// reports it.
type Recorder struct {
	store MessageWriter
	hub   Publisher
}

func NewRecorder(store MessageWriter, hub Publisher) *Recorder {
	return &Recorder{store: store, hub: hub}
}

func (r *Recorder) SaveHuman(ctx context.Context, sessionID, content string) error {
	msg := &models.StoredMessage{
		SessionID: sessionID,
		Message: models.MessagePayload{
			Type:             models.MessageTypeHuman,
			Content:          content,
			AdditionalKwargs: map[string]interface{}{},
			ResponseMetadata: map[string]interface{}{},
		},
	}

	if err := r.store.InsertMessage(ctx, msg); err != nil {
		return fmt.Errorf("failed to save human message: %w", err)
	}

	r.publish(sessionID, *msg)
	return nil
}

// SaveAssistantError appends an assistant-authored error notice so the
// failure is visible inside the transcript. The text is wrapped in the
// structured output envelope that genuine replies use, so renderers treat
// both uniformly.
func (r *Recorder) SaveAssistantError(ctx context.Context, sessionID, text string, metadata map[string]interface{}) error {
	content, err := json.Marshal(models.AssistantContent{
		Output: []models.AssistantSegment{
			{Text: text, Citations: []interface{}{}},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to serialize assistant content: %w", err)
	}

	if metadata == nil {
		metadata = map[string]interface{}{}
	}

	msg := &models.StoredMessage{
		SessionID: sessionID,
		Message: models.MessagePayload{
			Type:             models.MessageTypeAI,
			Content:          string(content),
			AdditionalKwargs: map[string]interface{}{},
			ResponseMetadata: metadata,
		},
	}

	if err := r.store.InsertMessage(ctx, msg); err != nil {
		return fmt.Errorf("failed to save assistant error message: %w", err)
	}

	r.publish(sessionID, *msg)
	return nil
}

func (r *Recorder) publish(sessionID string, msg models.StoredMessage) {
	if r.hub != nil {
		r.hub.Publish(sessionID, msg)
	}
}
