package models

import "time"

// Source processing lifecycle is owned by the external ingestion pipeline.
// Only the completed label carries meaning here; everything else is opaque.
const SourceStatusCompleted = "completed"

const (
	MessageTypeHuman = "human"
	MessageTypeAI    = "ai"
)

type Notebook struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Source struct {
	ID               string    `json:"id"`
	NotebookID       string    `json:"notebook_id"`
	Title            string    `json:"title"`
	ProcessingStatus string    `json:"processing_status"`
	CreatedAt        time.Time `json:"created_at"`
}

// StoredMessage is one row of the durable chat transcript. The insertion id
// is the only ordering guarantee the log provides.
type StoredMessage struct {
	ID        int64          `json:"id,omitempty"`
	SessionID string         `json:"session_id"`
	Message   MessagePayload `json:"message"`
}

// MessagePayload is the persisted message envelope shared with the external
// workflow's history format.
type MessagePayload struct {
	Type             string                 `json:"type"`
	Content          string                 `json:"content"`
	AdditionalKwargs map[string]interface{} `json:"additional_kwargs"`
	ResponseMetadata map[string]interface{} `json:"response_metadata"`
}

// HadError reports whether the message was flagged as an error condition in
// its response metadata.
func (m MessagePayload) HadError() bool {
	v, ok := m.ResponseMetadata["error"]
	if !ok {
		return false
	}
	flag, ok := v.(bool)
	return ok && flag
}

// AssistantContent is the structured envelope serialized into the Content of
// every assistant message, so downstream renderers parse genuine replies and
// synthesized error notices the same way.
type AssistantContent struct {
	Output []AssistantSegment `json:"output"`
}

type AssistantSegment struct {
	Text      string        `json:"text"`
	Citations []interface{} `json:"citations"`
}
