package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type OutcomeClass int

const (
	OutcomeSuccess OutcomeClass = iota
	// OutcomeTransportFailure is a non-2xx status from the webhook endpoint.
	OutcomeTransportFailure
	// OutcomeSemanticFailure is a 2xx status whose body indicates the
	// workflow itself degraded internally.
	OutcomeSemanticFailure
)

type Outcome struct {
	Class      OutcomeClass
	StatusCode int
	Body       string
}

// Payload is the wire shape sent to the external workflow.
type Payload struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	UserID    string `json:"user_id"`
	Timestamp string `json:"timestamp"`
}

// Dispatcher forwards one message to the external chat workflow. Exactly one
// attempt per relay request: no retry, no circuit breaking, no timeout
// beyond the transport default. Retries belong to the caller.
type Dispatcher struct {
	endpoint       string
	authToken      string
	errorSignature string
	httpClient     *http.Client
}

func NewDispatcher(endpoint, authToken, errorSignature string, timeout time.Duration) *Dispatcher {
	return &Dispatcher{
		endpoint:       endpoint,
		authToken:      authToken,
		errorSignature: errorSignature,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Dispatch sends the message and classifies the raw response. An error is
// returned only when no HTTP response was obtained at all; any response,
// success or not, comes back as an Outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, sessionID, message, userID string) (Outcome, error) {
	payload := Payload{
		SessionID: sessionID,
		Message:   message,
		UserID:    userID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(body))
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", d.authToken)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to reach webhook: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to read webhook response: %w", err)
	}

	return d.classify(resp.StatusCode, string(raw)), nil
}

// classify is fail-closed on transport status and fail-open on body parsing:
// a 2xx body that cannot be parsed as JSON is an opaque successful payload.
func (d *Dispatcher) classify(status int, body string) Outcome {
	if status < 200 || status >= 300 {
		return Outcome{Class: OutcomeTransportFailure, StatusCode: status, Body: body}
	}

	var parsed struct {
		Error  interface{} `json:"error"`
		Output []struct {
			Text string `json:"text"`
		} `json:"output"`
	}
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return Outcome{Class: OutcomeSuccess, StatusCode: status, Body: body}
	}

	if parsed.Error != nil {
		return Outcome{Class: OutcomeSemanticFailure, StatusCode: status, Body: body}
	}

	if d.errorSignature != "" {
		for _, seg := range parsed.Output {
			if strings.Contains(seg.Text, d.errorSignature) {
				return Outcome{Class: OutcomeSemanticFailure, StatusCode: status, Body: body}
			}
		}
	}

	return Outcome{Class: OutcomeSuccess, StatusCode: status, Body: body}
}
