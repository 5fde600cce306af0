package postgrest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/eroland11241988/insightlm/internal/storage/models"
	"github.com/eroland11241988/insightlm/pkg/logger"
)

// ErrNotFound is returned when a lookup matches zero rows, or more than one
// row where exactly one is expected.
var ErrNotFound = errors.New("record not found")

// Client talks to the external PostgREST-style storage collaborator. All
// entities live there; this service holds no state of its own.
type Client struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
}

func NewClient(baseURL, serviceKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		serviceKey: serviceKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) GetNotebook(ctx context.Context, id string) (*models.Notebook, error) {
	params := url.Values{}
	params.Set("id", "eq."+id)
	params.Set("limit", "2")

	body, err := c.get(ctx, "notebooks", params)
	if err != nil {
		return nil, err
	}

	var rows []models.Notebook
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode notebooks response: %w", err)
	}

	if len(rows) != 1 {
		logger.Debug("Notebook lookup did not match exactly one row",
			zap.String("notebook_id", id),
			zap.Int("rows", len(rows)),
		)
		return nil, ErrNotFound
	}

	nb := rows[0]
	return &nb, nil
}

func (c *Client) ListSources(ctx context.Context, notebookID string) ([]models.Source, error) {
	params := url.Values{}
	params.Set("notebook_id", "eq."+notebookID)
	params.Set("order", "created_at.asc")

	body, err := c.get(ctx, "sources", params)
	if err != nil {
		return nil, err
	}

	var rows []models.Source
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode sources response: %w", err)
	}

	return rows, nil
}

func (c *Client) InsertMessage(ctx context.Context, msg *models.StoredMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("n8n_chat_histories", nil), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Prefer", "return=minimal")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("storage insert returned status %d: %s", resp.StatusCode, string(detail))
	}

	logger.Debug("History message inserted",
		zap.String("session_id", msg.SessionID),
		zap.String("type", msg.Message.Type),
	)

	return nil
}

// RecentMessages returns the most recently inserted messages for a session,
// newest first.
func (c *Client) RecentMessages(ctx context.Context, sessionID string, limit int) ([]models.StoredMessage, error) {
	params := url.Values{}
	params.Set("session_id", "eq."+sessionID)
	params.Set("order", "id.desc")
	params.Set("limit", strconv.Itoa(limit))

	body, err := c.get(ctx, "n8n_chat_histories", params)
	if err != nil {
		return nil, err
	}

	var rows []models.StoredMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode history response: %w", err)
	}

	return rows, nil
}

func (c *Client) get(ctx context.Context, table string, params url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(table, params), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("storage query on %s returned status %d: %s", table, resp.StatusCode, string(detail))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return body, nil
}

func (c *Client) endpoint(table string, params url.Values) string {
	u := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, table)
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("apikey", c.serviceKey)
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
}
