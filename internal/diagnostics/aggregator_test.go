package diagnostics

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eroland11241988/insightlm/internal/storage/models"
	"github.com/eroland11241988/insightlm/pkg/config"
)

type fakeStore struct {
	notebook *models.Notebook
	sources  []models.Source
	messages []models.StoredMessage

	notebookErr error
	sourcesErr  error
	messagesErr error
}

func (f *fakeStore) GetNotebook(ctx context.Context, id string) (*models.Notebook, error) {
	if f.notebookErr != nil {
		return nil, f.notebookErr
	}
	if f.notebook == nil {
		return nil, errors.New("record not found")
	}
	return f.notebook, nil
}

func (f *fakeStore) ListSources(ctx context.Context, notebookID string) ([]models.Source, error) {
	if f.sourcesErr != nil {
		return nil, f.sourcesErr
	}
	return f.sources, nil
}

func (f *fakeStore) RecentMessages(ctx context.Context, sessionID string, limit int) ([]models.StoredMessage, error) {
	if f.messagesErr != nil {
		return nil, f.messagesErr
	}
	if len(f.messages) > limit {
		return f.messages[:limit], nil
	}
	return f.messages, nil
}

type fakeCounter struct {
	count int64
	err   error
}

func (f *fakeCounter) CountDocuments(ctx context.Context, notebookID string) (int64, error) {
	return f.count, f.err
}

func healthyConfig() *config.Config {
	return &config.Config{
		Storage: config.StorageConfig{URL: "https://storage.example.com", ServiceKey: "service-key"},
		Webhook: config.WebhookConfig{URL: "https://flows.example.com/webhook/chat", AuthToken: "secret"},
	}
}

func healthyStore() *fakeStore {
	return &fakeStore{
		notebook: &models.Notebook{ID: "nb-1", Title: "Research"},
		sources: []models.Source{
			{ID: "s-1", Title: "paper.pdf", ProcessingStatus: models.SourceStatusCompleted},
		},
	}
}

func TestDiagnoseHealthy(t *testing.T) {
	agg := NewAggregator(healthyConfig(), healthyStore(), &fakeCounter{count: 12})

	rep, err := agg.Diagnose(context.Background(), "nb-1")
	require.NoError(t, err)

	assert.Equal(t, StatusHealthy, rep.OverallStatus)
	assert.Empty(t, rep.Recommendations)
	assert.Equal(t, "nb-1", rep.NotebookID)
	assert.True(t, rep.Environment.HasWebhookURL)
	assert.True(t, rep.Notebook.Exists)
	assert.True(t, rep.Sources.HasCompletedSource)
	assert.Equal(t, int64(12), rep.VectorStore.DocumentCount)
	assert.True(t, rep.VectorStore.HasDocuments)
}

func TestDiagnoseRecommendationOrder(t *testing.T) {
	cfg := &config.Config{
		Storage: config.StorageConfig{URL: "https://storage.example.com", ServiceKey: "key"},
		// Webhook URL and token both absent.
	}
	store := &fakeStore{
		sources: []models.Source{{ID: "s-1", ProcessingStatus: "pending"}},
	}

	agg := NewAggregator(cfg, store, &fakeCounter{count: 0})
	rep, err := agg.Diagnose(context.Background(), "nb-1")
	require.NoError(t, err)

	assert.Equal(t, StatusIssuesFound, rep.OverallStatus)
	require.Len(t, rep.Recommendations, 5)
	assert.Contains(t, rep.Recommendations[0], "webhook.url")
	assert.Contains(t, rep.Recommendations[1], "webhook.authToken")
	assert.Contains(t, rep.Recommendations[2], "Notebook not found")
	assert.Contains(t, rep.Recommendations[3], "No completed sources")
	assert.Contains(t, rep.Recommendations[4], "No documents in vector index")
}

func TestDiagnoseIdempotent(t *testing.T) {
	agg := NewAggregator(healthyConfig(), &fakeStore{
		notebook: &models.Notebook{ID: "nb-1"},
		sources:  []models.Source{{ID: "s-1", ProcessingStatus: "pending"}},
	}, &fakeCounter{count: 0})

	first, err := agg.Diagnose(context.Background(), "nb-1")
	require.NoError(t, err)
	second, err := agg.Diagnose(context.Background(), "nb-1")
	require.NoError(t, err)

	assert.Equal(t, first.OverallStatus, second.OverallStatus)
	assert.Equal(t, first.Recommendations, second.Recommendations)
}

func TestDiagnoseZeroDocumentsAlwaysRecommended(t *testing.T) {
	// Even a fully eligible notebook gets the vector index remediation
	// when nothing is embedded.
	agg := NewAggregator(healthyConfig(), healthyStore(), &fakeCounter{count: 0})

	rep, err := agg.Diagnose(context.Background(), "nb-1")
	require.NoError(t, err)

	assert.Equal(t, StatusIssuesFound, rep.OverallStatus)
	require.Len(t, rep.Recommendations, 1)
	assert.Contains(t, rep.Recommendations[0], "No documents in vector index")
}

func TestDiagnoseSuspiciousWebhookURL(t *testing.T) {
	cfg := healthyConfig()
	cfg.Webhook.URL = "https://flows.example.com/totally/normal/endpoint"

	agg := NewAggregator(cfg, healthyStore(), &fakeCounter{count: 3})
	rep, err := agg.Diagnose(context.Background(), "nb-1")
	require.NoError(t, err)

	require.Len(t, rep.Recommendations, 1)
	assert.Contains(t, rep.Recommendations[0], "does not look like a webhook endpoint")
}

func TestDiagnoseNotebookLookupFailure(t *testing.T) {
	store := healthyStore()
	store.notebookErr = errors.New("storage unreachable")

	agg := NewAggregator(healthyConfig(), store, &fakeCounter{count: 3})
	rep, err := agg.Diagnose(context.Background(), "nb-1")
	require.NoError(t, err)

	assert.False(t, rep.Notebook.Exists)
	assert.Contains(t, rep.Notebook.Error, "storage unreachable")
	assert.Contains(t, rep.Recommendations, "Notebook not found - verify the notebook ID is correct")
}

func TestDiagnoseHistorySummaries(t *testing.T) {
	store := healthyStore()
	store.messages = []models.StoredMessage{
		{ID: 9, Message: models.MessagePayload{Type: models.MessageTypeAI, ResponseMetadata: map[string]interface{}{"error": true, "status": 500}}},
		{ID: 8, Message: models.MessagePayload{Type: models.MessageTypeHuman, ResponseMetadata: map[string]interface{}{}}},
		{ID: 7, Message: models.MessagePayload{Type: models.MessageTypeAI}},
	}

	agg := NewAggregator(healthyConfig(), store, &fakeCounter{count: 3})
	rep, err := agg.Diagnose(context.Background(), "nb-1")
	require.NoError(t, err)

	require.Len(t, rep.ChatHistory.Recent, 3)
	assert.Equal(t, MessageSummary{ID: 9, Role: "ai", HadError: true}, rep.ChatHistory.Recent[0])
	assert.Equal(t, MessageSummary{ID: 8, Role: "human", HadError: false}, rep.ChatHistory.Recent[1])
	assert.Equal(t, MessageSummary{ID: 7, Role: "ai", HadError: false}, rep.ChatHistory.Recent[2])
}

func TestDiagnoseVectorCounterFailure(t *testing.T) {
	agg := NewAggregator(healthyConfig(), healthyStore(), &fakeCounter{err: errors.New("index offline")})

	rep, err := agg.Diagnose(context.Background(), "nb-1")
	require.NoError(t, err)

	assert.Contains(t, rep.VectorStore.Error, "index offline")
	assert.False(t, rep.VectorStore.HasDocuments)
}

type panickyCounter struct{}

func (panickyCounter) CountDocuments(ctx context.Context, notebookID string) (int64, error) {
	panic("nil collection handle")
}

func TestDiagnoseDegradesToSingleError(t *testing.T) {
	agg := NewAggregator(healthyConfig(), healthyStore(), panickyCounter{})

	rep, err := agg.Diagnose(context.Background(), "nb-1")
	require.Error(t, err)
	assert.Nil(t, rep)
	assert.Contains(t, err.Error(), "diagnostics failed")
}
