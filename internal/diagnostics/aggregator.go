package diagnostics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eroland11241988/insightlm/internal/metrics"
	"github.com/eroland11241988/insightlm/internal/storage/models"
	"github.com/eroland11241988/insightlm/pkg/config"
	"github.com/eroland11241988/insightlm/pkg/logger"
)

const (
	StatusHealthy     = "HEALTHY"
	StatusIssuesFound = "ISSUES_FOUND"
)

const recentHistoryLimit = 5

// Store is the read-only slice of the storage collaborator diagnostics
// inspects. Diagnostics never writes.
type Store interface {
	GetNotebook(ctx context.Context, id string) (*models.Notebook, error)
	ListSources(ctx context.Context, notebookID string) ([]models.Source, error)
	RecentMessages(ctx context.Context, sessionID string, limit int) ([]models.StoredMessage, error)
}

// DocumentCounter reports how many indexed documents are tagged to a
// notebook in the vector index.
type DocumentCounter interface {
	CountDocuments(ctx context.Context, notebookID string) (int64, error)
}

type Report struct {
	NotebookID      string            `json:"notebookId"`
	Timestamp       string            `json:"timestamp"`
	Environment     EnvironmentReport `json:"environment"`
	Notebook        NotebookReport    `json:"notebook"`
	Sources         SourcesReport     `json:"sources"`
	VectorStore     VectorStoreReport `json:"vectorStore"`
	ChatHistory     ChatHistoryReport `json:"chatHistory"`
	Recommendations []string          `json:"recommendations"`
	OverallStatus   string            `json:"overallStatus"`
}

type EnvironmentReport struct {
	HasStorageURL   bool   `json:"hasStorageUrl"`
	HasStorageKey   bool   `json:"hasStorageKey"`
	HasWebhookURL   bool   `json:"hasWebhookUrl"`
	HasWebhookToken bool   `json:"hasWebhookToken"`
	WebhookURL      string `json:"webhookUrl"`
}

type NotebookReport struct {
	Exists bool             `json:"exists"`
	Error  string           `json:"error,omitempty"`
	Record *models.Notebook `json:"record,omitempty"`
}

type SourcesReport struct {
	Count              int             `json:"count"`
	Items              []SourceSummary `json:"items"`
	HasCompletedSource bool            `json:"hasCompletedSource"`
	Error              string          `json:"error,omitempty"`
}

type SourceSummary struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status"`
}

type VectorStoreReport struct {
	DocumentCount int64  `json:"documentCount"`
	HasDocuments  bool   `json:"hasDocuments"`
	Error         string `json:"error,omitempty"`
}

type ChatHistoryReport struct {
	Recent []MessageSummary `json:"recent"`
	Error  string           `json:"error,omitempty"`
}

type MessageSummary struct {
	ID       int64  `json:"id"`
	Role     string `json:"role"`
	HadError bool   `json:"hadError"`
}

// Aggregator inspects the relay's data dependencies and reports a health
// verdict with ordered remediation steps. All checks are independent reads;
// none gates another.
type Aggregator struct {
	cfg    *config.Config
	store  Store
	vector DocumentCounter
}

func NewAggregator(cfg *config.Config, store Store, vector DocumentCounter) *Aggregator {
	return &Aggregator{
		cfg:    cfg,
		store:  store,
		vector: vector,
	}
}

// Diagnose never panics past its boundary: an unexpected fault degrades to a
// single error instead of a partial report.
func (a *Aggregator) Diagnose(ctx context.Context, notebookID string) (report *Report, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Diagnostics recovered from panic",
				zap.Any("panic", r),
				zap.String("notebook_id", notebookID),
			)
			report = nil
			err = fmt.Errorf("diagnostics failed: %v", r)
		}
		status := StatusIssuesFound
		if report != nil {
			status = report.OverallStatus
		}
		metrics.DiagnosticsTotal.WithLabelValues(status).Inc()
	}()

	rep := &Report{
		NotebookID:  notebookID,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Environment: a.checkEnvironment(),
	}
	rep.Notebook = a.checkNotebook(ctx, notebookID)
	rep.Sources = a.checkSources(ctx, notebookID)
	rep.VectorStore = a.checkVectorStore(ctx, notebookID)
	rep.ChatHistory = a.checkHistory(ctx, notebookID)

	rep.Recommendations = a.recommend(rep)
	if len(rep.Recommendations) == 0 {
		rep.OverallStatus = StatusHealthy
	} else {
		rep.OverallStatus = StatusIssuesFound
	}

	return rep, nil
}

func (a *Aggregator) checkEnvironment() EnvironmentReport {
	return EnvironmentReport{
		HasStorageURL:   a.cfg.Storage.URL != "",
		HasStorageKey:   a.cfg.Storage.ServiceKey != "",
		HasWebhookURL:   a.cfg.Webhook.URL != "",
		HasWebhookToken: a.cfg.Webhook.AuthToken != "",
		WebhookURL:      a.cfg.Webhook.URL,
	}
}

func (a *Aggregator) checkNotebook(ctx context.Context, notebookID string) NotebookReport {
	nb, err := a.store.GetNotebook(ctx, notebookID)
	if err != nil {
		return NotebookReport{Exists: false, Error: err.Error()}
	}
	return NotebookReport{Exists: true, Record: nb}
}

func (a *Aggregator) checkSources(ctx context.Context, notebookID string) SourcesReport {
	sources, err := a.store.ListSources(ctx, notebookID)
	if err != nil {
		return SourcesReport{Items: []SourceSummary{}, Error: err.Error()}
	}

	rep := SourcesReport{
		Count: len(sources),
		Items: make([]SourceSummary, 0, len(sources)),
	}
	for _, s := range sources {
		rep.Items = append(rep.Items, SourceSummary{
			ID:     s.ID,
			Title:  s.Title,
			Status: s.ProcessingStatus,
		})
		if s.ProcessingStatus == models.SourceStatusCompleted {
			rep.HasCompletedSource = true
		}
	}

	return rep
}

func (a *Aggregator) checkVectorStore(ctx context.Context, notebookID string) VectorStoreReport {
	if a.vector == nil {
		return VectorStoreReport{}
	}

	count, err := a.vector.CountDocuments(ctx, notebookID)
	if err != nil {
		return VectorStoreReport{Error: err.Error()}
	}

	return VectorStoreReport{
		DocumentCount: count,
		HasDocuments:  count > 0,
	}
}

func (a *Aggregator) checkHistory(ctx context.Context, notebookID string) ChatHistoryReport {
	msgs, err := a.store.RecentMessages(ctx, notebookID, recentHistoryLimit)
	if err != nil {
		return ChatHistoryReport{Recent: []MessageSummary{}, Error: err.Error()}
	}

	rep := ChatHistoryReport{Recent: make([]MessageSummary, 0, len(msgs))}
	for _, m := range msgs {
		rep.Recent = append(rep.Recent, MessageSummary{
			ID:       m.ID,
			Role:     m.Message.Type,
			HadError: m.Message.HadError(),
		})
	}

	return rep
}

// recommend evaluates remediations in a fixed order so repeated runs over
// unchanged state produce an identical list.
func (a *Aggregator) recommend(rep *Report) []string {
	recs := []string{}

	if !rep.Environment.HasWebhookURL {
		recs = append(recs, "Set the chat webhook URL (webhook.url) so messages can be forwarded to the chat workflow")
	}
	if !rep.Environment.HasWebhookToken {
		recs = append(recs, "Set the chat webhook shared secret (webhook.authToken) so the workflow accepts forwarded messages")
	}
	if !rep.Notebook.Exists {
		recs = append(recs, "Notebook not found - verify the notebook ID is correct")
	}
	if !rep.Sources.HasCompletedSource {
		recs = append(recs, "No completed sources - add a source or wait for processing to finish before chatting")
	}
	if !rep.VectorStore.HasDocuments {
		recs = append(recs, "No documents in vector index for this notebook - source content has not been embedded yet")
	}
	if rep.Environment.HasWebhookURL && !strings.Contains(rep.Environment.WebhookURL, "webhook") {
		recs = append(recs, "Configured webhook URL does not look like a webhook endpoint - double-check webhook.url")
	}

	return recs
}
