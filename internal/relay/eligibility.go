package relay

import (
	"context"
	"fmt"

	"github.com/eroland11241988/insightlm/internal/storage/models"
)

// NotebookReader is the read-only slice of the storage collaborator the
// eligibility check depends on.
type NotebookReader interface {
	GetNotebook(ctx context.Context, id string) (*models.Notebook, error)
	ListSources(ctx context.Context, notebookID string) ([]models.Source, error)
}

type Eligibility struct {
	Exists             bool
	HasCompletedSource bool
	Notebook           *models.Notebook
}

// Checker decides whether a notebook may receive chat messages. It performs
// reads only and never mutates source state.
type Checker struct {
	store NotebookReader
}

func NewChecker(store NotebookReader) *Checker {
	return &Checker{store: store}
}

// Check reports whether the notebook exists and has at least one fully
// processed source. A failed lookup leaves Exists false with the error
// preserved; a failed source read leaves HasCompletedSource false but is
// still surfaced, so callers can tell a read fault from a confirmed absence.
func (c *Checker) Check(ctx context.Context, notebookID string) (Eligibility, error) {
	nb, err := c.store.GetNotebook(ctx, notebookID)
	if err != nil {
		return Eligibility{}, fmt.Errorf("notebook lookup failed: %w", err)
	}

	elig := Eligibility{Exists: true, Notebook: nb}

	sources, err := c.store.ListSources(ctx, notebookID)
	if err != nil {
		return elig, fmt.Errorf("source listing failed: %w", err)
	}

	for _, s := range sources {
		if s.ProcessingStatus == models.SourceStatusCompleted {
			elig.HasCompletedSource = true
			break
		}
	}

	return elig, nil
}
