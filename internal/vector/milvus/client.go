package milvus

import (
	"context"
	"fmt"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"go.uber.org/zap"

	"github.com/eroland11241988/insightlm/pkg/logger"
)

// Client reads the vector index owned by the external ingestion pipeline.
// The relay never consults it; only diagnostics does, and only for counts.
type Client struct {
	client         client.Client
	collectionName string
}

func NewClient(endpoint, collectionName string) (*Client, error) {
	c, err := client.NewGrpcClient(context.Background(), endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create milvus client: %w", err)
	}

	logger.Info("Vector index client initialized",
		zap.String("endpoint", endpoint),
		zap.String("collection", collectionName),
	)

	return &Client{
		client:         c,
		collectionName: collectionName,
	}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// CountDocuments returns how many indexed documents are tagged to the given
// notebook. Documents carry the notebook reference inside their metadata
// JSON field.
func (c *Client) CountDocuments(ctx context.Context, notebookID string) (int64, error) {
	expr := fmt.Sprintf(`metadata["notebook_id"] == %q`, notebookID)

	rs, err := c.client.Query(ctx, c.collectionName, nil, expr, []string{"id"})
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}

	var count int64
	for _, col := range rs {
		if col.Name() == "id" {
			count = int64(col.Len())
			break
		}
	}

	logger.Debug("Vector index counted",
		zap.String("notebook_id", notebookID),
		zap.Int64("documents", count),
	)

	return count, nil
}
