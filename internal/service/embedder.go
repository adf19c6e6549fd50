package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"property-assistant/internal/apperr"
)

// Embedder turns text into a single embedding vector
type Embedder struct {
	client     EmbeddingCreator
	dimensions int
}

// NewEmbedder creates a new embedder. When dimensions is positive every vector
// must have exactly that length, matching the listing store's vector column.
func NewEmbedder(client EmbeddingCreator, dimensions int) *Embedder {
	return &Embedder{client: client, dimensions: dimensions}
}

// Embed returns the embedding of text
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	const op = "embed"

	if strings.TrimSpace(text) == "" {
		return nil, apperr.InvalidInput(op, "text to embed must not be empty")
	}

	vectors, err := e.client.CreateEmbeddings(ctx, []string{text})
	if err != nil {
		return nil, apperr.Upstream(op, err, "embedding call failed")
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, apperr.Upstream(op, errors.New("response contains no vector"), "embedding call failed")
	}
	if e.dimensions > 0 && len(vectors[0]) != e.dimensions {
		return nil, apperr.Upstream(op,
			fmt.Errorf("vector has %d dimensions, expected %d", len(vectors[0]), e.dimensions),
			"embedding call failed")
	}
	return vectors[0], nil
}
