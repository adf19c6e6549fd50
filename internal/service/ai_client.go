package service

import (
	"context"

	"property-assistant/internal/model"
)

// ChatCompleter issues chat completion calls
type ChatCompleter interface {
	ChatCompletion(ctx context.Context, req ChatCompletionRequest) (*ChatCompletionResponse, error)
}

// EmbeddingCreator generates embeddings for texts
type EmbeddingCreator interface {
	CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// ThreadsAPI is the hosted assistant conversation API
type ThreadsAPI interface {
	CreateThread(ctx context.Context) (string, error)
	CreateMessage(ctx context.Context, threadID, role, content string) error
	CreateRun(ctx context.Context, threadID, assistantID string) (*Run, error)
	GetRun(ctx context.Context, threadID, runID string) (*Run, error)
	ListMessages(ctx context.Context, threadID string) ([]ThreadMessage, error)
}

// ListingStore runs the vector similarity procedure
type ListingStore interface {
	MatchProperties(ctx context.Context, p model.MatchParams) ([]model.Listing, error)
}

// SearchLogger records one audit row per request
type SearchLogger interface {
	LogSearch(ctx context.Context, entry model.SearchLogEntry) error
}

// TextCache caches localized text
type TextCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Ensure OpenAIClient implements the provider interfaces
var (
	_ ChatCompleter    = (*OpenAIClient)(nil)
	_ EmbeddingCreator = (*OpenAIClient)(nil)
	_ ThreadsAPI       = (*OpenAIClient)(nil)
)

func float64Ptr(v float64) *float64 {
	return &v
}
