package service

import (
	"context"

	"property-assistant/internal/apperr"
	"property-assistant/internal/model"
)

// Retriever fetches candidate listings for an embedding and filter set
type Retriever struct {
	store     ListingStore
	count     int
	threshold float64
}

// NewRetriever creates a new retriever with a fixed result cap and threshold
func NewRetriever(store ListingStore, count int, threshold float64) *Retriever {
	return &Retriever{store: store, count: count, threshold: threshold}
}

// Retrieve calls the store once. Ranking belongs to the store; the result is
// only truncated to the cap. Store failures are not retried.
func (r *Retriever) Retrieve(ctx context.Context, embedding []float32, filters model.IntentFilters) ([]model.Listing, error) {
	params := filters.MatchParams(embedding, r.count, r.threshold)

	listings, err := r.store.MatchProperties(ctx, params)
	if err != nil {
		return nil, apperr.Retrieval("match_properties", err)
	}
	if len(listings) > r.count {
		listings = listings[:r.count]
	}
	return listings, nil
}
