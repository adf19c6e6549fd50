package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"property-assistant/internal/model"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

const matchPropertiesQuery = `
	SELECT
		ref, description, features, town, province, country,
		price, currency, beds, baths, pool, built, image_url, url_en
	FROM match_properties(
		query_embedding => $1,
		match_count     => $2,
		match_threshold => $3,
		max_price       => $4,
		min_baths       => $5,
		min_beds        => $6,
		pool_required   => $7
	)`

const insertSearchLogQuery = `
	INSERT INTO search_logs (
		request_id, prompt, language, intent, filters,
		response_type, result_count, listing_refs, response_time_ms
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

// PostgresRepository talks to the listing store
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(dsn string, maxConn, maxIdleConn int) (*PostgresRepository, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{db: db}, nil
}

// NewPostgresRepositoryFromDB wraps an existing handle
func NewPostgresRepositoryFromDB(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Close closes the database connection
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

// MatchProperties runs the vector similarity procedure. Rows come back in the
// procedure's ranking order.
func (r *PostgresRepository) MatchProperties(ctx context.Context, p model.MatchParams) ([]model.Listing, error) {
	var maxPrice interface{}
	if p.MaxPrice != nil {
		maxPrice = *p.MaxPrice
	}

	listings := []model.Listing{}
	err := r.db.SelectContext(ctx, &listings, matchPropertiesQuery,
		pgvector.NewVector(p.Embedding),
		p.MatchCount,
		p.Threshold,
		maxPrice,
		p.MinBathrooms,
		p.MinBedrooms,
		p.PoolRequired,
	)
	if err != nil {
		return nil, fmt.Errorf("match_properties: %w", err)
	}
	return listings, nil
}

// LogSearch writes one row to the search audit log
func (r *PostgresRepository) LogSearch(ctx context.Context, entry model.SearchLogEntry) error {
	var filters interface{}
	if entry.Filters != nil {
		raw, err := json.Marshal(entry.Filters)
		if err != nil {
			return fmt.Errorf("failed to encode filters: %w", err)
		}
		filters = raw
	}

	_, err := r.db.ExecContext(ctx, insertSearchLogQuery,
		entry.RequestID,
		entry.Prompt,
		entry.Language,
		entry.Intent,
		filters,
		entry.ResponseType,
		entry.ResultCount,
		pq.StringArray(entry.ListingRefs),
		entry.ResponseTime,
	)
	if err != nil {
		return fmt.Errorf("failed to log search: %w", err)
	}
	return nil
}
