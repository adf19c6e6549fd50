package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"property-assistant/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var listingColumns = []string{
	"ref", "description", "features", "town", "province", "country",
	"price", "currency", "beds", "baths", "pool", "built", "image_url", "url_en",
}

func newMockRepo(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresRepositoryFromDB(sqlx.NewDb(db, "postgres")), mock
}

func TestMatchProperties(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := sqlmock.NewRows(listingColumns).
		AddRow("REF-1", "Villa met zeezicht", []byte(`["Sea view","Garage"]`), "Alicante", "Alicante", "Spain",
			349000.0, "EUR", int64(3), int64(2), int64(1), 180.0, []byte(`{https://img/1.jpg,https://img/2.jpg}`), "https://example.com/ref-1").
		AddRow("REF-2", nil, nil, "Benidorm", "Alicante", "Spain",
			199000.0, "EUR", int64(2), int64(1), int64(0), nil, "https://img/3.jpg", "https://example.com/ref-2")

	mock.ExpectQuery(regexp.QuoteMeta("FROM match_properties(")).
		WithArgs(sqlmock.AnyArg(), 3, 0.8, nil, 1, 2, 0).
		WillReturnRows(rows)

	listings, err := repo.MatchProperties(context.Background(), model.MatchParams{
		Embedding:    []float32{0.1, 0.2, 0.3},
		MatchCount:   3,
		Threshold:    0.8,
		MinBathrooms: 1,
		MinBedrooms:  2,
	})
	require.NoError(t, err)
	require.Len(t, listings, 2)

	first := listings[0]
	assert.Equal(t, "REF-1", *first.Ref)
	assert.Equal(t, model.StringList{"Sea view", "Garage"}, first.Features)
	assert.Equal(t, "https://img/1.jpg", first.PrimaryImage())
	assert.Equal(t, 3, *first.Bedrooms)
	assert.True(t, first.HasPool())
	assert.Equal(t, 180.0, *first.BuiltArea)

	second := listings[1]
	assert.Equal(t, "REF-2", *second.Ref)
	assert.Nil(t, second.Description)
	assert.Nil(t, second.BuiltArea)
	assert.Equal(t, "https://img/3.jpg", second.PrimaryImage())
	assert.False(t, second.HasPool())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMatchProperties_NullRef(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := sqlmock.NewRows(listingColumns).
		AddRow(nil, "Finca in het binnenland", nil, "Jalón", "Alicante", "Spain",
			420000.0, "EUR", int64(4), int64(3), int64(1), 250.0, nil, nil).
		AddRow("REF-3", nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil)

	mock.ExpectQuery(regexp.QuoteMeta("FROM match_properties(")).
		WillReturnRows(rows)

	listings, err := repo.MatchProperties(context.Background(), model.MatchParams{Embedding: []float32{1}})
	require.NoError(t, err)
	require.Len(t, listings, 2)
	assert.Nil(t, listings[0].Ref)
	assert.Equal(t, "Jalón", *listings[0].Town)
	assert.Equal(t, "REF-3", *listings[1].Ref)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMatchProperties_MaxPriceAndPool(t *testing.T) {
	repo, mock := newMockRepo(t)
	maxPrice := 250000.0

	mock.ExpectQuery(regexp.QuoteMeta("FROM match_properties(")).
		WithArgs(sqlmock.AnyArg(), 2, 0.8, 250000.0, 2, 3, 1).
		WillReturnRows(sqlmock.NewRows(listingColumns))

	listings, err := repo.MatchProperties(context.Background(), model.MatchParams{
		Embedding:    []float32{0.5},
		MatchCount:   2,
		Threshold:    0.8,
		MaxPrice:     &maxPrice,
		MinBathrooms: 2,
		MinBedrooms:  3,
		PoolRequired: 1,
	})
	require.NoError(t, err)
	assert.NotNil(t, listings)
	assert.Empty(t, listings)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMatchProperties_Error(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM match_properties(")).
		WillReturnError(errors.New(`function match_properties does not exist`))

	_, err := repo.MatchProperties(context.Background(), model.MatchParams{Embedding: []float32{1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "function match_properties does not exist")
}

func TestLogSearch(t *testing.T) {
	repo, mock := newMockRepo(t)
	beds := 2

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO search_logs")).
		WithArgs("req-1", "2 bedrooms in Alicante", "en", model.IntentPropertySearch,
			sqlmock.AnyArg(), model.ResponseProperties, 2, `{"REF-1","REF-2"}`, int64(420)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.LogSearch(context.Background(), model.SearchLogEntry{
		RequestID:    "req-1",
		Prompt:       "2 bedrooms in Alicante",
		Language:     "en",
		Intent:       model.IntentPropertySearch,
		Filters:      &model.IntentFilters{MinBedrooms: &beds},
		ResponseType: model.ResponseProperties,
		ResultCount:  2,
		ListingRefs:  []string{"REF-1", "REF-2"},
		ResponseTime: 420,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogSearch_Error(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO search_logs")).
		WillReturnError(errors.New("relation search_logs does not exist"))

	err := repo.LogSearch(context.Background(), model.SearchLogEntry{RequestID: "req-2"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to log search")
}
