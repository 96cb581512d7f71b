package observation

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchByTimePeriod_QueryShape(t *testing.T) {
	// Given: a sqlmock DB so the exact query text and bindings are checked
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	query := regexp.QuoteMeta(`
		SELECT region_id, period_end, duration, median_sale_price
		FROM observations
		WHERE period_end = ? AND duration = ? AND median_sale_price IS NOT NULL
		ORDER BY rowid`)
	mock.ExpectQuery(query).
		WithArgs("2024-01-21", "1 weeks").
		WillReturnRows(sqlmock.NewRows([]string{"region_id", "period_end", "duration", "median_sale_price"}).
			AddRow(100, "2024-01-21", "1 weeks", 450000.0))

	s, err := NewStore(db)
	require.NoError(t, err)

	rows, err := s.FetchByTimePeriod(context.Background(), "median_sale_price", "1 weeks", "2024-01-21")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 100, rows[0].RegionID)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchByRegions_EmptySetIssuesNoQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s, err := NewStore(db)
	require.NoError(t, err)

	rows, err := s.FetchByRegions(context.Background(), nil, "median_sale_price", "1 weeks")
	require.NoError(t, err)
	assert.Empty(t, rows)

	// No query expectations were registered, so any query would fail here.
	require.NoError(t, mock.ExpectationsWereMet())
}
