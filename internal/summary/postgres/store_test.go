package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/gigaspace-pagegen/internal/pagegen"
)

func TestStoreSummaryInsertsRow(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "")
	require.NoError(t, err)

	s := pagegen.RunSummary{
		RunID:            "0190-run",
		Timestamp:        time.Unix(1700000000, 0).UTC(),
		DurationSeconds:  3.5,
		ThroughputPerSec: 2,
		TotalEntities:    7,
		Processed:        7,
		Successful:       5,
		Missing:          2,
		NotFound:         1,
		Errors:           1,
		TotalPages:       14,
		CategoryPages:    true,
		Categories:       []string{"anime"},
	}

	mock.ExpectExec("INSERT INTO generation_runs").
		WithArgs(
			s.RunID,
			s.Timestamp,
			s.DurationSeconds,
			s.ThroughputPerSec,
			s.TotalEntities,
			s.Processed,
			s.Successful,
			s.Missing,
			s.NotFound,
			s.Errors,
			s.TotalPages,
			s.WriteFailures,
			s.CategoryPages,
			[]byte(`["anime"]`),
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.StoreSummary(context.Background(), s))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreSummaryWrapsExecError(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "runs")
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO runs").WillReturnError(errors.New("boom"))

	err = store.StoreSummary(context.Background(), pagegen.RunSummary{RunID: "r"})
	require.ErrorContains(t, err, "insert run summary")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreSummaryValidation(t *testing.T) {
	t.Parallel()

	var nilStore *Store
	require.Error(t, nilStore.StoreSummary(context.Background(), pagegen.RunSummary{RunID: "r"}))

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	store, err := NewWithPool(mock, "")
	require.NoError(t, err)
	require.ErrorContains(t, store.StoreSummary(context.Background(), pagegen.RunSummary{}), "run id")
}

func TestNewWithPoolValidation(t *testing.T) {
	t.Parallel()

	_, err := NewWithPool(nil, "")
	require.Error(t, err)

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	_, err = NewWithPool(mock, "runs; DROP TABLE x")
	require.ErrorContains(t, err, "invalid table name")
}

func TestNewRequiresDSN(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), Config{})
	require.Error(t, err)
	_, err = New(context.Background(), Config{DSN: "postgres://u@localhost/db", Table: "bad-name"})
	require.ErrorContains(t, err, "invalid table name")
}
