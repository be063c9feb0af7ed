package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"
)

func sampleRun() RunRecord {
	started := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	return RunRecord{
		RunID:       "8b2d8b3e-0000-0000-0000-000000000000",
		StartedAt:   started,
		FinishedAt:  started.Add(10 * time.Minute),
		Status:      "completed",
		Records:     120000,
		StagedBytes: 512 << 20,
		OutputBytes: 64 << 20,
		Ratio:       8.0,
		OutputURI:   "gs://bucket/exports/run/openbeta-climbs.parquet",
	}
}

func TestPostgresSaveRun(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	run := sampleRun()
	mock.ExpectExec("INSERT INTO harvest_runs").
		WithArgs(
			run.RunID, run.StartedAt, run.FinishedAt, run.Status, run.ErrorText,
			run.Records, run.StagedBytes, run.OutputBytes, run.Ratio, run.OutputURI,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	provider := NewPostgresProviderWithPool(mock)
	require.NoError(t, provider.SaveRun(context.Background(), run))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSaveRunError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO harvest_runs").
		WillReturnError(errors.New("connection reset"))

	provider := NewPostgresProviderWithPool(mock)
	err = provider.SaveRun(context.Background(), sampleRun())
	require.Error(t, err)
	require.Contains(t, err.Error(), "insert harvest run")
}

func TestNoOpProvider(t *testing.T) {
	var p NoOpProvider
	require.NoError(t, p.SaveRun(context.Background(), sampleRun()))
	p.Close()
}
