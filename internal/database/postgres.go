package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// execCloser is the slice of pgxpool.Pool the store needs; pgxmock satisfies
// it in tests.
type execCloser interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Close()
}

// PostgresProvider writes run history rows into Postgres.
//
// Expected schema:
//
//	CREATE TABLE harvest_runs (
//	    run_id       UUID PRIMARY KEY,
//	    started_at   TIMESTAMPTZ NOT NULL,
//	    finished_at  TIMESTAMPTZ NOT NULL,
//	    status       TEXT NOT NULL,
//	    error_text   TEXT,
//	    records      BIGINT NOT NULL,
//	    staged_bytes BIGINT NOT NULL,
//	    output_bytes BIGINT NOT NULL,
//	    ratio        DOUBLE PRECISION NOT NULL,
//	    output_uri   TEXT
//	);
type PostgresProvider struct {
	pool execCloser
}

// NewPostgresProvider connects a pgx pool and verifies it.
func NewPostgresProvider(ctx context.Context, dsn string) (*PostgresProvider, error) {
	if dsn == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &PostgresProvider{pool: pool}, nil
}

// NewPostgresProviderWithPool builds a provider over an existing pool
// implementation; used by tests.
func NewPostgresProviderWithPool(pool execCloser) *PostgresProvider {
	return &PostgresProvider{pool: pool}
}

// SaveRun inserts one run history row.
func (p *PostgresProvider) SaveRun(ctx context.Context, run RunRecord) error {
	query := `
		INSERT INTO harvest_runs (
			run_id, started_at, finished_at, status, error_text,
			records, staged_bytes, output_bytes, ratio, output_uri
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := p.pool.Exec(ctx, query,
		run.RunID,
		run.StartedAt,
		run.FinishedAt,
		run.Status,
		run.ErrorText,
		run.Records,
		run.StagedBytes,
		run.OutputBytes,
		run.Ratio,
		run.OutputURI,
	)
	if err != nil {
		return fmt.Errorf("insert harvest run: %w", err)
	}
	return nil
}

// Close shuts down the connection pool.
func (p *PostgresProvider) Close() {
	p.pool.Close()
}
