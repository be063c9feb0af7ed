// Package export loads harvested records into DuckDB, applies the
// declarative projection, and writes a compressed Parquet file.
package export

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	_ "github.com/marcboeker/go-duckdb/v2" // database/sql driver
	"go.uber.org/zap"

	"github.com/openbeta/climb-harvester/internal/harvest"
)

//go:embed schema.sql
var defaultSchemaSQL string

// Codecs accepted for the Parquet COPY.
var supportedCodecs = map[string]struct{}{
	"snappy":       {},
	"zstd":         {},
	"gzip":         {},
	"uncompressed": {},
}

// Options configures one export.
type Options struct {
	// OutputPath is the Parquet file destination.
	OutputPath string
	// Compression is the Parquet codec (default snappy).
	Compression string
	// SchemaPath optionally overrides the embedded projection SQL with a
	// file on disk.
	SchemaPath string
}

// Stats summarizes one export for reporting.
type Stats struct {
	Rows        int
	StagedBytes int64
	OutputBytes int64
	Ratio       float64
}

// Export stages records as JSON, loads them into an in-memory DuckDB, applies
// the projection, and copies the result to Parquet. The staging file is
// removed on every exit path and the engine connection never outlives the
// call. An empty record set is an error; the run must fail before export.
func Export(ctx context.Context, records []harvest.Record, opts Options, logger *zap.Logger) (Stats, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(records) == 0 {
		return Stats{}, fmt.Errorf("no records to export")
	}
	if opts.OutputPath == "" {
		return Stats{}, fmt.Errorf("output path is required")
	}
	codec := strings.ToLower(opts.Compression)
	if codec == "" {
		codec = "snappy"
	}
	if _, ok := supportedCodecs[codec]; !ok {
		return Stats{}, fmt.Errorf("unsupported compression codec %q", opts.Compression)
	}

	schemaSQL, err := loadSchema(opts.SchemaPath)
	if err != nil {
		return Stats{}, err
	}

	stagingPath, stagedBytes, err := stageRecords(records)
	if err != nil {
		return Stats{}, err
	}
	defer os.Remove(stagingPath) //nolint:errcheck // best-effort cleanup

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return Stats{}, fmt.Errorf("open duckdb: %w", err)
	}
	defer db.Close() //nolint:errcheck // in-memory engine

	loadSQL := fmt.Sprintf(
		"CREATE TABLE climbs AS SELECT * FROM read_json_auto('%s')",
		escapeSQL(stagingPath),
	)
	if _, err := db.ExecContext(ctx, loadSQL); err != nil {
		return Stats{}, fmt.Errorf("load staged records: %w", err)
	}
	logger.Info("staged records loaded", zap.Int("records", len(records)), zap.Int64("staged_bytes", stagedBytes))

	var rows int
	countSQL := fmt.Sprintf("SELECT COUNT(*) FROM (%s)", schemaSQL)
	if err := db.QueryRowContext(ctx, countSQL).Scan(&rows); err != nil {
		return Stats{}, fmt.Errorf("apply projection: %w", err)
	}

	copySQL := fmt.Sprintf(
		"COPY (%s) TO '%s' (FORMAT PARQUET, COMPRESSION '%s')",
		schemaSQL,
		escapeSQL(opts.OutputPath),
		codec,
	)
	if _, err := db.ExecContext(ctx, copySQL); err != nil {
		return Stats{}, fmt.Errorf("write parquet: %w", err)
	}

	info, err := os.Stat(opts.OutputPath)
	if err != nil {
		return Stats{}, fmt.Errorf("stat output: %w", err)
	}

	stats := Stats{
		Rows:        rows,
		StagedBytes: stagedBytes,
		OutputBytes: info.Size(),
	}
	if stats.OutputBytes > 0 {
		stats.Ratio = float64(stats.StagedBytes) / float64(stats.OutputBytes)
	}
	logger.Info("export complete",
		zap.String("path", opts.OutputPath),
		zap.Int("rows", stats.Rows),
		zap.Int64("output_bytes", stats.OutputBytes),
		zap.Float64("compression_ratio", stats.Ratio),
	)
	return stats, nil
}

// stageRecords writes the climb payloads as a JSON array to a temp file and
// returns the path and staged size. The caller owns removal.
func stageRecords(records []harvest.Record) (string, int64, error) {
	tmp, err := os.CreateTemp("", "climbs-stage-*.json")
	if err != nil {
		return "", 0, fmt.Errorf("create staging file: %w", err)
	}
	climbs := make([]harvest.Climb, len(records))
	for i, rec := range records {
		climbs[i] = rec.Climb
	}
	enc := json.NewEncoder(tmp)
	if err := enc.Encode(climbs); err != nil {
		tmp.Close()           //nolint:errcheck // write already failed
		os.Remove(tmp.Name()) //nolint:errcheck // best-effort cleanup
		return "", 0, fmt.Errorf("stage records: %w", err)
	}
	info, err := tmp.Stat()
	if err != nil {
		tmp.Close()           //nolint:errcheck // stat already failed
		os.Remove(tmp.Name()) //nolint:errcheck // best-effort cleanup
		return "", 0, fmt.Errorf("stat staging file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name()) //nolint:errcheck // best-effort cleanup
		return "", 0, fmt.Errorf("close staging file: %w", err)
	}
	return tmp.Name(), info.Size(), nil
}

func loadSchema(path string) (string, error) {
	if path == "" {
		return defaultSchemaSQL, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read schema file: %w", err)
	}
	return string(data), nil
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
