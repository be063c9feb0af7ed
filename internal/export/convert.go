package export

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// geoFeature is one GeoJSON point feature.
type geoFeature struct {
	Type       string         `json:"type"`
	Geometry   geoGeometry    `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

type geoGeometry struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

type geoCollection struct {
	Type     string       `json:"type"`
	Features []geoFeature `json:"features"`
}

// Convert re-emits a Parquet export as row-oriented JSON, or, when the
// output path ends in .geojson, as a point FeatureCollection keyed on the
// latitude/longitude columns. GeoJSON output drops rows without a
// coordinate; JSON output keeps every row.
func Convert(ctx context.Context, inputPath, outputPath string) error {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return fmt.Errorf("open duckdb: %w", err)
	}
	defer db.Close() //nolint:errcheck // in-memory engine

	if strings.HasSuffix(outputPath, ".geojson") {
		return convertGeoJSON(ctx, db, inputPath, outputPath)
	}
	copySQL := fmt.Sprintf(
		"COPY (SELECT * FROM '%s') TO '%s' (FORMAT JSON, ARRAY true)",
		escapeSQL(inputPath),
		escapeSQL(outputPath),
	)
	if _, err := db.ExecContext(ctx, copySQL); err != nil {
		return fmt.Errorf("convert to json: %w", err)
	}
	return nil
}

func convertGeoJSON(ctx context.Context, db *sql.DB, inputPath, outputPath string) error {
	query := fmt.Sprintf(
		"SELECT * FROM '%s' WHERE latitude IS NOT NULL",
		escapeSQL(inputPath),
	)
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("read parquet: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	cols, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("describe parquet: %w", err)
	}

	collection := geoCollection{Type: "FeatureCollection", Features: []geoFeature{}}
	values := make([]any, len(cols))
	scan := make([]any, len(cols))
	for i := range values {
		scan[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(scan...); err != nil {
			return fmt.Errorf("scan row: %w", err)
		}
		props := make(map[string]any, len(cols))
		var lat, lng float64
		for i, col := range cols {
			switch col {
			case "latitude":
				lat = toFloat(values[i])
			case "longitude":
				lng = toFloat(values[i])
			default:
				props[col] = values[i]
			}
		}
		collection.Features = append(collection.Features, geoFeature{
			Type: "Feature",
			Geometry: geoGeometry{
				Type:        "Point",
				Coordinates: [2]float64{lng, lat},
			},
			Properties: props,
		})
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate parquet: %w", err)
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	enc := json.NewEncoder(out)
	if err := enc.Encode(collection); err != nil {
		out.Close() //nolint:errcheck // encode already failed
		return fmt.Errorf("write geojson: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	return nil
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	default:
		return 0
	}
}
