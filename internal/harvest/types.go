// Package harvest defines the core types and the adaptive fetch controller
// shared across subsystems.
package harvest

import (
	"strings"
	"time"
)

// PartitionKey is an ordered sequence of path segments identifying a node in
// the source's geographic hierarchy, e.g. ["USA", "California"]. A child key
// is always a strict extension of its parent's.
type PartitionKey []string

// Extend returns a new key with one more segment appended. The receiver is
// never aliased, so sibling keys stay disjoint.
func (k PartitionKey) Extend(segment string) PartitionKey {
	child := make(PartitionKey, 0, len(k)+1)
	child = append(child, k...)
	return append(child, segment)
}

// Country returns the top-level segment, or "" for an empty key.
func (k PartitionKey) Country() string {
	if len(k) == 0 {
		return ""
	}
	return k[0]
}

// String renders the key as a readable path.
func (k PartitionKey) String() string {
	return strings.Join(k, " / ")
}

// Coords is an optional latitude/longitude pair. Nil means unknown; unknown
// coordinates survive all the way to export as SQL NULLs, records are never
// dropped for lacking them.
type Coords struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

// Grades carries the grading-system representations reported by the source.
type Grades struct {
	YDS    *string `json:"yds"`
	VScale *string `json:"vscale"`
	French *string `json:"french"`
}

// TypeFlags is the set of boolean discipline flags on a climb.
type TypeFlags struct {
	Sport      bool `json:"sport"`
	Trad       bool `json:"trad"`
	Bouldering bool `json:"bouldering"`
	Alpine     bool `json:"alpine"`
	TR         bool `json:"tr"`
}

// Content holds the free-text fields of a climb.
type Content struct {
	Description *string `json:"description"`
}

// Climb is one leaf record as staged for export. The JSON field names mirror
// the source's wire shape so the export projection can address nested fields
// directly.
type Climb struct {
	UUID       string       `json:"uuid"`
	Name       string       `json:"name"`
	FA         *string      `json:"fa"`
	Length     *int         `json:"length"`
	BoltsCount *int         `json:"boltsCount"`
	Grades     Grades       `json:"grades"`
	Type       TypeFlags    `json:"type"`
	Safety     *string      `json:"safety"`
	Metadata   Coords       `json:"metadata"`
	Content    Content      `json:"content"`
	PathTokens PartitionKey `json:"pathTokens"`
}

// AreaMeta is the slice of a containing area a climb may inherit from.
// Areas themselves are transient; only this metadata outlives the fetch
// response.
type AreaMeta struct {
	UUID       string
	Name       string
	PathTokens PartitionKey
	Metadata   Coords
}

// Record pairs a climb with its immediate parent area's metadata. The climb
// is mutated exactly once, by Normalize, and is immutable afterwards.
type Record struct {
	Climb Climb
	Area  AreaMeta
}

// Counters tracks what the controller did during one run.
type Counters struct {
	Countries      int `json:"countries"`
	RegionsFetched int `json:"regions_fetched"`
	Splits         int `json:"splits"`
	OversizeAtCap  int `json:"oversize_at_cap"`
	HardFailures   int `json:"hard_failures"`
}

// RunStats is the companion statistics record written alongside the output.
type RunStats struct {
	RunID       string        `json:"run_id"`
	StartedAt   time.Time     `json:"started_at"`
	FinishedAt  time.Time     `json:"finished_at"`
	Counters    Counters      `json:"counters"`
	Fetched     int           `json:"records_fetched"`
	Exported    int           `json:"records_exported"`
	StagedBytes int64         `json:"staged_bytes"`
	OutputBytes int64         `json:"output_bytes"`
	Ratio       float64       `json:"compression_ratio"`
	OutputPath  string        `json:"output_path"`
	OutputURI   string        `json:"output_uri,omitempty"`
	Duration    time.Duration `json:"-"`
}
