// Package progress defines the event stream emitted by the harvest pipeline
// and the hub that fans it out to sinks.
package progress

import (
	"errors"
	"time"
)

// Stage denotes the pipeline milestone an Event represents.
type Stage string

// Supported progress stages.
const (
	StageRunStart    Stage = "RUN_START"
	StageRunDone     Stage = "RUN_DONE"
	StageRunError    Stage = "RUN_ERROR"
	StageEnumerate   Stage = "ENUMERATE"
	StageRegionFetch Stage = "REGION_FETCH"
	StageRegionSplit Stage = "REGION_SPLIT"
	StageNormalize   Stage = "NORMALIZE"
	StageFilter      Stage = "FILTER"
	StageExport      Stage = "EXPORT"
	StagePublish     Stage = "PUBLISH"
)

// Event captures one milestone of a harvest run.
type Event struct {
	// RunID identifies the harvest run the event belongs to.
	RunID string
	// TS is the UTC timestamp recorded by the emitter.
	TS time.Time
	// Stage is the pipeline milestone.
	Stage Stage
	// Region scopes region-level events to a partition key path.
	Region string
	// Outcome labels region fetches: success, oversize, hard_failure.
	Outcome string
	// Records is the record count attached to the milestone.
	Records int
	// Dur is the milestone latency where one applies.
	Dur time.Duration
	// Note carries low-volume context such as error text.
	Note string
}

// Validate performs coarse validation before an event enters the hub.
func (e Event) Validate() error {
	if e.RunID == "" {
		return errors.New("run id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Stage {
	case StageRunStart, StageRunDone, StageRunError,
		StageEnumerate, StageNormalize, StageFilter,
		StageExport, StagePublish:
		return nil
	case StageRegionFetch:
		if e.Region == "" {
			return errors.New("region fetch requires a region")
		}
		if e.Outcome == "" {
			return errors.New("region fetch requires an outcome")
		}
		return nil
	case StageRegionSplit:
		if e.Region == "" {
			return errors.New("region split requires a region")
		}
		return nil
	default:
		return errors.New("unknown stage")
	}
}
