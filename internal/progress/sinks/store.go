package sinks

import (
	"context"
	"sync"
	"time"

	"github.com/openbeta/climb-harvester/internal/progress"
)

// Snapshot is the read model served by the status endpoint.
type Snapshot struct {
	RunID         string           `json:"run_id"`
	StartedAt     time.Time        `json:"started_at,omitempty"`
	LastEventAt   time.Time        `json:"last_event_at,omitempty"`
	RegionsByKind map[string]int   `json:"regions_by_outcome"`
	Splits        int              `json:"splits"`
	Records       int              `json:"records"`
	Recent        []progress.Event `json:"recent"`
}

// StoreSink keeps an in-memory view of the current run for the status server.
// It retains the most recent events in a fixed-size ring.
type StoreSink struct {
	mu     sync.RWMutex
	snap   Snapshot
	recent []progress.Event
	limit  int
}

// NewStoreSink builds a StoreSink retaining up to limit recent events
// (default 64).
func NewStoreSink(limit int) *StoreSink {
	if limit <= 0 {
		limit = 64
	}
	return &StoreSink{
		snap:  Snapshot{RegionsByKind: make(map[string]int)},
		limit: limit,
	}
}

// Consume folds the batch into the snapshot.
func (s *StoreSink) Consume(_ context.Context, batch []progress.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, evt := range batch {
		s.snap.RunID = evt.RunID
		s.snap.LastEventAt = evt.TS
		switch evt.Stage {
		case progress.StageRunStart:
			s.snap = Snapshot{
				RunID:         evt.RunID,
				StartedAt:     evt.TS,
				LastEventAt:   evt.TS,
				RegionsByKind: make(map[string]int),
			}
			s.recent = s.recent[:0]
		case progress.StageRegionFetch:
			s.snap.RegionsByKind[evt.Outcome]++
			s.snap.Records += evt.Records
		case progress.StageRegionSplit:
			s.snap.Splits++
		}
		s.recent = append(s.recent, evt)
		if len(s.recent) > s.limit {
			s.recent = s.recent[len(s.recent)-s.limit:]
		}
	}
	return nil
}

// Snapshot returns a copy of the current view.
func (s *StoreSink) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.snap
	out.RegionsByKind = make(map[string]int, len(s.snap.RegionsByKind))
	for k, v := range s.snap.RegionsByKind {
		out.RegionsByKind[k] = v
	}
	out.Recent = append([]progress.Event(nil), s.recent...)
	return out
}

// Close implements the Sink interface; it performs no action.
func (s *StoreSink) Close(context.Context) error {
	return nil
}
