package progress

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type captureSink struct {
	mu     sync.Mutex
	events []Event
	closed bool
}

func (c *captureSink) Consume(_ context.Context, batch []Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, batch...)
	return nil
}

func (c *captureSink) Close(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *captureSink) snapshot() ([]Event, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event(nil), c.events...), c.closed
}

func validEvent(stage Stage) Event {
	return Event{RunID: "run-1", TS: time.Now().UTC(), Stage: stage}
}

func TestHubDeliversAndClosesSinks(t *testing.T) {
	sink := &captureSink{}
	hub := NewHub(Config{}, sink)

	hub.Emit(validEvent(StageRunStart))
	hub.Emit(validEvent(StageEnumerate))
	hub.Emit(validEvent(StageRunDone))

	require.NoError(t, hub.Close(context.Background()))

	events, closed := sink.snapshot()
	require.Len(t, events, 3)
	require.Equal(t, StageRunStart, events[0].Stage)
	require.Equal(t, StageRunDone, events[2].Stage)
	require.True(t, closed)
	require.Zero(t, hub.Dropped())
}

func TestHubDiscardsInvalidEvents(t *testing.T) {
	sink := &captureSink{}
	hub := NewHub(Config{}, sink)

	hub.Emit(Event{Stage: StageRunStart}) // no run id, no timestamp
	hub.Emit(validEvent(StageRunDone))

	require.NoError(t, hub.Close(context.Background()))

	events, _ := sink.snapshot()
	require.Len(t, events, 1)
}

func TestHubEmitAfterCloseIsNoOp(t *testing.T) {
	sink := &captureSink{}
	hub := NewHub(Config{}, sink)
	require.NoError(t, hub.Close(context.Background()))

	hub.Emit(validEvent(StageRunDone))
	events, _ := sink.snapshot()
	require.Empty(t, events)
}

func TestHubFlushesOnBatchSize(t *testing.T) {
	sink := &captureSink{}
	hub := NewHub(Config{MaxBatchEvents: 2, MaxBatchWait: time.Hour}, sink)

	hub.Emit(validEvent(StageRunStart))
	hub.Emit(validEvent(StageEnumerate))

	require.Eventually(t, func() bool {
		events, _ := sink.snapshot()
		return len(events) == 2
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Close(context.Background()))
}

func TestHubCloseIsIdempotent(t *testing.T) {
	hub := NewHub(Config{}, &captureSink{})
	require.NoError(t, hub.Close(context.Background()))
	require.NoError(t, hub.Close(context.Background()))
}

func TestEventValidate(t *testing.T) {
	base := Event{RunID: "run-1", TS: time.Now()}

	ok := base
	ok.Stage = StageRunStart
	require.NoError(t, ok.Validate())

	fetch := base
	fetch.Stage = StageRegionFetch
	require.Error(t, fetch.Validate(), "region fetch needs a region")
	fetch.Region = "USA"
	require.Error(t, fetch.Validate(), "region fetch needs an outcome")
	fetch.Outcome = "success"
	require.NoError(t, fetch.Validate())

	split := base
	split.Stage = StageRegionSplit
	require.Error(t, split.Validate())
	split.Region = "USA"
	require.NoError(t, split.Validate())

	unknown := base
	unknown.Stage = Stage("BOGUS")
	require.Error(t, unknown.Validate())
}
