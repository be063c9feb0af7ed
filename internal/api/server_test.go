package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/openbeta/climb-harvester/internal/progress"
	"github.com/openbeta/climb-harvester/internal/progress/sinks"
)

func TestHealthz(t *testing.T) {
	server := NewServer(0, nil, zap.NewNop())
	rec := httptest.NewRecorder()
	server.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
}

func TestProgressServesSnapshot(t *testing.T) {
	store := sinks.NewStoreSink(0)
	require.NoError(t, store.Consume(context.Background(), []progress.Event{
		{RunID: "r1", TS: time.Now().UTC(), Stage: progress.StageRunStart},
		{RunID: "r1", TS: time.Now().UTC(), Stage: progress.StageRegionFetch, Region: "USA", Outcome: "success", Records: 7},
	}))

	server := NewServer(0, store, zap.NewNop())
	rec := httptest.NewRecorder()
	server.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/progress", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var snap sinks.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	require.Equal(t, "r1", snap.RunID)
	require.Equal(t, 7, snap.Records)
}

func TestProgressWithoutStoreIs404(t *testing.T) {
	server := NewServer(0, nil, zap.NewNop())
	rec := httptest.NewRecorder()
	server.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/progress", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	server := NewServer(0, nil, zap.NewNop())
	rec := httptest.NewRecorder()
	server.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
}
