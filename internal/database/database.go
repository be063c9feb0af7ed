// Package database defines the interface for persisting harvest run history.
// The interface decouples the pipeline from a specific backend so runs work
// without a database at all.
package database

import (
	"context"
	"time"
)

// RunRecord is the row stored for each completed harvest run.
type RunRecord struct {
	RunID       string
	StartedAt   time.Time
	FinishedAt  time.Time
	Status      string
	ErrorText   string
	Records     int
	StagedBytes int64
	OutputBytes int64
	Ratio       float64
	OutputURI   string
}

// Provider persists run history.
type Provider interface {
	// SaveRun records one completed (or failed) harvest run.
	SaveRun(ctx context.Context, run RunRecord) error

	// Close releases the underlying connections.
	Close()
}

// NoOpProvider discards run history. Used when no database is configured.
type NoOpProvider struct{}

// SaveRun does nothing.
func (NoOpProvider) SaveRun(context.Context, RunRecord) error { return nil }

// Close does nothing.
func (NoOpProvider) Close() {}
