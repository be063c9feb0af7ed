// Package storage defines the interface for publishing output artifacts.
// The abstraction keeps the pipeline independent of where the Parquet file
// and its stats sidecar end up: a local directory, a GCS bucket, or nowhere.
package storage

import "context"

// Provider publishes an artifact and returns a URI for it.
type Provider interface {
	// PutObject writes data under the given object name and returns the
	// destination URI.
	PutObject(ctx context.Context, objectName, contentType string, data []byte) (string, error)
}

// NoOpProvider discards artifacts. The local Parquet file still exists; it
// just is not published anywhere else.
type NoOpProvider struct{}

// PutObject does nothing and returns an empty URI.
func (NoOpProvider) PutObject(context.Context, string, string, []byte) (string, error) {
	return "", nil
}
