// Package publisher defines the interface for announcing completed harvest
// runs to downstream consumers of the Parquet output.
package publisher

import "context"

// Publisher pushes a run-completion payload and returns a message id.
type Publisher interface {
	Publish(ctx context.Context, payload any) (string, error)
	Close() error
}

// NoOp discards events; used when no broker is configured.
type NoOp struct{}

// Publish does nothing and returns a placeholder id.
func (NoOp) Publish(context.Context, any) (string, error) { return "noop", nil }

// Close does nothing.
func (NoOp) Close() error { return nil }
