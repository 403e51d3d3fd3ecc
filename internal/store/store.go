// Package store writes normalized records to their destination.
package store

import (
	"context"

	"github.com/abbensid2/alltheplaces/internal/models"
)

// Sink receives records that passed the pipeline. Implementations are safe for
// concurrent use by the processor's workers.
type Sink interface {
	Write(ctx context.Context, adapter string, loc *models.Location) error
	Close() error
}

// Pinger is implemented by sinks backed by a remote service.
type Pinger interface {
	Ping(ctx context.Context) error
}

// memberID is the key a record is stored under in every sink.
func memberID(adapter string, loc *models.Location) string {
	return adapter + "/" + loc.Ref
}
