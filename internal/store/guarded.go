package store

import (
	"context"
	stderrors "errors"

	"github.com/abbensid2/alltheplaces/internal/models"
	"github.com/abbensid2/alltheplaces/pkg/circuit"
	errs "github.com/abbensid2/alltheplaces/pkg/errors"
)

// Guarded routes writes through a circuit breaker. While the circuit is open
// writes fail immediately with a non-retryable error.
type Guarded struct {
	Sink
	breaker *circuit.Breaker
}

// NewGuarded wraps sink.
func NewGuarded(sink Sink, breaker *circuit.Breaker) *Guarded {
	return &Guarded{Sink: sink, breaker: breaker}
}

func (g *Guarded) Write(ctx context.Context, adapter string, loc *models.Location) error {
	err := g.breaker.Do(ctx, func(ctx context.Context) error {
		return g.Sink.Write(ctx, adapter, loc)
	})
	if stderrors.Is(err, circuit.ErrOpen) {
		return errs.NewDB("store.Guarded.Write", "sink unavailable, skipping "+memberID(adapter, loc), err)
	}
	return err
}

// Ping forwards to the wrapped sink when it supports it.
func (g *Guarded) Ping(ctx context.Context) error {
	if p, ok := g.Sink.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
