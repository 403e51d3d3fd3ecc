package processor

import (
	"context"
	"time"

	"github.com/abbensid2/alltheplaces/internal/models"
)

// Engine is what the batch command drives.
type Engine interface {
	RunID() string
	Start()
	Stop(timeout time.Duration) error
	Submit(ctx context.Context, job ProcessingJob) error
	ProcessRecords(ctx context.Context, adapter string, records []models.Location) error
	GetStats() ProcessingStats
}

var _ Engine = (*ProcessingEngine)(nil)
