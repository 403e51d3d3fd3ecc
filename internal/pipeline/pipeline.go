// Package pipeline runs the per-record cleanup stages every adapter's output
// goes through before it is written: whitespace cleanup, country resolution,
// phone normalization and the required-field check.
package pipeline

import (
	"context"

	"github.com/abbensid2/alltheplaces/internal/models"
	"github.com/abbensid2/alltheplaces/pkg/geography"
	"github.com/abbensid2/alltheplaces/pkg/logging"
	"github.com/abbensid2/alltheplaces/pkg/metrics"
)

// Counter names written to the stats sink.
const (
	StatCountryFromSpiderName = "metric/country/from_spider_name"
	StatCountryFromWebsiteURL = "metric/country/from_website_url"
	StatRecordsProcessed      = "metric/records/processed"
	StatRecordsDropped        = "metric/records/dropped"
)

// Context is the state one stage invocation sees. Record is modified in place.
type Context struct {
	Record  *models.Location
	Adapter string
	Stats   metrics.Sink
}

func (c *Context) inc(name string) {
	if c.Stats != nil {
		c.Stats.Inc(name)
	}
}

// Stage transforms a record. A non-nil error drops the record.
type Stage interface {
	Name() string
	Process(pc *Context) error
}

// Pipeline applies its stages in order, stopping at the first error.
type Pipeline struct {
	stages []Stage
	logger *logging.ComponentLogger
}

// New builds a pipeline from explicit stages.
func New(logger *logging.Logger, stages ...Stage) *Pipeline {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Pipeline{stages: stages, logger: logger.WithComponent("pipeline")}
}

// Default returns the standard stage order. A nil table uses the embedded one.
func Default(table *geography.AdapterTable, logger *logging.Logger) *Pipeline {
	return New(logger,
		FieldCleanUp{},
		NewCountryCodeCleanUp(table),
		PhoneCleanUp{},
		NewRequiredFields(),
	)
}

// Stages returns the stage names in execution order.
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}

// Run processes one record. The error, if any, belongs to this record only.
func (p *Pipeline) Run(ctx context.Context, pc *Context) error {
	ctx = logging.WithRef(logging.WithAdapter(ctx, pc.Adapter), pc.Record.Ref)
	for _, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := stage.Process(pc); err != nil {
			pc.inc(StatRecordsDropped)
			p.logger.WithContext(ctx).Warn("record dropped",
				logging.String("stage", stage.Name()),
				logging.String("reason", err.Error()))
			return err
		}
	}
	pc.inc(StatRecordsProcessed)
	p.logger.WithContext(ctx).Debug("record processed",
		logging.String("country", pc.Record.CountryCode()))
	return nil
}
