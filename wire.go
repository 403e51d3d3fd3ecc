package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/abbensid2/alltheplaces/internal/pipeline"
	"github.com/abbensid2/alltheplaces/internal/processor"
	"github.com/abbensid2/alltheplaces/internal/scraper"
	"github.com/abbensid2/alltheplaces/internal/store"
	"github.com/abbensid2/alltheplaces/pkg/circuit"
	"github.com/abbensid2/alltheplaces/pkg/config"
	"github.com/abbensid2/alltheplaces/pkg/container"
	"github.com/abbensid2/alltheplaces/pkg/geography"
	"github.com/abbensid2/alltheplaces/pkg/logging"
	"github.com/abbensid2/alltheplaces/pkg/metrics"
)

const connectTimeout = 10 * time.Second

// newContainer registers every component provider. Nothing is built until it
// is resolved, so serve mode never opens a geojson sink it does not use.
func newContainer(cfg *config.Config, logger *logging.Logger) (*container.Container, error) {
	c := container.New()
	for _, err := range []error{
		c.Supply(cfg),
		c.Supply(logger),
		c.Provide(metrics.NewRegistry, true),
		c.Provide(loadAdapterTable, true),
		c.Provide(scraper.DefaultRegistry, true),
		c.Provide(func(t *geography.AdapterTable, l *logging.Logger) *pipeline.Pipeline {
			return pipeline.Default(t, l)
		}, true),
		c.Provide(openSink, true),
		c.Provide(newEngine, true),
	} {
		if err != nil {
			return nil, err
		}
	}
	return c, nil
}

func loadAdapterTable(cfg *config.Config) (*geography.AdapterTable, error) {
	if cfg.AdapterTablePath == "" {
		return geography.DefaultAdapterTable(), nil
	}
	f, err := os.Open(cfg.AdapterTablePath)
	if err != nil {
		return nil, fmt.Errorf("open adapter table: %w", err)
	}
	defer f.Close()
	return geography.LoadAdapterTable(f)
}

// openSink builds the OUTPUT_SINK destination. Remote sinks are put behind a
// circuit breaker unless BREAKER_FAILURES is 0.
func openSink(cfg *config.Config, registry *metrics.Registry, logger *logging.Logger) (store.Sink, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	var sink store.Sink
	switch cfg.OutputSink {
	case config.SinkMySQL:
		s, err := store.NewMySQLSink(ctx, cfg)
		if err != nil {
			return nil, err
		}
		sink = s
	case config.SinkRedis:
		s, err := store.NewRedisSink(ctx, cfg)
		if err != nil {
			return nil, err
		}
		sink = s
	default:
		s, err := store.NewGeoJSONFile(cfg.OutputPath)
		if err != nil {
			return nil, err
		}
		return s, nil
	}

	if cfg.BreakerFailures == 0 {
		return sink, nil
	}
	bc := circuit.DefaultConfig(cfg.OutputSink)
	bc.MaxConsecFailures = cfg.BreakerFailures
	bc.OpenFor = cfg.BreakerOpenFor
	return store.NewGuarded(sink, circuit.New(bc, registry, logger)), nil
}

func newEngine(p *pipeline.Pipeline, sink store.Sink, registry *metrics.Registry, logger *logging.Logger, cfg *config.Config) *processor.ProcessingEngine {
	pc := processor.DefaultProcessingConfig()
	pc.WorkerCount = cfg.WorkerCount
	pc.QueueSize = cfg.QueueSize
	pc.JobTimeout = cfg.JobTimeout
	pc.WriteRPS = cfg.WriteRPS
	return processor.NewProcessingEngine(p, sink, registry, logger, pc)
}
