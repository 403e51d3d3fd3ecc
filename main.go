package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/mattn/go-runewidth"

	"github.com/abbensid2/alltheplaces/internal/api"
	"github.com/abbensid2/alltheplaces/internal/pipeline"
	"github.com/abbensid2/alltheplaces/internal/processor"
	"github.com/abbensid2/alltheplaces/internal/scraper"
	"github.com/abbensid2/alltheplaces/internal/store"
	"github.com/abbensid2/alltheplaces/pkg/config"
	"github.com/abbensid2/alltheplaces/pkg/container"
	"github.com/abbensid2/alltheplaces/pkg/health"
	"github.com/abbensid2/alltheplaces/pkg/logging"
	"github.com/abbensid2/alltheplaces/pkg/metrics"
	"github.com/abbensid2/alltheplaces/pkg/monitoring"
)

const usage = `usage:
  alltheplaces run <adapter> [file|-]   normalize one harvested payload and write it to OUTPUT_SINK
  alltheplaces serve                    expose POST /normalize/{adapter} on PORT
  alltheplaces adapters                 list adapters with site-specific parsers`

func main() {
	if len(os.Args) < 2 || !knownCommand(os.Args[1]) || (os.Args[1] == "run" && len(os.Args) < 3) {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, err := logging.NewLogger(logging.LogConfig{
		Level:       logging.ParseLevel(cfg.LogLevel),
		Format:      cfg.LogFormat,
		Output:      cfg.LogOutput,
		EnableAsync: cfg.LogAsync,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer logger.Close()

	c, err := newContainer(cfg, logger)
	if err != nil {
		logger.Fatal("failed to wire components", err)
	}

	switch os.Args[1] {
	case "run":
		input := "-"
		if len(os.Args) > 3 {
			input = os.Args[3]
		}
		err = runBatch(c, os.Args[2], input)
	case "serve":
		err = serve(c)
	case "adapters":
		for _, name := range scraper.DefaultRegistry().Names() {
			fmt.Println(name)
		}
	}
	if err != nil {
		logger.Fatal("command failed", err, logging.String("command", os.Args[1]))
	}
}

func knownCommand(cmd string) bool {
	switch cmd {
	case "run", "serve", "adapters":
		return true
	}
	return false
}

// runBatch parses one payload and pushes every record through the engine.
// Bad records are counted and skipped; only setup failures abort.
func runBatch(c *container.Container, adapterName, input string) error {
	payload, err := readInput(input)
	if err != nil {
		return err
	}

	var (
		adapters *scraper.Registry
		engine   processor.Engine
		sink     store.Sink
		registry *metrics.Registry
		logger   *logging.Logger
	)
	if err := c.Invoke(func(a *scraper.Registry, e processor.Engine, s store.Sink, r *metrics.Registry, l *logging.Logger) {
		adapters, engine, sink, registry, logger = a, e, s, r, l
	}); err != nil {
		return err
	}
	log := logger.WithComponent("run")
	ctx := logging.WithRunID(logging.WithAdapter(context.Background(), adapterName), engine.RunID())

	records, parseErr := adapters.Lookup(adapterName).Parse(payload)
	if parseErr != nil {
		log.WithContext(ctx).Warn("some entries could not be parsed", logging.String("error", parseErr.Error()))
		if len(records) == 0 {
			sink.Close()
			return parseErr
		}
	}
	log.WithContext(ctx).Info("parsed payload", logging.Int("records", len(records)))

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engine.Start()
	submitErr := engine.ProcessRecords(sigCtx, adapterName, records)
	stopErr := engine.Stop(30 * time.Second)
	closeErr := sink.Close()

	printSummary(os.Stderr, registry.Snapshot())
	if errors.Is(submitErr, context.Canceled) {
		submitErr = nil
		log.WithContext(ctx).Warn("interrupted, remaining records were not queued")
	}
	return errors.Join(submitErr, stopErr, closeErr)
}

func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

// printSummary writes one aligned "name  value" line per counter.
func printSummary(w io.Writer, counters map[string]int64) {
	names := metrics.Keys(counters)
	width := 0
	for _, name := range names {
		width = max(width, runewidth.StringWidth(name))
	}
	for _, name := range names {
		fmt.Fprintf(w, "%s  %d\n", runewidth.FillRight(name, width), counters[name])
	}
}

func serve(c *container.Container) error {
	var (
		cfg      *config.Config
		p        *pipeline.Pipeline
		registry *metrics.Registry
		logger   *logging.Logger
	)
	if err := c.Invoke(func(cf *config.Config, pl *pipeline.Pipeline, r *metrics.Registry, l *logging.Logger) {
		cfg, p, registry, logger = cf, pl, r, l
	}); err != nil {
		return err
	}
	log := logger.WithComponent("server")

	hm := health.NewHealthManager(health.DefaultHealthConfig(), logger)
	hm.RegisterChecker(health.NewHealthCheckFunc("pipeline", func(context.Context) health.ComponentHealth {
		return health.ComponentHealth{
			Name:        "pipeline",
			Status:      health.HealthStatusHealthy,
			LastChecked: time.Now(),
			Metadata:    map[string]any{"stages": p.Stages()},
		}
	}))

	// A streamed geojson document has no sensible owner across requests, so
	// serve only stores when a database sink is configured.
	var sink store.Sink
	if cfg.OutputSink != config.SinkGeoJSON {
		if err := c.Resolve(&sink); err != nil {
			return err
		}
		defer sink.Close()
		if pinger, ok := sink.(store.Pinger); ok {
			hm.RegisterChecker(health.NewPingChecker("sink", pinger))
		}
	}

	router := api.NewRouter(api.Deps{
		Adapters:    scraper.DefaultRegistry(),
		Pipeline:    p,
		Registry:    registry,
		Sink:        sink,
		Health:      hm,
		MetricsPath: cfg.MetricsPath,
		Logger:      logger,
	})
	router.Use(monitoring.Middleware(registry))
	if cfg.ProfilingEnabled {
		monitoring.EnableProfiling(true)
		monitoring.RegisterPprof(router)
	}

	server := &http.Server{Addr: ":" + cfg.Port, Handler: router, ReadHeaderTimeout: 10 * time.Second}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		log.Info("server starting", logging.String("port", cfg.Port), logging.String("sink", cfg.OutputSink),
			logging.Bool("profiling", cfg.ProfilingEnabled))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
		log.Info("received shutdown signal, initiating graceful shutdown")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	log.Info("shutdown complete")
	return nil
}
