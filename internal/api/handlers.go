// Package api exposes the normalization pipeline over HTTP.
package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/abbensid2/alltheplaces/internal/models"
	"github.com/abbensid2/alltheplaces/internal/pipeline"
	"github.com/abbensid2/alltheplaces/internal/scraper"
	"github.com/abbensid2/alltheplaces/internal/store"
	"github.com/abbensid2/alltheplaces/pkg/health"
	"github.com/abbensid2/alltheplaces/pkg/logging"
	"github.com/abbensid2/alltheplaces/pkg/metrics"
)

// MaxPayloadBytes caps one uploaded page or feed.
const MaxPayloadBytes = 16 << 20

// Response headers carrying per-request counts.
const (
	HeaderDropped     = "X-Records-Dropped"
	HeaderParseErrors = "X-Parse-Errors"
)

// Deps are the collaborators the routes need. Sink may be nil, in which case
// normalized records are only returned, not stored.
type Deps struct {
	Adapters    *scraper.Registry
	Pipeline    *pipeline.Pipeline
	Registry    *metrics.Registry
	Sink        store.Sink
	Health      *health.HealthManager
	MetricsPath string
	Logger      *logging.Logger
}

// NewRouter wires every route.
func NewRouter(d Deps) *mux.Router {
	if d.Logger == nil {
		d.Logger = logging.Discard()
	}
	if d.Registry == nil {
		d.Registry = metrics.NewRegistry()
	}
	if d.MetricsPath == "" {
		d.MetricsPath = "/metrics"
	}

	r := mux.NewRouter()
	r.HandleFunc("/normalize/{adapter}", NormalizeHandler(d)).Methods(http.MethodPost)
	r.HandleFunc("/adapters", AdaptersHandler(d.Adapters)).Methods(http.MethodGet)
	r.Handle(d.MetricsPath, d.Registry.Handler()).Methods(http.MethodGet)
	if d.Health != nil {
		r.Handle("/health", d.Health.Handler()).Methods(http.MethodGet)
	}
	return r
}

// NormalizeHandler parses the request body with the named adapter, runs every
// record through the pipeline and answers with the surviving records as a
// GeoJSON FeatureCollection. Dropped records are counted, never fatal.
func NormalizeHandler(d Deps) http.HandlerFunc {
	log := d.Logger.WithComponent("api")

	return func(w http.ResponseWriter, r *http.Request) {
		name := mux.Vars(r)["adapter"]
		ctx := logging.WithAdapter(r.Context(), name)

		body, err := io.ReadAll(io.LimitReader(r.Body, MaxPayloadBytes+1))
		if err != nil {
			http.Error(w, "failed to read body", http.StatusBadRequest)
			return
		}
		if len(body) > MaxPayloadBytes {
			http.Error(w, "payload too large", http.StatusRequestEntityTooLarge)
			return
		}

		adapter := d.Adapters.Lookup(name)
		records, parseErr := adapter.Parse(body)
		if parseErr != nil {
			log.WithContext(ctx).Warn("adapter reported parse errors", logging.String("error", parseErr.Error()))
			if len(records) == 0 {
				http.Error(w, parseErr.Error(), http.StatusBadRequest)
				return
			}
		}

		out := models.FeatureCollection{Type: "FeatureCollection", Features: make([]models.Feature, 0, len(records))}
		dropped := 0
		for i := range records {
			rec := records[i]
			pc := &pipeline.Context{Record: &rec, Adapter: name, Stats: d.Registry}
			if err := d.Pipeline.Run(ctx, pc); err != nil {
				dropped++
				continue
			}
			if d.Sink != nil {
				if err := d.Sink.Write(ctx, name, &rec); err != nil {
					log.WithContext(logging.WithRef(ctx, rec.Ref)).Error("failed to store record", err)
					http.Error(w, "failed to store records", http.StatusBadGateway)
					return
				}
			}
			out.Features = append(out.Features, rec.ToFeature(name))
		}

		w.Header().Set("Content-Type", "application/geo+json")
		w.Header().Set(HeaderDropped, strconv.Itoa(dropped))
		if parseErr != nil {
			w.Header().Set(HeaderParseErrors, "true")
		}
		if err := json.NewEncoder(w).Encode(out); err != nil {
			log.Error("failed to encode response", err)
		}
	}
}

// AdaptersHandler lists the adapters with site-specific parsers.
func AdaptersHandler(adapters *scraper.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"adapters": adapters.Names()})
	}
}
