// Package scraper turns already-fetched site payloads into location records.
// Adapters never perform network I/O; callers hand them the bytes.
package scraper

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/abbensid2/alltheplaces/internal/models"
)

// Adapter parses the payload of one site. It returns every record it could
// build; a non-nil error describes the entries it had to skip, so callers may
// receive both.
type Adapter interface {
	Name() string
	Parse(payload []byte) ([]models.Location, error)
}

// Registry maps adapter names to adapters.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry registers the given adapters. Later duplicates replace earlier ones.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		r.Register(a)
	}
	return r
}

// DefaultRegistry holds every built-in site adapter.
func DefaultRegistry() *Registry {
	return NewRegistry(
		NewKruidvat(),
		NewPetSmart(),
		NewDominosPizzaAU(),
		NewGooglePlaces(),
	)
}

func (r *Registry) Register(a Adapter) {
	r.adapters[strings.ToLower(a.Name())] = a
}

// Get returns the adapter registered under name.
func (r *Registry) Get(name string) (Adapter, bool) {
	a, ok := r.adapters[strings.ToLower(strings.TrimSpace(name))]
	return a, ok
}

// Lookup is Get with a fallback: unknown names parse the payload as records
// already in the normalized schema.
func (r *Registry) Lookup(name string) Adapter {
	if a, ok := r.Get(name); ok {
		return a
	}
	return NewRecords(name)
}

// Names lists the registered adapters, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for n := range r.adapters {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Records reads a JSON array (or a single object) of normalized locations.
type Records struct {
	name string
}

func NewRecords(name string) Records { return Records{name: name} }

func (a Records) Name() string { return a.name }

func (a Records) Parse(payload []byte) ([]models.Location, error) {
	trimmed := strings.TrimSpace(string(payload))
	if trimmed == "" {
		return nil, nil
	}
	if strings.HasPrefix(trimmed, "{") {
		var one models.Location
		if err := json.Unmarshal(payload, &one); err != nil {
			return nil, fmt.Errorf("%s: decode record: %w", a.name, err)
		}
		return []models.Location{one}, nil
	}
	var many []models.Location
	if err := json.Unmarshal(payload, &many); err != nil {
		return nil, fmt.Errorf("%s: decode records: %w", a.name, err)
	}
	return many, nil
}

// optional returns nil for "" so absent site fields stay missing.
func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
