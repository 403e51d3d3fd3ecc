package store

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/abbensid2/alltheplaces/internal/models"
)

// GeoJSONSink streams a FeatureCollection. The collection is only valid JSON
// once Close has run.
type GeoJSONSink struct {
	mu      sync.Mutex
	w       *bufio.Writer
	closer  io.Closer
	count   int
	started bool
	closed  bool
}

// NewGeoJSONSink writes to w. w is not closed by the sink.
func NewGeoJSONSink(w io.Writer) *GeoJSONSink {
	return &GeoJSONSink{w: bufio.NewWriter(w)}
}

// NewGeoJSONFile creates (or truncates) path; "-" and "" mean stdout.
func NewGeoJSONFile(path string) (*GeoJSONSink, error) {
	if path == "" || path == "-" {
		return NewGeoJSONSink(os.Stdout), nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create geojson output: %w", err)
	}
	s := NewGeoJSONSink(f)
	s.closer = f
	return s, nil
}

func (s *GeoJSONSink) Write(ctx context.Context, adapter string, loc *models.Location) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(loc.ToFeature(adapter))
	if err != nil {
		return fmt.Errorf("encode feature %s: %w", memberID(adapter, loc), err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("geojson sink closed")
	}
	if err := s.header(); err != nil {
		return err
	}
	if s.count > 0 {
		if _, err := s.w.WriteString(",\n"); err != nil {
			return err
		}
	}
	if _, err := s.w.Write(data); err != nil {
		return err
	}
	s.count++
	return nil
}

func (s *GeoJSONSink) header() error {
	if s.started {
		return nil
	}
	s.started = true
	_, err := s.w.WriteString(`{"type":"FeatureCollection","features":[` + "\n")
	return err
}

// Count returns the number of features written so far.
func (s *GeoJSONSink) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Close terminates the collection and flushes. Calling it twice is a no-op.
func (s *GeoJSONSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	if err := s.header(); err != nil {
		return err
	}
	if _, err := s.w.WriteString("\n]}\n"); err != nil {
		return err
	}
	if err := s.w.Flush(); err != nil {
		return err
	}
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}
