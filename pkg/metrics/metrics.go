package metrics

import (
	"fmt"
	"math"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Simple, dependency-free metrics with Prometheus text exposition.
// Counters are keyed by their stat name ("metric/country/from_spider_name");
// the exposition name is derived by sanitize.

// Sink is the named-counter contract the pipeline writes to and tests read back.
type Sink interface {
	Inc(name string)
	Value(name string) int64
}

// Counter is a monotonically increasing number.
type Counter struct {
	name string
	help string
	val  int64 // use atomic
}

func (c *Counter) Inc(delta int64) { atomic.AddInt64(&c.val, delta) }
func (c *Counter) Add(delta int64) { c.Inc(delta) }
func (c *Counter) Get() int64      { return atomic.LoadInt64(&c.val) }

// Histogram with fixed buckets (cumulative counts per upper bound) and sum/count.
type Histogram struct {
	name    string
	help    string
	buckets []float64 // sorted ascending
	counts  []uint64  // atomics per bucket
	sum     uint64    // store float64 bits atomically
	count   uint64
}

func (h *Histogram) Observe(v float64) {
	idx := len(h.counts) - 1
	for i, ub := range h.buckets {
		if v <= ub {
			idx = i
			break
		}
	}
	atomic.AddUint64(&h.counts[idx], 1)
	atomic.AddUint64(&h.count, 1)
	for {
		old := atomic.LoadUint64(&h.sum)
		nv := math.Float64frombits(old) + v
		if atomic.CompareAndSwapUint64(&h.sum, old, math.Float64bits(nv)) {
			return
		}
	}
}

// Count returns the number of observations.
func (h *Histogram) Count() uint64 { return atomic.LoadUint64(&h.count) }

// Registry holds all metrics for one run. It is created by the caller and
// passed down explicitly; there is no package-level default.
type Registry struct {
	mu         sync.RWMutex
	counters   map[string]*Counter
	histograms map[string]*Histogram
}

func NewRegistry() *Registry {
	return &Registry{
		counters:   make(map[string]*Counter),
		histograms: make(map[string]*Histogram),
	}
}

var _ Sink = (*Registry)(nil)

func (r *Registry) Counter(name, help string) *Counter {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.counters[name]; ok {
		return c
	}
	c := &Counter{name: sanitize(name), help: help}
	r.counters[name] = c
	return c
}

// Inc increments the named counter by one, creating it on first use.
func (r *Registry) Inc(name string) {
	r.mu.RLock()
	c, ok := r.counters[name]
	r.mu.RUnlock()
	if !ok {
		c = r.Counter(name, name)
	}
	c.Inc(1)
}

// Value returns the current value of the named counter, or 0 if it was never
// incremented. Reading does not create the counter.
func (r *Registry) Value(name string) int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.counters[name]; ok {
		return c.Get()
	}
	return 0
}

// Snapshot returns all counter values keyed by stat name.
func (r *Registry) Snapshot() map[string]int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]int64, len(r.counters))
	for name, c := range r.counters {
		out[name] = c.Get()
	}
	return out
}

func (r *Registry) Histogram(name, help string, buckets []float64) *Histogram {
	r.mu.Lock()
	defer r.mu.Unlock()
	if h, ok := r.histograms[name]; ok {
		return h
	}
	if len(buckets) == 0 || buckets[len(buckets)-1] != Inf {
		// ensure +Inf bucket
		buckets = append(append([]float64{}, buckets...), Inf)
	}
	sorted := append([]float64{}, buckets...)
	sort.Float64s(sorted)
	h := &Histogram{name: sanitize(name), help: help, buckets: sorted, counts: make([]uint64, len(sorted))}
	r.histograms[name] = h
	return h
}

// Handler returns an http.Handler that exposes metrics in Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")

		r.mu.RLock()
		defer r.mu.RUnlock()

		for _, name := range Keys(r.counters) {
			c := r.counters[name]
			fmt.Fprintf(w, "# HELP %s %s\n", c.name, escapeHelp(c.help))
			fmt.Fprintf(w, "# TYPE %s counter\n", c.name)
			fmt.Fprintf(w, "%s %d\n", c.name, c.Get())
		}
		for _, name := range Keys(r.histograms) {
			h := r.histograms[name]
			fmt.Fprintf(w, "# HELP %s %s\n", h.name, escapeHelp(h.help))
			fmt.Fprintf(w, "# TYPE %s histogram\n", h.name)
			var cum uint64
			for i, ub := range h.buckets {
				cum += atomic.LoadUint64(&h.counts[i])
				bname := fmt.Sprintf("%s_bucket{le=\"%g\"}", h.name, ub)
				if isInf(ub) {
					bname = fmt.Sprintf("%s_bucket{le=\"+Inf\"}", h.name)
				}
				fmt.Fprintf(w, "%s %d\n", bname, cum)
			}
			sum := math.Float64frombits(atomic.LoadUint64(&h.sum))
			fmt.Fprintf(w, "%s_sum %g\n", h.name, sum)
			fmt.Fprintf(w, "%s_count %d\n", h.name, h.Count())
		}
	})
}

const (
	Inf = 1e308 // large sentinel for +Inf label
)

func isInf(v float64) bool { return math.IsInf(v, 1) || v > 1e307 }

func sanitize(s string) string {
	return strings.NewReplacer(" ", "_", "-", "_", "/", "_", ".", "_").Replace(s)
}

func escapeHelp(s string) string {
	return strings.ReplaceAll(s, "\n", " ")
}

// Keys returns the sorted keys of m.
func Keys[T any](m map[string]T) []string {
	ks := make([]string, 0, len(m))
	for k := range m {
		ks = append(ks, k)
	}
	sort.Strings(ks)
	return ks
}

// Minimal timer helper for histograms.
type Timer struct {
	h     *Histogram
	start time.Time
}

func (h *Histogram) Start() Timer { return Timer{h: h, start: time.Now()} }
func (t Timer) Observe() {
	if t.h != nil {
		t.h.Observe(time.Since(t.start).Seconds())
	}
}
