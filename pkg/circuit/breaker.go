// Package circuit stops calling a failing backend for a while so a dead sink
// fails records fast instead of stalling every worker on timeouts.
package circuit

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/abbensid2/alltheplaces/pkg/logging"
	"github.com/abbensid2/alltheplaces/pkg/metrics"
)

// State represents the circuit breaker state
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	}
	return "unknown"
}

// Config tunes a circuit breaker instance.
type Config struct {
	Name string

	OperationTimeout  time.Duration // per-call timeout; 0 = none
	OpenFor           time.Duration // how long to stay open before probing
	MaxConsecFailures int           // consecutive failures to open
	WindowSize        int           // sliding window of recent calls
	FailureRate       float64       // 0..1 fraction in window to open; 0 = off
	MinCalls          int           // window fill required before FailureRate applies
}

// DefaultConfig opens after five straight failures and probes every 30s.
func DefaultConfig(name string) Config {
	return Config{
		Name:              name,
		OpenFor:           30 * time.Second,
		MaxConsecFailures: 5,
		WindowSize:        20,
		FailureRate:       0.5,
		MinCalls:          10,
	}
}

// ErrOpen indicates the breaker is open and calls are short-circuited.
var ErrOpen = errors.New("circuit open")

type Breaker struct {
	cfg        Config
	mu         sync.Mutex
	st         State
	nextProbe  time.Time
	probing    bool
	consecFail int

	win  []bool // true = failure
	idx  int
	used int

	now func() time.Time
	log *logging.ComponentLogger

	mOpen    *metrics.Counter
	mSuccess *metrics.Counter
	mFailure *metrics.Counter
	mReject  *metrics.Counter
	mLatency *metrics.Histogram
}

// New builds a breaker whose counters are registered as cb_<name>_*.
func New(cfg Config, registry *metrics.Registry, log *logging.Logger) *Breaker {
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = 20
	}
	if cfg.OpenFor <= 0 {
		cfg.OpenFor = 30 * time.Second
	}
	if registry == nil {
		registry = metrics.NewRegistry()
	}
	if log == nil {
		log = logging.Discard()
	}
	prefix := "cb_" + cfg.Name + "_"
	return &Breaker{
		cfg:      cfg,
		st:       Closed,
		win:      make([]bool, cfg.WindowSize),
		now:      time.Now,
		log:      log.WithComponent("circuit"),
		mOpen:    registry.Counter(prefix+"opens", "Circuit opened events"),
		mSuccess: registry.Counter(prefix+"success", "Successful calls through circuit"),
		mFailure: registry.Counter(prefix+"failure", "Failed calls through circuit"),
		mReject:  registry.Counter(prefix+"rejected", "Calls short-circuited while open"),
		mLatency: registry.Histogram(prefix+"latency_seconds", "Latency of calls", []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}),
	}
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.st
}

func (b *Breaker) setStateLocked(st State) {
	if b.st == st {
		return
	}
	b.st = st
	switch st {
	case Open:
		b.mOpen.Inc(1)
		b.nextProbe = b.now().Add(b.cfg.OpenFor)
	case Closed:
		b.consecFail = 0
		b.used, b.idx = 0, 0
	}
	b.log.Info("breaker state change", logging.String("name", b.cfg.Name), logging.String("state", st.String()))
}

// record adds a sample into the ring and opens the circuit past a threshold.
func (b *Breaker) record(failed bool) {
	b.win[b.idx] = failed
	if b.used < len(b.win) {
		b.used++
	}
	b.idx = (b.idx + 1) % len(b.win)

	if b.st != Closed {
		return
	}
	if b.cfg.MaxConsecFailures > 0 && b.consecFail >= b.cfg.MaxConsecFailures {
		b.setStateLocked(Open)
		return
	}
	if b.cfg.FailureRate > 0 && b.used >= b.cfg.MinCalls {
		fail := 0
		for i := 0; i < b.used; i++ {
			if b.win[i] {
				fail++
			}
		}
		if float64(fail)/float64(b.used) >= b.cfg.FailureRate {
			b.setStateLocked(Open)
		}
	}
}

// Do runs op under the breaker. While open it returns ErrOpen without calling
// op. Once OpenFor has passed a single probe call is let through; its outcome
// closes or reopens the circuit.
func (b *Breaker) Do(ctx context.Context, op func(ctx context.Context) error) error {
	b.mu.Lock()
	switch b.st {
	case Open:
		if b.now().Before(b.nextProbe) {
			b.mu.Unlock()
			b.mReject.Inc(1)
			return ErrOpen
		}
		b.setStateLocked(HalfOpen)
		b.probing = true
	case HalfOpen:
		if b.probing {
			b.mu.Unlock()
			b.mReject.Inc(1)
			return ErrOpen
		}
		b.probing = true
	}
	b.mu.Unlock()

	if b.cfg.OperationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.cfg.OperationTimeout)
		defer cancel()
	}

	timer := b.mLatency.Start()
	err := op(ctx)
	timer.Observe()

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.st == HalfOpen {
		b.probing = false
		if err != nil {
			b.mFailure.Inc(1)
			b.setStateLocked(Open)
			return err
		}
		b.mSuccess.Inc(1)
		b.setStateLocked(Closed)
		return nil
	}

	if err != nil {
		// the caller giving up says nothing about the backend
		if errors.Is(err, context.Canceled) {
			return err
		}
		b.consecFail++
		b.mFailure.Inc(1)
		b.record(true)
		return err
	}

	b.consecFail = 0
	b.mSuccess.Inc(1)
	b.record(false)
	return nil
}
