package processor

import (
	"context"
	"sync"
	"time"
)

// RateLimiter implements token bucket rate limiting
type RateLimiter struct {
	tokens   chan struct{}
	interval time.Duration
	ticker   *time.Ticker
	stop     chan struct{}
	mu       sync.Mutex
	running  bool
}

// NewRateLimiter returns a limiter allowing rps sustained operations per
// second with bursts of up to burst. rps <= 0 disables limiting.
func NewRateLimiter(rps int, burst int) *RateLimiter {
	if rps <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = rps
	}

	rl := &RateLimiter{
		tokens:   make(chan struct{}, burst),
		interval: time.Second / time.Duration(rps),
	}
	for i := 0; i < burst; i++ {
		rl.tokens <- struct{}{}
	}
	return rl
}

func (rl *RateLimiter) Start() {
	if rl == nil {
		return
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if rl.running {
		return
	}

	rl.ticker = time.NewTicker(rl.interval)
	rl.stop = make(chan struct{})
	rl.running = true

	go func(ticker *time.Ticker, stop <-chan struct{}) {
		for {
			select {
			case <-ticker.C:
				select {
				case rl.tokens <- struct{}{}:
				default:
					// Bucket is full, drop token
				}
			case <-stop:
				return
			}
		}
	}(rl.ticker, rl.stop)
}

func (rl *RateLimiter) Stop() {
	if rl == nil {
		return
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if !rl.running {
		return
	}
	rl.ticker.Stop()
	close(rl.stop)
	rl.running = false
}

// Wait blocks until a token is available. A nil limiter never blocks.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if rl == nil {
		return ctx.Err()
	}
	select {
	case <-rl.tokens:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
