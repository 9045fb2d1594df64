/*
refresher.go - Periodic rate schedule reload

PURPOSE:
  When several server instances share one PostgreSQL database, a PUT
  /api/rates on one instance must reach the others. The refresher reloads
  the stored schedule on an interval so every instance converges.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Each tick calls Handler.LoadRates with a bounded context
  - Failures are logged and retried on the next tick

USAGE:
  refresher := NewRateRefresher(handler, time.Minute)
  refresher.Start()
  // ... later
  refresher.Stop()
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// RateRefresher reloads stored rates into a Handler.
type RateRefresher struct {
	Handler       *Handler
	CheckInterval time.Duration

	stop    chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	lastRun time.Time
}

// NewRateRefresher creates a refresher; it does nothing until Start.
func NewRateRefresher(h *Handler, interval time.Duration) *RateRefresher {
	return &RateRefresher{
		Handler:       h,
		CheckInterval: interval,
	}
}

// Start launches the background loop. A non-positive interval disables it.
func (rr *RateRefresher) Start() {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	if rr.CheckInterval <= 0 || rr.stop != nil {
		return
	}
	rr.stop = make(chan struct{})
	rr.wg.Add(1)
	go rr.run(rr.stop)
	log.Info().Dur("interval", rr.CheckInterval).Msg("Rate refresher started")
}

// Stop halts the loop and waits for an in-flight reload.
func (rr *RateRefresher) Stop() {
	rr.mu.Lock()
	stop := rr.stop
	rr.stop = nil
	rr.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	rr.wg.Wait()
}

func (rr *RateRefresher) run(stop <-chan struct{}) {
	defer rr.wg.Done()
	ticker := time.NewTicker(rr.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rr.RunNow()
		case <-stop:
			return
		}
	}
}

// RunNow reloads immediately.
func (rr *RateRefresher) RunNow() {
	timeout := rr.CheckInterval
	if timeout <= 0 || timeout > 30*time.Second {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := rr.Handler.LoadRates(ctx); err != nil {
		log.Error().Err(err).Msg("Rate refresh failed")
		return
	}

	rr.mu.Lock()
	rr.lastRun = time.Now()
	rr.mu.Unlock()
}

// LastRun returns when rates were last reloaded successfully.
func (rr *RateRefresher) LastRun() time.Time {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	return rr.lastRun
}
