/*
scheduler.go - Automated overdue sweep scheduler

PURPOSE:
  Periodically runs the past-due sweep so invoices whose due date has
  slipped get flipped to "Past Due" without anyone opening the admin
  endpoint. The sweep itself is idempotent; running it more often than
  once a day just finds nothing to do.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Delegates entirely to the ledger service; no business logic here
  - Logs what it flipped for audit

CONFIGURATION:
  - CheckInterval: How often to run (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewSweepScheduler(svc, log)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: RunPastDueSweep endpoint (manual sweep)
  - ledger/invoices.go: MarkPastDue
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/AlexG-SYS/ace-closet-ledger/ledger"
)

// SweepScheduler runs the past-due sweep in the background.
type SweepScheduler struct {
	Service       *ledger.Service
	Log           zerolog.Logger
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewSweepScheduler creates a new scheduler.
func NewSweepScheduler(svc *ledger.Service, log zerolog.Logger) *SweepScheduler {
	return &SweepScheduler{
		Service:       svc,
		Log:           log,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the scheduler.
func (ss *SweepScheduler) Start() {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if !ss.Enabled {
		ss.Log.Info().Msg("sweep scheduler disabled, not starting")
		return
	}

	ss.ticker = time.NewTicker(ss.CheckInterval)
	ss.wg.Add(1)

	go ss.run()

	ss.Log.Info().Dur("interval", ss.CheckInterval).Msg("sweep scheduler started")
}

// Stop stops the scheduler.
func (ss *SweepScheduler) Stop() {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if ss.ticker != nil {
		ss.ticker.Stop()
		close(ss.stop)
		ss.wg.Wait()
		ss.Log.Info().Msg("sweep scheduler stopped")
	}
}

func (ss *SweepScheduler) run() {
	defer ss.wg.Done()

	// Run immediately on start
	ss.sweep()

	for {
		select {
		case <-ss.ticker.C:
			ss.sweep()
		case <-ss.stop:
			return
		}
	}
}

func (ss *SweepScheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	n, err := ss.Service.MarkPastDue(ctx)
	if err != nil {
		ss.Log.Error().Err(err).Msg("overdue sweep failed")
		return
	}
	if n > 0 {
		ss.Log.Info().Int("marked_past_due", n).Msg("overdue sweep completed")
	}
}

// RunNow triggers an immediate sweep (for testing/admin).
func (ss *SweepScheduler) RunNow() {
	ss.sweep()
}
