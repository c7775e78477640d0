/*
scheduler.go - Automated journey auto-close scheduler

PURPOSE:
  Periodically scans for journeys left open past the configured maximum
  shift duration and force-closes them through the same state machine the
  live request path uses, then emits a closure notification.

DESIGN:
  - Runs a background goroutine with a configurable sweep interval
  - The forced-close timestamp is entry + max duration, NOT "now": the
    close time reflects the configured shift length, not scan latency,
    so worked hours equal exactly the shift length on auto-close. When
    an event was recorded after that instant, the close is clamped to
    the last event's timestamp to keep the sequence monotonic
  - Per-journey errors are isolated: log, count, continue the sweep
  - Conflicts with a concurrent manual clock-out are resolved entirely by
    the store's compare-and-swap; whichever writer wins determines the
    terminal state, and the loser reloads and discards
  - Overlapping ticks skip (in-flight guard) purely as a resource-use
    optimization - correctness never depends on it

CONFIGURATION:
  - SweepInterval: how often to scan (default: 1 hour)
  - MaxShiftDuration: open time before forced close (default: 8 hours)
  - Enabled: whether the scheduler is active (default: true)

USAGE:
  scheduler := NewAutoCloseScheduler(store, directory, notifier, metrics)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - journey/machine.go: ForcedExit transition
  - journey/store.go: Compare-and-swap contract
  - notify.go: Closure notification payload
*/
package api

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dorodrig/journey-engine/journey"
)

// casRetries bounds reload-and-retry attempts per journey per sweep.
const casRetries = 3

// AutoCloseScheduler force-closes journeys left open past MaxShiftDuration.
type AutoCloseScheduler struct {
	Store            journey.Store
	Directory        journey.Directory
	Notifier         Notifier
	Metrics          *Metrics
	SweepInterval    time.Duration
	MaxShiftDuration time.Duration
	Enabled          bool

	ticker   *time.Ticker
	stop     chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	sweeping atomic.Bool
}

// NewAutoCloseScheduler creates a scheduler with default intervals.
func NewAutoCloseScheduler(store journey.Store, directory journey.Directory, notifier Notifier, metrics *Metrics) *AutoCloseScheduler {
	return &AutoCloseScheduler{
		Store:            store,
		Directory:        directory,
		Notifier:         notifier,
		Metrics:          metrics,
		SweepInterval:    1 * time.Hour,
		MaxShiftDuration: 8 * time.Hour,
		Enabled:          true,
		stop:             make(chan struct{}),
	}
}

// Start begins the scheduler.
func (s *AutoCloseScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}

	s.ticker = time.NewTicker(s.SweepInterval)
	s.wg.Add(1)

	go s.run()

	log.Printf("[Scheduler] Started: sweep every %v, max shift %v", s.SweepInterval, s.MaxShiftDuration)
}

// Stop stops the scheduler and waits for an in-flight sweep to finish.
func (s *AutoCloseScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker != nil {
		s.ticker.Stop()
		close(s.stop)
		s.wg.Wait()
		log.Println("[Scheduler] Stopped")
	}
}

func (s *AutoCloseScheduler) run() {
	defer s.wg.Done()

	// Run immediately on start
	s.Sweep(context.Background(), time.Now())

	for {
		select {
		case <-s.ticker.C:
			s.Sweep(context.Background(), time.Now())
		case <-s.stop:
			return
		}
	}
}

// Sweep force-closes every open journey whose entry is at least
// MaxShiftDuration before now. Safe to run concurrently with itself and
// with the live path; overlapping invocations simply skip.
func (s *AutoCloseScheduler) Sweep(ctx context.Context, now time.Time) {
	if !s.sweeping.CompareAndSwap(false, true) {
		log.Println("[Scheduler] Previous sweep still in flight, skipping tick")
		return
	}
	defer s.sweeping.Store(false)

	start := time.Now()
	if s.Metrics != nil {
		s.Metrics.SweepsTotal.Inc()
		defer func() { s.Metrics.SweepDuration.Observe(time.Since(start).Seconds()) }()
	}

	cutoff := now.Add(-s.MaxShiftDuration)
	candidates, err := s.Store.ListOpenSince(ctx, cutoff)
	if err != nil {
		log.Printf("[Scheduler] Error listing open journeys: %v", err)
		return
	}

	closed := 0
	skipped := 0
	for _, j := range candidates {
		err := s.closeJourney(ctx, j)
		switch {
		case err == nil:
			closed++
		case errors.Is(err, journey.ErrAlreadyTerminal):
			// Lost the race to a manual clock-out; nothing to do.
			skipped++
		default:
			if s.Metrics != nil {
				s.Metrics.SweepErrors.Inc()
			}
			log.Printf("[Scheduler] Error closing journey for %s on %s: %v",
				j.EmployeeID, journey.DateKey(j.Date), err)
		}
	}

	if closed > 0 || skipped > 0 {
		log.Printf("[Scheduler] Sweep completed: %d closed, %d lost to manual exit", closed, skipped)
	}
}

// closeJourney applies a ForcedExit through the state machine and persists
// it via compare-and-swap, retrying on conflict a bounded number of times.
func (s *AutoCloseScheduler) closeJourney(ctx context.Context, j journey.Journey) error {
	threshold := decimal.NewFromFloat(s.MaxShiftDuration.Hours())

	for attempt := 0; ; attempt++ {
		entry, ok := j.EntryTime()
		if !ok {
			return nil // never started, not a candidate
		}

		// Close at entry + threshold so the recorded shift length is the
		// configured maximum regardless of when the sweep actually ran.
		// Never behind the journey's clock, though: an event recorded past
		// the threshold instant (say, a break started in overtime) would
		// make that timestamp non-monotonic and the close would be rejected
		// on every sweep. Clamp to the last recorded event in that case.
		closeAt := entry.Add(s.MaxShiftDuration)
		if n := len(j.Events); n > 0 && j.Events[n-1].Timestamp.After(closeAt) {
			closeAt = j.Events[n-1].Timestamp
		}
		ev := journey.JourneyEvent{
			Kind:      journey.EventForcedExit,
			Timestamp: closeAt,
		}

		updated, err := journey.Apply(j, ev, threshold)
		if err != nil {
			return err
		}

		err = s.Store.CompareAndSwap(ctx, updated)
		if err == nil {
			if s.Metrics != nil {
				s.Metrics.JourneysClosed.Inc()
			}
			s.notify(ctx, updated)
			return nil
		}

		if !errors.Is(err, journey.ErrVersionConflict) {
			return err
		}
		if s.Metrics != nil {
			s.Metrics.SweepConflicts.Inc()
		}
		if attempt+1 >= casRetries {
			return err
		}

		// Reload and re-check: the conflict may have been the manual Exit
		// winning, in which case the journey is terminal and we discard.
		j, err = s.Store.Get(ctx, j.EmployeeID, j.Date)
		if err != nil {
			return err
		}
		if j.Status.IsTerminal() {
			return journey.ErrAlreadyTerminal
		}
	}
}

func (s *AutoCloseScheduler) notify(ctx context.Context, j journey.Journey) {
	emp, err := s.Directory.GetEmployee(ctx, j.EmployeeID)
	if err != nil {
		log.Printf("[Scheduler] Closed journey for unknown employee %s: %v", j.EmployeeID, err)
		emp = journey.Employee{ID: j.EmployeeID}
	}

	if err := s.Notifier.NotifyClosure(ctx, buildClosureNotification(emp, j)); err != nil {
		// Delivery is out-of-band and best-effort; the close itself stands.
		log.Printf("[Scheduler] Notification failed for %s: %v", j.EmployeeID, err)
	}
}

// RunNow triggers an immediate sweep (for testing/admin).
func (s *AutoCloseScheduler) RunNow() {
	s.Sweep(context.Background(), time.Now())
}
