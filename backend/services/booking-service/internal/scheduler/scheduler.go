// Package scheduler arms the per-booking delayed checks: the no-show check
// after scheduled end and the late-arrival detection with its periodic fee
// accrual. Every timer is cancellable, and a tick that fires while the
// booking is being started or cancelled re-checks state through the hooks
// and self-disarms instead of mutating stale state.
package scheduler

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Defaults matching the production policy.
const (
	DefaultLateArrivalDelay = 50 * time.Second
	DefaultLateFeeInterval  = 60 * time.Second
	DefaultNoShowGrace      = 5 * time.Minute
)

// Config tunes the delays; zero fields fall back to defaults. Tests shrink
// these to keep wall-clock time down.
type Config struct {
	LateArrivalDelay time.Duration
	LateFeeInterval  time.Duration
	NoShowGrace      time.Duration
	LateFeePerTick   decimal.Decimal
}

// Hooks is implemented by the orchestrator. Each hook checks booking state
// under its own locking and reports whether the timer should stay armed.
type Hooks interface {
	// HandleNoShow force-closes a booking whose session never started.
	HandleNoShow(bookingID string)
	// MarkLateArrival flags the booking; false means the booking already
	// started or was cancelled and the periodic accrual must not begin.
	MarkLateArrival(bookingID string, detectedAt time.Time) bool
	// AccrueLateFee adds one tick's fee; false disarms the periodic accrual.
	AccrueLateFee(bookingID string, amount decimal.Decimal) bool
}

// Window describes the live late-arrival countdown.
type Window struct {
	HasTimer         bool
	ElapsedSeconds   int64
	RemainingSeconds int64
}

type entry struct {
	armedAt      time.Time
	lateDeadline time.Time
	noShow       *time.Timer
	late         *time.Timer
	stop         chan struct{}
	stopped      bool
}

// Scheduler owns all armed booking timers.
type Scheduler struct {
	mu      sync.Mutex
	cfg     Config
	hooks   Hooks
	logger  *zap.Logger
	entries map[string]*entry
}

// New builds a scheduler with defaults applied.
func New(cfg Config, hooks Hooks, logger *zap.Logger) *Scheduler {
	if cfg.LateArrivalDelay <= 0 {
		cfg.LateArrivalDelay = DefaultLateArrivalDelay
	}
	if cfg.LateFeeInterval <= 0 {
		cfg.LateFeeInterval = DefaultLateFeeInterval
	}
	if cfg.NoShowGrace <= 0 {
		cfg.NoShowGrace = DefaultNoShowGrace
	}
	if cfg.LateFeePerTick.IsZero() {
		cfg.LateFeePerTick = decimal.NewFromInt(5)
	}
	return &Scheduler{
		cfg:     cfg,
		hooks:   hooks,
		logger:  logger,
		entries: make(map[string]*entry),
	}
}

// Arm schedules both checks for a freshly created booking. The no-show check
// fires at scheduled end + grace; the late-arrival check fires a fixed short
// delay after creation regardless of the slot.
func (s *Scheduler) Arm(bookingID string, slotEnd time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	e := &entry{
		armedAt:      now,
		lateDeadline: now.Add(s.cfg.LateArrivalDelay),
		stop:         make(chan struct{}),
	}
	s.entries[bookingID] = e

	if delay := time.Until(slotEnd.Add(s.cfg.NoShowGrace)); delay > 0 {
		e.noShow = time.AfterFunc(delay, func() {
			s.onNoShow(bookingID)
		})
	}
	e.late = time.AfterFunc(s.cfg.LateArrivalDelay, func() {
		s.onLateArrival(bookingID)
	})

	s.logger.Debug("booking timers armed", zap.String("booking_id", bookingID))
}

// Rearm moves the no-show deadline after a slot change. The late-arrival
// window is left alone; only the first-created window counts.
func (s *Scheduler) Rearm(bookingID string, slotEnd time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[bookingID]
	if !ok || e.stopped {
		return
	}
	if e.noShow != nil {
		e.noShow.Stop()
		e.noShow = nil
	}
	if delay := time.Until(slotEnd.Add(s.cfg.NoShowGrace)); delay > 0 {
		e.noShow = time.AfterFunc(delay, func() {
			s.onNoShow(bookingID)
		})
	}
}

// Disarm cancels every timer for the booking. Safe to race with in-flight
// ticks: they observe the stop channel or the hook result and no-op.
func (s *Scheduler) Disarm(bookingID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[bookingID]
	if !ok {
		return
	}
	if !e.stopped {
		e.stopped = true
		close(e.stop)
	}
	if e.noShow != nil {
		e.noShow.Stop()
	}
	if e.late != nil {
		e.late.Stop()
	}
	delete(s.entries, bookingID)
}

// LateWindow reports the live late-arrival countdown for a booking, valid
// only while the initial grace window is still open.
func (s *Scheduler) LateWindow(bookingID string) Window {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[bookingID]
	now := time.Now()
	if !ok || e.stopped || !now.Before(e.lateDeadline) {
		return Window{}
	}
	return Window{
		HasTimer:         true,
		ElapsedSeconds:   int64(now.Sub(e.armedAt).Seconds()),
		RemainingSeconds: int64(e.lateDeadline.Sub(now).Seconds()),
	}
}

func (s *Scheduler) onNoShow(bookingID string) {
	s.mu.Lock()
	e, ok := s.entries[bookingID]
	if !ok || e.stopped {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	s.hooks.HandleNoShow(bookingID)
}

func (s *Scheduler) onLateArrival(bookingID string) {
	s.mu.Lock()
	e, ok := s.entries[bookingID]
	if !ok || e.stopped {
		s.mu.Unlock()
		return
	}
	stop := e.stop
	s.mu.Unlock()

	if !s.hooks.MarkLateArrival(bookingID, time.Now()) {
		return
	}

	s.logger.Info("late arrival detected, starting fee accrual",
		zap.String("booking_id", bookingID),
	)

	// First fee tick lands one full interval after detection, then repeats
	// until the hook reports the booking started or was cancelled.
	go func() {
		ticker := time.NewTicker(s.cfg.LateFeeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if !s.hooks.AccrueLateFee(bookingID, s.cfg.LateFeePerTick) {
					return
				}
			}
		}
	}()
}
