package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Session status values reported via telemetry.
const (
	SessionInProgress    = "in_progress"
	SessionCompleted     = "completed"
	SessionAutoCompleted = "auto_completed"
)

// DefaultEnergyPerSecond is the simulated delivery rate in kWh per second.
const DefaultEnergyPerSecond = 0.01

// StartResult is returned when accrual begins.
type StartResult struct {
	SessionID string
	StartedAt time.Time
}

// StopResult is the terminal snapshot of a stopped session.
type StopResult struct {
	SessionID       string
	SessionEnergy   float64
	TotalEnergy     float64
	DurationSeconds int64
	Timestamp       time.Time
}

// TimerStatus is the live/terminal elapsed view for a charger.
type TimerStatus struct {
	Running        bool
	Completed      bool
	ElapsedSeconds int64
}

// Telemetry is the per-session view, looked up by session identity so it
// survives charger reuse.
type Telemetry struct {
	SessionID       string
	ChargerID       string
	BookingID       string
	EnergyDelivered float64
	DurationSeconds int64
	Status          string
	Timestamp       time.Time
}

type liveSession struct {
	sessionID string
	bookingID string
	startedAt time.Time
	deadline  *time.Timer
}

type sessionRecord struct {
	chargerID       string
	bookingID       string
	startedAt       time.Time
	status          string
	energy          float64
	durationSeconds int64
	completedAt     time.Time
}

type completedTimer struct {
	sessionID      string
	elapsedSeconds int64
	completedAt    time.Time
	sessionEnergy  float64
	autoCompleted  bool
}

// AccrualEngine simulates continuous energy delivery for live sessions.
// Energy is a linear function of elapsed wall-clock time, recomputed from the
// stored start timestamp rather than an incremented counter, so a paused
// process still reports correct totals.
type AccrualEngine struct {
	mu           sync.Mutex
	energyPerSec float64
	logger       *zap.Logger

	// onAutoComplete is invoked fire-and-forget after a session hits its
	// booked duration; the local terminal state is authoritative either way.
	onAutoComplete func(bookingID, sessionID string)

	active    map[string]*liveSession   // by charger id
	completed map[string]completedTimer // by charger id, cleared on next start
	totals    map[string]float64        // cumulative kWh by charger id
	sessions  map[string]*sessionRecord // by session id
}

// NewAccrualEngine builds the engine. Rate <= 0 falls back to the default.
func NewAccrualEngine(energyPerSec float64, onAutoComplete func(bookingID, sessionID string), logger *zap.Logger) *AccrualEngine {
	if energyPerSec <= 0 {
		energyPerSec = DefaultEnergyPerSecond
	}
	return &AccrualEngine{
		energyPerSec:   energyPerSec,
		logger:         logger,
		onAutoComplete: onAutoComplete,
		active:         make(map[string]*liveSession),
		completed:      make(map[string]completedTimer),
		totals:         make(map[string]float64),
		sessions:       make(map[string]*sessionRecord),
	}
}

// Start begins accrual for the charger. Exactly one concurrent caller wins;
// the rest fail with ErrAlreadyRunning. A positive bookedDuration arms
// auto-termination at start + bookedDuration.
func (e *AccrualEngine) Start(chargerID, bookingID string, bookedDuration time.Duration) (StartResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.active[chargerID]; ok {
		return StartResult{}, fmt.Errorf("charger %s: %w", chargerID, ErrAlreadyRunning)
	}

	// Previous terminal snapshot is only retained until a new session starts.
	delete(e.completed, chargerID)

	sessionID := bookingID
	if sessionID == "" {
		sessionID = "SESSION-" + uuid.NewString()[:8]
	}

	now := time.Now()
	ls := &liveSession{
		sessionID: sessionID,
		bookingID: bookingID,
		startedAt: now,
	}
	e.active[chargerID] = ls
	e.sessions[sessionID] = &sessionRecord{
		chargerID: chargerID,
		bookingID: bookingID,
		startedAt: now,
		status:    SessionInProgress,
	}

	if bookedDuration > 0 {
		ls.deadline = time.AfterFunc(bookedDuration, func() {
			e.autoComplete(chargerID, sessionID)
		})
	}

	e.logger.Info("accrual started",
		zap.String("charger_id", chargerID),
		zap.String("booking_id", bookingID),
		zap.String("session_id", sessionID),
	)
	return StartResult{SessionID: sessionID, StartedAt: now}, nil
}

// ExtendDeadline re-arms the auto-termination deadline of the live session on
// the charger, measured from its original start. A hold re-applied while a
// session runs lengthens the booked window, so the deadline armed at start no
// longer applies. No live session or a non-positive duration is a no-op.
func (e *AccrualEngine) ExtendDeadline(chargerID string, bookedDuration time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ls, ok := e.active[chargerID]
	if !ok || bookedDuration <= 0 {
		return
	}
	if ls.deadline != nil {
		ls.deadline.Stop()
	}
	remaining := bookedDuration - time.Since(ls.startedAt)
	if remaining < 0 {
		remaining = 0
	}
	sessionID := ls.sessionID
	ls.deadline = time.AfterFunc(remaining, func() {
		e.autoComplete(chargerID, sessionID)
	})

	e.logger.Info("auto-termination deadline re-armed",
		zap.String("charger_id", chargerID),
		zap.String("session_id", sessionID),
		zap.Duration("remaining", remaining),
	)
}

// Stop terminates the live session and returns the terminal snapshot.
func (e *AccrualEngine) Stop(chargerID string) (StopResult, error) {
	e.mu.Lock()
	ls, ok := e.active[chargerID]
	if !ok {
		e.mu.Unlock()
		return StopResult{}, fmt.Errorf("charger %s: %w", chargerID, ErrNotRunning)
	}
	if ls.deadline != nil {
		ls.deadline.Stop()
	}
	result := e.finalizeLocked(chargerID, ls, SessionCompleted, time.Now())
	e.mu.Unlock()

	e.logger.Info("accrual stopped",
		zap.String("charger_id", chargerID),
		zap.String("session_id", result.SessionID),
		zap.Float64("session_energy_kwh", result.SessionEnergy),
		zap.Int64("duration_seconds", result.DurationSeconds),
	)
	return result, nil
}

// autoComplete fires at the booked-duration deadline. A stale timer that
// lost the race against Stop observes a missing or replaced session and
// self-disarms.
func (e *AccrualEngine) autoComplete(chargerID, sessionID string) {
	e.mu.Lock()
	ls, ok := e.active[chargerID]
	if !ok || ls.sessionID != sessionID {
		e.mu.Unlock()
		return
	}
	result := e.finalizeLocked(chargerID, ls, SessionAutoCompleted, time.Now())
	bookingID := ls.bookingID
	e.mu.Unlock()

	e.logger.Info("session auto-completed, booked duration reached",
		zap.String("charger_id", chargerID),
		zap.String("session_id", sessionID),
		zap.Float64("session_energy_kwh", result.SessionEnergy),
	)

	if e.onAutoComplete != nil {
		go e.onAutoComplete(bookingID, sessionID)
	}
}

// finalizeLocked records the terminal snapshot and bumps the cumulative
// charger counter by exactly the session's delivered energy. Caller holds mu.
func (e *AccrualEngine) finalizeLocked(chargerID string, ls *liveSession, status string, now time.Time) StopResult {
	elapsed := now.Sub(ls.startedAt)
	energy := elapsed.Seconds() * e.energyPerSec
	seconds := int64(elapsed.Seconds())

	e.totals[chargerID] += energy
	e.completed[chargerID] = completedTimer{
		sessionID:      ls.sessionID,
		elapsedSeconds: seconds,
		completedAt:    now,
		sessionEnergy:  energy,
		autoCompleted:  status == SessionAutoCompleted,
	}
	if rec, ok := e.sessions[ls.sessionID]; ok {
		rec.status = status
		rec.energy = energy
		rec.durationSeconds = seconds
		rec.completedAt = now
	}
	delete(e.active, chargerID)

	return StopResult{
		SessionID:       ls.sessionID,
		SessionEnergy:   energy,
		TotalEnergy:     e.totals[chargerID],
		DurationSeconds: seconds,
		Timestamp:       now,
	}
}

// Status returns the live elapsed time, or the retained terminal snapshot so
// late pollers still observe the final duration until a new session starts.
func (e *AccrualEngine) Status(chargerID string) TimerStatus {
	e.mu.Lock()
	defer e.mu.Unlock()

	if ls, ok := e.active[chargerID]; ok {
		return TimerStatus{
			Running:        true,
			ElapsedSeconds: int64(time.Since(ls.startedAt).Seconds()),
		}
	}
	if ct, ok := e.completed[chargerID]; ok {
		return TimerStatus{
			Completed:      true,
			ElapsedSeconds: ct.elapsedSeconds,
		}
	}
	return TimerStatus{}
}

// TotalEnergy returns the cumulative kWh delivered by the charger across all
// terminated sessions.
func (e *AccrualEngine) TotalEnergy(chargerID string) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.totals[chargerID]
}

// SessionTelemetry returns telemetry by session identity, live or terminal.
func (e *AccrualEngine) SessionTelemetry(sessionID string) (Telemetry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rec, ok := e.sessions[sessionID]
	if !ok {
		return Telemetry{}, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}

	tel := Telemetry{
		SessionID: sessionID,
		ChargerID: rec.chargerID,
		BookingID: rec.bookingID,
		Status:    rec.status,
	}
	if rec.status == SessionInProgress {
		elapsed := time.Since(rec.startedAt)
		tel.EnergyDelivered = elapsed.Seconds() * e.energyPerSec
		tel.DurationSeconds = int64(elapsed.Seconds())
		tel.Timestamp = time.Now()
		return tel, nil
	}
	tel.EnergyDelivered = rec.energy
	tel.DurationSeconds = rec.durationSeconds
	tel.Timestamp = rec.completedAt
	return tel, nil
}
