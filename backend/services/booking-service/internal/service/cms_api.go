package service

import (
	"context"
	"time"
)

// Session telemetry status values reported by the CMS.
const (
	TelemetryInProgress    = "in_progress"
	TelemetryCompleted     = "completed"
	TelemetryAutoCompleted = "auto_completed"
)

// StartTimerResult is the CMS response to starting accrual.
type StartTimerResult struct {
	SessionID string
	Timestamp time.Time
}

// StopTimerResult is the CMS terminal snapshot of a stopped session.
type StopTimerResult struct {
	SessionID       string
	SessionEnergy   float64
	TotalEnergy     float64
	DurationSeconds int64
	Timestamp       time.Time
}

// TelemetryResult is the per-session CMS telemetry view.
type TelemetryResult struct {
	SessionID       string
	ChargerID       string
	BookingID       string
	EnergyDelivered float64
	DurationSeconds int64
	Status          string
	Timestamp       time.Time
}

// TimerAPI is the orchestrator's view of the CMS timer service. The HTTP
// client implements it; tests substitute a fake.
type TimerAPI interface {
	Block(ctx context.Context, chargerID, bookingID string, scheduledStart time.Time, durationHours float64) error
	Unblock(ctx context.Context, chargerID, bookingID string) error
	StartTimer(ctx context.Context, chargerID, bookingID string) (StartTimerResult, error)
	StopTimer(ctx context.Context, chargerID, bookingID string) (StopTimerResult, error)
	SessionTelemetry(ctx context.Context, sessionID string) (TelemetryResult, error)
}
