package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"karocharge/backend/services/booking-service/internal/billing"
	"karocharge/backend/services/booking-service/internal/lifecycle"
	"karocharge/backend/services/booking-service/internal/models"
	"karocharge/backend/services/booking-service/internal/registry"
)

// SessionStartResult reports a started charging session.
type SessionStartResult struct {
	BookingID string
	SessionID string
	Status    string
	StartedAt time.Time
}

// SessionStopResult reports a terminated session. Cost is nil for a pre-start
// cancellation, which ends the booking without billing it.
type SessionStopResult struct {
	BookingID        string
	SessionID        string
	Status           string
	EnergyKWh        float64
	DurationSeconds  int64
	LateCancellation bool
	Cost             *billing.Breakdown
}

// StartSession transitions the booking to CHARGING and starts the peer timer.
// OTP verification must have happened first. Concurrent start attempts get
// exactly one winner; the loser sees the session already running.
func (s *BookingService) StartSession(ctx context.Context, bookingID string) (SessionStartResult, error) {
	booking, ok := s.bookings.Get(bookingID)
	if !ok {
		return SessionStartResult{}, fmt.Errorf("booking %s: %w", bookingID, ErrNotFound)
	}

	s.mu.Lock()
	verified := s.verified[bookingID]
	s.mu.Unlock()
	if !verified {
		return SessionStartResult{}, fmt.Errorf("otp not verified for booking %s: %w", bookingID, ErrNotAuthorized)
	}

	machine, ok := s.lifecycles.Get(bookingID)
	if !ok {
		return SessionStartResult{}, fmt.Errorf("booking %s: %w", bookingID, ErrNotFound)
	}
	if err := machine.Fire(lifecycle.EventStartCharging); err != nil {
		if machine.Current() == lifecycle.StatusCharging {
			return SessionStartResult{}, fmt.Errorf("booking %s: %w", bookingID, ErrAlreadyRunning)
		}
		return SessionStartResult{}, fmt.Errorf("booking %s in %s: %w", bookingID, machine.Current(), ErrInvalidState)
	}

	// This goroutine owns the transition from here on. Late and no-show
	// timers are dead for this booking.
	s.sched.Disarm(bookingID)

	startedAt := time.Now()
	sessionID := bookingID
	if err := s.cms.Unblock(ctx, booking.ChargerID, bookingID); err != nil {
		s.logger.Warn("cms unblock failed", zap.String("booking_id", bookingID), zap.Error(err))
	}
	if res, err := s.cms.StartTimer(ctx, booking.ChargerID, bookingID); err != nil {
		// The session is authoritative locally; accrual resumes as best effort.
		s.logger.Warn("cms start-timer failed, continuing with local session",
			zap.String("booking_id", bookingID), zap.Error(err))
	} else {
		sessionID = res.SessionID
		startedAt = res.Timestamp
	}

	s.mu.Lock()
	s.startTimes[bookingID] = startedAt
	s.sessionIDs[bookingID] = sessionID
	s.mu.Unlock()

	_ = s.bookings.Update(bookingID, func(b *models.Booking) error {
		b.Status = lifecycle.StatusCharging
		return nil
	})

	s.logger.Info("session started",
		zap.String("booking_id", bookingID),
		zap.String("session_id", sessionID),
	)
	return SessionStartResult{
		BookingID: bookingID,
		SessionID: sessionID,
		Status:    lifecycle.StatusCharging,
		StartedAt: startedAt,
	}, nil
}

// CompleteSession ends a charging session normally, bills it and frees the
// charger. hasNext keeps the charger blocked for a back-to-back booking.
func (s *BookingService) CompleteSession(ctx context.Context, bookingID string, hasNext bool) (SessionStopResult, error) {
	booking, ok := s.bookings.Get(bookingID)
	if !ok {
		return SessionStopResult{}, fmt.Errorf("booking %s: %w", bookingID, ErrNotFound)
	}
	machine, ok := s.lifecycles.Get(bookingID)
	if !ok {
		return SessionStopResult{}, fmt.Errorf("booking %s: %w", bookingID, ErrNotFound)
	}
	if err := machine.Fire(lifecycle.EventComplete); err != nil {
		return SessionStopResult{}, fmt.Errorf("booking %s in %s: %w", bookingID, machine.Current(), ErrInvalidState)
	}

	energy, duration := s.stopTimer(ctx, booking.ChargerID, bookingID)
	return s.finishSession(ctx, booking, lifecycle.StatusCompleted, "", energy, duration, hasNext)
}

// AutoCompleteSession handles the peer's notification that the timer expired.
// A repeat notification for an already terminal booking is rejected.
func (s *BookingService) AutoCompleteSession(ctx context.Context, bookingID, sessionID string) (SessionStopResult, error) {
	booking, ok := s.bookings.Get(bookingID)
	if !ok {
		return SessionStopResult{}, fmt.Errorf("booking %s: %w", bookingID, ErrNotFound)
	}
	machine, ok := s.lifecycles.Get(bookingID)
	if !ok {
		return SessionStopResult{}, fmt.Errorf("booking %s: %w", bookingID, ErrNotFound)
	}
	if err := machine.Fire(lifecycle.EventComplete); err != nil {
		return SessionStopResult{}, fmt.Errorf("booking %s in %s: %w", bookingID, machine.Current(), ErrInvalidState)
	}

	var energy float64
	var duration int64
	if tel, err := s.cms.SessionTelemetry(ctx, sessionID); err != nil {
		s.logger.Warn("cms telemetry unavailable on auto-complete",
			zap.String("booking_id", bookingID), zap.Error(err))
		// Fall back to the booked window; accrual ran to its full length.
		energy = 0
		duration = int64(booking.BookedDuration().Seconds())
	} else {
		energy = tel.EnergyDelivered
		duration = tel.DurationSeconds
	}

	s.logger.Info("session auto-completed",
		zap.String("booking_id", bookingID),
		zap.String("session_id", sessionID),
	)
	return s.finishSession(ctx, booking, lifecycle.StatusCompleted, "", energy, duration, false)
}

// CancelBooking cancels before the session starts. The no-show and late
// timers are disarmed and the charger is freed. Nothing is billed; a
// cancellation within the hour before the slot only sets the late flag.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID, actor string) (SessionStopResult, error) {
	booking, ok := s.bookings.Get(bookingID)
	if !ok {
		return SessionStopResult{}, fmt.Errorf("booking %s: %w", bookingID, ErrNotFound)
	}
	machine, ok := s.lifecycles.Get(bookingID)
	if !ok {
		return SessionStopResult{}, fmt.Errorf("booking %s: %w", bookingID, ErrNotFound)
	}
	if err := machine.Fire(lifecycle.EventCancel); err != nil {
		return SessionStopResult{}, fmt.Errorf("booking %s in %s: %w", bookingID, machine.Current(), ErrInvalidState)
	}

	s.sched.Disarm(bookingID)
	s.otp.Clear(bookingID)

	cancelledBy := normalizeActor(actor)
	now := time.Now()
	lateCancellation := false
	if slotStart, err := booking.SlotStart(); err == nil {
		if until := slotStart.Sub(now); until > 0 && until <= lateCancellationWindow {
			lateCancellation = true
			s.logger.Info("late cancellation",
				zap.String("booking_id", bookingID),
				zap.Duration("before_start", until),
			)
		}
	}

	_ = s.bookings.Update(bookingID, func(b *models.Booking) error {
		b.Status = lifecycle.StatusCancelled
		b.CancelledBy = cancelledBy
		b.CancelledAt = &now
		b.LateCancellation = lateCancellation
		return nil
	})

	_ = s.chargers.Update(booking.ChargerID, func(c *models.Charger) error {
		c.Status = models.ChargerAvailable
		return nil
	})

	if err := s.cms.Unblock(ctx, booking.ChargerID, bookingID); err != nil {
		s.logger.Warn("cms unblock failed on cancel",
			zap.String("booking_id", bookingID), zap.Error(err))
	}

	s.logger.Info("booking cancelled",
		zap.String("booking_id", bookingID),
		zap.String("cancelled_by", cancelledBy),
	)
	return SessionStopResult{
		BookingID:        bookingID,
		Status:           lifecycle.StatusCancelled,
		LateCancellation: lateCancellation,
	}, nil
}

// CancelSession cancels a session that is already charging. Usage so far is
// billed along with the early-cancellation fee for the unused remainder.
func (s *BookingService) CancelSession(ctx context.Context, bookingID, actor string) (SessionStopResult, error) {
	booking, ok := s.bookings.Get(bookingID)
	if !ok {
		return SessionStopResult{}, fmt.Errorf("booking %s: %w", bookingID, ErrNotFound)
	}
	machine, ok := s.lifecycles.Get(bookingID)
	if !ok {
		return SessionStopResult{}, fmt.Errorf("booking %s: %w", bookingID, ErrNotFound)
	}
	if err := machine.Fire(lifecycle.EventCancelInProgress); err != nil {
		return SessionStopResult{}, fmt.Errorf("booking %s in %s: %w", bookingID, machine.Current(), ErrInvalidState)
	}

	cancelledBy := normalizeActor(actor)
	now := time.Now()
	_ = s.bookings.Update(bookingID, func(b *models.Booking) error {
		b.CancelledBy = cancelledBy
		b.CancelledAt = &now
		return nil
	})

	energy, duration := s.stopTimer(ctx, booking.ChargerID, bookingID)
	return s.finishSession(ctx, booking, lifecycle.StatusCancelledInProgress, cancelledBy, energy, duration, false)
}

// ExtendBookingInput carries the slot changes; empty date or start time keep
// the current value.
type ExtendBookingInput struct {
	Date            string
	StartTime       string
	AdditionalHours float64
}

// ExtendBooking reschedules or lengthens the booked slot. A confirmed booking
// also gets its no-show deadline moved; an in-progress one re-applies the peer
// hold, which moves the running session's auto-termination deadline.
func (s *BookingService) ExtendBooking(ctx context.Context, bookingID string, in ExtendBookingInput) (models.Booking, error) {
	if in.AdditionalHours < 0 {
		return models.Booking{}, fmt.Errorf("%w: additional hours must not be negative", ErrValidation)
	}
	if in.AdditionalHours == 0 && in.Date == "" && in.StartTime == "" {
		return models.Booking{}, fmt.Errorf("%w: nothing to change", ErrValidation)
	}
	machine, ok := s.lifecycles.Get(bookingID)
	if !ok {
		return models.Booking{}, fmt.Errorf("booking %s: %w", bookingID, ErrNotFound)
	}
	state := machine.Current()
	if state != lifecycle.StatusConfirmed && state != lifecycle.StatusCharging {
		return models.Booking{}, fmt.Errorf("booking %s in %s: %w", bookingID, state, ErrInvalidState)
	}

	if err := s.bookings.Update(bookingID, func(b *models.Booking) error {
		date, startTime := b.Date, b.StartTime
		if in.Date != "" {
			date = in.Date
		}
		if in.StartTime != "" {
			startTime = in.StartTime
		}
		if _, err := models.ParseSlotStart(date, startTime); err != nil {
			return fmt.Errorf("%w: %v", ErrValidation, err)
		}
		b.Date = date
		b.StartTime = startTime
		b.SlotDurationHours += in.AdditionalHours
		return nil
	}); err != nil {
		if err == registry.ErrNotFound {
			return models.Booking{}, fmt.Errorf("booking %s: %w", bookingID, ErrNotFound)
		}
		return models.Booking{}, err
	}
	booking, _ := s.bookings.Get(bookingID)

	_ = s.chargers.Update(booking.ChargerID, func(c *models.Charger) error {
		c.Date = booking.Date
		c.StartTime = booking.StartTime
		c.SlotDurationHours = booking.SlotDurationHours
		return nil
	})

	if slotStart, err := booking.SlotStart(); err == nil {
		if err := s.cms.Block(ctx, booking.ChargerID, bookingID, slotStart, booking.SlotDurationHours); err != nil {
			s.logger.Warn("cms re-block failed on extension",
				zap.String("booking_id", bookingID), zap.Error(err))
		}
		if state == lifecycle.StatusConfirmed {
			s.sched.Rearm(bookingID, slotStart.Add(booking.BookedDuration()))
		}
	}

	s.logger.Info("booking extended",
		zap.String("booking_id", bookingID),
		zap.Float64("additional_hours", in.AdditionalHours),
		zap.Float64("slot_duration_hours", booking.SlotDurationHours),
	)
	return booking, nil
}

// SessionSummary resolves a session or booking identity to the booking with
// its cost and, when reachable, live peer telemetry.
type SessionSummary struct {
	Booking   models.Booking
	SessionID string
	Telemetry *TelemetryResult
}

// Summary looks the identity up as a session first, then as a booking.
func (s *BookingService) Summary(ctx context.Context, id string) (SessionSummary, error) {
	bookingID := id
	s.mu.Lock()
	for bID, sID := range s.sessionIDs {
		if sID == id {
			bookingID = bID
			break
		}
	}
	sessionID := s.sessionIDs[bookingID]
	s.mu.Unlock()

	booking, ok := s.bookings.Get(bookingID)
	if !ok {
		return SessionSummary{}, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}

	summary := SessionSummary{Booking: booking, SessionID: sessionID}
	if sessionID != "" {
		if tel, err := s.cms.SessionTelemetry(ctx, sessionID); err == nil {
			summary.Telemetry = &tel
		} else if !errors.Is(err, ErrNotFound) {
			s.logger.Warn("cms telemetry unavailable for summary",
				zap.String("session_id", sessionID), zap.Error(err))
		}
	}
	return summary, nil
}

// ComputeCost runs the billing engine on caller-supplied figures without
// touching any booking.
func (s *BookingService) ComputeCost(in billing.Input) billing.Breakdown {
	return s.policy.Compute(in)
}

// HandleNoShow force-closes a booking whose driver never started. Losing the
// race against a concurrent start or cancel is fine; the transition rejects.
func (s *BookingService) HandleNoShow(bookingID string) {
	machine, ok := s.lifecycles.Get(bookingID)
	if !ok {
		return
	}
	if err := machine.Fire(lifecycle.EventMarkNoShow); err != nil {
		s.logger.Debug("no-show check lost the race",
			zap.String("booking_id", bookingID),
			zap.String("state", machine.Current()),
		)
		return
	}

	booking, ok := s.bookings.Get(bookingID)
	if !ok {
		return
	}
	s.otp.Clear(bookingID)
	s.sched.Disarm(bookingID)

	s.logger.Info("booking marked no-show", zap.String("booking_id", bookingID))
	if _, err := s.finishSession(context.Background(), booking, lifecycle.StatusNoShow, "", 0, 0, false); err != nil {
		s.logger.Warn("no-show close-out failed", zap.String("booking_id", bookingID), zap.Error(err))
	}
}

// MarkLateArrival flags the booking when the grace window closes without a
// session start.
func (s *BookingService) MarkLateArrival(bookingID string, detectedAt time.Time) bool {
	machine, ok := s.lifecycles.Get(bookingID)
	if !ok || machine.Current() != lifecycle.StatusConfirmed {
		return false
	}
	_ = s.bookings.Update(bookingID, func(b *models.Booking) error {
		b.LateArrival = true
		b.LateArrivalAt = &detectedAt
		return nil
	})
	s.logger.Info("late arrival flagged", zap.String("booking_id", bookingID))
	return true
}

// AccrueLateFee adds one periodic fee tick while the booking stays confirmed.
func (s *BookingService) AccrueLateFee(bookingID string, amount decimal.Decimal) bool {
	machine, ok := s.lifecycles.Get(bookingID)
	if !ok || machine.Current() != lifecycle.StatusConfirmed {
		return false
	}
	_ = s.bookings.Update(bookingID, func(b *models.Booking) error {
		b.LateArrivalFee = b.LateArrivalFee.Add(amount)
		return nil
	})
	return true
}

// stopTimer stops the peer accrual, falling back to zero telemetry when the
// peer cannot be reached. Billing then charges only the time-based items.
func (s *BookingService) stopTimer(ctx context.Context, chargerID, bookingID string) (energy float64, duration int64) {
	res, err := s.cms.StopTimer(ctx, chargerID, bookingID)
	if err != nil {
		s.logger.Warn("cms stop-timer failed, billing without telemetry",
			zap.String("booking_id", bookingID), zap.Error(err))
		return 0, 0
	}
	return res.SessionEnergy, res.DurationSeconds
}

// finishSession is the shared close-out: compute the cost, persist it on the
// booking, settle charger state and release the peer hold.
func (s *BookingService) finishSession(ctx context.Context, booking models.Booking, status, cancelledBy string, energy float64, duration int64, hasNext bool) (SessionStopResult, error) {
	bookingID := booking.BookingID

	s.mu.Lock()
	sessionID := s.sessionIDs[bookingID]
	startedAt, hasStart := s.startTimes[bookingID]
	s.mu.Unlock()

	cost := s.computeCost(booking, cancelledBy, energy, float64(duration), startedAt, hasStart)

	_ = s.bookings.Update(bookingID, func(b *models.Booking) error {
		b.Status = status
		b.SessionCost = &cost
		if b.PaymentStatus == "" {
			b.PaymentStatus = models.PaymentPending
		}
		return nil
	})

	_ = s.chargers.Update(booking.ChargerID, func(c *models.Charger) error {
		c.TotalEnergy += energy
		if hasNext {
			c.Status = models.ChargerBooked
		} else {
			c.Status = models.ChargerAvailable
		}
		return nil
	})

	if !hasNext {
		if err := s.cms.Unblock(ctx, booking.ChargerID, bookingID); err != nil {
			s.logger.Warn("cms unblock failed on close-out",
				zap.String("booking_id", bookingID), zap.Error(err))
		}
	}

	s.logger.Info("session closed",
		zap.String("booking_id", bookingID),
		zap.String("status", status),
		zap.Float64("energy_kwh", energy),
	)
	return SessionStopResult{
		BookingID:       bookingID,
		SessionID:       sessionID,
		Status:          status,
		EnergyKWh:       energy,
		DurationSeconds: duration,
		Cost:            &cost,
	}, nil
}

// computeCost assembles the billing input from booking state. The scheduled
// start falling out of parsing errors degrades to the zero time, which only
// weakens the fallback late-fee estimate.
func (s *BookingService) computeCost(booking models.Booking, cancelledBy string, energy, durationSeconds float64, startedAt time.Time, hasStart bool) billing.Breakdown {
	scheduledStart, err := booking.SlotStart()
	if err != nil {
		s.logger.Warn("unparseable slot on billing",
			zap.String("booking_id", booking.BookingID), zap.Error(err))
	}

	connector := ""
	if charger, ok := s.chargers.Get(booking.ChargerID); ok {
		connector = charger.Connector
	}

	in := billing.Input{
		Connector:       connector,
		BookedHours:     booking.SlotDurationHours,
		ScheduledStart:  scheduledStart,
		EnergyKWh:       energy,
		DurationSeconds: durationSeconds,
		AccruedLateFee:  booking.LateArrivalFee,
		CancelledBy:     cancelledBy,
	}
	if hasStart {
		start := startedAt
		end := start.Add(time.Duration(durationSeconds * float64(time.Second)))
		in.ActualStart = &start
		in.ActualEnd = &end
	}
	return s.policy.Compute(in)
}
