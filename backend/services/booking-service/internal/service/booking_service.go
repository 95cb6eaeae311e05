package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"karocharge/backend/services/booking-service/internal/billing"
	"karocharge/backend/services/booking-service/internal/lifecycle"
	"karocharge/backend/services/booking-service/internal/models"
	"karocharge/backend/services/booking-service/internal/registry"
	"karocharge/backend/services/booking-service/internal/scheduler"
)

// Late-cancellation window before scheduled start.
const lateCancellationWindow = 60 * time.Minute

// BookingService orchestrates the booking lifecycle across the charger
// registry, the lifecycle machines, the scheduler, the OTP service and the
// CMS timer service. It is the only component that calls across the service
// boundary.
type BookingService struct {
	chargers   *registry.ChargerStore
	bookings   *registry.BookingStore
	lifecycles *lifecycle.Manager
	otp        *OTPService
	cms        TimerAPI
	policy     billing.Policy
	logger     *zap.Logger

	sched *scheduler.Scheduler

	// Per-booking session tracking, the orchestrator's private state.
	mu         sync.Mutex
	verified   map[string]bool
	startTimes map[string]time.Time
	sessionIDs map[string]string
}

// NewBookingService builds the orchestrator. The scheduler is attached
// afterwards because it needs the service as its hook implementation.
func NewBookingService(
	chargers *registry.ChargerStore,
	bookings *registry.BookingStore,
	lifecycles *lifecycle.Manager,
	otp *OTPService,
	cms TimerAPI,
	policy billing.Policy,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		chargers:   chargers,
		bookings:   bookings,
		lifecycles: lifecycles,
		otp:        otp,
		cms:        cms,
		policy:     policy,
		logger:     logger,
		verified:   make(map[string]bool),
		startTimes: make(map[string]time.Time),
		sessionIDs: make(map[string]string),
	}
}

// AttachScheduler wires the late-arrival/no-show scheduler.
func (s *BookingService) AttachScheduler(sched *scheduler.Scheduler) {
	s.sched = sched
}

// HostChargerInput describes a charger being offered by a host.
type HostChargerInput struct {
	Connector         string
	Address           string
	Date              string
	StartTime         string
	SlotDurationHours float64
}

// HostCharger registers a new charger with an offered slot.
func (s *BookingService) HostCharger(ctx context.Context, in HostChargerInput) (models.Charger, error) {
	slotStart, err := models.ParseSlotStart(in.Date, in.StartTime)
	if err != nil {
		return models.Charger{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if slotStart.Before(time.Now()) {
		return models.Charger{}, fmt.Errorf("%w: cannot host a charger for a past date or time", ErrValidation)
	}
	if in.SlotDurationHours <= 0 {
		return models.Charger{}, fmt.Errorf("%w: slot duration must be positive", ErrValidation)
	}

	charger := models.Charger{
		ChargerID:         "CHG-" + uuid.NewString()[:8],
		Connector:         in.Connector,
		Address:           in.Address,
		Date:              in.Date,
		StartTime:         in.StartTime,
		SlotDurationHours: in.SlotDurationHours,
		Status:            models.ChargerAvailable,
	}
	s.chargers.Add(charger)

	s.logger.Info("charger hosted",
		zap.String("charger_id", charger.ChargerID),
		zap.String("connector", charger.Connector),
	)
	return charger, nil
}

// ListChargers returns all hosted chargers.
func (s *BookingService) ListChargers(ctx context.Context) []models.Charger {
	return s.chargers.List()
}

// GetCharger returns one charger.
func (s *BookingService) GetCharger(ctx context.Context, chargerID string) (models.Charger, error) {
	charger, ok := s.chargers.Get(chargerID)
	if !ok {
		return models.Charger{}, fmt.Errorf("charger %s: %w", chargerID, ErrNotFound)
	}
	return charger, nil
}

// CreateBooking reserves the charger's offered slot. The charger flips to
// BOOKED atomically; concurrent attempts get exactly one winner.
func (s *BookingService) CreateBooking(ctx context.Context, chargerID string) (models.Booking, error) {
	charger, ok := s.chargers.Get(chargerID)
	if !ok {
		return models.Booking{}, fmt.Errorf("charger %s: %w", chargerID, ErrNotFound)
	}

	slotStart, err := models.ParseSlotStart(charger.Date, charger.StartTime)
	if err != nil {
		return models.Booking{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if slotStart.Before(time.Now()) {
		return models.Booking{}, fmt.Errorf("%w: cannot book past slot", ErrValidation)
	}

	if err := s.chargers.Update(chargerID, func(c *models.Charger) error {
		if c.Status == models.ChargerBooked {
			return fmt.Errorf("charger already booked: %w", ErrInvalidState)
		}
		c.Status = models.ChargerBooked
		return nil
	}); err != nil {
		return models.Booking{}, err
	}

	bookingID := "BOOK-" + uuid.NewString()[:8]
	booking := models.Booking{
		BookingID:         bookingID,
		ChargerID:         chargerID,
		Date:              charger.Date,
		StartTime:         charger.StartTime,
		SlotDurationHours: charger.SlotDurationHours,
		Status:            lifecycle.StatusConfirmed,
		LateArrivalFee:    decimal.Zero,
	}
	s.bookings.Add(booking)
	s.lifecycles.Create(bookingID)

	// Best-effort hold on the peer registry; the local reservation is
	// authoritative and reconciliation happens on the next poll.
	if err := s.cms.Block(ctx, chargerID, bookingID, slotStart, charger.SlotDurationHours); err != nil {
		s.logger.Warn("cms block failed", zap.String("booking_id", bookingID), zap.Error(err))
	}

	s.otp.Schedule(bookingID, slotStart)
	s.sched.Arm(bookingID, slotStart.Add(booking.BookedDuration()))

	s.logger.Info("booking created",
		zap.String("booking_id", bookingID),
		zap.String("charger_id", chargerID),
	)
	return booking, nil
}

// GetBooking returns one booking.
func (s *BookingService) GetBooking(ctx context.Context, bookingID string) (models.Booking, error) {
	booking, ok := s.bookings.Get(bookingID)
	if !ok {
		return models.Booking{}, fmt.Errorf("booking %s: %w", bookingID, ErrNotFound)
	}
	return booking, nil
}

// BookingsByCharger lists a charger's bookings.
func (s *BookingService) BookingsByCharger(ctx context.Context, chargerID string) []models.Booking {
	return s.bookings.ListByCharger(chargerID)
}

// OTPResult reports an OTP request outcome.
type OTPResult struct {
	BookingID string
	OTP       string
	Pending   bool
}

// RequestOTP issues the booking's code once the window before scheduled
// start has opened. Earlier requests get a pending signal, not an error.
func (s *BookingService) RequestOTP(ctx context.Context, bookingID string) (OTPResult, error) {
	booking, ok := s.bookings.Get(bookingID)
	if !ok {
		return OTPResult{}, fmt.Errorf("booking %s: %w", bookingID, ErrNotFound)
	}
	slotStart, err := booking.SlotStart()
	if err != nil {
		return OTPResult{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	code, open := s.otp.Request(bookingID, slotStart)
	if !open {
		return OTPResult{BookingID: bookingID, Pending: true}, nil
	}
	return OTPResult{BookingID: bookingID, OTP: code}, nil
}

// VerifyOTP validates the submitted code and authorizes session start.
// Verification does not itself start the session.
func (s *BookingService) VerifyOTP(ctx context.Context, bookingID, code string) error {
	if _, ok := s.bookings.Get(bookingID); !ok {
		return fmt.Errorf("booking %s: %w", bookingID, ErrNotFound)
	}
	if !s.otp.Verify(bookingID, code) {
		return fmt.Errorf("invalid otp: %w", ErrNotAuthorized)
	}

	s.mu.Lock()
	s.verified[bookingID] = true
	s.mu.Unlock()

	s.logger.Info("otp verified", zap.String("booking_id", bookingID))
	return nil
}

// MarkPaid flips the booking's payment status once a cost is attached.
func (s *BookingService) MarkPaid(ctx context.Context, bookingID string) error {
	err := s.bookings.Update(bookingID, func(b *models.Booking) error {
		if b.SessionCost == nil {
			return fmt.Errorf("no session cost to pay for this booking: %w", ErrInvalidState)
		}
		b.PaymentStatus = models.PaymentPaid
		return nil
	})
	if err == registry.ErrNotFound {
		return fmt.Errorf("booking %s: %w", bookingID, ErrNotFound)
	}
	return err
}

// LateWindowResult is the live late-arrival countdown for a booking.
type LateWindowResult struct {
	BookingID        string
	HasTimer         bool
	ElapsedSeconds   int64
	RemainingSeconds int64
	LateArrival      bool
}

// TimerWindow reports the late-arrival countdown state.
func (s *BookingService) TimerWindow(ctx context.Context, bookingID string) (LateWindowResult, error) {
	booking, ok := s.bookings.Get(bookingID)
	if !ok {
		return LateWindowResult{}, fmt.Errorf("booking %s: %w", bookingID, ErrNotFound)
	}
	win := s.sched.LateWindow(bookingID)
	return LateWindowResult{
		BookingID:        bookingID,
		HasTimer:         win.HasTimer,
		ElapsedSeconds:   win.ElapsedSeconds,
		RemainingSeconds: win.RemainingSeconds,
		LateArrival:      booking.LateArrival,
	}, nil
}

// normalizeActor maps a submitted canceller to a known actor.
func normalizeActor(actor string) string {
	switch strings.ToUpper(strings.TrimSpace(actor)) {
	case models.CancelledByHost:
		return models.CancelledByHost
	case models.CancelledByDriver:
		return models.CancelledByDriver
	default:
		return models.CancelledByUnknown
	}
}
