package service

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultOTPLead is how long before the scheduled start the OTP window opens.
const DefaultOTPLead = 15 * time.Minute

// OTPService issues and verifies one-time codes gating session start. A code
// is valid for exactly one booking and only becomes available once the
// window before the scheduled start opens.
type OTPService struct {
	mu     sync.Mutex
	lead   time.Duration
	codes  map[string]string
	timers map[string]*time.Timer
	logger *zap.Logger
}

// NewOTPService builds the service; lead <= 0 uses the default window.
func NewOTPService(lead time.Duration, logger *zap.Logger) *OTPService {
	if lead <= 0 {
		lead = DefaultOTPLead
	}
	return &OTPService{
		lead:   lead,
		codes:  make(map[string]string),
		timers: make(map[string]*time.Timer),
		logger: logger,
	}
}

// Schedule arms auto-issuance at slotStart - lead. Slots already inside the
// window get their code on first request instead.
func (s *OTPService) Schedule(bookingID string, slotStart time.Time) {
	delay := time.Until(slotStart.Add(-s.lead))
	if delay <= 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.timers[bookingID] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.codes[bookingID]; ok {
			return
		}
		code := generateCode()
		s.codes[bookingID] = code
		s.logger.Info("otp auto-issued", zap.String("booking_id", bookingID))
	})
}

// Request returns the booking's code, generating one if needed. open is
// false while the window has not opened yet; that is a "not yet" signal,
// not an error.
func (s *OTPService) Request(bookingID string, slotStart time.Time) (code string, open bool) {
	if time.Now().Before(slotStart.Add(-s.lead)) {
		return "", false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.codes[bookingID]; ok {
		return existing, true
	}
	code = generateCode()
	s.codes[bookingID] = code
	s.logger.Info("otp issued on request", zap.String("booking_id", bookingID))
	return code, true
}

// Verify checks the submitted code against the booking's issued code.
func (s *OTPService) Verify(bookingID, code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	issued, ok := s.codes[bookingID]
	return ok && issued == code
}

// Clear drops the booking's code and pending auto-issue timer.
func (s *OTPService) Clear(bookingID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.codes, bookingID)
	if t, ok := s.timers[bookingID]; ok {
		t.Stop()
		delete(s.timers, bookingID)
	}
}

func generateCode() string {
	return fmt.Sprintf("%04d", 1000+rand.IntN(9000))
}
