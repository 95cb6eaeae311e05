package models

import (
	"time"

	"github.com/shopspring/decimal"

	"karocharge/backend/services/booking-service/internal/billing"
)

// Payment status values.
const (
	PaymentPending = "pending"
	PaymentPaid    = "paid"
)

// Cancellation actors.
const (
	CancelledByHost    = "HOST"
	CancelledByDriver  = "DRIVER"
	CancelledByUnknown = "UNKNOWN"
)

// Booking is a reservation of a charger for a scheduled slot. Bookings are
// retained after terminal transitions so cost and payment queries keep working.
type Booking struct {
	BookingID         string             `json:"bookingId"`
	ChargerID         string             `json:"chargerId"`
	Date              string             `json:"date"`
	StartTime         string             `json:"startTime"`
	SlotDurationHours float64            `json:"slotDurationHours"`
	Status            string             `json:"status"`
	LateArrival       bool               `json:"lateArrival,omitempty"`
	LateArrivalAt     *time.Time         `json:"lateArrivalAt,omitempty"`
	LateArrivalFee    decimal.Decimal    `json:"lateArrivalFee"`
	CancelledBy       string             `json:"cancelledBy,omitempty"`
	CancelledAt       *time.Time         `json:"cancelledAt,omitempty"`
	LateCancellation  bool               `json:"lateCancellation,omitempty"`
	SessionCost       *billing.Breakdown `json:"sessionCost,omitempty"`
	PaymentStatus     string             `json:"paymentStatus,omitempty"`
}

// SlotStart parses the scheduled start of the booked slot.
func (b *Booking) SlotStart() (time.Time, error) {
	return ParseSlotStart(b.Date, b.StartTime)
}

// SlotEnd returns scheduled start + booked duration.
func (b *Booking) SlotEnd() (time.Time, error) {
	start, err := b.SlotStart()
	if err != nil {
		return time.Time{}, err
	}
	return start.Add(b.BookedDuration()), nil
}

// BookedDuration converts the booked slot length to a duration.
func (b *Booking) BookedDuration() time.Duration {
	return time.Duration(b.SlotDurationHours * float64(time.Hour))
}
