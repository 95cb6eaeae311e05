// Package registry holds the in-memory charger and booking tables. All state
// is process-lifetime only; a restart loses in-flight bookings and sessions,
// which is the documented consistency model of this deployment.
package registry

import (
	"errors"
	"sync"

	"karocharge/backend/services/booking-service/internal/models"
)

// ErrNotFound is returned for unknown identities.
var ErrNotFound = errors.New("registry: not found")

// ChargerStore keeps hosted chargers keyed by identity.
type ChargerStore struct {
	mu       sync.RWMutex
	chargers map[string]*models.Charger
	order    []string
}

// NewChargerStore returns an empty store.
func NewChargerStore() *ChargerStore {
	return &ChargerStore{chargers: make(map[string]*models.Charger)}
}

// Add registers a charger.
func (s *ChargerStore) Add(c models.Charger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chargers[c.ChargerID] = &c
	s.order = append(s.order, c.ChargerID)
}

// Get returns a copy of the charger.
func (s *ChargerStore) Get(chargerID string) (models.Charger, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.chargers[chargerID]
	if !ok {
		return models.Charger{}, false
	}
	return *c, true
}

// List returns copies of all chargers in hosting order.
func (s *ChargerStore) List() []models.Charger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]models.Charger, 0, len(s.order))
	for _, id := range s.order {
		result = append(result, *s.chargers[id])
	}
	return result
}

// Update applies fn to the charger under the store lock, making
// check-then-mutate sequences atomic. fn returning an error aborts the
// update and the error is passed through.
func (s *ChargerStore) Update(chargerID string, fn func(*models.Charger) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.chargers[chargerID]
	if !ok {
		return ErrNotFound
	}
	return fn(c)
}

// BookingStore keeps bookings keyed by identity. Bookings are never deleted.
type BookingStore struct {
	mu       sync.RWMutex
	bookings map[string]*models.Booking
	order    []string
}

// NewBookingStore returns an empty store.
func NewBookingStore() *BookingStore {
	return &BookingStore{bookings: make(map[string]*models.Booking)}
}

// Add registers a booking.
func (s *BookingStore) Add(b models.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookings[b.BookingID] = &b
	s.order = append(s.order, b.BookingID)
}

// Get returns a copy of the booking.
func (s *BookingStore) Get(bookingID string) (models.Booking, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[bookingID]
	if !ok {
		return models.Booking{}, false
	}
	return *b, true
}

// ListByCharger returns copies of the charger's bookings in creation order.
func (s *BookingStore) ListByCharger(chargerID string) []models.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []models.Booking
	for _, id := range s.order {
		if b := s.bookings[id]; b.ChargerID == chargerID {
			result = append(result, *b)
		}
	}
	return result
}

// Update applies fn to the booking under the store lock.
func (s *BookingStore) Update(bookingID string, fn func(*models.Booking) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[bookingID]
	if !ok {
		return ErrNotFound
	}
	return fn(b)
}
