package service

import (
	"sync"
	"time"
)

// Reservation status values for a charger resource.
const (
	ResourceBlocked   = "BLOCKED"
	ResourceUnblocked = "UNBLOCKED"
)

// ResourceSnapshot is the CMS view of one charger's reservation hold.
type ResourceSnapshot struct {
	ChargerID      string    `json:"chargerId"`
	BookingID      string    `json:"bookingId"`
	ScheduledStart time.Time `json:"scheduledStart"`
	DurationHours  float64   `json:"durationHours"`
	Status         string    `json:"status"`
}

// ResourceState keeps per-charger reservation holds in memory.
type ResourceState struct {
	mu        sync.RWMutex
	resources map[string]ResourceSnapshot
}

// NewResourceState returns an empty state store.
func NewResourceState() *ResourceState {
	return &ResourceState{
		resources: make(map[string]ResourceSnapshot),
	}
}

// Block records a reservation hold for the charger and returns the snapshot.
func (s *ResourceState) Block(chargerID, bookingID string, scheduledStart time.Time, durationHours float64) ResourceSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := ResourceSnapshot{
		ChargerID:      chargerID,
		BookingID:      bookingID,
		ScheduledStart: scheduledStart,
		DurationHours:  durationHours,
		Status:         ResourceBlocked,
	}
	s.resources[chargerID] = snap
	return snap
}

// Unblock releases the hold. The schedule fields of the previous hold are
// retained so a session started right after release still knows its booked
// duration for auto-termination.
func (s *ResourceState) Unblock(chargerID, bookingID string) ResourceSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.resources[chargerID]
	if !ok {
		snap = ResourceSnapshot{ChargerID: chargerID}
	}
	snap.BookingID = bookingID
	snap.Status = ResourceUnblocked
	s.resources[chargerID] = snap
	return snap
}

// Get returns the current snapshot for the charger.
func (s *ResourceState) Get(chargerID string) (ResourceSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.resources[chargerID]
	return snap, ok
}

// BookedDuration returns the scheduled duration known for the charger, if any.
func (s *ResourceState) BookedDuration(chargerID string) (time.Duration, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.resources[chargerID]
	if !ok || snap.DurationHours <= 0 {
		return 0, false
	}
	return time.Duration(snap.DurationHours * float64(time.Hour)), true
}
