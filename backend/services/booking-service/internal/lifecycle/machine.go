// Package lifecycle owns the booking state graph. Transitions are monotone:
// once a booking leaves a state there is no path back.
package lifecycle

import (
	"context"
	"fmt"
	"sync"

	"github.com/looplab/fsm"
)

// Booking status constants.
const (
	StatusConfirmed           = "CONFIRMED"
	StatusCharging            = "CHARGING"
	StatusCompleted           = "COMPLETED"
	StatusCancelled           = "CANCELLED"
	StatusCancelledInProgress = "CANCELLED_IN_PROGRESS"
	StatusNoShow              = "NO_SHOW"
)

// Transition events.
const (
	EventStartCharging    = "start_charging"
	EventComplete         = "complete"
	EventCancel           = "cancel"
	EventCancelInProgress = "cancel_in_progress"
	EventMarkNoShow       = "mark_no_show"
)

// Machine is a mutex-wrapped state machine for one booking.
type Machine struct {
	mu  sync.Mutex
	fsm *fsm.FSM
}

func newMachine() *Machine {
	return &Machine{
		fsm: fsm.NewFSM(
			StatusConfirmed,
			fsm.Events{
				{Name: EventStartCharging, Src: []string{StatusConfirmed}, Dst: StatusCharging},
				{Name: EventComplete, Src: []string{StatusCharging}, Dst: StatusCompleted},
				{Name: EventCancel, Src: []string{StatusConfirmed}, Dst: StatusCancelled},
				{Name: EventCancelInProgress, Src: []string{StatusCharging}, Dst: StatusCancelledInProgress},
				{Name: EventMarkNoShow, Src: []string{StatusConfirmed}, Dst: StatusNoShow},
			},
			fsm.Callbacks{},
		),
	}
}

// Current returns the booking's lifecycle state.
func (m *Machine) Current() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fsm.Current()
}

// Fire attempts a transition. Concurrent callers racing for the same
// transition get exactly one winner; losers receive an error.
func (m *Machine) Fire(event string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fsm.Event(context.Background(), event); err != nil {
		return fmt.Errorf("event %s from %s: %w", event, m.fsm.Current(), err)
	}
	return nil
}

// Manager keeps one machine per booking. Machines are retained after
// terminal transitions so retried operations are rejected instead of
// silently repeated.
type Manager struct {
	mu       sync.RWMutex
	machines map[string]*Machine
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{machines: make(map[string]*Machine)}
}

// Create registers a machine for a new booking in CONFIRMED.
func (mgr *Manager) Create(bookingID string) *Machine {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	m := newMachine()
	mgr.machines[bookingID] = m
	return m
}

// Get returns the machine for the booking.
func (mgr *Manager) Get(bookingID string) (*Machine, bool) {
	mgr.mu.RLock()
	defer mgr.mu.RUnlock()
	m, ok := mgr.machines[bookingID]
	return m, ok
}
