package lifecycle

import (
	"sync"
	"testing"
)

func TestHappyPathTransitions(t *testing.T) {
	mgr := NewManager()
	m := mgr.Create("booking-1")

	if m.Current() != StatusConfirmed {
		t.Fatalf("expected CONFIRMED, got %s", m.Current())
	}
	if err := m.Fire(EventStartCharging); err != nil {
		t.Fatalf("start charging: %v", err)
	}
	if err := m.Fire(EventComplete); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if m.Current() != StatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", m.Current())
	}
}

func TestTerminalStatesRejectFurtherEvents(t *testing.T) {
	cases := []struct {
		name   string
		events []string
		final  string
	}{
		{"completed", []string{EventStartCharging, EventComplete}, StatusCompleted},
		{"cancelled", []string{EventCancel}, StatusCancelled},
		{"cancelled in progress", []string{EventStartCharging, EventCancelInProgress}, StatusCancelledInProgress},
		{"no show", []string{EventMarkNoShow}, StatusNoShow},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mgr := NewManager()
			m := mgr.Create("booking-1")
			for _, ev := range tc.events {
				if err := m.Fire(ev); err != nil {
					t.Fatalf("event %s: %v", ev, err)
				}
			}
			if m.Current() != tc.final {
				t.Fatalf("expected %s, got %s", tc.final, m.Current())
			}
			for _, ev := range []string{EventStartCharging, EventComplete, EventCancel, EventCancelInProgress, EventMarkNoShow} {
				if err := m.Fire(ev); err == nil {
					t.Fatalf("event %s accepted from terminal state %s", ev, tc.final)
				}
			}
			if m.Current() != tc.final {
				t.Fatalf("terminal state changed to %s", m.Current())
			}
		})
	}
}

func TestConcurrentStartHasOneWinner(t *testing.T) {
	mgr := NewManager()
	m := mgr.Create("booking-1")

	const attempts = 16
	var wg sync.WaitGroup
	results := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = m.Fire(EventStartCharging)
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range results {
		if err == nil {
			winners++
		}
	}
	if winners != 1 {
		t.Fatalf("expected exactly one winner, got %d", winners)
	}
	if m.Current() != StatusCharging {
		t.Fatalf("expected CHARGING, got %s", m.Current())
	}
}

func TestManagerRetainsMachines(t *testing.T) {
	mgr := NewManager()
	mgr.Create("booking-1")
	m, ok := mgr.Get("booking-1")
	if !ok {
		t.Fatalf("machine not found")
	}
	if err := m.Fire(EventCancel); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	again, ok := mgr.Get("booking-1")
	if !ok {
		t.Fatalf("machine dropped after terminal transition")
	}
	if again.Current() != StatusCancelled {
		t.Fatalf("expected CANCELLED, got %s", again.Current())
	}
	if _, ok := mgr.Get("unknown"); ok {
		t.Fatalf("unexpected machine for unknown booking")
	}
}
