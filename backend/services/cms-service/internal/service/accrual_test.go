package service

import (
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestStartHasExactlyOneWinner(t *testing.T) {
	engine := NewAccrualEngine(1, nil, zap.NewNop())

	const attempts = 16
	var wg sync.WaitGroup
	results := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = engine.Start("charger-1", "booking-1", 0)
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range results {
		if err == nil {
			winners++
		} else if !errors.Is(err, ErrAlreadyRunning) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if winners != 1 {
		t.Fatalf("expected exactly one winner, got %d", winners)
	}
}

func TestStopReturnsTerminalSnapshot(t *testing.T) {
	engine := NewAccrualEngine(1, nil, zap.NewNop())

	res, err := engine.Start("charger-1", "booking-1", 0)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if res.SessionID != "booking-1" {
		t.Fatalf("expected session id to reuse booking id, got %s", res.SessionID)
	}

	time.Sleep(30 * time.Millisecond)
	stop, err := engine.Stop("charger-1")
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if stop.SessionEnergy <= 0 {
		t.Fatalf("expected positive session energy, got %v", stop.SessionEnergy)
	}
	if stop.TotalEnergy != stop.SessionEnergy {
		t.Fatalf("first session total %v should equal session energy %v", stop.TotalEnergy, stop.SessionEnergy)
	}

	if _, err := engine.Stop("charger-1"); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("second stop should report not running, got %v", err)
	}

	status := engine.Status("charger-1")
	if status.Running || !status.Completed {
		t.Fatalf("expected retained terminal status, got %+v", status)
	}
}

func TestAnonymousSessionGetsGeneratedID(t *testing.T) {
	engine := NewAccrualEngine(1, nil, zap.NewNop())
	res, err := engine.Start("charger-1", "", 0)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if res.SessionID == "" || res.SessionID == "booking-1" {
		t.Fatalf("expected generated session id, got %q", res.SessionID)
	}
}

func TestAutoCompleteAtBookedDuration(t *testing.T) {
	var mu sync.Mutex
	var notified []string
	engine := NewAccrualEngine(1, func(bookingID, sessionID string) {
		mu.Lock()
		notified = append(notified, bookingID+"/"+sessionID)
		mu.Unlock()
	}, zap.NewNop())

	if _, err := engine.Start("charger-1", "booking-1", 20*time.Millisecond); err != nil {
		t.Fatalf("start: %v", err)
	}

	waitFor(t, time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(notified) == 1
	})
	mu.Lock()
	if notified[0] != "booking-1/booking-1" {
		t.Fatalf("unexpected notification: %s", notified[0])
	}
	mu.Unlock()

	tel, err := engine.SessionTelemetry("booking-1")
	if err != nil {
		t.Fatalf("telemetry: %v", err)
	}
	if tel.Status != SessionAutoCompleted {
		t.Fatalf("expected auto-completed status, got %s", tel.Status)
	}

	if _, err := engine.Stop("charger-1"); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("stop after auto-complete should report not running, got %v", err)
	}
}

func TestExtendDeadlineRearmsAutoComplete(t *testing.T) {
	var mu sync.Mutex
	var notified []string
	engine := NewAccrualEngine(1, func(bookingID, sessionID string) {
		mu.Lock()
		notified = append(notified, bookingID+"/"+sessionID)
		mu.Unlock()
	}, zap.NewNop())

	if _, err := engine.Start("charger-1", "booking-1", 60*time.Millisecond); err != nil {
		t.Fatalf("start: %v", err)
	}
	// Lengthening the booked window mid-session must outlive the deadline
	// armed at start.
	engine.ExtendDeadline("charger-1", 300*time.Millisecond)

	time.Sleep(120 * time.Millisecond)
	if status := engine.Status("charger-1"); !status.Running {
		t.Fatalf("session auto-completed at the pre-extension deadline: %+v", status)
	}
	mu.Lock()
	early := len(notified)
	mu.Unlock()
	if early != 0 {
		t.Fatalf("auto-complete fired before the extended deadline")
	}

	waitFor(t, time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(notified) == 1
	})
	mu.Lock()
	if notified[0] != "booking-1/booking-1" {
		t.Fatalf("unexpected notification: %s", notified[0])
	}
	mu.Unlock()
}

func TestExtendDeadlineWithoutLiveSessionIsNoOp(t *testing.T) {
	var mu sync.Mutex
	notifications := 0
	engine := NewAccrualEngine(1, func(bookingID, sessionID string) {
		mu.Lock()
		notifications++
		mu.Unlock()
	}, zap.NewNop())

	engine.ExtendDeadline("charger-1", 10*time.Millisecond)
	time.Sleep(40 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if notifications != 0 {
		t.Fatalf("deadline armed without a live session")
	}
}

func TestStopDisarmsAutoComplete(t *testing.T) {
	var mu sync.Mutex
	notifications := 0
	engine := NewAccrualEngine(1, func(bookingID, sessionID string) {
		mu.Lock()
		notifications++
		mu.Unlock()
	}, zap.NewNop())

	if _, err := engine.Start("charger-1", "booking-1", 30*time.Millisecond); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := engine.Stop("charger-1"); err != nil {
		t.Fatalf("stop: %v", err)
	}

	time.Sleep(80 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if notifications != 0 {
		t.Fatalf("auto-complete fired after manual stop")
	}
}

func TestTelemetrySurvivesChargerReuse(t *testing.T) {
	engine := NewAccrualEngine(1, nil, zap.NewNop())

	if _, err := engine.Start("charger-1", "booking-1", 0); err != nil {
		t.Fatalf("first start: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	first, err := engine.Stop("charger-1")
	if err != nil {
		t.Fatalf("first stop: %v", err)
	}

	if _, err := engine.Start("charger-1", "booking-2", 0); err != nil {
		t.Fatalf("second start: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	second, err := engine.Stop("charger-1")
	if err != nil {
		t.Fatalf("second stop: %v", err)
	}

	tel, err := engine.SessionTelemetry("booking-1")
	if err != nil {
		t.Fatalf("telemetry for first session: %v", err)
	}
	if tel.EnergyDelivered != first.SessionEnergy {
		t.Fatalf("first session telemetry changed: %v vs %v", tel.EnergyDelivered, first.SessionEnergy)
	}
	if tel.BookingID != "booking-1" {
		t.Fatalf("wrong booking on first session telemetry: %s", tel.BookingID)
	}

	total := engine.TotalEnergy("charger-1")
	want := first.SessionEnergy + second.SessionEnergy
	if total != want {
		t.Fatalf("cumulative energy %v, want %v", total, want)
	}

	if _, err := engine.SessionTelemetry("unknown"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found for unknown session, got %v", err)
	}
}

func TestLiveTelemetryGrows(t *testing.T) {
	engine := NewAccrualEngine(1, nil, zap.NewNop())
	if _, err := engine.Start("charger-1", "booking-1", 0); err != nil {
		t.Fatalf("start: %v", err)
	}

	waitFor(t, time.Second, func() bool {
		tel, err := engine.SessionTelemetry("booking-1")
		return err == nil && tel.Status == SessionInProgress && tel.EnergyDelivered > 0
	})

	status := engine.Status("charger-1")
	if !status.Running {
		t.Fatalf("expected running status, got %+v", status)
	}
}

func waitFor(t *testing.T, timeout time.Duration, condition func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", timeout)
}
