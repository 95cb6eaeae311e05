package service

import (
	"testing"
	"time"
)

func TestBlockAndUnblockRetainSchedule(t *testing.T) {
	state := NewResourceState()
	start := time.Now().Add(time.Hour)

	snap := state.Block("charger-1", "booking-1", start, 2)
	if snap.Status != ResourceBlocked {
		t.Fatalf("expected BLOCKED, got %s", snap.Status)
	}

	snap = state.Unblock("charger-1", "booking-1")
	if snap.Status != ResourceUnblocked {
		t.Fatalf("expected UNBLOCKED, got %s", snap.Status)
	}

	// A session started right after release still needs the booked duration.
	duration, ok := state.BookedDuration("charger-1")
	if !ok {
		t.Fatalf("booked duration lost on unblock")
	}
	if duration != 2*time.Hour {
		t.Fatalf("expected 2h, got %s", duration)
	}
}

func TestUnblockUnknownCharger(t *testing.T) {
	state := NewResourceState()
	snap := state.Unblock("charger-9", "booking-9")
	if snap.Status != ResourceUnblocked {
		t.Fatalf("expected UNBLOCKED, got %s", snap.Status)
	}
	if _, ok := state.BookedDuration("charger-9"); ok {
		t.Fatalf("unexpected booked duration for unknown charger")
	}
}
