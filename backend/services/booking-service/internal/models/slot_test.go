package models

import (
	"testing"
	"time"
)

func TestParseSlotStartLayouts(t *testing.T) {
	cases := []struct {
		date      string
		startTime string
		want      time.Time
	}{
		{"2026-03-14", "10:00", time.Date(2026, 3, 14, 10, 0, 0, 0, time.Local)},
		{"14/03/2026", "10:00", time.Date(2026, 3, 14, 10, 0, 0, 0, time.Local)},
		{"2026-03-14", "2:30PM", time.Date(2026, 3, 14, 14, 30, 0, 0, time.Local)},
		{"2026-03-14", "2:30pm", time.Date(2026, 3, 14, 14, 30, 0, 0, time.Local)},
		{"2026-03-14", "9PM", time.Date(2026, 3, 14, 21, 0, 0, 0, time.Local)},
		{"2026-03-14", "10:30 AM", time.Date(2026, 3, 14, 10, 30, 0, 0, time.Local)},
		{"2026-03-14", "9 pm", time.Date(2026, 3, 14, 21, 0, 0, 0, time.Local)},
		{" 2026-03-14 ", " 10:00 ", time.Date(2026, 3, 14, 10, 0, 0, 0, time.Local)},
	}

	for _, tc := range cases {
		got, err := ParseSlotStart(tc.date, tc.startTime)
		if err != nil {
			t.Fatalf("parse %q %q: %v", tc.date, tc.startTime, err)
		}
		if !got.Equal(tc.want) {
			t.Fatalf("parse %q %q: got %s, want %s", tc.date, tc.startTime, got, tc.want)
		}
	}
}

func TestParseSlotStartRejectsGarbage(t *testing.T) {
	if _, err := ParseSlotStart("not-a-date", "10:00"); err == nil {
		t.Fatalf("expected error for bad date")
	}
	if _, err := ParseSlotStart("2026-03-14", "quarter past"); err == nil {
		t.Fatalf("expected error for bad time")
	}
}

func TestBookingSlotWindow(t *testing.T) {
	b := Booking{Date: "2026-03-14", StartTime: "10:00", SlotDurationHours: 1.5}

	start, err := b.SlotStart()
	if err != nil {
		t.Fatalf("slot start: %v", err)
	}
	end, err := b.SlotEnd()
	if err != nil {
		t.Fatalf("slot end: %v", err)
	}
	if end.Sub(start) != 90*time.Minute {
		t.Fatalf("expected 90m window, got %s", end.Sub(start))
	}
	if b.BookedDuration() != 90*time.Minute {
		t.Fatalf("expected 90m duration, got %s", b.BookedDuration())
	}
}
