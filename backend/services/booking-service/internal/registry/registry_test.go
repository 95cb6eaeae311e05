package registry

import (
	"errors"
	"testing"

	"karocharge/backend/services/booking-service/internal/models"
)

func TestChargerStoreCopiesOnRead(t *testing.T) {
	store := NewChargerStore()
	store.Add(models.Charger{ChargerID: "charger-1", Status: models.ChargerAvailable})

	got, ok := store.Get("charger-1")
	if !ok {
		t.Fatalf("charger not found")
	}
	got.Status = models.ChargerBooked

	again, _ := store.Get("charger-1")
	if again.Status != models.ChargerAvailable {
		t.Fatalf("mutating a read copy leaked into the store")
	}
}

func TestChargerStoreUpdateIsAtomic(t *testing.T) {
	store := NewChargerStore()
	store.Add(models.Charger{ChargerID: "charger-1", Status: models.ChargerAvailable})

	err := store.Update("charger-1", func(c *models.Charger) error {
		if c.Status == models.ChargerBooked {
			return errors.New("already booked")
		}
		c.Status = models.ChargerBooked
		return nil
	})
	if err != nil {
		t.Fatalf("first update: %v", err)
	}

	err = store.Update("charger-1", func(c *models.Charger) error {
		if c.Status == models.ChargerBooked {
			return errors.New("already booked")
		}
		c.Status = models.ChargerBooked
		return nil
	})
	if err == nil {
		t.Fatalf("second update should have been rejected")
	}

	if err := store.Update("unknown", func(*models.Charger) error { return nil }); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestBookingStoreListByCharger(t *testing.T) {
	store := NewBookingStore()
	store.Add(models.Booking{BookingID: "b1", ChargerID: "charger-1"})
	store.Add(models.Booking{BookingID: "b2", ChargerID: "charger-2"})
	store.Add(models.Booking{BookingID: "b3", ChargerID: "charger-1"})

	got := store.ListByCharger("charger-1")
	if len(got) != 2 {
		t.Fatalf("expected 2 bookings, got %d", len(got))
	}
	if got[0].BookingID != "b1" || got[1].BookingID != "b3" {
		t.Fatalf("creation order not preserved: %s, %s", got[0].BookingID, got[1].BookingID)
	}

	if list := store.ListByCharger("charger-9"); len(list) != 0 {
		t.Fatalf("expected no bookings, got %d", len(list))
	}
}
