package billing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

var slotStart = time.Date(2026, 3, 14, 10, 0, 0, 0, time.Local)

func TestComputeNormalSession(t *testing.T) {
	policy := DefaultPolicy()
	start := slotStart
	end := slotStart.Add(time.Hour)

	out := policy.Compute(Input{
		Connector:       "CCS2",
		BookedHours:     1,
		ScheduledStart:  slotStart,
		EnergyKWh:       9.5,
		DurationSeconds: 3600,
		ActualStart:     &start,
		ActualEnd:       &end,
	})

	rounded := out.Rounded()
	if rounded.EnergyCost != 150 {
		t.Fatalf("expected energy cost 150, got %v", rounded.EnergyCost)
	}
	if rounded.BookingFee != 10 {
		t.Fatalf("expected booking fee 10, got %v", rounded.BookingFee)
	}
	if rounded.LateArrivalFee != 0 || rounded.IdleFee != 0 {
		t.Fatalf("expected no late or idle fee, got %v / %v", rounded.LateArrivalFee, rounded.IdleFee)
	}
	if rounded.Subtotal != 160 {
		t.Fatalf("expected subtotal 160, got %v", rounded.Subtotal)
	}
	if rounded.Tax != 28.8 {
		t.Fatalf("expected tax 28.80, got %v", rounded.Tax)
	}
	if rounded.Total != 188.8 {
		t.Fatalf("expected total 188.80, got %v", rounded.Total)
	}
	if out.Detail.IsNoShow {
		t.Fatalf("normal session flagged as no-show")
	}
}

func TestComputeIsDeterministic(t *testing.T) {
	policy := DefaultPolicy()
	start := slotStart.Add(22 * time.Minute)
	end := slotStart.Add(97 * time.Minute)
	in := Input{
		Connector:       "Type 2",
		BookedHours:     1.5,
		ScheduledStart:  slotStart,
		EnergyKWh:       12.34,
		DurationSeconds: 4500,
		AccruedLateFee:  decimal.NewFromInt(10),
		ActualStart:     &start,
		ActualEnd:       &end,
	}

	first := policy.Compute(in)
	second := policy.Compute(in)

	pairs := []struct {
		name string
		a, b decimal.Decimal
	}{
		{"energyCost", first.EnergyCost, second.EnergyCost},
		{"bookingFee", first.BookingFee, second.BookingFee},
		{"idleFee", first.IdleFee, second.IdleFee},
		{"lateArrivalFee", first.LateArrivalFee, second.LateArrivalFee},
		{"earlyCancellationFee", first.EarlyCancellationFee, second.EarlyCancellationFee},
		{"subtotal", first.Subtotal, second.Subtotal},
		{"tax", first.Tax, second.Tax},
		{"total", first.Total, second.Total},
	}
	for _, p := range pairs {
		if !p.a.Equal(p.b) {
			t.Fatalf("%s differs between runs: %s vs %s", p.name, p.a, p.b)
		}
	}
}

func TestComputeNoShow(t *testing.T) {
	policy := DefaultPolicy()
	out := policy.Compute(Input{
		Connector:      "CHAdeMO",
		BookedHours:    2,
		ScheduledStart: slotStart,
	})

	if !out.Detail.IsNoShow {
		t.Fatalf("expected no-show breakdown")
	}
	if !out.EnergyCost.IsZero() || !out.BookingFee.IsZero() || !out.IdleFee.IsZero() ||
		!out.LateArrivalFee.IsZero() || !out.EarlyCancellationFee.IsZero() {
		t.Fatalf("no-show breakdown carries other charges: %+v", out.Rounded())
	}
	expectedTotal := policy.NoShowFee.Add(policy.NoShowFee.Mul(policy.TaxRate))
	if !out.Total.Equal(expectedTotal) {
		t.Fatalf("expected total %s, got %s", expectedTotal, out.Total)
	}
}

func TestZeroUsageCancellationIsNoShow(t *testing.T) {
	policy := DefaultPolicy()
	out := policy.Compute(Input{
		Connector:      "CCS2",
		BookedHours:    1,
		ScheduledStart: slotStart,
		CancelledBy:    "DRIVER",
	})

	// Nothing delivered and nothing elapsed classifies as a no-show even
	// when a canceller is recorded.
	if !out.Detail.IsNoShow {
		t.Fatalf("expected no-show breakdown, got %+v", out.Rounded())
	}
	if !out.EarlyCancellationFee.IsZero() || !out.BookingFee.IsZero() {
		t.Fatalf("no-show breakdown carries other charges: %+v", out.Rounded())
	}
}

func TestZeroTelemetryWithActualStartIsNoShow(t *testing.T) {
	policy := DefaultPolicy()
	start := slotStart
	end := slotStart
	out := policy.Compute(Input{
		Connector:      "CCS2",
		BookedHours:    1,
		ScheduledStart: slotStart,
		ActualStart:    &start,
		ActualEnd:      &end,
	})

	if !out.Detail.IsNoShow {
		t.Fatalf("expected no-show breakdown, got %+v", out.Rounded())
	}
	if !out.BookingFee.IsZero() {
		t.Fatalf("no-show breakdown carries booking fee %v", out.Rounded().BookingFee)
	}
}

func TestAccruedLateFeeTakesPrecedence(t *testing.T) {
	policy := DefaultPolicy()
	start := slotStart.Add(30 * time.Minute)
	end := start.Add(time.Hour)

	out := policy.Compute(Input{
		Connector:       "CCS2",
		BookedHours:     1,
		ScheduledStart:  slotStart,
		EnergyKWh:       5,
		DurationSeconds: 3600,
		AccruedLateFee:  decimal.NewFromInt(15),
		ActualStart:     &start,
		ActualEnd:       &end,
	})

	if out.Rounded().LateArrivalFee != 15 {
		t.Fatalf("expected accrued fee 15 to win, got %v", out.Rounded().LateArrivalFee)
	}
}

func TestFallbackLateFeeFromActualStart(t *testing.T) {
	policy := DefaultPolicy()
	start := slotStart.Add(30 * time.Minute)
	end := start.Add(30 * time.Minute)

	out := policy.Compute(Input{
		Connector:       "CCS2",
		BookedHours:     1,
		ScheduledStart:  slotStart,
		EnergyKWh:       5,
		DurationSeconds: 1800,
		ActualStart:     &start,
		ActualEnd:       &end,
	})

	// 30 minutes late minus 10 minutes grace at 5 per minute.
	if out.Rounded().LateArrivalFee != 100 {
		t.Fatalf("expected fallback late fee 100, got %v", out.Rounded().LateArrivalFee)
	}
}

func TestIdleFeePastScheduledEnd(t *testing.T) {
	policy := DefaultPolicy()
	start := slotStart
	end := slotStart.Add(80 * time.Minute)

	out := policy.Compute(Input{
		Connector:       "CCS2",
		BookedHours:     1,
		ScheduledStart:  slotStart,
		EnergyKWh:       5,
		DurationSeconds: 4800,
		ActualStart:     &start,
		ActualEnd:       &end,
	})

	// 20 minutes past scheduled end minus 5 minutes grace at 5 per minute.
	if out.Rounded().IdleFee != 75 {
		t.Fatalf("expected idle fee 75, got %v", out.Rounded().IdleFee)
	}
}

func TestCancellationFeeSign(t *testing.T) {
	policy := DefaultPolicy()
	start := slotStart
	end := slotStart.Add(30 * time.Minute)
	in := Input{
		Connector:       "CCS2",
		BookedHours:     2,
		ScheduledStart:  slotStart,
		EnergyKWh:       3,
		DurationSeconds: 1800,
		ActualStart:     &start,
		ActualEnd:       &end,
		CancelledBy:     "DRIVER",
	}

	driver := policy.Compute(in)
	if driver.Rounded().EarlyCancellationFee != 37.5 {
		t.Fatalf("expected driver fee 37.50, got %v", driver.Rounded().EarlyCancellationFee)
	}

	in.CancelledBy = "HOST"
	host := policy.Compute(in)
	if host.Rounded().EarlyCancellationFee != -37.5 {
		t.Fatalf("expected host fee -37.50, got %v", host.Rounded().EarlyCancellationFee)
	}
	if !host.EarlyCancellationFee.Equal(driver.EarlyCancellationFee.Neg()) {
		t.Fatalf("host fee is not the negation of the driver fee")
	}
}

func TestNegativeTotalIsPreserved(t *testing.T) {
	policy := DefaultPolicy()
	out := policy.Compute(Input{
		Connector:       "CCS2",
		BookedHours:     2,
		ScheduledStart:  slotStart,
		DurationSeconds: 1800,
		CancelledBy:     "HOST",
	})

	// Booking fee 20, host cancellation on 1.5 unused hours -37.50: a net
	// refund.
	if out.Rounded().Subtotal != -17.5 {
		t.Fatalf("expected subtotal -17.50, got %v", out.Rounded().Subtotal)
	}
	if out.Total.Sign() >= 0 {
		t.Fatalf("expected negative total, got %s", out.Total)
	}
	if out.Rounded().Total != -20.65 {
		t.Fatalf("expected total -20.65, got %v", out.Rounded().Total)
	}
}

func TestConnectorEfficiency(t *testing.T) {
	policy := DefaultPolicy()
	for _, connector := range []string{"CCS2", "CHAdeMO", "GB/T", "Bharat DC001"} {
		if !IsDCConnector(connector) {
			t.Fatalf("%s should be a DC connector", connector)
		}
		if !policy.Efficiency(connector).Equal(policy.EfficiencyDC) {
			t.Fatalf("%s should use DC efficiency", connector)
		}
	}
	if IsDCConnector("Type 2") {
		t.Fatalf("Type 2 should not be a DC connector")
	}
	if !policy.Efficiency("Type 2").Equal(policy.EfficiencyAC) {
		t.Fatalf("Type 2 should use AC efficiency")
	}
}
