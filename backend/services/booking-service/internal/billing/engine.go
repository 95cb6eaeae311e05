// Package billing computes deterministic itemized session costs.
//
// Compute is a pure function: the same inputs always produce a bit-identical
// breakdown. All money math uses decimal arithmetic at full precision;
// rounding to two places happens only in the presentation view.
package billing

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Connector families charging through a DC-fast path.
var dcConnectors = []string{"CCS2", "CHAdeMO", "GB/T", "Bharat DC001"}

// IsDCConnector reports whether the connector type belongs to a DC family.
func IsDCConnector(connector string) bool {
	for _, dc := range dcConnectors {
		if strings.Contains(connector, dc) {
			return true
		}
	}
	return false
}

// Policy holds the fixed fee schedule.
type Policy struct {
	BaseTariffPerKWh      decimal.Decimal
	BookingFeePerHour     decimal.Decimal
	DemandSurchargeFactor decimal.Decimal
	IdleFeePerMinute      decimal.Decimal
	IdleGraceMinutes      float64
	LateFeePerMinute      decimal.Decimal
	LateGraceMinutes      float64
	EarlyCancelPerHour    decimal.Decimal
	NoShowFee             decimal.Decimal
	TaxRate               decimal.Decimal
	EfficiencyDC          decimal.Decimal
	EfficiencyAC          decimal.Decimal
}

// DefaultPolicy returns the production fee schedule.
func DefaultPolicy() Policy {
	return Policy{
		BaseTariffPerKWh:      decimal.NewFromInt(15),
		BookingFeePerHour:     decimal.NewFromInt(10),
		DemandSurchargeFactor: decimal.Zero,
		IdleFeePerMinute:      decimal.NewFromInt(5),
		IdleGraceMinutes:      5,
		LateFeePerMinute:      decimal.NewFromInt(5),
		LateGraceMinutes:      10,
		EarlyCancelPerHour:    decimal.NewFromInt(25),
		NoShowFee:             decimal.Zero,
		TaxRate:               decimal.NewFromFloat(0.18),
		EfficiencyDC:          decimal.NewFromFloat(0.95),
		EfficiencyAC:          decimal.NewFromFloat(0.9),
	}
}

// Efficiency returns the conversion efficiency for the connector family.
func (p Policy) Efficiency(connector string) decimal.Decimal {
	if IsDCConnector(connector) {
		return p.EfficiencyDC
	}
	return p.EfficiencyAC
}

// Input carries everything Compute needs; it references no mutable state.
type Input struct {
	Connector       string
	BookedHours     float64
	ScheduledStart  time.Time
	EnergyKWh       float64
	DurationSeconds float64
	// AccruedLateFee is the amount the scheduler already accumulated; when
	// positive it is authoritative and the fallback formula is skipped.
	AccruedLateFee decimal.Decimal
	ActualStart    *time.Time
	ActualEnd      *time.Time
	CancelledBy    string // "HOST", "DRIVER", or empty when not cancelled
}

// Detail is the diagnostic part of a breakdown.
type Detail struct {
	EnergyConsumed      float64         `json:"energyConsumed"`
	Efficiency          decimal.Decimal `json:"efficiency"`
	BookedDurationHours float64         `json:"bookedDurationHours"`
	ActualDurationHours float64         `json:"actualDurationHours"`
	LateArrivalMinutes  float64         `json:"lateArrivalMinutes"`
	IdleMinutes         float64         `json:"idleMinutes"`
	IsNoShow            bool            `json:"isNoShow"`
}

// Breakdown is an immutable itemized cost. EarlyCancellationFee is signed:
// positive when the driver cancelled, negative when the host did. Total may
// be negative (a net refund) and is never clamped.
type Breakdown struct {
	EnergyCost           decimal.Decimal `json:"energyCost"`
	BookingFee           decimal.Decimal `json:"bookingFee"`
	IdleFee              decimal.Decimal `json:"idleFee"`
	LateArrivalFee       decimal.Decimal `json:"lateArrivalFee"`
	EarlyCancellationFee decimal.Decimal `json:"earlyCancellationFee"`
	NoShowFee            decimal.Decimal `json:"noShowFee"`
	Subtotal             decimal.Decimal `json:"subtotal"`
	Tax                  decimal.Decimal `json:"tax"`
	Total                decimal.Decimal `json:"total"`
	EnergyDelivered      float64         `json:"energyDelivered"`
	Detail               Detail          `json:"breakdown"`
}

// Rounded is the presentation view with all amounts at two decimal places.
type Rounded struct {
	EnergyCost           float64 `json:"energyCost"`
	BookingFee           float64 `json:"bookingFee"`
	IdleFee              float64 `json:"idleFee"`
	LateArrivalFee       float64 `json:"lateArrivalFee"`
	EarlyCancellationFee float64 `json:"earlyCancellationFee"`
	NoShowFee            float64 `json:"noShowFee"`
	Subtotal             float64 `json:"subtotal"`
	Tax                  float64 `json:"tax"`
	Total                float64 `json:"total"`
}

// Rounded returns the two-decimal presentation view.
func (b Breakdown) Rounded() Rounded {
	round2 := func(d decimal.Decimal) float64 {
		f, _ := d.Round(2).Float64()
		return f
	}
	return Rounded{
		EnergyCost:           round2(b.EnergyCost),
		BookingFee:           round2(b.BookingFee),
		IdleFee:              round2(b.IdleFee),
		LateArrivalFee:       round2(b.LateArrivalFee),
		EarlyCancellationFee: round2(b.EarlyCancellationFee),
		NoShowFee:            round2(b.NoShowFee),
		Subtotal:             round2(b.Subtotal),
		Tax:                  round2(b.Tax),
		Total:                round2(b.Total),
	}
}

// Compute produces the itemized cost for a terminated session.
func (p Policy) Compute(in Input) Breakdown {
	efficiency := p.Efficiency(in.Connector)
	actualMinutes := in.DurationSeconds / 60
	actualHours := actualMinutes / 60

	// No-show: nothing delivered and nothing elapsed. Mutually exclusive
	// with every other path; any other input, and any energy or elapsed
	// time at all, takes the ordinary itemized path.
	if in.EnergyKWh == 0 && actualMinutes == 0 {
		tax := p.NoShowFee.Mul(p.TaxRate)
		return Breakdown{
			EnergyCost:           decimal.Zero,
			BookingFee:           decimal.Zero,
			IdleFee:              decimal.Zero,
			LateArrivalFee:       decimal.Zero,
			EarlyCancellationFee: decimal.Zero,
			NoShowFee:            p.NoShowFee,
			Subtotal:             p.NoShowFee,
			Tax:                  tax,
			Total:                p.NoShowFee.Add(tax),
			Detail: Detail{
				Efficiency:          efficiency,
				BookedDurationHours: in.BookedHours,
				IsNoShow:            true,
			},
		}
	}

	surcharge := decimal.NewFromInt(1).Add(p.DemandSurchargeFactor)
	energyCost := decimal.NewFromFloat(in.EnergyKWh).Div(efficiency).Mul(p.BaseTariffPerKWh).Mul(surcharge)

	bookingFee := decimal.NewFromFloat(in.BookedHours).Mul(p.BookingFeePerHour)

	// Late-arrival fee: the scheduler-accrued amount wins when present;
	// otherwise fall back to scheduled-vs-actual start. Never both.
	lateFee := decimal.Zero
	lateMinutes := 0.0
	if in.AccruedLateFee.IsPositive() {
		lateFee = in.AccruedLateFee
		if p.LateFeePerMinute.IsPositive() {
			lateMinutes, _ = lateFee.Div(p.LateFeePerMinute).Float64()
		}
	} else if in.ActualStart != nil {
		lateMinutes = in.ActualStart.Sub(in.ScheduledStart).Minutes() - p.LateGraceMinutes
		if lateMinutes < 0 {
			lateMinutes = 0
		}
		lateFee = decimal.NewFromFloat(lateMinutes).Mul(p.LateFeePerMinute)
	}

	idleFee := decimal.Zero
	idleMinutes := 0.0
	if in.ActualEnd != nil && in.ActualStart != nil {
		scheduledEnd := in.ScheduledStart.Add(time.Duration(in.BookedHours * float64(time.Hour)))
		idleMinutes = in.ActualEnd.Sub(scheduledEnd).Minutes() - p.IdleGraceMinutes
		if idleMinutes < 0 {
			idleMinutes = 0
		}
		idleFee = decimal.NewFromFloat(idleMinutes).Mul(p.IdleFeePerMinute)
	}

	cancelFee := decimal.Zero
	if in.CancelledBy != "" {
		unusedMinutes := in.BookedHours*60 - actualMinutes
		if unusedMinutes < 0 {
			unusedMinutes = 0
		}
		cancelFee = decimal.NewFromFloat(unusedMinutes / 60).Mul(p.EarlyCancelPerHour)
		if in.CancelledBy == "HOST" {
			cancelFee = cancelFee.Neg()
		}
	}

	subtotal := energyCost.Add(bookingFee).Add(idleFee).Add(lateFee).Add(cancelFee)
	tax := subtotal.Mul(p.TaxRate)

	return Breakdown{
		EnergyCost:           energyCost,
		BookingFee:           bookingFee,
		IdleFee:              idleFee,
		LateArrivalFee:       lateFee,
		EarlyCancellationFee: cancelFee,
		NoShowFee:            decimal.Zero,
		Subtotal:             subtotal,
		Tax:                  tax,
		Total:                subtotal.Add(tax),
		EnergyDelivered:      in.EnergyKWh,
		Detail: Detail{
			EnergyConsumed:      in.EnergyKWh,
			Efficiency:          efficiency,
			BookedDurationHours: in.BookedHours,
			ActualDurationHours: actualHours,
			LateArrivalMinutes:  lateMinutes,
			IdleMinutes:         idleMinutes,
		},
	}
}
