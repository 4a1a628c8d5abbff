// Package metrics holds the pure OEE and yield calculators. Every function
// works on an already-fetched RunData snapshot and never touches storage.
//
// Calculators never fail: a missing precondition degrades to 0.00 (for the
// always-present OEE components) or to an invalid NullDecimal (for metrics
// that depend on an optional sub-record), so data entry is never blocked.
package metrics

import (
	"github.com/shopspring/decimal"

	"production-tracking-backend/internal/model"
)

var (
	hundred     = decimal.NewFromInt(100)
	tenThousand = decimal.NewFromInt(10000)
	sixty       = decimal.NewFromInt(60)
	thousand    = decimal.NewFromInt(1000)

	// Reference CO2 consumption per good pack, in kg.
	co2KgPerPack = decimal.NewFromFloat(0.1)
)

// RunData is the snapshot of a production run and its related records that
// the calculators operate on. Packaging and Utility are nil when the
// sub-record has not been entered; MainMachine is nil when no machine on the
// run's line carries the main-machine flag.
type RunData struct {
	Run         model.ProductionRun
	PackageSize model.PackageSize
	Shift       model.Shift
	MainMachine *model.Machine
	Packaging   *model.PackagingMaterial
	Utility     *model.Utility
}

// GoodUnits converts the run's good pack count to packaging units.
func (d *RunData) GoodUnits() decimal.Decimal {
	return decimal.NewFromInt(d.Run.GoodProductsPack * d.PackageSize.BottlePerPack)
}

// ElapsedMinutes is the recorded production duration, zero while the run has
// no end timestamp.
func (d *RunData) ElapsedMinutes() decimal.Decimal {
	if d.Run.ProductionEnd == nil {
		return decimal.Zero
	}
	return decimal.NewFromFloat(d.Run.ProductionEnd.Sub(d.Run.ProductionStart).Minutes())
}

// PlannedMinutes is the planned production time: the actual elapsed duration
// when one is recorded and positive, otherwise the shift's nominal duration.
func (d *RunData) PlannedMinutes() decimal.Decimal {
	if elapsed := d.ElapsedMinutes(); elapsed.IsPositive() {
		return elapsed
	}
	return d.Shift.DurationHours.Mul(sixty)
}

func (d *RunData) downtimeMinutes() decimal.Decimal {
	return decimal.NewFromInt(d.Run.TotalDowntimeMinutes)
}

// Availability = (planned production time - unplanned downtime) / planned
// production time * 100. Downtime exceeding the planned time yields a
// negative result on purpose.
func Availability(d *RunData) decimal.Decimal {
	planned := d.PlannedMinutes()
	if !planned.IsPositive() {
		return decimal.Zero.Round(2)
	}
	return planned.Sub(d.downtimeMinutes()).Div(planned).Mul(hundred).Round(2)
}

// Performance = good units / theoretical output * 100, where theoretical
// output is the line's main-machine rated output over the operating hours.
// The result is deliberately not clamped to 100: a value above it signals a
// process or data-entry error and must stay visible.
func Performance(d *RunData) decimal.Decimal {
	elapsed := d.ElapsedMinutes()
	if d.MainMachine == nil || !elapsed.IsPositive() {
		return decimal.Zero.Round(2)
	}
	operatingHours := elapsed.Sub(d.downtimeMinutes()).Div(sixty)
	if !operatingHours.IsPositive() {
		return decimal.Zero.Round(2)
	}
	theoretical := d.MainMachine.RatedOutput.Mul(operatingHours)
	if !theoretical.IsPositive() {
		return decimal.Zero.Round(2)
	}
	return d.GoodUnits().Div(theoretical).Mul(hundred).Round(2)
}

// Quality = good units / (good units + product rejects + bottle rejects) * 100.
// Zero without a packaging record or a positive denominator.
func Quality(d *RunData) decimal.Decimal {
	if d.Packaging == nil {
		return decimal.Zero.Round(2)
	}
	good := d.GoodUnits()
	total := good.
		Add(decimal.NewFromInt(intOrZero(d.Packaging.QtyProductReject))).
		Add(decimal.NewFromInt(intOrZero(d.Packaging.QtyBottleReject)))
	if !total.IsPositive() {
		return decimal.Zero.Round(2)
	}
	return good.Div(total).Mul(hundred).Round(2)
}

// OEE is the textbook identity availability * performance * quality / 10000,
// never re-derived from raw counts.
func OEE(availability, performance, quality decimal.Decimal) decimal.Decimal {
	return availability.Mul(performance).Mul(quality).Div(tenThousand).Round(2)
}

// SyrupYield compares the syrup volume implied by the good output and the
// run's mixing ratio against the measured final syrup volume. A non-positive
// expected or measured volume yields 0.00.
func SyrupYield(d *RunData) decimal.Decimal {
	if !d.Run.MixingRatio.IsPositive() {
		return decimal.Zero.Round(2)
	}
	expectedL := d.GoodUnits().
		Mul(decimal.NewFromInt(d.PackageSize.VolumeML)).
		Div(d.Run.MixingRatio.Mul(thousand))
	if !expectedL.IsPositive() || !d.Run.FinalSyrupVolume.IsPositive() {
		return decimal.Zero.Round(2)
	}
	return expectedL.Div(d.Run.FinalSyrupVolume).Mul(hundred).Round(2)
}

// PreformYield = preforms used / (used + rejected) * 100. Invalid without a
// packaging record or any preform counts.
func PreformYield(d *RunData) decimal.NullDecimal {
	if d.Packaging == nil {
		return decimal.NullDecimal{}
	}
	used := decimal.NewFromInt(intOrZero(d.Packaging.QtyPreformUsed))
	total := used.Add(decimal.NewFromInt(intOrZero(d.Packaging.QtyPreformReject)))
	if !total.IsPositive() {
		return decimal.NullDecimal{}
	}
	return valid(used.Div(total).Mul(hundred))
}

// BottleRejectPercentage = rejected bottles / (good units + rejected) * 100.
func BottleRejectPercentage(d *RunData) decimal.NullDecimal {
	if d.Packaging == nil {
		return decimal.NullDecimal{}
	}
	rejects := decimal.NewFromInt(intOrZero(d.Packaging.QtyBottleReject))
	total := d.GoodUnits().Add(rejects)
	if !total.IsPositive() {
		return decimal.NullDecimal{}
	}
	return valid(rejects.Div(total).Mul(hundred))
}

// CO2Utilization compares the reference CO2 consumption for the good output
// against the measured usage. Invalid without a utility record, a positive
// measured quantity and a positive pack count.
func CO2Utilization(d *RunData) decimal.NullDecimal {
	if d.Utility == nil || !d.Utility.KgCO2.Valid {
		return decimal.NullDecimal{}
	}
	if d.Run.GoodProductsPack <= 0 || !d.Utility.KgCO2.Decimal.IsPositive() {
		return decimal.NullDecimal{}
	}
	expected := decimal.NewFromInt(d.Run.GoodProductsPack).Mul(co2KgPerPack)
	return valid(expected.Div(d.Utility.KgCO2.Decimal).Mul(hundred))
}

func valid(v decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: v.Round(2), Valid: true}
}

func intOrZero(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
