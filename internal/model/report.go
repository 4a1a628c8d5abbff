package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductionReport holds the metrics derived from one run. It is owned by
// the report builder: created lazily on first calculation and overwritten
// whole on every recalculation, never hand-edited.
//
// The OEE components are always written. The remaining fields stay null
// until the sub-record they depend on exists ("not yet measured" rather than
// "measured as zero").
type ProductionReport struct {
	ID              int64 `gorm:"primaryKey"`
	ProductionRunID int64 `gorm:"uniqueIndex;not null"`

	Availability decimal.Decimal `gorm:"type:decimal(7,2)"`
	Performance  decimal.Decimal `gorm:"type:decimal(7,2)"`
	Quality      decimal.Decimal `gorm:"type:decimal(7,2)"`
	OEE          decimal.Decimal `gorm:"column:oee;type:decimal(7,2)"`

	SyrupYieldPercentage     decimal.Decimal     `gorm:"type:decimal(7,2)"`
	PreformYieldPercentage   decimal.NullDecimal `gorm:"type:decimal(7,2)"`
	BottleRejectPercentage   decimal.NullDecimal `gorm:"type:decimal(7,2)"`
	LabelRejectPercentage    decimal.NullDecimal `gorm:"type:decimal(7,2)"`
	ShrinkWrapPercentage     decimal.NullDecimal `gorm:"type:decimal(7,2)"`
	CO2UtilizationPercentage decimal.NullDecimal `gorm:"column:co2_utilization_percentage;type:decimal(7,2)"`

	CalculatedAt time.Time `gorm:"not null"`
}

// OEEGrade buckets an OEE value against common industry thresholds.
func (r *ProductionReport) OEEGrade() string {
	switch v, _ := r.OEE.Float64(); {
	case v >= 85:
		return "World Class"
	case v >= 70:
		return "Good"
	case v >= 50:
		return "Fair"
	default:
		return "Poor"
	}
}
