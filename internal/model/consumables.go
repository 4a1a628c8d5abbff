package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PackagingMaterial records consumable usage for one run. Nil counts mean
// "not applicable for this line type" (PET-only vs can-only fields), which is
// distinct from a recorded zero.
type PackagingMaterial struct {
	ID              int64 `gorm:"primaryKey"`
	ProductionRunID int64 `gorm:"uniqueIndex;not null"`

	QtyPreformUsed   *int64
	QtyCapUsed       *int64
	QtyBottleUsed    *int64
	QtyCanUsed       *int64
	QtyCartonUsed    *int64
	QtyProductReject *int64
	QtyPreformReject *int64
	QtyBottleReject  *int64
	QtyCapReject     *int64

	LabelRejectG  decimal.NullDecimal `gorm:"type:decimal(10,2)"`
	ShrinkWrapKG  decimal.NullDecimal `gorm:"type:decimal(10,2)"`
	StretchWrapG  decimal.NullDecimal `gorm:"type:decimal(10,2)"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Utility records utility consumption for one run.
type Utility struct {
	ID              int64 `gorm:"primaryKey"`
	ProductionRunID int64 `gorm:"uniqueIndex;not null"`

	KgCO2               decimal.NullDecimal `gorm:"column:kg_co2;type:decimal(10,2)"`
	BoilerFuelL         decimal.NullDecimal `gorm:"type:decimal(10,2)"`
	GeneratorFuelL      decimal.NullDecimal `gorm:"type:decimal(10,2)"`
	PowerConsumptionKWH decimal.NullDecimal `gorm:"column:power_consumption_kwh;type:decimal(10,2)"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
