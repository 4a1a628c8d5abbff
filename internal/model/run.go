package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ProductionRun is one manufacturing execution on a line during a shift.
//
// TotalDowntimeMinutes holds the sum of this run's unplanned stop-event
// durations and is recomputed by the store on every stop-event write.
type ProductionRun struct {
	ID               int64      `gorm:"primaryKey"`
	OrderID          *int64     `gorm:"index"`
	BatchNumber      string     `gorm:"size:100;not null;uniqueIndex:idx_run_batch_line_date"`
	Date             time.Time  `gorm:"type:date;not null;index;uniqueIndex:idx_run_batch_line_date"`
	ProductionLineID int64      `gorm:"index;not null;uniqueIndex:idx_run_batch_line_date"`
	ProductID        int64      `gorm:"not null"`
	PackageSizeID    int64      `gorm:"not null"`
	ProductionStart  time.Time  `gorm:"not null"`
	ProductionEnd    *time.Time // nil while the run is still in progress

	ShiftID    int64  `gorm:"not null"`
	TeamLeader string `gorm:"size:150;not null"`

	TotalDowntimeMinutes int64           `gorm:"not null;default:0"`
	FinalSyrupVolume     decimal.Decimal `gorm:"type:decimal(10,2);not null"` // liters
	MixingRatio          decimal.Decimal `gorm:"type:decimal(6,3);not null"`
	FillerOutput         decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	GoodProductsPack     int64           `gorm:"not null"` // packs, not units

	IsCompleted bool `gorm:"not null;default:false"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Associations. The run exclusively owns its child records.
	Order             *ManufacturingOrder `gorm:"constraint:OnDelete:SET NULL"`
	ProductionLine    ProductionLine      `gorm:"constraint:OnDelete:CASCADE"`
	Product           Product             `gorm:"constraint:OnDelete:CASCADE"`
	PackageSize       PackageSize         `gorm:"constraint:OnDelete:CASCADE"`
	Shift             Shift               `gorm:"constraint:OnDelete:CASCADE"`
	StopEvents        []StopEvent         `gorm:"foreignKey:ProductionRunID;constraint:OnDelete:CASCADE"`
	PackagingMaterial *PackagingMaterial  `gorm:"foreignKey:ProductionRunID;constraint:OnDelete:CASCADE"`
	Utility           *Utility            `gorm:"foreignKey:ProductionRunID;constraint:OnDelete:CASCADE"`
	Report            *ProductionReport   `gorm:"foreignKey:ProductionRunID;constraint:OnDelete:CASCADE"`
}

// GenerateBatchNumber derives the batch number for a run from its product,
// package size, shift, date and line. The result is unique per (line, date)
// as long as the same combination is not entered twice.
func GenerateBatchNumber(product Product, pkg PackageSize, shift Shift, date time.Time, line ProductionLine) string {
	size := strings.ToUpper(strings.ReplaceAll(pkg.Size, " ", ""))
	lineCode := strings.ToUpper(strings.ReplaceAll(line.Name, " ", ""))
	return fmt.Sprintf("%s-%s-%s-%s-%s",
		product.ProductCode,
		size,
		shiftCode(shift.Name),
		date.Format("20060102"),
		lineCode,
	)
}

// shiftCode compacts a shift name like "8H_SHIFT_1" to "S1".
func shiftCode(name string) string {
	if i := strings.LastIndex(name, "_"); i >= 0 && i+1 < len(name) {
		return "S" + name[i+1:]
	}
	return name
}
