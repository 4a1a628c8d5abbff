package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Recognized shift patterns.
const (
	Shift8H1  = "8H_SHIFT_1"
	Shift8H2  = "8H_SHIFT_2"
	Shift8H3  = "8H_SHIFT_3"
	Shift12H1 = "12H_SHIFT_1"
	Shift12H2 = "12H_SHIFT_2"
)

// Shift is a nominal working shift. DurationHours is the fallback planned
// production time when a run has no recorded end timestamp.
type Shift struct {
	ID            int64           `gorm:"primaryKey"`
	Name          string          `gorm:"size:20;not null;uniqueIndex"`
	StartTime     string          `gorm:"size:5;not null"` // "HH:MM"
	EndTime       string          `gorm:"size:5;not null"`
	DurationHours decimal.Decimal `gorm:"type:decimal(4,2);not null"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
