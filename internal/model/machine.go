package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Machine belongs to a production line. The machine flagged as MainMachine
// governs the line's theoretical output for performance calculations.
type Machine struct {
	ID               int64  `gorm:"primaryKey"`
	ProductionLineID int64  `gorm:"index;not null;uniqueIndex:idx_machine_line_name"`
	MachineName      string `gorm:"size:100;not null;uniqueIndex:idx_machine_line_name"`
	MachineCode      string `gorm:"size:100;not null"`
	Description      string
	IsActive         bool            `gorm:"not null;default:true"`
	MainMachine      bool            `gorm:"not null;default:false"`
	RatedOutput      decimal.Decimal `gorm:"type:decimal(10,2);not null"` // units per hour
	CreatedAt        time.Time
	UpdatedAt        time.Time

	// Associations
	ProductionLine ProductionLine `gorm:"constraint:OnDelete:CASCADE"`
}

// DowntimeCode is a catalogued downtime reason for a machine.
type DowntimeCode struct {
	ID        int64  `gorm:"primaryKey"`
	MachineID int64  `gorm:"index;not null"`
	Code      string `gorm:"uniqueIndex;size:100;not null"`
	Reason    string
	CreatedAt time.Time
	UpdatedAt time.Time

	// Associations
	Machine Machine `gorm:"constraint:OnDelete:CASCADE"`
}
