package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductionLine represents one physical bottling/canning line.
type ProductionLine struct {
	ID          int64  `gorm:"primaryKey"`
	Name        string `gorm:"uniqueIndex;size:100;not null"`
	Description string
	IsActive    bool            `gorm:"not null;default:true"`
	RatedSpeed  decimal.Decimal `gorm:"type:decimal(10,2)"` // bottles per hour
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Associations
	Machines []Machine `gorm:"foreignKey:ProductionLineID"`
}
