package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PackageType identifies the primary packaging of a PackageSize.
type PackageType string

const (
	PackageTypePET PackageType = "PET"
	PackageTypeCan PackageType = "CAN"
)

// Product is a finished beverage product.
type Product struct {
	ID          int64  `gorm:"primaryKey"`
	Name        string `gorm:"size:100;not null"`
	ProductCode string `gorm:"uniqueIndex;size:50;not null"`
	// Standard syrup ratio used as reference for yield calculations.
	StandardSyrupRatio decimal.Decimal `gorm:"type:decimal(6,3);not null"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// PackageSize describes a package variant, e.g. "500ml" PET in packs of 12.
type PackageSize struct {
	ID          int64       `gorm:"primaryKey"`
	Size        string      `gorm:"size:50;not null"` // e.g. "500ml", "1L"
	PackageType PackageType `gorm:"size:10;not null"`
	VolumeML    int64       `gorm:"not null"` // volume per unit in milliliters
	// Units per pack; converts pack counts to unit counts.
	BottlePerPack int64 `gorm:"not null"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
