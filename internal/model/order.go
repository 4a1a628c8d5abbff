package model

import "time"

// OrderStatus is the lifecycle state of a manufacturing order.
type OrderStatus string

const (
	OrderPending    OrderStatus = "Pending"
	OrderInProgress OrderStatus = "In Progress"
	OrderCompleted  OrderStatus = "Completed"
	OrderCancelled  OrderStatus = "Cancelled"
)

// ManufacturingOrder is the planned quantity a set of production runs works
// against.
type ManufacturingOrder struct {
	ID            int64     `gorm:"primaryKey"`
	OrderNumber   string    `gorm:"uniqueIndex;size:100;not null"`
	OrderDate     time.Time `gorm:"type:date;not null"`
	ProductID     int64     `gorm:"not null"`
	PackageSizeID int64     `gorm:"not null"`
	QuantityPacks int64     `gorm:"not null"`
	Status        OrderStatus `gorm:"size:50;not null"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// Associations
	Product     Product     `gorm:"constraint:OnDelete:CASCADE"`
	PackageSize PackageSize `gorm:"constraint:OnDelete:CASCADE"`
}
