package model

import "time"

// StopEvent is one downtime occurrence during a run. Planned stops (CIP,
// changeover) do not count against the run's unplanned downtime total.
type StopEvent struct {
	ID              int64 `gorm:"primaryKey"`
	ProductionRunID int64 `gorm:"index;not null"`
	MachineID       int64 `gorm:"index;not null"`
	CodeID          int64 `gorm:"not null"`
	Reason          string
	DurationMinutes int64     `gorm:"not null"`
	IsPlanned       bool      `gorm:"not null;default:false"`
	Timestamp       time.Time `gorm:"autoCreateTime"`

	// Associations
	Machine Machine      `gorm:"constraint:OnDelete:CASCADE"`
	Code    DowntimeCode `gorm:"constraint:OnDelete:CASCADE"`
}
