package models

import (
	"time"
)

// Reading is a single value recorded for a meter. Readings are append-only.
type Reading struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	MeterID       uint      `gorm:"not null;index:idx_readings_meter_timestamp,priority:1" json:"meterId"`
	Meter         *Meter    `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Reading       int64     `gorm:"not null" json:"reading"`
	Timestamp     time.Time `gorm:"not null;index:idx_readings_meter_timestamp,priority:2" json:"timestamp"`
	IsIoT         bool      `gorm:"column:is_iot;not null" json:"isIoT"` // true for automated device submissions
	SubmittedByID *uint     `gorm:"index" json:"submittedById"`
	SubmittedBy   *User     `gorm:"foreignKey:SubmittedByID;constraint:OnDelete:SET NULL" json:"-"`
}

// TableName specifies the table name for the Reading model
func (Reading) TableName() string {
	return "readings"
}
