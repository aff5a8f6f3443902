package models

import (
	"time"
)

// Utility types a meter can measure
const (
	MeterTypeElectricity = "electricity"
	MeterTypeGas         = "gas"
	MeterTypeWater       = "water"
	MeterTypeOther       = "other"
)

// Meter represents a utility meter installed at a property
type Meter struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	Identifier        string     `gorm:"uniqueIndex;not null" json:"identifier"`
	Name              string     `gorm:"not null" json:"name"`
	Type              string     `gorm:"type:varchar(16);not null;check:type IN ('electricity','gas','water','other')" json:"type"`
	Unit              string     `gorm:"not null" json:"unit"`
	PropertyID        uint       `gorm:"not null;index" json:"propertyId"`
	Property          *Property  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	LastCertified     *time.Time `json:"lastCertified"`
	NextCertification *time.Time `json:"nextCertification"`
	CreatedAt         time.Time  `json:"createdAt"`
}

// TableName specifies the table name for the Meter model
func (Meter) TableName() string {
	return "meters"
}

// IsValidMeterType reports whether t is a supported meter type
func IsValidMeterType(t string) bool {
	switch t {
	case MeterTypeElectricity, MeterTypeGas, MeterTypeWater, MeterTypeOther:
		return true
	}
	return false
}
