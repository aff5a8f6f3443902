package models

import (
	"time"
)

// Correction request statuses. Approved and rejected are terminal.
const (
	CorrectionStatusPending  = "pending"
	CorrectionStatusApproved = "approved"
	CorrectionStatusRejected = "rejected"
)

// CorrectionRequest proposes an override of a meter's current value
type CorrectionRequest struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	MeterID          uint       `gorm:"not null;index" json:"meterId"`
	Meter            *Meter     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	RequestedReading int64      `gorm:"not null" json:"requestedReading"`
	RequestedByID    uint       `gorm:"not null;index" json:"requestedById"`
	RequestedBy      *User      `gorm:"foreignKey:RequestedByID;constraint:OnDelete:CASCADE" json:"-"`
	Reason           string     `gorm:"type:text;not null" json:"reason"`
	Status           string     `gorm:"type:varchar(16);not null;index" json:"status"`
	CreatedAt        time.Time  `json:"createdAt"`
	ResolvedAt       *time.Time `json:"resolvedAt"`
	ResolvedByID     *uint      `json:"resolvedById"`
	ResolvedBy       *User      `gorm:"foreignKey:ResolvedByID;constraint:OnDelete:SET NULL" json:"-"`
}

// TableName specifies the table name for the CorrectionRequest model
func (CorrectionRequest) TableName() string {
	return "correction_requests"
}

// IsValidCorrectionStatus reports whether status is a known status
func IsValidCorrectionStatus(status string) bool {
	switch status {
	case CorrectionStatusPending, CorrectionStatusApproved, CorrectionStatusRejected:
		return true
	}
	return false
}
