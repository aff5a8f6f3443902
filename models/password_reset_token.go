package models

import (
	"time"
)

// PasswordResetTokenTTL is how long a credential-setup token stays valid
const PasswordResetTokenTTL = 24 * time.Hour

// Token purposes. Both use the same reset mechanism with different email copy.
const (
	TokenPurposePasswordReset = "password-reset"
	TokenPurposeTenantInvite  = "tenant-invite"
)

// PasswordResetToken is a single-use credential-setup token. Only the
// SHA-256 hash of the token is stored.
type PasswordResetToken struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"userId"`
	User      *User     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	TokenHash string    `gorm:"uniqueIndex;not null" json:"-"`
	Purpose   string    `gorm:"type:varchar(32);not null" json:"purpose"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `gorm:"not null" json:"expiresAt"`
	IsUsed    bool      `gorm:"not null" json:"isUsed"`
}

// TableName specifies the table name for the PasswordResetToken model
func (PasswordResetToken) TableName() string {
	return "password_reset_tokens"
}

// IsExpired reports whether the token expired at the given instant
func (t *PasswordResetToken) IsExpired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
