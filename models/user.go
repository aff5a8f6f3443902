package models

import (
	"time"
)

// Roles a user can hold. A role is assigned once at creation.
const (
	RoleAdmin  = "admin"
	RoleOwner  = "owner"
	RoleTenant = "tenant"
)

// User represents an account in the system (admin, owner or tenant)
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Name         string    `gorm:"not null" json:"name"`
	Role         string    `gorm:"type:varchar(16);not null;check:role IN ('admin','owner','tenant')" json:"role"`
	IsActivated  bool      `gorm:"not null" json:"isActivated"` // false for invited tenants until credential setup
	CreatedAt    time.Time `json:"createdAt"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// IsValidRole reports whether role is one of the known roles
func IsValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleOwner, RoleTenant:
		return true
	}
	return false
}
