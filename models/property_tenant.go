package models

import (
	"time"
)

// PropertyTenant links a tenant user to a property. Historical links are
// kept as inactive rows; at most one row per (property, tenant) is active.
type PropertyTenant struct {
	ID            uint                `gorm:"primaryKey" json:"id"`
	PropertyID    uint                `gorm:"not null;index;uniqueIndex:idx_property_tenants_active,priority:1,where:is_active = true" json:"propertyId"`
	Property      *Property           `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	TenantID      uint                `gorm:"not null;index;uniqueIndex:idx_property_tenants_active,priority:2,where:is_active = true" json:"tenantId"`
	Tenant        *User               `gorm:"foreignKey:TenantID;constraint:OnDelete:CASCADE" json:"-"`
	StartDate     time.Time           `gorm:"not null" json:"startDate"`
	EndDate       *time.Time          `json:"endDate"`
	IsActive      bool                `gorm:"not null" json:"isActive"`
	InviteTokenID *uint               `gorm:"index" json:"-"` // token whose completion activates this link
	InviteToken   *PasswordResetToken `gorm:"foreignKey:InviteTokenID;constraint:OnDelete:SET NULL" json:"-"`
}

// TableName specifies the table name for the PropertyTenant model
func (PropertyTenant) TableName() string {
	return "property_tenants"
}

// TenantSummary is the public part of a tenant's user record
type TenantSummary struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

// TenantWithDetails is a tenancy joined with its tenant and property name
type TenantWithDetails struct {
	PropertyTenant
	PropertyName string         `json:"propertyName"`
	Tenant       *TenantSummary `json:"tenant"`
}

// NewTenantSummary strips the secret fields from a user
func NewTenantSummary(u *User) *TenantSummary {
	if u == nil {
		return nil
	}
	return &TenantSummary{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Name:     u.Name,
		Role:     u.Role,
	}
}
