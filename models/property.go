package models

import (
	"time"
)

// Property represents a rental property managed by an owner
type Property struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Address   string    `gorm:"not null" json:"address"`
	OwnerID   uint      `gorm:"not null;index" json:"ownerId"`
	Owner     *User     `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}

// TableName specifies the table name for the Property model
func (Property) TableName() string {
	return "properties"
}
