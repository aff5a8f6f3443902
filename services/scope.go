package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/tavrezsi/tavrezsi-api/models"
	"gorm.io/gorm"
)

// Caller is the authenticated identity a request acts as
type Caller struct {
	ID   uint
	Role string
}

// IsAdmin reports whether the caller holds the admin role
func (c Caller) IsAdmin() bool { return c.Role == models.RoleAdmin }

// IsOwner reports whether the caller holds the owner role
func (c Caller) IsOwner() bool { return c.Role == models.RoleOwner }

// IsTenant reports whether the caller holds the tenant role
func (c Caller) IsTenant() bool { return c.Role == models.RoleTenant }

// PropertySet is the set of property ids a caller may read. The zero value is empty.
type PropertySet struct {
	all   bool
	index map[uint]struct{}
}

// AllProperties returns the unrestricted set granted to admins
func AllProperties() PropertySet {
	return PropertySet{all: true}
}

// NewPropertySet returns a set holding exactly ids
func NewPropertySet(ids ...uint) PropertySet {
	index := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		index[id] = struct{}{}
	}
	return PropertySet{index: index}
}

// All reports whether the set is unrestricted
func (s PropertySet) All() bool { return s.all }

// Contains reports whether propertyID is in the set
func (s PropertySet) Contains(propertyID uint) bool {
	if s.all {
		return true
	}
	_, ok := s.index[propertyID]
	return ok
}

// IDs returns the members in ascending order. It is nil for an unrestricted set.
func (s PropertySet) IDs() []uint {
	if s.all {
		return nil
	}
	ids := make([]uint, 0, len(s.index))
	for id := range s.index {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Apply restricts query to rows whose column references a member property
func (s PropertySet) Apply(query *gorm.DB, column string) *gorm.DB {
	if s.all {
		return query
	}
	ids := s.IDs()
	if len(ids) == 0 {
		return query.Where("1 = 0")
	}
	return query.Where(fmt.Sprintf("%s IN ?", column), ids)
}

// ScopeFor computes the properties visible to caller
func ScopeFor(ctx context.Context, db *gorm.DB, caller Caller) (PropertySet, error) {
	var ids []uint

	switch caller.Role {
	case models.RoleAdmin:
		return AllProperties(), nil
	case models.RoleOwner:
		if err := db.WithContext(ctx).Model(&models.Property{}).
			Where("owner_id = ?", caller.ID).
			Pluck("id", &ids).Error; err != nil {
			return PropertySet{}, fmt.Errorf("failed to load owned properties: %w", err)
		}
	case models.RoleTenant:
		if err := db.WithContext(ctx).Model(&models.PropertyTenant{}).
			Where("tenant_id = ? AND is_active = ?", caller.ID, true).
			Pluck("property_id", &ids).Error; err != nil {
			return PropertySet{}, fmt.Errorf("failed to load tenancies: %w", err)
		}
	default:
		return PropertySet{}, forbidden("unknown role %q", caller.Role)
	}

	return NewPropertySet(ids...), nil
}

// canManageTenants reports whether caller may manage tenancies of property
func canManageTenants(caller Caller, property *models.Property) bool {
	if caller.IsAdmin() {
		return true
	}
	return caller.IsOwner() && property.OwnerID == caller.ID
}

// utcNow is the default clock of the services. Timestamps are stored in UTC.
func utcNow() time.Time { return time.Now().UTC() }

func requireAdmin(caller Caller, action string) error {
	if !caller.IsAdmin() {
		return forbidden("only administrators may %s", action)
	}
	return nil
}
