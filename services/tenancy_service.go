package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tavrezsi/tavrezsi-api/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TenancyService manages the links between tenants and properties
type TenancyService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewTenancyService creates a tenancy service over db
func NewTenancyService(db *gorm.DB) *TenancyService {
	return &TenancyService{db: db, now: utcNow}
}

// List returns the tenancies of a property the caller manages, with tenant details
func (s *TenancyService) List(ctx context.Context, caller Caller, propertyID uint) ([]models.TenantWithDetails, error) {
	property, err := findProperty(ctx, s.db, propertyID)
	if err != nil {
		return nil, err
	}
	if !canManageTenants(caller, property) {
		return nil, forbidden("you do not manage tenants of this property")
	}

	var rows []models.PropertyTenant
	if err := s.db.WithContext(ctx).Preload("Tenant").
		Where("property_id = ?", property.ID).
		Order("is_active DESC").Order("start_date DESC").Order("id DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}

	out := make([]models.TenantWithDetails, 0, len(rows))
	for _, row := range rows {
		out = append(out, withDetails(row, property))
	}
	return out, nil
}

// Assign links an existing tenant user to a property, active immediately
func (s *TenancyService) Assign(ctx context.Context, caller Caller, propertyID, tenantID uint) (*models.TenantWithDetails, error) {
	if propertyID == 0 {
		return nil, invalid("propertyId", "propertyId is required")
	}
	if tenantID == 0 {
		return nil, invalid("tenantId", "tenantId is required")
	}

	var created models.TenantWithDetails
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		property, err := lockProperty(ctx, tx, propertyID)
		if err != nil {
			return err
		}
		if !canManageTenants(caller, property) {
			return forbidden("you do not manage tenants of this property")
		}

		var tenant models.User
		if err := tx.First(&tenant, tenantID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("user")
			}
			return fmt.Errorf("failed to load tenant: %w", err)
		}
		if tenant.Role != models.RoleTenant {
			return invalid("tenantId", "user does not have the tenant role")
		}

		if err := ensureNoActiveTenancy(tx, property.ID, tenant.ID, 0); err != nil {
			return err
		}

		row := models.PropertyTenant{
			PropertyID: property.ID,
			TenantID:   tenant.ID,
			StartDate:  s.now(),
			IsActive:   true,
		}
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return errAlreadyTenant()
			}
			return fmt.Errorf("failed to create tenancy: %w", err)
		}

		row.Tenant = &tenant
		created = withDetails(row, property)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// SetActive ends or resumes a tenancy. Ending stamps the end date and removes
// the tenant's access; resuming clears it.
func (s *TenancyService) SetActive(ctx context.Context, caller Caller, id uint, active bool) (*models.TenantWithDetails, error) {
	var updated models.TenantWithDetails
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := findTenancy(tx, id)
		if err != nil {
			return err
		}
		property, err := lockProperty(ctx, tx, row.PropertyID)
		if err != nil {
			return err
		}
		if !canManageTenants(caller, property) {
			return forbidden("you do not manage tenants of this property")
		}

		if row.IsActive != active {
			updates := map[string]interface{}{"is_active": active}
			if active {
				if err := ensureNoActiveTenancy(tx, row.PropertyID, row.TenantID, row.ID); err != nil {
					return err
				}
				updates["end_date"] = nil
				row.EndDate = nil
			} else {
				now := s.now()
				updates["end_date"] = now
				row.EndDate = &now
			}
			if err := tx.Model(&models.PropertyTenant{}).Where("id = ?", row.ID).Updates(updates).Error; err != nil {
				if isUniqueViolation(err) {
					return errAlreadyTenant()
				}
				return fmt.Errorf("failed to update tenancy: %w", err)
			}
			row.IsActive = active
		}

		updated = withDetails(*row, property)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes a tenancy row
func (s *TenancyService) Delete(ctx context.Context, caller Caller, id uint) error {
	row, err := findTenancy(s.db.WithContext(ctx), id)
	if err != nil {
		return err
	}
	property, err := findProperty(ctx, s.db, row.PropertyID)
	if err != nil {
		return err
	}
	if !canManageTenants(caller, property) {
		return forbidden("you do not manage tenants of this property")
	}

	if err := s.db.WithContext(ctx).Delete(&models.PropertyTenant{}, row.ID).Error; err != nil {
		return fmt.Errorf("failed to delete tenancy: %w", err)
	}
	return nil
}

func findTenancy(db *gorm.DB, id uint) (*models.PropertyTenant, error) {
	var row models.PropertyTenant
	if err := db.Preload("Tenant").First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("tenancy")
		}
		return nil, fmt.Errorf("failed to load tenancy: %w", err)
	}
	return &row, nil
}

// lockProperty loads a property with a row lock so tenancy changes on the
// same property are serialized
func lockProperty(ctx context.Context, tx *gorm.DB, id uint) (*models.Property, error) {
	var property models.Property
	err := tx.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&property, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("property")
		}
		return nil, fmt.Errorf("failed to load property: %w", err)
	}
	return &property, nil
}

// ensureNoActiveTenancy fails when the pair already has an active row other than exceptID
func ensureNoActiveTenancy(tx *gorm.DB, propertyID, tenantID, exceptID uint) error {
	var count int64
	query := tx.Model(&models.PropertyTenant{}).
		Where("property_id = ? AND tenant_id = ? AND is_active = ?", propertyID, tenantID, true)
	if exceptID != 0 {
		query = query.Where("id <> ?", exceptID)
	}
	if err := query.Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check tenancies: %w", err)
	}
	if count > 0 {
		return errAlreadyTenant()
	}
	return nil
}

func errAlreadyTenant() error {
	return &ConflictError{Resource: "tenancy", Message: "user is already a tenant of this property"}
}

func withDetails(row models.PropertyTenant, property *models.Property) models.TenantWithDetails {
	return models.TenantWithDetails{
		PropertyTenant: row,
		PropertyName:   property.Name,
		Tenant:         models.NewTenantSummary(row.Tenant),
	}
}
