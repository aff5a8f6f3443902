package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tavrezsi/tavrezsi-api/models"
	"gorm.io/gorm"
)

// MeterService exposes role-scoped access to meters
type MeterService struct {
	db *gorm.DB
}

// NewMeterService creates a meter service over db
func NewMeterService(db *gorm.DB) *MeterService {
	return &MeterService{db: db}
}

// CreateMeterInput holds the fields of a new meter
type CreateMeterInput struct {
	Identifier        string
	Name              string
	Type              string
	Unit              string
	PropertyID        uint
	LastCertified     *time.Time
	NextCertification *time.Time
}

// List returns visible meters, optionally restricted to one property. A
// property filter must name an existing property inside the caller's scope.
func (s *MeterService) List(ctx context.Context, caller Caller, propertyID *uint) ([]models.Meter, error) {
	scope, err := ScopeFor(ctx, s.db, caller)
	if err != nil {
		return nil, err
	}

	query := scope.Apply(s.db.WithContext(ctx).Model(&models.Meter{}), "property_id")
	if propertyID != nil {
		property, err := findProperty(ctx, s.db, *propertyID)
		if err != nil {
			return nil, err
		}
		if !scope.Contains(property.ID) {
			return nil, forbidden("you do not have access to this property")
		}
		query = query.Where("property_id = ?", property.ID)
	}

	meters := []models.Meter{}
	if err := query.Order("id ASC").Find(&meters).Error; err != nil {
		return nil, fmt.Errorf("failed to list meters: %w", err)
	}
	return meters, nil
}

// Get returns a meter if it exists and its property is visible to caller
func (s *MeterService) Get(ctx context.Context, caller Caller, id uint) (*models.Meter, error) {
	meter, err := findMeter(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeMeter(ctx, s.db, caller, meter); err != nil {
		return nil, err
	}
	return meter, nil
}

// Create adds a meter to an existing property
func (s *MeterService) Create(ctx context.Context, caller Caller, input CreateMeterInput) (*models.Meter, error) {
	input.Identifier = strings.TrimSpace(input.Identifier)
	input.Name = strings.TrimSpace(input.Name)
	input.Unit = strings.TrimSpace(input.Unit)

	if input.Identifier == "" {
		return nil, invalid("identifier", "identifier is required")
	}
	if input.Name == "" {
		return nil, invalid("name", "name is required")
	}
	if !models.IsValidMeterType(input.Type) {
		return nil, invalid("type", "type must be one of electricity, gas, water, other")
	}
	if input.Unit == "" {
		return nil, invalid("unit", "unit is required")
	}
	if input.PropertyID == 0 {
		return nil, invalid("propertyId", "propertyId is required")
	}

	if _, err := findProperty(ctx, s.db, input.PropertyID); err != nil {
		return nil, err
	}
	if err := requireAdmin(caller, "create meters"); err != nil {
		return nil, err
	}

	meter := models.Meter{
		Identifier:        input.Identifier,
		Name:              input.Name,
		Type:              input.Type,
		Unit:              input.Unit,
		PropertyID:        input.PropertyID,
		LastCertified:     input.LastCertified,
		NextCertification: input.NextCertification,
	}
	if err := s.db.WithContext(ctx).Create(&meter).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, &ConflictError{Resource: "meter", Message: fmt.Sprintf("meter identifier %q already exists", input.Identifier)}
		}
		return nil, fmt.Errorf("failed to create meter: %w", err)
	}
	return &meter, nil
}

// Delete removes a meter together with its readings and correction requests
func (s *MeterService) Delete(ctx context.Context, caller Caller, id uint) error {
	if _, err := findMeter(ctx, s.db, id); err != nil {
		return err
	}
	if err := requireAdmin(caller, "delete meters"); err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(&models.Meter{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete meter: %w", err)
	}
	return nil
}

func findMeter(ctx context.Context, db *gorm.DB, id uint) (*models.Meter, error) {
	var meter models.Meter
	if err := db.WithContext(ctx).First(&meter, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("meter")
		}
		return nil, fmt.Errorf("failed to load meter: %w", err)
	}
	return &meter, nil
}

// authorizeMeter checks that the meter's property is in the caller's scope
func authorizeMeter(ctx context.Context, db *gorm.DB, caller Caller, meter *models.Meter) error {
	scope, err := ScopeFor(ctx, db, caller)
	if err != nil {
		return err
	}
	if !scope.Contains(meter.PropertyID) {
		return forbidden("you do not have access to this meter")
	}
	return nil
}
