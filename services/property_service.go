package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tavrezsi/tavrezsi-api/models"
	"gorm.io/gorm"
)

// PropertyService exposes role-scoped access to properties
type PropertyService struct {
	db *gorm.DB
}

// NewPropertyService creates a property service over db
func NewPropertyService(db *gorm.DB) *PropertyService {
	return &PropertyService{db: db}
}

// CreatePropertyInput holds the fields of a new property
type CreatePropertyInput struct {
	Name    string
	Address string
	OwnerID uint
}

// List returns the properties visible to caller, ordered by id
func (s *PropertyService) List(ctx context.Context, caller Caller) ([]models.Property, error) {
	scope, err := ScopeFor(ctx, s.db, caller)
	if err != nil {
		return nil, err
	}

	properties := []models.Property{}
	query := scope.Apply(s.db.WithContext(ctx).Model(&models.Property{}), "id")
	if err := query.Order("id ASC").Find(&properties).Error; err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	return properties, nil
}

// Get returns a property if it exists and is visible to caller
func (s *PropertyService) Get(ctx context.Context, caller Caller, id uint) (*models.Property, error) {
	property, err := findProperty(ctx, s.db, id)
	if err != nil {
		return nil, err
	}

	scope, err := ScopeFor(ctx, s.db, caller)
	if err != nil {
		return nil, err
	}
	if !scope.Contains(property.ID) {
		return nil, forbidden("you do not have access to this property")
	}
	return property, nil
}

// Create adds a property owned by input.OwnerID
func (s *PropertyService) Create(ctx context.Context, caller Caller, input CreatePropertyInput) (*models.Property, error) {
	if err := requireAdmin(caller, "create properties"); err != nil {
		return nil, err
	}

	input.Name = strings.TrimSpace(input.Name)
	input.Address = strings.TrimSpace(input.Address)
	if input.Name == "" {
		return nil, invalid("name", "name is required")
	}
	if input.Address == "" {
		return nil, invalid("address", "address is required")
	}
	if input.OwnerID == 0 {
		return nil, invalid("ownerId", "ownerId is required")
	}

	var owner models.User
	if err := s.db.WithContext(ctx).First(&owner, input.OwnerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invalid("ownerId", "owner does not exist")
		}
		return nil, fmt.Errorf("failed to load owner: %w", err)
	}
	if owner.Role != models.RoleOwner && owner.Role != models.RoleAdmin {
		return nil, invalid("ownerId", "owner must have the owner or admin role")
	}

	property := models.Property{
		Name:    input.Name,
		Address: input.Address,
		OwnerID: owner.ID,
	}
	if err := s.db.WithContext(ctx).Create(&property).Error; err != nil {
		return nil, fmt.Errorf("failed to create property: %w", err)
	}
	return &property, nil
}

// Delete removes a property together with its meters, readings and tenancies
func (s *PropertyService) Delete(ctx context.Context, caller Caller, id uint) error {
	if _, err := findProperty(ctx, s.db, id); err != nil {
		return err
	}
	if err := requireAdmin(caller, "delete properties"); err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(&models.Property{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete property: %w", err)
	}
	return nil
}

func findProperty(ctx context.Context, db *gorm.DB, id uint) (*models.Property, error) {
	var property models.Property
	if err := db.WithContext(ctx).First(&property, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("property")
		}
		return nil, fmt.Errorf("failed to load property: %w", err)
	}
	return &property, nil
}
