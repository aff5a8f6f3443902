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

// Reading list limits
const (
	DefaultReadingLimit = 100
	MaxReadingLimit     = 1000
)

// ReadingService exposes role-scoped access to meter readings
type ReadingService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewReadingService creates a reading service over db
func NewReadingService(db *gorm.DB) *ReadingService {
	return &ReadingService{db: db, now: utcNow}
}

// List returns visible readings, newest first. A zero limit selects the default.
// A meter filter must name an existing meter inside the caller's scope.
func (s *ReadingService) List(ctx context.Context, caller Caller, meterID *uint, limit int) ([]models.Reading, error) {
	switch {
	case limit < 0:
		return nil, invalid("limit", "limit must not be negative")
	case limit == 0:
		limit = DefaultReadingLimit
	case limit > MaxReadingLimit:
		limit = MaxReadingLimit
	}

	scope, err := ScopeFor(ctx, s.db, caller)
	if err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).Model(&models.Reading{}).
		Joins("JOIN meters ON meters.id = readings.meter_id")
	query = scope.Apply(query, "meters.property_id")
	if meterID != nil {
		meter, err := findMeter(ctx, s.db, *meterID)
		if err != nil {
			return nil, err
		}
		if !scope.Contains(meter.PropertyID) {
			return nil, forbidden("you do not have access to this meter")
		}
		query = query.Where("readings.meter_id = ?", meter.ID)
	}

	readings := []models.Reading{}
	if err := query.Order("readings.timestamp DESC").Order("readings.id DESC").
		Limit(limit).Find(&readings).Error; err != nil {
		return nil, fmt.Errorf("failed to list readings: %w", err)
	}
	return readings, nil
}

// Latest returns the reading with the greatest timestamp for a visible meter
func (s *ReadingService) Latest(ctx context.Context, caller Caller, meterID uint) (*models.Reading, error) {
	meter, err := findMeter(ctx, s.db, meterID)
	if err != nil {
		return nil, err
	}
	if err := authorizeMeter(ctx, s.db, caller, meter); err != nil {
		return nil, err
	}

	var reading models.Reading
	err = s.db.WithContext(ctx).Where("readings.meter_id = ?", meter.ID).
		Order("readings.timestamp DESC").Order("readings.id DESC").First(&reading).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("reading")
		}
		return nil, fmt.Errorf("failed to load latest reading: %w", err)
	}
	return &reading, nil
}

// Create records a manual reading submitted by caller
func (s *ReadingService) Create(ctx context.Context, caller Caller, meterID uint, value int64) (*models.Reading, error) {
	if meterID == 0 {
		return nil, invalid("meterId", "meterId is required")
	}
	if value < 0 {
		return nil, invalid("reading", "reading must not be negative")
	}
	if caller.IsOwner() {
		return nil, forbidden("owners may not submit readings")
	}

	meter, err := findMeter(ctx, s.db, meterID)
	if err != nil {
		return nil, err
	}
	if err := authorizeMeter(ctx, s.db, caller, meter); err != nil {
		return nil, err
	}

	submitter := caller.ID
	reading := models.Reading{
		MeterID:       meter.ID,
		Reading:       value,
		Timestamp:     s.now(),
		IsIoT:         false,
		SubmittedByID: &submitter,
	}
	if err := s.db.WithContext(ctx).Create(&reading).Error; err != nil {
		return nil, fmt.Errorf("failed to create reading: %w", err)
	}
	return &reading, nil
}

// RecordDevice stores an automated reading for the meter with the given
// identifier. A nil timestamp records the current time.
func (s *ReadingService) RecordDevice(ctx context.Context, caller Caller, identifier string, value int64, timestamp *time.Time) (*models.Reading, error) {
	if err := requireAdmin(caller, "ingest device readings"); err != nil {
		return nil, err
	}

	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, invalid("meterIdentifier", "meterIdentifier is required")
	}
	if value < 0 {
		return nil, invalid("reading", "reading must not be negative")
	}

	var meter models.Meter
	if err := s.db.WithContext(ctx).Where("identifier = ?", identifier).First(&meter).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("meter")
		}
		return nil, fmt.Errorf("failed to load meter: %w", err)
	}

	ts := s.now()
	if timestamp != nil {
		ts = timestamp.UTC()
	}
	reading := models.Reading{
		MeterID:   meter.ID,
		Reading:   value,
		Timestamp: ts,
		IsIoT:     true,
	}
	if err := s.db.WithContext(ctx).Create(&reading).Error; err != nil {
		return nil, fmt.Errorf("failed to record device reading: %w", err)
	}
	return &reading, nil
}
