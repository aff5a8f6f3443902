package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tavrezsi/tavrezsi-api/logger"
	"github.com/tavrezsi/tavrezsi-api/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CorrectionService implements the correction request workflow
type CorrectionService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewCorrectionService creates a correction service over db
func NewCorrectionService(db *gorm.DB) *CorrectionService {
	return &CorrectionService{db: db, now: utcNow}
}

// CreateCorrectionInput holds the fields of a new correction request
type CreateCorrectionInput struct {
	MeterID          uint
	RequestedReading int64
	Reason           string
}

// List returns visible correction requests, newest first. Admins see all,
// owners see requests on their properties and tenants only their own.
func (s *CorrectionService) List(ctx context.Context, caller Caller, status string) ([]models.CorrectionRequest, error) {
	if status != "" && !models.IsValidCorrectionStatus(status) {
		return nil, invalid("status", "status must be one of pending, approved, rejected")
	}

	query := s.db.WithContext(ctx).Model(&models.CorrectionRequest{})
	switch {
	case caller.IsTenant():
		query = query.Where("correction_requests.requested_by_id = ?", caller.ID)
	default:
		scope, err := ScopeFor(ctx, s.db, caller)
		if err != nil {
			return nil, err
		}
		if !scope.All() {
			query = scope.Apply(query.Joins("JOIN meters ON meters.id = correction_requests.meter_id"), "meters.property_id")
		}
	}
	if status != "" {
		query = query.Where("correction_requests.status = ?", status)
	}

	requests := []models.CorrectionRequest{}
	if err := query.Order("correction_requests.created_at DESC").Order("correction_requests.id DESC").
		Find(&requests).Error; err != nil {
		return nil, fmt.Errorf("failed to list correction requests: %w", err)
	}
	return requests, nil
}

// Get returns a correction request visible to caller
func (s *CorrectionService) Get(ctx context.Context, caller Caller, id uint) (*models.CorrectionRequest, error) {
	request, err := findCorrection(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeRead(ctx, caller, request); err != nil {
		return nil, err
	}
	return request, nil
}

// Create files a pending correction request on an accessible meter
func (s *CorrectionService) Create(ctx context.Context, caller Caller, input CreateCorrectionInput) (*models.CorrectionRequest, error) {
	input.Reason = strings.TrimSpace(input.Reason)
	if input.MeterID == 0 {
		return nil, invalid("meterId", "meterId is required")
	}
	if input.RequestedReading < 0 {
		return nil, invalid("requestedReading", "requestedReading must not be negative")
	}
	if input.Reason == "" {
		return nil, invalid("reason", "reason is required")
	}
	if caller.IsOwner() {
		return nil, forbidden("owners may not file correction requests")
	}

	meter, err := findMeter(ctx, s.db, input.MeterID)
	if err != nil {
		return nil, err
	}
	if err := authorizeMeter(ctx, s.db, caller, meter); err != nil {
		return nil, err
	}

	request := models.CorrectionRequest{
		MeterID:          meter.ID,
		RequestedReading: input.RequestedReading,
		RequestedByID:    caller.ID,
		Reason:           input.Reason,
		Status:           models.CorrectionStatusPending,
	}
	if err := s.db.WithContext(ctx).Create(&request).Error; err != nil {
		return nil, fmt.Errorf("failed to create correction request: %w", err)
	}
	return &request, nil
}

// Resolve moves a pending request to approved or rejected. Approval appends
// a reading with the requested value in the same transaction.
func (s *CorrectionService) Resolve(ctx context.Context, caller Caller, id uint, status string) (*models.CorrectionRequest, error) {
	if status != models.CorrectionStatusApproved && status != models.CorrectionStatusRejected {
		return nil, invalid("status", "status must be approved or rejected")
	}

	var resolved models.CorrectionRequest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		request, err := findCorrection(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := requireAdmin(caller, "resolve correction requests"); err != nil {
			return err
		}

		now := s.now()
		resolver := caller.ID
		result := tx.Model(&models.CorrectionRequest{}).
			Where("id = ? AND status = ?", request.ID, models.CorrectionStatusPending).
			Updates(map[string]interface{}{
				"status":         status,
				"resolved_at":    now,
				"resolved_by_id": resolver,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to resolve correction request: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return &ConflictError{
				Resource: "correction request",
				Message:  "correction request has already been resolved",
			}
		}

		if status == models.CorrectionStatusApproved {
			reading := models.Reading{
				MeterID:       request.MeterID,
				Reading:       request.RequestedReading,
				Timestamp:     now,
				IsIoT:         false,
				SubmittedByID: &resolver,
			}
			if err := tx.Create(&reading).Error; err != nil {
				return fmt.Errorf("failed to append corrected reading: %w", err)
			}
		}

		request.Status = status
		request.ResolvedAt = &now
		request.ResolvedByID = &resolver
		resolved = *request
		return nil
	})
	if err != nil {
		return nil, err
	}

	correctionResolutions.WithLabelValues(status).Inc()
	logger.Named("corrections").Info("correction request resolved",
		zap.Uint("request_id", resolved.ID),
		zap.Uint("meter_id", resolved.MeterID),
		zap.String("status", status),
		zap.Uint("resolved_by", caller.ID))
	return &resolved, nil
}

func (s *CorrectionService) authorizeRead(ctx context.Context, caller Caller, request *models.CorrectionRequest) error {
	if caller.IsTenant() {
		if request.RequestedByID != caller.ID {
			return forbidden("you do not have access to this correction request")
		}
		return nil
	}

	meter, err := findMeter(ctx, s.db, request.MeterID)
	if err != nil {
		return err
	}
	scope, err := ScopeFor(ctx, s.db, caller)
	if err != nil {
		return err
	}
	if !scope.Contains(meter.PropertyID) {
		return forbidden("you do not have access to this correction request")
	}
	return nil
}

func findCorrection(ctx context.Context, db *gorm.DB, id uint) (*models.CorrectionRequest, error) {
	var request models.CorrectionRequest
	if err := db.WithContext(ctx).First(&request, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("correction request")
		}
		return nil, fmt.Errorf("failed to load correction request: %w", err)
	}
	return &request, nil
}
