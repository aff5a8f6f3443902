package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tavrezsi/tavrezsi-api/logger"
	"github.com/tavrezsi/tavrezsi-api/models"
	"github.com/tavrezsi/tavrezsi-api/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// InvitationService provisions tenant accounts and sends credential setup links
type InvitationService struct {
	db       *gorm.DB
	notifier Notifier
	baseURL  string
	now      func() time.Time
}

// NewInvitationService creates an invitation service. Links point at baseURL.
func NewInvitationService(db *gorm.DB, notifier Notifier, baseURL string) *InvitationService {
	return &InvitationService{
		db:       db,
		notifier: notifier,
		baseURL:  strings.TrimRight(baseURL, "/"),
		now:      utcNow,
	}
}

// InviteInput identifies who is invited to which property
type InviteInput struct {
	Email      string
	Name       string // optional display name for a new account
	PropertyID uint
}

// inviteChanges records what an invitation wrote, so it can be undone when
// the email cannot be delivered
type inviteChanges struct {
	userID      uint
	createdUser bool
	tenancyID   uint
	prior       *models.PropertyTenant // nil when the tenancy row was created
	tokenID     uint
}

// Invite provisions (or reuses) a tenant account for input.Email, prepares an
// inactive tenancy on the property and emails a credential setup link. The
// tenancy becomes active once the invitee sets a password. The email is sent
// after commit; when it cannot be delivered the invitation is undone.
func (s *InvitationService) Invite(ctx context.Context, caller Caller, input InviteInput) (*models.TenantWithDetails, error) {
	email := utils.NormalizeEmail(input.Email)
	if !utils.IsValidEmail(email) {
		return nil, invalid("email", "a valid email address is required")
	}
	if input.PropertyID == 0 {
		return nil, invalid("propertyId", "propertyId is required")
	}

	log := logger.Named("invitation", zap.Uint("property_id", input.PropertyID), zap.Uint("caller_id", caller.ID))

	var (
		result  models.TenantWithDetails
		changes inviteChanges
		message Notification
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		property, err := lockProperty(ctx, tx, input.PropertyID)
		if err != nil {
			return err
		}
		if !canManageTenants(caller, property) {
			return forbidden("you do not manage tenants of this property")
		}

		user, created, err := s.findOrCreateTenant(tx, email, strings.TrimSpace(input.Name))
		if err != nil {
			return err
		}

		row, prior, err := s.prepareTenancy(tx, property.ID, user.ID)
		if err != nil {
			return err
		}

		raw, token, err := issueToken(tx, user.ID, models.TokenPurposeTenantInvite, s.now())
		if err != nil {
			return err
		}
		if err := tx.Model(&models.PropertyTenant{}).Where("id = ?", row.ID).
			Update("invite_token_id", token.ID).Error; err != nil {
			return fmt.Errorf("failed to link invite token: %w", err)
		}
		row.InviteTokenID = &token.ID

		changes = inviteChanges{userID: user.ID, createdUser: created, tenancyID: row.ID, prior: prior, tokenID: token.ID}
		message = Notification{
			Kind:           NotificationTenantInvite,
			RecipientEmail: user.Email,
			RecipientName:  user.Name,
			Link:           resetLink(s.baseURL, raw),
			PropertyName:   property.Name,
		}

		row.Tenant = user
		result = withDetails(*row, property)
		return nil
	})
	if err != nil {
		return nil, err
	}

	// the property lock is released before the provider is called
	if err := notify(ctx, s.notifier, message); err != nil {
		invitationsTotal.WithLabelValues("failed").Inc()
		log.Error("invitation email could not be delivered", zap.Error(err))
		if undoErr := s.undo(context.WithoutCancel(ctx), changes); undoErr != nil {
			log.Error("failed to undo undelivered invitation", zap.Uint("tenancy_id", changes.tenancyID), zap.Error(undoErr))
		}
		return nil, err
	}

	invitationsTotal.WithLabelValues("sent").Inc()
	log.Info("tenant invited", zap.Uint("tenant_id", result.TenantID), zap.Uint("tenancy_id", result.ID))
	return &result, nil
}

// undo reverts an invitation whose email was not delivered: the tenancy row
// is removed or restored, and the token and any account it created are deleted
func (s *InvitationService) undo(ctx context.Context, changes inviteChanges) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if changes.prior == nil {
			if err := tx.Delete(&models.PropertyTenant{}, changes.tenancyID).Error; err != nil {
				return fmt.Errorf("failed to delete tenancy: %w", err)
			}
		} else if err := tx.Model(&models.PropertyTenant{}).Where("id = ? AND is_active = ?", changes.prior.ID, false).
			Updates(map[string]interface{}{
				"start_date":      changes.prior.StartDate,
				"end_date":        changes.prior.EndDate,
				"invite_token_id": changes.prior.InviteTokenID,
			}).Error; err != nil {
			return fmt.Errorf("failed to restore tenancy: %w", err)
		}

		if err := tx.Delete(&models.PasswordResetToken{}, changes.tokenID).Error; err != nil {
			return fmt.Errorf("failed to delete token: %w", err)
		}

		if changes.createdUser {
			if err := tx.Where("id = ? AND is_activated = ?", changes.userID, false).
				Delete(&models.User{}).Error; err != nil {
				return fmt.Errorf("failed to delete tenant user: %w", err)
			}
		}
		return nil
	})
}

// findOrCreateTenant returns the user registered with email, creating an
// inactive tenant account when none exists. created reports whether it did.
func (s *InvitationService) findOrCreateTenant(tx *gorm.DB, email, name string) (user *models.User, created bool, err error) {
	var existing models.User
	err = tx.Where("email = ?", email).First(&existing).Error
	if err == nil {
		if existing.Role != models.RoleTenant {
			return nil, false, invalid("email", "this email belongs to a user who is not a tenant")
		}
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("failed to look up user: %w", err)
	}

	username, err := uniqueUsername(tx, utils.UsernameFromEmail(email))
	if err != nil {
		return nil, false, err
	}

	placeholder, err := utils.GenerateToken()
	if err != nil {
		return nil, false, err
	}
	hash, err := HashPassword(placeholder)
	if err != nil {
		return nil, false, err
	}

	if name == "" {
		name = username
	}
	user = &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         models.RoleTenant,
		IsActivated:  false,
	}
	if err := tx.Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, false, &ConflictError{Resource: "user", Message: "a user with this email or username already exists"}
		}
		return nil, false, fmt.Errorf("failed to create tenant user: %w", err)
	}
	return user, true, nil
}

// prepareTenancy returns an inactive tenancy row for the pair, re-arming the
// latest historical row when there is one. prior is that row as it was
// before, or nil when a new row was created.
func (s *InvitationService) prepareTenancy(tx *gorm.DB, propertyID, tenantID uint) (row, prior *models.PropertyTenant, err error) {
	var rows []models.PropertyTenant
	if err := tx.Where("property_id = ? AND tenant_id = ?", propertyID, tenantID).
		Order("id DESC").Find(&rows).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to load tenancies: %w", err)
	}

	for _, r := range rows {
		if r.IsActive {
			return nil, nil, errAlreadyTenant()
		}
	}

	now := s.now()
	if len(rows) > 0 {
		before := rows[0]
		rearmed := rows[0]
		if err := tx.Model(&models.PropertyTenant{}).Where("id = ?", rearmed.ID).
			Updates(map[string]interface{}{"start_date": now, "end_date": nil}).Error; err != nil {
			return nil, nil, fmt.Errorf("failed to re-arm tenancy: %w", err)
		}
		rearmed.StartDate = now
		rearmed.EndDate = nil
		return &rearmed, &before, nil
	}

	row = &models.PropertyTenant{
		PropertyID: propertyID,
		TenantID:   tenantID,
		StartDate:  now,
		IsActive:   false,
	}
	if err := tx.Create(row).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to create tenancy: %w", err)
	}
	return row, nil, nil
}

// uniqueUsername appends a numeric suffix to base until it is free
func uniqueUsername(tx *gorm.DB, base string) (string, error) {
	candidate := base
	for i := 2; i < 10000; i++ {
		var count int64
		if err := tx.Model(&models.User{}).Where("username = ?", candidate).Count(&count).Error; err != nil {
			return "", fmt.Errorf("failed to check username: %w", err)
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s%d", base, i)
	}
	return "", &ConflictError{Resource: "user", Message: "could not derive a free username"}
}

// issueToken stores a new credential setup token and returns its raw value
func issueToken(tx *gorm.DB, userID uint, purpose string, now time.Time) (string, *models.PasswordResetToken, error) {
	raw, err := utils.GenerateToken()
	if err != nil {
		return "", nil, err
	}

	token := models.PasswordResetToken{
		UserID:    userID,
		TokenHash: utils.HashToken(raw),
		Purpose:   purpose,
		CreatedAt: now,
		ExpiresAt: now.Add(models.PasswordResetTokenTTL),
	}
	if err := tx.Create(&token).Error; err != nil {
		return "", nil, fmt.Errorf("failed to create token: %w", err)
	}
	return raw, &token, nil
}

func resetLink(baseURL, raw string) string {
	return fmt.Sprintf("%s/reset-password?token=%s", baseURL, raw)
}
