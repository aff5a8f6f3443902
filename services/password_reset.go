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

// PasswordResetService implements the credential setup and password reset flow
type PasswordResetService struct {
	db       *gorm.DB
	notifier Notifier
	baseURL  string
	now      func() time.Time
}

// NewPasswordResetService creates a password reset service. Links point at baseURL.
func NewPasswordResetService(db *gorm.DB, notifier Notifier, baseURL string) *PasswordResetService {
	return &PasswordResetService{
		db:       db,
		notifier: notifier,
		baseURL:  strings.TrimRight(baseURL, "/"),
		now:      utcNow,
	}
}

// TokenStatus describes a usable token without consuming it
type TokenStatus struct {
	Valid     bool      `json:"valid"`
	Email     string    `json:"email"`
	Purpose   string    `json:"purpose"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// RequestReset emails a reset link when email belongs to a user. The outcome
// is the same for unknown addresses.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) error {
	email = utils.NormalizeEmail(email)
	if !utils.IsValidEmail(email) {
		return invalid("email", "a valid email address is required")
	}

	log := logger.Named("password_reset")

	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Debug("reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("failed to look up user: %w", err)
	}

	raw, token, err := issueToken(s.db.WithContext(ctx), user.ID, models.TokenPurposePasswordReset, s.now())
	if err != nil {
		return err
	}

	err = notify(ctx, s.notifier, Notification{
		Kind:           NotificationPasswordReset,
		RecipientEmail: user.Email,
		RecipientName:  user.Name,
		Link:           resetLink(s.baseURL, raw),
	})
	if err != nil {
		log.Warn("password reset email could not be delivered",
			zap.Uint("user_id", user.ID),
			zap.Uint("token_id", token.ID),
			zap.Error(err))
	}
	return nil
}

// ValidateToken reports whether raw can still be used
func (s *PasswordResetService) ValidateToken(ctx context.Context, raw string) (*TokenStatus, error) {
	token, err := s.checkToken(s.db.WithContext(ctx), raw)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, token.UserID).Error; err != nil {
		return nil, fmt.Errorf("failed to load token owner: %w", err)
	}

	return &TokenStatus{
		Valid:     true,
		Email:     utils.MaskEmail(user.Email),
		Purpose:   token.Purpose,
		ExpiresAt: token.ExpiresAt,
	}, nil
}

// ResetPassword consumes raw, stores newPassword and activates the account
// together with the tenancies the token was issued for
func (s *PasswordResetService) ResetPassword(ctx context.Context, raw, newPassword string) error {
	if err := validatePassword("password", newPassword); err != nil {
		return err
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}

	var (
		user      models.User
		activated int
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		token, err := s.checkToken(tx, raw)
		if err != nil {
			return err
		}

		result := tx.Model(&models.PasswordResetToken{}).
			Where("id = ? AND is_used = ?", token.ID, false).
			Update("is_used", true)
		if result.Error != nil {
			return fmt.Errorf("failed to consume token: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrTokenAlreadyUsed
		}

		if err := tx.First(&user, token.UserID).Error; err != nil {
			return fmt.Errorf("failed to load user: %w", err)
		}
		if err := tx.Model(&models.User{}).Where("id = ?", user.ID).
			Updates(map[string]interface{}{"password_hash": hash, "is_activated": true}).Error; err != nil {
			return fmt.Errorf("failed to store password: %w", err)
		}

		activated, err = activateInvitedTenancies(ctx, tx, token.ID)
		return err
	})
	if err != nil {
		passwordResets.WithLabelValues(resetOutcome(err)).Inc()
		return err
	}
	passwordResets.WithLabelValues("success").Inc()

	log := logger.Named("password_reset", zap.Uint("user_id", user.ID))
	log.Info("credentials set", zap.Int("tenancies_activated", activated))

	err = notify(ctx, s.notifier, Notification{
		Kind:           NotificationWelcome,
		RecipientEmail: user.Email,
		RecipientName:  user.Name,
		Link:           s.baseURL + "/login",
	})
	if err != nil {
		log.Warn("welcome email could not be delivered", zap.Error(err))
	}
	return nil
}

// checkToken resolves raw and verifies it is unexpired and unused
func (s *PasswordResetService) checkToken(db *gorm.DB, raw string) (*models.PasswordResetToken, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrInvalidToken
	}

	var token models.PasswordResetToken
	if err := db.Where("token_hash = ?", utils.HashToken(raw)).First(&token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to load token: %w", err)
	}
	if token.IsExpired(s.now()) {
		return nil, ErrTokenExpired
	}
	if token.IsUsed {
		return nil, ErrTokenAlreadyUsed
	}
	return &token, nil
}

// activateInvitedTenancies activates the pending tenancies linked to tokenID.
// A pair that already gained an active tenancy elsewhere is left alone.
func activateInvitedTenancies(ctx context.Context, tx *gorm.DB, tokenID uint) (int, error) {
	var rows []models.PropertyTenant
	if err := tx.Where("invite_token_id = ? AND is_active = ?", tokenID, false).
		Find(&rows).Error; err != nil {
		return 0, fmt.Errorf("failed to load invited tenancies: %w", err)
	}

	activated := 0
	for _, row := range rows {
		if _, err := lockProperty(ctx, tx, row.PropertyID); err != nil {
			return activated, err
		}
		if err := ensureNoActiveTenancy(tx, row.PropertyID, row.TenantID, row.ID); err != nil {
			var conflict *ConflictError
			if errors.As(err, &conflict) {
				continue
			}
			return activated, err
		}
		if err := tx.Model(&models.PropertyTenant{}).Where("id = ?", row.ID).
			Updates(map[string]interface{}{"is_active": true, "end_date": nil}).Error; err != nil {
			return activated, fmt.Errorf("failed to activate tenancy: %w", err)
		}
		activated++
	}
	return activated, nil
}

func resetOutcome(err error) string {
	switch {
	case errors.Is(err, ErrInvalidToken):
		return "invalid"
	case errors.Is(err, ErrTokenExpired):
		return "expired"
	case errors.Is(err, ErrTokenAlreadyUsed):
		return "used"
	default:
		return "error"
	}
}
