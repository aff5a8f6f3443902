package services

import (
	"context"
	"fmt"
	"time"

	"github.com/tavrezsi/tavrezsi-api/config"
	"github.com/tavrezsi/tavrezsi-api/logger"
	"go.uber.org/zap"
)

// NotificationKind selects the email copy sent to a user
type NotificationKind string

const (
	NotificationPasswordReset NotificationKind = "password-reset"
	NotificationWelcome       NotificationKind = "welcome"
	NotificationTenantInvite  NotificationKind = "tenant-invite"
)

// Notification is an out-of-band message to a user
type Notification struct {
	Kind           NotificationKind
	RecipientEmail string
	RecipientName  string
	Link           string
	PropertyName   string
}

// Notifier delivers notifications to users
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}

var notifierInstance Notifier

// GetNotifier returns the configured notifier, defaulting to a LogNotifier
func GetNotifier() Notifier {
	if notifierInstance == nil {
		notifierInstance = &LogNotifier{}
	}
	return notifierInstance
}

// SetNotifier sets the notifier instance (primarily for testing)
func SetNotifier(n Notifier) {
	notifierInstance = n
}

// NewNotifierFromConfig builds the notifier selected by EMAIL_PROVIDER
func NewNotifierFromConfig(ctx context.Context, cfg *config.Config) (Notifier, error) {
	switch cfg.EmailProvider {
	case "log":
		return &LogNotifier{}, nil
	case "sendgrid":
		return NewEmailNotifier(NewSendGridProvider(cfg.SendGridAPIKey, cfg.EmailFrom, cfg.EmailFromName)), nil
	case "ses", "failover":
		ses, err := NewSESProvider(ctx, cfg.AWSRegion, cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, cfg.EmailFrom, cfg.EmailFromName)
		if err != nil {
			return nil, err
		}
		if cfg.EmailProvider == "ses" {
			return NewEmailNotifier(ses), nil
		}
		var fallback MailProvider
		if cfg.SendGridAPIKey != "" {
			fallback = NewSendGridProvider(cfg.SendGridAPIKey, cfg.EmailFrom, cfg.EmailFromName)
		}
		return NewEmailNotifier(NewFailoverProvider(1, 2*time.Second, ses, fallback)), nil
	default:
		return nil, fmt.Errorf("unsupported email provider %q", cfg.EmailProvider)
	}
}

// EmailNotifier renders notifications and hands them to a mail provider
type EmailNotifier struct {
	provider MailProvider
}

// NewEmailNotifier creates an email notifier delivering through provider
func NewEmailNotifier(provider MailProvider) *EmailNotifier {
	return &EmailNotifier{provider: provider}
}

// Send renders n and delivers it
func (e *EmailNotifier) Send(ctx context.Context, n Notification) error {
	msg, err := RenderNotification(n)
	if err != nil {
		return err
	}
	if err := e.provider.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send %s email via %s: %w", n.Kind, e.provider.Name(), err)
	}
	return nil
}

// LogNotifier writes notifications to the log instead of sending them
type LogNotifier struct{}

// Send logs n
func (LogNotifier) Send(_ context.Context, n Notification) error {
	logger.Named("notifier").Info("notification",
		zap.String("kind", string(n.Kind)),
		zap.String("to", n.RecipientEmail),
		zap.String("link", n.Link),
		zap.String("property", n.PropertyName))
	return nil
}

// notify sends n, counting and logging failures
func notify(ctx context.Context, notifier Notifier, n Notification) error {
	if err := notifier.Send(ctx, n); err != nil {
		notifierFailures.WithLabelValues(string(n.Kind)).Inc()
		return &DependencyError{Dependency: "notifier", Err: err}
	}
	return nil
}
