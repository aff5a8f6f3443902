package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/tavrezsi/tavrezsi-api/logger"
	"go.uber.org/zap"
)

// EmailMessage is a rendered email ready for delivery
type EmailMessage struct {
	To       string
	ToName   string
	Subject  string
	BodyText string
	BodyHTML string
}

// MailProvider delivers rendered emails
type MailProvider interface {
	Name() string
	Send(ctx context.Context, msg *EmailMessage) error
}

// SESProvider delivers email through AWS SES
type SESProvider struct {
	client   *ses.Client
	from     string
	fromName string
}

// NewSESProvider creates an SES provider. Static credentials are used when
// both keys are set, otherwise the default AWS credential chain applies.
func NewSESProvider(ctx context.Context, region, accessKeyID, secretAccessKey, from, fromName string) (*SESProvider, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	if accessKeyID != "" && secretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &SESProvider{
		client:   ses.NewFromConfig(awsCfg),
		from:     from,
		fromName: fromName,
	}, nil
}

// Name returns the provider name
func (p *SESProvider) Name() string {
	return "AWS SES"
}

// Send delivers msg through SES
func (p *SESProvider) Send(ctx context.Context, msg *EmailMessage) error {
	source := p.from
	if p.fromName != "" {
		source = fmt.Sprintf("%s <%s>", p.fromName, p.from)
	}

	body := &sestypes.Body{}
	if msg.BodyHTML != "" {
		body.Html = &sestypes.Content{Charset: aws.String("UTF-8"), Data: aws.String(msg.BodyHTML)}
	}
	if msg.BodyText != "" {
		body.Text = &sestypes.Content{Charset: aws.String("UTF-8"), Data: aws.String(msg.BodyText)}
	}

	_, err := p.client.SendEmail(ctx, &ses.SendEmailInput{
		Source:      aws.String(source),
		Destination: &sestypes.Destination{ToAddresses: []string{msg.To}},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Charset: aws.String("UTF-8"), Data: aws.String(msg.Subject)},
			Body:    body,
		},
	})
	if err != nil {
		return fmt.Errorf("SES send failed: %w", err)
	}
	return nil
}

// SendGridProvider delivers email through the SendGrid API
type SendGridProvider struct {
	client   *sendgrid.Client
	from     string
	fromName string
}

// NewSendGridProvider creates a SendGrid provider
func NewSendGridProvider(apiKey, from, fromName string) *SendGridProvider {
	return &SendGridProvider{
		client:   sendgrid.NewSendClient(apiKey),
		from:     from,
		fromName: fromName,
	}
}

// Name returns the provider name
func (p *SendGridProvider) Name() string {
	return "SendGrid"
}

// Send delivers msg through SendGrid. Link tracking is disabled so the
// credential setup link reaches the recipient unchanged.
func (p *SendGridProvider) Send(ctx context.Context, msg *EmailMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	from := mail.NewEmail(p.fromName, p.from)
	to := mail.NewEmail(msg.ToName, msg.To)
	m := mail.NewSingleEmail(from, msg.Subject, to, msg.BodyText, msg.BodyHTML)

	trackingSettings := mail.NewTrackingSettings()
	clickTracking := mail.NewClickTrackingSetting()
	clickTracking.SetEnable(false)
	clickTracking.SetEnableText(false)
	trackingSettings.SetClickTracking(clickTracking)
	m.SetTrackingSettings(trackingSettings)

	response, err := p.client.Send(m)
	if err != nil {
		return fmt.Errorf("SendGrid send failed: %w", err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("SendGrid returned status %d: %s", response.StatusCode, response.Body)
	}
	return nil
}

// FailoverProvider tries each provider in order until one succeeds
type FailoverProvider struct {
	providers  []MailProvider
	maxRetries int
	retryDelay time.Duration
}

// NewFailoverProvider creates a failover chain. Nil providers are skipped.
func NewFailoverProvider(maxRetries int, retryDelay time.Duration, providers ...MailProvider) *FailoverProvider {
	valid := make([]MailProvider, 0, len(providers))
	for _, p := range providers {
		if p != nil {
			valid = append(valid, p)
		}
	}
	return &FailoverProvider{providers: valid, maxRetries: maxRetries, retryDelay: retryDelay}
}

// Name returns the provider name
func (f *FailoverProvider) Name() string {
	names := make([]string, 0, len(f.providers))
	for _, p := range f.providers {
		names = append(names, p.Name())
	}
	return "Failover(" + strings.Join(names, ",") + ")"
}

// Send delivers msg through the first provider that accepts it
func (f *FailoverProvider) Send(ctx context.Context, msg *EmailMessage) error {
	if len(f.providers) == 0 {
		return fmt.Errorf("no email providers configured")
	}

	log := logger.Named("mail")
	var failures []string
	for _, provider := range f.providers {
		for attempt := 0; attempt <= f.maxRetries; attempt++ {
			if attempt > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(f.retryDelay):
				}
			}

			err := provider.Send(ctx, msg)
			if err == nil {
				return nil
			}
			failures = append(failures, fmt.Sprintf("%s: %v", provider.Name(), err))
			log.Warn("email provider failed",
				zap.String("provider", provider.Name()),
				zap.Int("attempt", attempt+1),
				zap.Error(err))

			if ctx.Err() != nil {
				return ctx.Err()
			}
		}
	}

	return fmt.Errorf("all email providers failed: %s", strings.Join(failures, "; "))
}
