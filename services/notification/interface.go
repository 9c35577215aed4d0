package notification

import (
	"context"
	"fmt"
	"time"

	"kvrdesk/config"
	"kvrdesk/models"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

const senderName = "KVR Munich"

// NotificationService sends the two customer-facing emails. It never returns an error:
// failures come back as a result with status "error".
type NotificationService interface {
	SendHoldConfirmation(ctx context.Context, recipient, name string, details models.AppointmentDetails, token, reason string) models.EmailResult
	SendBookingConfirmation(ctx context.Context, recipient, name, bookingID string, details models.AppointmentDetails, reason string) models.EmailResult
}

// Sender delivers a composed message.
type Sender interface {
	Send(ctx context.Context, msg *mail.Msg) error
}

// DefaultNotificationService is the production implementation.
type DefaultNotificationService struct {
	sender  Sender
	from    string
	baseURL string
	logger  *zap.Logger
}

func NewDefaultNotificationService(sender Sender, from, baseURL string, logger *zap.Logger) (*DefaultNotificationService, error) {
	if sender == nil {
		return nil, fmt.Errorf("notification service initialization error: sender is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultNotificationService{
		sender:  sender,
		from:    from,
		baseURL: baseURL,
		logger:  logger,
	}, nil
}

// SMTPSender sends through an authenticated STARTTLS SMTP relay.
type SMTPSender struct {
	host     string
	port     int
	username string
	password string
	timeout  time.Duration
}

func NewSMTPSender(cfg config.Config) *SMTPSender {
	return &SMTPSender{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		timeout:  15 * time.Second,
	}
}

func (s *SMTPSender) Send(ctx context.Context, msg *mail.Msg) error {
	if s.username == "" || s.password == "" {
		return fmt.Errorf("SMTP credentials are not configured")
	}
	client, err := mail.NewClient(s.host,
		mail.WithPort(s.port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.username),
		mail.WithPassword(s.password),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithTimeout(s.timeout),
	)
	if err != nil {
		return fmt.Errorf("create SMTP client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send via %s: %w", s.host, err)
	}
	return nil
}
