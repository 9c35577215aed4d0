package notification

import (
	"context"
	"embed"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
	"time"

	"kvrdesk/models"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

//go:embed templates/*
var templateFS embed.FS

var (
	textTemplates = texttemplate.Must(texttemplate.ParseFS(templateFS, "templates/*.txt"))
	htmlTemplates = htmltemplate.Must(htmltemplate.ParseFS(templateFS, "templates/*.html"))
)

const (
	holdSubject    = "⚠️ Confirm Your KVR Emergency Appointment"
	bookingSubject = "✅ Appointment Confirmed - Booking #%s"
)

// emailData is the template context for both emails.
type emailData struct {
	RecipientName   string
	ReadableDate    string
	ReadableTime    string
	Reason          string
	ConfirmationURL string
	BookingID       string
}

// readableDateTime formats "2025-12-05", "09:00" as "December 05, 2025", "09:00 AM".
func readableDateTime(details models.AppointmentDetails) (string, string) {
	date, clock := details.Date, details.Time
	if d, err := time.Parse("2006-01-02", details.Date); err == nil {
		date = d.Format("January 02, 2006")
	}
	if t, err := time.Parse("15:04", details.Time); err == nil {
		clock = t.Format("03:04 PM")
	}
	return date, clock
}

// ConfirmationURL is the link that finalizes a hold.
func (s *DefaultNotificationService) ConfirmationURL(token string) string {
	return fmt.Sprintf("%s/confirm?token=%s", s.baseURL, token)
}

func (s *DefaultNotificationService) SendHoldConfirmation(ctx context.Context, recipient, name string, details models.AppointmentDetails, token, reason string) models.EmailResult {
	date, clock := readableDateTime(details)
	data := emailData{
		RecipientName:   name,
		ReadableDate:    date,
		ReadableTime:    clock,
		Reason:          reason,
		ConfirmationURL: s.ConfirmationURL(token),
	}
	return s.deliver(ctx, recipient, holdSubject, "confirmation_email", data, "Confirmation email sent successfully")
}

func (s *DefaultNotificationService) SendBookingConfirmation(ctx context.Context, recipient, name, bookingID string, details models.AppointmentDetails, reason string) models.EmailResult {
	date, clock := readableDateTime(details)
	data := emailData{
		RecipientName: name,
		ReadableDate:  date,
		ReadableTime:  clock,
		Reason:        reason,
		BookingID:     bookingID,
	}
	return s.deliver(ctx, recipient, fmt.Sprintf(bookingSubject, bookingID), "booking_confirmation", data, "Booking confirmation email sent successfully")
}

func (s *DefaultNotificationService) deliver(ctx context.Context, recipient, subject, tmpl string, data emailData, okMessage string) models.EmailResult {
	msg, err := s.compose(recipient, subject, tmpl, data)
	if err == nil {
		err = s.sender.Send(ctx, msg)
	}
	if err != nil {
		s.logger.Error("email not sent", zap.String("recipient", recipient), zap.String("template", tmpl), zap.Error(err))
		return models.EmailResult{
			Status:    models.EmailStatusError,
			Recipient: recipient,
			Message:   fmt.Sprintf("Failed to send email: %v", err),
		}
	}
	s.logger.Info("email sent", zap.String("recipient", recipient), zap.String("template", tmpl))
	return models.EmailResult{Status: models.EmailStatusSuccess, Recipient: recipient, Message: okMessage}
}

func (s *DefaultNotificationService) compose(recipient, subject, tmpl string, data emailData) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.FromFormat(senderName, s.from); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", s.from, err)
	}
	if err := msg.To(recipient); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", recipient, err)
	}
	msg.Subject(subject)
	if err := msg.SetBodyTextTemplate(textTemplates.Lookup(tmpl+".txt"), data); err != nil {
		return nil, fmt.Errorf("render text body: %w", err)
	}
	if err := msg.AddAlternativeHTMLTemplate(htmlTemplates.Lookup(tmpl+".html"), data); err != nil {
		return nil, fmt.Errorf("render html body: %w", err)
	}
	return msg, nil
}
