package notification

import (
	"bytes"
	"context"
	"errors"
	"mime"
	"strings"
	"testing"

	"kvrdesk/models"

	"github.com/wneessen/go-mail"
)

type captureSender struct {
	msgs []*mail.Msg
	err  error
}

func (c *captureSender) Send(_ context.Context, msg *mail.Msg) error {
	c.msgs = append(c.msgs, msg)
	return c.err
}

var details = models.AppointmentDetails{Date: "2025-12-05", Time: "09:00", Type: "emergency"}

// subjectOf decodes the MIME-encoded Subject header.
func subjectOf(t *testing.T, msg *mail.Msg) string {
	t.Helper()
	raw := msg.GetGenHeader(mail.HeaderSubject)
	if len(raw) != 1 {
		t.Fatalf("subject headers = %v", raw)
	}
	var dec mime.WordDecoder
	subj, err := dec.DecodeHeader(raw[0])
	if err != nil {
		t.Fatalf("decode subject %q: %v", raw[0], err)
	}
	return subj
}

func newTestService(t *testing.T, sender Sender) *DefaultNotificationService {
	t.Helper()
	svc, err := NewDefaultNotificationService(sender, "desk@kvr.test", "http://kvr.test", nil)
	if err != nil {
		t.Fatal(err)
	}
	return svc
}

func TestSendHoldConfirmation(t *testing.T) {
	sender := &captureSender{}
	svc := newTestService(t, sender)

	res := svc.SendHoldConfirmation(context.Background(), "jane@x.com", "Jane Doe", details, "tok123", "visa expires next week")
	if !res.Sent() || res.Recipient != "jane@x.com" {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(sender.msgs) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sender.msgs))
	}
	msg := sender.msgs[0]
	if subj := subjectOf(t, msg); subj != holdSubject {
		t.Errorf("subject = %q", subj)
	}
	rcpts, err := msg.GetRecipients()
	if err != nil || len(rcpts) != 1 || rcpts[0] != "jane@x.com" {
		t.Errorf("recipients = %v, %v", rcpts, err)
	}
}

func TestSendBookingConfirmationSubject(t *testing.T) {
	sender := &captureSender{}
	svc := newTestService(t, sender)

	res := svc.SendBookingConfirmation(context.Background(), "jane@x.com", "Jane Doe", "BKG_0A1B2C3D", details, "visa expires next week")
	if !res.Sent() {
		t.Fatalf("unexpected result %+v", res)
	}
	if subj := subjectOf(t, sender.msgs[0]); subj != "✅ Appointment Confirmed - Booking #BKG_0A1B2C3D" {
		t.Errorf("subject = %q", subj)
	}
}

func TestSendFailureIsAdvisory(t *testing.T) {
	svc := newTestService(t, &captureSender{err: errors.New("connection refused")})

	res := svc.SendHoldConfirmation(context.Background(), "jane@x.com", "Jane Doe", details, "tok", "visa expires next week")
	if res.Sent() || res.Status != models.EmailStatusError {
		t.Fatalf("expected error result, got %+v", res)
	}
	if !strings.Contains(res.Message, "connection refused") {
		t.Errorf("message = %q", res.Message)
	}

	res = svc.SendHoldConfirmation(context.Background(), "not an address", "Jane Doe", details, "tok", "visa expires next week")
	if res.Sent() {
		t.Fatal("invalid recipient reported as sent")
	}
}

func TestTemplatesRender(t *testing.T) {
	date, clock := readableDateTime(details)
	if date != "December 05, 2025" || clock != "09:00 AM" {
		t.Fatalf("readable = %q %q", date, clock)
	}

	data := emailData{RecipientName: "Jane Doe", ReadableDate: date, ReadableTime: clock, Reason: "visa", ConfirmationURL: "http://kvr.test/confirm?token=abc"}
	var buf bytes.Buffer
	if err := textTemplates.ExecuteTemplate(&buf, "confirmation_email.txt", data); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "http://kvr.test/confirm?token=abc") {
		t.Error("text body missing confirmation link")
	}

	buf.Reset()
	if err := htmlTemplates.ExecuteTemplate(&buf, "booking_confirmation.html", emailData{BookingID: "BKG_1"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "#BKG_1") {
		t.Error("html body missing booking id")
	}
}

func TestConfirmationURL(t *testing.T) {
	svc := newTestService(t, &captureSender{})
	if got := svc.ConfirmationURL("abc"); got != "http://kvr.test/confirm?token=abc" {
		t.Fatalf("ConfirmationURL = %q", got)
	}
}
