package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"kvrdesk/models"
	"kvrdesk/services/booking"
	"kvrdesk/services/notification"
	"kvrdesk/utils"

	"go.uber.org/zap"
)

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

var errNoNotifier = utils.NewTransportError("Email delivery is not configured", nil)

// Result is the outcome of one tool call. Exactly one of Payload and Err is set.
type Result struct {
	Tool    Name
	Payload interface{}
	Err     *ErrorResult
}

// ErrorResult is the structured failure handed back to the model.
type ErrorResult struct {
	Status  string   `json:"status"`
	Message string   `json:"message"`
	Kind    string   `json:"kind"`
	Errors  []string `json:"errors,omitempty"`
}

func (r Result) OK() bool {
	return r.Err == nil
}

// Value is what gets serialized for the caller.
func (r Result) Value() interface{} {
	if r.Err != nil {
		return r.Err
	}
	return r.Payload
}

// JSON renders the result for a tool-result message.
func (r Result) JSON() string {
	raw, err := json.Marshal(r.Value())
	if err != nil {
		return fmt.Sprintf(`{"status":"error","message":%q,"kind":%q}`, err.Error(), utils.KindInternal)
	}
	return string(raw)
}

func errorResult(name Name, err error) Result {
	res := &ErrorResult{Status: "error", Message: utils.MessageOf(err), Kind: string(utils.KindOf(err))}
	var appErr *utils.AppError
	if errors.As(err, &appErr) {
		res.Errors = appErr.Details
	}
	return Result{Tool: name, Err: res}
}

// CollectResult echoes the normalized fields the caller supplied.
type CollectResult struct {
	Status        string             `json:"status"`
	Message       string             `json:"message"`
	CollectedData models.UserContext `json:"collected_data"`
	Timestamp     time.Time          `json:"timestamp"`
}

// Dispatcher runs tools against the booking and notification services.
type Dispatcher struct {
	Booking  booking.BookingService
	Notifier notification.NotificationService
	Logger   *zap.Logger
	Now      func() time.Time
}

func NewDispatcher(bookingSvc booking.BookingService, notifier notification.NotificationService, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{Booking: bookingSvc, Notifier: notifier, Logger: logger, Now: time.Now}
}

// Execute runs the named tool. It never panics and never returns a Go error:
// every failure is converted into an ErrorResult.
func (d *Dispatcher) Execute(ctx context.Context, name string, args json.RawMessage) (res Result) {
	tool, ok := ParseName(name)
	if !ok {
		return errorResult(Name(name), utils.NewAppError(utils.KindUnknownTool, fmt.Sprintf("Function '%s' not found", name)))
	}

	defer func() {
		if r := recover(); r != nil {
			d.Logger.Error("tool panicked", zap.String("tool", name), zap.Any("panic", r))
			res = errorResult(tool, utils.NewAppError(utils.KindInternal, fmt.Sprintf("Error executing function: %v", r)))
		}
	}()

	if len(strings.TrimSpace(string(args))) == 0 {
		args = json.RawMessage("{}")
	}

	payload, err := d.run(ctx, tool, args)
	if err != nil {
		d.Logger.Info("tool failed", zap.String("tool", name), zap.String("kind", string(utils.KindOf(err))), zap.Error(err))
		return errorResult(tool, err)
	}
	d.Logger.Debug("tool succeeded", zap.String("tool", name))
	return Result{Tool: tool, Payload: payload}
}

// ExecuteParams is Execute for callers holding already-decoded parameters.
func (d *Dispatcher) ExecuteParams(ctx context.Context, name string, params map[string]interface{}) Result {
	if params == nil {
		params = map[string]interface{}{}
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return errorResult(Name(name), utils.NewValidationError("Invalid tool parameters", []string{err.Error()}))
	}
	return d.Execute(ctx, name, raw)
}

func (d *Dispatcher) run(ctx context.Context, tool Name, args json.RawMessage) (interface{}, error) {
	switch tool {
	case CollectUserInfo:
		var p struct {
			Name   string `json:"name"`
			Email  string `json:"email"`
			Reason string `json:"reason"`
		}
		if err := decodeArgs(args, &p); err != nil {
			return nil, err
		}
		return d.collectUserInfo(p.Name, p.Email, p.Reason), nil

	case CheckAvailability:
		var p struct {
			Dates []string `json:"dates"`
		}
		if err := decodeArgs(args, &p); err != nil {
			return nil, err
		}
		if err := validateDates(p.Dates); err != nil {
			return nil, err
		}
		return d.Booking.CheckAvailability(ctx, p.Dates)

	case GetNextAvailableSlots:
		var p struct {
			Count int `json:"count"`
		}
		if err := decodeArgs(args, &p); err != nil {
			return nil, err
		}
		return d.Booking.NextAvailable(ctx, p.Count)

	case ReserveSlotTemporarily:
		var p struct {
			AppointmentID string          `json:"appointment_id"`
			UserData      models.UserData `json:"user_data"`
		}
		if err := decodeArgs(args, &p); err != nil {
			return nil, err
		}
		if strings.TrimSpace(p.AppointmentID) == "" {
			return nil, utils.NewValidationError("Invalid tool parameters", []string{"Missing required field: appointment_id"})
		}
		return d.Booking.Reserve(ctx, p.AppointmentID, p.UserData)

	case BookAppointment:
		var p struct {
			Token string `json:"token"`
		}
		if err := decodeArgs(args, &p); err != nil {
			return nil, err
		}
		return d.Booking.Finalize(ctx, p.Token)

	case CancelBooking:
		var p struct {
			BookingID string `json:"booking_id"`
		}
		if err := decodeArgs(args, &p); err != nil {
			return nil, err
		}
		return d.Booking.Cancel(ctx, p.BookingID)

	case SendConfirmationEmail:
		if d.Notifier == nil {
			return nil, errNoNotifier
		}
		var p struct {
			RecipientEmail     string                    `json:"recipient_email"`
			RecipientName      string                    `json:"recipient_name"`
			AppointmentDetails models.AppointmentDetails `json:"appointment_details"`
			ConfirmationToken  string                    `json:"confirmation_token"`
			Reason             string                    `json:"reason"`
		}
		if err := decodeArgs(args, &p); err != nil {
			return nil, err
		}
		return d.Notifier.SendHoldConfirmation(ctx, p.RecipientEmail, p.RecipientName, p.AppointmentDetails, p.ConfirmationToken, p.Reason), nil

	case SendBookingConfirmationEmail:
		if d.Notifier == nil {
			return nil, errNoNotifier
		}
		var p struct {
			RecipientEmail     string                    `json:"recipient_email"`
			RecipientName      string                    `json:"recipient_name"`
			BookingID          string                    `json:"booking_id"`
			AppointmentDetails models.AppointmentDetails `json:"appointment_details"`
			Reason             string                    `json:"reason"`
		}
		if err := decodeArgs(args, &p); err != nil {
			return nil, err
		}
		return d.Notifier.SendBookingConfirmation(ctx, p.RecipientEmail, p.RecipientName, p.BookingID, p.AppointmentDetails, p.Reason), nil
	}
	return nil, utils.NewAppError(utils.KindUnknownTool, fmt.Sprintf("Function '%s' not found", tool))
}

func (d *Dispatcher) collectUserInfo(name, email, reason string) *CollectResult {
	collected := models.UserContext{
		Name:   strings.TrimSpace(name),
		Email:  strings.ToLower(strings.TrimSpace(email)),
		Reason: strings.TrimSpace(reason),
	}
	now := time.Now()
	if d.Now != nil {
		now = d.Now()
	}
	return &CollectResult{
		Status:        "success",
		Message:       "Information collected successfully",
		CollectedData: collected,
		Timestamp:     now,
	}
}

func decodeArgs(args json.RawMessage, into interface{}) error {
	if err := json.Unmarshal(args, into); err != nil {
		return utils.NewValidationError("Invalid tool arguments", []string{err.Error()})
	}
	return nil
}

func validateDates(dates []string) error {
	if len(dates) == 0 {
		return utils.NewValidationError("Invalid tool arguments", []string{"Missing required field: dates"})
	}
	var violations []string
	for _, d := range dates {
		if !datePattern.MatchString(d) {
			violations = append(violations, fmt.Sprintf("Invalid date %q, expected YYYY-MM-DD", d))
		}
	}
	if len(violations) > 0 {
		return utils.NewValidationError("Invalid tool arguments", violations)
	}
	return nil
}
