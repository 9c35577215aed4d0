package booking

import (
	"context"
	"time"

	documentRepo "kvrdesk/database/repository/document"
	"kvrdesk/models"

	"go.uber.org/zap"
)

// DetailLimit caps how many slots an availability answer lists individually.
const DetailLimit = 5

// BookingService is the slot registry plus the hold/confirm/cancel state machine.
type BookingService interface {
	CheckAvailability(ctx context.Context, dates []string) (*AvailabilityResult, error)
	NextAvailable(ctx context.Context, count int) (*AvailabilityResult, error)
	IsAvailable(ctx context.Context, slotID string) (bool, error)
	GetSlot(ctx context.Context, slotID string) (*models.Slot, error)

	Reserve(ctx context.Context, slotID string, user models.UserData) (*ReservationResult, error)
	Finalize(ctx context.Context, token string) (*FinalizeResult, error)
	Cancel(ctx context.Context, bookingID string) (*CancelResult, error)
	SweepExpired(ctx context.Context) (int, error)

	GetPendingConfirmation(ctx context.Context, token string) (*models.PendingConfirmation, error)
	GetBooking(ctx context.Context, bookingID string) (*models.Booking, error)
}

// Notifier delivers the two customer emails. Failures are reported in the result, never as errors.
type Notifier interface {
	SendHoldConfirmation(ctx context.Context, recipient, name string, details models.AppointmentDetails, token, reason string) models.EmailResult
	SendBookingConfirmation(ctx context.Context, recipient, name, bookingID string, details models.AppointmentDetails, reason string) models.EmailResult
}

// ExpiryScheduler arranges a sweep for the moment a hold lapses.
type ExpiryScheduler interface {
	ScheduleExpiry(ctx context.Context, token string, expiresAt time.Time) error
}

// DefaultBookingService implements BookingService on top of a DocumentStore.
type DefaultBookingService struct {
	Store        documentRepo.DocumentStore
	Notifier     Notifier
	Expiry       ExpiryScheduler // optional
	Logger       *zap.Logger
	HoldDuration time.Duration
	Now          func() time.Time
}

func NewBookingService(store documentRepo.DocumentStore, notifier Notifier, logger *zap.Logger, hold time.Duration) *DefaultBookingService {
	return &DefaultBookingService{
		Store:        store,
		Notifier:     notifier,
		Logger:       logger,
		HoldDuration: hold,
		Now:          time.Now,
	}
}

func (s *DefaultBookingService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *DefaultBookingService) holdDuration() time.Duration {
	if s.HoldDuration <= 0 {
		return 30 * time.Minute
	}
	return s.HoldDuration
}

func (s *DefaultBookingService) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

// AvailabilityResult answers both date-filtered and next-available queries.
type AvailabilityResult struct {
	Status         string            `json:"status"`
	RequestedDates []string          `json:"requested_dates,omitempty"`
	AvailableSlots []models.SlotView `json:"available_slots"`
	MatchedSlotIDs []string          `json:"matched_slot_ids"`
	TotalAvailable int               `json:"total_available"`
	Message        string            `json:"message"`
}

// ReservationResult is returned by a successful Reserve.
type ReservationResult struct {
	Status             string                    `json:"status"`
	Message            string                    `json:"message"`
	ConfirmationToken  string                    `json:"confirmation_token"`
	AppointmentID      string                    `json:"appointment_id"`
	AppointmentDetails models.AppointmentDetails `json:"appointment_details"`
	UserEmail          string                    `json:"user_email"`
	ExpiresInMinutes   int                       `json:"expires_in_minutes"`
	ExpiresAt          time.Time                 `json:"expires_at"`
	EmailSent          bool                      `json:"email_sent"`
}

// FinalizeResult is returned by a successful Finalize.
type FinalizeResult struct {
	Status    string         `json:"status"`
	Message   string         `json:"message"`
	Booking   models.Booking `json:"booking"`
	EmailSent bool           `json:"email_sent"`
}

// CancelResult is returned by a successful Cancel.
type CancelResult struct {
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	BookingID string    `json:"booking_id"`
	SlotID    string    `json:"appointment_id"`
	Cancelled time.Time `json:"cancelled_at"`
}
