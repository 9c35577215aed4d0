package booking

import (
	"context"
	"fmt"
	"time"

	documentRepo "kvrdesk/database/repository/document"
	"kvrdesk/models"
	"kvrdesk/utils"

	"go.uber.org/zap"
)

// expireOverdue demotes every pending hold whose deadline has passed and returns how many changed.
func expireOverdue(doc *models.Document, now time.Time) int {
	changed := 0
	for i := range doc.PendingConfirmations {
		p := &doc.PendingConfirmations[i]
		if p.Status == models.HoldStatusPending && now.After(p.ExpiresAt) {
			p.Status = models.HoldStatusExpired
			changed++
		}
	}
	return changed
}

// activeHoldOn reports whether another unexpired pending hold already claims slotID.
func activeHoldOn(doc *models.Document, slotID string, now time.Time) bool {
	for _, p := range doc.PendingConfirmations {
		if p.AppointmentID == slotID && p.Active(now) {
			return true
		}
	}
	return false
}

// Reserve places a pending hold on slotID and emails the confirmation link.
// The hold stands even when the email cannot be sent.
func (s *DefaultBookingService) Reserve(ctx context.Context, slotID string, user models.UserData) (*ReservationResult, error) {
	log := s.logger().With(zap.String("op", "Reserve"), zap.String("slot", slotID))

	// Step 1: Validate caller data, reporting every violation at once.
	user = NormalizeUserData(user)
	if violations := ValidateUserData(user); len(violations) > 0 {
		log.Info("user data rejected", zap.Strings("violations", violations))
		return nil, validationError(violations)
	}

	token, err := utils.GenerateConfirmationToken()
	if err != nil {
		return nil, fmt.Errorf("reserve: %w", err)
	}

	// Step 2: Check and claim the slot inside one store transaction.
	var hold models.PendingConfirmation
	err = s.Store.Update(ctx, func(doc *models.Document) error {
		now := s.now()
		if n := expireOverdue(doc, now); n > 0 {
			log.Debug("expired overdue holds", zap.Int("count", n))
		}

		slot := doc.FindSlot(slotID)
		if slot == nil {
			return errSlotNotFound()
		}
		if !slot.Available || activeHoldOn(doc, slotID, now) {
			return errSlotUnavailable()
		}

		hold = models.PendingConfirmation{
			Token:              token,
			AppointmentID:      slot.ID,
			UserData:           user,
			AppointmentDetails: slot.Details(),
			CreatedAt:          now,
			ExpiresAt:          now.Add(s.holdDuration()),
			Status:             models.HoldStatusPending,
		}
		doc.PendingConfirmations = append(doc.PendingConfirmations, hold)
		return nil
	})
	if err != nil {
		log.Info("reservation failed", zap.Error(err))
		return nil, err
	}
	log.Info("slot held", zap.Time("expires_at", hold.ExpiresAt))

	if s.Expiry != nil {
		if err := s.Expiry.ScheduleExpiry(ctx, token, hold.ExpiresAt); err != nil {
			log.Warn("could not schedule hold expiry", zap.Error(err))
		}
	}

	// Step 3: Email the confirmation link. Advisory only.
	emailSent := false
	if s.Notifier != nil {
		res := s.Notifier.SendHoldConfirmation(ctx, user.Email, user.Name, hold.AppointmentDetails, token, user.Reason)
		emailSent = res.Sent()
		if !emailSent {
			log.Warn("hold confirmation email not sent", zap.String("message", res.Message))
		}
	}

	return &ReservationResult{
		Status:             "success",
		Message:            "Appointment slot reserved temporarily",
		ConfirmationToken:  token,
		AppointmentID:      hold.AppointmentID,
		AppointmentDetails: hold.AppointmentDetails,
		UserEmail:          user.Email,
		ExpiresInMinutes:   int(s.holdDuration() / time.Minute),
		ExpiresAt:          hold.ExpiresAt,
		EmailSent:          emailSent,
	}, nil
}

// Finalize turns a pending hold into a confirmed booking.
func (s *DefaultBookingService) Finalize(ctx context.Context, token string) (*FinalizeResult, error) {
	log := s.logger().With(zap.String("op", "Finalize"))

	var booking models.Booking
	expired := false
	err := s.Store.Update(ctx, func(doc *models.Document) error {
		now := s.now()

		pending := doc.FindPending(token)
		if pending == nil || pending.Status != models.HoldStatusPending {
			return errInvalidToken()
		}

		if now.After(pending.ExpiresAt) {
			pending.Status = models.HoldStatusExpired
			expired = true
			return nil
		}

		slot := doc.FindSlot(pending.AppointmentID)
		if slot == nil {
			return errSlotNotFound()
		}
		if !slot.Available {
			return errSlotUnavailable()
		}

		bookingID, err := utils.GenerateUniqueBookingID(func(id string) bool {
			return doc.FindBooking(id) != nil
		})
		if err != nil {
			return err
		}

		slot.Available = false
		booking = models.Booking{
			BookingID:          bookingID,
			AppointmentID:      pending.AppointmentID,
			UserData:           pending.UserData,
			AppointmentDetails: pending.AppointmentDetails,
			BookedAt:           now,
			Status:             models.BookingStatusConfirmed,
		}
		doc.Bookings = append(doc.Bookings, booking)
		pending.Status = models.HoldStatusConfirmed
		pending.BookingID = bookingID
		return nil
	})
	if err != nil {
		log.Info("finalize failed", zap.Error(err))
		return nil, err
	}
	if expired {
		log.Info("hold expired before confirmation")
		return nil, errTokenExpired()
	}
	log.Info("booking confirmed", zap.String("booking_id", booking.BookingID), zap.String("slot", booking.AppointmentID))

	emailSent := false
	if s.Notifier != nil {
		res := s.Notifier.SendBookingConfirmation(ctx, booking.UserData.Email, booking.UserData.Name, booking.BookingID, booking.AppointmentDetails, booking.UserData.Reason)
		emailSent = res.Sent()
		if !emailSent {
			log.Warn("booking confirmation email not sent", zap.String("message", res.Message))
		}
	}

	return &FinalizeResult{
		Status:    "success",
		Message:   "Appointment confirmed successfully!",
		Booking:   booking,
		EmailSent: emailSent,
	}, nil
}

// Cancel releases a confirmed booking and reopens its slot.
func (s *DefaultBookingService) Cancel(ctx context.Context, bookingID string) (*CancelResult, error) {
	var result CancelResult
	err := s.Store.Update(ctx, func(doc *models.Document) error {
		b := doc.FindBooking(bookingID)
		if b == nil || b.Status != models.BookingStatusConfirmed {
			return errBookingNotFound()
		}

		now := s.now()
		if slot := doc.FindSlot(b.AppointmentID); slot != nil {
			slot.Available = true
		}
		b.Status = models.BookingStatusCancelled
		b.CancelledAt = &now

		result = CancelResult{
			Status:    "success",
			Message:   "Booking cancelled successfully",
			BookingID: b.BookingID,
			SlotID:    b.AppointmentID,
			Cancelled: now,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger().Info("booking cancelled", zap.String("booking_id", bookingID))
	return &result, nil
}

// SweepExpired demotes overdue holds and persists only when something changed.
func (s *DefaultBookingService) SweepExpired(ctx context.Context) (int, error) {
	count := 0
	err := s.Store.Update(ctx, func(doc *models.Document) error {
		count = expireOverdue(doc, s.now())
		if count == 0 {
			return documentRepo.ErrNoChanges
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if count > 0 {
		s.logger().Info("expired holds swept", zap.Int("count", count))
	}
	return count, nil
}

func (s *DefaultBookingService) GetPendingConfirmation(ctx context.Context, token string) (*models.PendingConfirmation, error) {
	doc, err := s.Store.Load(ctx)
	if err != nil {
		return nil, err
	}
	p := doc.FindPending(token)
	if p == nil {
		return nil, utils.NewAppError(utils.KindNotFound, msgHoldNotFound)
	}
	found := *p
	return &found, nil
}

func (s *DefaultBookingService) GetBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	doc, err := s.Store.Load(ctx)
	if err != nil {
		return nil, err
	}
	b := doc.FindBooking(bookingID)
	if b == nil {
		return nil, utils.NewAppError(utils.KindNotFound, "Booking not found")
	}
	found := *b
	return &found, nil
}
