package models

import "time"

const (
	HoldStatusPending   = "pending"
	HoldStatusConfirmed = "confirmed"
	HoldStatusExpired   = "expired"
)

// PendingConfirmation is a time-boxed hold on a slot awaiting token confirmation.
type PendingConfirmation struct {
	Token              string             `bson:"token" json:"token"`                               // Capability token sent by email
	AppointmentID      string             `bson:"appointment_id" json:"appointment_id"`             // Slot id
	UserData           UserData           `bson:"user_data" json:"user_data"`                       // Copied, not referenced
	AppointmentDetails AppointmentDetails `bson:"appointment_details" json:"appointment_details"`   // Copied, not referenced
	CreatedAt          time.Time          `bson:"created_at" json:"created_at"`                     // Hold creation
	ExpiresAt          time.Time          `bson:"expires_at" json:"expires_at"`                     // CreatedAt + hold duration
	Status             string             `bson:"status" json:"status"`                             // pending, confirmed or expired
	BookingID          string             `bson:"booking_id,omitempty" json:"booking_id,omitempty"` // Set once confirmed
}

// Active reports whether the hold still blocks its slot at now.
func (p PendingConfirmation) Active(now time.Time) bool {
	return p.Status == HoldStatusPending && !now.After(p.ExpiresAt)
}
