package models

import "time"

const (
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
)

// UserData is the caller information snapshotted into holds and bookings.
type UserData struct {
	Name   string `bson:"name" json:"name"`
	Email  string `bson:"email" json:"email"`
	Reason string `bson:"reason" json:"reason"`
}

// Booking represents a finalized appointment.
type Booking struct {
	BookingID          string             `bson:"booking_id" json:"booking_id"`                         // "BKG_" + 8 hex chars
	AppointmentID      string             `bson:"appointment_id" json:"appointment_id"`                 // Slot id
	UserData           UserData           `bson:"user_data" json:"user_data"`                           // Snapshot at reservation time
	AppointmentDetails AppointmentDetails `bson:"appointment_details" json:"appointment_details"`       // Snapshot at reservation time
	BookedAt           time.Time          `bson:"booked_at" json:"booked_at"`                           // Finalization time
	Status             string             `bson:"status" json:"status"`                                 // "confirmed" or "cancelled"
	CancelledAt        *time.Time         `bson:"cancelled_at,omitempty" json:"cancelled_at,omitempty"` // Set on cancellation
}
