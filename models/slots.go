package models

// Slot is a bookable appointment unit.
type Slot struct {
	ID        string `bson:"id" json:"id"`               // Opaque identifier, e.g. "apt_001"
	Date      string `bson:"date" json:"date"`           // "YYYY-MM-DD"
	Time      string `bson:"time" json:"time"`           // "HH:MM", 24-hour
	Type      string `bson:"type" json:"type"`           // Free-text category, e.g. "emergency"
	Available bool   `bson:"available" json:"available"` // False once booked
}

// AppointmentDetails is the display snapshot of a slot copied into holds and bookings.
type AppointmentDetails struct {
	Date string `bson:"date" json:"date"`
	Time string `bson:"time" json:"time"`
	Type string `bson:"type" json:"type"`
}

// Details snapshots the slot for a hold or booking.
func (s Slot) Details() AppointmentDetails {
	return AppointmentDetails{Date: s.Date, Time: s.Time, Type: s.Type}
}

// SlotView is the slot shape returned to callers of availability queries.
type SlotView struct {
	ID   string `json:"id"`
	Date string `json:"date"`
	Time string `json:"time"`
	Type string `json:"type"`
}

func (s Slot) View() SlotView {
	return SlotView{ID: s.ID, Date: s.Date, Time: s.Time, Type: s.Type}
}
