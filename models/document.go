package models

// Document is the single persisted record holding all booking state.
type Document struct {
	Appointments         []Slot                `bson:"appointments" json:"appointments"`
	Bookings             []Booking             `bson:"bookings" json:"bookings"`
	PendingConfirmations []PendingConfirmation `bson:"pending_confirmations" json:"pending_confirmations"`
}

// NewDocument returns the empty first-run skeleton.
func NewDocument() *Document {
	return &Document{
		Appointments:         []Slot{},
		Bookings:             []Booking{},
		PendingConfirmations: []PendingConfirmation{},
	}
}

// Normalize replaces nil collections so the document always serializes as arrays.
func (d *Document) Normalize() {
	if d.Appointments == nil {
		d.Appointments = []Slot{}
	}
	if d.Bookings == nil {
		d.Bookings = []Booking{}
	}
	if d.PendingConfirmations == nil {
		d.PendingConfirmations = []PendingConfirmation{}
	}
}

func (d *Document) FindSlot(id string) *Slot {
	for i := range d.Appointments {
		if d.Appointments[i].ID == id {
			return &d.Appointments[i]
		}
	}
	return nil
}

func (d *Document) FindBooking(id string) *Booking {
	for i := range d.Bookings {
		if d.Bookings[i].BookingID == id {
			return &d.Bookings[i]
		}
	}
	return nil
}

func (d *Document) FindPending(token string) *PendingConfirmation {
	for i := range d.PendingConfirmations {
		if d.PendingConfirmations[i].Token == token {
			return &d.PendingConfirmations[i]
		}
	}
	return nil
}
