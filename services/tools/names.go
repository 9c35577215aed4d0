package tools

// Name is the closed set of tools the dispatcher can run.
type Name string

const (
	CollectUserInfo              Name = "collect_user_info"
	CheckAvailability            Name = "check_availability"
	ReserveSlotTemporarily       Name = "reserve_slot_temporarily"
	BookAppointment              Name = "book_appointment"
	CancelBooking                Name = "cancel_booking"
	GetNextAvailableSlots        Name = "get_next_available_slots"
	SendConfirmationEmail        Name = "send_confirmation_email"
	SendBookingConfirmationEmail Name = "send_booking_confirmation_email"
)

// ParseName resolves a tool name sent by the model or a webhook caller.
func ParseName(s string) (Name, bool) {
	switch n := Name(s); n {
	case CollectUserInfo, CheckAvailability, ReserveSlotTemporarily, BookAppointment,
		CancelBooking, GetNextAvailableSlots, SendConfirmationEmail, SendBookingConfirmationEmail:
		return n, true
	}
	return "", false
}

// All lists every dispatchable tool.
func All() []Name {
	return []Name{
		CollectUserInfo, CheckAvailability, ReserveSlotTemporarily, BookAppointment,
		CancelBooking, GetNextAvailableSlots, SendConfirmationEmail, SendBookingConfirmationEmail,
	}
}
