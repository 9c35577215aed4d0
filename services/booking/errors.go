package booking

import "kvrdesk/utils"

const (
	msgInvalidUserData = "Invalid user data"
	msgSlotNotFound    = "Appointment not found"
	msgSlotUnavailable = "This appointment slot is no longer available"
	msgInvalidToken    = "Invalid or already used confirmation token"
	msgTokenExpired    = "Confirmation token has expired. Please request a new appointment."
	msgBookingNotFound = "Booking not found or already cancelled"
	msgHoldNotFound    = "Confirmation not found"
)

func errSlotNotFound() error {
	return utils.NewAppError(utils.KindNotFound, msgSlotNotFound)
}

func errSlotUnavailable() error {
	return utils.NewAppError(utils.KindSlotUnavailable, msgSlotUnavailable)
}

func errInvalidToken() error {
	return utils.NewAppError(utils.KindInvalidToken, msgInvalidToken)
}

func errTokenExpired() error {
	return utils.NewAppError(utils.KindExpired, msgTokenExpired)
}

func errBookingNotFound() error {
	return utils.NewAppError(utils.KindNotFound, msgBookingNotFound)
}
