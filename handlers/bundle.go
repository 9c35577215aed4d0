// File: kvrdesk/handlers/bundle.go
package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	WebhookSecret string

	// Session endpoints
	WebSocketHandler gin.HandlerFunc
	SnapshotHandler  gin.HandlerFunc
	HealthHandler    gin.HandlerFunc

	// Out-of-band tool calls
	WebhookHandler gin.HandlerFunc

	// Booking endpoints
	ConfirmHoldHandler   gin.HandlerFunc
	AvailabilityHandler  gin.HandlerFunc
	NextAvailableHandler gin.HandlerFunc
	GetBookingHandler    gin.HandlerFunc
	CancelBookingHandler gin.HandlerFunc

	// Speech endpoints
	TranscribeHandler gin.HandlerFunc
	SynthesizeHandler gin.HandlerFunc
}
