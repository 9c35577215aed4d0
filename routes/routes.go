package routes

import (
	"net/http"
	"time"

	"kvrdesk/handlers"
	"kvrdesk/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterSessionRoutes registers the conversation socket and webhook.
func RegisterSessionRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/websocket", hb.WebSocketHandler)
	r.POST("/webhook", middleware.WebhookSignatureMiddleware(hb.WebhookSecret), hb.WebhookHandler)
	r.GET("/api/sessions/:id/snapshot", hb.SnapshotHandler)
}

// RegisterBookingRoutes sets up the endpoints for the booking engine.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/confirm", hb.ConfirmHoldHandler)

	api := r.Group("/api")
	{
		api.GET("/availability", hb.AvailabilityHandler)
		api.GET("/availability/next", hb.NextAvailableHandler)
		api.GET("/bookings/:id", hb.GetBookingHandler)
		api.POST("/bookings/:id/cancel", hb.CancelBookingHandler)
	}
}

// RegisterSpeechRoutes registers the one-shot speech endpoints.
func RegisterSpeechRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	speech := r.Group("/api/speech")
	{
		speech.POST("/transcribe", hb.TranscribeHandler)
		speech.POST("/synthesize", hb.SynthesizeHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	if hb.HealthHandler != nil {
		r.GET("/health", hb.HealthHandler)
		return
	}
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", middleware.SignatureHeader, middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}))
	r.SetHTMLTemplate(handlers.Pages())

	RegisterSessionRoutes(r, hb)
	RegisterBookingRoutes(r, hb)
	RegisterSpeechRoutes(r, hb)
	RegisterHealthRoute(r, hb)
}
