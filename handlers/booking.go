package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"kvrdesk/services/booking"
	"kvrdesk/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BookingHandler exposes the slot registry and booking state machine over HTTP.
type BookingHandler struct {
	Service booking.BookingService
}

func NewBookingHandler(svc booking.BookingService) *BookingHandler {
	return &BookingHandler{Service: svc}
}

// ConfirmHoldHandler finalizes a hold from the emailed link.
// GET /confirm?token=...
func (h *BookingHandler) ConfirmHoldHandler(c *gin.Context) {
	token := strings.TrimSpace(c.Query("token"))
	wantsHTML := strings.Contains(c.GetHeader("Accept"), "text/html")

	if token == "" {
		if wantsHTML {
			c.HTML(http.StatusBadRequest, "confirm.html", gin.H{"Success": false, "Message": "The confirmation link is incomplete."})
			return
		}
		utils.JSONError(c, http.StatusBadRequest, "Missing confirmation token", "query parameter 'token' is required")
		return
	}

	res, err := h.Service.Finalize(c.Request.Context(), token)
	if err != nil {
		getLogger(c).Info("confirmation failed", zap.String("kind", string(utils.KindOf(err))))
		if wantsHTML {
			c.HTML(utils.StatusFor(err), "confirm.html", gin.H{"Success": false, "Message": utils.MessageOf(err)})
			return
		}
		utils.RespondError(c, err)
		return
	}

	if wantsHTML {
		details := res.Booking.AppointmentDetails
		c.HTML(http.StatusOK, "confirm.html", gin.H{
			"Success":   true,
			"BookingID": res.Booking.BookingID,
			"When":      booking.FormatDate(details.Date, res.Booking.BookedAt) + " at " + booking.FormatTime(details.Time),
		})
		return
	}
	c.JSON(http.StatusOK, res)
}

// AvailabilityHandler lists open slots on the requested dates.
// GET /api/availability?dates=2025-12-05,2025-12-06
func (h *BookingHandler) AvailabilityHandler(c *gin.Context) {
	var dates []string
	for _, raw := range c.QueryArray("dates") {
		for _, d := range strings.Split(raw, ",") {
			if d = strings.TrimSpace(d); d != "" {
				dates = append(dates, d)
			}
		}
	}
	if len(dates) == 0 {
		utils.JSONError(c, http.StatusBadRequest, "Missing dates", "provide at least one YYYY-MM-DD date")
		return
	}

	res, err := h.Service.CheckAvailability(c.Request.Context(), dates)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// NextAvailableHandler lists the earliest open slots from today on.
// GET /api/availability/next?count=5
func (h *BookingHandler) NextAvailableHandler(c *gin.Context) {
	count := 0
	if raw := c.Query("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			utils.JSONError(c, http.StatusBadRequest, "Invalid count", "count must be a positive integer")
			return
		}
		count = n
	}

	res, err := h.Service.NextAvailable(c.Request.Context(), count)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GetBookingHandler returns one booking by id.
func (h *BookingHandler) GetBookingHandler(c *gin.Context) {
	b, err := h.Service.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// CancelBookingHandler cancels a confirmed booking and reopens its slot.
func (h *BookingHandler) CancelBookingHandler(c *gin.Context) {
	res, err := h.Service.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	getLogger(c).Info("booking cancelled over HTTP", zap.String("booking_id", res.BookingID))
	c.JSON(http.StatusOK, res)
}
