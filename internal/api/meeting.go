package api

import (
	"net/http" // HTTP status codes

	"tutor_market/internal/middleware" // Auth middleware
	"tutor_market/internal/service"    // Business services

	"github.com/gin-gonic/gin" // Gin web framework
)

// MeetingRequest asks for session links
type MeetingRequest struct {
	BookingID string `json:"bookingId" binding:"required"` // Booking to join
	Provider  string `json:"provider"`                     // Defaults to zoom
}

// CreateMeetingHandler returns templated join and host links for a booking
func CreateMeetingHandler(meetings *service.MeetingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, _ := middleware.ActorFrom(c) // Caller set by JWTAuthMiddleware
		var req MeetingRequest              // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "bookingId is required")
			return
		}
		// Only booking participants get links
		m, err := meetings.Create(c.Request.Context(), actor, req.BookingID, req.Provider)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, m)
	}
}
