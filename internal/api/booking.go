package api

import (
	"net/http" // HTTP status codes
	"strconv"  // String conversion
	"time"     // Booking times

	"tutor_market/internal/domain"     // Domain types
	"tutor_market/internal/middleware" // Actor extraction
	"tutor_market/internal/service"    // Booking service

	"github.com/gin-gonic/gin" // Gin web framework
)

// BookingRequest is the create body
type BookingRequest struct {
	StudentID string     `json:"studentId"`
	TutorID   string     `json:"tutorId"`
	SubjectID string     `json:"subjectId"`
	Mode      string     `json:"mode"`
	StartAt   *time.Time `json:"startAt"`
	EndAt     *time.Time `json:"endAt"`
}

// HoldRequest is the hold body; the snake_case fields are aliases used by
// the web client
type HoldRequest struct {
	BookingRequest
	IdempotencyKey string     `json:"idempotencyKey"`
	IdemKeyAlias   string     `json:"idempotency_key"`
	TutorIDAlias   string     `json:"tutor_id"`
	StudentIDAlias string     `json:"student_id"`
	SubjectIDAlias string     `json:"subject_id"`
	StartUTC       *time.Time `json:"start_utc"`
	EndUTC         *time.Time `json:"end_utc"`
}

// ConfirmRequest is the confirm body, with snake_case aliases
type ConfirmRequest struct {
	BookingID            string `json:"bookingId"`
	PaymentMethodID      string `json:"paymentMethodId"`
	BookingIDAlias       string `json:"booking_id"`
	PaymentMethodIDAlias string `json:"payment_method_id"`
}

func firstOf(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstTime(vals ...*time.Time) time.Time {
	for _, v := range vals {
		if v != nil {
			return *v
		}
	}
	return time.Time{}
}

func (r BookingRequest) input() service.BookingInput {
	return service.BookingInput{
		StudentID: r.StudentID,
		TutorID:   r.TutorID,
		SubjectID: r.SubjectID,
		Mode:      r.Mode,
		StartAt:   firstTime(r.StartAt),
		EndAt:     firstTime(r.EndAt),
	}
}

func (r HoldRequest) input() service.BookingInput {
	in := r.BookingRequest.input()
	in.StudentID = firstOf(r.StudentID, r.StudentIDAlias)
	in.TutorID = firstOf(r.TutorID, r.TutorIDAlias)
	in.SubjectID = firstOf(r.SubjectID, r.SubjectIDAlias)
	in.StartAt = firstTime(r.StartAt, r.StartUTC)
	in.EndAt = firstTime(r.EndAt, r.EndUTC)
	if in.Mode == "" {
		in.Mode = string(domain.ModeOnline)
	}
	return in
}

// parsePagination reads page and page_size; out-of-range pages are rejected by the service
func parsePagination(c *gin.Context) (page, pageSize int) {
	page, pageSize = 1, 20
	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}
	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= service.MaxPageSize {
			pageSize = v
		}
	}
	return page, pageSize
}

// CreateBookingHandler creates a pending booking
func CreateBookingHandler(bookings *service.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, _ := middleware.ActorFrom(c)
		var req BookingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request")
			return
		}
		b, err := bookings.Create(c.Request.Context(), actor, req.input())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, b)
	}
}

// HoldBookingHandler reserves an interval. A replay of a live hold answers
// 200 with the original booking; a new hold answers 201.
func HoldBookingHandler(bookings *service.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, _ := middleware.ActorFrom(c)
		var req HoldRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request")
			return
		}
		key := firstOf(req.IdempotencyKey, req.IdemKeyAlias, c.GetHeader("Idempotency-Key"))
		b, replayed, err := bookings.Hold(c.Request.Context(), actor, req.input(), key)
		if err != nil {
			respondError(c, err)
			return
		}
		status := http.StatusCreated
		if replayed {
			status = http.StatusOK
		}
		c.JSON(status, b)
	}
}

// ConfirmBookingHandler captures payment and confirms a pending booking
func ConfirmBookingHandler(bookings *service.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, _ := middleware.ActorFrom(c)
		var req ConfirmRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request")
			return
		}
		id := firstOf(req.BookingID, req.BookingIDAlias)
		if id == "" {
			badRequest(c, "bookingId is required")
			return
		}
		b, err := bookings.Confirm(c.Request.Context(), actor, id, firstOf(req.PaymentMethodID, req.PaymentMethodIDAlias))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, b)
	}
}

// CancelBookingHandler cancels a pending or confirmed booking
func CancelBookingHandler(bookings *service.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, _ := middleware.ActorFrom(c)
		b, err := bookings.Cancel(c.Request.Context(), actor, c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, b)
	}
}

// CompleteBookingHandler marks a finished session as completed
func CompleteBookingHandler(bookings *service.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, _ := middleware.ActorFrom(c)
		b, err := bookings.Complete(c.Request.Context(), actor, c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, b)
	}
}

// GetBookingHandler returns one booking to a participant
func GetBookingHandler(bookings *service.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, _ := middleware.ActorFrom(c)
		b, err := bookings.GetByID(c.Request.Context(), actor, c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, b)
	}
}

// ListBookingsHandler returns the caller's bookings, paginated
func ListBookingsHandler(bookings *service.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, _ := middleware.ActorFrom(c)
		page, pageSize := parsePagination(c)
		res, err := bookings.ListForActor(c.Request.Context(), actor, page, pageSize)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}
