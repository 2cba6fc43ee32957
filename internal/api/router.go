package api

import (
	"net/http" // HTTP status codes

	"tutor_market/internal/middleware" // Auth middleware
	"tutor_market/internal/service"    // Business services

	"github.com/gin-gonic/gin" // Gin web framework
)

// Deps are the collaborators the HTTP layer needs
type Deps struct {
	Auth     *service.AuthService
	Tutors   *service.TutorService
	Bookings *service.BookingService
	Meetings *service.MeetingService
	Backend  string // Store backend reported by /health
}

// HealthHandler reports liveness and the active store backend
func HealthHandler(backend string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "store": backend})
	}
}

// NewRouter wires every route onto a fresh gin engine
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())

	r.GET("/health", HealthHandler(d.Backend))

	auth := r.Group("/auth")
	auth.POST("/register", RegisterHandler(d.Auth))
	auth.POST("/login", LoginHandler(d.Auth))

	r.GET("/subjects", ListSubjectsHandler(d.Tutors))
	r.GET("/tutors", ListTutorsHandler(d.Tutors))
	r.GET("/tutors/:id", GetTutorHandler(d.Tutors))

	jwt := middleware.JWTAuthMiddleware(d.Auth)
	r.POST("/tutors", jwt, CreateTutorHandler(d.Tutors))

	// Bookings are protected by JWT
	bookings := r.Group("/bookings", jwt)
	bookings.POST("", CreateBookingHandler(d.Bookings))
	bookings.GET("", ListBookingsHandler(d.Bookings))
	bookings.POST("/hold", HoldBookingHandler(d.Bookings))
	bookings.POST("/confirm", ConfirmBookingHandler(d.Bookings))
	bookings.GET("/:id", GetBookingHandler(d.Bookings))
	bookings.POST("/:id/cancel", CancelBookingHandler(d.Bookings))
	bookings.POST("/:id/complete", CompleteBookingHandler(d.Bookings))

	r.POST("/meeting", jwt, CreateMeetingHandler(d.Meetings))

	// Admin routes require JWT and the admin role
	admin := r.Group("/admin", jwt, middleware.AdminOnlyMiddleware())
	admin.GET("/tutors", ListTutorsByStatusHandler(d.Tutors))
	admin.POST("/tutors/:id/approve", ApproveTutorHandler(d.Tutors))
	admin.POST("/tutors/:id/reject", RejectTutorHandler(d.Tutors))
	admin.PATCH("/users/:id/role", ChangeRoleHandler(d.Auth))

	return r
}
