package api

import (
	"net/http" // HTTP status codes

	"tutor_market/internal/middleware" // Auth middleware
	"tutor_market/internal/service"    // Business services

	"github.com/gin-gonic/gin" // Gin web framework
)

// CreateTutorRequest is the tutor profile body. approvalStatus is accepted
// for client compatibility and ignored.
type CreateTutorRequest struct {
	UserID         string   `json:"userId"`         // Owner of the profile
	Bio            *string  `json:"bio"`            // Optional free text
	HourlyRate     *float64 `json:"hourlyRate"`     // Optional, non-negative
	SubjectIDs     []string `json:"subjectIds"`     // Subjects the tutor teaches
	ApprovalStatus string   `json:"approvalStatus"` // Ignored
}

// ListSubjectsHandler returns the subject catalogue
func ListSubjectsHandler(tutors *service.TutorService) gin.HandlerFunc {
	return func(c *gin.Context) {
		subjects, err := tutors.ListSubjects(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, subjects)
	}
}

// ListTutorsHandler returns approved tutors only
func ListTutorsHandler(tutors *service.TutorService) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Served from Redis when the cache is configured
		list, err := tutors.ListApproved(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// GetTutorHandler returns one profile
func GetTutorHandler(tutors *service.TutorService) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Unapproved profiles are still returned by id
		p, err := tutors.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// CreateTutorHandler creates a pending tutor profile
func CreateTutorHandler(tutors *service.TutorService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, _ := middleware.ActorFrom(c) // Caller set by JWTAuthMiddleware
		var req CreateTutorRequest          // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request")
			return
		}
		p, err := tutors.CreateProfile(c.Request.Context(), actor, service.CreateProfileInput{
			UserID:     req.UserID,
			Bio:        req.Bio,
			HourlyRate: req.HourlyRate,
			SubjectIDs: req.SubjectIDs,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, p)
	}
}
