package api

import (
	"net/http" // HTTP status codes

	"tutor_market/internal/middleware" // Actor extraction
	"tutor_market/internal/service"    // Services

	"github.com/gin-gonic/gin" // Gin web framework
)

// ChangeRoleRequest is the role change body
type ChangeRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// ApproveTutorHandler makes a profile publicly listable
func ApproveTutorHandler(tutors *service.TutorService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, _ := middleware.ActorFrom(c)
		p, err := tutors.Approve(c.Request.Context(), actor, c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// RejectTutorHandler removes a profile from the public listing
func RejectTutorHandler(tutors *service.TutorService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, _ := middleware.ActorFrom(c)
		p, err := tutors.Reject(c.Request.Context(), actor, c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// ListTutorsByStatusHandler lists profiles in one approval state, pending by default
func ListTutorsByStatusHandler(tutors *service.TutorService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, _ := middleware.ActorFrom(c)
		list, err := tutors.ListByStatus(c.Request.Context(), actor, c.DefaultQuery("status", "pending"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// ChangeRoleHandler moves a user to another role
func ChangeRoleHandler(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, _ := middleware.ActorFrom(c)
		var req ChangeRoleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "role is required")
			return
		}
		u, err := auth.ChangeRole(c.Request.Context(), actor, c.Param("id"), req.Role)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, u)
	}
}
