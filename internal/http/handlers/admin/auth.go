package admin

import (
	"errors"

	"github.com/sofahub/sofahub-api/internal/http/response"
	"github.com/sofahub/sofahub-api/internal/service"

	"github.com/gin-gonic/gin"
)

// LoginRequest is the staff credential payload.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ChangePasswordRequest rotates the caller's password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// Login authenticates a staff account and issues a token.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	result, err := h.AuthService.Login(req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCredentialsInvalid):
			requestLog(c).Warnw("staff_login_rejected", "username", req.Username, "client_ip", c.ClientIP())
			respondError(c, response.CodeUnauthorized, "invalid credentials", nil)
		case errors.Is(err, service.ErrAccountDisabled):
			respondError(c, response.CodeForbidden, "account disabled", nil)
		default:
			respondError(c, response.CodeInternal, "login failed", err)
		}
		return
	}

	response.Success(c, result)
}

// Me returns the authenticated staff account.
func (h *Handler) Me(c *gin.Context) {
	id, ok := staffID(c)
	if !ok {
		return
	}
	staff, err := h.StaffRepo.GetByID(id)
	if err != nil {
		respondError(c, response.CodeInternal, "staff fetch failed", err)
		return
	}
	if staff == nil {
		respondError(c, response.CodeUnauthorized, "unauthorized", nil)
		return
	}
	response.Success(c, service.StaffBrief{ID: staff.ID, Username: staff.Username})
}

// ChangePassword rotates the caller's password after verifying the current
// one.
func (h *Handler) ChangePassword(c *gin.Context) {
	id, ok := staffID(c)
	if !ok {
		return
	}
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	if err := h.AuthService.ChangePassword(id, req.CurrentPassword, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, service.ErrCredentialsInvalid):
			respondError(c, response.CodeBadRequest, "password change rejected", nil)
		default:
			respondError(c, response.CodeInternal, "password change failed", err)
		}
		return
	}
	response.Success(c, gin.H{"changed": true})
}
