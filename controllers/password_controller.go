package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tavrezsi/tavrezsi-api/config"
	"github.com/tavrezsi/tavrezsi-api/services"
)

// RequestPasswordResetRequest represents the request body for a reset link
type RequestPasswordResetRequest struct {
	Email string `json:"email" binding:"required"`
}

// ResetPasswordRequest represents the request body for setting a new password
type ResetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func passwordResetService() *services.PasswordResetService {
	return services.NewPasswordResetService(config.GetDB(), services.GetNotifier(), appBaseURL())
}

// RequestPasswordReset handles POST /api/request-password-reset. The response
// does not reveal whether the email is registered.
func RequestPasswordReset(c *gin.Context) {
	var req RequestPasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := passwordResetService().RequestReset(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{
		"message": "If the email address is registered, a password reset link has been sent.",
	})
}

// ValidateResetToken handles GET /api/reset-password/:token
func ValidateResetToken(c *gin.Context) {
	status, err := passwordResetService().ValidateToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, status)
}

// ResetPassword handles POST /api/reset-password
func ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := passwordResetService().ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{
		"message": "Your password has been set. You can now log in.",
	})
}
