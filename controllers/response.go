package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tavrezsi/tavrezsi-api/config"
	"github.com/tavrezsi/tavrezsi-api/logger"
	"github.com/tavrezsi/tavrezsi-api/middleware"
	"github.com/tavrezsi/tavrezsi-api/services"
	"github.com/tavrezsi/tavrezsi-api/utils"
	"go.uber.org/zap"
)

func respondOK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

func respondFailure(c *gin.Context, status int, code, message string, details interface{}) {
	body := gin.H{
		"code":    code,
		"message": message,
	}
	if details != nil {
		body["details"] = details
	}
	c.JSON(status, gin.H{
		"success": false,
		"error":   body,
	})
}

// respondBindError reports a request body that could not be bound
func respondBindError(c *gin.Context, err error) {
	respondFailure(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data", err.Error())
}

// respondError maps a service error onto the HTTP error envelope
func respondError(c *gin.Context, err error) {
	var (
		validationErr *services.ValidationError
		paramErr      *utils.ParamError
		notFoundErr   *services.NotFoundError
		authzErr      *services.AuthorizationError
		conflictErr   *services.ConflictError
		dependencyErr *services.DependencyError
	)

	switch {
	case errors.As(err, &validationErr):
		respondFailure(c, http.StatusBadRequest, "VALIDATION_ERROR", validationErr.Message, gin.H{"field": validationErr.Field})
	case errors.As(err, &paramErr):
		respondFailure(c, http.StatusBadRequest, "VALIDATION_ERROR", paramErr.Message, gin.H{"field": paramErr.Field})
	case errors.As(err, &notFoundErr):
		code := strings.ToUpper(strings.ReplaceAll(notFoundErr.Resource, " ", "_")) + "_NOT_FOUND"
		respondFailure(c, http.StatusNotFound, code, capitalize(notFoundErr.Error()), nil)
	case errors.As(err, &authzErr):
		respondFailure(c, http.StatusForbidden, "FORBIDDEN", authzErr.Error(), nil)
	case errors.As(err, &conflictErr):
		respondFailure(c, http.StatusConflict, "CONFLICT", conflictErr.Message, nil)
	case errors.Is(err, services.ErrInvalidToken):
		respondFailure(c, http.StatusBadRequest, "INVALID_TOKEN", "The link is invalid", nil)
	case errors.Is(err, services.ErrTokenExpired):
		respondFailure(c, http.StatusGone, "TOKEN_EXPIRED", "The link has expired", nil)
	case errors.Is(err, services.ErrTokenAlreadyUsed):
		respondFailure(c, http.StatusConflict, "TOKEN_ALREADY_USED", "The link has already been used", nil)
	case errors.Is(err, services.ErrInvalidCredentials):
		respondFailure(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid username or password", nil)
	case errors.Is(err, services.ErrAccountNotActivated):
		respondFailure(c, http.StatusForbidden, "ACCOUNT_NOT_ACTIVATED", "Set your password using the link in your invitation email first", nil)
	case errors.As(err, &dependencyErr):
		logFailure(c, err)
		respondFailure(c, http.StatusInternalServerError, "DEPENDENCY_ERROR", "A required service is unavailable, please try again later", nil)
	default:
		logFailure(c, err)
		respondFailure(c, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)
	}
}

func logFailure(c *gin.Context, err error) {
	_ = c.Error(err)
	logger.Named("api").Error("request failed",
		zap.String("request_id", middleware.GetRequestID(c)),
		zap.String("method", c.Request.Method),
		zap.String("route", c.FullPath()),
		zap.Error(err))
}

// currentCaller returns the authenticated caller or writes a 401
func currentCaller(c *gin.Context) (services.Caller, bool) {
	caller, err := middleware.GetCaller(c)
	if err != nil {
		respondFailure(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information", nil)
		return services.Caller{}, false
	}
	return caller, true
}

func appBaseURL() string {
	if cfg := config.GetConfig(); cfg != nil && cfg.AppBaseURL != "" {
		return cfg.AppBaseURL
	}
	return "http://localhost:3000"
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
