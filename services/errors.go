package services

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError is returned when input fails a business rule
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NotFoundError is returned when a referenced entity does not exist
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

// AuthorizationError is returned when the caller may not act on an entity
type AuthorizationError struct {
	Message string
}

func (e *AuthorizationError) Error() string {
	if e.Message == "" {
		return "access denied"
	}
	return e.Message
}

// ConflictError is returned on uniqueness or state-transition conflicts
type ConflictError struct {
	Resource string
	Message  string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// DependencyError wraps a failure of an external collaborator
type DependencyError struct {
	Dependency string
	Err        error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Dependency, e.Err)
}

func (e *DependencyError) Unwrap() error {
	return e.Err
}

// Credential and token failures
var (
	ErrInvalidToken        = errors.New("invalid or unknown token")
	ErrTokenExpired        = errors.New("token has expired")
	ErrTokenAlreadyUsed    = errors.New("token has already been used")
	ErrInvalidCredentials  = errors.New("invalid username or password")
	ErrAccountNotActivated = errors.New("account has not been activated")
)

func notFound(resource string) error {
	return &NotFoundError{Resource: resource}
}

func forbidden(format string, args ...interface{}) error {
	return &AuthorizationError{Message: fmt.Sprintf(format, args...)}
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// isUniqueViolation detects unique constraint failures across drivers
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "sqlstate 23505")
}
