package services

import (
	"errors"
	"fmt"

	apperrors "github.com/quantprep/challenge-service/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrUnauthorized     = errors.New("unauthorized access")
	ErrForbidden        = errors.New("forbidden - insufficient permissions")
	ErrValidationFailed = errors.New("validation failed")
	ErrInternalError    = errors.New("internal server error")
	ErrBadRequest       = errors.New("bad request")
	ErrConflict         = errors.New("resource conflict")

	// Question specific errors
	ErrQuestionNotFound   = errors.New("question not found")
	ErrPaidContentLocked  = errors.New("question requires a paid subscription")
	ErrAnswerTypeMismatch = errors.New("answer does not match the question's answer type")

	// Firm / challenge specific errors
	ErrFirmNotFound          = errors.New("firm not found")
	ErrFirmNotAccessible     = errors.New("firm requires a paid subscription")
	ErrFirmNotEligible       = errors.New("firm does not have enough questions for challenge mode")
	ErrChallengeNotActive    = errors.New("no active challenge session")
	ErrChallengeInProgress   = errors.New("a challenge session is already in progress")
	ErrInsufficientQuestions = errors.New("not enough questions to start a challenge")

	// Bookmark errors
	ErrBookmarkExists   = errors.New("question is already bookmarked")
	ErrBookmarkNotFound = errors.New("bookmark not found")

	// User/Profile errors
	ErrUserNotFound     = errors.New("user not found")
	ErrProfileNotFound  = errors.New("profile not found")
	ErrNotAuthenticated = errors.New("caller is not authenticated")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

type PermissionError struct {
	UserID   string `json:"user_id"`
	Resource string `json:"resource"`
	Action   string `json:"action"`
	Reason   string `json:"reason"`
}

func (pe *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %s cannot %s %s - %s",
		pe.UserID, pe.Action, pe.Resource, pe.Reason)
}

// ===== ERROR HELPERS =====

// NewValidationError creates a new validation error using the shared type
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

func NewPermissionError(userID, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:   userID,
		Resource: resource,
		Action:   action,
		Reason:   reason,
	}
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrQuestionNotFound) ||
		errors.Is(err, ErrFirmNotFound) ||
		errors.Is(err, ErrBookmarkNotFound) ||
		errors.Is(err, ErrProfileNotFound) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrChallengeNotActive)
}

// IsUnauthorized checks if error represents an "unauthorized" condition
func IsUnauthorized(err error) bool {
	if errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrNotAuthenticated) {
		return true
	}
	var pe *PermissionError
	return errors.As(err, &pe)
}

// IsForbidden checks if error represents a paywall or permission block
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrFirmNotAccessible) ||
		errors.Is(err, ErrPaidContentLocked)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) ||
		errors.Is(err, ErrAnswerTypeMismatch) {
		return true
	}
	var ve apperrors.ValidationErrors
	return errors.As(err, &ve)
}

// IsConflict checks if error represents a resource conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrBookmarkExists) ||
		errors.Is(err, ErrChallengeInProgress)
}
