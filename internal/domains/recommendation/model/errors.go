package model

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	ErrCodeValidation    = "validation_error"
	ErrCodeNotFound      = "not_found"
	ErrCodePermission    = "permission_denied"
	ErrCodeBusinessLogic = "business_logic_error"
)

// Sentinel errors
var (
	ErrNotFound = errors.New("recommendation not found")
)

// RecommendationError is the typed error carried from repository/service
// up to the API boundary. Every kind maps to one HTTP status.
type RecommendationError struct {
	Code       string
	Message    string
	StatusCode int
	Details    interface{}
	Err        error
}

func (e *RecommendationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *RecommendationError) Unwrap() error {
	return e.Err
}

// Error constructors

func NewValidationError(message string) *RecommendationError {
	return &RecommendationError{
		Code:       ErrCodeValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationErrorWithDetails(message string, details interface{}) *RecommendationError {
	return &RecommendationError{
		Code:       ErrCodeValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Details:    details,
	}
}

func NewNotFoundError(message string) *RecommendationError {
	return &RecommendationError{
		Code:       ErrCodeNotFound,
		Message:    message,
		StatusCode: http.StatusNotFound,
		Err:        ErrNotFound,
	}
}

func NewPermissionError(message string) *RecommendationError {
	return &RecommendationError{
		Code:       ErrCodePermission,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewBusinessLogicError(message string) *RecommendationError {
	return &RecommendationError{
		Code:       ErrCodeBusinessLogic,
		Message:    message,
		StatusCode: http.StatusUnprocessableEntity,
	}
}

// IsNotFound reports whether err is the missing-record sentinel,
// directly or wrapped inside a RecommendationError.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
