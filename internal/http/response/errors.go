package response

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/serenespa/membership/internal/domain"
)

// ErrorResponse represents a structured JSON error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// WriteError writes a structured JSON error response
func WriteError(w http.ResponseWriter, statusCode int, message string, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errResp := ErrorResponse{
		Error: message,
		Code:  code,
	}

	if err := json.NewEncoder(w).Encode(errResp); err != nil {
		log.Printf("failed to encode error response: %v", err)
	}
}

// WriteErrorWithDetails writes a structured JSON error response with additional details
func WriteErrorWithDetails(w http.ResponseWriter, statusCode int, message, code, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errResp := ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	}

	if err := json.NewEncoder(w).Encode(errResp); err != nil {
		log.Printf("failed to encode error response: %v", err)
	}
}

// Common error codes
const (
	CodeInvalidInput      = "INVALID_INPUT"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeForbidden         = "FORBIDDEN"
	CodeNotFound          = "NOT_FOUND"
	CodeConflict          = "CONFLICT"
	CodeRateLimit         = "RATE_LIMIT_EXCEEDED"
	CodeInternalError     = "INTERNAL_ERROR"
	CodeEmailExists       = "EMAIL_EXISTS"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeDeadlinePassed    = "DEADLINE_PASSED"
	CodeInvalidPortal     = "INVALID_PORTAL"
	CodeProofUnderReview  = "PROOF_UNDER_REVIEW"
)

// Convenience functions for common errors
func BadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message, CodeInvalidInput)
}

func Unauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, message, CodeUnauthorized)
}

func Forbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, message, CodeForbidden)
}

func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message, CodeNotFound)
}

func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, message, CodeInternalError)
}

func RateLimit(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusTooManyRequests, message, CodeRateLimit)
}

func Conflict(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusConflict, message, CodeConflict)
}

// DomainError maps workflow errors onto the right status and code.
func DomainError(w http.ResponseWriter, err error) {
	var (
		invalidTransition *domain.InvalidTransitionError
		deadlinePassed    *domain.DeadlinePassedError
		pendingSubmission *domain.PendingSubmissionError
		conflict          *domain.ConflictError
		configuration     *domain.ConfigurationError
		notFound          *domain.NotFoundError
	)

	switch {
	case errors.As(err, &pendingSubmission):
		WriteError(w, http.StatusConflict, pendingSubmission.Error(), CodeProofUnderReview)
	case errors.As(err, &deadlinePassed):
		WriteErrorWithDetails(w, http.StatusConflict,
			"payment deadline passed, account will be deactivated",
			CodeDeadlinePassed,
			"deadline was "+deadlinePassed.Deadline.Format(time.RFC3339))
	case errors.As(err, &invalidTransition):
		WriteError(w, http.StatusConflict, invalidTransition.Error(), CodeInvalidTransition)
	case errors.As(err, &conflict):
		WriteError(w, http.StatusConflict, conflict.Error(), CodeEmailExists)
	case errors.As(err, &configuration):
		WriteError(w, http.StatusBadRequest, configuration.Error(), CodeInvalidPortal)
	case errors.As(err, &notFound):
		WriteError(w, http.StatusNotFound, notFound.Error(), CodeNotFound)
	default:
		InternalError(w, "internal server error")
	}
}
