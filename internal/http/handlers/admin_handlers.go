package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/serenespa/membership/internal/domain"
	"github.com/serenespa/membership/internal/http/middleware"
	"github.com/serenespa/membership/internal/http/response"
)

// NotificationLister is the slice of the notification repository the
// admin inbox endpoints need.
type NotificationLister interface {
	List(ctx context.Context, unreadOnly bool, limit, offset int) ([]domain.AdminNotification, error)
	MarkRead(ctx context.Context, id int64) error
}

type rejectPaymentReq struct {
	Reason string `json:"reason"`
}

type deactivateReq struct {
	Reason string `json:"reason"`
}

// ListPaymentSubmissions lists submissions in the review queue
func (h *Handlers) ListPaymentSubmissions(w http.ResponseWriter, r *http.Request) {
	status := domain.SubmissionPending
	if raw := r.URL.Query().Get("status"); raw != "" {
		parsed, ok := domain.ParseSubmissionStatus(raw)
		if !ok {
			response.BadRequest(w, "Invalid status parameter")
			return
		}
		status = parsed
	}

	limit, offset := parsePagination(r)

	submissions, err := h.paymentService.ListSubmissions(r.Context(), status, limit, offset)
	if err != nil {
		response.InternalError(w, "Failed to retrieve submissions")
		return
	}
	if submissions == nil {
		submissions = []domain.PaymentSubmission{}
	}

	writeJSON(w, http.StatusOK, submissions)
}

// ApprovePayment approves a pending submission, activating the signup
func (h *Handlers) ApprovePayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		response.BadRequest(w, "Invalid submission id")
		return
	}

	claims := middleware.Claims(r)
	if claims == nil {
		response.Unauthorized(w, "Missing admin session")
		return
	}

	submission, err := h.paymentService.ApprovePayment(r.Context(), id, claims.Sub)
	if err != nil {
		response.DomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, submission)
}

// RejectPayment rejects a pending submission with a reason
func (h *Handlers) RejectPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		response.BadRequest(w, "Invalid submission id")
		return
	}

	claims := middleware.Claims(r)
	if claims == nil {
		response.Unauthorized(w, "Missing admin session")
		return
	}

	var req rejectPaymentReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Reason == "" {
		response.BadRequest(w, "A rejection reason is required")
		return
	}

	submission, err := h.paymentService.RejectPayment(r.Context(), id, claims.Sub, req.Reason)
	if err != nil {
		response.DomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, submission)
}

// DeactivateSignup is the admin-initiated deactivation
func (h *Handlers) DeactivateSignup(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		response.BadRequest(w, "Invalid signup id")
		return
	}

	var req deactivateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Reason == "" {
		response.BadRequest(w, "A deactivation reason is required")
		return
	}

	signup, err := h.signupService.DeactivateAccount(r.Context(), id, req.Reason)
	if err != nil {
		response.DomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, signup)
}

// ListNotifications returns the admin inbox
func (h *Handlers) ListNotifications(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	unreadOnly := r.URL.Query().Get("unread") == "true"

	notifications, err := h.notifications.List(r.Context(), unreadOnly, limit, offset)
	if err != nil {
		response.InternalError(w, "Failed to retrieve notifications")
		return
	}
	if notifications == nil {
		notifications = []domain.AdminNotification{}
	}

	writeJSON(w, http.StatusOK, notifications)
}

// MarkNotificationRead flips the read flag on an inbox entry
func (h *Handlers) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		response.BadRequest(w, "Invalid notification id")
		return
	}

	if err := h.notifications.MarkRead(r.Context(), id); err != nil {
		response.DomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"read": true})
}
