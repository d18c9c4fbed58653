package handlers

import (
	"encoding/json"
	"net"
	"net/http"

	"github.com/serenespa/membership/internal/http/response"
	"github.com/serenespa/membership/pkg/logger"
)

type selectPlanReq struct {
	PlanType string `json:"plan_type"`
}

type selectPortalReq struct {
	PortalType string `json:"portal_type"`
}

type createAccountReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type completeProfileReq struct {
	MemberID int64 `json:"member_id"`
}

// SelectPlan starts a new signup from a plan choice
func (h *Handlers) SelectPlan(w http.ResponseWriter, r *http.Request) {
	var req selectPlanReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	signup, err := h.signupService.SelectPlan(r.Context(), req.PlanType)
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, signup)
}

// GetSignup returns the current signup state
func (h *Handlers) GetSignup(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		response.BadRequest(w, "Invalid signup id")
		return
	}

	signup, err := h.signupService.GetSignup(r.Context(), id)
	if err != nil {
		response.DomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, signup)
}

// AcceptTerms records terms acceptance with audit fields
func (h *Handlers) AcceptTerms(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		response.BadRequest(w, "Invalid signup id")
		return
	}

	signup, err := h.signupService.AcceptTerms(r.Context(), id, clientIP(r), r.UserAgent())
	if err != nil {
		response.DomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, signup)
}

// SelectPortal records the provider category choice
func (h *Handlers) SelectPortal(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		response.BadRequest(w, "Invalid signup id")
		return
	}

	var req selectPortalReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	signup, err := h.signupService.SelectPortal(r.Context(), id, req.PortalType)
	if err != nil {
		response.DomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, signup)
}

// CreateAccount creates the auth account and the initial member profile
func (h *Handlers) CreateAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		response.BadRequest(w, "Invalid signup id")
		return
	}

	var req createAccountReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	signup, err := h.signupService.CreateAccount(r.Context(), id, req.Email, req.Password, req.Name)
	if err != nil {
		response.DomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, signup)
}

// CompleteProfile marks the member profile as filled in
func (h *Handlers) CompleteProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		response.BadRequest(w, "Invalid signup id")
		return
	}

	var req completeProfileReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	signup, err := h.signupService.CompleteProfile(r.Context(), id, req.MemberID)
	if err != nil {
		response.DomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, signup)
}

// SubmitGoLive makes the profile public and starts the payment clock
func (h *Handlers) SubmitGoLive(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		response.BadRequest(w, "Invalid signup id")
		return
	}

	signup, err := h.signupService.SubmitGoLive(r.Context(), id)
	if err != nil {
		response.DomainError(w, err)
		return
	}

	logger.InfoContext(r.Context(), "Signup went live", "signup_id", signup.ID, "deadline", signup.PaymentDeadline)

	writeJSON(w, http.StatusOK, signup)
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
