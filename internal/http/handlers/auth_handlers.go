package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/serenespa/membership/internal/domain"
	"github.com/serenespa/membership/internal/http/response"
)

// Login issues provider and admin sessions
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	res, err := h.authGateway.CreateSession(r.Context(), &req)
	if err != nil {
		response.Unauthorized(w, "Invalid credentials")
		return
	}

	writeJSON(w, http.StatusOK, res)
}
