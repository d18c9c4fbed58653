package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/serenespa/membership/internal/service"
	"github.com/serenespa/membership/pkg/config"
)

type Handlers struct {
	signupService  service.SignupService
	paymentService service.PaymentService
	authGateway    service.AuthGateway
	notifications  NotificationLister
	config         *config.Config
}

func New(
	signupService service.SignupService,
	paymentService service.PaymentService,
	authGateway service.AuthGateway,
	notifications NotificationLister,
	cfg *config.Config,
) *Handlers {
	return &Handlers{
		signupService:  signupService,
		paymentService: paymentService,
		authGateway:    authGateway,
		notifications:  notifications,
		config:         cfg,
	}
}

// Helper functions for common response patterns
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// Helper to parse the path id parameter
func pathID(r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// Helper to parse pagination parameters
func parsePagination(r *http.Request) (limit, offset int) {
	limit = 20
	offset = 0

	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
