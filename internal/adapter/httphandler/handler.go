package httphandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

const webhookPath = "/webhook"

// NewRouter mounts the payment and catalog admin routes.
func NewRouter(
	payments port.PaymentProcessor, admin port.CatalogAdmin,
) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(AllowJSON(webhookPath))

	RegisterPayments(r, payments)
	RegisterAdmin(r, admin)
	return r
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response body", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// writeDomainError maps the domain error taxonomy to a status code.
// Unknown errors are logged and hidden behind fallback.
func writeDomainError(
	w http.ResponseWriter, log *slog.Logger, err error, fallback string,
) {
	var (
		validationErr *domain.ValidationError
		paymentErr    *domain.PaymentError
	)
	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, validationErr.Field+" "+validationErr.Reason)
	case errors.As(err, &paymentErr):
		writeError(w, http.StatusBadRequest, paymentErr.Message)
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	default:
		log.Error(fallback, "err", err)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}
