package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dohwa-law/portal-gate/internal/domain"
	"github.com/dohwa-law/portal-gate/internal/service"
	"github.com/dohwa-law/portal-gate/pkg/auth"
	"github.com/dohwa-law/portal-gate/pkg/config"
)

type Handlers struct {
	verifier    service.VerificationService
	credentials service.CredentialService
	config      *config.Config
}

func New(verifier service.VerificationService, credentials service.CredentialService, config *config.Config) *Handlers {
	return &Handlers{
		verifier:    verifier,
		credentials: credentials,
		config:      config,
	}
}

// RequireOperator guards the management API. Operator tokens are minted on a
// successful admin verification.
func (h *Handlers) RequireOperator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "Missing or invalid authorization header", "UNAUTHORIZED")
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if _, err := auth.Parse(token, h.config.Auth.OperatorTokenSecret); err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid token", "INVALID_TOKEN")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// writeServiceError maps the error taxonomy onto HTTP statuses. Store
// failures come back as a generic "try again"; they are never retried here.
func writeServiceError(w http.ResponseWriter, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Message, "INVALID_INPUT")
	case errors.Is(err, domain.ErrStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, "Service temporarily unavailable. Please try again.", "STORE_UNAVAILABLE")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "Credential not found", "NOT_FOUND")
	case errors.Is(err, domain.ErrAdminReserved):
		writeError(w, http.StatusBadRequest, "The admin credential cannot be deleted", "INVALID_INPUT")
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", "INTERNAL_ERROR")
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, statusCode int, message, code string) {
	response := map[string]string{
		"error": message,
		"code":  code,
	}
	writeJSON(w, statusCode, response)
}
