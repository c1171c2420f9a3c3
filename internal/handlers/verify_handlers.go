package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/dohwa-law/portal-gate/internal/domain"
	"github.com/dohwa-law/portal-gate/pkg/auth"
	"github.com/dohwa-law/portal-gate/pkg/logger"
)

type verifyResponse struct {
	Granted       bool   `json:"granted"`
	Reason        string `json:"reason,omitempty"`
	OperatorToken string `json:"operator_token,omitempty"`
}

// Verify handles every password prompt. Denials come back 200 with
// granted=false; only malformed input and store failures are HTTP errors.
func (h *Handlers) Verify(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format", "INVALID_INPUT")
		return
	}

	result, err := h.verifier.Verify(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := verifyResponse{Granted: result.Granted, Reason: result.Reason}

	// Admin grants carry an operator token for the management API.
	if result.Granted && req.Category == domain.CategoryAdmin {
		token, err := auth.NewOperatorToken(h.config.Auth.OperatorTokenSecret, h.config.Auth.OperatorTokenTTL)
		if err != nil {
			logger.ErrorContext(r.Context(), "Failed to mint operator token", "error", err)
			writeError(w, http.StatusInternalServerError, "Internal error", "INTERNAL_ERROR")
			return
		}
		resp.OperatorToken = token
	}

	writeJSON(w, http.StatusOK, resp)
}
