package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dohwa-law/portal-gate/internal/domain"
)

// ListCredentials returns the agent/buyer credentials of one category with
// expiry status attached. The admin credential is never listed.
func (h *Handlers) ListCredentials(w http.ResponseWriter, r *http.Request) {
	category := domain.Category(r.URL.Query().Get("category"))

	creds, err := h.credentials.List(r.Context(), category)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, creds)
}

// CreateCredential issues a new sharable password for agent or buyer access.
func (h *Handlers) CreateCredential(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateCredentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format", "INVALID_INPUT")
		return
	}

	cred, err := h.credentials.Create(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, cred)
}

// DeleteCredential revokes a non-admin credential.
func (h *Handlers) DeleteCredential(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "Missing credential ID", "INVALID_INPUT")
		return
	}

	if err := h.credentials.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AdminStatus reports whether the admin secret is configured; it never
// reveals the secret itself.
func (h *Handlers) AdminStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.credentials.AdminStatus(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, status)
}

// SetAdminSecret creates or replaces the singleton admin secret.
func (h *Handlers) SetAdminSecret(w http.ResponseWriter, r *http.Request) {
	var req domain.SetAdminSecretRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format", "INVALID_INPUT")
		return
	}

	if err := h.credentials.SetAdminSecret(r.Context(), &req); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
