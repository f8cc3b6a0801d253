package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quimera/domains/internal/api/request"
	"github.com/quimera/domains/internal/api/response"
	"github.com/quimera/domains/internal/core"
)

// APIKey handles API key management endpoints.
type APIKey struct {
	svc *core.APIKeyService
}

func NewAPIKey(svc *core.APIKeyService) *APIKey {
	return &APIKey{svc: svc}
}

// Create godoc
//
//	@Summary		Create an API key
//	@Tags			API keys
//	@Security		ApiKeyAuth
//	@Param			body body request.CreateAPIKey true "Key details"
//	@Success		201 {object} map[string]any
//	@Failure		400 {object} response.ErrorResponse
//	@Router			/api-keys [post]
func (h *APIKey) Create(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	var req request.CreateAPIKey
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	key, rawKey, err := h.svc.Create(r.Context(), owner, req.Name)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}

	// The raw key is shown exactly once.
	response.WriteJSON(w, http.StatusCreated, map[string]any{
		"id":         key.ID,
		"name":       key.Name,
		"key":        rawKey,
		"key_prefix": key.KeyPrefix,
		"created_at": key.CreatedAt,
	})
}

// Revoke godoc
//
//	@Summary		Revoke an API key
//	@Tags			API keys
//	@Security		ApiKeyAuth
//	@Param			id path string true "Key ID"
//	@Success		204
//	@Failure		404 {object} response.ErrorResponse
//	@Router			/api-keys/{id} [delete]
func (h *APIKey) Revoke(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.Revoke(r.Context(), owner, id); err != nil {
		response.WriteServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
