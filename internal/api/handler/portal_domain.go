package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quimera/domains/internal/api/request"
	"github.com/quimera/domains/internal/api/response"
	"github.com/quimera/domains/internal/core"
)

// PortalDomain handles white-label portal hostname endpoints.
type PortalDomain struct {
	svc *core.PortalDomainService
}

func NewPortalDomain(svc *core.PortalDomainService) *PortalDomain {
	return &PortalDomain{svc: svc}
}

// Add godoc
//
//	@Summary		Connect a portal hostname
//	@Tags			Portal domains
//	@Security		ApiKeyAuth
//	@Param			body body request.AddPortalDomain true "Hostname to connect"
//	@Success		201 {object} core.AddPortalDomainResult
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		409 {object} response.ErrorResponse
//	@Router			/portal-domains [post]
func (h *PortalDomain) Add(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	var req request.AddPortalDomain
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.svc.AddPortalDomain(r.Context(), owner, req.Domain)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, result)
}

// Get godoc
//
//	@Summary		Get a portal hostname
//	@Tags			Portal domains
//	@Security		ApiKeyAuth
//	@Param			domain path string true "Hostname"
//	@Success		200 {object} model.PortalDomain
//	@Failure		404 {object} response.ErrorResponse
//	@Router			/portal-domains/{domain} [get]
func (h *PortalDomain) Get(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	name, err := request.RequireID(chi.URLParam(r, "domain"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	portal, err := h.svc.GetPortalDomain(r.Context(), owner, name)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, portal)
}

// Verify godoc
//
//	@Summary		Run a live DNS check for a portal hostname
//	@Tags			Portal domains
//	@Security		ApiKeyAuth
//	@Param			domain path string true "Hostname"
//	@Success		200 {object} core.VerifyPortalDomainResult
//	@Failure		404 {object} response.ErrorResponse
//	@Router			/portal-domains/{domain}/verify [post]
func (h *PortalDomain) Verify(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	name, err := request.RequireID(chi.URLParam(r, "domain"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.svc.VerifyPortalDomain(r.Context(), owner, name)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, result)
}

// Delete godoc
//
//	@Summary		Disconnect a portal hostname
//	@Tags			Portal domains
//	@Security		ApiKeyAuth
//	@Param			domain path string true "Hostname"
//	@Success		204
//	@Failure		404 {object} response.ErrorResponse
//	@Router			/portal-domains/{domain} [delete]
func (h *PortalDomain) Delete(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	name, err := request.RequireID(chi.URLParam(r, "domain"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.RemovePortalDomain(r.Context(), owner, name); err != nil {
		response.WriteServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
