package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quimera/domains/internal/api/request"
	"github.com/quimera/domains/internal/api/response"
	"github.com/quimera/domains/internal/core"
)

// Domain handles custom-domain lifecycle endpoints.
type Domain struct {
	svc *core.DomainService
}

func NewDomain(svc *core.DomainService) *Domain {
	return &Domain{svc: svc}
}

// Add godoc
//
//	@Summary		Connect a custom domain
//	@Tags			Domains
//	@Security		ApiKeyAuth
//	@Param			body body request.AddDomain true "Domain to connect"
//	@Success		201 {object} core.AddDomainResult
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		409 {object} response.ErrorResponse
//	@Router			/domains [post]
func (h *Domain) Add(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	var req request.AddDomain
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.svc.AddDomain(r.Context(), owner, req.ProjectID, req.Domain)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, result)
}

// SetupExternal godoc
//
//	@Summary		Connect a domain through a managed DNS zone
//	@Tags			Domains
//	@Security		ApiKeyAuth
//	@Param			body body request.SetupExternalDomain true "Domain to connect"
//	@Success		201 {object} core.SetupExternalResult
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		409 {object} response.ErrorResponse
//	@Failure		502 {object} response.ErrorResponse
//	@Router			/domains/external [post]
func (h *Domain) SetupExternal(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	var req request.SetupExternalDomain
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.svc.SetupExternalDomain(r.Context(), owner, req.ProjectID, req.Domain)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, result)
}

// List godoc
//
//	@Summary		List the caller's domains
//	@Tags			Domains
//	@Security		ApiKeyAuth
//	@Success		200 {array} model.Domain
//	@Router			/domains [get]
func (h *Domain) List(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	domains, err := h.svc.ListDomains(r.Context(), owner)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, domains)
}

// Get godoc
//
//	@Summary		Get a domain
//	@Tags			Domains
//	@Security		ApiKeyAuth
//	@Param			domain path string true "Domain name"
//	@Success		200 {object} model.Domain
//	@Failure		404 {object} response.ErrorResponse
//	@Router			/domains/{domain} [get]
func (h *Domain) Get(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	name, err := request.RequireID(chi.URLParam(r, "domain"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	domain, err := h.svc.GetDomain(r.Context(), owner, name)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, domain)
}

// Delete godoc
//
//	@Summary		Disconnect a domain
//	@Tags			Domains
//	@Security		ApiKeyAuth
//	@Param			domain path string true "Domain name"
//	@Success		202
//	@Failure		404 {object} response.ErrorResponse
//	@Router			/domains/{domain} [delete]
func (h *Domain) Delete(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	name, err := request.RequireID(chi.URLParam(r, "domain"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.RemoveDomain(r.Context(), owner, name); err != nil {
		response.WriteServiceError(w, err)
		return
	}
	// Teardown runs async; the row disappears when the workflow finishes.
	w.WriteHeader(http.StatusAccepted)
}

// UpdateStatus godoc
//
//	@Summary		Move a domain forward through its lifecycle
//	@Tags			Domains
//	@Security		ApiKeyAuth
//	@Param			domain path string true "Domain name"
//	@Param			body body request.UpdateDomainStatus true "Target status"
//	@Success		200 {object} model.Domain
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		409 {object} response.ErrorResponse
//	@Router			/domains/{domain}/status [patch]
func (h *Domain) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	name, err := request.RequireID(chi.URLParam(r, "domain"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.UpdateDomainStatus
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	domain, err := h.svc.UpdateStatus(r.Context(), owner, name, req.Status, req.Message)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, domain)
}

// SyncMapping godoc
//
//	@Summary		Republish the domain to project route mapping
//	@Tags			Domains
//	@Security		ApiKeyAuth
//	@Param			domain path string true "Domain name"
//	@Success		204
//	@Failure		400 {object} response.ErrorResponse
//	@Router			/domains/{domain}/sync-mapping [post]
func (h *Domain) SyncMapping(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	name, err := request.RequireID(chi.URLParam(r, "domain"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.SyncMapping(r.Context(), owner, name); err != nil {
		response.WriteServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Verify godoc
//
//	@Summary		Run a live DNS check for a domain
//	@Tags			Domains
//	@Security		ApiKeyAuth
//	@Param			domain path string true "Domain name"
//	@Success		200 {object} core.VerifyDomainResult
//	@Failure		404 {object} response.ErrorResponse
//	@Router			/domains/{domain}/verify [post]
func (h *Domain) Verify(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	name, err := request.RequireID(chi.URLParam(r, "domain"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.svc.VerifyDomain(r.Context(), owner, name)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, result)
}

// VerifyNameservers godoc
//
//	@Summary		Check whether the nameserver delegation is visible
//	@Tags			Domains
//	@Security		ApiKeyAuth
//	@Param			domain path string true "Domain name"
//	@Success		200 {object} core.VerifyNameserversResult
//	@Failure		400 {object} response.ErrorResponse
//	@Router			/domains/{domain}/verify-nameservers [post]
func (h *Domain) VerifyNameservers(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	name, err := request.RequireID(chi.URLParam(r, "domain"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.svc.VerifyNameservers(r.Context(), owner, name)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, result)
}

// CheckSSL godoc
//
//	@Summary		Get certificate provisioning state for a domain
//	@Tags			Domains
//	@Security		ApiKeyAuth
//	@Param			domain path string true "Domain name"
//	@Success		200 {object} core.SSLStatusResult
//	@Failure		404 {object} response.ErrorResponse
//	@Router			/domains/{domain}/ssl [get]
func (h *Domain) CheckSSL(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	name, err := request.RequireID(chi.URLParam(r, "domain"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.svc.CheckSSL(r.Context(), owner, name)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, result)
}
