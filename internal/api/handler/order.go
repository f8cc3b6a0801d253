package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quimera/domains/internal/api/request"
	"github.com/quimera/domains/internal/api/response"
	"github.com/quimera/domains/internal/core"
)

// Order handles domain purchase endpoints.
type Order struct {
	svc *core.OrderService
}

func NewOrder(svc *core.OrderService) *Order {
	return &Order{svc: svc}
}

// CheckAvailability godoc
//
//	@Summary		Check purchase availability and retail pricing
//	@Tags			Orders
//	@Security		ApiKeyAuth
//	@Param			body body request.CheckAvailability true "Names to check"
//	@Success		200 {array} core.Availability
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		502 {object} response.ErrorResponse
//	@Router			/domains/availability [post]
func (h *Order) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	if _, ok := ownerID(w, r); !ok {
		return
	}

	var req request.CheckAvailability
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	results, err := h.svc.CheckAvailability(r.Context(), req.Domains)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, results)
}

// Create godoc
//
//	@Summary		Create a purchase order awaiting payment
//	@Tags			Orders
//	@Security		ApiKeyAuth
//	@Param			body body request.CreateOrder true "Order details"
//	@Success		201 {object} model.DomainOrder
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		409 {object} response.ErrorResponse
//	@Router			/orders [post]
func (h *Order) Create(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	var req request.CreateOrder
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	order, err := h.svc.CreateOrder(r.Context(), owner, core.CreateOrderParams{
		Domain:    req.Domain,
		TermYears: req.TermYears,
		ProjectID: req.ProjectID,
	})
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, order)
}

// Get godoc
//
//	@Summary		Get an order
//	@Tags			Orders
//	@Security		ApiKeyAuth
//	@Param			id path string true "Order ID"
//	@Success		200 {object} model.DomainOrder
//	@Failure		404 {object} response.ErrorResponse
//	@Router			/orders/{id} [get]
func (h *Order) Get(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	order, err := h.svc.GetOrder(r.Context(), owner, id)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, order)
}

// Complete godoc
//
//	@Summary		Mark an order paid and start provisioning
//	@Tags			Orders
//	@Security		ApiKeyAuth
//	@Param			id path string true "Order ID"
//	@Success		202 {object} model.DomainOrder
//	@Failure		404 {object} response.ErrorResponse
//	@Failure		409 {object} response.ErrorResponse
//	@Router			/orders/{id}/complete [post]
func (h *Order) Complete(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	order, err := h.svc.CompleteOrder(r.Context(), owner, id)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusAccepted, order)
}
