package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hacklabs/hwlib/pkg/httpx"
	appsvcs "github.com/hacklabs/hwlib/services/hardware/application/services"
)

// ListReservationsHandler handles GET /reservations requests.
type ListReservationsHandler struct{ base }

// NewListReservationsHandler returns a ListReservationsHandler backed by the given services.
func NewListReservationsHandler(svc *appsvcs.Services, cfg Config) *ListReservationsHandler {
	return &ListReservationsHandler{base{svc: svc, cfg: cfg}}
}

// Execute lists every open reservation.
//
//	@Summary		List reservations
//	@Tags			reservations
//	@Produce		json
//	@Success		200	{array}		ReservationResponse
//	@Failure		401	{object}	ErrorResponse
//	@Router			/reservations [get]
func (h *ListReservationsHandler) Execute(w http.ResponseWriter, r *http.Request) {
	rs, err := h.svc.Hardware.ListReservations(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusOK, toReservationResponses(rs, h.svc.Hardware.Now()))
}

// ListItemReservationsHandler handles GET /items/{id}/reservations requests.
type ListItemReservationsHandler struct{ base }

// NewListItemReservationsHandler returns a ListItemReservationsHandler backed by the given services.
func NewListItemReservationsHandler(svc *appsvcs.Services, cfg Config) *ListItemReservationsHandler {
	return &ListItemReservationsHandler{base{svc: svc, cfg: cfg}}
}

// Execute lists the open reservations of one item.
//
//	@Summary		List item reservations
//	@Tags			reservations
//	@Produce		json
//	@Param			id	path		int	true	"Item ID"
//	@Success		200	{array}		ReservationResponse
//	@Failure		400	{object}	ErrorResponse
//	@Failure		401	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/items/{id}/reservations [get]
func (h *ListItemReservationsHandler) Execute(w http.ResponseWriter, r *http.Request) {
	id, ok := itemIDParam(w, r)
	if !ok {
		return
	}

	rs, err := h.svc.Hardware.ListItemReservations(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusOK, toReservationResponses(rs, h.svc.Hardware.Now()))
}

// GetReservationHandler handles GET /reservations/{token} requests.
type GetReservationHandler struct{ base }

// NewGetReservationHandler returns a GetReservationHandler backed by the given services.
func NewGetReservationHandler(svc *appsvcs.Services, cfg Config) *GetReservationHandler {
	return &GetReservationHandler{base{svc: svc, cfg: cfg}}
}

// Execute looks up a reservation by token.
//
//	@Summary		Get reservation
//	@Description	Returns the reservation, or 410 once it has been returned, cancelled or has expired.
//	@Tags			reservations
//	@Produce		json
//	@Param			token	path		string	true	"Reservation token"
//	@Success		200		{object}	ReservationResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		410		{object}	ErrorResponse
//	@Router			/reservations/{token} [get]
func (h *GetReservationHandler) Execute(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Hardware.GetReservation(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusOK, toReservationResponse(res, h.svc.Hardware.Now()))
}
