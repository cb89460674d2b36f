package handlers

import (
	"net/http"
	"time"

	"github.com/hacklabs/hwlib/pkg/auth"
	"github.com/hacklabs/hwlib/pkg/httpx"
	pkgvalidator "github.com/hacklabs/hwlib/pkg/validator"
	appsvcs "github.com/hacklabs/hwlib/services/hardware/application/services"
	"github.com/hacklabs/hwlib/services/hardware/domain/models"
)

// ReserveRequest is the request body for POST /reserve.
// Quantity defaults to 1 when omitted.
type ReserveRequest struct {
	ItemID   int64 `json:"item_id" validate:"required,gt=0" example:"3"`
	Quantity *int  `json:"quantity,omitempty" example:"1"`
} // @name ReserveRequest

// ReserveResponse carries the token that authorises take, return and cancel.
type ReserveResponse struct {
	Token     string    `json:"token"      example:"AAAQEAYEAUDAOCAJBIFQYDIOB4IBCEQTCQKRMFYYDENBWHA5DYPQ"`
	ExpiresAt time.Time `json:"expires_at" example:"2024-01-15T10:30:00Z"`
} // @name ReserveResponse

// TokenRequest is the request body for the token-addressed operations.
type TokenRequest struct {
	Token string `json:"token" validate:"required" example:"AAAQEAYEAUDAOCAJBIFQYDIOB4IBCEQTCQKRMFYYDENBWHA5DYPQ"`
} // @name TokenRequest

// TakeResponse is returned after a successful pickup.
type TakeResponse struct {
	Taken bool `json:"taken" example:"true"`
} // @name TakeResponse

// ReturnResponse is returned after a successful return.
type ReturnResponse struct {
	Returned bool `json:"returned" example:"true"`
} // @name ReturnResponse

// ReserveHandler handles POST /reserve requests.
type ReserveHandler struct{ base }

// NewReserveHandler returns a ReserveHandler backed by the given services.
func NewReserveHandler(svc *appsvcs.Services, cfg Config) *ReserveHandler {
	return &ReserveHandler{base{svc: svc, cfg: cfg}}
}

// Execute reserves units of an item for the session user.
//
//	@Summary		Reserve hardware
//	@Description	Holds quantity units of an item for the session user. The hold expires after the configured window unless the units are taken.
//	@Tags			reservations
//	@Accept			json
//	@Produce		json
//	@Param			request	body		ReserveRequest	true	"Reservation request"
//	@Success		201		{object}	ReserveResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/reserve [post]
func (h *ReserveHandler) Execute(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromCtx(r.Context())
	if err != nil {
		httpx.JSON(w, http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return
	}

	req, ok := pkgvalidator.ValidateRequest[ReserveRequest](w, r)
	if !ok {
		return
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}

	res, err := h.svc.Hardware.Reserve(r.Context(), models.User{ID: user.ID, Name: user.Name}, req.ItemID, qty)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, ReserveResponse{Token: res.Token, ExpiresAt: res.ExpiresAt})
}

// TakeHandler handles POST /take requests.
type TakeHandler struct{ base }

// NewTakeHandler returns a TakeHandler backed by the given services.
func NewTakeHandler(svc *appsvcs.Services, cfg Config) *TakeHandler {
	return &TakeHandler{base{svc: svc, cfg: cfg}}
}

// Execute marks a reservation as picked up.
//
//	@Summary		Take reserved hardware
//	@Description	Marks the reserved units as physically checked out. The token is the only credential.
//	@Tags			reservations
//	@Accept			json
//	@Produce		json
//	@Param			request	body		TokenRequest	true	"Reservation token"
//	@Success		200		{object}	TakeResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		410		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Router			/take [post]
func (h *TakeHandler) Execute(w http.ResponseWriter, r *http.Request) {
	req, ok := pkgvalidator.ValidateRequest[TokenRequest](w, r)
	if !ok {
		return
	}

	if err := h.svc.Hardware.Take(r.Context(), req.Token); err != nil {
		h.fail(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusOK, TakeResponse{Taken: true})
}

// ReturnHandler handles POST /return requests.
type ReturnHandler struct{ base }

// NewReturnHandler returns a ReturnHandler backed by the given services.
func NewReturnHandler(svc *appsvcs.Services, cfg Config) *ReturnHandler {
	return &ReturnHandler{base{svc: svc, cfg: cfg}}
}

// Execute hands taken units back to the library.
//
//	@Summary		Return hardware
//	@Description	Returns taken units to stock and closes the reservation.
//	@Tags			reservations
//	@Accept			json
//	@Produce		json
//	@Param			request	body		TokenRequest	true	"Reservation token"
//	@Success		200		{object}	ReturnResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		410		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Router			/return [post]
func (h *ReturnHandler) Execute(w http.ResponseWriter, r *http.Request) {
	req, ok := pkgvalidator.ValidateRequest[TokenRequest](w, r)
	if !ok {
		return
	}

	if err := h.svc.Hardware.Return(r.Context(), req.Token); err != nil {
		h.fail(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusOK, ReturnResponse{Returned: true})
}

// CancelHandler handles POST /cancel requests.
type CancelHandler struct{ base }

// NewCancelHandler returns a CancelHandler backed by the given services.
func NewCancelHandler(svc *appsvcs.Services, cfg Config) *CancelHandler {
	return &CancelHandler{base{svc: svc, cfg: cfg}}
}

// Execute releases one of the session user's reservations.
//
//	@Summary		Cancel reservation
//	@Description	Releases a reservation the session user holds. Taken reservations cannot be cancelled.
//	@Tags			reservations
//	@Accept			json
//	@Produce		json
//	@Param			request	body	TokenRequest	true	"Reservation token"
//	@Success		204
//	@Failure		400	{object}	ErrorResponse
//	@Failure		401	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		409	{object}	ErrorResponse
//	@Failure		422	{object}	ErrorResponse
//	@Router			/cancel [post]
func (h *CancelHandler) Execute(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromCtx(r.Context())
	if err != nil {
		httpx.JSON(w, http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return
	}

	req, ok := pkgvalidator.ValidateRequest[TokenRequest](w, r)
	if !ok {
		return
	}

	if err := h.svc.Hardware.Cancel(r.Context(), req.Token, user.ID); err != nil {
		h.fail(w, r, err)
		return
	}

	httpx.NoContent(w)
}
