package handlers

import (
	"net/http"

	"github.com/hacklabs/hwlib/pkg/auth"
	"github.com/hacklabs/hwlib/pkg/httpx"
	pkgvalidator "github.com/hacklabs/hwlib/pkg/validator"
	appsvcs "github.com/hacklabs/hwlib/services/hardware/application/services"
)

// NewItemRequest describes one item in a bulk import.
type NewItemRequest struct {
	Name  string `json:"name" validate:"required,notblank,max=255" example:"Arduino Uno"`
	URL   string `json:"url" example:"https://store.arduino.cc/uno"`
	Stock int    `json:"stock" validate:"gte=0,lte=2147483647" example:"10"`
} // @name NewItemRequest

// AddItemsRequest is the request body for POST /items.
type AddItemsRequest struct {
	Items []NewItemRequest `json:"items" validate:"required,min=1,dive"`
} // @name AddItemsRequest

// UpdateItemRequest is the request body for PUT /items/{id}.
type UpdateItemRequest struct {
	Name  string `json:"name" validate:"required,notblank,max=255" example:"Arduino Uno R3"`
	URL   string `json:"url" example:"https://store.arduino.cc/uno-rev3"`
	Stock int    `json:"stock" validate:"gte=0,lte=2147483647" example:"12"`
} // @name UpdateItemRequest

// ListItemsHandler handles GET /items requests.
type ListItemsHandler struct{ base }

// NewListItemsHandler returns a ListItemsHandler backed by the given services.
func NewListItemsHandler(svc *appsvcs.Services, cfg Config) *ListItemsHandler {
	return &ListItemsHandler{base{svc: svc, cfg: cfg}}
}

// Execute lists every item with its remaining stock. When the caller has a
// session, their own reservation of each item is included.
//
//	@Summary		List hardware
//	@Description	Lists all items. Expired reservations are released before the counts are read.
//	@Tags			items
//	@Produce		json
//	@Success		200	{array}		services.ItemView
//	@Failure		503	{object}	ErrorResponse
//	@Router			/items [get]
func (h *ListItemsHandler) Execute(w http.ResponseWriter, r *http.Request) {
	var userID *int64
	if u, err := auth.UserFromCtx(r.Context()); err == nil {
		userID = &u.ID
	}

	items, err := h.svc.Hardware.ListItems(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusOK, items)
}

// GetItemHandler handles GET /items/{id} requests.
type GetItemHandler struct{ base }

// NewGetItemHandler returns a GetItemHandler backed by the given services.
func NewGetItemHandler(svc *appsvcs.Services, cfg Config) *GetItemHandler {
	return &GetItemHandler{base{svc: svc, cfg: cfg}}
}

// Execute returns one item.
//
//	@Summary		Get hardware item
//	@Tags			items
//	@Produce		json
//	@Param			id	path		int	true	"Item ID"
//	@Success		200	{object}	ItemResponse
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/items/{id} [get]
func (h *GetItemHandler) Execute(w http.ResponseWriter, r *http.Request) {
	id, ok := itemIDParam(w, r)
	if !ok {
		return
	}

	item, err := h.svc.Hardware.GetItem(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusOK, toItemResponse(item))
}

// AddItemsHandler handles POST /items requests.
type AddItemsHandler struct{ base }

// NewAddItemsHandler returns an AddItemsHandler backed by the given services.
func NewAddItemsHandler(svc *appsvcs.Services, cfg Config) *AddItemsHandler {
	return &AddItemsHandler{base{svc: svc, cfg: cfg}}
}

// Execute imports a batch of items. Either every item is added or none is.
//
//	@Summary		Import hardware
//	@Tags			items
//	@Accept			json
//	@Produce		json
//	@Param			request	body		AddItemsRequest	true	"Items to import"
//	@Success		201		{array}		ItemResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Router			/items [post]
func (h *AddItemsHandler) Execute(w http.ResponseWriter, r *http.Request) {
	req, ok := pkgvalidator.ValidateRequest[AddItemsRequest](w, r)
	if !ok {
		return
	}

	in := make([]appsvcs.NewItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		in = append(in, appsvcs.NewItemInput{Name: it.Name, URL: it.URL, Stock: it.Stock})
	}

	items, err := h.svc.Hardware.AddItems(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, toItemResponses(items))
}

// UpdateItemHandler handles PUT /items/{id} requests.
type UpdateItemHandler struct{ base }

// NewUpdateItemHandler returns an UpdateItemHandler backed by the given services.
func NewUpdateItemHandler(svc *appsvcs.Services, cfg Config) *UpdateItemHandler {
	return &UpdateItemHandler{base{svc: svc, cfg: cfg}}
}

// Execute rewrites an item's name, URL and total stock.
//
//	@Summary		Update hardware item
//	@Tags			items
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int					true	"Item ID"
//	@Param			request	body		UpdateItemRequest	true	"New item definition"
//	@Success		200		{object}	ItemResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/items/{id} [put]
func (h *UpdateItemHandler) Execute(w http.ResponseWriter, r *http.Request) {
	id, ok := itemIDParam(w, r)
	if !ok {
		return
	}
	req, ok := pkgvalidator.ValidateRequest[UpdateItemRequest](w, r)
	if !ok {
		return
	}

	item, err := h.svc.Hardware.UpdateItem(r.Context(), id, req.Name, req.URL, req.Stock)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusOK, toItemResponse(item))
}

// DeleteItemHandler handles DELETE /items/{id} requests.
type DeleteItemHandler struct{ base }

// NewDeleteItemHandler returns a DeleteItemHandler backed by the given services.
func NewDeleteItemHandler(svc *appsvcs.Services, cfg Config) *DeleteItemHandler {
	return &DeleteItemHandler{base{svc: svc, cfg: cfg}}
}

// Execute removes an item that has nothing reserved or taken.
//
//	@Summary		Delete hardware item
//	@Tags			items
//	@Param			id	path	int	true	"Item ID"
//	@Success		204
//	@Failure		400	{object}	ErrorResponse
//	@Failure		401	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/items/{id} [delete]
func (h *DeleteItemHandler) Execute(w http.ResponseWriter, r *http.Request) {
	id, ok := itemIDParam(w, r)
	if !ok {
		return
	}

	if err := h.svc.Hardware.DeleteItem(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}

	httpx.NoContent(w)
}
