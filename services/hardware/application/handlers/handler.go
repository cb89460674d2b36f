package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hacklabs/hwlib/pkg/errhttp"
	"github.com/hacklabs/hwlib/pkg/httpx"
	"github.com/hacklabs/hwlib/pkg/logger"
	appsvcs "github.com/hacklabs/hwlib/services/hardware/application/services"
	"github.com/hacklabs/hwlib/services/hardware/domain/models"
)

// ErrorResponse is returned on all error responses.
type ErrorResponse struct {
	Error string `json:"error" example:"not enough items in stock"`
} // @name ErrorResponse

// ItemResponse is the public view of one hardware item.
type ItemResponse struct {
	ItemID        int64  `json:"itemID"        example:"3"`
	ItemName      string `json:"itemName"      example:"Arduino Uno"`
	ItemURL       string `json:"itemURL"       example:"https://store.arduino.cc/uno"`
	ItemStock     int    `json:"itemStock"     example:"10"`
	ItemsLeft     int    `json:"itemsLeft"     example:"7"`
	ItemHasStock  bool   `json:"itemHasStock"  example:"true"`
	ReservedStock int    `json:"reservedStock" example:"2"`
	TakenStock    int    `json:"takenStock"    example:"1"`
} // @name ItemResponse

// ReservationResponse is the public view of one reservation.
type ReservationResponse struct {
	Token      string    `json:"token"      example:"AAAQEAYEAUDAOCAJBIFQYDIOB4IBCEQTCQKRMFYYDENBWHA5DYPQ"`
	UserID     int64     `json:"userID"     example:"42"`
	UserName   string    `json:"userName"   example:"ada"`
	ItemID     int64     `json:"itemID"     example:"3"`
	Quantity   int       `json:"quantity"   example:"1"`
	IsReserved bool      `json:"isReserved" example:"true"`
	ExpiresAt  time.Time `json:"expiresAt"  example:"2024-01-15T10:30:00Z"`
	ExpiresIn  int       `json:"expiresIn"  example:"29"`
} // @name ReservationResponse

// Config carries what every hardware handler needs besides the service.
type Config struct {
	Log          logger.Logger
	IsProduction bool
}

// base is embedded by every handler.
type base struct {
	svc *appsvcs.Services
	cfg Config
}

func (b base) fail(w http.ResponseWriter, r *http.Request, err error) {
	b.cfg.Log.WarnContext(r.Context(), "hardware request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
	)
	errhttp.Respond(w, r, err, b.cfg.IsProduction)
}

// itemIDParam parses the {id} path segment. It writes a 400 and returns
// false when the segment is not a positive integer.
func itemIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.JSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid item id"})
		return 0, false
	}
	return id, true
}

func toItemResponse(it *models.HardwareItem) ItemResponse {
	return ItemResponse{
		ItemID:        it.ID,
		ItemName:      it.Name.String(),
		ItemURL:       it.URL,
		ItemStock:     it.TotalStock,
		ItemsLeft:     it.ItemsLeft(),
		ItemHasStock:  it.HasStock(),
		ReservedStock: it.ReservedStock,
		TakenStock:    it.TakenStock,
	}
}

func toItemResponses(items []*models.HardwareItem) []ItemResponse {
	out := make([]ItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, toItemResponse(it))
	}
	return out
}

func toReservationResponse(r *models.Reservation, now time.Time) ReservationResponse {
	return ReservationResponse{
		Token:      r.Token,
		UserID:     r.UserID,
		UserName:   r.UserName,
		ItemID:     r.ItemID,
		Quantity:   r.Quantity,
		IsReserved: r.IsReserved,
		ExpiresAt:  r.ExpiresAt,
		ExpiresIn:  r.ExpiresIn(now),
	}
}

func toReservationResponses(rs []*models.Reservation, now time.Time) []ReservationResponse {
	out := make([]ReservationResponse, 0, len(rs))
	for _, r := range rs {
		out = append(out, toReservationResponse(r, now))
	}
	return out
}
