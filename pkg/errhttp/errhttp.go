// Package errhttp maps domain sentinel errors to HTTP status codes.
// Add a case to mapErrorToStatus for each new domain sentinel error.
package errhttp

import (
	"errors"
	"net/http"

	"github.com/getsentry/sentry-go"

	"github.com/hacklabs/hwlib/pkg/httpx"
	hwdomain "github.com/hacklabs/hwlib/services/hardware/domain"
)

// WriteError maps err to an HTTP status code and writes a JSON error response.
// Uses errors.Is() so wrapped sentinel errors are matched correctly.
// Defaults to 500 Internal Server Error for unrecognized errors.
func WriteError(w http.ResponseWriter, err error) {
	Write(w, err, false)
}

// Write is WriteError with 5xx messages masked when isProduction is set.
func Write(w http.ResponseWriter, err error, isProduction bool) {
	status := mapErrorToStatus(err)
	httpx.JSONError(w, status, httpx.SafeError(err, status, isProduction))
}

// Respond is Write for request handlers: unexpected failures (500) are also
// reported to the Sentry hub bound to the request, if any.
func Respond(w http.ResponseWriter, r *http.Request, err error, isProduction bool) {
	status := mapErrorToStatus(err)
	if status == http.StatusInternalServerError {
		if hub := sentry.GetHubFromContext(r.Context()); hub != nil {
			hub.CaptureException(err)
		}
	}
	httpx.JSONError(w, status, httpx.SafeError(err, status, isProduction))
}

func mapErrorToStatus(err error) int {
	switch {
	case errors.Is(err, hwdomain.ErrStoreUnavailable):
		return http.StatusServiceUnavailable // 503
	case errors.Is(err, hwdomain.ErrItemNotFound),
		errors.Is(err, hwdomain.ErrReservationNotFound):
		return http.StatusNotFound // 404
	case errors.Is(err, hwdomain.ErrReservationExpired),
		errors.Is(err, hwdomain.ErrReservationInactive):
		return http.StatusGone // 410
	case errors.Is(err, hwdomain.ErrConcurrentModification):
		return http.StatusConflict // 409
	case errors.Is(err, hwdomain.ErrNotEnoughStock),
		errors.Is(err, hwdomain.ErrAlreadyReserved),
		errors.Is(err, hwdomain.ErrAlreadyTaken),
		errors.Is(err, hwdomain.ErrNotYetTaken),
		errors.Is(err, hwdomain.ErrNotCancellable),
		errors.Is(err, hwdomain.ErrItemHasReservations),
		errors.Is(err, hwdomain.ErrInvalidQuantity),
		errors.Is(err, hwdomain.ErrInvalidItem),
		errors.Is(err, hwdomain.ErrInvalidItemName):
		return http.StatusBadRequest // 400
	default:
		return http.StatusInternalServerError // 500
	}
}
