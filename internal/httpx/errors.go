package httpx

import (
	"errors"
	"net/http"

	"github.com/ariefcatur/go-payment-engine.git/internal/commerce"
)

// statusFor memetakan taksonomi error domain ke status HTTP. Violation
// business rule (stok kurang, refund amount invalid) = 4xx; infrastruktur
// = 500 supaya gateway/caller retry.
func statusFor(err error) int {
	var stock *commerce.InsufficientStockError
	var gw *commerce.GatewayError
	switch {
	case errors.Is(err, commerce.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, commerce.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &stock),
		errors.Is(err, commerce.ErrInvalidRefundAmount),
		errors.Is(err, commerce.ErrNotRefundable),
		errors.Is(err, commerce.ErrOrderNotPayable),
		errors.Is(err, commerce.ErrReservationExpired):
		return http.StatusUnprocessableEntity
	case errors.As(err, &gw):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// errorResponse: pesan terstruktur untuk business error; 500 tidak
// membocorkan detail internal (user tidak pernah lihat stack trace).
func errorResponse(err error) (int, string) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		return code, "internal error"
	}
	return code, err.Error()
}
