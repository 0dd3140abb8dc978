package commerce

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized        = errors.New("signature verification failed")
	ErrNotFound            = errors.New("not found")
	ErrNotRefundable       = errors.New("payment cannot be refunded")
	ErrInvalidRefundAmount = errors.New("refund amount exceeds remaining balance")
	ErrReservationExpired  = errors.New("reservation expired")
	ErrOrderNotPayable     = errors.New("order payment already processed")
	ErrInvalidTransition   = errors.New("invalid payment status transition")
)

type StockShortage struct {
	ProductID string `json:"product_id"`
	Requested int    `json:"required"`
	Available int    `json:"available"`
}

type InsufficientStockError struct {
	Details []StockShortage
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %d product(s)", len(e.Details))
}

// GatewayError membawa kode/pesan downstream provider apa adanya untuk
// diagnostik (failure_reason / failure_code di row payment).
type GatewayError struct {
	Provider Provider
	Code     string
	Message  string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway %s: %s (%s)", e.Provider, e.Message, e.Code)
}
