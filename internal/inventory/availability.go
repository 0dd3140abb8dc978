package inventory

import (
	"time"

	"github.com/ariefcatur/go-payment-engine.git/internal/commerce"
)

// Available: ok jika stock - reserved >= requested; mengembalikan juga
// sisa available untuk detail penolakan.
func Available(stock, reserved, requested int) (bool, int) {
	available := stock - reserved
	if available < 0 {
		available = 0
	}
	return available >= requested, available
}

// Expired: reservation tidak lagi confirmable.
func Expired(status commerce.ReservationStatus, expiresAt, now time.Time) bool {
	if status == commerce.ReservationExpired {
		return true
	}
	return status == commerce.ReservationReserved && !expiresAt.After(now)
}
