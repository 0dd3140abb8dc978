package inventory

import (
	"testing"
	"time"

	"github.com/ariefcatur/go-payment-engine.git/internal/commerce"
)

func TestAvailable(t *testing.T) {
	cases := []struct {
		stock, reserved, requested int
		ok                         bool
		available                  int
	}{
		{5, 0, 2, true, 5},
		{5, 3, 2, true, 2},
		{5, 3, 3, false, 2},
		{5, 0, 10, false, 5}, // reserve 10 dari stock 5 -> tolak
		{5, 5, 1, false, 0},
		{0, 0, 1, false, 0},
		{5, 7, 1, false, 0}, // over-reserved tidak boleh jadi negatif
	}
	for _, c := range cases {
		ok, available := Available(c.stock, c.reserved, c.requested)
		if ok != c.ok || available != c.available {
			t.Errorf("Available(%d, %d, %d) = (%v, %d), want (%v, %d)",
				c.stock, c.reserved, c.requested, ok, available, c.ok, c.available)
		}
	}
}

func TestExpired(t *testing.T) {
	now := time.Now().UTC()
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	if !Expired(commerce.ReservationExpired, future, now) {
		t.Error("EXPIRED status is expired regardless of timestamp")
	}
	if !Expired(commerce.ReservationReserved, past, now) {
		t.Error("RESERVED past expires_at is expired")
	}
	if !Expired(commerce.ReservationReserved, now, now) {
		t.Error("expires_at == now is already expired")
	}
	if Expired(commerce.ReservationReserved, future, now) {
		t.Error("live RESERVED hold is not expired")
	}
	if Expired(commerce.ReservationConfirmed, past, now) {
		t.Error("CONFIRMED reservation never expires")
	}
	if Expired(commerce.ReservationReleased, past, now) {
		t.Error("RELEASED reservation never expires")
	}
}
