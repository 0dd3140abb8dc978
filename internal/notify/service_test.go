package notify

import (
	"encoding/json"
	"testing"

	"github.com/ariefcatur/go-payment-engine.git/internal/commerce"
)

func envOf(t *testing.T, typ string, payload any) commerce.Envelope {
	t.Helper()
	b, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	return commerce.Envelope{EventID: "ev1", EventType: typ, EventVersion: 1, Payload: b}
}

func TestBuildCompleted(t *testing.T) {
	s := &Service{}
	out, status, ok := s.build(envOf(t, commerce.EventPaymentCompleted, commerce.PaymentCompletedPayload{
		PaymentID: "pay_1", OrderID: "ord_1", UserID: "usr_1", Amount: 10000, Currency: "KRW",
	}))
	if !ok {
		t.Fatal("expected outbound")
	}
	if out.Kind != "payment_completed" || out.OrderID != "ord_1" || out.Amount != 10000 {
		t.Fatalf("outbound = %+v", out)
	}
	if status == "" {
		t.Fatal("expected order status cache refresh")
	}
}

func TestBuildFailed(t *testing.T) {
	s := &Service{}
	out, _, ok := s.build(envOf(t, commerce.EventPaymentFailed, commerce.PaymentFailedPayload{
		OrderID: "ord_1", UserID: "usr_1", Reason: "card declined",
	}))
	if !ok || out.Kind != "payment_failed" {
		t.Fatalf("outbound = %+v ok = %v", out, ok)
	}
}

// Partial refund tidak boleh menimpa cache status order.
func TestBuildPartialRefundSkipsStatusCache(t *testing.T) {
	s := &Service{}
	_, status, ok := s.build(envOf(t, commerce.EventPaymentRefunded, commerce.PaymentRefundedPayload{
		RefundID: "pay_2", OriginalPaymentID: "pay_1", OrderID: "ord_1", Amount: 4000, Full: false,
	}))
	if !ok {
		t.Fatal("expected outbound")
	}
	if status != "" {
		t.Fatalf("partial refund should not set order status, got %s", status)
	}
}

func TestBuildIgnoresUnknownEvent(t *testing.T) {
	s := &Service{}
	_, _, ok := s.build(commerce.Envelope{EventType: "OrderCreated", Payload: []byte(`{}`)})
	if ok {
		t.Fatal("unknown event should be skipped")
	}
}
