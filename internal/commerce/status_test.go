package commerce

import "testing"

func TestCanTransitionPayment(t *testing.T) {
	cases := []struct {
		from, to PaymentStatus
		want     bool
	}{
		{PaymentPending, PaymentProcessing, true},
		{PaymentPending, PaymentCompleted, true},
		{PaymentPending, PaymentFailed, true},
		{PaymentPending, PaymentExpired, true},
		{PaymentProcessing, PaymentCompleted, true},
		{PaymentProcessing, PaymentFailed, true},
		{PaymentCompleted, PaymentRefunded, true},
		{PaymentCompleted, PaymentPartiallyRefunded, true},
		{PaymentPartiallyRefunded, PaymentRefunded, true},
		{PaymentPartiallyRefunded, PaymentPartiallyRefunded, true},

		{PaymentCompleted, PaymentPending, false},
		{PaymentCompleted, PaymentFailed, false},
		{PaymentFailed, PaymentCompleted, false},
		{PaymentExpired, PaymentCompleted, false},
		{PaymentRefunded, PaymentCompleted, false},
		{PaymentRefunded, PaymentPartiallyRefunded, false},
	}
	for _, c := range cases {
		if got := CanTransitionPayment(c.from, c.to); got != c.want {
			t.Errorf("CanTransitionPayment(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestFinalized(t *testing.T) {
	open := []PaymentStatus{PaymentPending, PaymentProcessing}
	for _, s := range open {
		if Finalized(s) {
			t.Errorf("Finalized(%s) = true, want false", s)
		}
	}
	done := []PaymentStatus{
		PaymentCompleted, PaymentFailed, PaymentCancelled, PaymentExpired,
		PaymentRefunded, PaymentPartiallyRefunded,
	}
	for _, s := range done {
		if !Finalized(s) {
			t.Errorf("Finalized(%s) = false, want true", s)
		}
	}
}

func TestRefundable(t *testing.T) {
	p := &Payment{Type: TypePayment, Status: PaymentCompleted, Amount: 10000}
	if !Refundable(p) {
		t.Fatal("completed payment with no refunds should be refundable")
	}
	p.Status = PaymentPartiallyRefunded
	p.RefundedAmount = 4000
	if !Refundable(p) {
		t.Fatal("partially refunded payment with remaining balance should be refundable")
	}
	p.RefundedAmount = 10000
	if Refundable(p) {
		t.Fatal("payment with no remaining balance should not be refundable")
	}
	r := &Payment{Type: TypeRefund, Status: PaymentCompleted, Amount: 4000}
	if Refundable(r) {
		t.Fatal("a refund row must never itself be refundable")
	}
}
