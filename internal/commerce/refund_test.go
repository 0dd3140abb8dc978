package commerce

import (
	"errors"
	"testing"
)

func original(amount, refunded int64, status PaymentStatus) *Payment {
	return &Payment{Type: TypePayment, Status: status, Amount: amount, RefundedAmount: refunded}
}

func TestPlanRefundFull(t *testing.T) {
	plan, err := PlanRefund(original(10000, 0, PaymentCompleted), 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Amount != 10000 || !plan.Full || plan.Type != TypeRefund || plan.OriginalAfter != PaymentRefunded {
		t.Fatalf("got %+v", plan)
	}
}

func TestPlanRefundExceedsRemaining(t *testing.T) {
	// payment 10.000, minta refund 15.000 -> ditolak, original tidak berubah
	p := original(10000, 0, PaymentCompleted)
	_, err := PlanRefund(p, 15000, 0)
	if !errors.Is(err, ErrInvalidRefundAmount) {
		t.Fatalf("want ErrInvalidRefundAmount, got %v", err)
	}
	if p.RefundedAmount != 0 {
		t.Fatalf("original must be untouched, refunded=%d", p.RefundedAmount)
	}
}

func TestPlanRefundPartialThenRest(t *testing.T) {
	plan, err := PlanRefund(original(10000, 0, PaymentCompleted), 4000, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Full || plan.Type != TypePartialRefund || plan.OriginalAfter != PaymentPartiallyRefunded {
		t.Fatalf("partial: got %+v", plan)
	}

	// sisa 6.000 setelah partial pertama
	plan, err = PlanRefund(original(10000, 4000, PaymentPartiallyRefunded), 6000, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !plan.Full || plan.OriginalAfter != PaymentRefunded {
		t.Fatalf("refund of full remaining balance: got %+v", plan)
	}

	_, err = PlanRefund(original(10000, 4000, PaymentPartiallyRefunded), 6001, 0)
	if !errors.Is(err, ErrInvalidRefundAmount) {
		t.Fatalf("want ErrInvalidRefundAmount, got %v", err)
	}
}

func TestPlanRefundCountsInFlightRefunds(t *testing.T) {
	// refund PROCESSING sebesar 7.000 sedang jalan: sisa efektif 3.000
	_, err := PlanRefund(original(10000, 0, PaymentCompleted), 4000, 7000)
	if !errors.Is(err, ErrInvalidRefundAmount) {
		t.Fatalf("want ErrInvalidRefundAmount, got %v", err)
	}
	plan, err := PlanRefund(original(10000, 0, PaymentCompleted), 3000, 7000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Full {
		t.Fatal("must not be marked full while another refund is in flight")
	}
}

func TestPlanRefundRejectsNonRefundable(t *testing.T) {
	for _, s := range []PaymentStatus{PaymentPending, PaymentFailed, PaymentRefunded, PaymentExpired} {
		if _, err := PlanRefund(original(10000, 0, s), 0, 0); !errors.Is(err, ErrNotRefundable) {
			t.Errorf("status %s: want ErrNotRefundable, got %v", s, err)
		}
	}
	if _, err := PlanRefund(original(10000, 10000, PaymentRefunded), 0, 0); !errors.Is(err, ErrNotRefundable) {
		t.Error("fully refunded payment must be rejected")
	}
}
