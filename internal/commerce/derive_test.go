package commerce

import "testing"

func TestOrderAfterPaymentCompleted(t *testing.T) {
	up := OrderAfterPaymentCompleted(OrderPending)
	if up.Status != OrderConfirmed || up.PaymentStatus != OrderPaymentPaid || !up.SetPaymentRef {
		t.Fatalf("first completion: got %+v", up)
	}

	// bookkeeping pada order yang sudah CONFIRMED tidak merevert status
	up = OrderAfterPaymentCompleted(OrderConfirmed)
	if up.Status != OrderConfirmed {
		t.Fatalf("subsequent completion must not change status, got %s", up.Status)
	}
	up = OrderAfterPaymentCompleted(OrderProcessing)
	if up.Status != OrderProcessing {
		t.Fatalf("processing order must keep its status, got %s", up.Status)
	}
}

func TestOrderAfterPaymentFailed(t *testing.T) {
	up := OrderAfterPaymentFailed()
	if up.Status != OrderCancelled || up.PaymentStatus != OrderPaymentFailed {
		t.Fatalf("got %+v", up)
	}
}

func TestOrderAfterRefund(t *testing.T) {
	up, restore := OrderAfterRefund(true, OrderConfirmed, OrderPaymentPaid)
	if !restore {
		t.Fatal("full refund must restore stock")
	}
	if up.Status != OrderRefunded || up.PaymentStatus != OrderPaymentRefunded {
		t.Fatalf("full refund: got %+v", up)
	}

	up, restore = OrderAfterRefund(false, OrderConfirmed, OrderPaymentPaid)
	if restore {
		t.Fatal("partial refund must not restore stock")
	}
	if up.Status != OrderConfirmed || up.PaymentStatus != OrderPaymentPaid {
		t.Fatalf("partial refund must leave the order as-is, got %+v", up)
	}
}
