package commerce

// Aturan derivasi status order dari outcome payment (pure, dipakai engine
// di dalam transaksi yang sama dengan transisi payment).

// OrderUpdate is the order-side change derived from a payment event.
type OrderUpdate struct {
	Status        OrderStatus
	PaymentStatus OrderPaymentStatus
	SetPaymentRef bool // record payment_id + method on the order
}

// OrderAfterPaymentCompleted: payment COMPLETED -> PAID; order jadi
// CONFIRMED hanya pada pembayaran pertama, status berikutnya tidak direvert.
func OrderAfterPaymentCompleted(cur OrderStatus) OrderUpdate {
	next := cur
	if cur == OrderPending {
		next = OrderConfirmed
	}
	return OrderUpdate{Status: next, PaymentStatus: OrderPaymentPaid, SetPaymentRef: true}
}

// OrderAfterPaymentFailed: first-attempt failure cancels the order; the
// caller also releases the reservation.
func OrderAfterPaymentFailed() OrderUpdate {
	return OrderUpdate{Status: OrderCancelled, PaymentStatus: OrderPaymentFailed}
}

// OrderAfterRefund: full refund of the remaining amount flips the order to
// REFUNDED (caller restores stock); partial refund leaves the order as-is.
func OrderAfterRefund(full bool, cur OrderStatus, curPay OrderPaymentStatus) (OrderUpdate, bool) {
	if !full {
		return OrderUpdate{Status: cur, PaymentStatus: curPay}, false
	}
	return OrderUpdate{Status: OrderRefunded, PaymentStatus: OrderPaymentRefunded}, true
}
