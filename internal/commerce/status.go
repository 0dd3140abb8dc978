package commerce

type OrderStatus string

const (
	OrderPending    OrderStatus = "PENDING"
	OrderConfirmed  OrderStatus = "CONFIRMED"
	OrderProcessing OrderStatus = "PROCESSING"
	OrderCancelled  OrderStatus = "CANCELLED"
	OrderRefunded   OrderStatus = "REFUNDED"
)

type OrderPaymentStatus string

const (
	OrderPaymentPending  OrderPaymentStatus = "PENDING"
	OrderPaymentPaid     OrderPaymentStatus = "PAID"
	OrderPaymentFailed   OrderPaymentStatus = "FAILED"
	OrderPaymentRefunded OrderPaymentStatus = "REFUNDED"
)

type PaymentStatus string

const (
	PaymentPending           PaymentStatus = "PENDING"
	PaymentProcessing        PaymentStatus = "PROCESSING"
	PaymentCompleted         PaymentStatus = "COMPLETED"
	PaymentFailed            PaymentStatus = "FAILED"
	PaymentCancelled         PaymentStatus = "CANCELLED"
	PaymentExpired           PaymentStatus = "EXPIRED"
	PaymentRefunded          PaymentStatus = "REFUNDED"
	PaymentPartiallyRefunded PaymentStatus = "PARTIALLY_REFUNDED"
)

type PaymentType string

const (
	TypePayment       PaymentType = "PAYMENT"
	TypeRefund        PaymentType = "REFUND"
	TypePartialRefund PaymentType = "PARTIAL_REFUND"
)

type ReservationStatus string

const (
	ReservationReserved  ReservationStatus = "RESERVED"
	ReservationConfirmed ReservationStatus = "CONFIRMED"
	ReservationReleased  ReservationStatus = "RELEASED"
	ReservationExpired   ReservationStatus = "EXPIRED"
)

var validNextPayment = map[PaymentStatus]map[PaymentStatus]bool{
	PaymentPending: {
		PaymentProcessing: true, PaymentCompleted: true, PaymentFailed: true,
		PaymentCancelled: true, PaymentExpired: true,
	},
	PaymentProcessing: {
		PaymentCompleted: true, PaymentFailed: true, PaymentCancelled: true,
	},
	PaymentCompleted: {
		PaymentRefunded: true, PaymentPartiallyRefunded: true,
	},
	PaymentPartiallyRefunded: {
		PaymentRefunded: true, PaymentPartiallyRefunded: true,
	},
	PaymentFailed:    {},
	PaymentCancelled: {},
	PaymentExpired:   {},
	PaymentRefunded:  {},
}

func CanTransitionPayment(from, to PaymentStatus) bool {
	return validNextPayment[from][to]
}

// Finalized reports whether a payment already reached a state the webhook
// idempotency gate treats as terminal: a second notification for it must
// become a no-op.
func Finalized(s PaymentStatus) bool {
	switch s {
	case PaymentPending, PaymentProcessing:
		return false
	}
	return true
}

// Refundable reports whether a PAYMENT row may still take a refund.
func Refundable(p *Payment) bool {
	if p.Type != TypePayment {
		return false
	}
	switch p.Status {
	case PaymentCompleted:
		return p.Remaining() > 0
	case PaymentPartiallyRefunded:
		return p.Remaining() > 0
	}
	return false
}
