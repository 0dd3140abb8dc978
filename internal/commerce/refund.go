package commerce

// RefundPlan is the validated shape of a refund attempt before any row is
// written or any gateway call is made.
type RefundPlan struct {
	Amount int64
	Type   PaymentType
	Full   bool // refunds the entire remaining balance
	// OriginalAfter is the status the original payment takes once the
	// refund completes at the gateway.
	OriginalAfter PaymentStatus
}

// PlanRefund validates a refund request against the original payment.
// amount == 0 means "refund the full remaining balance". pending is the
// total of in-flight (PROCESSING) refund rows for the same original; it
// counts against the remaining balance so concurrent refunds cannot
// overshoot original.Amount.
func PlanRefund(original *Payment, amount, pending int64) (RefundPlan, error) {
	if !Refundable(original) {
		return RefundPlan{}, ErrNotRefundable
	}
	remaining := original.Remaining() - pending
	if remaining <= 0 {
		return RefundPlan{}, ErrNotRefundable
	}
	if amount == 0 {
		amount = remaining
	}
	if amount < 0 || amount > remaining {
		return RefundPlan{}, ErrInvalidRefundAmount
	}

	plan := RefundPlan{Amount: amount, Type: TypePartialRefund, OriginalAfter: PaymentPartiallyRefunded}
	if amount == remaining && pending == 0 {
		plan.Full = true
		plan.OriginalAfter = PaymentRefunded
		if original.RefundedAmount == 0 {
			plan.Type = TypeRefund
		}
	}
	return plan, nil
}
