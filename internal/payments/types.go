package payments

import "github.com/ariefcatur/go-payment-engine.git/internal/commerce"

type CreatePaymentInput struct {
	OrderID  string
	UserID   string
	Provider commerce.Provider
	Method   string
}

type CreatePaymentResult struct {
	PaymentID     string `json:"payment_id"`
	TransactionID string `json:"transaction_id"`
	RedirectURL   string `json:"redirect_url,omitempty"`
	Method        string `json:"method"`
}

// NotificationResult adalah outcome internal pemrosesan webhook.
// AlreadyProcessed dibedakan dari proses pertama, tapi keduanya "accepted"
// bagi gateway pemanggil.
type NotificationResult struct {
	PaymentID        string                 `json:"payment_id"`
	TransactionID    string                 `json:"transaction_id"`
	Status           commerce.PaymentStatus `json:"status"`
	AlreadyProcessed bool                   `json:"already_processed"`
}

type ConfirmInput struct {
	TransactionID string
	PaymentKey    string // provider-side key dari redirect (paymentKey/tid/paymentId)
	OrderID       string
	Amount        int64
}

type ConfirmResult struct {
	PaymentID        string                 `json:"payment_id"`
	TransactionID    string                 `json:"transaction_id"`
	Status           commerce.PaymentStatus `json:"status"`
	FailureReason    string                 `json:"failure_reason,omitempty"`
	FailureCode      string                 `json:"failure_code,omitempty"`
	AlreadyProcessed bool                   `json:"already_processed"`
}

type RefundInput struct {
	PaymentID   string
	Amount      int64 // 0 = full remaining balance
	Reason      string
	RequestedBy string
}

type RefundResult struct {
	RefundID      string                 `json:"refund_id"`
	TransactionID string                 `json:"transaction_id"`
	Amount        int64                  `json:"amount"`
	Status        commerce.PaymentStatus `json:"status"`
	FailureReason string                 `json:"failure_reason,omitempty"`
}
