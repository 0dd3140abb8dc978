package commerce

import (
	"encoding/json"
	"time"
)

const (
	EventPaymentCompleted = "PaymentCompleted"
	EventPaymentFailed    = "PaymentFailed"
	EventPaymentRefunded  = "PaymentRefunded"
)

type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // salah satu const di atas
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`   // RFC3339
	Producer      string          `json:"producer"`      // e.g., "payment-api"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // biasanya order_id
	Payload       json.RawMessage `json:"payload"`
}

// ---- Payload tipe per event ----

type PaymentCompletedPayload struct {
	PaymentID            string `json:"payment_id"`
	OrderID              string `json:"order_id"`
	UserID               string `json:"user_id"`
	TransactionID        string `json:"transaction_id"`
	GatewayTransactionID string `json:"gateway_transaction_id,omitempty"`
	Provider             string `json:"provider"`
	Amount               int64  `json:"amount"`
	Currency             string `json:"currency"`
}

type PaymentFailedPayload struct {
	PaymentID     string `json:"payment_id"`
	OrderID       string `json:"order_id"`
	UserID        string `json:"user_id"`
	TransactionID string `json:"transaction_id"`
	Provider      string `json:"provider"`
	Reason        string `json:"reason,omitempty"` // failure reason verbatim dari gateway
	Code          string `json:"code,omitempty"`
}

type PaymentRefundedPayload struct {
	RefundID          string `json:"refund_id"`
	OriginalPaymentID string `json:"original_payment_id"`
	OrderID           string `json:"order_id"`
	UserID            string `json:"user_id"`
	Amount            int64  `json:"amount"`
	Full              bool   `json:"full"`
}
