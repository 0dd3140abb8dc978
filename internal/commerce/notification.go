package commerce

import "encoding/json"

type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailed  Outcome = "failed"
)

// GatewayNotification adalah bentuk internal hasil normalisasi webhook per
// provider. Shape payload provider tidak pernah masuk ke core engine.
type GatewayNotification struct {
	Provider             Provider
	TransactionID        string // internal transaction id (idempotency key)
	GatewayTransactionID string
	Outcome              Outcome
	Amount               int64
	Currency             string
	FailureReason        string
	FailureCode          string
	Raw                  json.RawMessage
}
