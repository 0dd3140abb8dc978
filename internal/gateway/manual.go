package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ariefcatur/go-payment-engine.git/internal/commerce"
	"github.com/google/uuid"
)

// manual: jalur internal (bank transfer / admin) tanpa gateway eksternal.
// Confirm dan refund selesai lokal; notifikasinya datang dari panel admin
// dengan shared internal secret.
type manual struct{}

func newManual() *manual { return &manual{} }

func (g *manual) Name() commerce.Provider { return commerce.ProviderManual }

type manualWebhook struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"` // success | failed
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	Reason        string `json:"reason"`
}

func (g *manual) Normalize(raw []byte) (commerce.GatewayNotification, error) {
	var w manualWebhook
	if err := json.Unmarshal(raw, &w); err != nil {
		return commerce.GatewayNotification{}, fmt.Errorf("manual webhook: %w", err)
	}
	if w.TransactionID == "" {
		return commerce.GatewayNotification{}, fmt.Errorf("manual webhook: missing transaction_id")
	}
	n := commerce.GatewayNotification{
		Provider:      commerce.ProviderManual,
		TransactionID: w.TransactionID,
		Amount:        w.Amount,
		Currency:      defaultKRW(w.Currency),
		Raw:           json.RawMessage(raw),
	}
	if w.Status == "success" {
		n.Outcome = commerce.OutcomeSuccess
	} else {
		n.Outcome = commerce.OutcomeFailed
		n.FailureReason = w.Reason
		n.FailureCode = "MANUAL_" + w.Status
	}
	return n, nil
}

func (g *manual) CreatePayment(ctx context.Context, req CreateRequest) (CreateResult, error) {
	return CreateResult{Method: "none"}, nil
}

func (g *manual) ConfirmPayment(ctx context.Context, req ConfirmRequest) (ConfirmResult, error) {
	return ConfirmResult{
		GatewayTransactionID: "manual_" + uuid.NewString(),
		Outcome:              commerce.OutcomeSuccess,
		Amount:               req.Amount,
	}, nil
}

func (g *manual) CancelPayment(ctx context.Context, gatewayTxnID, reason string) error { return nil }

func (g *manual) GetPayment(ctx context.Context, gatewayTxnID string) (ConfirmResult, error) {
	return ConfirmResult{GatewayTransactionID: gatewayTxnID, Outcome: commerce.OutcomeSuccess}, nil
}

func (g *manual) Refund(ctx context.Context, req RefundRequest) (RefundResult, error) {
	return RefundResult{RefundTransactionID: "manual_refund_" + uuid.NewString()}, nil
}
