package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ariefcatur/go-payment-engine.git/internal/commerce"
	"github.com/ariefcatur/go-payment-engine.git/internal/config"
)

// 토스페이먼츠 (Toss Payments): orderId = internal transaction id,
// paymentKey = provider-side id.
type toss struct {
	c *client
}

func newToss(cfg config.ProviderConfig, hc *http.Client) *toss {
	return &toss{c: &client{name: commerce.ProviderToss, base: cfg.BaseURL, apiKey: cfg.APIKey, hc: hc}}
}

func (g *toss) Name() commerce.Provider { return commerce.ProviderToss }

type tossPayment struct {
	OrderID     string `json:"orderId"`
	PaymentKey  string `json:"paymentKey"`
	Status      string `json:"status"` // DONE | CANCELED | ABORTED | EXPIRED | ...
	TotalAmount int64  `json:"totalAmount"`
	Currency    string `json:"currency"`
	Failure     *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"failure"`
}

func (p tossPayment) outcome() (commerce.Outcome, string, string) {
	if p.Status == "DONE" {
		return commerce.OutcomeSuccess, "", ""
	}
	reason, code := "", p.Status
	if p.Failure != nil {
		reason, code = p.Failure.Message, p.Failure.Code
	}
	return commerce.OutcomeFailed, reason, code
}

func (g *toss) Normalize(raw []byte) (commerce.GatewayNotification, error) {
	// webhook: {eventType, data:{...payment...}}; terima juga payment flat
	var w struct {
		EventType string          `json:"eventType"`
		Data      json.RawMessage `json:"data"`
	}
	body := raw
	if err := json.Unmarshal(raw, &w); err == nil && len(w.Data) > 0 {
		body = w.Data
	}
	var p tossPayment
	if err := json.Unmarshal(body, &p); err != nil {
		return commerce.GatewayNotification{}, fmt.Errorf("toss webhook: %w", err)
	}
	if p.OrderID == "" {
		return commerce.GatewayNotification{}, fmt.Errorf("toss webhook: missing orderId")
	}
	outcome, reason, code := p.outcome()
	return commerce.GatewayNotification{
		Provider:             commerce.ProviderToss,
		TransactionID:        p.OrderID,
		GatewayTransactionID: p.PaymentKey,
		Outcome:              outcome,
		Amount:               p.TotalAmount,
		Currency:             defaultKRW(p.Currency),
		FailureReason:        reason,
		FailureCode:          code,
		Raw:                  json.RawMessage(raw),
	}, nil
}

func (g *toss) CreatePayment(ctx context.Context, req CreateRequest) (CreateResult, error) {
	return CreateResult{
		GatewayPaymentID: "",
		RedirectURL:      fmt.Sprintf("https://api.tosspayments.com/v1/payments/%s", req.Payment.TransactionID),
		Method:           "redirect",
	}, nil
}

func (g *toss) ConfirmPayment(ctx context.Context, req ConfirmRequest) (ConfirmResult, error) {
	body := map[string]any{
		"paymentKey": req.GatewayKey,
		"orderId":    req.TransactionID,
		"amount":     req.Amount,
	}
	var p tossPayment
	if err := g.c.doJSON(ctx, http.MethodPost, "/v1/payments/confirm", body, &p); err != nil {
		return ConfirmResult{}, err
	}
	outcome, reason, code := p.outcome()
	return ConfirmResult{
		GatewayTransactionID: p.PaymentKey,
		Outcome:              outcome,
		Amount:               p.TotalAmount,
		FailureReason:        reason,
		FailureCode:          code,
	}, nil
}

func (g *toss) CancelPayment(ctx context.Context, gatewayTxnID, reason string) error {
	body := map[string]any{"cancelReason": reason}
	return g.c.doJSON(ctx, http.MethodPost, "/v1/payments/"+gatewayTxnID+"/cancel", body, nil)
}

func (g *toss) GetPayment(ctx context.Context, gatewayTxnID string) (ConfirmResult, error) {
	var p tossPayment
	if err := g.c.doJSON(ctx, http.MethodGet, "/v1/payments/"+gatewayTxnID, nil, &p); err != nil {
		return ConfirmResult{}, err
	}
	outcome, reason, code := p.outcome()
	return ConfirmResult{
		GatewayTransactionID: p.PaymentKey,
		Outcome:              outcome,
		Amount:               p.TotalAmount,
		FailureReason:        reason,
		FailureCode:          code,
	}, nil
}

func (g *toss) Refund(ctx context.Context, req RefundRequest) (RefundResult, error) {
	if req.Original.GatewayTransactionID == nil {
		return RefundResult{}, &commerce.GatewayError{
			Provider: commerce.ProviderToss, Code: "NO_PAYMENT_KEY",
			Message: "original payment has no gateway transaction id",
		}
	}
	body := map[string]any{
		"cancelReason": req.Reason,
		"cancelAmount": req.Amount,
	}
	var out struct {
		Status  string `json:"status"`
		Cancels []struct {
			TransactionKey string `json:"transactionKey"`
		} `json:"cancels"`
	}
	path := "/v1/payments/" + *req.Original.GatewayTransactionID + "/cancel"
	if err := g.c.doJSON(ctx, http.MethodPost, path, body, &out); err != nil {
		return RefundResult{}, err
	}
	res := RefundResult{}
	if len(out.Cancels) > 0 {
		res.RefundTransactionID = out.Cancels[len(out.Cancels)-1].TransactionKey
	}
	return res, nil
}
