package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ariefcatur/go-payment-engine.git/internal/commerce"
	"github.com/ariefcatur/go-payment-engine.git/internal/config"
)

// 아임포트 (Iamport): merchant_uid = internal transaction id,
// imp_uid = provider-side id.
type iamport struct {
	c *client
}

func newIamport(cfg config.ProviderConfig, hc *http.Client) *iamport {
	return &iamport{c: &client{name: commerce.ProviderIamport, base: cfg.BaseURL, apiKey: cfg.APIKey, hc: hc}}
}

func (g *iamport) Name() commerce.Provider { return commerce.ProviderIamport }

type iamportWebhook struct {
	ImpUID      string `json:"imp_uid"`
	MerchantUID string `json:"merchant_uid"`
	Status      string `json:"status"` // paid | failed | cancelled
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	FailReason  string `json:"fail_reason"`
}

func (g *iamport) Normalize(raw []byte) (commerce.GatewayNotification, error) {
	var w iamportWebhook
	if err := json.Unmarshal(raw, &w); err != nil {
		return commerce.GatewayNotification{}, fmt.Errorf("iamport webhook: %w", err)
	}
	if w.MerchantUID == "" {
		return commerce.GatewayNotification{}, fmt.Errorf("iamport webhook: missing merchant_uid")
	}
	n := commerce.GatewayNotification{
		Provider:             commerce.ProviderIamport,
		TransactionID:        w.MerchantUID,
		GatewayTransactionID: w.ImpUID,
		Amount:               w.Amount,
		Currency:             defaultKRW(w.Currency),
		Raw:                  json.RawMessage(raw),
	}
	if w.Status == "paid" {
		n.Outcome = commerce.OutcomeSuccess
	} else {
		n.Outcome = commerce.OutcomeFailed
		n.FailureReason = w.FailReason
		n.FailureCode = w.Status
	}
	return n, nil
}

func (g *iamport) CreatePayment(ctx context.Context, req CreateRequest) (CreateResult, error) {
	// Iamport pakai redirect client-side; tidak ada round-trip server dulu.
	return CreateResult{
		GatewayPaymentID: "",
		RedirectURL:      fmt.Sprintf("https://pg.iamport.kr/payments/%s", req.Payment.TransactionID),
		Method:           "redirect",
	}, nil
}

type iamportEnvelope struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	Response struct {
		ImpUID     string `json:"imp_uid"`
		Status     string `json:"status"`
		Amount     int64  `json:"amount"`
		FailReason string `json:"fail_reason"`
	} `json:"response"`
}

func (g *iamport) ConfirmPayment(ctx context.Context, req ConfirmRequest) (ConfirmResult, error) {
	var env iamportEnvelope
	if err := g.c.doJSON(ctx, http.MethodGet, "/payments/find/"+req.TransactionID, nil, &env); err != nil {
		return ConfirmResult{}, err
	}
	if env.Code != 0 {
		return ConfirmResult{}, &commerce.GatewayError{
			Provider: commerce.ProviderIamport, Code: fmt.Sprintf("%d", env.Code), Message: env.Message,
		}
	}
	res := ConfirmResult{GatewayTransactionID: env.Response.ImpUID, Amount: env.Response.Amount}
	if env.Response.Status == "paid" {
		res.Outcome = commerce.OutcomeSuccess
	} else {
		res.Outcome = commerce.OutcomeFailed
		res.FailureReason = env.Response.FailReason
		res.FailureCode = env.Response.Status
	}
	return res, nil
}

func (g *iamport) CancelPayment(ctx context.Context, gatewayTxnID, reason string) error {
	body := map[string]any{"imp_uid": gatewayTxnID, "reason": reason}
	var env iamportEnvelope
	if err := g.c.doJSON(ctx, http.MethodPost, "/payments/cancel", body, &env); err != nil {
		return err
	}
	if env.Code != 0 {
		return &commerce.GatewayError{Provider: commerce.ProviderIamport, Code: fmt.Sprintf("%d", env.Code), Message: env.Message}
	}
	return nil
}

func (g *iamport) GetPayment(ctx context.Context, gatewayTxnID string) (ConfirmResult, error) {
	var env iamportEnvelope
	if err := g.c.doJSON(ctx, http.MethodGet, "/payments/"+gatewayTxnID, nil, &env); err != nil {
		return ConfirmResult{}, err
	}
	res := ConfirmResult{GatewayTransactionID: env.Response.ImpUID, Amount: env.Response.Amount}
	if env.Response.Status == "paid" {
		res.Outcome = commerce.OutcomeSuccess
	} else {
		res.Outcome = commerce.OutcomeFailed
		res.FailureReason = env.Response.FailReason
		res.FailureCode = env.Response.Status
	}
	return res, nil
}

func (g *iamport) Refund(ctx context.Context, req RefundRequest) (RefundResult, error) {
	body := map[string]any{
		"merchant_uid": req.Original.TransactionID,
		"amount":       req.Amount,
		"reason":       req.Reason,
	}
	var env iamportEnvelope
	if err := g.c.doJSON(ctx, http.MethodPost, "/payments/cancel", body, &env); err != nil {
		return RefundResult{}, err
	}
	if env.Code != 0 {
		return RefundResult{}, &commerce.GatewayError{
			Provider: commerce.ProviderIamport, Code: fmt.Sprintf("%d", env.Code), Message: env.Message,
		}
	}
	return RefundResult{RefundTransactionID: env.Response.ImpUID}, nil
}

func defaultKRW(cur string) string {
	if cur == "" {
		return "KRW"
	}
	return cur
}
