package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ariefcatur/go-payment-engine.git/internal/commerce"
	"github.com/ariefcatur/go-payment-engine.git/internal/config"
)

// 카카오페이 (Kakao Pay): partner_order_id = internal transaction id,
// tid = provider-side id.
type kakaoPay struct {
	c *client
}

func newKakaoPay(cfg config.ProviderConfig, hc *http.Client) *kakaoPay {
	return &kakaoPay{c: &client{name: commerce.ProviderKakaoPay, base: cfg.BaseURL, apiKey: cfg.APIKey, hc: hc}}
}

func (g *kakaoPay) Name() commerce.Provider { return commerce.ProviderKakaoPay }

type kakaoWebhook struct {
	TID            string `json:"tid"`
	PartnerOrderID string `json:"partner_order_id"`
	Status         string `json:"status"` // SUCCESS_PAYMENT | FAIL_PAYMENT | QUIT_PAYMENT
	Amount         struct {
		Total int64 `json:"total"`
	} `json:"amount"`
	FailReason string `json:"fail_reason"`
}

func (g *kakaoPay) Normalize(raw []byte) (commerce.GatewayNotification, error) {
	var w kakaoWebhook
	if err := json.Unmarshal(raw, &w); err != nil {
		return commerce.GatewayNotification{}, fmt.Errorf("kakaopay webhook: %w", err)
	}
	if w.PartnerOrderID == "" {
		return commerce.GatewayNotification{}, fmt.Errorf("kakaopay webhook: missing partner_order_id")
	}
	n := commerce.GatewayNotification{
		Provider:             commerce.ProviderKakaoPay,
		TransactionID:        w.PartnerOrderID,
		GatewayTransactionID: w.TID,
		Amount:               w.Amount.Total,
		Currency:             "KRW",
		Raw:                  json.RawMessage(raw),
	}
	if w.Status == "SUCCESS_PAYMENT" {
		n.Outcome = commerce.OutcomeSuccess
	} else {
		n.Outcome = commerce.OutcomeFailed
		n.FailureReason = w.FailReason
		n.FailureCode = w.Status
	}
	return n, nil
}

func (g *kakaoPay) CreatePayment(ctx context.Context, req CreateRequest) (CreateResult, error) {
	body := map[string]any{
		"partner_order_id": req.Payment.TransactionID,
		"partner_user_id":  req.Payment.UserID,
		"item_name":        fmt.Sprintf("order %s", req.Order.ID),
		"total_amount":     req.Payment.Amount,
		"tax_free_amount":  0,
	}
	var out struct {
		TID           string `json:"tid"`
		NextRedirect  string `json:"next_redirect_pc_url"`
		CreatedAtText string `json:"created_at"`
	}
	if err := g.c.doJSON(ctx, http.MethodPost, "/online/v1/payment/ready", body, &out); err != nil {
		return CreateResult{}, err
	}
	return CreateResult{GatewayPaymentID: out.TID, RedirectURL: out.NextRedirect, Method: "redirect"}, nil
}

func (g *kakaoPay) ConfirmPayment(ctx context.Context, req ConfirmRequest) (ConfirmResult, error) {
	body := map[string]any{
		"tid":              req.GatewayKey,
		"partner_order_id": req.TransactionID,
	}
	var out struct {
		AID    string `json:"aid"`
		TID    string `json:"tid"`
		Status string `json:"status"`
		Amount struct {
			Total int64 `json:"total"`
		} `json:"amount"`
	}
	if err := g.c.doJSON(ctx, http.MethodPost, "/online/v1/payment/approve", body, &out); err != nil {
		return ConfirmResult{}, err
	}
	res := ConfirmResult{GatewayTransactionID: out.TID, Amount: out.Amount.Total}
	if out.Status == "SUCCESS_PAYMENT" || out.Status == "PAYMENT_COMPLETED" {
		res.Outcome = commerce.OutcomeSuccess
	} else {
		res.Outcome = commerce.OutcomeFailed
		res.FailureCode = out.Status
	}
	return res, nil
}

func (g *kakaoPay) CancelPayment(ctx context.Context, gatewayTxnID, reason string) error {
	body := map[string]any{"tid": gatewayTxnID, "cancel_reason": reason}
	return g.c.doJSON(ctx, http.MethodPost, "/online/v1/payment/cancel", body, nil)
}

func (g *kakaoPay) GetPayment(ctx context.Context, gatewayTxnID string) (ConfirmResult, error) {
	var out struct {
		TID    string `json:"tid"`
		Status string `json:"status"`
		Amount struct {
			Total int64 `json:"total"`
		} `json:"amount"`
	}
	if err := g.c.doJSON(ctx, http.MethodGet, "/online/v1/payment/order?tid="+gatewayTxnID, nil, &out); err != nil {
		return ConfirmResult{}, err
	}
	res := ConfirmResult{GatewayTransactionID: out.TID, Amount: out.Amount.Total}
	if out.Status == "SUCCESS_PAYMENT" || out.Status == "PAYMENT_COMPLETED" {
		res.Outcome = commerce.OutcomeSuccess
	} else {
		res.Outcome = commerce.OutcomeFailed
		res.FailureCode = out.Status
	}
	return res, nil
}

func (g *kakaoPay) Refund(ctx context.Context, req RefundRequest) (RefundResult, error) {
	if req.Original.GatewayTransactionID == nil {
		return RefundResult{}, &commerce.GatewayError{
			Provider: commerce.ProviderKakaoPay, Code: "NO_TID",
			Message: "original payment has no gateway transaction id",
		}
	}
	body := map[string]any{
		"tid":                    *req.Original.GatewayTransactionID,
		"cancel_amount":          req.Amount,
		"cancel_tax_free_amount": 0,
	}
	var out struct {
		AID string `json:"aid"`
	}
	if err := g.c.doJSON(ctx, http.MethodPost, "/online/v1/payment/cancel", body, &out); err != nil {
		return RefundResult{}, err
	}
	return RefundResult{RefundTransactionID: out.AID}, nil
}
