package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ariefcatur/go-payment-engine.git/internal/commerce"
	"github.com/ariefcatur/go-payment-engine.git/internal/config"
)

// 네이버페이 (Naver Pay): merchantPayKey = internal transaction id,
// paymentId = provider-side id.
type naverPay struct {
	c *client
}

func newNaverPay(cfg config.ProviderConfig, hc *http.Client) *naverPay {
	return &naverPay{c: &client{name: commerce.ProviderNaverPay, base: cfg.BaseURL, apiKey: cfg.APIKey, hc: hc}}
}

func (g *naverPay) Name() commerce.Provider { return commerce.ProviderNaverPay }

type naverWebhook struct {
	PaymentID      string `json:"paymentId"`
	MerchantPayKey string `json:"merchantPayKey"`
	AdmissionState string `json:"admissionState"` // SUCCESS | FAIL | CANCEL
	TotalPayAmount int64  `json:"totalPayAmount"`
	FailReason     string `json:"failReason"`
}

func (g *naverPay) Normalize(raw []byte) (commerce.GatewayNotification, error) {
	var w naverWebhook
	if err := json.Unmarshal(raw, &w); err != nil {
		return commerce.GatewayNotification{}, fmt.Errorf("naverpay webhook: %w", err)
	}
	if w.MerchantPayKey == "" {
		return commerce.GatewayNotification{}, fmt.Errorf("naverpay webhook: missing merchantPayKey")
	}
	n := commerce.GatewayNotification{
		Provider:             commerce.ProviderNaverPay,
		TransactionID:        w.MerchantPayKey,
		GatewayTransactionID: w.PaymentID,
		Amount:               w.TotalPayAmount,
		Currency:             "KRW",
		Raw:                  json.RawMessage(raw),
	}
	if w.AdmissionState == "SUCCESS" {
		n.Outcome = commerce.OutcomeSuccess
	} else {
		n.Outcome = commerce.OutcomeFailed
		n.FailureReason = w.FailReason
		n.FailureCode = w.AdmissionState
	}
	return n, nil
}

func (g *naverPay) CreatePayment(ctx context.Context, req CreateRequest) (CreateResult, error) {
	// Naver Pay reserve dilakukan client-side dengan merchantPayKey.
	return CreateResult{Method: "redirect",
		RedirectURL: fmt.Sprintf("https://pay.naver.com/payments/%s", req.Payment.TransactionID)}, nil
}

type naverEnvelope struct {
	Code    string `json:"code"` // "Success" kalau ok
	Message string `json:"message"`
	Body    struct {
		PaymentID      string `json:"paymentId"`
		TotalPayAmount int64  `json:"totalPayAmount"`
	} `json:"body"`
}

func (g *naverPay) ConfirmPayment(ctx context.Context, req ConfirmRequest) (ConfirmResult, error) {
	body := map[string]any{"paymentId": req.GatewayKey}
	var env naverEnvelope
	if err := g.c.doJSON(ctx, http.MethodPost, "/naverpay-partner/naverpay/payments/v2.2/apply/payment", body, &env); err != nil {
		return ConfirmResult{}, err
	}
	res := ConfirmResult{GatewayTransactionID: env.Body.PaymentID, Amount: env.Body.TotalPayAmount}
	if env.Code == "Success" {
		res.Outcome = commerce.OutcomeSuccess
	} else {
		res.Outcome = commerce.OutcomeFailed
		res.FailureReason = env.Message
		res.FailureCode = env.Code
	}
	return res, nil
}

func (g *naverPay) CancelPayment(ctx context.Context, gatewayTxnID, reason string) error {
	body := map[string]any{"paymentId": gatewayTxnID, "cancelReason": reason}
	var env naverEnvelope
	if err := g.c.doJSON(ctx, http.MethodPost, "/naverpay-partner/naverpay/payments/v1/cancel", body, &env); err != nil {
		return err
	}
	if env.Code != "Success" {
		return &commerce.GatewayError{Provider: commerce.ProviderNaverPay, Code: env.Code, Message: env.Message}
	}
	return nil
}

func (g *naverPay) GetPayment(ctx context.Context, gatewayTxnID string) (ConfirmResult, error) {
	var env naverEnvelope
	if err := g.c.doJSON(ctx, http.MethodGet, "/naverpay-partner/naverpay/payments/v2.2/list?paymentId="+gatewayTxnID, nil, &env); err != nil {
		return ConfirmResult{}, err
	}
	res := ConfirmResult{GatewayTransactionID: env.Body.PaymentID, Amount: env.Body.TotalPayAmount}
	if env.Code == "Success" {
		res.Outcome = commerce.OutcomeSuccess
	} else {
		res.Outcome = commerce.OutcomeFailed
		res.FailureCode = env.Code
	}
	return res, nil
}

func (g *naverPay) Refund(ctx context.Context, req RefundRequest) (RefundResult, error) {
	if req.Original.GatewayTransactionID == nil {
		return RefundResult{}, &commerce.GatewayError{
			Provider: commerce.ProviderNaverPay, Code: "NO_PAYMENT_ID",
			Message: "original payment has no gateway transaction id",
		}
	}
	body := map[string]any{
		"paymentId":    *req.Original.GatewayTransactionID,
		"cancelAmount": req.Amount,
		"cancelReason": req.Reason,
	}
	var env naverEnvelope
	if err := g.c.doJSON(ctx, http.MethodPost, "/naverpay-partner/naverpay/payments/v1/cancel", body, &env); err != nil {
		return RefundResult{}, err
	}
	if env.Code != "Success" {
		return RefundResult{}, &commerce.GatewayError{Provider: commerce.ProviderNaverPay, Code: env.Code, Message: env.Message}
	}
	return RefundResult{RefundTransactionID: env.Body.PaymentID}, nil
}
