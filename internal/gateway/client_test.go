package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ariefcatur/go-payment-engine.git/internal/commerce"
	"github.com/ariefcatur/go-payment-engine.git/internal/config"
)

func TestTossConfirmPayment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/payments/confirm" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["orderId"] != "TXN1" {
			t.Errorf("orderId = %v", body["orderId"])
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"orderId": "TXN1", "paymentKey": "pk_9", "status": "DONE", "totalAmount": 10000,
		})
	}))
	defer srv.Close()

	g := newToss(config.ProviderConfig{BaseURL: srv.URL, APIKey: "k"}, srv.Client())
	res, err := g.ConfirmPayment(context.Background(), ConfirmRequest{
		TransactionID: "TXN1", GatewayKey: "pk_9", Amount: 10000,
	})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if res.Outcome != commerce.OutcomeSuccess || res.GatewayTransactionID != "pk_9" || res.Amount != 10000 {
		t.Fatalf("got %+v", res)
	}
}

func TestGatewayErrorCarriesCodeVerbatim(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"code": "NOT_FOUND_PAYMENT", "message": "존재하지 않는 결제입니다",
		})
	}))
	defer srv.Close()

	g := newToss(config.ProviderConfig{BaseURL: srv.URL}, srv.Client())
	_, err := g.ConfirmPayment(context.Background(), ConfirmRequest{TransactionID: "TXNX"})
	var ge *commerce.GatewayError
	if !errors.As(err, &ge) {
		t.Fatalf("want *commerce.GatewayError, got %v", err)
	}
	if ge.Code != "NOT_FOUND_PAYMENT" || ge.Provider != commerce.ProviderToss {
		t.Fatalf("got %+v", ge)
	}
}

func TestIamportRefund(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/payments/cancel" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"code": 0, "response": map[string]any{"imp_uid": "imp_refund_1"},
		})
	}))
	defer srv.Close()

	g := newIamport(config.ProviderConfig{BaseURL: srv.URL}, srv.Client())
	res, err := g.Refund(context.Background(), RefundRequest{
		Original: &commerce.Payment{TransactionID: "TXN1", Amount: 10000},
		Amount:   4000, Reason: "customer request",
	})
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if res.RefundTransactionID != "imp_refund_1" {
		t.Fatalf("got %+v", res)
	}
}
