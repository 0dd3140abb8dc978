package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ariefcatur/go-payment-engine.git/internal/commerce"
	"github.com/ariefcatur/go-payment-engine.git/internal/config"
	"github.com/ariefcatur/go-payment-engine.git/internal/gateway"
	"github.com/ariefcatur/go-payment-engine.git/internal/payments"
	"github.com/ariefcatur/go-payment-engine.git/internal/signature"
)

type stubEngine struct {
	notifRes   payments.NotificationResult
	notifErr   error
	refundRes  *payments.RefundResult
	refundErr  error
	createRes  *payments.CreatePaymentResult
	createErr  error
	confirmRes *payments.ConfirmResult
	confirmErr error

	gotNotif *commerce.GatewayNotification
}

func (s *stubEngine) CreatePayment(ctx context.Context, in payments.CreatePaymentInput) (*payments.CreatePaymentResult, error) {
	return s.createRes, s.createErr
}

func (s *stubEngine) ProcessNotification(ctx context.Context, n commerce.GatewayNotification) (payments.NotificationResult, error) {
	s.gotNotif = &n
	return s.notifRes, s.notifErr
}

func (s *stubEngine) ConfirmPayment(ctx context.Context, in payments.ConfirmInput) (*payments.ConfirmResult, error) {
	return s.confirmRes, s.confirmErr
}

func (s *stubEngine) Refund(ctx context.Context, in payments.RefundInput) (*payments.RefundResult, error) {
	return s.refundRes, s.refundErr
}

func (s *stubEngine) Payment(ctx context.Context, id string) (*commerce.Payment, error) {
	return nil, commerce.ErrNotFound
}

func newTestRouter(eng PaymentEngine, secrets map[commerce.Provider]string) http.Handler {
	r := NewRouter()
	wh := &WebhooksHandler{
		Engine:   eng,
		Verifier: signature.NewVerifier(secrets, false),
		Gateways: gateway.NewRegistry(map[commerce.Provider]config.ProviderConfig{}),
	}
	wh.Register(r)
	(&PaymentsHandler{Engine: eng}).Register(r)
	return r
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return env
}

func TestWebhookUnknownProvider(t *testing.T) {
	h := newTestRouter(&stubEngine{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader("{}"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestWebhookBadSignature(t *testing.T) {
	eng := &stubEngine{}
	h := newTestRouter(eng, map[commerce.Provider]string{commerce.ProviderIamport: "s3cret"})

	body := []byte(`{"imp_uid":"imp_1","merchant_uid":"TXN1","status":"paid","amount":10000}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/iamport", bytes.NewReader(body))
	req.Header.Set("X-Signature", "deadbeef")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if eng.gotNotif != nil {
		t.Fatal("engine was called despite invalid signature")
	}
}

func TestWebhookProcessed(t *testing.T) {
	eng := &stubEngine{notifRes: payments.NotificationResult{
		PaymentID:     "pay_1",
		TransactionID: "TXN1",
		Status:        commerce.PaymentCompleted,
	}}
	secret := "s3cret"
	h := newTestRouter(eng, map[commerce.Provider]string{commerce.ProviderIamport: secret})

	body := []byte(`{"imp_uid":"imp_1","merchant_uid":"TXN1","status":"paid","amount":10000}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/iamport", bytes.NewReader(body))
	req.Header.Set("X-Signature", signature.Sign(signature.SchemeHMACHex, body, secret))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	if !env.Success {
		t.Fatalf("success = false: %s", env.Error)
	}
	if eng.gotNotif == nil || eng.gotNotif.TransactionID != "TXN1" {
		t.Fatalf("engine got notif %+v", eng.gotNotif)
	}
	if eng.gotNotif.Outcome != commerce.OutcomeSuccess {
		t.Fatalf("outcome = %s, want success", eng.gotNotif.Outcome)
	}
}

// Duplicate delivery tetap 200: gateway harus berhenti retry.
func TestWebhookReplayStillAccepted(t *testing.T) {
	eng := &stubEngine{notifRes: payments.NotificationResult{
		PaymentID:        "pay_1",
		TransactionID:    "TXN1",
		Status:           commerce.PaymentCompleted,
		AlreadyProcessed: true,
	}}
	secret := "s3cret"
	h := newTestRouter(eng, map[commerce.Provider]string{commerce.ProviderIamport: secret})

	body := []byte(`{"imp_uid":"imp_1","merchant_uid":"TXN1","status":"paid","amount":10000}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/iamport", bytes.NewReader(body))
	req.Header.Set("X-Signature", signature.Sign(signature.SchemeHMACHex, body, secret))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var res struct {
		Data payments.NotificationResult `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if !res.Data.AlreadyProcessed {
		t.Fatal("already_processed should be true")
	}
}

func TestCreatePaymentUnknownProvider(t *testing.T) {
	h := newTestRouter(&stubEngine{}, nil)
	body := `{"order_id":"ord_1","user_id":"usr_1","provider":"paypal"}`
	req := httptest.NewRequest(http.MethodPost, "/payments", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestCreatePayment(t *testing.T) {
	eng := &stubEngine{createRes: &payments.CreatePaymentResult{
		PaymentID:     "pay_1",
		TransactionID: "TXN1",
		RedirectURL:   "https://pg.example/TXN1",
		Method:        "redirect",
	}}
	h := newTestRouter(eng, nil)
	body := `{"order_id":"ord_1","user_id":"usr_1","provider":"toss","method":"card"}`
	req := httptest.NewRequest(http.MethodPost, "/payments", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
}

func TestRefundInvalidAmount(t *testing.T) {
	eng := &stubEngine{refundErr: commerce.ErrInvalidRefundAmount}
	h := newTestRouter(eng, nil)
	body := `{"amount":15000,"reason":"customer request"}`
	req := httptest.NewRequest(http.MethodPost, "/payments/pay_1/refund", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Success {
		t.Fatal("success should be false")
	}
}

func TestRefundMissingReason(t *testing.T) {
	h := newTestRouter(&stubEngine{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/payments/pay_1/refund", strings.NewReader(`{"amount":1000}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestGetPaymentNotFound(t *testing.T) {
	h := newTestRouter(&stubEngine{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/payments/pay_missing", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestListMethods(t *testing.T) {
	h := newTestRouter(&stubEngine{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/payments/methods", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var res struct {
		Data []providerMethods `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if len(res.Data) != 4 {
		t.Fatalf("got %d providers, want 4", len(res.Data))
	}
}
