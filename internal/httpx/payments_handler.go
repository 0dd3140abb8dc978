package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ariefcatur/go-payment-engine.git/internal/commerce"
	"github.com/ariefcatur/go-payment-engine.git/internal/payments"
)

// PaymentEngine adalah surface engine yang dipakai handler; interface di
// sisi consumer supaya handler bisa dites tanpa DB.
type PaymentEngine interface {
	CreatePayment(ctx context.Context, in payments.CreatePaymentInput) (*payments.CreatePaymentResult, error)
	ProcessNotification(ctx context.Context, n commerce.GatewayNotification) (payments.NotificationResult, error)
	ConfirmPayment(ctx context.Context, in payments.ConfirmInput) (*payments.ConfirmResult, error)
	Refund(ctx context.Context, in payments.RefundInput) (*payments.RefundResult, error)
	Payment(ctx context.Context, id string) (*commerce.Payment, error)
}

type PaymentsHandler struct {
	Engine PaymentEngine
}

type createPaymentReq struct {
	OrderID  string `json:"order_id"`
	UserID   string `json:"user_id"`
	Provider string `json:"provider"`
	Method   string `json:"method"`
}

type confirmPaymentReq struct {
	TransactionID string `json:"transaction_id"`
	PaymentKey    string `json:"payment_key"`
	OrderID       string `json:"order_id"`
	Amount        int64  `json:"amount"`
}

type refundReq struct {
	Amount      int64  `json:"amount"` // 0 = full remaining
	Reason      string `json:"reason"`
	RequestedBy string `json:"requested_by"`
}

type providerMethods struct {
	Provider    commerce.Provider `json:"provider"`
	Methods     []string          `json:"methods"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
}

func (h *PaymentsHandler) Register(r *chi.Mux) {
	r.Post("/payments", h.createPayment)
	r.Post("/payments/confirm", h.confirmPayment)
	r.Post("/payments/{id}/refund", h.refund)
	r.Get("/payments/methods", h.listMethods)
	r.Get("/payments/{id}", h.getPayment)
}

func (h *PaymentsHandler) createPayment(w http.ResponseWriter, r *http.Request) {
	var req createPaymentReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.OrderID == "" || req.UserID == "" || req.Provider == "" {
		fail(w, http.StatusBadRequest, "missing fields")
		return
	}
	provider, err := commerce.ParseProvider(req.Provider)
	if err != nil {
		fail(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	res, err := h.Engine.CreatePayment(ctx, payments.CreatePaymentInput{
		OrderID:  req.OrderID,
		UserID:   req.UserID,
		Provider: provider,
		Method:   req.Method,
	})
	if err != nil {
		code, msg := errorResponse(err)
		fail(w, code, msg)
		return
	}
	ok(w, http.StatusCreated, res)
}

// confirmPayment adalah jalur return-redirect; webhook bisa sudah menang
// duluan, dan itu dibalas sukses dengan already_processed.
func (h *PaymentsHandler) confirmPayment(w http.ResponseWriter, r *http.Request) {
	var req confirmPaymentReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.TransactionID == "" || req.OrderID == "" {
		fail(w, http.StatusBadRequest, "missing fields")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	res, err := h.Engine.ConfirmPayment(ctx, payments.ConfirmInput{
		TransactionID: req.TransactionID,
		PaymentKey:    req.PaymentKey,
		OrderID:       req.OrderID,
		Amount:        req.Amount,
	})
	if err != nil {
		code, msg := errorResponse(err)
		fail(w, code, msg)
		return
	}
	ok(w, http.StatusOK, res)
}

func (h *PaymentsHandler) refund(w http.ResponseWriter, r *http.Request) {
	paymentID := chi.URLParam(r, "id")
	var req refundReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Reason == "" {
		fail(w, http.StatusBadRequest, "missing reason")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 20*time.Second)
	defer cancel()

	res, err := h.Engine.Refund(ctx, payments.RefundInput{
		PaymentID:   paymentID,
		Amount:      req.Amount,
		Reason:      req.Reason,
		RequestedBy: req.RequestedBy,
	})
	if err != nil {
		code, msg := errorResponse(err)
		fail(w, code, msg)
		return
	}
	ok(w, http.StatusOK, res)
}

func (h *PaymentsHandler) getPayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := h.Engine.Payment(ctx, chi.URLParam(r, "id"))
	if err != nil {
		code, msg := errorResponse(err)
		fail(w, code, msg)
		return
	}
	ok(w, http.StatusOK, p)
}

// katalog statis; manual sengaja tidak di-list (jalur internal/admin)
var methodCatalog = []providerMethods{
	{
		Provider:    commerce.ProviderIamport,
		Methods:     []string{"card", "bank_transfer", "virtual_account", "phone"},
		Name:        "아임포트",
		Description: "국내 주요 결제 수단 지원",
	},
	{
		Provider:    commerce.ProviderToss,
		Methods:     []string{"card", "bank_transfer", "virtual_account", "mobile"},
		Name:        "토스페이먼츠",
		Description: "간편 결제 및 다양한 결제 수단",
	},
	{
		Provider:    commerce.ProviderKakaoPay,
		Methods:     []string{"kakao_pay"},
		Name:        "카카오페이",
		Description: "카카오톡 간편 결제",
	},
	{
		Provider:    commerce.ProviderNaverPay,
		Methods:     []string{"naver_pay"},
		Name:        "네이버페이",
		Description: "네이버 간편 결제",
	},
}

func (h *PaymentsHandler) listMethods(w http.ResponseWriter, r *http.Request) {
	ok(w, http.StatusOK, methodCatalog)
}
