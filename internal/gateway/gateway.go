package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ariefcatur/go-payment-engine.git/internal/commerce"
	"github.com/ariefcatur/go-payment-engine.git/internal/config"
)

type CreateRequest struct {
	Payment *commerce.Payment
	Order   *commerce.Order
}

type CreateResult struct {
	GatewayPaymentID string `json:"payment_id"`
	RedirectURL      string `json:"redirect_url,omitempty"`
	Method           string `json:"method"` // redirect | none
}

type ConfirmRequest struct {
	TransactionID string // internal transaction id (merchant-side key)
	GatewayKey    string // provider-side key: imp_uid / paymentKey / tid / paymentId
	Amount        int64
}

type ConfirmResult struct {
	GatewayTransactionID string
	Outcome              commerce.Outcome
	Amount               int64
	FailureReason        string
	FailureCode          string
}

type RefundRequest struct {
	Original *commerce.Payment
	Amount   int64
	Reason   string
}

type RefundResult struct {
	RefundTransactionID string
}

// Provider adalah capability interface per gateway: menambah provider =
// satu implementasi baru + satu entri registry, bukan switch di mana-mana.
type Provider interface {
	Name() commerce.Provider
	// Normalize mengubah payload webhook provider menjadi bentuk internal.
	Normalize(raw []byte) (commerce.GatewayNotification, error)
	CreatePayment(ctx context.Context, req CreateRequest) (CreateResult, error)
	ConfirmPayment(ctx context.Context, req ConfirmRequest) (ConfirmResult, error)
	CancelPayment(ctx context.Context, gatewayTxnID, reason string) error
	GetPayment(ctx context.Context, gatewayTxnID string) (ConfirmResult, error)
	Refund(ctx context.Context, req RefundRequest) (RefundResult, error)
}

type Registry struct {
	providers map[commerce.Provider]Provider
}

func NewRegistry(cfgs map[commerce.Provider]config.ProviderConfig) *Registry {
	hc := &http.Client{Timeout: 10 * time.Second}
	r := &Registry{providers: map[commerce.Provider]Provider{}}
	for _, p := range []Provider{
		newIamport(cfgs[commerce.ProviderIamport], hc),
		newToss(cfgs[commerce.ProviderToss], hc),
		newKakaoPay(cfgs[commerce.ProviderKakaoPay], hc),
		newNaverPay(cfgs[commerce.ProviderNaverPay], hc),
		newManual(),
	} {
		r.providers[p.Name()] = p
	}
	return r
}

func (r *Registry) Lookup(p commerce.Provider) (Provider, error) {
	gw, ok := r.providers[p]
	if !ok {
		return nil, fmt.Errorf("%w: provider %s", commerce.ErrNotFound, p)
	}
	return gw, nil
}
