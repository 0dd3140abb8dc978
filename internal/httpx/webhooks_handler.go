package httpx

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ariefcatur/go-payment-engine.git/internal/commerce"
	"github.com/ariefcatur/go-payment-engine.git/internal/gateway"
	"github.com/ariefcatur/go-payment-engine.git/internal/signature"
)

// webhook body cap; payload PG jauh di bawah ini
const maxWebhookBody = 1 << 20

type WebhooksHandler struct {
	Engine   PaymentEngine
	Verifier *signature.Verifier
	Gateways *gateway.Registry
}

func (h *WebhooksHandler) Register(r *chi.Mux) {
	r.Post("/webhooks/{provider}", h.handleWebhook)
}

// handleWebhook: verify dulu, baru sentuh state. Replay dan duplicate
// delivery dua-duanya dibalas 200 supaya gateway berhenti retry.
func (h *WebhooksHandler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	provider, err := commerce.ParseProvider(chi.URLParam(r, "provider"))
	if err != nil {
		fail(w, http.StatusNotFound, "unknown provider")
		return
	}
	gw, err := h.Gateways.Lookup(provider)
	if err != nil {
		fail(w, http.StatusNotFound, "unknown provider")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		fail(w, http.StatusBadRequest, "unreadable body")
		return
	}

	if err := h.Verifier.Verify(provider, body, r.Header.Get("X-Signature")); err != nil {
		fail(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	notif, err := gw.Normalize(body)
	if err != nil {
		fail(w, http.StatusBadRequest, "malformed payload")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	res, err := h.Engine.ProcessNotification(ctx, notif)
	if err != nil {
		code, msg := errorResponse(err)
		fail(w, code, msg)
		return
	}
	ok(w, http.StatusOK, res)
}
