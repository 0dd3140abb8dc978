package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"log"

	"github.com/ariefcatur/go-payment-engine.git/internal/commerce"
)

// Scheme adalah cara provider menandatangani body webhook. Bukan satu
// algoritma tunggal — tiap provider punya kanonicalisasi sendiri.
type Scheme string

const (
	// hex(HMAC-SHA256(body, secret))
	SchemeHMACHex Scheme = "hmac-sha256-hex"
	// base64(HMAC-SHA256(body, secret))
	SchemeHMACBase64 Scheme = "hmac-sha256-base64"
	// hex(SHA-256(body || secret))
	SchemeSHA256Concat Scheme = "sha256-concat"
)

var schemeByProvider = map[commerce.Provider]Scheme{
	commerce.ProviderIamport:  SchemeHMACHex,
	commerce.ProviderToss:     SchemeHMACBase64,
	commerce.ProviderKakaoPay: SchemeSHA256Concat,
	commerce.ProviderNaverPay: SchemeHMACHex,
	commerce.ProviderManual:   SchemeHMACHex, // shared internal secret
}

type Verifier struct {
	secrets map[commerce.Provider]string
	// Non-production saja: izinkan webhook tanpa secret ter-konfigurasi.
	// Di production selalu fail-closed.
	allowUnsigned bool
}

func NewVerifier(secrets map[commerce.Provider]string, allowUnsigned bool) *Verifier {
	return &Verifier{secrets: secrets, allowUnsigned: allowUnsigned}
}

// Verify memvalidasi signature sebelum state apa pun disentuh. Gagal ->
// commerce.ErrUnauthorized.
func (v *Verifier) Verify(provider commerce.Provider, body []byte, sig string) error {
	scheme, ok := schemeByProvider[provider]
	if !ok {
		return fmt.Errorf("%w: no signature scheme for provider %s", commerce.ErrUnauthorized, provider)
	}
	secret := v.secrets[provider]
	if secret == "" {
		if v.allowUnsigned {
			log.Printf("signature: no secret for %s, accepting unsigned webhook (non-production override)", provider)
			return nil
		}
		return fmt.Errorf("%w: no webhook secret configured for %s", commerce.ErrUnauthorized, provider)
	}
	if sig == "" {
		return fmt.Errorf("%w: missing signature header", commerce.ErrUnauthorized)
	}
	want := Sign(scheme, body, secret)
	if !hmac.Equal([]byte(want), []byte(sig)) {
		return fmt.Errorf("%w: signature mismatch for %s", commerce.ErrUnauthorized, provider)
	}
	return nil
}

// Sign menghitung signature sesuai scheme; dipakai verifier dan test.
func Sign(scheme Scheme, body []byte, secret string) string {
	switch scheme {
	case SchemeHMACBase64:
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write(body)
		return base64.StdEncoding.EncodeToString(mac.Sum(nil))
	case SchemeSHA256Concat:
		h := sha256.New()
		h.Write(body)
		h.Write([]byte(secret))
		return hex.EncodeToString(h.Sum(nil))
	default: // SchemeHMACHex
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write(body)
		return hex.EncodeToString(mac.Sum(nil))
	}
}

// SchemeFor exposes the provider's scheme (dipakai gateway & test).
func SchemeFor(p commerce.Provider) (Scheme, bool) {
	s, ok := schemeByProvider[p]
	return s, ok
}
