package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/ariefcatur/go-payment-engine.git/internal/commerce"
)

// client: helper JSON-over-HTTP bersama untuk semua provider.
type client struct {
	name   commerce.Provider
	base   string
	apiKey string
	hc     *http.Client
}

func (c *client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(mustJSON(body))
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return &commerce.GatewayError{Provider: c.name, Code: "NETWORK_ERROR", Message: err.Error()}
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &commerce.GatewayError{Provider: c.name, Code: "READ_ERROR", Message: err.Error()}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// ambil {code,message} kalau ada, apa adanya untuk diagnostik
		var ge struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		_ = json.Unmarshal(b, &ge)
		if ge.Code == "" {
			ge.Code = fmt.Sprintf("HTTP_%d", resp.StatusCode)
		}
		if ge.Message == "" {
			ge.Message = string(b)
		}
		return &commerce.GatewayError{Provider: c.name, Code: ge.Code, Message: ge.Message}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return &commerce.GatewayError{Provider: c.name, Code: "BAD_RESPONSE", Message: err.Error()}
	}
	return nil
}

func mustJSON(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
