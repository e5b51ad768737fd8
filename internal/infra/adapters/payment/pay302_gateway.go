// File: internal/infra/adapters/payment/pay302_gateway.go
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/302ai/paywith302-demo/internal/domain"
	"github.com/302ai/paywith302-demo/internal/domain/model"
	"github.com/302ai/paywith302-demo/internal/domain/ports/adapter"
	"github.com/302ai/paywith302-demo/internal/infra/metrics"
	"github.com/302ai/paywith302-demo/internal/signing"
)

var _ adapter.PaymentGateway = (*Pay302Gateway)(nil)

// Pay302Gateway implements adapter.PaymentGateway against the 302.AI
// hosted-checkout REST API. Every request body is canonicalized and signed
// before it leaves; the shared secret stays inside the signer.
type Pay302Gateway struct {
	appID     string
	baseURL   string
	notifyURL string
	signer    *signing.Signer
	client    *http.Client
}

func NewPay302Gateway(appID, secret, baseURL, notifyURL string, timeout time.Duration) (*Pay302Gateway, error) {
	if appID == "" {
		return nil, errors.New("app id empty")
	}
	signer, err := signing.NewSigner(secret)
	if err != nil {
		return nil, err
	}
	if baseURL == "" {
		baseURL = "https://api.302.ai/pay"
	}
	if _, err := url.Parse(notifyURL); err != nil {
		return nil, fmt.Errorf("invalid notify url: %w", err)
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Pay302Gateway{
		appID:     appID,
		baseURL:   strings.TrimRight(baseURL, "/"),
		notifyURL: notifyURL,
		signer:    signer,
		client:    &http.Client{Timeout: timeout},
	}, nil
}

func (g *Pay302Gateway) Name() string { return "302ai" }

func (g *Pay302Gateway) endpoint(path string) string {
	return g.baseURL + path
}

// CreateOrder calls /api/v1/order/create and returns the hosted checkout URL.
func (g *Pay302Gateway) CreateOrder(ctx context.Context, o *model.Order, notifyURL string) (*adapter.CreateOrderResult, error) {
	if notifyURL == "" {
		notifyURL = g.notifyURL
	}
	params := signing.Params{
		"app_id":       signing.String(g.appID),
		"out_order_no": signing.String(o.OutOrderNo),
		"amount":       signing.Number(o.Amount),
		"currency":     signing.String(o.Currency),
		"subject":      signing.String(o.Subject),
		"notify_url":   signing.String(notifyURL),
		"timestamp":    signing.Int(time.Now().Unix()),
	}
	sig := g.signer.GenerateSignature(params)
	params["signature"] = signing.String(sig)

	start := time.Now()
	outcome := "transport_error"
	defer func() {
		metrics.ObserveGatewayRequest("create", outcome, time.Since(start).Seconds())
	}()

	var out struct {
		Data struct {
			OrderID string `json:"order_id"`
			PayURL  string `json:"pay_url"`
		} `json:"data"`
	}
	env, err := g.post(ctx, "/api/v1/order/create", params, &out)
	if err != nil {
		return nil, err
	}
	if env.Code != 0 {
		outcome = "rejected"
		return nil, fmt.Errorf("%w: create code %d: %s", domain.ErrGatewayRejected, env.Code, env.Message)
	}
	if out.Data.PayURL == "" {
		outcome = "rejected"
		return nil, fmt.Errorf("%w: create returned no pay_url", domain.ErrGatewayRejected)
	}
	outcome = "ok"
	return &adapter.CreateOrderResult{
		GatewayOrderID: out.Data.OrderID,
		PayURL:         out.Data.PayURL,
		Signature:      sig,
	}, nil
}

// QueryOrder calls /api/v1/order/query and maps the wire payment_status code.
func (g *Pay302Gateway) QueryOrder(ctx context.Context, outOrderNo string) (*adapter.OrderStatus, error) {
	params := signing.Params{
		"app_id":       signing.String(g.appID),
		"out_order_no": signing.String(outOrderNo),
		"timestamp":    signing.Int(time.Now().Unix()),
	}
	params["signature"] = signing.String(g.signer.GenerateSignature(params))

	start := time.Now()
	outcome := "transport_error"
	defer func() {
		metrics.ObserveGatewayRequest("query", outcome, time.Since(start).Seconds())
	}()

	var out struct {
		Data json.RawMessage `json:"data"`
	}
	env, err := g.post(ctx, "/api/v1/order/query", params, &out)
	if err != nil {
		return nil, err
	}
	if env.Code != 0 {
		outcome = "rejected"
		return nil, fmt.Errorf("%w: query code %d: %s", domain.ErrGatewayRejected, env.Code, env.Message)
	}

	// Decode through signing.Params so the amount literal and status code
	// survive exactly as sent.
	fields, err := signing.FromJSONObject(out.Data)
	if err != nil {
		outcome = "rejected"
		return nil, fmt.Errorf("%w: query data: %v", domain.ErrGatewayRejected, err)
	}
	code, ok := fields["payment_status"].AsInt64()
	if !ok {
		outcome = "rejected"
		return nil, fmt.Errorf("%w: query data missing payment_status", domain.ErrGatewayRejected)
	}
	outcome = "ok"
	return &adapter.OrderStatus{
		StatusCode: int(code),
		Status:     model.PaymentStatusFromCode(int(code)),
		PaidAt:     parsePaidAt(fields["paid_at"]),
	}, nil
}

type envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// post sends a signed JSON body and decodes the response envelope, filling
// dataOut with the payload-specific part.
func (g *Pay302Gateway) post(ctx context.Context, path string, params signing.Params, dataOut any) (*envelope, error) {
	body, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint(path), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("gateway http %d", resp.StatusCode)
	}
	var env envelope
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	if dataOut != nil {
		if err := json.Unmarshal(raw, dataOut); err != nil {
			return nil, err
		}
	}
	return &env, nil
}

// parsePaidAt accepts epoch seconds or an RFC3339 string; anything else
// resolves to nil.
func parsePaidAt(v signing.Value) *time.Time {
	if sec, ok := v.AsInt64(); ok && sec > 0 {
		t := time.Unix(sec, 0).UTC()
		return &t
	}
	if s, ok := v.AsString(); ok && s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return &t
		}
	}
	return nil
}
