package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const defaultStripeBaseURL = "https://api.stripe.com"

// StripeConfig configures the Stripe hosted-checkout client.
type StripeConfig struct {
	// APIKey is the secret key used as the Bearer credential.
	APIKey string
	// Currency is the ISO currency code for all line items, e.g. "usd".
	Currency string
	// SuccessURL receives the customer after payment; Stripe substitutes
	// {CHECKOUT_SESSION_ID} into it.
	SuccessURL string
	// CancelURL receives the customer when they abandon checkout.
	CancelURL string
	// BaseURL overrides the Stripe API endpoint. Tests point it at a local
	// server; empty means the real API.
	BaseURL string
}

// StripeGateway implements Gateway against the Stripe Checkout Sessions API.
type StripeGateway struct {
	cfg        StripeConfig
	httpClient *http.Client
}

var _ Gateway = (*StripeGateway)(nil)

// NewStripeGateway returns a StripeGateway with a 15 second request timeout.
func NewStripeGateway(cfg StripeConfig) *StripeGateway {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultStripeBaseURL
	}
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	return &StripeGateway{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// CreateCheckoutSession opens a hosted checkout session for the given line
// items and returns its id and redirect URL. Any transport error, non-2xx
// status, or undecodable body is wrapped in ErrGateway.
func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, params SessionParams) (*Session, error) {
	lg := zctx.From(ctx).With(
		zap.String("reference", params.Reference),
		zap.Int("line_items", len(params.LineItems)),
	)

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("payment_method_types[0]", "card")
	form.Set("success_url", g.cfg.SuccessURL)
	form.Set("cancel_url", g.cfg.CancelURL)
	form.Set("client_reference_id", params.Reference)
	for i, item := range params.LineItems {
		prefix := fmt.Sprintf("line_items[%d]", i)
		form.Set(prefix+"[price_data][currency]", g.cfg.Currency)
		form.Set(prefix+"[price_data][product_data][name]", item.Name)
		form.Set(prefix+"[price_data][unit_amount]", strconv.FormatInt(minorUnits(item.UnitPrice), 10))
		form.Set(prefix+"[quantity]", strconv.Itoa(item.Quantity))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.cfg.BaseURL+"/v1/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		lg.Error("Stripe request failed", zap.Error(err))
		return nil, errors.Wrapf(ErrGateway, "create checkout session: %s", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(ErrGateway, "read response: %s", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		lg.Error("Stripe returned non-success status",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", body),
		)
		return nil, errors.Wrapf(ErrGateway, "status %d: %s", resp.StatusCode, body)
	}

	var decoded struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, errors.Wrapf(ErrGateway, "decode response: %s", err)
	}
	if decoded.ID == "" || decoded.URL == "" {
		return nil, errors.Wrap(ErrGateway, "response missing session id or url")
	}

	lg.Info("Stripe checkout session created", zap.String("session_id", decoded.ID))
	return &Session{ID: decoded.ID, URL: decoded.URL}, nil
}

// minorUnits converts a major-unit decimal price to the smallest currency
// unit Stripe expects (cents for two-decimal currencies).
func minorUnits(price decimal.Decimal) int64 {
	return price.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
