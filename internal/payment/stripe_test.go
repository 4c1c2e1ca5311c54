package payment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testParams() SessionParams {
	return SessionParams{
		Reference: "ord-1",
		LineItems: []LineItem{
			{Name: "Headphones", UnitPrice: decimal.RequireFromString("49.99"), Quantity: 2},
			{Name: "Keyboard", UnitPrice: decimal.RequireFromString("89.00"), Quantity: 1},
		},
	}
}

func TestCreateCheckoutSession_Success(t *testing.T) {
	var gotPath, gotAuth, gotContentType string
	var gotForm map[string][]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, r.ParseForm())
		gotForm = r.PostForm

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cs_test_1","url":"https://checkout.stripe.com/pay/cs_test_1"}`))
	}))
	defer srv.Close()

	gw := NewStripeGateway(StripeConfig{
		APIKey:     "sk_test_abc",
		Currency:   "usd",
		SuccessURL: "https://shop.example.com/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  "https://shop.example.com/cart",
		BaseURL:    srv.URL,
	})

	session, err := gw.CreateCheckoutSession(context.Background(), testParams())

	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", session.ID)
	assert.Equal(t, "https://checkout.stripe.com/pay/cs_test_1", session.URL)

	assert.Equal(t, "/v1/checkout/sessions", gotPath)
	assert.Equal(t, "Bearer sk_test_abc", gotAuth)
	assert.Equal(t, "application/x-www-form-urlencoded", gotContentType)

	assert.Equal(t, "payment", gotForm["mode"][0])
	assert.Equal(t, "card", gotForm["payment_method_types[0]"][0])
	assert.Equal(t, "ord-1", gotForm["client_reference_id"][0])
	assert.Equal(t, "Headphones", gotForm["line_items[0][price_data][product_data][name]"][0])
	assert.Equal(t, "4999", gotForm["line_items[0][price_data][unit_amount]"][0])
	assert.Equal(t, "2", gotForm["line_items[0][quantity]"][0])
	assert.Equal(t, "8900", gotForm["line_items[1][price_data][unit_amount]"][0])
	assert.Equal(t, "usd", gotForm["line_items[1][price_data][currency]"][0])
}

func TestCreateCheckoutSession_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"error":{"message":"Your card was declined"}}`))
	}))
	defer srv.Close()

	gw := NewStripeGateway(StripeConfig{APIKey: "sk_test_abc", BaseURL: srv.URL})

	_, err := gw.CreateCheckoutSession(context.Background(), testParams())

	require.ErrorIs(t, err, ErrGateway)
	assert.Contains(t, err.Error(), "status 402")
	assert.Contains(t, err.Error(), "declined")
}

func TestCreateCheckoutSession_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // connection refused

	gw := NewStripeGateway(StripeConfig{APIKey: "sk_test_abc", BaseURL: srv.URL})

	_, err := gw.CreateCheckoutSession(context.Background(), testParams())
	require.ErrorIs(t, err, ErrGateway)
}

func TestCreateCheckoutSession_UndecodableBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	gw := NewStripeGateway(StripeConfig{APIKey: "sk_test_abc", BaseURL: srv.URL})

	_, err := gw.CreateCheckoutSession(context.Background(), testParams())
	require.ErrorIs(t, err, ErrGateway)
}

func TestCreateCheckoutSession_MissingSessionFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id":"cs_1"}`))
	}))
	defer srv.Close()

	gw := NewStripeGateway(StripeConfig{APIKey: "sk_test_abc", BaseURL: srv.URL})

	_, err := gw.CreateCheckoutSession(context.Background(), testParams())
	require.ErrorIs(t, err, ErrGateway)
	assert.Contains(t, err.Error(), "missing session id or url")
}

func TestCreateCheckoutSession_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id":"cs_1","url":"https://x"}`))
	}))
	defer srv.Close()

	gw := NewStripeGateway(StripeConfig{APIKey: "sk_test_abc", BaseURL: srv.URL})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := gw.CreateCheckoutSession(ctx, testParams())
	require.Error(t, err)
}

func TestMinorUnits(t *testing.T) {
	tests := []struct {
		price string
		want  int64
	}{
		{"49.99", 4999},
		{"0.01", 1},
		{"100", 10000},
		{"19.999", 2000},
		{"0", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, minorUnits(decimal.RequireFromString(tt.price)), "price %s", tt.price)
	}
}
