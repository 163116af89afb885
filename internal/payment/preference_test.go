package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"petshop-service/config"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRequest() *PreferenceRequest {
	return &PreferenceRequest{
		Items: []Item{
			{Title: "dog food", Quantity: 2, UnitPrice: decimal.NewFromInt(1000), CurrencyID: "ARS"},
		},
		Payer:             Payer{Name: "Ana", Email: "ana@example.com"},
		ExternalReference: "101",
		BackURLs: BackURLs{
			Success: "https://shop.example/payment/success",
			Failure: "https://shop.example/payment/failure",
			Pending: "https://shop.example/payment/pending",
		},
	}
}

func newTestClient(baseURL string) *Client {
	return NewClient(config.PaymentConfig{
		BaseURL:     baseURL,
		AccessToken: "test-token",
		Currency:    "ARS",
		Sandbox:     true,
	})
}

func TestCreatePreference(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/checkout/preferences", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		var req PreferenceRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "101", req.ExternalReference)
		require.Len(t, req.Items, 1)
		assert.Equal(t, "dog food", req.Items[0].Title)

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":                 "pref-123",
			"collector_id":       55001,
			"client_id":          "client-9",
			"operation_type":     "regular_payment",
			"init_point":         "https://pay.example/init",
			"sandbox_init_point": "https://sandbox.pay.example/init",
		})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)

	pref, err := client.CreatePreference(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Equal(t, "pref-123", pref.ID)
	assert.Equal(t, "55001", pref.CollectorID.String())
	assert.Equal(t, "https://sandbox.pay.example/init", pref.RedirectURL(true))
	assert.Equal(t, "https://pay.example/init", pref.RedirectURL(false))
}

func TestCreatePreferenceRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)

	_, err := client.CreatePreference(context.Background(), testRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestCreatePreferenceMissingRedirect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{"id": "pref-123"})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)

	_, err := client.CreatePreference(context.Background(), testRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redirect")
}

func TestCreatePreferenceUnreachable(t *testing.T) {
	client := newTestClient("http://127.0.0.1:1")

	_, err := client.CreatePreference(context.Background(), testRequest())
	require.Error(t, err)
}
