// Package payment talks to the external payment-preference provider. A
// preference describes what is being purchased and where to redirect the
// buyer; the provider answers with an identifier and both production and
// sandbox redirect URLs.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"petshop-service/config"
	"petshop-service/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Item is one purchasable line submitted to the provider.
type Item struct {
	Title      string          `json:"title"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	CurrencyID string          `json:"currency_id"`
}

// Payer identifies the buyer.
type Payer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// BackURLs are the storefront pages the provider redirects back to.
type BackURLs struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
	Pending string `json:"pending"`
}

// PreferenceRequest is the provider's creation payload. ExternalReference
// carries the order ID so the payment session can be linked back to it.
type PreferenceRequest struct {
	Items             []Item   `json:"items"`
	Payer             Payer    `json:"payer"`
	ExternalReference string   `json:"external_reference"`
	BackURLs          BackURLs `json:"back_urls"`
	NotificationURL   string   `json:"notification_url,omitempty"`
	AutoReturn        string   `json:"auto_return,omitempty"`
}

// Preference is the provider's answer.
type Preference struct {
	ID               string      `json:"id"`
	CollectorID      json.Number `json:"collector_id"`
	ClientID         string      `json:"client_id"`
	OperationType    string      `json:"operation_type"`
	InitPoint        string      `json:"init_point"`
	SandboxInitPoint string      `json:"sandbox_init_point"`
}

// RedirectURL picks the environment-appropriate payment page.
func (p *Preference) RedirectURL(sandbox bool) string {
	if sandbox {
		return p.SandboxInitPoint
	}
	return p.InitPoint
}

// Client is the HTTP client for the preference endpoint.
type Client struct {
	cfg    config.PaymentConfig
	http   *http.Client
	logger *zap.Logger
}

// NewClient creates a provider client from configuration.
func NewClient(cfg config.PaymentConfig) *Client {
	return &Client{
		cfg: cfg,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: util.GetLogger(),
	}
}

// CreatePreference registers a preference with the provider and returns its
// identifiers and redirect URLs.
func (c *Client) CreatePreference(ctx context.Context, req *PreferenceRequest) (*Preference, error) {
	ctx, span := util.StartSpan(ctx, "payment.CreatePreference")
	defer span.End()

	util.PreferenceRequestsTotal.Inc()
	start := time.Now()
	defer func() {
		util.PreferenceLatency.Observe(time.Since(start).Seconds())
	}()

	if req.NotificationURL == "" {
		req.NotificationURL = c.cfg.WebhookURL
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal preference request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/checkout/preferences", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		util.PreferenceFailedTotal.Inc()
		return nil, fmt.Errorf("preference request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		util.PreferenceFailedTotal.Inc()
		return nil, fmt.Errorf("preference request rejected: status %d", resp.StatusCode)
	}

	var pref Preference
	if err := json.NewDecoder(resp.Body).Decode(&pref); err != nil {
		util.PreferenceFailedTotal.Inc()
		return nil, fmt.Errorf("failed to decode preference response: %w", err)
	}

	if pref.ID == "" || pref.RedirectURL(c.cfg.Sandbox) == "" {
		util.PreferenceFailedTotal.Inc()
		return nil, fmt.Errorf("preference response missing id or redirect URL")
	}

	c.logger.Info("Payment preference created",
		zap.String("preference_id", pref.ID),
		zap.String("external_reference", req.ExternalReference))

	return &pref, nil
}
