package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"flyerflix/internal/infra"
)

// ErrMissingAPIKey indicates that the client was configured without credentials.
var ErrMissingAPIKey = errors.New("billing: api key is required")

// Options configures the checkout provider client.
type Options struct {
	APIKey         string
	BaseURL        string
	PriceID        string
	SuccessURL     string
	CancelURL      string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Client performs HTTP calls to the Stripe-compatible checkout API.
type Client struct {
	apiKey     string
	baseURL    string
	priceID    string
	successURL string
	cancelURL  string
	httpClient *http.Client
	logger     *infra.Logger
}

// CheckoutRequest captures the inputs for a hosted checkout session.
type CheckoutRequest struct {
	UserID string
	Email  string
}

// CheckoutSession is the normalized result from the provider.
type CheckoutSession struct {
	ID         string
	URL        string
	CustomerID string
}

// Subscription is the provider's view of a customer subscription.
type Subscription struct {
	ID               string
	Status           string
	CustomerID       string
	CurrentPeriodEnd time.Time
	CancelAtEnd      bool
}

type sessionResponse struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	Customer string `json:"customer"`
}

type subscriptionList struct {
	Data []subscriptionResponse `json:"data"`
}

type subscriptionResponse struct {
	ID                string `json:"id"`
	Status            string `json:"status"`
	Customer          string `json:"customer"`
	CurrentPeriodEnd  int64  `json:"current_period_end"`
	CancelAtPeriodEnd bool   `json:"cancel_at_period_end"`
}

type errorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) (*Client, error) {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 20 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.stripe.com/v1"
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		priceID:    strings.TrimSpace(opts.PriceID),
		successURL: opts.SuccessURL,
		cancelURL:  opts.CancelURL,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// HasCredentials reports whether the client can perform remote calls.
func (c *Client) HasCredentials() bool {
	return c.apiKey != ""
}

// CreateCheckoutSession opens a hosted subscription checkout for the user.
// The user id travels in client_reference_id so the webhook can map the
// completed session back to an account.
func (c *Client) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	if !c.HasCredentials() {
		return nil, ErrMissingAPIKey
	}
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return nil, errors.New("billing: user id is required")
	}
	if c.priceID == "" {
		return nil, errors.New("billing: price id is required")
	}

	form := url.Values{}
	form.Set("mode", "subscription")
	form.Set("line_items[0][price]", c.priceID)
	form.Set("line_items[0][quantity]", "1")
	form.Set("client_reference_id", userID)
	form.Set("success_url", c.successURL)
	form.Set("cancel_url", c.cancelURL)
	if email := strings.TrimSpace(req.Email); email != "" {
		form.Set("customer_email", email)
	}

	var decoded sessionResponse
	if err := c.post(ctx, "/checkout/sessions", form, &decoded); err != nil {
		return nil, err
	}
	if decoded.URL == "" {
		return nil, errors.New("billing: empty checkout url")
	}
	c.logger.Debug().
		Str("session_id", decoded.ID).
		Str("user_id", userID).
		Msg("billing: checkout session created")
	return &CheckoutSession{ID: decoded.ID, URL: decoded.URL, CustomerID: decoded.Customer}, nil
}

// ActiveSubscription returns the customer's current subscription, or nil when
// none is active.
func (c *Client) ActiveSubscription(ctx context.Context, customerID string) (*Subscription, error) {
	if !c.HasCredentials() {
		return nil, ErrMissingAPIKey
	}
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return nil, errors.New("billing: customer id is required")
	}

	query := url.Values{}
	query.Set("customer", customerID)
	query.Set("status", "active")
	query.Set("limit", "1")

	var decoded subscriptionList
	if err := c.get(ctx, "/subscriptions?"+query.Encode(), &decoded); err != nil {
		return nil, err
	}
	if len(decoded.Data) == 0 {
		return nil, nil
	}
	sub := decoded.Data[0]
	return &Subscription{
		ID:               sub.ID,
		Status:           sub.Status,
		CustomerID:       sub.Customer,
		CurrentPeriodEnd: time.Unix(sub.CurrentPeriodEnd, 0).UTC(),
		CancelAtEnd:      sub.CancelAtPeriodEnd,
	}, nil
}

// CancelAtPeriodEnd flags the subscription to lapse at the end of the paid
// period instead of cutting access immediately.
func (c *Client) CancelAtPeriodEnd(ctx context.Context, subscriptionID string) (*Subscription, error) {
	if !c.HasCredentials() {
		return nil, ErrMissingAPIKey
	}
	subscriptionID = strings.TrimSpace(subscriptionID)
	if subscriptionID == "" {
		return nil, errors.New("billing: subscription id is required")
	}

	form := url.Values{}
	form.Set("cancel_at_period_end", "true")

	var decoded subscriptionResponse
	if err := c.post(ctx, "/subscriptions/"+subscriptionID, form, &decoded); err != nil {
		return nil, err
	}
	return &Subscription{
		ID:               decoded.ID,
		Status:           decoded.Status,
		CustomerID:       decoded.Customer,
		CurrentPeriodEnd: time.Unix(decoded.CurrentPeriodEnd, 0).UTC(),
		CancelAtEnd:      decoded.CancelAtPeriodEnd,
	}, nil
}

func (c *Client) post(ctx context.Context, path string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("billing: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("billing: build request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("billing: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("billing: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		var detail errorResponse
		if err := json.Unmarshal(raw, &detail); err == nil && detail.Error.Message != "" {
			return fmt.Errorf("billing: %s (%s)", detail.Error.Message, detail.Error.Type)
		}
		return fmt.Errorf("billing: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("billing: decode response: %w", err)
	}
	return nil
}
