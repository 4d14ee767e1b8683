// Package credentials keeps third-party API secrets in the database so they
// can be rotated without redeploying. Environment variables win when set;
// this store is the fallback the CLIs write to.
package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"flyerflix/internal/infra"
	"flyerflix/internal/sqlinline"
)

const (
	// ProviderCheckout is the hosted-checkout billing provider API key.
	ProviderCheckout = "checkout"
	// ProviderCheckoutWebhook is the webhook signing secret.
	ProviderCheckoutWebhook = "checkout_webhook"
)

type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

// CheckoutAPIKey returns the stored billing API key, or empty when unset.
func (s *Store) CheckoutAPIKey(ctx context.Context) (string, error) {
	return s.Token(ctx, ProviderCheckout)
}

// WebhookSecret returns the stored webhook signing secret, or empty when unset.
func (s *Store) WebhookSecret(ctx context.Context) (string, error) {
	return s.Token(ctx, ProviderCheckoutWebhook)
}

func (s *Store) Token(ctx context.Context, provider string) (string, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectIntegrationToken, provider)
	var token string
	if err := row.Scan(&token); err != nil {
		if infra.IsNoRows(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(token), nil
}

// SetCheckoutAPIKey stores the billing API key.
func (s *Store) SetCheckoutAPIKey(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("checkout api key is required")
	}
	return s.upsert(ctx, ProviderCheckout, key, nil)
}

// SetWebhookSecret stores the webhook signing secret.
func (s *Store) SetWebhookSecret(ctx context.Context, secret string) error {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return errors.New("webhook secret is required")
	}
	return s.upsert(ctx, ProviderCheckoutWebhook, secret, nil)
}

func (s *Store) upsert(ctx context.Context, provider, token string, props map[string]any) error {
	payload := props
	if payload == nil {
		payload = map[string]any{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = s.sql.Exec(ctx, sqlinline.QUpsertIntegrationToken, provider, token, raw)
	return err
}
