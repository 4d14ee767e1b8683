package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"flyerflix/internal/billing"
	"flyerflix/internal/domain"
	"flyerflix/internal/infra"
	"flyerflix/internal/sqlinline"
)

const maxWebhookBody = 1 << 20

// CreateCheckout opens a hosted checkout session for the ultimate plan.
func (a *App) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	u, err := a.Users.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "user not found")
			return
		}
		a.Logger.Error().Err(err).Msg("load user failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to start checkout")
		return
	}
	if u.Plan == domain.UserPlanUltimate {
		a.error(w, http.StatusConflict, "already_subscribed", "account already has the ultimate plan")
		return
	}

	session, err := a.Billing.CreateCheckoutSession(r.Context(), billing.CheckoutRequest{
		UserID: u.ID,
		Email:  u.Email,
	})
	if err != nil {
		a.Logger.Error().Err(err).Msg("create checkout session failed")
		a.error(w, http.StatusBadGateway, "billing_unavailable", "failed to start checkout")
		return
	}
	a.json(w, http.StatusOK, map[string]string{
		"checkout_url": session.URL,
		"session_id":   session.ID,
		"price":        a.PriceDisplay,
	})
}

// MySubscription reports the caller's plan and quota together with the
// stored subscription state.
func (a *App) MySubscription(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	u, err := a.Users.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "user not found")
			return
		}
		a.Logger.Error().Err(err).Msg("load user failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load subscription")
		return
	}

	row := a.SQL.QueryRow(r.Context(), sqlinline.QSelectSubscriptionByUser, userID)
	var sub struct {
		CustomerID       string
		SubscriptionID   string
		Status           string
		CurrentPeriodEnd *string
	}
	if err := row.Scan(&sub.CustomerID, &sub.SubscriptionID, &sub.Status, &sub.CurrentPeriodEnd); err != nil {
		if infra.IsNoRows(err) {
			a.json(w, http.StatusOK, map[string]any{
				"plan":          u.Plan,
				"max_downloads": u.MaxDownloads,
				"status":        "none",
				"price":         a.PriceDisplay,
			})
			return
		}
		a.Logger.Error().Err(err).Msg("load subscription failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load subscription")
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"plan":               u.Plan,
		"max_downloads":      u.MaxDownloads,
		"status":             sub.Status,
		"subscription_id":    sub.SubscriptionID,
		"current_period_end": sub.CurrentPeriodEnd,
		"price":              a.PriceDisplay,
	})
}

// CancelSubscription flags the provider subscription to lapse at period end.
// The plan downgrade itself lands later through the webhook.
func (a *App) CancelSubscription(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	row := a.SQL.QueryRow(r.Context(), sqlinline.QSelectSubscriptionByUser, userID)
	var customerID, subscriptionID, status string
	var periodEnd *string
	if err := row.Scan(&customerID, &subscriptionID, &status, &periodEnd); err != nil {
		if infra.IsNoRows(err) {
			a.error(w, http.StatusNotFound, "not_found", "no subscription to cancel")
			return
		}
		a.Logger.Error().Err(err).Msg("load subscription failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to cancel subscription")
		return
	}

	sub, err := a.Billing.CancelAtPeriodEnd(r.Context(), subscriptionID)
	if err != nil {
		a.Logger.Error().Err(err).Msg("cancel subscription failed")
		a.error(w, http.StatusBadGateway, "billing_unavailable", "failed to cancel subscription")
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"status":             sub.Status,
		"cancel_at_end":      sub.CancelAtEnd,
		"current_period_end": sub.CurrentPeriodEnd,
	})
}

// BillingWebhook verifies and records provider notifications. It only
// enqueues; plan changes are applied by the worker.
func (a *App) BillingWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "failed to read payload")
		return
	}
	signature := r.Header.Get("Webhook-Signature")
	if signature == "" {
		signature = r.Header.Get("Stripe-Signature")
	}
	if err := billing.VerifySignature(payload, signature, a.WebhookSecret, a.now()); err != nil {
		a.Logger.Warn().Err(err).Msg("webhook signature rejected")
		a.error(w, http.StatusBadRequest, "invalid_signature", "webhook signature verification failed")
		return
	}

	event, err := billing.ParseEvent(payload)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "malformed webhook event")
		return
	}

	customerID, userID := eventParties(event)
	_, err = a.WebhookEvents.Record(r.Context(), &domain.WebhookEvent{
		ExternalID: event.ID,
		Type:       event.Type,
		CustomerID: customerID,
		UserID:     userID,
		Payload:    payload,
	})
	if err != nil && !errors.Is(err, domain.ErrDuplicateOperation) {
		a.Logger.Error().Err(err).Str("event_id", event.ID).Msg("record webhook event failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to record event")
		return
	}
	a.json(w, http.StatusOK, map[string]string{"received": event.ID})
}

// eventParties extracts the customer and user references carried by the
// event payload, when present.
func eventParties(event *billing.Event) (customerID, userID string) {
	switch event.Type {
	case billing.EventCheckoutCompleted:
		var object billing.CheckoutObject
		if err := json.Unmarshal(event.Data.Object, &object); err == nil {
			return object.Customer, object.ClientReferenceID
		}
	case billing.EventSubscriptionCreated, billing.EventSubscriptionUpdated, billing.EventSubscriptionDeleted:
		var object billing.SubscriptionObject
		if err := json.Unmarshal(event.Data.Object, &object); err == nil {
			return object.Customer, ""
		}
	case billing.EventInvoicePaymentFail:
		var object billing.InvoiceObject
		if err := json.Unmarshal(event.Data.Object, &object); err == nil {
			return object.Customer, ""
		}
	}
	return "", ""
}
