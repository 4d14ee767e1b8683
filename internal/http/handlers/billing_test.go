package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"flyerflix/internal/billing"
	"flyerflix/internal/domain"
)

func postWebhook(t *testing.T, app *App, payload []byte, signature string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/billing/webhook", bytes.NewReader(payload))
	req.Header.Set("Webhook-Signature", signature)
	rec := httptest.NewRecorder()
	app.BillingWebhook(rec, req)
	return rec
}

func TestBillingWebhookRecordsEvent(t *testing.T) {
	app, _ := newTestApp(t, newFakeSQL())
	repo := newFakeWebhookRepo()
	app.WebhookEvents = repo

	payload := []byte(`{
		"id": "evt_1",
		"type": "checkout.session.completed",
		"data": {"object": {"id": "cs_1", "client_reference_id": "` + testUserID + `", "customer": "cus_1", "subscription": "sub_1"}}
	}`)
	signature := billing.SignPayload(payload, "whsec_test", testClock)

	rec := postWebhook(t, app, payload, signature)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if len(repo.recorded) != 1 {
		t.Fatalf("recorded %d events, want 1", len(repo.recorded))
	}
	event := repo.recorded[0]
	if event.ExternalID != "evt_1" || event.Type != billing.EventCheckoutCompleted {
		t.Fatalf("event = %+v", event)
	}
	if event.CustomerID != "cus_1" || event.UserID != testUserID {
		t.Fatalf("parties = %q/%q", event.CustomerID, event.UserID)
	}
}

func TestBillingWebhookDuplicateIsAcknowledged(t *testing.T) {
	app, _ := newTestApp(t, newFakeSQL())
	repo := newFakeWebhookRepo()
	app.WebhookEvents = repo

	payload := []byte(`{"id":"evt_1","type":"customer.subscription.deleted","data":{"object":{"id":"sub_1","customer":"cus_1"}}}`)
	signature := billing.SignPayload(payload, "whsec_test", testClock)

	first := postWebhook(t, app, payload, signature)
	second := postWebhook(t, app, payload, signature)
	if first.Code != http.StatusOK || second.Code != http.StatusOK {
		t.Fatalf("statuses = %d, %d, want both 200", first.Code, second.Code)
	}
	if len(repo.recorded) != 1 {
		t.Fatalf("recorded %d events, want 1", len(repo.recorded))
	}
}

func TestBillingWebhookRejectsBadSignature(t *testing.T) {
	app, _ := newTestApp(t, newFakeSQL())
	repo := newFakeWebhookRepo()
	app.WebhookEvents = repo

	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{}}}`)
	signature := billing.SignPayload(payload, "whsec_wrong", testClock)

	rec := postWebhook(t, app, payload, signature)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if len(repo.recorded) != 0 {
		t.Fatalf("unsigned event must not be recorded")
	}
}

func TestCreateCheckoutAlreadySubscribed(t *testing.T) {
	app, _ := newTestApp(t, newFakeSQL())
	app.Users = &fakeUserRepo{byID: map[string]*domain.User{
		testUserID: {ID: testUserID, Email: "maria@example.com", Plan: domain.UserPlanUltimate},
	}}

	req := httptest.NewRequest(http.MethodPost, "/v1/billing/checkout", nil)
	req = asUser(req, testUserID)
	rec := httptest.NewRecorder()
	app.CreateCheckout(rec, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestMySubscriptionWithoutRow(t *testing.T) {
	app, _ := newTestApp(t, newFakeSQL())
	app.Users = &fakeUserRepo{byID: map[string]*domain.User{
		testUserID: {ID: testUserID, Email: "maria@example.com", Plan: domain.UserPlanFree, MaxDownloads: 2},
	}}

	req := httptest.NewRequest(http.MethodGet, "/v1/billing/subscription", nil)
	req = asUser(req, testUserID)
	rec := httptest.NewRecorder()
	app.MySubscription(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["plan"] != "free" || resp["max_downloads"] != float64(2) || resp["status"] != "none" {
		t.Fatalf("subscription = %v", resp)
	}
}

func TestCreateCheckoutRequiresAuth(t *testing.T) {
	app, _ := newTestApp(t, newFakeSQL())
	req := httptest.NewRequest(http.MethodPost, "/v1/billing/checkout", nil)
	rec := httptest.NewRecorder()
	app.CreateCheckout(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}
