package billing

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestVerifySignatureRoundTrip(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	header := SignPayload(payload, "whsec_test", now)

	if err := VerifySignature(payload, header, "whsec_test", now); err != nil {
		t.Fatalf("VerifySignature() error: %v", err)
	}
}

func TestVerifySignatureRejectsTamperedPayload(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	header := SignPayload([]byte(`{"id":"evt_1"}`), "whsec_test", now)

	err := VerifySignature([]byte(`{"id":"evt_2"}`), header, "whsec_test", now)
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("VerifySignature() = %v, want ErrInvalidSignature", err)
	}
}

func TestVerifySignatureRejectsWrongSecret(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	header := SignPayload(payload, "whsec_test", now)

	if err := VerifySignature(payload, header, "whsec_other", now); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("VerifySignature() = %v, want ErrInvalidSignature", err)
	}
}

func TestVerifySignatureRejectsStaleTimestamp(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	signedAt := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	header := SignPayload(payload, "whsec_test", signedAt)

	err := VerifySignature(payload, header, "whsec_test", signedAt.Add(10*time.Minute))
	if !errors.Is(err, ErrStaleSignature) {
		t.Fatalf("VerifySignature() = %v, want ErrStaleSignature", err)
	}
}

func TestVerifySignatureRejectsFutureTimestamp(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	header := SignPayload(payload, "whsec_test", now.Add(time.Hour))

	err := VerifySignature(payload, header, "whsec_test", now)
	if !errors.Is(err, ErrStaleSignature) {
		t.Fatalf("VerifySignature() = %v, want ErrStaleSignature", err)
	}
}

func TestVerifySignatureRejectsMalformedHeader(t *testing.T) {
	for _, header := range []string{"", "t=abc,v1=00", "v1=00", "t=1700000000"} {
		if err := VerifySignature([]byte("{}"), header, "whsec_test", time.Now()); err == nil {
			t.Fatalf("VerifySignature(%q) accepted malformed header", header)
		}
	}
}

func TestParseEvent(t *testing.T) {
	payload := []byte(`{
		"id": "evt_1",
		"type": "checkout.session.completed",
		"data": {"object": {"id": "cs_1", "client_reference_id": "user-1", "customer": "cus_1", "subscription": "sub_1"}}
	}`)

	event, err := ParseEvent(payload)
	if err != nil {
		t.Fatalf("ParseEvent() error: %v", err)
	}
	if event.Type != EventCheckoutCompleted {
		t.Fatalf("event type = %q", event.Type)
	}

	var object CheckoutObject
	if err := json.Unmarshal(event.Data.Object, &object); err != nil {
		t.Fatalf("decode checkout object: %v", err)
	}
	if object.ClientReferenceID != "user-1" || object.Subscription != "sub_1" {
		t.Fatalf("checkout object = %+v", object)
	}
}

func TestParseEventRejectsMissingFields(t *testing.T) {
	if _, err := ParseEvent([]byte(`{"id":"evt_1"}`)); err == nil {
		t.Fatalf("ParseEvent() accepted event without type")
	}
	if _, err := ParseEvent([]byte(`not json`)); err == nil {
		t.Fatalf("ParseEvent() accepted invalid json")
	}
}
