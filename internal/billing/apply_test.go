package billing

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"flyerflix/internal/domain"
	"flyerflix/internal/sqlinline"
)

type applierSQL struct {
	execs      []string
	customerID map[string]string // customer id -> user id
}

func (f *applierSQL) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, query)
	return pgconn.NewCommandTag("INSERT 1"), nil
}

func (f *applierSQL) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	if query == sqlinline.QSelectUserIDByCustomer {
		if userID, ok := f.customerID[args[0].(string)]; ok {
			return applierRow{value: userID}
		}
	}
	return applierRow{}
}

func (f *applierSQL) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	return nil, pgx.ErrNoRows
}

type applierRow struct {
	value string
}

func (r applierRow) Scan(dest ...any) error {
	if r.value == "" {
		return pgx.ErrNoRows
	}
	*(dest[0].(*string)) = r.value
	return nil
}

type planCall struct {
	userID       string
	plan         domain.UserPlan
	maxDownloads int
}

type applierUsers struct {
	calls []planCall
}

func (f *applierUsers) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return nil, domain.ErrNotFound
}

func (f *applierUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return nil, domain.ErrNotFound
}

func (f *applierUsers) SetPlan(ctx context.Context, userID string, plan domain.UserPlan, maxDownloads int, resetUsage bool) (*domain.User, error) {
	f.calls = append(f.calls, planCall{userID: userID, plan: plan, maxDownloads: maxDownloads})
	return &domain.User{ID: userID, Plan: plan, MaxDownloads: maxDownloads}, nil
}

func newTestApplier() (*Applier, *applierSQL, *applierUsers) {
	sql := &applierSQL{customerID: map[string]string{"cus_1": "user-1"}}
	users := &applierUsers{}
	return &Applier{SQL: sql, Users: users, Logger: zerolog.New(io.Discard)}, sql, users
}

func eventWith(t *testing.T, eventType string, object any) *domain.WebhookEvent {
	t.Helper()
	raw, err := json.Marshal(object)
	if err != nil {
		t.Fatalf("marshal object: %v", err)
	}
	payload, err := json.Marshal(map[string]any{
		"id":   "evt_1",
		"type": eventType,
		"data": map[string]any{"object": json.RawMessage(raw)},
	})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return &domain.WebhookEvent{ExternalID: "evt_1", Type: eventType, Payload: payload}
}

func TestApplyCheckoutCompletedUpgradesPlan(t *testing.T) {
	applier, sql, users := newTestApplier()
	event := eventWith(t, EventCheckoutCompleted, map[string]string{
		"id":                  "cs_1",
		"client_reference_id": "user-1",
		"customer":            "cus_1",
		"subscription":        "sub_1",
	})

	if err := applier.Apply(context.Background(), event); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if len(users.calls) != 1 {
		t.Fatalf("SetPlan called %d times, want 1", len(users.calls))
	}
	call := users.calls[0]
	if call.userID != "user-1" || call.plan != domain.UserPlanUltimate || call.maxDownloads != 0 {
		t.Fatalf("SetPlan call = %+v", call)
	}
	if len(sql.execs) != 1 || sql.execs[0] != sqlinline.QUpsertSubscription {
		t.Fatalf("execs = %v", sql.execs)
	}
}

func TestApplyCheckoutCompletedWithoutUserReference(t *testing.T) {
	applier, _, users := newTestApplier()
	event := eventWith(t, EventCheckoutCompleted, map[string]string{"id": "cs_1", "customer": "cus_1"})

	if err := applier.Apply(context.Background(), event); err == nil {
		t.Fatalf("Apply() expected error for missing client_reference_id")
	}
	if len(users.calls) != 0 {
		t.Fatalf("plan must not change on a malformed event")
	}
}

func TestApplySubscriptionDeletedDowngrades(t *testing.T) {
	applier, _, users := newTestApplier()
	event := eventWith(t, EventSubscriptionDeleted, map[string]any{
		"id":       "sub_1",
		"status":   "canceled",
		"customer": "cus_1",
	})

	if err := applier.Apply(context.Background(), event); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if len(users.calls) != 1 {
		t.Fatalf("SetPlan called %d times, want 1", len(users.calls))
	}
	call := users.calls[0]
	if call.plan != domain.UserPlanFree || call.maxDownloads != domain.DefaultFreeDailyDownloads {
		t.Fatalf("SetPlan call = %+v", call)
	}
}

func TestApplySubscriptionUpdatedGraceStateKeepsPlan(t *testing.T) {
	applier, _, users := newTestApplier()
	event := eventWith(t, EventSubscriptionUpdated, map[string]any{
		"id":       "sub_1",
		"status":   "past_due",
		"customer": "cus_1",
	})

	if err := applier.Apply(context.Background(), event); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if len(users.calls) != 0 {
		t.Fatalf("past_due must not change the plan, got %+v", users.calls)
	}
}

func TestApplySubscriptionForUnknownCustomer(t *testing.T) {
	applier, _, _ := newTestApplier()
	event := eventWith(t, EventSubscriptionDeleted, map[string]any{
		"id":       "sub_9",
		"status":   "canceled",
		"customer": "cus_unknown",
	})

	if err := applier.Apply(context.Background(), event); err == nil {
		t.Fatalf("Apply() expected error for unknown customer")
	}
}

func TestApplyIgnoresUnknownEventType(t *testing.T) {
	applier, sql, users := newTestApplier()
	event := eventWith(t, "customer.created", map[string]string{"id": "cus_2"})

	if err := applier.Apply(context.Background(), event); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if len(users.calls) != 0 || len(sql.execs) != 0 {
		t.Fatalf("unknown event must be a no-op")
	}
}
