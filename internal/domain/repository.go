package domain

import (
	"context"
	"time"
)

// UserRepository defines access methods for users.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	SetPlan(ctx context.Context, userID string, plan UserPlan, maxDownloads int, resetUsage bool) (*User, error)
}

// WebhookEvent is a recorded billing-provider notification awaiting
// application. The webhook handler only records; the worker applies.
type WebhookEvent struct {
	ID         string
	ExternalID string
	Type       string
	CustomerID string
	UserID     string
	Payload    []byte
	Status     string
	Error      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Webhook event processing states.
const (
	WebhookStatusReceived  = "RECEIVED"
	WebhookStatusProcessed = "PROCESSED"
	WebhookStatusFailed    = "FAILED"
)

// WebhookEventRepository persists billing notifications for the worker.
type WebhookEventRepository interface {
	Record(ctx context.Context, event *WebhookEvent) (string, error)
	NextPending(ctx context.Context) (*WebhookEvent, error)
	MarkProcessed(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, reason string) error
}
