package repo

import (
	"context"

	"flyerflix/internal/domain"
	"flyerflix/internal/infra"
	"flyerflix/internal/sqlinline"
)

// WebhookEventRepositoryPG implements domain.WebhookEventRepository over
// PostgreSQL.
type WebhookEventRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewWebhookEventRepository creates a webhook event repository backed by
// PostgreSQL.
func NewWebhookEventRepository(sql infra.SQLExecutor) *WebhookEventRepositoryPG {
	return &WebhookEventRepositoryPG{sql: sql}
}

// Record stores a received event. Duplicate external ids are ignored and
// return an empty id, so provider retries never enqueue twice.
func (r *WebhookEventRepositoryPG) Record(ctx context.Context, event *domain.WebhookEvent) (string, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QInsertWebhookEvent,
		event.ExternalID,
		event.Type,
		event.CustomerID,
		event.UserID,
		event.Payload,
	)
	var id string
	if err := row.Scan(&id); err != nil {
		if infra.IsNoRows(err) {
			return "", domain.ErrDuplicateOperation
		}
		return "", err
	}
	return id, nil
}

// NextPending claims the oldest unapplied event, flipping it to PROCESSING
// in the same statement so concurrent workers never apply it twice. Returns
// ErrNotFound when the queue is empty.
func (r *WebhookEventRepositoryPG) NextPending(ctx context.Context) (*domain.WebhookEvent, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QNextPendingWebhookEvent)
	var event domain.WebhookEvent
	if err := row.Scan(
		&event.ID,
		&event.ExternalID,
		&event.Type,
		&event.CustomerID,
		&event.UserID,
		&event.Payload,
		&event.Status,
		&event.CreatedAt,
		&event.UpdatedAt,
	); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &event, nil
}

// MarkProcessed finalizes a successfully applied event.
func (r *WebhookEventRepositoryPG) MarkProcessed(ctx context.Context, id string) error {
	_, err := r.sql.Exec(ctx, sqlinline.QMarkWebhookProcessed, id)
	return err
}

// MarkFailed records the failure reason so the event can be inspected.
func (r *WebhookEventRepositoryPG) MarkFailed(ctx context.Context, id string, reason string) error {
	_, err := r.sql.Exec(ctx, sqlinline.QMarkWebhookFailed, id, reason)
	return err
}

var _ domain.WebhookEventRepository = (*WebhookEventRepositoryPG)(nil)
