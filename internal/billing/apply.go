package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"flyerflix/internal/domain"
	"flyerflix/internal/infra"
	"flyerflix/internal/sqlinline"
)

// Applier turns recorded webhook events into plan changes. It runs in the
// worker, never in the webhook handler.
type Applier struct {
	SQL    infra.SQLExecutor
	Users  domain.UserRepository
	Logger infra.Logger
}

// Apply executes the plan change for one event. Unknown event types are a
// no-op so new provider events never poison the queue.
func (a *Applier) Apply(ctx context.Context, event *domain.WebhookEvent) error {
	parsed, err := ParseEvent(event.Payload)
	if err != nil {
		return err
	}
	switch parsed.Type {
	case EventCheckoutCompleted:
		return a.applyCheckoutCompleted(ctx, parsed)
	case EventSubscriptionCreated, EventSubscriptionUpdated:
		return a.applySubscriptionUpdated(ctx, parsed)
	case EventSubscriptionDeleted:
		return a.applySubscriptionDeleted(ctx, parsed)
	case EventInvoicePaymentFail:
		return a.applyInvoiceFailed(ctx, parsed)
	default:
		a.Logger.Info().Str("event_type", parsed.Type).Msg("billing: ignoring unhandled event type")
		return nil
	}
}

func (a *Applier) applyCheckoutCompleted(ctx context.Context, event *Event) error {
	var object CheckoutObject
	if err := json.Unmarshal(event.Data.Object, &object); err != nil {
		return fmt.Errorf("billing: decode checkout object: %w", err)
	}
	if object.ClientReferenceID == "" {
		return errors.New("billing: checkout session missing client_reference_id")
	}

	if _, err := a.SQL.Exec(ctx, sqlinline.QUpsertSubscription,
		object.ClientReferenceID, object.Customer, object.Subscription, "active", nil); err != nil {
		return fmt.Errorf("billing: store subscription: %w", err)
	}
	if _, err := a.Users.SetPlan(ctx, object.ClientReferenceID, domain.UserPlanUltimate, 0, false); err != nil {
		return fmt.Errorf("billing: upgrade plan: %w", err)
	}
	a.Logger.Info().
		Str("user_id", object.ClientReferenceID).
		Str("customer_id", object.Customer).
		Msg("billing: checkout completed, plan upgraded")
	return nil
}

func (a *Applier) applySubscriptionUpdated(ctx context.Context, event *Event) error {
	object, userID, err := a.subscriptionParties(ctx, event)
	if err != nil {
		return err
	}

	var periodEnd any
	if object.CurrentPeriodEnd > 0 {
		periodEnd = time.Unix(object.CurrentPeriodEnd, 0).UTC()
	}
	if _, err := a.SQL.Exec(ctx, sqlinline.QUpsertSubscription,
		userID, object.Customer, object.ID, object.Status, periodEnd); err != nil {
		return fmt.Errorf("billing: store subscription: %w", err)
	}

	switch object.Status {
	case "active", "trialing":
		_, err = a.Users.SetPlan(ctx, userID, domain.UserPlanUltimate, 0, false)
	case "canceled", "unpaid", "incomplete_expired":
		_, err = a.Users.SetPlan(ctx, userID, domain.UserPlanFree, domain.DefaultFreeDailyDownloads, false)
	default:
		// past_due and friends keep the current plan until the provider
		// settles the subscription one way or the other.
		a.Logger.Info().Str("status", object.Status).Str("user_id", userID).Msg("billing: subscription in grace state")
		return nil
	}
	if err != nil {
		return fmt.Errorf("billing: adjust plan: %w", err)
	}
	return nil
}

func (a *Applier) applySubscriptionDeleted(ctx context.Context, event *Event) error {
	object, userID, err := a.subscriptionParties(ctx, event)
	if err != nil {
		return err
	}
	if _, err := a.SQL.Exec(ctx, sqlinline.QUpsertSubscription,
		userID, object.Customer, object.ID, "canceled", nil); err != nil {
		return fmt.Errorf("billing: store subscription: %w", err)
	}
	if _, err := a.Users.SetPlan(ctx, userID, domain.UserPlanFree, domain.DefaultFreeDailyDownloads, false); err != nil {
		return fmt.Errorf("billing: downgrade plan: %w", err)
	}
	a.Logger.Info().Str("user_id", userID).Msg("billing: subscription ended, plan downgraded")
	return nil
}

func (a *Applier) applyInvoiceFailed(ctx context.Context, event *Event) error {
	var object InvoiceObject
	if err := json.Unmarshal(event.Data.Object, &object); err != nil {
		return fmt.Errorf("billing: decode invoice object: %w", err)
	}
	// Payment failures alone never cut access; the subscription events carry
	// the authoritative status. This is logged for the operators.
	a.Logger.Warn().
		Str("customer_id", object.Customer).
		Str("invoice_id", object.ID).
		Msg("billing: invoice payment failed")
	return nil
}

func (a *Applier) subscriptionParties(ctx context.Context, event *Event) (SubscriptionObject, string, error) {
	var object SubscriptionObject
	if err := json.Unmarshal(event.Data.Object, &object); err != nil {
		return object, "", fmt.Errorf("billing: decode subscription object: %w", err)
	}
	if object.Customer == "" {
		return object, "", errors.New("billing: subscription event missing customer")
	}
	row := a.SQL.QueryRow(ctx, sqlinline.QSelectUserIDByCustomer, object.Customer)
	var userID string
	if err := row.Scan(&userID); err != nil {
		if infra.IsNoRows(err) {
			return object, "", fmt.Errorf("billing: no user for customer %s", object.Customer)
		}
		return object, "", err
	}
	return object, userID, nil
}
