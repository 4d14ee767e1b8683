package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"flyerflix/internal/billing"
	"flyerflix/internal/domain"
	"flyerflix/internal/engagement"
	"flyerflix/internal/infra"
	"flyerflix/internal/middleware"
	"flyerflix/internal/recommend"
	"flyerflix/internal/storage"
)

// GoogleVerifier validates a Google ID token and returns its claims.
type GoogleVerifier interface {
	VerifyIDToken(ctx context.Context, token string) (map[string]any, error)
}

// App bundles the dependencies shared by all HTTP handlers.
type App struct {
	SQL            infra.SQLExecutor
	Logger         infra.Logger
	JWTSecret      string
	GoogleVerifier GoogleVerifier
	Engagement     *engagement.Store
	Recommend      *recommend.Engine
	Avatars        storage.AvatarStore
	Billing        *billing.Client
	Users          domain.UserRepository
	WebhookEvents  domain.WebhookEventRepository

	WebhookSecret string
	PriceDisplay  string

	// QuotaLoc is the timezone whose calendar date drives the daily quota
	// reset. Defaults to UTC when unset.
	QuotaLoc *time.Location

	// Now is injectable for tests. Defaults to time.Now.
	Now func() time.Time
}

func (a *App) now() time.Time {
	base := time.Now()
	if a.Now != nil {
		base = a.Now()
	}
	if a.QuotaLoc != nil {
		return base.In(a.QuotaLoc)
	}
	return base.UTC()
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, slug, message string) {
	a.json(w, code, map[string]any{
		"error": map[string]string{
			"code":    slug,
			"message": message,
		},
	})
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}
