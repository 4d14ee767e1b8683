package handlers

import (
	"errors"
	"net/http"

	"flyerflix/internal/domain"
	"flyerflix/internal/infra"
	"flyerflix/internal/sqlinline"
)

type downloadResponse struct {
	TemplateID         string `json:"template_id"`
	CanvaURL           string `json:"canva_url"`
	RemainingDownloads int    `json:"remaining_downloads"` // -1 means unlimited
}

// DownloadTemplate runs the full download gate for one template: premium
// lock first, then daily quota, then the counter update and engagement
// records. The Canva link is only released when every gate passes.
func (a *App) DownloadTemplate(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	tmpl, ok := a.loadTemplate(w, r)
	if !ok {
		return
	}

	row := a.SQL.QueryRow(r.Context(), sqlinline.QSelectEntitlement, userID)
	ent := domain.Entitlement{}
	if err := row.Scan(&ent.UserID, &ent.Plan, &ent.MaxDownloads, &ent.DownloadsToday, &ent.LastDownloadDate); err != nil {
		if infra.IsNoRows(err) {
			a.error(w, http.StatusNotFound, "not_found", "user not found")
			return
		}
		a.Logger.Error().Err(err).Msg("load entitlement failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to authorize download")
		return
	}

	now := a.now()
	if err := domain.AuthorizeDownload(tmpl, ent, now); err != nil {
		switch {
		case errors.Is(err, domain.ErrPremiumLocked):
			a.json(w, http.StatusForbidden, map[string]any{
				"error": map[string]string{
					"code":    "premium_required",
					"message": "this template requires the ultimate plan",
				},
				"upgrade_price": a.PriceDisplay,
			})
		case errors.Is(err, domain.ErrQuotaExceeded):
			a.json(w, http.StatusTooManyRequests, map[string]any{
				"error": map[string]string{
					"code":    "quota_exceeded",
					"message": "daily download limit reached",
				},
				"upgrade_price": a.PriceDisplay,
			})
		default:
			a.Logger.Error().Err(err).Msg("authorize download failed")
			a.error(w, http.StatusInternalServerError, "internal", "failed to authorize download")
		}
		return
	}

	next := ent.RecordDownload(now)
	if _, err := a.SQL.Exec(r.Context(), sqlinline.QUpdateEntitlement, userID, next.DownloadsToday, next.LastDownloadDate); err != nil {
		a.Logger.Error().Err(err).Msg("persist entitlement failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to record download")
		return
	}
	if _, err := a.SQL.Exec(r.Context(), sqlinline.QInsertDownloadEvent, userID, tmpl.ID); err != nil {
		a.Logger.Error().Err(err).Msg("record download event failed")
	}
	if _, err := a.SQL.Exec(r.Context(), sqlinline.QIncrementTemplateUsage, tmpl.ID); err != nil {
		a.Logger.Error().Err(err).Msg("increment usage failed")
	}
	if err := a.Engagement.RecordDownload(r.Context(), userID, tmpl); err != nil {
		a.Logger.Error().Err(err).Str("user_id", userID).Msg("record engagement download failed")
	}
	if err := a.Engagement.RecordHistory(r.Context(), userID, domain.ActivityDownload, tmpl); err != nil {
		a.Logger.Error().Err(err).Str("user_id", userID).Msg("record download history failed")
	}

	a.json(w, http.StatusOK, downloadResponse{
		TemplateID:         tmpl.ID,
		CanvaURL:           tmpl.CanvaURL,
		RemainingDownloads: next.Remaining(now),
	})
}
