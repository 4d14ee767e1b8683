package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"flyerflix/internal/domain"
	"flyerflix/internal/sqlinline"
)

// Category labels are operator input and show up verbatim in the catalog
// filters, so they are normalized to one casing on write.
var categoryCaser = cases.Title(language.BrazilianPortuguese)

type setPlanRequest struct {
	Plan         string `json:"plan"`
	MaxDownloads *int   `json:"max_downloads"`
	ResetUsage   bool   `json:"reset_usage"`
}

type upsertTemplateRequest struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	ImageURL    string `json:"image_url"`
	Category    string `json:"category"`
	EventType   string `json:"event_type"`
	CanvaURL    string `json:"canva_url"`
	IsPremium   bool   `json:"is_premium"`
	IsNew       bool   `json:"is_new"`
	Description string `json:"description"`
}

func (a *App) StatsSummary(w http.ResponseWriter, r *http.Request) {
	row := a.SQL.QueryRow(r.Context(), sqlinline.QStatsSummary)
	var totalUsers, ultimateUsers, totalTemplates, downloadsToday, downloads24, activeSubs int64
	if err := row.Scan(&totalUsers, &ultimateUsers, &totalTemplates, &downloadsToday, &downloads24, &activeSubs); err != nil {
		a.Logger.Error().Err(err).Msg("load stats failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load stats")
		return
	}

	top, err := a.topTemplates(r, 5)
	if err != nil {
		a.Logger.Error().Err(err).Msg("load top templates failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load stats")
		return
	}

	a.json(w, http.StatusOK, map[string]any{
		"total_users":          totalUsers,
		"ultimate_users":       ultimateUsers,
		"total_templates":      totalTemplates,
		"downloads_today":      downloadsToday,
		"downloads_last_24h":   downloads24,
		"active_subscriptions": activeSubs,
		"top_templates":        top,
	})
}

type topTemplateDTO struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Category   string `json:"category"`
	UsageCount int    `json:"usage_count"`
}

func (a *App) topTemplates(r *http.Request, limit int) ([]topTemplateDTO, error) {
	rows, err := a.SQL.Query(r.Context(), sqlinline.QTopTemplates, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	top := make([]topTemplateDTO, 0, limit)
	for rows.Next() {
		var t topTemplateDTO
		if err := rows.Scan(&t.ID, &t.Title, &t.Category, &t.UsageCount); err != nil {
			return nil, err
		}
		top = append(top, t)
	}
	return top, rows.Err()
}

func (a *App) ListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := clampInt(q.Get("limit"), 50, 200)
	offset := clampInt(q.Get("offset"), 0, 1<<30)

	rows, err := a.SQL.Query(r.Context(), sqlinline.QListUsers, limit, offset)
	if err != nil {
		a.Logger.Error().Err(err).Msg("list users failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load users")
		return
	}
	defer rows.Close()

	type adminUserDTO struct {
		ID             string    `json:"id"`
		Email          string    `json:"email"`
		Name           string    `json:"name"`
		Role           string    `json:"role"`
		Plan           string    `json:"plan"`
		MaxDownloads   int       `json:"max_downloads"`
		DownloadsToday int       `json:"downloads_today"`
		CreatedAt      time.Time `json:"created_at"`
	}
	users := make([]adminUserDTO, 0, limit)
	for rows.Next() {
		var u adminUserDTO
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.Plan, &u.MaxDownloads, &u.DownloadsToday, &u.CreatedAt); err != nil {
			a.Logger.Error().Err(err).Msg("scan user failed")
			a.error(w, http.StatusInternalServerError, "internal", "failed to load users")
			return
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		a.Logger.Error().Err(err).Msg("iterate users failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load users")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"users": users})
}

// SetUserPlan lets an operator override a user's plan and daily quota.
func (a *App) SetUserPlan(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if _, err := uuid.Parse(userID); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid user id")
		return
	}
	var req setPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	plan, err := domain.ParseUserPlan(strings.ToLower(strings.TrimSpace(req.Plan)))
	if err != nil {
		a.error(w, http.StatusBadRequest, "unsupported_plan", "plan must be free or ultimate")
		return
	}
	maxDownloads := domain.DefaultFreeDailyDownloads
	if plan == domain.UserPlanUltimate {
		maxDownloads = 0
	}
	if req.MaxDownloads != nil {
		maxDownloads = *req.MaxDownloads
	}

	u, err := a.Users.SetPlan(r.Context(), userID, plan, maxDownloads, req.ResetUsage)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "user not found")
			return
		}
		a.Logger.Error().Err(err).Msg("set plan failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to update plan")
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"id":              u.ID,
		"email":           u.Email,
		"plan":            string(u.Plan),
		"max_downloads":   u.MaxDownloads,
		"downloads_today": u.DownloadsToday,
	})
}

func (a *App) UpsertTemplate(w http.ResponseWriter, r *http.Request) {
	var req upsertTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Category = categoryCaser.String(strings.ToLower(strings.TrimSpace(req.Category)))
	if req.Title == "" || req.ImageURL == "" || req.Category == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "title, image_url and category are required")
		return
	}
	if req.ID != "" {
		if _, err := uuid.Parse(req.ID); err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "invalid template id")
			return
		}
	}

	row := a.SQL.QueryRow(r.Context(), sqlinline.QUpsertTemplate,
		req.ID, req.Title, req.ImageURL, req.Category, req.EventType,
		req.CanvaURL, req.IsPremium, req.IsNew, req.Description)
	var id string
	if err := row.Scan(&id); err != nil {
		a.Logger.Error().Err(err).Msg("upsert template failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to save template")
		return
	}
	a.json(w, http.StatusOK, map[string]string{"id": id})
}

func (a *App) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid template id")
		return
	}
	tag, err := a.SQL.Exec(r.Context(), sqlinline.QDeleteTemplate, id)
	if err != nil {
		a.Logger.Error().Err(err).Msg("delete template failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to delete template")
		return
	}
	if tag.RowsAffected() == 0 {
		a.error(w, http.StatusNotFound, "not_found", "template not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
