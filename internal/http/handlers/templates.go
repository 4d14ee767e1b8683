package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"flyerflix/internal/domain"
	"flyerflix/internal/infra"
	"flyerflix/internal/sqlinline"
)

const (
	defaultPageSize = 24
	maxPageSize     = 100
)

type templateDTO struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	ImageURL    string `json:"image_url"`
	Category    string `json:"category"`
	EventType   string `json:"event_type,omitempty"`
	IsPremium   bool   `json:"is_premium"`
	IsNew       bool   `json:"is_new"`
	UsageCount  int    `json:"usage_count"`
	Description string `json:"description,omitempty"`
}

func templateToDTO(t domain.Template) templateDTO {
	return templateDTO{
		ID:          t.ID,
		Title:       t.Title,
		ImageURL:    t.ImageURL,
		Category:    t.Category,
		EventType:   t.EventType,
		IsPremium:   t.IsPremium,
		IsNew:       t.IsNew,
		UsageCount:  t.UsageCount,
		Description: t.Description,
	}
}

// ListTemplates serves the catalog with optional category, event type and
// title search filters. The CanvaURL never leaves the server here; it is
// only released by the download flow.
func (a *App) ListTemplates(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	category := strings.TrimSpace(q.Get("category"))
	eventType := strings.TrimSpace(q.Get("event_type"))
	search := strings.TrimSpace(q.Get("search"))
	sort := q.Get("sort")
	if sort != "popular" && sort != "new" {
		sort = ""
	}
	limit := clampInt(q.Get("limit"), defaultPageSize, maxPageSize)
	offset := clampInt(q.Get("offset"), 0, 1<<30)

	rows, err := a.SQL.Query(r.Context(), sqlinline.QListTemplates,
		category, eventType, search, sort, limit, offset)
	if err != nil {
		a.Logger.Error().Err(err).Msg("list templates failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load templates")
		return
	}
	defer rows.Close()

	templates := make([]templateDTO, 0, limit)
	for rows.Next() {
		var t domain.Template
		if err := rows.Scan(
			&t.ID, &t.Title, &t.ImageURL, &t.Category, &t.EventType, &t.CanvaURL,
			&t.IsPremium, &t.IsNew, &t.UsageCount, &t.Description,
			&t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			a.Logger.Error().Err(err).Msg("scan template failed")
			a.error(w, http.StatusInternalServerError, "internal", "failed to load templates")
			return
		}
		templates = append(templates, templateToDTO(t))
	}
	if err := rows.Err(); err != nil {
		a.Logger.Error().Err(err).Msg("iterate templates failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load templates")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"templates": templates})
}

func (a *App) GetTemplate(w http.ResponseWriter, r *http.Request) {
	tmpl, ok := a.loadTemplate(w, r)
	if !ok {
		return
	}
	a.json(w, http.StatusOK, templateToDTO(tmpl))
}

// RecordTemplateView logs a view into the user's activity history.
func (a *App) RecordTemplateView(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	tmpl, ok := a.loadTemplate(w, r)
	if !ok {
		return
	}
	if err := a.Engagement.RecordHistory(r.Context(), userID, domain.ActivityView, tmpl); err != nil {
		a.Logger.Error().Err(err).Msg("record view failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to record view")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// loadTemplate resolves the {id} route parameter to a catalog row, writing
// the error response itself when the id is bad or unknown.
func (a *App) loadTemplate(w http.ResponseWriter, r *http.Request) (domain.Template, bool) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid template id")
		return domain.Template{}, false
	}
	row := a.SQL.QueryRow(r.Context(), sqlinline.QSelectTemplateByID, id)
	var t domain.Template
	if err := row.Scan(
		&t.ID, &t.Title, &t.ImageURL, &t.Category, &t.EventType, &t.CanvaURL,
		&t.IsPremium, &t.IsNew, &t.UsageCount, &t.Description,
		&t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		if infra.IsNoRows(err) {
			a.error(w, http.StatusNotFound, "not_found", "template not found")
			return domain.Template{}, false
		}
		a.Logger.Error().Err(err).Msg("load template failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load template")
		return domain.Template{}, false
	}
	return t, true
}

func clampInt(raw string, fallback, max int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	if n > max {
		return max
	}
	return n
}
