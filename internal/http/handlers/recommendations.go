package handlers

import (
	"net/http"

	"flyerflix/internal/domain"
	"flyerflix/internal/sqlinline"
)

// AlsoLike suggests templates matching the tags of the user's recent
// downloads. Users with no signal get an empty list, never an error.
func (a *App) AlsoLike(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	catalog, err := a.loadCatalog(r)
	if err != nil {
		a.Logger.Error().Err(err).Msg("load catalog failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load recommendations")
		return
	}
	downloads, err := a.Engagement.Downloads(r.Context(), userID)
	if err != nil {
		a.Logger.Error().Err(err).Msg("load downloads failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load recommendations")
		return
	}
	a.writeRecommendations(w, a.Recommend.FromDownloads(downloads, catalog))
}

// Personalized suggests templates matching the tags of the user's favorites.
func (a *App) Personalized(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	catalog, err := a.loadCatalog(r)
	if err != nil {
		a.Logger.Error().Err(err).Msg("load catalog failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load recommendations")
		return
	}
	favorites, err := a.Engagement.Favorites(r.Context(), userID)
	if err != nil {
		a.Logger.Error().Err(err).Msg("load favorites failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load recommendations")
		return
	}
	a.writeRecommendations(w, a.Recommend.FromFavorites(favorites, catalog))
}

func (a *App) writeRecommendations(w http.ResponseWriter, picks []domain.Template) {
	out := make([]templateDTO, 0, len(picks))
	for _, t := range picks {
		out = append(out, templateToDTO(t))
	}
	a.json(w, http.StatusOK, map[string]any{"templates": out})
}

func (a *App) loadCatalog(r *http.Request) ([]domain.Template, error) {
	rows, err := a.SQL.Query(r.Context(), sqlinline.QSelectCatalog)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var catalog []domain.Template
	for rows.Next() {
		var t domain.Template
		if err := rows.Scan(
			&t.ID, &t.Title, &t.ImageURL, &t.Category, &t.EventType, &t.CanvaURL,
			&t.IsPremium, &t.IsNew, &t.UsageCount,
		); err != nil {
			return nil, err
		}
		catalog = append(catalog, t)
	}
	return catalog, rows.Err()
}
