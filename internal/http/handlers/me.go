package handlers

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"flyerflix/internal/domain"
	"flyerflix/internal/infra"
	"flyerflix/internal/sqlinline"
	"flyerflix/internal/storage"
	"flyerflix/pkg/zip"
)

type updateProfileRequest struct {
	Name        string `json:"name"`
	Locale      string `json:"locale"`
	WelcomeSeen *bool  `json:"welcome_seen"`
}

func (a *App) Me(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	u, err := a.Users.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "user not found")
			return
		}
		a.Logger.Error().Err(err).Msg("load user failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load profile")
		return
	}
	a.json(w, http.StatusOK, a.profileDTO(*u))
}

func (a *App) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	row := a.SQL.QueryRow(r.Context(), sqlinline.QUpdateProfile,
		userID, strings.TrimSpace(req.Name), strings.TrimSpace(req.Locale), req.WelcomeSeen)
	var u domain.User
	if err := row.Scan(
		&u.ID, &u.Email, &u.Name, &u.AvatarURL, &u.Locale,
		&u.Role, &u.Plan, &u.MaxDownloads, &u.DownloadsToday,
		&u.LastDownloadDate, &u.WelcomeSeen,
	); err != nil {
		if infra.IsNoRows(err) {
			a.error(w, http.StatusNotFound, "not_found", "user not found")
			return
		}
		a.Logger.Error().Err(err).Msg("update profile failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to update profile")
		return
	}
	snapshot, _ := json.Marshal(map[string]any{"locale": u.Locale, "welcome_seen": u.WelcomeSeen})
	if err := a.Engagement.CacheProfile(r.Context(), userID, snapshot); err != nil {
		a.Logger.Warn().Err(err).Str("user_id", userID).Msg("cache profile snapshot failed")
	}
	a.json(w, http.StatusOK, a.profileDTO(u))
}

// UploadAvatar accepts a multipart form with an "avatar" file part, stores
// the image and persists the resulting URL on the user row.
func (a *App) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, storage.MaxAvatarBytes+1<<20)
	if err := r.ParseMultipartForm(storage.MaxAvatarBytes); err != nil {
		a.error(w, http.StatusRequestEntityTooLarge, "avatar_too_large", "avatar exceeds 5MB limit")
		return
	}
	file, header, err := r.FormFile("avatar")
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "avatar file part required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, storage.MaxAvatarBytes+1))
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "failed to read avatar")
		return
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	url, err := a.Avatars.UploadAvatar(r.Context(), userID, data, contentType)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrAvatarTooLarge):
			a.error(w, http.StatusRequestEntityTooLarge, "avatar_too_large", "avatar exceeds 5MB limit")
		case errors.Is(err, storage.ErrAvatarUnsupportedMIME):
			a.error(w, http.StatusUnsupportedMediaType, "avatar_unsupported", "avatar must be jpeg, png or webp")
		default:
			a.Logger.Error().Err(err).Msg("store avatar failed")
			a.error(w, http.StatusInternalServerError, "internal", "failed to store avatar")
		}
		return
	}

	row := a.SQL.QueryRow(r.Context(), sqlinline.QUpdateAvatarURL, userID, url)
	var saved string
	if err := row.Scan(&saved); err != nil {
		a.Logger.Error().Err(err).Msg("persist avatar url failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to store avatar")
		return
	}
	a.json(w, http.StatusOK, map[string]string{"avatar_url": saved})
}

func (a *App) MyFavorites(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	ids, err := a.Engagement.Favorites(r.Context(), userID)
	if err != nil {
		a.Logger.Error().Err(err).Msg("load favorites failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load favorites")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"template_ids": ids})
}

// ToggleFavorite flips the favorited state of one template. Responds with
// the resulting state so the client never has to guess.
func (a *App) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	tmpl, ok := a.loadTemplate(w, r)
	if !ok {
		return
	}
	favorited, err := a.Engagement.ToggleFavorite(r.Context(), userID, tmpl)
	if err != nil {
		a.Logger.Error().Err(err).Msg("toggle favorite failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to update favorites")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"template_id": tmpl.ID, "favorited": favorited})
}

func (a *App) MyDownloads(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	downloads, err := a.Engagement.Downloads(r.Context(), userID)
	if err != nil {
		a.Logger.Error().Err(err).Msg("load downloads failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load downloads")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"downloads": downloads})
}

func (a *App) MyHistory(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	history, err := a.Engagement.History(r.Context(), userID)
	if err != nil {
		a.Logger.Error().Err(err).Msg("load history failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load history")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"history": history})
}

// ExportMyData bundles the user's download list and activity history into a
// zip archive with one CSV and one JSON file per list.
func (a *App) ExportMyData(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	downloads, err := a.Engagement.Downloads(r.Context(), userID)
	if err != nil {
		a.Logger.Error().Err(err).Msg("load downloads failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to export data")
		return
	}
	history, err := a.Engagement.History(r.Context(), userID)
	if err != nil {
		a.Logger.Error().Err(err).Msg("load history failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to export data")
		return
	}

	downloadsJSON, _ := json.MarshalIndent(downloads, "", "  ")
	historyJSON, _ := json.MarshalIndent(history, "", "  ")
	archive := zip.ArchiveAssets([]zip.Asset{
		{Filename: "downloads.json", MIME: "application/json", Data: downloadsJSON},
		{Filename: "downloads.csv", MIME: "text/csv", Data: downloadsCSV(downloads)},
		{Filename: "history.json", MIME: "application/json", Data: historyJSON},
	})
	if archive == nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to export data")
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "flyerflix-export.zip"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}

func downloadsCSV(downloads []domain.DownloadRecord) []byte {
	var buf strings.Builder
	cw := csv.NewWriter(&buf)
	_ = cw.Write([]string{"id", "template_id", "template_title", "category", "download_date", "canva_url"})
	for _, d := range downloads {
		_ = cw.Write([]string{d.ID, d.TemplateID, d.TemplateTitle, d.Category, d.DownloadDate, d.CanvaURL})
	}
	cw.Flush()
	return []byte(buf.String())
}
