package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"flyerflix/internal/domain"
	"flyerflix/internal/infra"
	"flyerflix/internal/middleware"
	"flyerflix/internal/sqlinline"
)

const tokenTTL = 7 * 24 * time.Hour

type googleVerifyRequest struct {
	IDToken string `json:"id_token"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string         `json:"token"`
	User  userProfileDTO `json:"user"`
}

type userProfileDTO struct {
	ID                 string `json:"id"`
	Email              string `json:"email"`
	Name               string `json:"name"`
	AvatarURL          string `json:"avatar_url"`
	Locale             string `json:"locale"`
	Role               string `json:"role"`
	Plan               string `json:"plan"`
	MaxDownloads       int    `json:"max_downloads"`
	DownloadsToday     int    `json:"downloads_today"`
	RemainingDownloads int    `json:"remaining_downloads"` // -1 means unlimited
	WelcomeSeen        bool   `json:"welcome_seen"`
}

func (a *App) profileDTO(u domain.User) userProfileDTO {
	return userProfileDTO{
		ID:                 u.ID,
		Email:              u.Email,
		Name:               u.Name,
		AvatarURL:          u.AvatarURL,
		Locale:             u.Locale,
		Role:               string(u.Role),
		Plan:               string(u.Plan),
		MaxDownloads:       u.MaxDownloads,
		DownloadsToday:     u.DownloadsToday,
		RemainingDownloads: u.Entitlement().Remaining(a.now()),
		WelcomeSeen:        u.WelcomeSeen,
	}
}

func (a *App) signToken(u domain.User) (string, error) {
	return middleware.SignJWT(a.JWTSecret, middleware.TokenClaims{
		Sub:      u.ID,
		Plan:     string(u.Plan),
		Role:     string(u.Role),
		Locale:   u.Locale,
		Exp:      a.now().Add(tokenTTL).Unix(),
		Issuer:   "flyerflix",
		Audience: "flyerflix-clients",
	})
}

func (a *App) AuthGoogleVerify(w http.ResponseWriter, r *http.Request) {
	var req googleVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.IDToken == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "id_token required")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()
	claims, err := a.GoogleVerifier.VerifyIDToken(ctx, req.IDToken)
	if err != nil {
		a.Logger.Error().Err(err).Msg("google verify failed")
		a.error(w, http.StatusUnauthorized, "unauthorized", "invalid google token")
		return
	}
	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	picture, _ := claims["picture"].(string)
	locale, _ := claims["locale"].(string)
	if locale == "" {
		locale = middleware.LocaleFromContext(r.Context())
	}
	if email == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "google token missing email")
		return
	}

	row := a.SQL.QueryRow(r.Context(), sqlinline.QUpsertGoogleUser, sub, email, name, picture, locale)
	var u domain.User
	if err := row.Scan(
		&u.ID, &u.Email, &u.Name, &u.AvatarURL, &u.Locale,
		&u.Role, &u.Plan, &u.MaxDownloads, &u.DownloadsToday,
		&u.LastDownloadDate, &u.WelcomeSeen,
	); err != nil {
		a.Logger.Error().Err(err).Msg("upsert google user failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to persist user")
		return
	}

	token, err := a.signToken(u)
	if err != nil {
		a.Logger.Error().Err(err).Msg("sign jwt failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to sign token")
		return
	}
	a.json(w, http.StatusOK, authResponse{Token: token, User: a.profileDTO(u)})
}

func (a *App) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		a.error(w, http.StatusBadRequest, "bad_request", "valid email required")
		return
	}
	if len(req.Password) < 8 {
		a.error(w, http.StatusBadRequest, "bad_request", "password must be at least 8 characters")
		return
	}
	if req.Name == "" {
		req.Name = strings.SplitN(req.Email, "@", 2)[0]
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		a.Logger.Error().Err(err).Msg("hash password failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to create account")
		return
	}

	locale := middleware.LocaleFromContext(r.Context())
	userID, err := a.insertEmailUser(r.Context(), req.Email, req.Name, string(hash), locale)
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			a.error(w, http.StatusConflict, "email_taken", "an account with this email already exists")
			return
		}
		a.Logger.Error().Err(err).Msg("insert user failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to create account")
		return
	}

	u := domain.User{
		ID:           userID,
		Email:        req.Email,
		Name:         req.Name,
		Locale:       locale,
		Role:         domain.UserRoleUser,
		Plan:         domain.UserPlanFree,
		MaxDownloads: domain.DefaultFreeDailyDownloads,
	}
	token, err := a.signToken(u)
	if err != nil {
		a.Logger.Error().Err(err).Msg("sign jwt failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to sign token")
		return
	}
	a.json(w, http.StatusCreated, authResponse{Token: token, User: a.profileDTO(u)})
}

// insertEmailUser stores a fresh email account, mapping the insert's
// conflict arm to domain.ErrEmailTaken.
func (a *App) insertEmailUser(ctx context.Context, email, name, passwordHash, locale string) (string, error) {
	row := a.SQL.QueryRow(ctx, sqlinline.QInsertEmailUser, email, name, passwordHash, locale)
	var userID string
	if err := row.Scan(&userID); err != nil {
		if infra.IsNoRows(err) {
			return "", domain.ErrEmailTaken
		}
		return "", err
	}
	return userID, nil
}

// authenticate resolves an email/password pair to a user, returning
// domain.ErrInvalidCredentials for unknown emails, Google-only accounts and
// wrong passwords alike.
func (a *App) authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	u, err := a.Users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if u.PasswordHash == "" {
		// Google-only account, no password set.
		return nil, domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return u, nil
}

func (a *App) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	u, err := a.authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			a.error(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
			return
		}
		a.Logger.Error().Err(err).Msg("load user failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to sign in")
		return
	}

	token, err := a.signToken(*u)
	if err != nil {
		a.Logger.Error().Err(err).Msg("sign jwt failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to sign token")
		return
	}
	a.json(w, http.StatusOK, authResponse{Token: token, User: a.profileDTO(*u)})
}

// SignOut drops the user's engagement cache. Tokens are stateless, so the
// client discards its copy; the server's job is only to clear cached state.
func (a *App) SignOut(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	if err := a.Engagement.ClearUser(r.Context(), userID); err != nil {
		a.Logger.Error().Err(err).Str("user_id", userID).Msg("clear engagement failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to sign out")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
