package repo

import (
	"context"

	"flyerflix/internal/domain"
	"flyerflix/internal/infra"
	"flyerflix/internal/sqlinline"
)

// UserRepositoryPG implements domain.UserRepository over PostgreSQL.
type UserRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewUserRepository creates a user repository backed by PostgreSQL.
func NewUserRepository(sql infra.SQLExecutor) *UserRepositoryPG {
	return &UserRepositoryPG{sql: sql}
}

// GetByID fetches a user by its identifier.
func (r *UserRepositoryPG) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectUserByID, id)
	var u domain.User
	if err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&u.AvatarURL,
		&u.Locale,
		&u.Role,
		&u.Plan,
		&u.MaxDownloads,
		&u.DownloadsToday,
		&u.LastDownloadDate,
		&u.WelcomeSeen,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetByEmail fetches a user by email, case-insensitively.
func (r *UserRepositoryPG) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectUserByEmail, email)
	var u domain.User
	var passwordHash string
	if err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&passwordHash,
		&u.AvatarURL,
		&u.Locale,
		&u.Role,
		&u.Plan,
		&u.MaxDownloads,
		&u.DownloadsToday,
		&u.LastDownloadDate,
		&u.WelcomeSeen,
	); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	u.PasswordHash = passwordHash
	return &u, nil
}

// SetPlan switches a user's plan and quota, optionally resetting today's
// usage counter.
func (r *UserRepositoryPG) SetPlan(ctx context.Context, userID string, plan domain.UserPlan, maxDownloads int, resetUsage bool) (*domain.User, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSetUserPlan, userID, string(plan), maxDownloads, resetUsage)
	var u domain.User
	if err := row.Scan(&u.ID, &u.Email, &u.Plan, &u.MaxDownloads, &u.DownloadsToday); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

var _ domain.UserRepository = (*UserRepositoryPG)(nil)
