package domain

import "time"

// UserRole enumerates supported roles.
type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

// UserPlan enumerates subscription tiers.
type UserPlan string

const (
	UserPlanFree     UserPlan = "free"
	UserPlanUltimate UserPlan = "ultimate"
)

// DefaultFreeDailyDownloads is the daily download allowance granted to free
// accounts at signup.
const DefaultFreeDailyDownloads = 2

// ParseUserPlan validates operator or API input against the known tiers.
func ParseUserPlan(s string) (UserPlan, error) {
	switch plan := UserPlan(s); plan {
	case UserPlanFree, UserPlanUltimate:
		return plan, nil
	default:
		return "", ErrUnsupportedPlan
	}
}

// User represents an authenticated account within the platform.
type User struct {
	ID               string
	GoogleSub        string
	Email            string
	Name             string
	AvatarURL        string
	Locale           string
	PasswordHash     string // empty for Google-only accounts
	Role             UserRole
	Plan             UserPlan
	MaxDownloads     int // <= 0 means unlimited
	DownloadsToday   int
	LastDownloadDate string // calendar date, YYYY-MM-DD, empty when never downloaded
	WelcomeSeen      bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsFree reports whether the user is on the free plan.
func (u User) IsFree() bool {
	return u.Plan == UserPlanFree
}

// IsAdmin reports whether the user may access the back office.
func (u User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

// Entitlement derives the download entitlement carried by the user row.
func (u User) Entitlement() Entitlement {
	return Entitlement{
		UserID:           u.ID,
		Plan:             u.Plan,
		MaxDownloads:     u.MaxDownloads,
		DownloadsToday:   u.DownloadsToday,
		LastDownloadDate: u.LastDownloadDate,
	}
}
