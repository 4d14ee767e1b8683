package domain

import "time"

// DateLayout is the storage format for LastDownloadDate.
const DateLayout = "2006-01-02"

// Entitlement is the combination of plan and quota usage that decides whether
// a download may proceed. The daily counter resets lazily: nothing rewrites
// the row at midnight, instead both CanDownload and RecordDownload treat the
// counter as zero when the stored date is not today's calendar date. All
// download paths must go through these two operations so the reset rule
// cannot be bypassed.
type Entitlement struct {
	UserID           string
	Plan             UserPlan
	MaxDownloads     int // <= 0 means unlimited
	DownloadsToday   int
	LastDownloadDate string // YYYY-MM-DD, empty when never downloaded
}

// Unlimited reports whether quota accounting applies at all.
func (e Entitlement) Unlimited() bool {
	return e.Plan == UserPlanUltimate || e.MaxDownloads <= 0
}

// effectiveDownloads applies the lazy daily reset for the given instant.
func (e Entitlement) effectiveDownloads(now time.Time) int {
	if e.LastDownloadDate != now.Format(DateLayout) {
		return 0
	}
	return e.DownloadsToday
}

// CanDownload reports whether a further download is permitted at the given
// instant. Pure predicate, no side effects. The caller decides which clock
// and timezone "now" carries; the calendar date is taken from it directly.
func (e Entitlement) CanDownload(now time.Time) bool {
	if e.Unlimited() {
		return true
	}
	return e.effectiveDownloads(now) < e.MaxDownloads
}

// Remaining returns the downloads left today, or -1 when unlimited.
func (e Entitlement) Remaining(now time.Time) int {
	if e.Unlimited() {
		return -1
	}
	left := e.MaxDownloads - e.effectiveDownloads(now)
	if left < 0 {
		left = 0
	}
	return left
}

// RecordDownload returns a copy with the reset applied and the counter
// advanced. Ultimate entitlements pass through unchanged since nothing is
// counted for them. Persisting the result is the caller's job.
func (e Entitlement) RecordDownload(now time.Time) Entitlement {
	if e.Plan == UserPlanUltimate {
		return e
	}
	next := e
	next.DownloadsToday = e.effectiveDownloads(now) + 1
	next.LastDownloadDate = now.Format(DateLayout)
	return next
}

// AuthorizeDownload runs the full gate for one template: the premium lock is
// checked before quota, so a locked template is rejected even when quota
// remains. Both rejections are business-rule refusals surfaced to the user,
// never internal failures.
func AuthorizeDownload(tmpl Template, ent Entitlement, now time.Time) error {
	if tmpl.IsPremium && ent.Plan != UserPlanUltimate {
		return ErrPremiumLocked
	}
	if !ent.CanDownload(now) {
		return ErrQuotaExceeded
	}
	return nil
}
