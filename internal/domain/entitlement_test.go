package domain

import (
	"errors"
	"testing"
	"time"
)

var testNow = time.Date(2025, 3, 14, 15, 0, 0, 0, time.UTC)

func TestCanDownloadFreePlan(t *testing.T) {
	today := testNow.Format(DateLayout)
	tests := []struct {
		name string
		ent  Entitlement
		want bool
	}{
		{
			name: "under quota",
			ent:  Entitlement{Plan: UserPlanFree, MaxDownloads: 2, DownloadsToday: 1, LastDownloadDate: today},
			want: true,
		},
		{
			name: "quota exhausted",
			ent:  Entitlement{Plan: UserPlanFree, MaxDownloads: 2, DownloadsToday: 2, LastDownloadDate: today},
			want: false,
		},
		{
			name: "never downloaded",
			ent:  Entitlement{Plan: UserPlanFree, MaxDownloads: 2},
			want: true,
		},
		{
			name: "counter from previous day resets",
			ent:  Entitlement{Plan: UserPlanFree, MaxDownloads: 2, DownloadsToday: 2, LastDownloadDate: "2025-03-13"},
			want: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.ent.CanDownload(testNow); got != tc.want {
				t.Fatalf("CanDownload() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCanDownloadUltimateIgnoresCounter(t *testing.T) {
	for _, used := range []int{0, 2, 500} {
		ent := Entitlement{Plan: UserPlanUltimate, MaxDownloads: 2, DownloadsToday: used, LastDownloadDate: testNow.Format(DateLayout)}
		if !ent.CanDownload(testNow) {
			t.Fatalf("CanDownload() = false for ultimate with %d used, want true", used)
		}
	}
}

func TestRecordDownloadFreePlanScenario(t *testing.T) {
	ent := Entitlement{Plan: UserPlanFree, MaxDownloads: 2, DownloadsToday: 1, LastDownloadDate: testNow.Format(DateLayout)}
	if !ent.CanDownload(testNow) {
		t.Fatalf("CanDownload() = false with 1/2 used, want true")
	}
	next := ent.RecordDownload(testNow)
	if next.DownloadsToday != 2 {
		t.Fatalf("RecordDownload() downloads = %d, want 2", next.DownloadsToday)
	}
	if next.CanDownload(testNow) {
		t.Fatalf("CanDownload() = true after exhausting quota, want false")
	}
	if ent.DownloadsToday != 1 {
		t.Fatalf("RecordDownload() mutated receiver: %d", ent.DownloadsToday)
	}
}

func TestRecordDownloadResetsOnNewDay(t *testing.T) {
	ent := Entitlement{Plan: UserPlanFree, MaxDownloads: 2, DownloadsToday: 2, LastDownloadDate: "2025-03-13"}
	next := ent.RecordDownload(testNow)
	if next.DownloadsToday != 1 {
		t.Fatalf("RecordDownload() downloads = %d, want counter reset then incremented to 1", next.DownloadsToday)
	}
	if next.LastDownloadDate != testNow.Format(DateLayout) {
		t.Fatalf("RecordDownload() date = %q, want %q", next.LastDownloadDate, testNow.Format(DateLayout))
	}
}

func TestRecordDownloadUltimateUnchanged(t *testing.T) {
	ent := Entitlement{Plan: UserPlanUltimate, DownloadsToday: 7, LastDownloadDate: "2025-01-01"}
	if next := ent.RecordDownload(testNow); next != ent {
		t.Fatalf("RecordDownload() changed ultimate entitlement: %+v", next)
	}
}

func TestAuthorizeDownload(t *testing.T) {
	today := testNow.Format(DateLayout)
	premium := Template{ID: "t1", IsPremium: true}
	regular := Template{ID: "t2"}

	tests := []struct {
		name    string
		tmpl    Template
		ent     Entitlement
		wantErr error
	}{
		{
			name:    "premium locked for free users",
			tmpl:    premium,
			ent:     Entitlement{Plan: UserPlanFree, MaxDownloads: 2},
			wantErr: ErrPremiumLocked,
		},
		{
			name: "premium lock checked before quota",
			tmpl: premium,
			ent:  Entitlement{Plan: UserPlanFree, MaxDownloads: 2, DownloadsToday: 2, LastDownloadDate: today},
			// quota is also exhausted, but the premium message wins
			wantErr: ErrPremiumLocked,
		},
		{
			name:    "quota exhausted",
			tmpl:    regular,
			ent:     Entitlement{Plan: UserPlanFree, MaxDownloads: 2, DownloadsToday: 2, LastDownloadDate: today},
			wantErr: ErrQuotaExceeded,
		},
		{
			name: "ultimate downloads premium",
			tmpl: premium,
			ent:  Entitlement{Plan: UserPlanUltimate},
		},
		{
			name: "free downloads regular under quota",
			tmpl: regular,
			ent:  Entitlement{Plan: UserPlanFree, MaxDownloads: 2, DownloadsToday: 1, LastDownloadDate: today},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := AuthorizeDownload(tc.tmpl, tc.ent, testNow)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("AuthorizeDownload() = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestRemaining(t *testing.T) {
	today := testNow.Format(DateLayout)
	if got := (Entitlement{Plan: UserPlanUltimate}).Remaining(testNow); got != -1 {
		t.Fatalf("Remaining() = %d for ultimate, want -1", got)
	}
	if got := (Entitlement{Plan: UserPlanFree, MaxDownloads: 2, DownloadsToday: 1, LastDownloadDate: today}).Remaining(testNow); got != 1 {
		t.Fatalf("Remaining() = %d, want 1", got)
	}
	if got := (Entitlement{Plan: UserPlanFree, MaxDownloads: 2, DownloadsToday: 2, LastDownloadDate: "2025-03-13"}).Remaining(testNow); got != 2 {
		t.Fatalf("Remaining() = %d after day change, want 2", got)
	}
}
