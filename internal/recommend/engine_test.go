package recommend

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"flyerflix/internal/domain"
)

func download(id string, minutesAgo int) domain.DownloadRecord {
	base := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	return domain.DownloadRecord{
		ID:           "dl-" + id,
		TemplateID:   id,
		DownloadDate: base.Add(-time.Duration(minutesAgo) * time.Minute).Format(time.RFC3339),
	}
}

func catalogFixture() []domain.Template {
	return []domain.Template{
		{ID: "1", Category: "aniversario"},
		{ID: "2", Category: "aniversario"},
		{ID: "3", Category: "casamento"},
		{ID: "4", Category: "balada", EventType: "show"},
		{ID: "5", Category: "balada"},
		{ID: "6", Category: "igreja"},
		{ID: "7", EventType: "show"},
	}
}

func TestFromDownloadsEmptyInput(t *testing.T) {
	e := New(rand.NewSource(1))
	if got := e.FromDownloads(nil, catalogFixture()); len(got) != 0 {
		t.Fatalf("FromDownloads(nil) = %d items, want 0", len(got))
	}
	if got := e.FromDownloads([]domain.DownloadRecord{download("1", 0)}, nil); len(got) != 0 {
		t.Fatalf("FromDownloads with empty catalog = %d items, want 0", len(got))
	}
}

func TestFromDownloadsExcludesRecentDownloads(t *testing.T) {
	e := New(rand.NewSource(1))
	downloads := []domain.DownloadRecord{download("1", 0), download("4", 5)}

	got := e.FromDownloads(downloads, catalogFixture())
	if len(got) == 0 {
		t.Fatalf("FromDownloads() = empty, want matches")
	}
	for _, tmpl := range got {
		if tmpl.ID == "1" || tmpl.ID == "4" {
			t.Fatalf("FromDownloads() returned downloaded template %s", tmpl.ID)
		}
	}
}

func TestFromDownloadsMatchesCategoryOrEventType(t *testing.T) {
	e := New(rand.NewSource(1))
	got := e.FromDownloads([]domain.DownloadRecord{download("4", 0)}, catalogFixture())

	want := map[string]bool{"5": true, "7": true} // balada category or show event type
	if len(got) != len(want) {
		t.Fatalf("FromDownloads() = %d items, want %d", len(got), len(want))
	}
	for _, tmpl := range got {
		if !want[tmpl.ID] {
			t.Fatalf("FromDownloads() returned unrelated template %s", tmpl.ID)
		}
	}
}

func TestFromDownloadsOnlyRecentWindowSeedsTags(t *testing.T) {
	e := New(rand.NewSource(1))
	// six downloads, the oldest one ("6", igreja) must fall outside the window
	downloads := []domain.DownloadRecord{
		download("1", 0),
		download("2", 1),
		download("3", 2),
		download("4", 3),
		download("5", 4),
		download("6", 60),
	}
	got := e.FromDownloads(downloads, catalogFixture())
	for _, tmpl := range got {
		if tmpl.Category == "igreja" {
			t.Fatalf("FromDownloads() matched tag from download outside the recent window")
		}
	}
}

func TestFromDownloadsDropsUnresolvedReferences(t *testing.T) {
	e := New(rand.NewSource(1))
	got := e.FromDownloads([]domain.DownloadRecord{download("deleted", 0)}, catalogFixture())
	if len(got) != 0 {
		t.Fatalf("FromDownloads() = %d items for unresolvable download, want 0", len(got))
	}
}

func TestFromDownloadsBounded(t *testing.T) {
	catalog := []domain.Template{{ID: "seed", Category: "festa"}}
	for i := 0; i < 40; i++ {
		catalog = append(catalog, domain.Template{ID: fmt.Sprintf("c-%d", i), Category: "festa"})
	}
	e := New(rand.NewSource(1))
	got := e.FromDownloads([]domain.DownloadRecord{download("seed", 0)}, catalog)
	if len(got) != MaxSuggestions {
		t.Fatalf("FromDownloads() = %d items, want capped at %d", len(got), MaxSuggestions)
	}
}

func TestFromFavoritesSamePattern(t *testing.T) {
	e := New(rand.NewSource(1))
	got := e.FromFavorites([]string{"3"}, catalogFixture())
	if len(got) != 0 {
		// only template 3 carries casamento, and it is excluded
		t.Fatalf("FromFavorites() = %v, want empty", got)
	}

	got = e.FromFavorites([]string{"1"}, catalogFixture())
	if len(got) != 1 || got[0].ID != "2" {
		t.Fatalf("FromFavorites() = %v, want just template 2", got)
	}
}

func TestShuffleDeterministicUnderFixedSeed(t *testing.T) {
	downloads := []domain.DownloadRecord{download("4", 0)}
	first := New(rand.NewSource(42)).FromDownloads(downloads, catalogFixture())
	second := New(rand.NewSource(42)).FromDownloads(downloads, catalogFixture())
	if len(first) != len(second) {
		t.Fatalf("runs differ in length: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatalf("runs diverge at %d: %s vs %s", i, first[i].ID, second[i].ID)
		}
	}
}
