// Package recommend derives "you may also like" style template lists from a
// user's engagement signals. Pure in-memory filtering and sampling; nothing
// here touches storage.
package recommend

import (
	"math/rand"
	"sort"
	"time"

	"flyerflix/internal/domain"
)

const (
	// RecentWindow is how many of the latest downloads seed the tag set.
	RecentWindow = 5
	// MaxSuggestions bounds any suggestion list.
	MaxSuggestions = 10
)

// Engine samples suggestions with an injectable random source so tests can
// pin the shuffle. A nil source falls back to a time-seeded one.
type Engine struct {
	rng *rand.Rand
}

// New builds an Engine over the given source.
func New(src rand.Source) *Engine {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &Engine{rng: rand.New(src)}
}

// FromDownloads builds the "you may also like" list: tags of the most recent
// downloads matched against the catalog, minus the downloads themselves.
// An empty download list yields an empty result, not an error.
func (e *Engine) FromDownloads(downloads []domain.DownloadRecord, catalog []domain.Template) []domain.Template {
	if len(downloads) == 0 || len(catalog) == 0 {
		return nil
	}

	recent := make([]domain.DownloadRecord, len(downloads))
	copy(recent, downloads)
	sort.SliceStable(recent, func(i, j int) bool {
		return parseWhen(recent[i].DownloadDate).After(parseWhen(recent[j].DownloadDate))
	})
	if len(recent) > RecentWindow {
		recent = recent[:RecentWindow]
	}

	byID := indexCatalog(catalog)
	exclude := make(map[string]struct{}, len(recent))
	tags := make(map[string]struct{})
	for _, rec := range recent {
		exclude[rec.TemplateID] = struct{}{}
		tmpl, ok := byID[rec.TemplateID]
		if !ok {
			// stale reference, catalog item was removed
			continue
		}
		for _, tag := range tmpl.Tags() {
			tags[tag] = struct{}{}
		}
	}

	return e.sample(catalog, tags, exclude)
}

// FromFavorites builds the "personalized" list: the same filter and sample
// pattern keyed off favorited-template tags instead of downloads.
func (e *Engine) FromFavorites(favoriteIDs []string, catalog []domain.Template) []domain.Template {
	if len(favoriteIDs) == 0 || len(catalog) == 0 {
		return nil
	}

	byID := indexCatalog(catalog)
	exclude := make(map[string]struct{}, len(favoriteIDs))
	tags := make(map[string]struct{})
	for _, id := range favoriteIDs {
		exclude[id] = struct{}{}
		tmpl, ok := byID[id]
		if !ok {
			continue
		}
		for _, tag := range tmpl.Tags() {
			tags[tag] = struct{}{}
		}
	}

	return e.sample(catalog, tags, exclude)
}

func (e *Engine) sample(catalog []domain.Template, tags map[string]struct{}, exclude map[string]struct{}) []domain.Template {
	if len(tags) == 0 {
		return nil
	}
	var matches []domain.Template
	for _, tmpl := range catalog {
		if _, skip := exclude[tmpl.ID]; skip {
			continue
		}
		for _, tag := range tmpl.Tags() {
			if _, ok := tags[tag]; ok {
				matches = append(matches, tmpl)
				break
			}
		}
	}
	e.rng.Shuffle(len(matches), func(i, j int) {
		matches[i], matches[j] = matches[j], matches[i]
	})
	if len(matches) > MaxSuggestions {
		matches = matches[:MaxSuggestions]
	}
	return matches
}

func indexCatalog(catalog []domain.Template) map[string]domain.Template {
	byID := make(map[string]domain.Template, len(catalog))
	for _, tmpl := range catalog {
		byID[tmpl.ID] = tmpl
	}
	return byID
}

func parseWhen(stamp string) time.Time {
	t, err := time.Parse(time.RFC3339, stamp)
	if err != nil {
		return time.Time{}
	}
	return t
}
