package domain

import "time"

// Template is a catalog item. Catalog rows are reference data as far as the
// entitlement and engagement logic is concerned; only usage_count is touched
// by the download flow.
type Template struct {
	ID          string
	Title       string
	ImageURL    string
	Category    string
	EventType   string
	CanvaURL    string
	IsPremium   bool
	IsNew       bool
	UsageCount  int
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Tags returns the non-empty classification tags used by the recommendation
// heuristic.
func (t Template) Tags() []string {
	tags := make([]string, 0, 2)
	if t.Category != "" {
		tags = append(tags, t.Category)
	}
	if t.EventType != "" {
		tags = append(tags, t.EventType)
	}
	return tags
}
