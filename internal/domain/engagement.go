package domain

// ActivityType classifies entries in the activity history.
type ActivityType string

const (
	ActivityDownload ActivityType = "download"
	ActivityView     ActivityType = "view"
	ActivityFavorite ActivityType = "favorite"
)

// HistoryLimit caps the activity history per user. Entries past the cap are
// silently dropped from the tail. The downloads list is not capped.
const HistoryLimit = 100

// DownloadRecord is one entry in a user's download list. Repeated downloads
// of the same template produce separate records with distinct IDs.
type DownloadRecord struct {
	ID            string `json:"id"`
	TemplateID    string `json:"template_id"`
	TemplateTitle string `json:"template_title"`
	ImageURL      string `json:"image_url"`
	DownloadDate  string `json:"download_date"` // RFC3339
	CanvaURL      string `json:"canva_url"`
	Category      string `json:"category,omitempty"`
}

// ActivityItem is one entry in the capped, most-recent-first activity log.
type ActivityItem struct {
	ID            string       `json:"id"`
	Type          ActivityType `json:"type"`
	TemplateID    string       `json:"template_id"`
	TemplateTitle string       `json:"template_title"`
	ImageURL      string       `json:"image_url"`
	Date          string       `json:"date"` // RFC3339
	CanvaURL      string       `json:"canva_url"`
}
