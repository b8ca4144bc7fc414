package models

import "time"

// NewsCategory classifies a collected news item.
type NewsCategory string

const (
	CategoryPolicy         NewsCategory = "policy"
	CategoryMinutes        NewsCategory = "minutes"
	CategoryResearchReport NewsCategory = "research_report"
	CategoryNews           NewsCategory = "news"
)

// ValidCategory reports whether the value is a known news category.
func ValidCategory(c NewsCategory) bool {
	switch c {
	case CategoryPolicy, CategoryMinutes, CategoryResearchReport, CategoryNews:
		return true
	}
	return false
}

// NewsItem is a collected industry news article. SourceURL is the natural
// dedup key: the store holds at most one item per URL.
type NewsItem struct {
	ID          string       `json:"id"`
	IndustryID  string       `json:"industry_id"`
	Title       string       `json:"title"`
	Content     string       `json:"content"`
	Source      string       `json:"source"`
	SourceURL   string       `json:"source_url"`
	Category    NewsCategory `json:"category"`
	Department  *string      `json:"department"`
	PublishTime *time.Time   `json:"publish_time"`
	Keyword     string       `json:"keyword"`
	CollectedAt time.Time    `json:"collected_at"`
	IsRead      bool         `json:"is_read"`
	CreatedAt   time.Time    `json:"created_at"`
}

// NewsQuery filters news list queries.
type NewsQuery struct {
	Category   NewsCategory
	IndustryID string
	Limit      int
	Offset     int
}

// NewsStats aggregates counts over the news store.
type NewsStats struct {
	Total      int            `json:"total"`
	Recent24h  int            `json:"recent_24h"`
	ByCategory map[string]int `json:"by_category"`
}
