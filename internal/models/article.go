// Package models defines the article and snapshot records shared by the parser and detector.
package models

import "time"

// UnknownDate is shown for articles whose publication date could not be determined.
const UnknownDate = "unknown"

// Article represents one news item from a feed snapshot.
type Article struct {
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Title       string     `json:"title"`
	Link        string     `json:"link"`
	Description string     `json:"description"`
	ImageURL    string     `json:"image_url,omitempty"`
	GUID        string     `json:"guid,omitempty"`
}

// Published returns the publication date in RFC 3339, or UnknownDate.
func (a Article) Published() string {
	if a.PublishedAt == nil {
		return UnknownDate
	}

	return a.PublishedAt.Format(time.RFC3339)
}
