package models

// Channel holds feed-level metadata. None of it takes part in change detection;
// the debugger prints it so timestamp-only rebuilds are easy to spot.
type Channel struct {
	Title         string `json:"title"`
	Link          string `json:"link"`
	Description   string `json:"description"`
	LastBuildDate string `json:"lastBuildDate"`
	PubDate       string `json:"pubDate"`
}
