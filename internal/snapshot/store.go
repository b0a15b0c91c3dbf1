package snapshot

import (
	"cmp"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"

	"feedwatch/internal/feed"
	"feedwatch/internal/models"
)

// BackupArticle is one entry of the scraper's JSON article backup.
type BackupArticle struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	Date        string `json:"date"`
	IsHero      bool   `json:"is_hero"`
}

// SaveJSON writes v to path as indented JSON.
func SaveJSON(v any, path string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

// AppendGitHubOutput appends key=value lines to a GitHub Actions output file.
// pairs alternates keys and values; newlines in values are flattened.
func AppendGitHubOutput(path string, pairs ...string) error {
	if len(pairs)%2 != 0 {
		return fmt.Errorf("odd number of output arguments: %d", len(pairs))
	}

	var sb strings.Builder
	for i := 0; i < len(pairs); i += 2 {
		value := strings.NewReplacer("\r", " ", "\n", " ").Replace(pairs[i+1])
		fmt.Fprintf(&sb, "%s=%s\n", pairs[i], value)
	}

	return AppendFile(path, sb.String())
}

// AppendFile appends content to path, creating it if needed.
func AppendFile(path, content string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(content); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}

// LoadBackup reads a JSON article backup and returns its articles newest
// first, capped at maxArticles (<= 0 means no cap). Entries without a title or
// link are dropped; undated entries sort last.
func LoadBackup(path string, maxArticles int) ([]models.Article, []error, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read backup %s: %w", path, err)
	}

	var entries []BackupArticle
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, nil, fmt.Errorf("failed to parse backup %s: %w", path, err)
	}

	var (
		articles []models.Article
		warnings []error
	)

	for i, e := range entries {
		title, link := strings.TrimSpace(e.Title), strings.TrimSpace(e.Link)

		switch {
		case title == "":
			warnings = append(warnings, fmt.Errorf("%w at index %d", feed.ErrMissingTitle, i))
			continue
		case link == "":
			warnings = append(warnings, fmt.Errorf("%w at index %d", feed.ErrMissingLink, i))
			continue
		}

		published, err := feed.ParseDate(e.Date)
		if err != nil {
			warnings = append(warnings, &feed.DateParseError{Index: i, Value: e.Date, Err: err})
		}

		articles = append(articles, models.Article{
			Title:       title,
			Link:        link,
			Description: strings.TrimSpace(e.Description),
			ImageURL:    strings.TrimSpace(e.ImageURL),
			PublishedAt: published,
		})
	}

	slices.SortStableFunc(articles, func(a, b models.Article) int {
		switch {
		case a.PublishedAt == nil && b.PublishedAt == nil:
			return 0
		case a.PublishedAt == nil:
			return 1
		case b.PublishedAt == nil:
			return -1
		}

		return cmp.Compare(b.PublishedAt.UnixNano(), a.PublishedAt.UnixNano())
	})

	if maxArticles > 0 && len(articles) > maxArticles {
		articles = articles[:maxArticles]
	}

	return articles, warnings, nil
}
