package feed

import (
	"fmt"
	"html"
	"time"

	"github.com/gorilla/feeds"

	"feedwatch/internal/models"
)

// Render produces an RSS 2.0 document for articles. Articles with an image get
// an <img> content block, which Parse reads back as the image URL.
func Render(channel models.Channel, articles []models.Article, buildTime time.Time) (string, error) {
	f := &feeds.Feed{
		Title:       channel.Title,
		Link:        &feeds.Link{Href: channel.Link},
		Description: channel.Description,
		Updated:     buildTime,
	}

	f.Items = make([]*feeds.Item, 0, len(articles))
	for _, article := range articles {
		item := &feeds.Item{
			Title:       article.Title,
			Link:        &feeds.Link{Href: article.Link},
			Description: article.Description,
			Id:          article.GUID,
		}

		if article.PublishedAt != nil {
			item.Created = *article.PublishedAt
		}

		if article.ImageURL != "" {
			item.Content = fmt.Sprintf(`<img src="%s" alt="%s" />`,
				html.EscapeString(article.ImageURL), html.EscapeString(article.Title))
		}

		f.Items = append(f.Items, item)
	}

	rss, err := f.ToRss()
	if err != nil {
		return "", fmt.Errorf("failed to generate RSS: %w", err)
	}

	return rss, nil
}
