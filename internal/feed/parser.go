// Package feed turns RSS, Atom and JSON feed documents into article records
// and renders article records back into RSS.
package feed

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"golang.org/x/net/html/charset"

	"feedwatch/internal/logger"
	"feedwatch/internal/models"
)

// Document is a parsed feed snapshot.
type Document struct {
	Channel  models.Channel
	Articles []models.Article
	// Warnings holds non-fatal problems: skipped items and unparseable dates.
	Warnings []error
}

// Parser converts feed markup into articles. It keeps no state between calls.
type Parser struct {
	log       *logger.Logger
	validator *Validator
}

// NewParser creates a parser. A nil logger discards output.
func NewParser(log *logger.Logger) *Parser {
	if log == nil {
		log = logger.Discard()
	}

	return &Parser{
		log:       log,
		validator: NewValidator(),
	}
}

// Parse reads at most maxArticles valid items from data, in document order.
// maxArticles <= 0 means no limit. A document that is not feed markup yields
// a *ParseError and no partial result.
func (p *Parser) Parse(data []byte, maxArticles int) (*Document, error) {
	if err := wellFormed(data); err != nil {
		return nil, &ParseError{Err: err}
	}

	// gofeed.Parser holds per-call translator state, so each call gets its own.
	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(data))
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	doc := &Document{
		Channel: models.Channel{
			Title:         strings.TrimSpace(parsed.Title),
			Link:          parsed.Link,
			Description:   parsed.Description,
			LastBuildDate: parsed.Updated,
			PubDate:       parsed.Published,
		},
	}

	base, _ := url.Parse(parsed.Link)

	for i, item := range parsed.Items {
		if maxArticles > 0 && len(doc.Articles) >= maxArticles {
			break
		}

		if item != nil && item.Link == "" && len(item.Links) > 0 {
			item.Link = item.Links[0]
		}

		if err := p.validator.Validate(item, i); err != nil {
			p.log.Warn("skipping feed item", "error", err)
			doc.Warnings = append(doc.Warnings, err)

			continue
		}

		article := models.Article{
			Title:       strings.TrimSpace(item.Title),
			Link:        resolve(base, strings.TrimSpace(item.Link)),
			Description: strings.TrimSpace(item.Description),
			ImageURL:    resolve(base, imageURL(item)),
			GUID:        item.GUID,
		}

		rawDate, parsedDate := item.Published, item.PublishedParsed
		if rawDate == "" && parsedDate == nil {
			rawDate, parsedDate = item.Updated, item.UpdatedParsed
		}

		published, err := parseDate(rawDate, parsedDate)
		if err != nil {
			dateErr := &DateParseError{Index: i, Value: rawDate, Err: err}
			p.log.Warn("unknown publication date", "title", article.Title, "error", dateErr)
			doc.Warnings = append(doc.Warnings, dateErr)
		}

		article.PublishedAt = published
		doc.Articles = append(doc.Articles, article)
	}

	p.log.Debug("parsed feed",
		"title", doc.Channel.Title,
		"items", len(parsed.Items),
		"articles", len(doc.Articles),
		"warnings", len(doc.Warnings),
	)

	return doc, nil
}

// imageURL picks the item image, then an image enclosure, then the first
// <img> in the item content.
func imageURL(item *gofeed.Item) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}

	for _, enc := range item.Enclosures {
		if enc != nil && enc.URL != "" && strings.HasPrefix(enc.Type, "image/") {
			return enc.URL
		}
	}

	for _, html := range []string{item.Content, item.Description} {
		if src := firstImageSrc(html); src != "" {
			return src
		}
	}

	return ""
}

func firstImageSrc(html string) string {
	if !strings.Contains(html, "<img") {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	img := doc.Find("img").First()
	if src, ok := img.Attr("src"); ok && src != "" {
		return strings.TrimSpace(src)
	}

	if src, ok := img.Attr("data-src"); ok {
		return strings.TrimSpace(src)
	}

	return ""
}

// resolve makes ref absolute against base when ref is relative.
func resolve(base *url.URL, ref string) string {
	if ref == "" || base == nil || base.Host == "" {
		return ref
	}

	u, err := url.Parse(ref)
	if err != nil || u.IsAbs() {
		return ref
	}

	return base.ResolveReference(u).String()
}

// wellFormed rejects XML that gofeed would otherwise recover from, such as
// mismatched tags or a bare ampersand. JSON feeds are left to gofeed.
func wellFormed(data []byte) error {
	trimmed := bytes.TrimLeft(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")), " \t\r\n")
	if len(trimmed) == 0 || trimmed[0] != '<' {
		return nil
	}

	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = true
	dec.Entity = xml.HTMLEntity
	dec.CharsetReader = charset.NewReaderLabel

	for {
		if _, err := dec.Token(); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}

			return err
		}
	}
}
