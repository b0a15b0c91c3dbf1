package feed

import (
	"errors"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

var errNoDateFormat = errors.New("no known date format matched")

// dateLayouts are tried in order before falling back to dateparse.
var dateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC3339,
	time.RFC3339Nano,
	time.RFC822Z,
	time.RFC822,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"02 Jan 2006",
}

// parseDate returns parsed when gofeed already understood the value, otherwise
// tries each known layout and finally dateparse. An empty raw value is not an
// error: the date is simply unknown.
func parseDate(raw string, parsed *time.Time) (*time.Time, error) {
	if parsed != nil {
		t := parsed.UTC()
		return &t, nil
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}

	t, err := dateparse.ParseAny(raw)
	if err != nil {
		return nil, errors.Join(errNoDateFormat, err)
	}

	t = t.UTC()

	return &t, nil
}

// ParseDate parses raw with the same fallback chain used for feed items.
// An empty value yields nil and no error.
func ParseDate(raw string) (*time.Time, error) {
	return parseDate(raw, nil)
}
