package normalizer

import "regexp"

var yearPattern = regexp.MustCompile(`^\d{4}$`)

// Rule extracts an article slug from the path segments of a recognised link.
// Rules are evaluated in order and the first match wins.
type Rule struct {
	Name    string
	Extract func(segments []string) (slug string, ok bool)
}

// DefaultRules returns the site-restructuring patterns known for the source.
// primaryPath is the canonical section (e.g. "mlsnext"); an empty value disables that rule.
func DefaultRules(primaryPath string) []Rule {
	return []Rule{
		{
			// /allstar/2025/news/<slug>
			Name: "category-year-news",
			Extract: func(s []string) (string, bool) {
				if len(s) == 4 && yearPattern.MatchString(s[1]) && s[2] == "news" {
					return s[3], true
				}

				return "", false
			},
		},
		{
			// /generation-adidas-cup/news/<slug>
			Name: "category-news",
			Extract: func(s []string) (string, bool) {
				if len(s) == 3 && s[0] != primaryPath && s[1] == "news" {
					return s[2], true
				}

				return "", false
			},
		},
		{
			// /mlsnext/news/<slug>
			Name: "primary-news",
			Extract: func(s []string) (string, bool) {
				if primaryPath != "" && len(s) == 3 && s[0] == primaryPath && s[1] == "news" {
					return s[2], true
				}

				return "", false
			},
		},
		{
			// article/<slug>, an already normalized value
			Name: "canonical",
			Extract: func(s []string) (string, bool) {
				if len(s) == 2 && s[0] == canonicalSection {
					return s[1], true
				}

				return "", false
			},
		},
	}
}
