// Package normalizer rewrites article links into canonical identity keys so that
// cosmetic path restructurings on the source site do not look like new articles.
package normalizer

import (
	"net/url"
	"strings"

	"feedwatch/internal/logger"
)

const canonicalSection = "article"

// Rule names reported by Match when no pattern applies.
const (
	RuleDisabled     = "disabled"
	RuleUnrecognized = "unrecognized-domain"
	RuleNoPath       = "no-path"
	RuleLastSegment  = "last-segment"
)

// Link is a normalized link: domain/article/<slug> for recognised domains,
// otherwise the original link.
type Link string

// Options configures a Normalizer.
type Options struct {
	// Domains lists the hosts normalization applies to. A leading "www." is ignored.
	Domains []string
	// PrimaryPath is the site's canonical news section, e.g. "mlsnext".
	PrimaryPath string
	// Disabled turns normalization off; every link is its own identity.
	Disabled bool
	// Rules overrides DefaultRules(PrimaryPath) when non-nil.
	Rules []Rule
}

// Match describes how a link was normalized.
type Match struct {
	Link       Link
	Rule       string
	Recognized bool
}

// Normalizer applies the ordered rule list to links on recognised domains.
// It holds no mutable state and is safe for concurrent use.
type Normalizer struct {
	log      *logger.Logger
	domains  map[string]struct{}
	rules    []Rule
	disabled bool
}

// New creates a normalizer from opts.
func New(opts Options, log *logger.Logger) *Normalizer {
	if log == nil {
		log = logger.Discard()
	}

	domains := make(map[string]struct{}, len(opts.Domains))
	for _, d := range opts.Domains {
		if d = canonicalHost(strings.TrimSpace(d)); d != "" {
			domains[d] = struct{}{}
		}
	}

	rules := opts.Rules
	if rules == nil {
		rules = DefaultRules(opts.PrimaryPath)
	}

	return &Normalizer{
		log:      log,
		domains:  domains,
		rules:    rules,
		disabled: opts.Disabled,
	}
}

// Enabled reports whether normalization is active.
func (n *Normalizer) Enabled() bool {
	return !n.disabled
}

// Recognizes reports whether host belongs to the configured domains.
func (n *Normalizer) Recognizes(host string) bool {
	_, ok := n.domains[canonicalHost(host)]
	return ok
}

// Normalize returns the canonical identity for link.
func (n *Normalizer) Normalize(link string) Link {
	return n.Match(link).Link
}

// Match normalizes link and reports which rule produced the result.
func (n *Normalizer) Match(link string) Match {
	if n.disabled {
		return Match{Link: Link(link), Rule: RuleDisabled}
	}

	stripped, host, path, ok := splitLink(link)
	if !ok || !n.Recognizes(host) {
		n.log.Debug("link outside recognised domains, left unchanged", "link", link)
		return Match{Link: Link(link), Rule: RuleUnrecognized}
	}

	segments := splitPath(path)
	if len(segments) == 0 {
		return Match{Link: Link(stripped), Rule: RuleNoPath, Recognized: true}
	}

	slug, rule := segments[len(segments)-1], RuleLastSegment

	for _, r := range n.rules {
		if s, matched := r.Extract(segments); matched {
			slug, rule = s, r.Name
			break
		}
	}

	return Match{
		Link:       Link(canonicalHost(host) + "/" + canonicalSection + "/" + slug),
		Rule:       rule,
		Recognized: true,
	}
}

// splitLink returns link with any query or fragment removed, along with its host
// and still-escaped path. Scheme-less values such as "example.com/article/slug"
// are accepted so that normalized links can be normalized again.
func splitLink(link string) (stripped, host, path string, ok bool) {
	raw := strings.TrimSpace(link)
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		raw = raw[:i]
	}

	if raw == "" {
		return "", "", "", false
	}

	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" {
			return "", "", "", false
		}

		// Kept escaped so an encoded separator stays part of the slug.
		return raw, u.Hostname(), u.EscapedPath(), true
	}

	if strings.HasPrefix(raw, "/") {
		return "", "", "", false
	}

	host, path, _ = strings.Cut(raw, "/")

	return raw, host, path, true
}

func splitPath(path string) []string {
	var segments []string

	for _, s := range strings.Split(path, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}

	return segments
}

func canonicalHost(host string) string {
	return strings.TrimPrefix(strings.ToLower(host), "www.")
}
