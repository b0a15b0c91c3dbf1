// Package detector compares two feed snapshots and decides whether the feed
// content changed.
package detector

import (
	"feedwatch/internal/config"
	"feedwatch/internal/logger"
	"feedwatch/internal/models"
	"feedwatch/internal/normalizer"
)

// Detector compares article sets using one normalizer. It holds only
// immutable configuration and is safe for concurrent use.
type Detector struct {
	log  *logger.Logger
	norm *normalizer.Normalizer
}

// New creates a detector. A nil normalizer compares raw links.
func New(norm *normalizer.Normalizer, log *logger.Logger) *Detector {
	if log == nil {
		log = logger.Discard()
	}

	return &Detector{log: log, norm: norm}
}

// FromConfig builds the normalizer described by cfg and a detector around it.
func FromConfig(cfg *config.Config, log *logger.Logger) *Detector {
	norm := normalizer.New(normalizer.Options{
		Domains:     cfg.Source.Domains,
		PrimaryPath: cfg.Source.PrimaryPath,
		Disabled:    !cfg.Detection.EnableURLNormalization,
	}, log)

	return New(norm, log)
}

// Normalizer returns the normalizer used for identity keys.
func (d *Detector) Normalizer() *normalizer.Normalizer {
	return d.norm
}

// Fingerprint hashes the identity set of articles.
func (d *Detector) Fingerprint(articles []models.Article) Digest {
	return Fingerprint(d.norm, articles)
}

// Diff classifies every article of previous and current. Empty sides are valid.
//
// Articles are paired in three passes: identical identity key, then identical
// normalized link (title changed), then identical title (link changed).
// Within a pass each current article takes the first unpaired previous
// article in previous order. What remains is added or removed.
func (d *Detector) Diff(previous, current []models.Article) *Report {
	prev := buildIndex(d.norm, previous)
	cur := buildIndex(d.norm, current)

	report := &Report{
		Added:               []models.Article{},
		Removed:             []models.Article{},
		Modified:            []Modification{},
		URLNormalized:       []URLChange{},
		Unchanged:           []models.Article{},
		PreviousCount:       len(prev.entries),
		CurrentCount:        len(cur.entries),
		PreviousFingerprint: d.Fingerprint(previous),
		CurrentFingerprint:  d.Fingerprint(current),
	}

	report.Duplicates = append(report.Duplicates, prev.duplicates...)
	report.Duplicates = append(report.Duplicates, cur.duplicates...)

	prevUsed := make([]bool, len(prev.entries))
	curUsed := make([]bool, len(cur.entries))

	for i, c := range cur.entries {
		j, ok := prev.positions[c.key]
		if !ok {
			continue
		}

		prevUsed[j], curUsed[i] = true, true
		p := prev.entries[j]

		if p.article.Link == c.article.Link {
			report.Unchanged = append(report.Unchanged, c.article)
			continue
		}

		report.URLNormalized = append(report.URLNormalized, URLChange{
			Title:          c.article.Title,
			PreviousLink:   p.article.Link,
			CurrentLink:    c.article.Link,
			NormalizedLink: c.key.Link,
		})
	}

	d.pair(prev, cur, prevUsed, curUsed, TitleChanged, func(p, c Key) bool { return p.Link == c.Link }, report)
	d.pair(prev, cur, prevUsed, curUsed, LinkChanged, func(p, c Key) bool { return p.Title == c.Title }, report)

	for i, c := range cur.entries {
		if !curUsed[i] {
			report.Added = append(report.Added, c.article)
		}
	}

	for j, p := range prev.entries {
		if !prevUsed[j] {
			report.Removed = append(report.Removed, p.article)
		}
	}

	counts := report.Counts()
	d.log.Debug("compared snapshots",
		"previous", report.PreviousCount,
		"current", report.CurrentCount,
		"added", counts.Added,
		"removed", counts.Removed,
		"modified", counts.Modified,
		"url_normalized", counts.URLNormalized,
		"unchanged", counts.Unchanged,
		"duplicates", counts.Duplicates,
	)

	return report
}

func (d *Detector) pair(prev, cur *index, prevUsed, curUsed []bool, kind ChangeKind, same func(p, c Key) bool, report *Report) {
	for i, c := range cur.entries {
		if curUsed[i] {
			continue
		}

		j := prev.firstUnpaired(prevUsed, func(k Key) bool { return same(k, c.key) })
		if j < 0 {
			continue
		}

		prevUsed[j], curUsed[i] = true, true

		report.Modified = append(report.Modified, Modification{
			Kind:     kind,
			Previous: prev.entries[j].article,
			Current:  c.article,
		})
	}
}

// Compare diffs the two sides and decides the verdict.
func (d *Detector) Compare(previous, current []models.Article) (*Report, Verdict) {
	report := d.Diff(previous, current)
	verdict := Decide(report)

	d.log.Info("change detection complete",
		"changed", verdict.Changed,
		"reason", verdict.Reason,
		"previous_fingerprint", report.PreviousFingerprint.Short(),
		"current_fingerprint", report.CurrentFingerprint.Short(),
	)

	return report, verdict
}
