package formatter

import (
	"fmt"
	"strconv"
	"strings"

	"feedwatch/internal/detector"
	"feedwatch/internal/models"
	"feedwatch/pkg/utils"
)

// DescriptionWidth is the rune limit for descriptions in listings.
const DescriptionWidth = 80

var strs = utils.NewStringHelper()

// SummaryOptions controls Summary output.
type SummaryOptions struct {
	// Source names the feed in the heading.
	Source string
	// Samples caps each listing; 0 hides listings.
	Samples int
}

// Summary renders a GitHub-flavoured markdown summary of a comparison.
func Summary(report *detector.Report, verdict detector.Verdict, opts SummaryOptions) string {
	var sb strings.Builder

	heading := "Feed change check"
	if opts.Source != "" {
		heading += ": " + opts.Source
	}

	icon := "✅"
	if verdict.Changed {
		icon = "🔄"
	}

	fmt.Fprintf(&sb, "## %s %s\n\n", icon, heading)
	fmt.Fprintf(&sb, "**Changed:** `%t`  \n**Reason:** %s\n\n", verdict.Changed, verdict.Reason)

	sb.WriteString(SnapshotTable(report))
	sb.WriteString("\n\n")
	sb.WriteString(CountsTable(report.Counts()))
	sb.WriteString("\n")

	if opts.Samples > 0 {
		writeSection(&sb, "Added", len(report.Added), ArticleTable(report.Added, opts.Samples))
		writeSection(&sb, "Removed", len(report.Removed), ArticleTable(report.Removed, opts.Samples))
		writeSection(&sb, "Modified", len(report.Modified), ModifiedTable(report.Modified, opts.Samples))
		writeSection(&sb, "URLs normalized", len(report.URLNormalized), URLChangeTable(report.URLNormalized, opts.Samples))
	}

	return sb.String()
}

func writeSection(sb *strings.Builder, title string, total int, table string) {
	if total == 0 {
		return
	}

	fmt.Fprintf(sb, "\n### %s (%d)\n\n%s\n", title, total, table)
}

// SnapshotTable lists article counts and fingerprints for both sides.
func SnapshotTable(report *detector.Report) string {
	return Table([]string{"Snapshot", "Articles", "Fingerprint"}, [][]string{
		{"Previous", strconv.Itoa(report.PreviousCount), "`" + report.PreviousFingerprint.Short() + "`"},
		{"Current", strconv.Itoa(report.CurrentCount), "`" + report.CurrentFingerprint.Short() + "`"},
	})
}

// CountsTable lists the size of every bucket.
func CountsTable(c detector.Counts) string {
	return Table([]string{"Change", "Count"}, [][]string{
		{"Added", strconv.Itoa(c.Added)},
		{"Removed", strconv.Itoa(c.Removed)},
		{"Modified", strconv.Itoa(c.Modified)},
		{"URL normalized", strconv.Itoa(c.URLNormalized)},
		{"Unchanged", strconv.Itoa(c.Unchanged)},
		{"Duplicates", strconv.Itoa(c.Duplicates)},
	})
}

// ArticleTable lists up to limit articles. limit <= 0 lists all of them.
func ArticleTable(articles []models.Article, limit int) string {
	rows := make([][]string, 0, len(articles))

	for i, a := range capped(articles, limit) {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			a.Title,
			a.Link,
			a.Published(),
			strs.TruncateString(strs.NormalizeWhitespace(a.Description), DescriptionWidth),
		})
	}

	return withMore(Table([]string{"#", "Title", "Link", "Published", "Description"}, rows), len(articles), limit)
}

// ModifiedTable lists up to limit modifications.
func ModifiedTable(mods []detector.Modification, limit int) string {
	rows := make([][]string, 0, len(mods))

	for _, m := range capped(mods, limit) {
		before, after := m.Previous.Title, m.Current.Title
		if m.Kind == detector.LinkChanged {
			before, after = m.Previous.Link, m.Current.Link
		}

		rows = append(rows, []string{string(m.Kind), m.Current.Title, before, after})
	}

	return withMore(Table([]string{"Kind", "Article", "Before", "After"}, rows), len(mods), limit)
}

// URLChangeTable lists up to limit normalized link changes.
func URLChangeTable(changes []detector.URLChange, limit int) string {
	rows := make([][]string, 0, len(changes))

	for _, c := range capped(changes, limit) {
		rows = append(rows, []string{c.Title, c.PreviousLink, c.CurrentLink, string(c.NormalizedLink)})
	}

	return withMore(Table([]string{"Title", "Previous link", "Current link", "Normalized"}, rows), len(changes), limit)
}

func capped[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}

	return items
}

func withMore(table string, total, limit int) string {
	if limit > 0 && total > limit {
		return fmt.Sprintf("%s\n\n_... and %d more_", table, total-limit)
	}

	return table
}
