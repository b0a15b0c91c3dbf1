// Package main provides the debugger command, which explains what differs
// between two feed snapshots and why the checker reached its verdict.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"feedwatch/internal/config"
	"feedwatch/internal/detector"
	"feedwatch/internal/formatter"
	"feedwatch/internal/logger"
	"feedwatch/internal/snapshot"
	"feedwatch/pkg/utils"
)

const rule = "================================================================================"

var strs = utils.NewStringHelper()

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("debugger", flag.ContinueOnError)
	fs.SetOutput(stderr)

	configFile := fs.String("config", "", "Path to YAML configuration file (default: "+config.DefaultPath+" if present)")
	envFile := fs.String("env-file", ".env", "Path to .env file with FEEDWATCH_* overrides")
	first := fs.Int("first", 3, "Number of current articles to list")
	samples := fs.Int("samples", 0, "Articles listed per change bucket (default: output.sample_articles)")
	logLevel := fs.String("log-level", "warn", "Logging level (debug, info, warn, error)")

	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: debugger [flags] <current_feed> [previous_feed]")
		fmt.Fprintln(stderr, "Shows metadata, fingerprints and article-level changes. Only title and link changes count.")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if fs.NArg() < 1 || fs.NArg() > 2 {
		fs.Usage()
		return 2
	}

	cfg, _, err := config.Resolve(*configFile, *envFile)
	if err != nil {
		fmt.Fprintf(stderr, "❌ Configuration error: %v\n", err)
		return 1
	}

	if *samples <= 0 {
		*samples = cfg.Output.SampleArticles
	}

	log := logger.New(*logLevel, stderr)
	loader := snapshot.NewLoader(cfg, log)
	det := detector.FromConfig(cfg, log)

	fmt.Fprintf(stdout, "🔍 %s Change Debug Tool\n", cfg.Source.Name)
	fmt.Fprintf(stdout, "Focus: title and link changes only (URL normalization: %t)\n", det.Normalizer().Enabled())
	fmt.Fprintln(stdout, rule)
	fmt.Fprintln(stdout)

	current, err := loader.Load(ctx, fs.Arg(0))
	if err != nil {
		fmt.Fprintf(stdout, "❌ Current file could not be loaded: %v\n", err)
		return 1
	}

	describe(stdout, "Current", current, det.Fingerprint(current.Articles), *first)

	if fs.NArg() == 1 {
		fmt.Fprintln(stdout, "💡 Tip: provide a previous feed to compare changes:")
		fmt.Fprintf(stdout, "   debugger %s <previous_feed>\n", fs.Arg(0))

		return 0
	}

	previous, err := loader.Load(ctx, fs.Arg(1))
	if err != nil {
		fmt.Fprintf(stdout, "❌ Previous file could not be loaded: %v\n", err)
		return 1
	}

	report, verdict := det.Compare(previous.Articles, current.Articles)
	compare(stdout, current, previous, report, verdict, *samples)

	return 0
}

func describe(w io.Writer, label string, snap *snapshot.Snapshot, fp detector.Digest, first int) {
	fmt.Fprintf(w, "📁 %s Feed Analysis:\n", label)
	fmt.Fprintf(w, "   Source: %s\n", snap.Source)
	fmt.Fprintf(w, "   Articles: %d\n", len(snap.Articles))
	fmt.Fprintf(w, "   Content Hash: %s\n", fp)
	fmt.Fprintf(w, "   Title: %s\n", strs.OrDefault(snap.Channel.Title, "N/A"))
	fmt.Fprintf(w, "   Last Build: %s\n", strs.OrDefault(snap.Channel.LastBuildDate, "N/A"))
	fmt.Fprintf(w, "   Pub Date: %s\n", strs.OrDefault(snap.Channel.PubDate, "N/A"))

	if len(snap.Warnings) > 0 {
		fmt.Fprintf(w, "   ⚠️  Warnings: %d\n", len(snap.Warnings))

		for _, warning := range snap.Warnings {
			fmt.Fprintf(w, "      - %v\n", warning)
		}
	}

	fmt.Fprintln(w)

	if first <= 0 || len(snap.Articles) == 0 {
		return
	}

	fmt.Fprintf(w, "📰 First %d Articles:\n", min(first, len(snap.Articles)))
	fmt.Fprintln(w, formatter.ArticleTable(snap.Articles, first))
	fmt.Fprintln(w)
}

func compare(w io.Writer, current, previous *snapshot.Snapshot, report *detector.Report, verdict detector.Verdict, samples int) {
	fmt.Fprintln(w, "🔍 Comparing feeds:")
	fmt.Fprintf(w, "   Current: %s\n", current.Source)
	fmt.Fprintf(w, "   Previous: %s\n", previous.Source)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "📊 Snapshot Analysis:")
	fmt.Fprintln(w, formatter.SnapshotTable(report))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "📋 Metadata Comparison:")
	metadataLine(w, "title", current.Channel.Title, previous.Channel.Title)
	metadataLine(w, "last_build", current.Channel.LastBuildDate, previous.Channel.LastBuildDate)
	metadataLine(w, "pub_date", current.Channel.PubDate, previous.Channel.PubDate)
	fmt.Fprintln(w)

	if report.FingerprintsMatch() {
		fmt.Fprintln(w, "✅ Content hashes match - no actual content changes")
	} else {
		fmt.Fprintln(w, "❌ Content hashes differ - article identities changed")
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "📝 Article Comparison:")
	fmt.Fprintln(w, formatter.CountsTable(report.Counts()))
	fmt.Fprintln(w)

	section(w, "➕ Added articles", len(report.Added), formatter.ArticleTable(report.Added, samples))
	section(w, "➖ Removed articles", len(report.Removed), formatter.ArticleTable(report.Removed, samples))
	section(w, "🔄 Modified articles", len(report.Modified), formatter.ModifiedTable(report.Modified, samples))
	section(w, "🔗 URL-normalized articles", len(report.URLNormalized), formatter.URLChangeTable(report.URLNormalized, samples))
	section(w, "📎 Duplicate articles ignored", len(report.Duplicates), formatter.ArticleTable(report.Duplicates, samples))

	if n := len(report.Unchanged); n > 0 {
		fmt.Fprintf(w, "   ✅ Unchanged articles: %d\n\n", n)
	}

	icon := "✅"
	if verdict.Changed {
		icon = "🔄"
	}

	fmt.Fprintf(w, "%s Verdict: changed=%t (%s)\n", icon, verdict.Changed, verdict.Reason)
	fmt.Fprintln(w, rule)
}

func metadataLine(w io.Writer, key, current, previous string) {
	current, previous = strs.OrDefault(current, "N/A"), strs.OrDefault(previous, "N/A")

	if current == previous {
		fmt.Fprintf(w, "   ✅ %s: %s\n", key, current)
		return
	}

	fmt.Fprintf(w, "   ❌ %s:\n", key)
	fmt.Fprintf(w, "      Current: %s\n", current)
	fmt.Fprintf(w, "      Previous: %s\n", previous)
}

func section(w io.Writer, title string, total int, table string) {
	if total == 0 {
		return
	}

	fmt.Fprintf(w, "   %s (%d):\n", title, total)

	for _, line := range strings.Split(table, "\n") {
		fmt.Fprintf(w, "      %s\n", line)
	}

	fmt.Fprintln(w)
}
