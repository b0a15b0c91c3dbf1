// Package main provides the exporter command, which rebuilds an RSS feed from
// a JSON article backup so it can be checked and published like a fresh build.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"feedwatch/internal/config"
	"feedwatch/internal/detector"
	"feedwatch/internal/feed"
	"feedwatch/internal/logger"
	"feedwatch/internal/models"
	"feedwatch/internal/snapshot"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(_ context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("exporter", flag.ContinueOnError)
	fs.SetOutput(stderr)

	configFile := fs.String("config", "", "Path to YAML configuration file (default: "+config.DefaultPath+" if present)")
	envFile := fs.String("env-file", ".env", "Path to .env file with FEEDWATCH_* overrides")
	inputPath := fs.String("input", "", "Path to JSON article backup")
	outputPath := fs.String("output", "", "Path to write the RSS feed")
	description := fs.String("description", "", "Channel description (default: derived from source.name)")
	logLevel := fs.String("log-level", "", "Override logging level (debug, info, warn, error)")

	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: exporter -input <articles.json> -output <feed.xml>")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *inputPath == "" || *outputPath == "" {
		fs.Usage()
		return 2
	}

	cfg, _, err := config.Resolve(*configFile, *envFile)
	if err != nil {
		fmt.Fprintf(stderr, "❌ Configuration error: %v\n", err)
		return 1
	}

	log := logger.New(cfg.Logging.Level, stderr)
	if *logLevel != "" {
		log.SetLevel(*logLevel)
	}

	fmt.Fprintf(stdout, "📂 Reading: %s\n", *inputPath)

	articles, warnings, err := snapshot.LoadBackup(*inputPath, cfg.Detection.MaxArticles)
	if err != nil {
		log.Error("failed to load backup", "error", err)
		return 1
	}

	for _, w := range warnings {
		log.Warn("backup entry", "warning", w)
	}

	channel := models.Channel{
		Title:       cfg.Source.Name,
		Link:        cfg.Source.FeedURL,
		Description: *description,
	}

	if channel.Description == "" {
		channel.Description = "Latest news from " + cfg.Source.Name
	}

	rss, err := feed.Render(channel, articles, time.Now().UTC())
	if err != nil {
		log.Error("failed to render feed", "error", err)
		return 1
	}

	if dir := filepath.Dir(*outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Error("failed to create output directory", "dir", dir, "error", err)
			return 1
		}
	}

	if err := os.WriteFile(*outputPath, []byte(rss), 0644); err != nil {
		log.Error("failed to write feed", "path", *outputPath, "error", err)
		return 1
	}

	fp := detector.FromConfig(cfg, log).Fingerprint(articles)

	fmt.Fprintf(stdout, "📊 Articles: %d (warnings: %d)\n", len(articles), len(warnings))
	fmt.Fprintf(stdout, "🔑 Fingerprint: %s\n", fp)
	fmt.Fprintf(stdout, "✅ Wrote: %s\n", *outputPath)

	return 0
}
