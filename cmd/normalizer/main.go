// Package main provides the normalizer command-line tool, which shows the
// identity link the detector derives for article URLs.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"feedwatch/internal/config"
	"feedwatch/internal/detector"
	"feedwatch/internal/logger"
	"feedwatch/internal/normalizer"
)

// Exit codes.
const (
	exitOK        = 0
	exitError     = 1
	exitUsage     = 2
	exitDifferent = 3
)

// line is one normalized URL, written with -json.
type line struct {
	Link       string          `json:"link"`
	Normalized normalizer.Link `json:"normalized"`
	Rule       string          `json:"rule"`
	Recognized bool            `json:"recognized"`
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(_ context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("normalizer", flag.ContinueOnError)
	fs.SetOutput(stderr)

	configFile := fs.String("config", "", "Path to YAML configuration file (default: "+config.DefaultPath+" if present)")
	envFile := fs.String("env-file", ".env", "Path to .env file with FEEDWATCH_* overrides")
	compare := fs.Bool("compare", false, "Compare two URLs and report whether they identify the same article")
	asJSON := fs.Bool("json", false, "Print one JSON object per URL")
	logLevel := fs.String("log-level", "warn", "Logging level (debug, info, warn, error)")

	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: normalizer [flags] [url ...]")
		fmt.Fprintln(stderr, "       normalizer -compare <url_a> <url_b>")
		fmt.Fprintln(stderr, "  Without URL arguments, one URL per line is read from stdin.")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	if *compare && fs.NArg() != 2 {
		fs.Usage()
		return exitUsage
	}

	cfg, _, err := config.Resolve(*configFile, *envFile)
	if err != nil {
		fmt.Fprintf(stderr, "❌ Configuration error: %v\n", err)
		return exitError
	}

	norm := detector.FromConfig(cfg, logger.New(*logLevel, stderr)).Normalizer()

	if *compare {
		return compareLinks(stdout, norm, fs.Arg(0), fs.Arg(1))
	}

	links := fs.Args()
	if len(links) == 0 {
		links, err = readLines(stdin)
		if err != nil {
			fmt.Fprintf(stderr, "❌ Failed to read stdin: %v\n", err)
			return exitError
		}
	}

	enc := json.NewEncoder(stdout)

	for _, link := range links {
		m := norm.Match(link)

		if *asJSON {
			if err := enc.Encode(line{Link: link, Normalized: m.Link, Rule: m.Rule, Recognized: m.Recognized}); err != nil {
				fmt.Fprintf(stderr, "❌ Failed to encode: %v\n", err)
				return exitError
			}

			continue
		}

		fmt.Fprintf(stdout, "%s\n   → %s (%s)\n", link, m.Link, m.Rule)
	}

	return exitOK
}

func compareLinks(w io.Writer, norm *normalizer.Normalizer, a, b string) int {
	ma, mb := norm.Match(a), norm.Match(b)

	fmt.Fprintf(w, "A: %s\n   → %s (%s)\n", a, ma.Link, ma.Rule)
	fmt.Fprintf(w, "B: %s\n   → %s (%s)\n", b, mb.Link, mb.Rule)

	if ma.Link == mb.Link {
		fmt.Fprintln(w, "✅ Same article")
		return exitOK
	}

	fmt.Fprintln(w, "❌ Different articles")

	return exitDifferent
}

func readLines(r io.Reader) ([]string, error) {
	var links []string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if text := strings.TrimSpace(scanner.Text()); text != "" && !strings.HasPrefix(text, "#") {
			links = append(links, text)
		}
	}

	return links, scanner.Err()
}
