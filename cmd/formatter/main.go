// Package main provides the formatter command-line tool, which renders a saved
// checker result as a markdown summary, or re-aligns the tables of an existing
// markdown file.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"feedwatch/internal/config"
	"feedwatch/internal/detector"
	"feedwatch/internal/formatter"
	"feedwatch/internal/snapshot"
)

// savedResult is the subset of the checker's -json output the summary needs.
type savedResult struct {
	Verdict detector.Verdict `json:"verdict"`
	Report  *detector.Report `json:"report"`
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(_ context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("formatter", flag.ContinueOnError)
	fs.SetOutput(stderr)

	configFile := fs.String("config", "", "Path to YAML configuration file (default: "+config.DefaultPath+" if present)")
	envFile := fs.String("env-file", ".env", "Path to .env file with FEEDWATCH_* overrides")
	inputPath := fs.String("input", "", "Path to a result written by checker -json")
	outputPath := fs.String("output", "", "Append the summary to this path instead of printing it")
	samples := fs.Int("samples", -1, "Articles listed per change bucket (default: output.sample_articles)")
	align := fs.Bool("align", false, "Treat -input as markdown and align its tables")
	write := fs.Bool("write", false, "With -align, rewrite -input in place (default: print)")

	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: formatter -input <result.json> [-output <summary.md>]")
		fs.PrintDefaults()
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Examples:")
		fmt.Fprintln(stderr, "  ./bin/formatter -input result.json")
		fmt.Fprintln(stderr, "  ./bin/formatter -input result.json -output \"$GITHUB_STEP_SUMMARY\"")
		fmt.Fprintln(stderr, "  ./bin/formatter -align -write -input CHANGES.md")
	}

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *inputPath == "" {
		fs.Usage()
		return 2
	}

	if *align {
		return alignFile(stdout, stderr, *inputPath, *write)
	}

	cfg, _, err := config.Resolve(*configFile, *envFile)
	if err != nil {
		fmt.Fprintf(stderr, "❌ Configuration error: %v\n", err)
		return 1
	}

	if *samples < 0 {
		*samples = cfg.Output.SampleArticles
	}

	data, err := os.ReadFile(*inputPath)
	if err != nil {
		fmt.Fprintf(stderr, "❌ Error reading file: %v\n", err)
		return 1
	}

	var res savedResult
	if err := json.Unmarshal(data, &res); err != nil {
		fmt.Fprintf(stderr, "❌ Error parsing result: %v\n", err)
		return 1
	}

	if res.Report == nil {
		fmt.Fprintf(stderr, "⚠️  %s holds no comparison report: %s\n", *inputPath, res.Verdict.Reason)
		return 1
	}

	summary := formatter.Summary(res.Report, res.Verdict, formatter.SummaryOptions{
		Source:  cfg.Source.Name,
		Samples: *samples,
	})

	if *outputPath == "" {
		fmt.Fprintln(stdout, summary)
		return 0
	}

	if err := snapshot.AppendFile(*outputPath, summary+"\n"); err != nil {
		fmt.Fprintf(stderr, "❌ %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "✅ Summary appended to %s\n", *outputPath)

	return 0
}

func alignFile(stdout, stderr io.Writer, path string, write bool) int {
	content, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stderr, "❌ Error reading file: %v\n", err)
		return 1
	}

	formatted := formatter.FormatMarkdown(string(content))

	if !write {
		fmt.Fprint(stdout, formatted)
		return 0
	}

	if formatted == string(content) {
		fmt.Fprintf(stdout, "👀 Already aligned: %s\n", path)
		return 0
	}

	if err := os.WriteFile(path, []byte(formatted), 0644); err != nil {
		fmt.Fprintf(stderr, "❌ %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "✅ Formatted: %s\n", path)

	return 0
}
