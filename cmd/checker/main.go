// Package main provides the checker command, which decides whether a freshly
// built feed differs in content from the previously published one.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"feedwatch/internal/config"
	"feedwatch/internal/detector"
	"feedwatch/internal/formatter"
	"feedwatch/internal/logger"
	"feedwatch/internal/snapshot"
)

// Exit codes.
const (
	exitOK      = 0
	exitError   = 1
	exitUsage   = 2
	exitChanged = 3
)

// result is written with -json.
type result struct {
	Verdict     detector.Verdict `json:"verdict"`
	Counts      detector.Counts  `json:"counts"`
	NewHash     detector.Digest  `json:"new_hash"`
	PrevHash    detector.Digest  `json:"prev_hash,omitempty"`
	Report      *detector.Report `json:"report,omitempty"`
	CheckedAt   time.Time        `json:"checked_at"`
	NewFile     string           `json:"new_file"`
	PrevFile    string           `json:"prev_file,omitempty"`
	Normalizing bool             `json:"url_normalization"`
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("checker", flag.ContinueOnError)
	fs.SetOutput(stderr)

	configFile := fs.String("config", "", "Path to YAML configuration file (default: "+config.DefaultPath+" if present)")
	envFile := fs.String("env-file", ".env", "Path to .env file with FEEDWATCH_* overrides")
	jsonOut := fs.String("json", "", "Write the full comparison result as JSON to this path")
	summaryOut := fs.String("summary", "", "Append a markdown summary to this path (default: $GITHUB_STEP_SUMMARY)")
	githubOut := fs.String("github-output", "", "Append step outputs to this path (default: $GITHUB_OUTPUT)")
	exitCode := fs.Bool("exit-code", false, "Exit with status 3 when content changed")
	logLevel := fs.String("log-level", "", "Override logging level (debug, info, warn, error)")
	writeConfig := fs.String("write-config", "", "Write the resolved configuration as YAML to this path and exit")

	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: checker [flags] <new_feed> [previous_feed]")
		fmt.Fprintln(stderr, "       checker [flags] -write-config <feedwatch.yaml>")
		fmt.Fprintln(stderr, "  previous_feed may be a file path or an http(s) URL")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	if (*writeConfig == "" && fs.NArg() < 1) || fs.NArg() > 2 {
		fs.Usage()
		return exitUsage
	}

	cfg, _, err := config.Resolve(*configFile, *envFile)
	if err != nil {
		fmt.Fprintf(stderr, "❌ Configuration error: %v\n", err)
		return exitError
	}

	if *summaryOut != "" {
		cfg.Output.SummaryPath = *summaryOut
	}

	if *githubOut != "" {
		cfg.Output.GitHubOutput = *githubOut
	}

	log := logger.New(cfg.Logging.Level, stderr)
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
		log.SetLevel(*logLevel)
	}

	log.Debug("configuration resolved", "config", cfg.String())

	if *writeConfig != "" {
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(stderr, "❌ Configuration error: %v\n", err)
			return exitError
		}

		if err := cfg.SaveConfig(*writeConfig); err != nil {
			log.Error("failed to write configuration", "error", err)
			return exitError
		}

		fmt.Fprintf(stdout, "✅ Configuration written: %s\n", *writeConfig)

		return exitOK
	}

	c := &checker{
		cfg:    cfg,
		log:    log,
		out:    stdout,
		loader: snapshot.NewLoader(cfg, log),
		det:    detector.FromConfig(cfg, log),
	}

	newFile, prevFile := fs.Arg(0), fs.Arg(1)

	res, code := c.check(ctx, newFile, prevFile)

	if err := c.publish(res); err != nil {
		log.Error("failed to publish outputs", "error", err)
		return exitError
	}

	if *jsonOut != "" {
		if err := snapshot.SaveJSON(res, *jsonOut); err != nil {
			log.Error("failed to write JSON result", "error", err)
			return exitError
		}
	}

	if code == exitOK && *exitCode && res.Verdict.Changed {
		return exitChanged
	}

	return code
}

type checker struct {
	cfg    *config.Config
	log    *logger.Logger
	out    io.Writer
	loader *snapshot.Loader
	det    *detector.Detector
}

// check compares the snapshots and prints new_hash=, prev_hash= and changed=
// lines followed by the reason. Every failure short of an unreadable new feed
// resolves to changed=true so the publish step still runs.
func (c *checker) check(ctx context.Context, newFile, prevFile string) (*result, int) {
	res := &result{
		CheckedAt:   time.Now().UTC(),
		NewFile:     newFile,
		PrevFile:    prevFile,
		Normalizing: c.det.Normalizer().Enabled(),
	}

	current, err := c.loader.Load(ctx, newFile)
	if err != nil {
		c.log.Error("could not load new feed", "file", newFile, "error", err)
		res.Verdict = detector.Verdict{Changed: true, Reason: fmt.Sprintf("Error: Could not parse new RSS file: %v", err)}
		c.print(res)

		return res, exitError
	}

	res.NewHash = c.det.Fingerprint(current.Articles)
	fmt.Fprintf(c.out, "new_hash=%s\n", res.NewHash)

	if prevFile == "" {
		res.Verdict = detector.Verdict{Changed: true, Reason: "Previous file not found, deploying"}
		c.print(res)

		return res, exitOK
	}

	previous, err := c.loader.Load(ctx, prevFile)
	switch {
	case errors.Is(err, snapshot.ErrNotFound):
		c.log.Warn("previous feed not found", "file", prevFile)
		res.Verdict = detector.Verdict{Changed: true, Reason: "Previous file not found, deploying"}
	case err != nil:
		c.log.Warn("could not load previous feed", "file", prevFile, "error", err)
		res.Verdict = detector.Verdict{Changed: true, Reason: fmt.Sprintf("Error: Could not parse previous RSS file: %v", err)}
	default:
		report, verdict := c.det.Compare(previous.Articles, current.Articles)
		res.Report, res.Verdict = report, verdict
		res.PrevHash = report.PreviousFingerprint
		res.Counts = report.Counts()

		fmt.Fprintf(c.out, "prev_hash=%s\n", res.PrevHash)
	}

	c.print(res)

	return res, exitOK
}

func (c *checker) print(res *result) {
	fmt.Fprintf(c.out, "changed=%t\n", res.Verdict.Changed)
	fmt.Fprintln(c.out, res.Verdict.Reason)
}

// publish writes GitHub step outputs and the markdown summary when configured.
func (c *checker) publish(res *result) error {
	if path := c.cfg.Output.GitHubOutput; path != "" {
		err := snapshot.AppendGitHubOutput(path,
			"changed", fmt.Sprintf("%t", res.Verdict.Changed),
			"new_hash", string(res.NewHash),
			"prev_hash", string(res.PrevHash),
			"reason", res.Verdict.Reason,
		)
		if err != nil {
			return err
		}

		c.log.Debug("wrote step outputs", "path", path)
	}

	if path := c.cfg.Output.SummaryPath; path != "" && res.Report != nil {
		summary := formatter.Summary(res.Report, res.Verdict, formatter.SummaryOptions{
			Source:  c.cfg.Source.Name,
			Samples: c.cfg.Output.SampleArticles,
		})

		if err := snapshot.AppendFile(path, summary+"\n"); err != nil {
			return err
		}

		c.log.Debug("wrote summary", "path", path)
	}

	return nil
}
