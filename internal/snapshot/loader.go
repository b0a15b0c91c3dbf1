// Package snapshot loads feed snapshots from disk or HTTP and persists
// comparison artifacts.
package snapshot

import (
	"context"
	"fmt"

	"feedwatch/internal/config"
	"feedwatch/internal/feed"
	"feedwatch/internal/logger"
	"feedwatch/pkg/utils"
)

// Snapshot is one parsed feed document and where it came from.
type Snapshot struct {
	Source string
	*feed.Document
	Metrics Metrics
}

// Loader reads and parses snapshots.
type Loader struct {
	fetcher     *Fetcher
	parser      *feed.Parser
	http        *utils.HTTPHelper
	maxArticles int
	log         *logger.Logger
}

// NewLoader creates a loader from cfg.
func NewLoader(cfg *config.Config, log *logger.Logger) *Loader {
	if log == nil {
		log = logger.Discard()
	}

	return &Loader{
		fetcher:     NewFetcher(&cfg.Fetch, log),
		parser:      feed.NewParser(log),
		http:        utils.NewHTTPHelper(),
		maxArticles: cfg.Detection.MaxArticles,
		log:         log,
	}
}

// IsRemote reports whether source is fetched over HTTP.
func (l *Loader) IsRemote(source string) bool {
	return l.http.IsValidURL(source)
}

// Read returns the raw bytes of source, an http(s) URL or a file path.
// A missing file or a 404 yields an error wrapping ErrNotFound.
func (l *Loader) Read(ctx context.Context, source string) ([]byte, Metrics, error) {
	if l.IsRemote(source) {
		return l.fetcher.FetchWithMetrics(ctx, source)
	}

	return l.fetcher.ReadLocalFile(source)
}

// Load reads and parses source. Parse failures wrap *feed.ParseError.
func (l *Loader) Load(ctx context.Context, source string) (*Snapshot, error) {
	log := l.log.With("source", source)

	data, metrics, err := l.Read(ctx, source)
	if err != nil {
		log.Debug("snapshot read failed", "error", err)
		return nil, err
	}

	doc, err := l.parser.Parse(data, l.maxArticles)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}

	log.Info("📥 Loaded snapshot",
		"articles", len(doc.Articles),
		"bytes", metrics.Size,
		"attempts", metrics.Attempts,
		"duration", metrics.Duration,
	)

	return &Snapshot{Source: source, Document: doc, Metrics: metrics}, nil
}
