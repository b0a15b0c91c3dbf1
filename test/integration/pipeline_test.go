package integration

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"feedwatch/internal/config"
	"feedwatch/internal/detector"
	"feedwatch/internal/feed"
	"feedwatch/internal/formatter"
	"feedwatch/internal/snapshot"
)

func fixture(name string) string {
	return filepath.Join("..", "fixtures", name)
}

func testConfig(normalize bool) *config.Config {
	cfg := config.Default()
	cfg.Detection.EnableURLNormalization = normalize
	cfg.Fetch.Retry.InitialDelayMs = 1
	cfg.Fetch.Retry.MaxDelayMs = 5

	return cfg
}

func compareFixtures(t *testing.T, cfg *config.Config, previous, current string) (*detector.Report, detector.Verdict) {
	t.Helper()

	loader := snapshot.NewLoader(cfg, nil)

	prev, err := loader.Load(context.Background(), fixture(previous))
	if err != nil {
		t.Fatalf("Load(%s) failed: %v", previous, err)
	}

	cur, err := loader.Load(context.Background(), fixture(current))
	if err != nil {
		t.Fatalf("Load(%s) failed: %v", current, err)
	}

	return detector.FromConfig(cfg, nil).Compare(prev.Articles, cur.Articles)
}

func TestPipeline_URLRestructuring(t *testing.T) {
	report, verdict := compareFixtures(t, testConfig(true), "previous.xml", "current_url_restructured.xml")

	if verdict.Changed {
		t.Fatalf("Expected no change, got %+v", verdict)
	}

	if verdict.Reason != "No content changes detected (URLs normalized: 3 article(s))" {
		t.Errorf("Reason = %q", verdict.Reason)
	}

	if !report.FingerprintsMatch() {
		t.Errorf("Expected matching fingerprints, got %s and %s", report.PreviousFingerprint, report.CurrentFingerprint)
	}

	if got := report.Counts(); got.Unchanged != 1 || got.URLNormalized != 3 {
		t.Errorf("Counts = %+v, want 1 unchanged and 3 normalized", got)
	}
}

func TestPipeline_URLRestructuringWithoutNormalization(t *testing.T) {
	report, verdict := compareFixtures(t, testConfig(false), "previous.xml", "current_url_restructured.xml")

	if !verdict.Changed {
		t.Fatal("Expected a change when normalization is disabled")
	}

	if verdict.Reason != "Content changed: 0 added, 0 removed, 3 modified" {
		t.Errorf("Reason = %q", verdict.Reason)
	}

	for _, m := range report.Modified {
		if m.Kind != detector.LinkChanged {
			t.Errorf("Kind = %s, want %s for %q", m.Kind, detector.LinkChanged, m.Current.Title)
		}
	}
}

func TestPipeline_ContentChanged(t *testing.T) {
	report, verdict := compareFixtures(t, testConfig(true), "previous.xml", "current_changed.xml")

	if verdict.Reason != "Content changed: 1 added, 1 removed, 1 modified" {
		t.Fatalf("Reason = %q", verdict.Reason)
	}

	if report.Added[0].ImageURL != "https://images.mlssoccer.com/playoffs.jpg" {
		t.Errorf("Added image = %q", report.Added[0].ImageURL)
	}

	if report.Removed[0].Title != "MLS NEXT Cup qualifiers set" {
		t.Errorf("Removed = %q", report.Removed[0].Title)
	}

	if m := report.Modified[0]; m.Kind != detector.TitleChanged {
		t.Errorf("Modified kind = %s, want %s", m.Kind, detector.TitleChanged)
	}

	summary := formatter.Summary(report, verdict, formatter.SummaryOptions{Source: "MLS NEXT News", Samples: 5})
	for _, want := range []string{"## 🔄 Feed change check: MLS NEXT News", "### Added (1)", "### URLs normalized (2)"} {
		if !strings.Contains(summary, want) {
			t.Errorf("Summary missing %q", want)
		}
	}
}

func TestPipeline_RemotePrevious(t *testing.T) {
	content, err := os.ReadFile(fixture("previous.xml"))
	if err != nil {
		t.Fatalf("Failed to read fixture: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write(content)
	}))
	defer server.Close()

	cfg := testConfig(true)
	loader := snapshot.NewLoader(cfg, nil)

	remote, err := loader.Load(context.Background(), server.URL+"/mls_next_news.xml")
	if err != nil {
		t.Fatalf("Load(remote) failed: %v", err)
	}

	local, err := loader.Load(context.Background(), fixture("current_url_restructured.xml"))
	if err != nil {
		t.Fatalf("Load(local) failed: %v", err)
	}

	if _, verdict := detector.FromConfig(cfg, nil).Compare(remote.Articles, local.Articles); verdict.Changed {
		t.Errorf("Expected no change against remote previous, got %+v", verdict)
	}
}

func TestPipeline_RenderRoundTrip(t *testing.T) {
	cfg := testConfig(true)

	snap, err := snapshot.NewLoader(cfg, nil).Load(context.Background(), fixture("current_changed.xml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	rss, err := feed.Render(snap.Channel, snap.Articles, time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	doc, err := feed.NewParser(nil).Parse([]byte(rss), cfg.Detection.MaxArticles)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	det := detector.FromConfig(cfg, nil)
	if got, want := det.Fingerprint(doc.Articles), det.Fingerprint(snap.Articles); got != want {
		t.Errorf("fingerprint after round trip = %s, want %s", got, want)
	}
}
