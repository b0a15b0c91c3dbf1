package detector

import (
	"encoding/json"
	"math/rand"
	"strings"
	"testing"
	"time"

	"feedwatch/internal/config"
	"feedwatch/internal/models"
	"feedwatch/internal/normalizer"
)

const site = "https://www.mlssoccer.com"

func art(title, path string) models.Article {
	return models.Article{Title: title, Link: site + path}
}

func newTestDetector(disabled bool) *Detector {
	norm := normalizer.New(normalizer.Options{
		Domains:     []string{"mlssoccer.com", "www.mlssoccer.com"},
		PrimaryPath: "mlsnext",
		Disabled:    disabled,
	}, nil)

	return New(norm, nil)
}

var (
	articleA = art("Article A", "/mlsnext/news/article-a")
	articleB = art("Article B", "/mlsnext/news/article-b")
	articleC = art("Article C", "/mlsnext/news/article-c")
)

func TestFingerprint_OrderIndependent(t *testing.T) {
	d := newTestDetector(false)
	articles := []models.Article{
		articleA, articleB, articleC,
		art("Article D", "/allstar/2025/news/article-d"),
		{Title: "Elsewhere", Link: "https://example.com/story"},
	}

	want := d.Fingerprint(articles)
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 20; i++ {
		shuffled := append([]models.Article(nil), articles...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		if got := d.Fingerprint(shuffled); got != want {
			t.Fatalf("Fingerprint of permutation %d = %s, want %s", i, got, want)
		}
	}
}

func TestFingerprint_DuplicateCollapse(t *testing.T) {
	d := newTestDetector(false)
	articles := []models.Article{articleA, articleB}

	withDup := append(append([]models.Article(nil), articles...), articles[0])
	if d.Fingerprint(articles) != d.Fingerprint(withDup) {
		t.Error("Duplicate identity changed the fingerprint")
	}
}

func TestFingerprint_IgnoresNonIdentityFields(t *testing.T) {
	d := newTestDetector(false)
	published := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	decorated := articleA
	decorated.Description = "A brand new description"
	decorated.ImageURL = "https://images.example.com/a.jpg"
	decorated.PublishedAt = &published
	decorated.GUID = "guid-1"

	if d.Fingerprint([]models.Article{articleA}) != d.Fingerprint([]models.Article{decorated}) {
		t.Error("Non-identity fields changed the fingerprint")
	}
}

func TestFingerprint_SensitiveToIdentity(t *testing.T) {
	d := newTestDetector(false)
	base := d.Fingerprint([]models.Article{articleA, articleB})

	tests := []struct {
		name     string
		articles []models.Article
	}{
		{"added", []models.Article{articleA, articleB, articleC}},
		{"removed", []models.Article{articleA}},
		{"title changed", []models.Article{articleA, art("Article B v2", "/mlsnext/news/article-b")}},
		{"link changed", []models.Article{articleA, art("Article B", "/mlsnext/news/article-b-2")}},
		{"empty", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if d.Fingerprint(tt.articles) == base {
				t.Error("Expected fingerprint to change")
			}
		})
	}
}

func TestFingerprint_UnambiguousEncoding(t *testing.T) {
	a := []models.Article{{Title: "ab", Link: "c"}}
	b := []models.Article{{Title: "a", Link: "bc"}}

	if Fingerprint(nil, a) == Fingerprint(nil, b) {
		t.Error("Different identity pairs produced the same fingerprint")
	}
}

func TestFingerprint_URLRestructuringIsStable(t *testing.T) {
	d := newTestDetector(false)
	before := []models.Article{art("Title X", "/allstar/2025/news/slug-x")}
	after := []models.Article{art("Title X", "/mlsnext/news/slug-x")}

	if d.Fingerprint(before) != d.Fingerprint(after) {
		t.Error("Cosmetic URL restructuring changed the fingerprint")
	}

	if newTestDetector(true).Fingerprint(before) == newTestDetector(true).Fingerprint(after) {
		t.Error("Expected raw-link fingerprints to differ with normalization disabled")
	}
}

func TestFingerprint_Empty(t *testing.T) {
	// sha256 of no input
	const emptySHA256 = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

	if got := Fingerprint(nil, nil); got != emptySHA256 {
		t.Errorf("Fingerprint(nil) = %s, want %s", got, emptySHA256)
	}
}

func TestDigest_Short(t *testing.T) {
	if got := Digest("0123456789abcdef").Short(); got != "0123456789ab" {
		t.Errorf("Short() = %q", got)
	}

	if got := Digest("abc").Short(); got != "abc" {
		t.Errorf("Short() = %q", got)
	}
}

func TestDiff(t *testing.T) {
	tests := []struct {
		name          string
		disabled      bool
		previous      []models.Article
		current       []models.Article
		want          Counts
		wantChanged   bool
		wantReason    string
		wantSameHash  bool
		checkModified ChangeKind
	}{
		{
			name:         "no-op",
			previous:     []models.Article{articleA, articleB},
			current:      []models.Article{articleA, articleB},
			want:         Counts{Unchanged: 2},
			wantReason:   "No content changes detected",
			wantSameHash: true,
		},
		{
			name:         "reordered",
			previous:     []models.Article{articleA, articleB, articleC},
			current:      []models.Article{articleC, articleA, articleB},
			want:         Counts{Unchanged: 3},
			wantReason:   "No content changes detected",
			wantSameHash: true,
		},
		{
			name:         "url-only change",
			previous:     []models.Article{art("Title X", "/catA/news/slug-x")},
			current:      []models.Article{art("Title X", "/catB/news/slug-x")},
			want:         Counts{URLNormalized: 1},
			wantReason:   "No content changes detected (URLs normalized: 1 article(s))",
			wantSameHash: true,
		},
		{
			name:          "url-only change with normalization disabled",
			disabled:      true,
			previous:      []models.Article{art("Title X", "/catA/news/slug-x")},
			current:       []models.Article{art("Title X", "/catB/news/slug-x")},
			want:          Counts{Modified: 1},
			wantChanged:   true,
			wantReason:    "Content changed: 0 added, 0 removed, 1 modified",
			checkModified: LinkChanged,
		},
		{
			name:          "title change",
			previous:      []models.Article{art("Old Title", "/mlsnext/news/slug-x")},
			current:       []models.Article{art("New Title", "/mlsnext/news/slug-x")},
			want:          Counts{Modified: 1},
			wantChanged:   true,
			wantReason:    "Content changed: 0 added, 0 removed, 1 modified",
			checkModified: TitleChanged,
		},
		{
			name:          "title change across restructuring",
			previous:      []models.Article{art("Old Title", "/allstar/2025/news/slug-x")},
			current:       []models.Article{art("New Title", "/mlsnext/news/slug-x")},
			want:          Counts{Modified: 1},
			wantChanged:   true,
			wantReason:    "Content changed: 0 added, 0 removed, 1 modified",
			checkModified: TitleChanged,
		},
		{
			name:          "link change",
			previous:      []models.Article{art("Title X", "/mlsnext/news/slug-x")},
			current:       []models.Article{art("Title X", "/mlsnext/news/slug-y")},
			want:          Counts{Modified: 1},
			wantChanged:   true,
			wantReason:    "Content changed: 0 added, 0 removed, 1 modified",
			checkModified: LinkChanged,
		},
		{
			name:         "whitespace-only title difference with url restructuring",
			previous:     []models.Article{art("Title  X ", "/allstar/2025/news/slug-x")},
			current:      []models.Article{art("Title X", "/mlsnext/news/slug-x")},
			want:         Counts{URLNormalized: 1},
			wantReason:   "No content changes detected (URLs normalized: 1 article(s))",
			wantSameHash: true,
		},
		{
			name:        "add and remove",
			previous:    []models.Article{articleA, articleB},
			current:     []models.Article{articleA, articleC},
			want:        Counts{Added: 1, Removed: 1, Unchanged: 1},
			wantChanged: true,
			wantReason:  "Content changed: 1 added, 1 removed, 0 modified",
		},
		{
			name:        "title and link both differ",
			previous:    []models.Article{art("Old Title", "/mlsnext/news/old-slug")},
			current:     []models.Article{art("New Title", "/mlsnext/news/new-slug")},
			want:        Counts{Added: 1, Removed: 1},
			wantChanged: true,
			wantReason:  "Content changed: 1 added, 1 removed, 0 modified",
		},
		{
			name:        "empty to non-empty",
			previous:    nil,
			current:     []models.Article{articleA},
			want:        Counts{Added: 1},
			wantChanged: true,
			wantReason:  "Content changed: 1 added, 0 removed, 0 modified",
		},
		{
			name:        "non-empty to empty",
			previous:    []models.Article{articleA},
			current:     []models.Article{},
			want:        Counts{Removed: 1},
			wantChanged: true,
			wantReason:  "Content changed: 0 added, 1 removed, 0 modified",
		},
		{
			name:         "both empty",
			want:         Counts{},
			wantReason:   "No content changes detected",
			wantSameHash: true,
		},
		{
			name:         "description change only",
			previous:     []models.Article{{Title: "Article A", Link: articleA.Link, Description: "old"}},
			current:      []models.Article{{Title: "Article A", Link: articleA.Link, Description: "new"}},
			want:         Counts{Unchanged: 1},
			wantReason:   "No content changes detected",
			wantSameHash: true,
		},
		{
			name:         "duplicates on one side",
			previous:     []models.Article{articleA, articleB, articleA},
			current:      []models.Article{articleA, articleB},
			want:         Counts{Unchanged: 2, Duplicates: 1},
			wantReason:   "No content changes detected",
			wantSameHash: true,
		},
		{
			name:         "unrecognized domain compared raw",
			previous:     []models.Article{{Title: "Elsewhere", Link: "https://example.com/catA/news/slug"}},
			current:      []models.Article{{Title: "Elsewhere", Link: "https://example.com/catA/news/slug"}},
			want:         Counts{Unchanged: 1},
			wantReason:   "No content changes detected",
			wantSameHash: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDetector(tt.disabled)

			report, verdict := d.Compare(tt.previous, tt.current)

			if got := report.Counts(); got != tt.want {
				t.Errorf("Counts() = %+v, want %+v", got, tt.want)
			}

			if verdict.Changed != tt.wantChanged {
				t.Errorf("Changed = %v, want %v", verdict.Changed, tt.wantChanged)
			}

			if verdict.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", verdict.Reason, tt.wantReason)
			}

			if report.FingerprintsMatch() != tt.wantSameHash {
				t.Errorf("FingerprintsMatch() = %v, want %v", report.FingerprintsMatch(), tt.wantSameHash)
			}

			if tt.checkModified != "" && report.Modified[0].Kind != tt.checkModified {
				t.Errorf("Modified[0].Kind = %q, want %q", report.Modified[0].Kind, tt.checkModified)
			}
		})
	}
}

func TestDiff_Details(t *testing.T) {
	d := newTestDetector(false)

	previous := []models.Article{
		art("Title X", "/catA/news/slug-x"),
		art("Old Title", "/mlsnext/news/slug-y"),
		articleB,
	}
	current := []models.Article{
		articleC,
		art("New Title", "/mlsnext/news/slug-y"),
		art("Title X", "/catB/news/slug-x"),
	}

	report := d.Diff(previous, current)

	if len(report.URLNormalized) != 1 {
		t.Fatalf("len(URLNormalized) = %d, want 1", len(report.URLNormalized))
	}

	change := report.URLNormalized[0]
	if change.PreviousLink != site+"/catA/news/slug-x" || change.CurrentLink != site+"/catB/news/slug-x" {
		t.Errorf("URLChange links = %q -> %q", change.PreviousLink, change.CurrentLink)
	}

	if change.NormalizedLink != "mlssoccer.com/article/slug-x" {
		t.Errorf("NormalizedLink = %q", change.NormalizedLink)
	}

	if len(report.Modified) != 1 || report.Modified[0].Previous.Title != "Old Title" || report.Modified[0].Current.Title != "New Title" {
		t.Errorf("Modified = %+v, want Old Title -> New Title", report.Modified)
	}

	if len(report.Added) != 1 || report.Added[0].Title != articleC.Title {
		t.Errorf("Added = %+v, want [Article C]", report.Added)
	}

	if len(report.Removed) != 1 || report.Removed[0].Title != articleB.Title {
		t.Errorf("Removed = %+v, want [Article B]", report.Removed)
	}

	if report.PreviousCount != 3 || report.CurrentCount != 3 {
		t.Errorf("counts = %d/%d, want 3/3", report.PreviousCount, report.CurrentCount)
	}
}

func TestDiff_PairsInPreviousOrder(t *testing.T) {
	d := newTestDetector(false)

	previous := []models.Article{
		art("Same Title", "/mlsnext/news/first"),
		art("Same Title", "/mlsnext/news/second"),
	}
	current := []models.Article{
		art("Same Title", "/mlsnext/news/third"),
	}

	report := d.Diff(previous, current)

	if len(report.Modified) != 1 || report.Modified[0].Previous.Link != site+"/mlsnext/news/first" {
		t.Errorf("Modified = %+v, want pairing with the first previous article", report.Modified)
	}

	if len(report.Removed) != 1 || report.Removed[0].Link != site+"/mlsnext/news/second" {
		t.Errorf("Removed = %+v, want the second previous article", report.Removed)
	}
}

func TestDiff_Deterministic(t *testing.T) {
	d := newTestDetector(false)
	previous := []models.Article{articleA, articleB, art("Old", "/mlsnext/news/x")}
	current := []models.Article{articleC, art("New", "/mlsnext/news/x"), articleA}

	first := d.Diff(previous, current)
	for i := 0; i < 10; i++ {
		again := d.Diff(previous, current)
		if again.Counts() != first.Counts() || again.CurrentFingerprint != first.CurrentFingerprint {
			t.Fatalf("Diff run %d differs: %+v vs %+v", i, again.Counts(), first.Counts())
		}
	}
}

func TestDiff_EmptyBucketsMarshalAsArrays(t *testing.T) {
	d := newTestDetector(true)

	tests := []struct {
		name              string
		previous, current []models.Article
	}{
		{"both empty", nil, nil},
		{"identical", []models.Article{articleA}, []models.Article{articleA}},
		{"only additions", nil, []models.Article{articleA}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(d.Diff(tt.previous, tt.current))
			if err != nil {
				t.Fatalf("Marshal failed: %v", err)
			}

			if strings.Contains(string(data), "null") {
				t.Errorf("report JSON contains null: %s", data)
			}

			for _, key := range []string{`"added":[`, `"removed":[`, `"modified":[`, `"url_normalized":[`, `"unchanged":[`} {
				if !strings.Contains(string(data), key) {
					t.Errorf("report JSON missing %s: %s", key, data)
				}
			}
		})
	}
}

func TestDecide_NilReport(t *testing.T) {
	v := Decide(nil)
	if v.Changed || v.Reason != "No content changes detected" {
		t.Errorf("Decide(nil) = %+v", v)
	}
}

func TestFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Detection.EnableURLNormalization = false

	d := FromConfig(cfg, nil)
	if d.Normalizer().Enabled() {
		t.Error("Expected normalization disabled from config")
	}

	cfg = config.Default()
	if !FromConfig(cfg, nil).Normalizer().Recognizes("www.mlssoccer.com") {
		t.Error("Expected default domains to be recognized")
	}
}
