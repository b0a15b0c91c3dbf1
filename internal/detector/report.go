package detector

import (
	"feedwatch/internal/models"
	"feedwatch/internal/normalizer"
)

// ChangeKind says which half of an article's identity changed.
type ChangeKind string

// Modification kinds.
const (
	TitleChanged ChangeKind = "title_changed"
	LinkChanged  ChangeKind = "link_changed"
)

// Modification pairs the two versions of an article whose title or link changed.
type Modification struct {
	Kind     ChangeKind     `json:"kind"`
	Previous models.Article `json:"previous"`
	Current  models.Article `json:"current"`
}

// URLChange is an article matched only after normalization. It is not a
// content change.
type URLChange struct {
	Title          string          `json:"title"`
	PreviousLink   string          `json:"previous_link"`
	CurrentLink    string          `json:"current_link"`
	NormalizedLink normalizer.Link `json:"normalized_link"`
}

// Report is the result of comparing two snapshots. It is built once per Diff
// and never updated afterwards.
type Report struct {
	Added         []models.Article `json:"added"`
	Removed       []models.Article `json:"removed"`
	Modified      []Modification   `json:"modified"`
	URLNormalized []URLChange      `json:"url_normalized"`
	Unchanged     []models.Article `json:"unchanged"`
	// Duplicates lists later occurrences of an identity already seen on the same side.
	Duplicates []models.Article `json:"duplicates,omitempty"`

	PreviousCount       int    `json:"previous_count"`
	CurrentCount        int    `json:"current_count"`
	PreviousFingerprint Digest `json:"previous_fingerprint"`
	CurrentFingerprint  Digest `json:"current_fingerprint"`
}

// Counts summarizes a report.
type Counts struct {
	Added         int `json:"added"`
	Removed       int `json:"removed"`
	Modified      int `json:"modified"`
	URLNormalized int `json:"url_normalized"`
	Unchanged     int `json:"unchanged"`
	Duplicates    int `json:"duplicates"`
}

// Counts returns the size of every bucket.
func (r *Report) Counts() Counts {
	if r == nil {
		return Counts{}
	}

	return Counts{
		Added:         len(r.Added),
		Removed:       len(r.Removed),
		Modified:      len(r.Modified),
		URLNormalized: len(r.URLNormalized),
		Unchanged:     len(r.Unchanged),
		Duplicates:    len(r.Duplicates),
	}
}

// HasContentChanges reports whether anything other than link normalization differs.
func (r *Report) HasContentChanges() bool {
	c := r.Counts()
	return c.Added+c.Removed+c.Modified > 0
}

// FingerprintsMatch reports whether both sides have the same identity set.
func (r *Report) FingerprintsMatch() bool {
	return r != nil && r.PreviousFingerprint == r.CurrentFingerprint
}
