package detector

import (
	"cmp"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"

	"feedwatch/internal/models"
	"feedwatch/internal/normalizer"
)

// Digest is a hex-encoded SHA-256 content fingerprint.
type Digest string

// Short returns the first 12 characters, enough for log lines.
func (d Digest) Short() string {
	if len(d) > 12 {
		return string(d[:12])
	}

	return string(d)
}

// Fingerprint hashes the identity set of articles. Input order and duplicate
// identities do not affect the result; neither do description, image or date.
func Fingerprint(n *normalizer.Normalizer, articles []models.Article) Digest {
	seen := make(map[Key]struct{}, len(articles))
	keys := make([]Key, 0, len(articles))

	for _, a := range articles {
		key := KeyOf(n, a)
		if _, ok := seen[key]; ok {
			continue
		}

		seen[key] = struct{}{}
		keys = append(keys, key)
	}

	slices.SortFunc(keys, func(a, b Key) int {
		if c := cmp.Compare(a.Title, b.Title); c != 0 {
			return c
		}

		return cmp.Compare(a.Link, b.Link)
	})

	h := sha256.New()
	for _, k := range keys {
		// Length prefixes keep ("ab", "c") and ("a", "bc") apart.
		fmt.Fprintf(h, "%d:%s%d:%s", len(k.Title), k.Title, len(k.Link), k.Link)
	}

	return Digest(hex.EncodeToString(h.Sum(nil)))
}
