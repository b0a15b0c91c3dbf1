package detector

import (
	"strings"

	"feedwatch/internal/models"
	"feedwatch/internal/normalizer"
)

// Key is the identity of an article for change purposes. Description, image,
// date and position never take part in it.
type Key struct {
	Title string
	Link  normalizer.Link
}

func (k Key) String() string {
	return k.Title + " | " + string(k.Link)
}

// KeyOf builds the identity key of a. Titles are compared with runs of
// whitespace collapsed. A nil normalizer uses the raw link.
func KeyOf(n *normalizer.Normalizer, a models.Article) Key {
	link := normalizer.Link(a.Link)
	if n != nil {
		link = n.Normalize(a.Link)
	}

	return Key{
		Title: collapseSpace(a.Title),
		Link:  link,
	}
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

type entry struct {
	key     Key
	article models.Article
}

// index is an identity-keyed view of one side that keeps first-seen order.
type index struct {
	entries    []entry
	positions  map[Key]int
	duplicates []models.Article
}

func buildIndex(n *normalizer.Normalizer, articles []models.Article) *index {
	idx := &index{
		entries:   make([]entry, 0, len(articles)),
		positions: make(map[Key]int, len(articles)),
	}

	for _, a := range articles {
		key := KeyOf(n, a)
		if _, seen := idx.positions[key]; seen {
			idx.duplicates = append(idx.duplicates, a)
			continue
		}

		idx.positions[key] = len(idx.entries)
		idx.entries = append(idx.entries, entry{key: key, article: a})
	}

	return idx
}

// firstUnpaired returns the position of the first unused entry accepted by
// match, or -1.
func (idx *index) firstUnpaired(used []bool, match func(Key) bool) int {
	for i, e := range idx.entries {
		if !used[i] && match(e.key) {
			return i
		}
	}

	return -1
}
