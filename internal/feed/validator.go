package feed

import (
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"
)

// Validator checks that a feed item carries the fields an article needs.
type Validator struct{}

// NewValidator creates a new validator instance.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks the item at index. Title and link are required; every
// other field degrades to its empty value.
func (v *Validator) Validate(item *gofeed.Item, index int) error {
	if item == nil || strings.TrimSpace(item.Title) == "" {
		return fmt.Errorf("%w at index %d", ErrMissingTitle, index)
	}

	if strings.TrimSpace(item.Link) == "" {
		return fmt.Errorf("%w at index %d", ErrMissingLink, index)
	}

	return nil
}
