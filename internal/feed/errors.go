package feed

import (
	"errors"
	"fmt"
)

// Item validation errors. Items failing validation are skipped, not fatal.
var (
	ErrMissingTitle = errors.New("item missing title")
	ErrMissingLink  = errors.New("item missing link")
)

// ParseError reports a document that is not well-formed feed markup.
// It is fatal for the comparison that needed the document.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse feed: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// DateParseError reports an item date that matched none of the known formats.
// The article is kept with an unknown publication date.
type DateParseError struct {
	Index int
	Value string
	Err   error
}

func (e *DateParseError) Error() string {
	return fmt.Sprintf("unparseable date %q at index %d: %v", e.Value, e.Index, e.Err)
}

func (e *DateParseError) Unwrap() error {
	return e.Err
}
