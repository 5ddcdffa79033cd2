// Package playlist parses remote playlist documents into channel-source
// records. Formats are handled by parser strategies tried in order; the first
// strategy whose cheap sniff accepts the document wins.
package playlist

import (
	"errors"
	"fmt"

	"github.com/ducktv/ducktv/internal/catalog"
)

// Document is the parsed form of one playlist: sources in document order plus
// any guide-URL hints carried in the header.
type Document struct {
	Sources   []catalog.Source
	GuideURLs []string
}

// Parser is one playlist-format strategy.
type Parser interface {
	// Name identifies the strategy in logs and errors.
	Name() string
	// Supports is a cheap sniff: may the document be parsed by this strategy?
	// url is the document's origin and is only used for format hints.
	Supports(url, data string) bool
	// Parse turns the document into sources. Routine malformations are
	// absorbed; an error here means the document defeated even tolerant
	// parsing.
	Parse(url, data string) (*Document, error)
}

// ErrNoParser is returned when no strategy accepts a document. Fatal for that
// playlist URL.
var ErrNoParser = errors.New("playlist: no parser supports document")

// Default returns the built-in strategy order.
func Default() []Parser {
	return []Parser{M3U{}}
}

// Parse runs the first supporting strategy. parsers may be nil for Default().
func Parse(parsers []Parser, url, data string) (*Document, error) {
	if parsers == nil {
		parsers = Default()
	}
	for _, p := range parsers {
		if p.Supports(url, data) {
			doc, err := p.Parse(url, data)
			if err != nil {
				return nil, fmt.Errorf("playlist: %s: %w", p.Name(), err)
			}
			return doc, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNoParser, url)
}
