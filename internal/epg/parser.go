package epg

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

// ParseError reports catastrophic XML malformedness. Routine oddities —
// unknown tags, missing attributes, forward-referencing programmes — are
// absorbed during parsing and never surface as errors.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return "epg: parse guide: " + e.Err.Error() }
func (e *ParseError) Unwrap() error { return e.Err }

// ParseGuide streams an XMLTV-style document and builds a guide index. Guide
// documents routinely carry tens of thousands of programme entries, so this
// walks decoder tokens instead of unmarshalling a DOM.
//
// A <channel> element registers (or updates the title of) the entry for its
// id. A repeated id keeps the programmes accumulated so far; dropping them on
// a duplicate header would lose data for no benefit. A <programme> element
// appends to the entry named by its channel attribute and is dropped when
// that id has not been registered earlier in the same document.
func ParseGuide(r io.Reader) (*Index, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel

	ix := NewIndex()
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &ParseError{Err: err}
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch se.Name.Local {
		case "channel":
			id := attrValue(se, "id")
			title, err := firstChildText(dec)
			if err != nil {
				return nil, &ParseError{Err: err}
			}
			if id == "" {
				continue
			}
			if existing := ix.Find(id); existing != nil {
				existing.Title = title
			} else {
				ix.Add(&GuideChannel{ID: id, Title: title})
			}
		case "programme":
			channelID := attrValue(se, "channel")
			start := ParseTime(attrValue(se, "start"))
			stop := ParseTime(attrValue(se, "stop"))
			title, err := firstChildText(dec)
			if err != nil {
				return nil, &ParseError{Err: err}
			}
			ch := ix.Find(channelID)
			if ch == nil {
				continue
			}
			ch.Programmes = append(ch.Programmes, Programme{
				ChannelID: channelID,
				Start:     start,
				Stop:      stop,
				Title:     title,
			})
		}
	}
	return ix, nil
}

func attrValue(se xml.StartElement, name string) string {
	for _, a := range se.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// firstChildText descends to the next child element and returns its text
// content, consuming through that child's end tag. Returns "" when the
// enclosing element ends before any child appears. Mirrors a pull-parser's
// nextTag+nextText step, so whichever child comes first supplies the text.
func firstChildText(dec *xml.Decoder) (string, error) {
	for {
		tok, err := dec.Token()
		if err != nil {
			return "", err
		}
		switch tok.(type) {
		case xml.StartElement:
			var sb strings.Builder
			for {
				tok2, err := dec.Token()
				if err != nil {
					return "", err
				}
				switch t2 := tok2.(type) {
				case xml.CharData:
					sb.Write(t2)
				case xml.StartElement:
					// Markup inside the text node; skip it whole.
					if err := dec.Skip(); err != nil {
						return "", err
					}
				case xml.EndElement:
					return strings.TrimSpace(sb.String()), nil
				}
			}
		case xml.EndElement:
			return "", nil
		}
	}
}
