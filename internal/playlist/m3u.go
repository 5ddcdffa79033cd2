package playlist

import (
	"bufio"
	"strings"

	"github.com/ducktv/ducktv/internal/catalog"
)

const m3uMarker = "#EXTM3U"

// M3U parses the extended-M3U dialect: a #EXTM3U header line that may carry
// an x-tvg-url guide hint, then repeated #EXTINF metadata lines each followed
// by a URL line.
type M3U struct{}

func (M3U) Name() string { return "m3u" }

// Supports accepts documents starting with the M3U marker, or any document
// fetched from a .m3u/.m3u8 URL.
func (M3U) Supports(url, data string) bool {
	if strings.HasPrefix(strings.TrimSpace(data), m3uMarker) {
		return true
	}
	u := strings.ToLower(url)
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	return strings.HasSuffix(u, ".m3u") || strings.HasSuffix(u, ".m3u8")
}

// Parse scans the document line by line. A pending #EXTINF is bound to the
// next non-comment line; a pending #EXTINF with no URL line (two metadata
// lines in a row, or end of document) is dropped. Blank lines and other
// comments are skipped. Nothing here returns an error: a hostile document
// degrades to fewer sources, never to a failed playlist.
func (M3U) Parse(url, data string) (*Document, error) {
	doc := &Document{}

	var pending *catalog.Source
	sc := bufio.NewScanner(strings.NewReader(data))
	sc.Buffer(nil, 512*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, m3uMarker):
			attrs := ParseAttributes(line[len(m3uMarker):])
			for _, u := range strings.Split(attrs["x-tvg-url"], ",") {
				if u = strings.TrimSpace(u); u != "" {
					doc.GuideURLs = append(doc.GuideURLs, u)
				}
			}
		case strings.HasPrefix(line, "#EXTINF:"):
			pending = parseEXTINF(line)
		case strings.HasPrefix(line, "#"):
			continue
		default:
			if pending != nil {
				src := *pending
				src.URL = line
				doc.Sources = append(doc.Sources, src)
				pending = nil
			}
		}
	}
	if err := sc.Err(); err != nil {
		// Only possible for pathological line lengths; the sources scanned
		// before the bad line are still good.
		return doc, nil
	}
	return doc, nil
}

// parseEXTINF splits a metadata line at its last comma: the trailing segment
// is the display title, the leading portion carries the duration and the
// attribute run.
func parseEXTINF(line string) *catalog.Source {
	body := strings.TrimPrefix(line, "#EXTINF:")
	var meta, title string
	if idx := strings.LastIndex(body, ","); idx >= 0 {
		meta, title = body[:idx], strings.TrimSpace(body[idx+1:])
	} else {
		meta = body
	}
	attrs := ParseAttributes(meta)
	return &catalog.Source{
		TvgID:      attrs["tvg-id"],
		TvgName:    attrs["tvg-name"],
		TvgLogo:    attrs["tvg-logo"],
		GroupTitle: attrs["group-title"],
		Title:      title,
	}
}
