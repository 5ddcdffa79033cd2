package epg

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
)

var gzipMagic = []byte{0x1f, 0x8b}

// DecodeDocument turns a fetched guide resource into XML text. The declared
// content type and the URL are hints only: text/* content or a known-plain
// extension passes through untouched, an explicit brotli hint decompresses
// with brotli, anything else is assumed gzip (guide feeds are conventionally
// shipped as .xml.gz). Decompression failure is the caller's fetch-level
// error for that URL, not a parse error.
func DecodeDocument(body []byte, contentType, url string) (string, error) {
	if isPlainText(contentType, url) {
		return string(body), nil
	}
	if isBrotli(contentType, url) {
		text, err := readAll(brotli.NewReader(bytes.NewReader(body)))
		if err != nil {
			return "", fmt.Errorf("decode brotli document: %w", err)
		}
		return text, nil
	}
	if !bytes.HasPrefix(body, gzipMagic) {
		// Undeclared but visibly uncompressed; treat as text.
		return string(body), nil
	}
	zr, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("decode gzip document: %w", err)
	}
	text, err := readAll(zr)
	if err != nil {
		return "", fmt.Errorf("decode gzip document: %w", err)
	}
	return text, nil
}

func isPlainText(contentType, url string) bool {
	if strings.HasPrefix(contentType, "text/") {
		return true
	}
	p := pathOf(url)
	for _, ext := range []string{".xml", ".m3u", ".m3u8", ".txt"} {
		if strings.HasSuffix(p, ext) {
			return true
		}
	}
	return false
}

func isBrotli(contentType, url string) bool {
	if strings.Contains(contentType, "brotli") || contentType == "application/br" {
		return true
	}
	return strings.HasSuffix(pathOf(url), ".br")
}

func pathOf(url string) string {
	u := strings.ToLower(url)
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	return u
}

func readAll(r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
