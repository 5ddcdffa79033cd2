package playlist

import "strings"

// ParseAttributes scans a run of key="value" pairs (quoted or bare values)
// and returns them as a map. Keys are case-sensitive and kept as written;
// the last occurrence of a duplicate key wins. Values are the exact quoted
// content, no unescaping.
//
// Playlist metadata comes from untrusted third-party text with inconsistent
// quoting, so the scanner is tolerant on purpose: an unterminated quote or a
// remainder with no "=" stops the scan and the pairs collected so far are
// returned. It never fails.
func ParseAttributes(s string) map[string]string {
	attrs := make(map[string]string)
	// Collapse the `","` artifact some generators emit between adjacent
	// quoted values, so the pair survives as one comma-joined value.
	rest := strings.ReplaceAll(strings.TrimSpace(s), `","`, ",")
	for rest != "" {
		eq := strings.IndexByte(rest, '=')
		if eq < 0 {
			break
		}
		key := strings.TrimSpace(rest[:eq])
		// A non-attribute prefix (the EXTINF duration field) may precede the
		// first key; the key proper is the segment after the last space.
		if idx := strings.LastIndex(key, " "); idx >= 0 {
			key = key[idx+1:]
		}
		rest = strings.TrimSpace(rest[eq+1:])
		var val string
		if strings.HasPrefix(rest, `"`) {
			end := strings.IndexByte(rest[1:], '"')
			if end < 0 {
				break // unterminated quote: keep partial result
			}
			val = rest[1 : 1+end]
			rest = strings.TrimSpace(rest[2+end:])
		} else {
			sp := strings.IndexByte(rest, ' ')
			if sp < 0 {
				val, rest = rest, ""
			} else {
				val = rest[:sp]
				rest = strings.TrimSpace(rest[sp+1:])
			}
		}
		attrs[key] = val
	}
	return attrs
}
