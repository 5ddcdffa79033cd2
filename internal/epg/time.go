package epg

import "time"

// XMLTV timestamp: fixed-width local time plus a numeric zone offset.
const timeLayout = "20060102150405 -0700"

// ParseTime parses an XMLTV timestamp to epoch milliseconds. Any string
// shorter than 14 characters parses to 0, as does anything the layout cannot
// digest; 0 sorts as epoch start rather than rejecting the record. A missing
// zone suffix is read as UTC.
func ParseTime(s string) int64 {
	if len(s) < 14 {
		return 0
	}
	if t, err := time.Parse(timeLayout, s); err == nil {
		return t.UnixMilli()
	}
	if t, err := time.Parse(timeLayout[:14], s[:14]); err == nil {
		return t.UnixMilli()
	}
	return 0
}
