package epg

import "testing"

func TestParseTime(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"20240101120000 +0000", 1704110400000},
		{"20240101120000 +0800", 1704081600000},
		{"20240101120000", 1704110400000}, // missing zone reads as UTC
		{"", 0},
		{"2024", 0},
		{"1234567890123", 0}, // 13 chars, under the fixed width
		{"garbagegarbage +0000", 0},
	}
	for _, tt := range tests {
		if got := ParseTime(tt.in); got != tt.want {
			t.Errorf("ParseTime(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParseTimeDeterministic(t *testing.T) {
	a := ParseTime("20240101120000 +0000")
	b := ParseTime("20240101120000 +0000")
	if a != b || a == 0 {
		t.Fatalf("ParseTime not deterministic: %d vs %d", a, b)
	}
}
