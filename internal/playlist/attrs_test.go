package playlist

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseAttributes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want map[string]string
	}{
		{
			name: "basic pairs",
			in:   `tvg-id="c1" tvg-name="One" group-title="News"`,
			want: map[string]string{"tvg-id": "c1", "tvg-name": "One", "group-title": "News"},
		},
		{
			name: "duplicate key last wins",
			in:   `a="1" a="2"`,
			want: map[string]string{"a": "2"},
		},
		{
			name: "duration prefix ignored, bare value",
			in:   `-1 tvg-id=c1 x="y"`,
			want: map[string]string{"tvg-id": "c1", "x": "y"},
		},
		{
			name: "value with spaces",
			in:   `group-title="US | Sports HD"`,
			want: map[string]string{"group-title": "US | Sports HD"},
		},
		{
			name: "unterminated quote keeps partial",
			in:   `a="1" b="unterminated`,
			want: map[string]string{"a": "1"},
		},
		{
			name: "no equals stops scan",
			in:   `a="1" junk`,
			want: map[string]string{"a": "1"},
		},
		{
			name: "empty input",
			in:   "",
			want: map[string]string{},
		},
		{
			name: "adjacent quoted values collapse",
			in:   `url="a","b"`,
			want: map[string]string{"url": "a,b"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseAttributes(tt.in)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseAttributes(%q) mismatch (-want +got):\n%s", tt.in, diff)
			}
		})
	}
}
