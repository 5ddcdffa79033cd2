package epg

import (
	"errors"
	"strings"
	"testing"
)

const sampleGuide = `<?xml version="1.0" encoding="UTF-8"?>
<tv generator-info-name="test">
  <channel id="c1">
    <display-name>One</display-name>
    <icon src="http://img/one.png"/>
  </channel>
  <channel id="c2">
    <display-name>Two</display-name>
  </channel>
  <programme channel="c1" start="20240101120000 +0000" stop="20240101130000 +0000">
    <title>Show</title>
    <desc>ignored</desc>
  </programme>
  <programme channel="c1" start="20240101130000 +0000" stop="20240101140000 +0000">
    <title>After Show</title>
  </programme>
  <programme channel="ghost" start="20240101120000 +0000" stop="20240101130000 +0000">
    <title>Orphan</title>
  </programme>
</tv>`

func TestParseGuide(t *testing.T) {
	ix, err := ParseGuide(strings.NewReader(sampleGuide))
	if err != nil {
		t.Fatalf("ParseGuide: %v", err)
	}
	if ix.Len() != 2 {
		t.Fatalf("channels = %d, want 2", ix.Len())
	}
	c1 := ix.Find("c1")
	if c1 == nil || c1.Title != "One" {
		t.Fatalf("c1 = %+v, want title One", c1)
	}
	if len(c1.Programmes) != 2 {
		t.Fatalf("c1 programmes = %d, want 2", len(c1.Programmes))
	}
	if c1.Programmes[0].Title != "Show" {
		t.Errorf("programme title = %q, want Show", c1.Programmes[0].Title)
	}
	if c1.Programmes[0].Start != 1704110400000 || c1.Programmes[0].Stop != 1704114000000 {
		t.Errorf("programme times = %d..%d", c1.Programmes[0].Start, c1.Programmes[0].Stop)
	}
}

// Programmes whose channel id was never registered earlier in the document
// are dropped, so every surviving programme has an owner.
func TestParseGuideDropsOrphans(t *testing.T) {
	ix, err := ParseGuide(strings.NewReader(sampleGuide))
	if err != nil {
		t.Fatalf("ParseGuide: %v", err)
	}
	for _, ch := range ix.Channels() {
		for _, p := range ch.Programmes {
			if ix.Find(p.ChannelID) == nil {
				t.Errorf("orphan programme %q survived for unknown channel %q", p.Title, p.ChannelID)
			}
		}
	}
	if ix.Find("ghost") != nil {
		t.Error("orphan programme created a channel")
	}
}

// Some feeds repeat a <channel> tag for an id mid-document. The repeat
// updates the title and must keep the programmes accumulated so far.
func TestParseGuideRepeatedChannelKeepsProgrammes(t *testing.T) {
	doc := `<tv>
  <channel id="c1"><display-name>One</display-name></channel>
  <programme channel="c1" start="20240101120000 +0000" stop="20240101130000 +0000"><title>Show</title></programme>
  <channel id="c1"><display-name>One Renamed</display-name></channel>
</tv>`
	ix, err := ParseGuide(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("ParseGuide: %v", err)
	}
	c1 := ix.Find("c1")
	if c1.Title != "One Renamed" {
		t.Errorf("title = %q, want the later one", c1.Title)
	}
	if len(c1.Programmes) != 1 {
		t.Errorf("programmes = %d, want 1 (preserved across repeat)", len(c1.Programmes))
	}
}

func TestParseGuideMalformedTimestamps(t *testing.T) {
	doc := `<tv>
  <channel id="c1"><display-name>One</display-name></channel>
  <programme channel="c1" start="short" stop="20240101"><title>Zeroed</title></programme>
</tv>`
	ix, err := ParseGuide(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("ParseGuide: %v", err)
	}
	p := ix.Find("c1").Programmes[0]
	if p.Start != 0 || p.Stop != 0 {
		t.Errorf("malformed timestamps = %d..%d, want 0..0", p.Start, p.Stop)
	}
	if p.Title != "Zeroed" {
		t.Errorf("record dropped instead of zeroed: %+v", p)
	}
}

func TestParseGuideUnknownStructureSkipped(t *testing.T) {
	doc := `<tv>
  <weird><nested><deep>stuff</deep></nested></weird>
  <channel id="c1"><display-name>One</display-name></channel>
</tv>`
	ix, err := ParseGuide(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("ParseGuide: %v", err)
	}
	if ix.Find("c1") == nil {
		t.Fatal("channel after unknown structure was lost")
	}
}

func TestParseGuideCatastrophicMalformed(t *testing.T) {
	_, err := ParseGuide(strings.NewReader(`<tv><channel id="c1"><display-name>One`))
	if err == nil {
		t.Fatal("want ParseError for truncated document")
	}
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error type = %T, want *ParseError", err)
	}
}
