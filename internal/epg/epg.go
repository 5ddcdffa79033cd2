// Package epg fetches nothing itself: it decodes, parses, indexes and matches
// XMLTV-style program-guide documents against the channel catalog.
package epg

// Programme is one scheduled airing. Start/Stop are epoch milliseconds;
// malformed source timestamps become 0 (epoch start), never a rejected record.
type Programme struct {
	ChannelID string `json:"channel_id"`
	Start     int64  `json:"start"`
	Stop      int64  `json:"stop"`
	Title     string `json:"title"`
}

// Airing reports whether now falls in [Start, Stop).
func (p Programme) Airing(now int64) bool {
	return now >= p.Start && now < p.Stop
}

// GuideChannel is one guide entry: an id, a display title, and programmes in
// document order. Document order is not guaranteed time-sorted.
type GuideChannel struct {
	ID         string      `json:"id"`
	Title      string      `json:"title"`
	Programmes []Programme `json:"programmes"`
}

// NowNext returns the currently-airing programme and its immediate successor
// in document order. current is nil when nothing airs at now; next is nil
// when current is the last list entry.
func (c *GuideChannel) NowNext(now int64) (current, next *Programme) {
	for i := range c.Programmes {
		if c.Programmes[i].Airing(now) {
			current = &c.Programmes[i]
			if i+1 < len(c.Programmes) {
				next = &c.Programmes[i+1]
			}
			return current, next
		}
	}
	return nil, nil
}

// Index is the merged guide: guide channels in first-seen order, deduplicated
// by id (first-seen wins).
type Index struct {
	order []string
	byID  map[string]*GuideChannel
}

func NewIndex() *Index {
	return &Index{byID: make(map[string]*GuideChannel)}
}

// Add inserts ch unless its id is already present.
func (ix *Index) Add(ch *GuideChannel) {
	if _, dup := ix.byID[ch.ID]; dup {
		return
	}
	ix.order = append(ix.order, ch.ID)
	ix.byID[ch.ID] = ch
}

// Merge folds other into ix, keeping first-seen entries on id collision.
func (ix *Index) Merge(other *Index) {
	if other == nil {
		return
	}
	for _, id := range other.order {
		ix.Add(other.byID[id])
	}
}

// Find returns the guide channel with the given id, or nil.
func (ix *Index) Find(id string) *GuideChannel {
	return ix.byID[id]
}

// Channels returns the guide channels in first-seen order.
func (ix *Index) Channels() []*GuideChannel {
	out := make([]*GuideChannel, len(ix.order))
	for i, id := range ix.order {
		out[i] = ix.byID[id]
	}
	return out
}

// Len returns the number of guide channels.
func (ix *Index) Len() int { return len(ix.order) }

// Match resolves the guide channel for a catalog channel with the given
// identity name and display title. Tiers, first hit wins: exact id match
// against the name, exact title match, then guide title against the name.
// nil means "no programme data for this channel", not an error.
func (ix *Index) Match(name, title string) *GuideChannel {
	if ch := ix.byID[name]; ch != nil {
		return ch
	}
	if title != "" {
		for _, id := range ix.order {
			if ix.byID[id].Title == title {
				return ix.byID[id]
			}
		}
	}
	if name != "" {
		for _, id := range ix.order {
			if ix.byID[id].Title == name {
				return ix.byID[id]
			}
		}
	}
	return nil
}
