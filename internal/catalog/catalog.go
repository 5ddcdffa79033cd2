// Package catalog defines the channel catalog value types and the merge pass
// that turns raw playlist sources into channels grouped by category.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultGroupTitle is the group label assigned to channels whose sources
// carry no group-title attribute.
const DefaultGroupTitle = "Other"

// Source is one playlist entry: a playback URL plus optional guide metadata.
// Immutable once parsed.
type Source struct {
	TvgID      string `json:"tvg_id,omitempty"`
	TvgName    string `json:"tvg_name,omitempty"`
	TvgLogo    string `json:"tvg_logo,omitempty"`
	GroupTitle string `json:"group_title,omitempty"`
	Title      string `json:"title"`
	URL        string `json:"url"`
}

// Key is the channel identity key: the first non-empty of tvg-name, tvg-id,
// title. Sources sharing a key merge into one Channel.
func (s Source) Key() string {
	if s.TvgName != "" {
		return s.TvgName
	}
	if s.TvgID != "" {
		return s.TvgID
	}
	return s.Title
}

// Channel is the merged view of all Sources sharing an identity key.
// Never mutated after the merge pass; a rebuild replaces it wholesale.
type Channel struct {
	Name    string   `json:"name"`
	Title   string   `json:"title"`
	Sources []Source `json:"sources"`
}

// Logo returns the first non-empty tvg-logo among the channel's sources.
func (c Channel) Logo() string {
	for _, s := range c.Sources {
		if s.TvgLogo != "" {
			return s.TvgLogo
		}
	}
	return ""
}

// GroupTitle returns the first non-empty group label among the channel's
// sources, or DefaultGroupTitle when none carries one.
func (c Channel) GroupTitle() string {
	for _, s := range c.Sources {
		if s.GroupTitle != "" {
			return s.GroupTitle
		}
	}
	return DefaultGroupTitle
}

// URLs returns each source's playback URL in source order. Duplicates are
// preserved: the index into this slice is the failover position.
func (c Channel) URLs() []string {
	urls := make([]string, len(c.Sources))
	for i, s := range c.Sources {
		urls[i] = s.URL
	}
	return urls
}

// Group is a category label plus the channels filed under it.
type Group struct {
	Title    string    `json:"title"`
	Channels []Channel `json:"channels"`
}

// GroupList is the full catalog: groups in first-seen label order.
type GroupList []Group

// Channels returns every channel in the catalog, flattened in group order
// then in-group order. The flattened index is the persisted "last channel"
// position, so this order must stay stable across rebuilds of identical input.
func (gl GroupList) Channels() []Channel {
	var out []Channel
	for _, g := range gl {
		out = append(out, g.Channels...)
	}
	return out
}

// ChannelAt returns the channel at flattened index i, or ok=false when i is
// out of range.
func (gl GroupList) ChannelAt(i int) (Channel, bool) {
	if i < 0 {
		return Channel{}, false
	}
	for _, g := range gl {
		if i < len(g.Channels) {
			return g.Channels[i], true
		}
		i -= len(g.Channels)
	}
	return Channel{}, false
}

// FindChannelIndex returns the flattened index of the channel with the given
// name, or -1 when absent.
func (gl GroupList) FindChannelIndex(name string) int {
	i := 0
	for _, g := range gl {
		for _, c := range g.Channels {
			if c.Name == name {
				return i
			}
			i++
		}
	}
	return -1
}

// NumChannels returns the total channel count across all groups.
func (gl GroupList) NumChannels() int {
	n := 0
	for _, g := range gl {
		n += len(g.Channels)
	}
	return n
}

// GroupSources merges playlist sources into channels by identity key, then
// channels into groups by group title. Both passes preserve first-occurrence
// order, so the result is deterministic and idempotent for a given input
// order. Channel.Title comes from the first source seen for the key.
func GroupSources(sources []Source) GroupList {
	var keys []string
	byKey := make(map[string][]Source)
	for _, s := range sources {
		k := s.Key()
		if _, seen := byKey[k]; !seen {
			keys = append(keys, k)
		}
		byKey[k] = append(byKey[k], s)
	}

	var titles []string
	byTitle := make(map[string][]Channel)
	for _, k := range keys {
		ss := byKey[k]
		ch := Channel{Name: k, Title: ss[0].Title, Sources: ss}
		gt := ch.GroupTitle()
		if _, seen := byTitle[gt]; !seen {
			titles = append(titles, gt)
		}
		byTitle[gt] = append(byTitle[gt], ch)
	}

	gl := make(GroupList, 0, len(titles))
	for _, t := range titles {
		gl = append(gl, Group{Title: t, Channels: byTitle[t]})
	}
	return gl
}

// Save writes the catalog to path as JSON using a temp-file-then-rename
// strategy so readers never see a partially-written file.
func (gl GroupList) Save(path string) error {
	data, err := json.MarshalIndent(gl, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(filepath.Clean(path))
	tmp, err := os.CreateTemp(dir, ".catalog-*.json.tmp")
	if err != nil {
		return fmt.Errorf("catalog save: create temp: %w", err)
	}
	tmpName := tmp.Name()
	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil || closeErr != nil {
		os.Remove(tmpName)
		if writeErr != nil {
			return fmt.Errorf("catalog save: write: %w", writeErr)
		}
		return fmt.Errorf("catalog save: close: %w", closeErr)
	}
	if err := os.Chmod(tmpName, 0600); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("catalog save: chmod: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("catalog save: rename: %w", err)
	}
	return nil
}

// Load reads a catalog previously written by Save.
func Load(path string) (GroupList, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	var gl GroupList
	if err := json.Unmarshal(data, &gl); err != nil {
		return nil, err
	}
	return gl, nil
}
