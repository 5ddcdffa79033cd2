// Package session owns playback-time channel and source selection: restoring
// the last watched channel, biasing source choice toward hosts that have
// played before, and failing over across a channel's mirrors on playback
// errors.
package session

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/ducktv/ducktv/internal/catalog"
	"github.com/ducktv/ducktv/internal/log"
	"github.com/ducktv/ducktv/internal/metrics"
	"github.com/ducktv/ducktv/internal/safeurl"
	"github.com/ducktv/ducktv/internal/settings"
)

// Player is the playback-engine port. Prepare is called on every selection
// transition with the resolved stream URL. The engine reports back through
// the controller's OnReady/OnError/OnCutoff methods; it must not invoke them
// synchronously from inside Prepare.
type Player interface {
	Prepare(url string)
}

// Controller is the channel-selection state machine for one playback session.
// All methods are safe for concurrent use: engine callbacks arrive on the
// engine's goroutine and are serialized against user navigation by a single
// mutex. Settings reads/writes happen synchronously on every transition.
type Controller struct {
	mu     sync.Mutex
	groups catalog.GroupList
	store  settings.Store
	player Player
	logger zerolog.Logger

	current catalog.Channel
	srcIdx  int

	channelInfoVisible bool
	menuVisible        bool
}

// New restores the previously remembered channel (when its flattened index is
// still in range) or falls back to the first channel of the first group, and
// prepares playback for it.
func New(groups catalog.GroupList, store settings.Store, player Player) *Controller {
	c := &Controller{
		groups: groups,
		store:  store,
		player: player,
		logger: log.With("session"),
	}
	ch, ok := groups.ChannelAt(store.LastChannelIndex())
	if !ok {
		if flat := groups.Channels(); len(flat) > 0 {
			ch = flat[0]
		} else {
			return c // empty catalog: nothing to prepare
		}
	}
	c.mu.Lock()
	c.selectLocked(ch, nil)
	c.mu.Unlock()
	return c
}

// CurrentChannel returns the active channel.
func (c *Controller) CurrentChannel() catalog.Channel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// CurrentSourceIndex returns the active index into the channel's URLs.
func (c *Controller) CurrentSourceIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.srcIdx
}

// CurrentChannelIndex returns the active channel's flattened catalog index.
func (c *Controller) CurrentChannelIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.groups.FindChannelIndex(c.current.Name)
}

// Select activates ch, picking the source automatically: the first URL whose
// host is remembered as playable, else the first URL. Selecting the already
// active channel is a no-op.
func (c *Controller) Select(ch catalog.Channel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selectLocked(ch, nil)
}

// SelectSource activates ch at the given source index. The index wraps
// modulo the channel's source count, so -1 is the last source.
func (c *Controller) SelectSource(ch catalog.Channel, sourceIdx int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selectLocked(ch, &sourceIdx)
}

// NextChannel moves to the flattened-catalog successor, wrapping at the end.
func (c *Controller) NextChannel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selectLocked(c.neighborLocked(+1), nil)
}

// PrevChannel moves to the flattened-catalog predecessor, wrapping at the start.
func (c *Controller) PrevChannel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selectLocked(c.neighborLocked(-1), nil)
}

// NextSource advances to the channel's next mirror (wraps).
func (c *Controller) NextSource() {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := c.srcIdx + 1
	c.selectLocked(c.current, &idx)
}

// PrevSource steps back to the channel's previous mirror (wraps).
func (c *Controller) PrevSource() {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := c.srcIdx - 1
	c.selectLocked(c.current, &idx)
}

// OnReady is the engine's playback-started callback. The current URL's host
// earned its place in the playable set.
func (c *Controller) OnReady() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if url, ok := c.currentURLLocked(); ok {
		c.store.AddPlayableHost(safeurl.Host(url))
	}
}

// OnError is the engine's hard-failure callback: forget the failed URL's
// host, then fail over to the channel's next source if one exists. With all
// sources exhausted the controller stays on the last source; recovery is
// best-effort and never errors.
func (c *Controller) OnError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	url, ok := c.currentURLLocked()
	if !ok {
		return
	}
	c.store.RemovePlayableHost(safeurl.Host(url))
	if c.srcIdx < len(c.current.Sources)-1 {
		idx := c.srcIdx + 1
		metrics.FailoverTotal.Inc()
		c.selectLocked(c.current, &idx)
	}
}

// OnCutoff is the engine's stream-stall callback: the source is believed
// good, the stream just dropped, so re-prepare the same URL without
// advancing the index.
func (c *Controller) OnCutoff() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if url, ok := c.currentURLLocked(); ok {
		c.player.Prepare(url)
	}
}

// ChannelInfoVisible reports the channel-info overlay flag.
func (c *Controller) ChannelInfoVisible() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.channelInfoVisible
}

// SetChannelInfoVisible sets the channel-info overlay flag.
func (c *Controller) SetChannelInfoVisible(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.channelInfoVisible = v
}

// MenuVisible reports the menu overlay flag.
func (c *Controller) MenuVisible() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.menuVisible
}

// SetMenuVisible sets the menu overlay flag.
func (c *Controller) SetMenuVisible(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.menuVisible = v
}

// IsFavorite reports whether the channel is in the favorites set.
func (c *Controller) IsFavorite(ch catalog.Channel) bool {
	return c.store.FavoriteChannelKeys()[ch.Name]
}

// ToggleFavorite flips the channel's membership in the favorites set.
func (c *Controller) ToggleFavorite(ch catalog.Channel) {
	if c.store.FavoriteChannelKeys()[ch.Name] {
		c.store.RemoveFavorite(ch.Name)
	} else {
		c.store.AddFavorite(ch.Name)
	}
}

func (c *Controller) currentURLLocked() (string, bool) {
	urls := c.current.URLs()
	if c.srcIdx < 0 || c.srcIdx >= len(urls) {
		return "", false
	}
	return urls[c.srcIdx], true
}

// neighborLocked returns the channel at the active channel's flattened index
// plus delta, wrapping at either end.
func (c *Controller) neighborLocked(delta int) catalog.Channel {
	flat := c.groups.Channels()
	if len(flat) == 0 {
		return catalog.Channel{}
	}
	idx := c.groups.FindChannelIndex(c.current.Name) + delta
	idx = ((idx % len(flat)) + len(flat)) % len(flat)
	return flat[idx]
}

// selectLocked is the single transition function. sourceIdx == nil asks for
// automatic selection biased by the playable-hosts memory; an explicit index
// wraps modulo the source count.
func (c *Controller) selectLocked(ch catalog.Channel, sourceIdx *int) {
	same := ch.Name == c.current.Name
	if same && sourceIdx == nil {
		return
	}
	if same && *sourceIdx != c.srcIdx {
		// Switching away from a source on the same channel counts against
		// its host.
		if url, ok := c.currentURLLocked(); ok {
			c.store.RemovePlayableHost(safeurl.Host(url))
		}
	}

	c.current = ch
	c.store.SetLastChannelIndex(c.groups.FindChannelIndex(ch.Name))

	urls := ch.URLs()
	if len(urls) == 0 {
		c.srcIdx = 0
		return
	}
	if sourceIdx == nil {
		idx := 0
		hosts := c.store.PlayableHosts()
		for i, u := range urls {
			if hosts[safeurl.Host(u)] {
				idx = i
				break
			}
		}
		c.srcIdx = idx
	} else {
		c.srcIdx = ((*sourceIdx % len(urls)) + len(urls)) % len(urls)
	}

	url := urls[c.srcIdx]
	c.logger.Debug().
		Str("channel", ch.Name).
		Int("source", c.srcIdx+1).
		Int("sources", len(urls)).
		Str("url", url).
		Msg("prepare")
	c.player.Prepare(url)
}
