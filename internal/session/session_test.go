package session

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ducktv/ducktv/internal/catalog"
	"github.com/ducktv/ducktv/internal/settings"
)

// fakePlayer records every Prepare call.
type fakePlayer struct {
	prepared []string
}

func (p *fakePlayer) Prepare(url string) { p.prepared = append(p.prepared, url) }

func (p *fakePlayer) last(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, p.prepared, "expected at least one Prepare call")
	return p.prepared[len(p.prepared)-1]
}

func testGroups() catalog.GroupList {
	return catalog.GroupSources([]Source{
		{Title: "One", GroupTitle: "News", URL: "http://a.example/one"},
		{Title: "One", GroupTitle: "News", URL: "http://b.example/one"},
		{Title: "One", GroupTitle: "News", URL: "http://c.example/one"},
		{Title: "Two", GroupTitle: "News", URL: "http://a.example/two"},
		{Title: "Three", GroupTitle: "Sports", URL: "http://a.example/three"},
	})
}

type Source = catalog.Source

func newController(t *testing.T, store settings.Store) (*Controller, *fakePlayer) {
	t.Helper()
	player := &fakePlayer{}
	return New(testGroups(), store, player), player
}

func TestNewRestoresLastChannel(t *testing.T) {
	store := &settings.Memory{}
	store.SetLastChannelIndex(2) // "Three"

	c, player := newController(t, store)

	require.Equal(t, "Three", c.CurrentChannel().Name)
	require.Equal(t, "http://a.example/three", player.last(t))
}

func TestNewFallsBackToFirstChannel(t *testing.T) {
	store := &settings.Memory{}
	store.SetLastChannelIndex(99)

	c, player := newController(t, store)

	require.Equal(t, "One", c.CurrentChannel().Name)
	require.Equal(t, "http://a.example/one", player.last(t))
	require.Equal(t, 0, store.LastChannelIndex())
}

func TestNewEmptyCatalog(t *testing.T) {
	player := &fakePlayer{}
	c := New(catalog.GroupSources(nil), &settings.Memory{}, player)

	require.Empty(t, player.prepared)
	require.Equal(t, "", c.CurrentChannel().Name)
}

func TestSelectSameChannelIsNoOp(t *testing.T) {
	c, player := newController(t, &settings.Memory{})
	calls := len(player.prepared)

	c.Select(c.CurrentChannel())

	require.Len(t, player.prepared, calls)
}

func TestAutoSelectionPrefersPlayableHost(t *testing.T) {
	store := &settings.Memory{}
	store.AddPlayableHost("b.example")
	c, player := newController(t, store)

	require.Equal(t, 1, c.CurrentSourceIndex())
	require.Equal(t, "http://b.example/one", player.last(t))
}

func TestFailoverAdvancesThenStops(t *testing.T) {
	c, player := newController(t, &settings.Memory{})
	require.Equal(t, 0, c.CurrentSourceIndex())

	c.OnError()
	require.Equal(t, 1, c.CurrentSourceIndex())
	require.Equal(t, "http://b.example/one", player.last(t))

	c.OnError()
	require.Equal(t, 2, c.CurrentSourceIndex())
	require.Equal(t, "http://c.example/one", player.last(t))

	// No further source: stay put.
	calls := len(player.prepared)
	c.OnError()
	require.Equal(t, 2, c.CurrentSourceIndex())
	require.Len(t, player.prepared, calls)
}

func TestSourceIndexWraparound(t *testing.T) {
	c, _ := newController(t, &settings.Memory{})
	require.Equal(t, 0, c.CurrentSourceIndex())

	c.PrevSource()
	require.Equal(t, 2, c.CurrentSourceIndex())

	c.NextSource()
	require.Equal(t, 0, c.CurrentSourceIndex())
}

func TestHostMemory(t *testing.T) {
	store := &settings.Memory{}
	c, _ := newController(t, store)

	c.OnReady()
	require.True(t, store.PlayableHosts()["a.example"])

	c.OnError()
	require.False(t, store.PlayableHosts()["a.example"])
}

func TestExplicitSourceSwitchForgetsOldHost(t *testing.T) {
	store := &settings.Memory{}
	c, _ := newController(t, store)
	c.OnReady() // a.example now playable

	c.NextSource()
	require.False(t, store.PlayableHosts()["a.example"])
}

func TestChannelNavigationWraps(t *testing.T) {
	c, _ := newController(t, &settings.Memory{})
	require.Equal(t, "One", c.CurrentChannel().Name)

	c.PrevChannel()
	require.Equal(t, "Three", c.CurrentChannel().Name)

	c.NextChannel()
	require.Equal(t, "One", c.CurrentChannel().Name)
	c.NextChannel()
	require.Equal(t, "Two", c.CurrentChannel().Name)
}

func TestChannelIndexPersistedOnSwitch(t *testing.T) {
	store := &settings.Memory{}
	c, _ := newController(t, store)

	c.NextChannel()
	require.Equal(t, 1, store.LastChannelIndex())
}

func TestOnCutoffRepreparesSameURL(t *testing.T) {
	c, player := newController(t, &settings.Memory{})
	before := player.last(t)

	c.OnCutoff()

	require.Equal(t, before, player.last(t))
	require.Equal(t, 0, c.CurrentSourceIndex())
}

func TestOverlayFlags(t *testing.T) {
	c, _ := newController(t, &settings.Memory{})
	require.False(t, c.ChannelInfoVisible())
	require.False(t, c.MenuVisible())

	c.SetChannelInfoVisible(true)
	c.SetMenuVisible(true)
	require.True(t, c.ChannelInfoVisible())
	require.True(t, c.MenuVisible())
}

func TestToggleFavorite(t *testing.T) {
	store := &settings.Memory{}
	c, _ := newController(t, store)
	ch := c.CurrentChannel()

	require.False(t, c.IsFavorite(ch))
	c.ToggleFavorite(ch)
	require.True(t, c.IsFavorite(ch))
	c.ToggleFavorite(ch)
	require.False(t, c.IsFavorite(ch))
}
