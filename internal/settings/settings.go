// Package settings is the seam to the on-device preference store. The core
// only sees the Store interface; production wires the SQLite implementation,
// tests wire Memory.
package settings

// Store persists the handful of keys the core depends on. Writes are
// synchronous and last-write-wins; implementations absorb storage failures
// (logging them) rather than surfacing errors, because channel switching must
// never fail on a bad preference write.
type Store interface {
	// Configured playlist URLs, in priority order. Empty means "use the
	// built-in default".
	PlaylistURLs() []string
	SetPlaylistURLs(urls []string)

	// Configured guide URLs, in priority order. Only consulted when no
	// playlist carried a guide hint.
	GuideURLs() []string
	SetGuideURLs(urls []string)

	// Hosts previously observed to start playback. Biases source selection
	// and failover.
	PlayableHosts() map[string]bool
	AddPlayableHost(host string)
	RemovePlayableHost(host string)

	// Flattened catalog index of the last watched channel. -1 when unset.
	LastChannelIndex() int
	SetLastChannelIndex(idx int)

	// Channel identity keys the user has marked as favorites.
	FavoriteChannelKeys() map[string]bool
	AddFavorite(key string)
	RemoveFavorite(key string)
}
