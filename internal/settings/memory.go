package settings

import "sync"

// Memory is an in-process Store. Zero value is ready to use.
type Memory struct {
	mu           sync.Mutex
	playlistURLs []string
	guideURLs    []string
	hosts        map[string]bool
	favorites    map[string]bool
	lastIdx      int
	lastIdxSet   bool
}

var _ Store = (*Memory)(nil)

func (m *Memory) PlaylistURLs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.playlistURLs...)
}

func (m *Memory) SetPlaylistURLs(urls []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playlistURLs = append([]string(nil), urls...)
}

func (m *Memory) GuideURLs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.guideURLs...)
}

func (m *Memory) SetGuideURLs(urls []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.guideURLs = append([]string(nil), urls...)
}

func (m *Memory) PlayableHosts() map[string]bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]bool, len(m.hosts))
	for h := range m.hosts {
		out[h] = true
	}
	return out
}

func (m *Memory) AddPlayableHost(host string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hosts == nil {
		m.hosts = make(map[string]bool)
	}
	m.hosts[host] = true
}

func (m *Memory) RemovePlayableHost(host string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.hosts, host)
}

func (m *Memory) LastChannelIndex() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.lastIdxSet {
		return -1
	}
	return m.lastIdx
}

func (m *Memory) SetLastChannelIndex(idx int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastIdx = idx
	m.lastIdxSet = true
}

func (m *Memory) FavoriteChannelKeys() map[string]bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]bool, len(m.favorites))
	for k := range m.favorites {
		out[k] = true
	}
	return out
}

func (m *Memory) AddFavorite(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.favorites == nil {
		m.favorites = make(map[string]bool)
	}
	m.favorites[key] = true
}

func (m *Memory) RemoveFavorite(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.favorites, key)
}
