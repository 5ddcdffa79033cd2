package settings

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/ducktv/ducktv/internal/log"
)

const schema = `
CREATE TABLE IF NOT EXISTS prefs (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS pref_sets (
	set_name TEXT NOT NULL,
	member   TEXT NOT NULL,
	PRIMARY KEY (set_name, member)
);
`

const (
	keyPlaylistURLs = "playlist_urls"
	keyGuideURLs    = "guide_urls"
	keyLastChannel  = "last_channel_index"

	setPlayableHosts = "playable_hosts"
	setFavorites     = "favorite_channels"
)

// SQLite is the durable Store. One file per device profile; single process,
// single session, so last-write-wins is enough.
type SQLite struct {
	db *sql.DB
}

var _ Store = (*SQLite)(nil)

// OpenSQLite opens (creating if needed) the preference database at path.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("settings: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("settings: init schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

// warn logs a storage failure. Playback-path writes must not fail the
// transition that triggered them, so storage errors stop here.
func warn(op string, err error) {
	if err != nil {
		logger := log.With("settings")
		logger.Warn().Str("op", op).Err(err).Msg("preference write failed")
	}
}

func (s *SQLite) getString(key string) (string, bool) {
	var v string
	err := s.db.QueryRow(`SELECT value FROM prefs WHERE key = ?`, key).Scan(&v)
	if err != nil {
		return "", false
	}
	return v, true
}

func (s *SQLite) setString(key, value string) {
	_, err := s.db.Exec(
		`INSERT INTO prefs (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	warn("set "+key, err)
}

func (s *SQLite) getURLList(key string) []string {
	v, ok := s.getString(key)
	if !ok || v == "" {
		return nil
	}
	var urls []string
	if err := json.Unmarshal([]byte(v), &urls); err != nil {
		return nil
	}
	return urls
}

func (s *SQLite) setURLList(key string, urls []string) {
	data, err := json.Marshal(urls)
	if err != nil {
		warn("encode "+key, err)
		return
	}
	s.setString(key, string(data))
}

func (s *SQLite) members(set string) map[string]bool {
	rows, err := s.db.Query(`SELECT member FROM pref_sets WHERE set_name = ?`, set)
	if err != nil {
		return map[string]bool{}
	}
	defer rows.Close()
	out := make(map[string]bool)
	for rows.Next() {
		var m string
		if rows.Scan(&m) == nil {
			out[m] = true
		}
	}
	return out
}

func (s *SQLite) addMember(set, member string) {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO pref_sets (set_name, member) VALUES (?, ?)`, set, member)
	warn("add "+set, err)
}

func (s *SQLite) removeMember(set, member string) {
	_, err := s.db.Exec(
		`DELETE FROM pref_sets WHERE set_name = ? AND member = ?`, set, member)
	warn("remove "+set, err)
}

func (s *SQLite) PlaylistURLs() []string          { return s.getURLList(keyPlaylistURLs) }
func (s *SQLite) SetPlaylistURLs(urls []string)   { s.setURLList(keyPlaylistURLs, urls) }
func (s *SQLite) GuideURLs() []string             { return s.getURLList(keyGuideURLs) }
func (s *SQLite) SetGuideURLs(urls []string)      { s.setURLList(keyGuideURLs, urls) }
func (s *SQLite) PlayableHosts() map[string]bool  { return s.members(setPlayableHosts) }
func (s *SQLite) AddPlayableHost(host string)     { s.addMember(setPlayableHosts, host) }
func (s *SQLite) RemovePlayableHost(host string)  { s.removeMember(setPlayableHosts, host) }
func (s *SQLite) AddFavorite(key string)          { s.addMember(setFavorites, key) }
func (s *SQLite) RemoveFavorite(key string)       { s.removeMember(setFavorites, key) }

func (s *SQLite) FavoriteChannelKeys() map[string]bool { return s.members(setFavorites) }

func (s *SQLite) LastChannelIndex() int {
	v, ok := s.getString(keyLastChannel)
	if !ok {
		return -1
	}
	var idx int
	if _, err := fmt.Sscanf(v, "%d", &idx); err != nil {
		return -1
	}
	return idx
}

func (s *SQLite) SetLastChannelIndex(idx int) {
	s.setString(keyLastChannel, fmt.Sprintf("%d", idx))
}
