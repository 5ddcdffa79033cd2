// Package config loads process configuration from the environment, with an
// optional .env file layered underneath.
package config

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Built-in fallback sources, used when neither the environment nor the
// settings store configures any.
const (
	DefaultPlaylistURL = "http://lsong.one:8888/IPTV.m3u"
	DefaultGuideURL    = "http://epg.51zmt.top:8000/e.xml.gz"
)

// Config holds ingest, playback and serving settings.
type Config struct {
	// Sources
	PlaylistURLs []string // DUCKTV_PLAYLIST_URLS, comma-separated; empty = store then DefaultPlaylistURL
	GuideURLs    []string // DUCKTV_GUIDE_URLS, comma-separated; only used when no playlist carries a hint

	// Fetching
	FetchAttempts int           // retry budget per URL
	FetchInterval time.Duration // fixed delay between attempts
	HTTPTimeout   time.Duration // per-request cap
	RateLimit     int           // max requests per second across all fetches; 0 = unlimited

	// Paths
	CatalogPath  string // where the built catalog JSON is written
	SettingsPath string // SQLite preference database; "" = in-memory settings

	// Serving
	MetricsAddr string // Prometheus listen address; "" = disabled
}

// Load reads config from environment. Call LoadEnvFile(".env") before Load()
// to use a .env file.
func Load() *Config {
	c := &Config{
		PlaylistURLs:  getEnvList("DUCKTV_PLAYLIST_URLS"),
		GuideURLs:     getEnvList("DUCKTV_GUIDE_URLS"),
		FetchAttempts: getEnvInt("DUCKTV_FETCH_ATTEMPTS", 10),
		FetchInterval: getEnvDuration("DUCKTV_FETCH_INTERVAL", 3*time.Second),
		HTTPTimeout:   getEnvDuration("DUCKTV_HTTP_TIMEOUT", 30*time.Second),
		RateLimit:     getEnvInt("DUCKTV_RATE_LIMIT", 0),
		CatalogPath:   getEnv("DUCKTV_CATALOG", "./catalog.json"),
		SettingsPath:  os.Getenv("DUCKTV_SETTINGS_DB"),
		MetricsAddr:   os.Getenv("DUCKTV_METRICS_ADDR"),
	}
	if c.FetchAttempts <= 0 {
		c.FetchAttempts = 10
	}
	if c.FetchInterval <= 0 {
		c.FetchInterval = 3 * time.Second
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = 30 * time.Second
	}
	if c.RateLimit < 0 {
		c.RateLimit = 0
	}
	return c
}

// LoadEnvFile layers a .env file under the environment: each "KEY=value"
// line is applied with os.Setenv. Blank lines and # comments are skipped,
// surrounding single or double quotes on values are stripped, and a missing
// file is not an error. Keep .env out of version control.
func LoadEnvFile(path string) error {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		os.Setenv(key, unquote(strings.TrimSpace(value)))
	}
	return sc.Err()
}

// unquote strips one level of matching single or double quotes.
func unquote(s string) string {
	if len(s) >= 2 && s[0] == s[len(s)-1] && (s[0] == '"' || s[0] == '\'') {
		return s[1 : len(s)-1]
	}
	return s
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// getEnvList splits a comma-separated env value, trimming whitespace and
// dropping empty entries.
func getEnvList(key string) []string {
	s := os.Getenv(key)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		n, _ := strconv.Atoi(v)
		return n
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
