// Package ingest turns configured playlist and guide URLs into a grouped
// channel catalog plus a programme-guide index. Playlists are fetched
// concurrently but merged in configuration order, so the catalog is
// deterministic for a given set of inputs.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ducktv/ducktv/internal/catalog"
	"github.com/ducktv/ducktv/internal/epg"
	"github.com/ducktv/ducktv/internal/fetch"
	"github.com/ducktv/ducktv/internal/log"
	"github.com/ducktv/ducktv/internal/metrics"
	"github.com/ducktv/ducktv/internal/playlist"
	"github.com/ducktv/ducktv/internal/safeurl"
	"github.com/ducktv/ducktv/internal/settings"
)

// Phase labels a progress event or a URL failure.
type Phase string

const (
	PhasePlaylist Phase = "playlist"
	PhaseGuide    Phase = "guide"
)

// Progress is reported once per URL as work starts.
type Progress struct {
	Phase Phase
	Index int // zero-based position within the phase
	Total int
	URL   string
}

// URLError records one URL that contributed nothing to the build.
type URLError struct {
	Phase Phase
	URL   string
	Err   error
}

func (e URLError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Phase, e.URL, e.Err)
}

func (e URLError) Unwrap() error { return e.Err }

// Stats summarizes a completed build.
type Stats struct {
	PlaylistURLs  int
	GuideURLs     int
	Sources       int
	Channels      int
	Groups        int
	GuideChannels int
	Elapsed       time.Duration
}

// Result is a completed build. Failures lists per-URL errors that were
// tolerated; Groups and Guide reflect only the URLs that succeeded.
type Result struct {
	Groups   catalog.GroupList
	Guide    *epg.Index
	Failures []URLError
	Stats    Stats
}

// ErrAllPlaylistsFailed marks a build where no playlist URL yielded any
// sources. The returned error joins it with every per-URL cause.
var ErrAllPlaylistsFailed = errors.New("ingest: all playlist urls failed")

// Config carries the build inputs. Store may be nil; Fetcher and Parsers
// default when unset.
type Config struct {
	// Explicit playlist URLs. When empty the store's configured URLs are
	// used, and failing that DefaultPlaylistURL.
	PlaylistURLs []string

	// Explicit guide URLs. Only consulted when no playlist carried a guide
	// hint. When empty the store's configured URLs are used, and failing
	// that DefaultGuideURL.
	GuideURLs []string

	DefaultPlaylistURL string
	DefaultGuideURL    string

	Store   settings.Store
	Fetcher *fetch.Fetcher
	Parsers []playlist.Parser

	// OnProgress, when set, is called before each URL is fetched.
	OnProgress func(Progress)
}

// Builder runs playlist-and-guide builds. Safe for reuse across builds.
type Builder struct {
	cfg    Config
	logger zerolog.Logger
}

// NewBuilder fills Config defaults and returns a ready Builder.
func NewBuilder(cfg Config) *Builder {
	if cfg.Fetcher == nil {
		cfg.Fetcher = fetch.New()
	}
	if len(cfg.Parsers) == 0 {
		cfg.Parsers = playlist.Default()
	}
	return &Builder{cfg: cfg, logger: log.With("ingest")}
}

// Build fetches and parses every playlist, merges their sources into a
// grouped catalog, then resolves and ingests the guide URLs. A playlist URL
// that fails is skipped as long as at least one playlist yields sources;
// when every playlist fails the build fails. Guide failures never fail the
// build.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	start := time.Now()

	playlistURLs, err := b.resolvePlaylistURLs()
	if err != nil {
		return nil, err
	}

	res := &Result{Guide: epg.NewIndex()}
	docs := b.fetchPlaylists(ctx, playlistURLs, res)

	var sources []catalog.Source
	var hints []string
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		sources = append(sources, doc.Sources...)
		hints = append(hints, doc.GuideURLs...)
	}
	if len(sources) == 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		// Surface every URL's cause so the caller can evict bad defaults.
		errs := make([]error, 0, len(res.Failures)+1)
		errs = append(errs, ErrAllPlaylistsFailed)
		for _, f := range res.Failures {
			errs = append(errs, f)
		}
		return nil, errors.Join(errs...)
	}

	res.Groups = catalog.GroupSources(sources)

	guideURLs := b.resolveGuideURLs(hints)
	b.fetchGuides(ctx, guideURLs, res)

	res.Stats = Stats{
		PlaylistURLs:  len(playlistURLs),
		GuideURLs:     len(guideURLs),
		Sources:       len(sources),
		Channels:      res.Groups.NumChannels(),
		Groups:        len(res.Groups),
		GuideChannels: res.Guide.Len(),
		Elapsed:       time.Since(start),
	}
	metrics.IngestDuration.Observe(res.Stats.Elapsed.Seconds())
	metrics.CatalogChannels.Set(float64(res.Stats.Channels))
	metrics.CatalogGroups.Set(float64(res.Stats.Groups))
	metrics.GuideChannels.Set(float64(res.Stats.GuideChannels))

	b.logger.Info().
		Int("channels", res.Stats.Channels).
		Int("groups", res.Stats.Groups).
		Int("guide_channels", res.Stats.GuideChannels).
		Int("failures", len(res.Failures)).
		Dur("elapsed", res.Stats.Elapsed).
		Msg("build complete")
	return res, nil
}

// BuildGuide runs a guide-only pass: the configured guide URLs (explicit,
// then store, then default) are fetched and merged without touching any
// playlist. Per-URL failures are returned alongside whatever was ingested.
func (b *Builder) BuildGuide(ctx context.Context) (*epg.Index, []URLError, error) {
	res := &Result{Guide: epg.NewIndex()}
	b.fetchGuides(ctx, b.resolveGuideURLs(nil), res)
	if err := ctx.Err(); err != nil {
		return nil, res.Failures, err
	}
	metrics.GuideChannels.Set(float64(res.Guide.Len()))
	return res.Guide, res.Failures, nil
}

// resolvePlaylistURLs picks the playlist set: explicit config, then the
// store, then the built-in default. Every candidate must be http(s).
func (b *Builder) resolvePlaylistURLs() ([]string, error) {
	urls := b.cfg.PlaylistURLs
	if len(urls) == 0 && b.cfg.Store != nil {
		urls = b.cfg.Store.PlaylistURLs()
	}
	if len(urls) == 0 && b.cfg.DefaultPlaylistURL != "" {
		urls = []string{b.cfg.DefaultPlaylistURL}
	}
	if len(urls) == 0 {
		return nil, errors.New("ingest: no playlist urls configured")
	}
	for _, u := range urls {
		if !safeurl.IsHTTPOrHTTPS(u) {
			return nil, fmt.Errorf("ingest: playlist url %q is not http(s)", u)
		}
	}
	return urls, nil
}

// resolveGuideURLs picks the guide set: playlist hints win, then explicit
// config, then the store, then the built-in default. Duplicates keep their
// first position; non-http(s) candidates are dropped.
func (b *Builder) resolveGuideURLs(hints []string) []string {
	urls := hints
	if len(urls) == 0 {
		urls = b.cfg.GuideURLs
	}
	if len(urls) == 0 && b.cfg.Store != nil {
		urls = b.cfg.Store.GuideURLs()
	}
	if len(urls) == 0 && b.cfg.DefaultGuideURL != "" {
		urls = []string{b.cfg.DefaultGuideURL}
	}
	seen := make(map[string]bool, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if seen[u] || !safeurl.IsHTTPOrHTTPS(u) {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}

// fetchPlaylists fans out over the playlist URLs and returns one document
// slot per URL, nil where the URL failed. Slot order preserves the
// configured order regardless of completion order.
func (b *Builder) fetchPlaylists(ctx context.Context, urls []string, res *Result) []*playlist.Document {
	docs := make([]*playlist.Document, len(urls))
	failures := make([]*URLError, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	for i, u := range urls {
		i, u := i, u
		b.progress(Progress{Phase: PhasePlaylist, Index: i, Total: len(urls), URL: u})
		g.Go(func() error {
			doc, err := b.loadPlaylist(gctx, u)
			if err != nil {
				metrics.IngestURLsTotal.WithLabelValues(string(PhasePlaylist), "error").Inc()
				b.logger.Warn().Str("url", u).Err(err).Msg("playlist failed")
				failures[i] = &URLError{Phase: PhasePlaylist, URL: u, Err: err}
				return nil // tolerated; the merge decides if the build dies
			}
			metrics.IngestURLsTotal.WithLabelValues(string(PhasePlaylist), "ok").Inc()
			docs[i] = doc
			return nil
		})
	}
	_ = g.Wait() // workers report through the failures slots
	for _, f := range failures {
		if f != nil {
			res.Failures = append(res.Failures, *f)
		}
	}
	return docs
}

func (b *Builder) loadPlaylist(ctx context.Context, url string) (*playlist.Document, error) {
	resp, err := b.cfg.Fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	data, err := epg.DecodeDocument(resp.Body, resp.ContentType, url)
	if err != nil {
		return nil, err
	}
	return playlist.Parse(b.cfg.Parsers, url, data)
}

// fetchGuides fans out over the guide URLs and merges the parsed documents
// into the result index in slot order, so first-seen dedup stays
// deterministic regardless of completion order. Failures are recorded, never
// fatal.
func (b *Builder) fetchGuides(ctx context.Context, urls []string, res *Result) {
	indexes := make([]*epg.Index, len(urls))
	failures := make([]*URLError, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	for i, u := range urls {
		i, u := i, u
		b.progress(Progress{Phase: PhaseGuide, Index: i, Total: len(urls), URL: u})
		g.Go(func() error {
			ix, err := b.loadGuide(gctx, u)
			if err != nil {
				metrics.IngestURLsTotal.WithLabelValues(string(PhaseGuide), "error").Inc()
				b.logger.Warn().Str("url", u).Err(err).Msg("guide failed")
				failures[i] = &URLError{Phase: PhaseGuide, URL: u, Err: err}
				return nil
			}
			metrics.IngestURLsTotal.WithLabelValues(string(PhaseGuide), "ok").Inc()
			indexes[i] = ix
			return nil
		})
	}
	_ = g.Wait() // workers report through the failures slots
	for i := range urls {
		if failures[i] != nil {
			res.Failures = append(res.Failures, *failures[i])
			continue
		}
		res.Guide.Merge(indexes[i])
	}
}

func (b *Builder) loadGuide(ctx context.Context, url string) (*epg.Index, error) {
	resp, err := b.cfg.Fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	data, err := epg.DecodeDocument(resp.Body, resp.ContentType, url)
	if err != nil {
		return nil, err
	}
	return epg.ParseGuide(strings.NewReader(data))
}

func (b *Builder) progress(p Progress) {
	if b.cfg.OnProgress != nil {
		b.cfg.OnProgress(p)
	}
}
