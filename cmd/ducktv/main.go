// Command ducktv builds an IPTV channel catalog from M3U playlists and reads
// XMLTV programme guides against it.
//
//	build     Fetch playlists and guides, merge, save the catalog JSON
//	channels  Print the saved catalog's groups and channels
//	guide     Fetch the guide and print now/next for every catalog channel
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/ducktv/ducktv/internal/catalog"
	"github.com/ducktv/ducktv/internal/config"
	"github.com/ducktv/ducktv/internal/epg"
	"github.com/ducktv/ducktv/internal/fetch"
	"github.com/ducktv/ducktv/internal/httpclient"
	"github.com/ducktv/ducktv/internal/ingest"
	"github.com/ducktv/ducktv/internal/log"
	"github.com/ducktv/ducktv/internal/settings"
)

func main() {
	_ = config.LoadEnvFile(".env")
	log.Configure(log.Config{})
	logger := log.With("main")

	buildCmd := flag.NewFlagSet("build", flag.ExitOnError)
	buildPlaylists := buildCmd.String("playlist", "", "Comma-separated playlist URLs (default: DUCKTV_PLAYLIST_URLS, stored settings, or built-in)")
	buildGuides := buildCmd.String("guide", "", "Comma-separated guide URLs, used when no playlist carries an x-tvg-url hint")
	buildCatalog := buildCmd.String("catalog", "", "Catalog JSON output path (default: DUCKTV_CATALOG)")
	buildMetrics := buildCmd.String("metrics", "", "Prometheus listen address (default: DUCKTV_METRICS_ADDR)")

	channelsCmd := flag.NewFlagSet("channels", flag.ExitOnError)
	channelsCatalog := channelsCmd.String("catalog", "", "Catalog JSON path (default: DUCKTV_CATALOG)")

	guideCmd := flag.NewFlagSet("guide", flag.ExitOnError)
	guideCatalog := guideCmd.String("catalog", "", "Catalog JSON path (default: DUCKTV_CATALOG)")
	guideURLs := guideCmd.String("guide", "", "Comma-separated guide URLs (default: DUCKTV_GUIDE_URLS or built-in)")
	guideMetrics := guideCmd.String("metrics", "", "Prometheus listen address (default: DUCKTV_METRICS_ADDR)")

	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <build|channels|guide> [flags]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  build     Fetch playlists and guides, save catalog\n")
		fmt.Fprintf(os.Stderr, "  channels  Print saved catalog\n")
		fmt.Fprintf(os.Stderr, "  guide     Print now/next per channel\n")
		os.Exit(1)
	}

	cfg := config.Load()

	serveMetrics := func(addr string) {
		if addr == "" {
			return
		}
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(addr, mux); err != nil {
				logger.Warn().Err(err).Str("addr", addr).Msg("metrics server stopped")
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch os.Args[1] {
	case "build":
		_ = buildCmd.Parse(os.Args[2:])
		serveMetrics(orDefault(*buildMetrics, cfg.MetricsAddr))
		store, closeStore := openStore(cfg, logger)
		defer closeStore()

		b := newBuilder(cfg, store, splitList(*buildPlaylists), splitList(*buildGuides))
		res, err := b.Build(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("build failed")
			os.Exit(1)
		}
		for _, f := range res.Failures {
			logger.Warn().Str("phase", string(f.Phase)).Str("url", f.URL).Err(f.Err).Msg("source skipped")
		}

		path := orDefault(*buildCatalog, cfg.CatalogPath)
		if err := res.Groups.Save(path); err != nil {
			logger.Error().Err(err).Str("path", path).Msg("save catalog failed")
			os.Exit(1)
		}
		fmt.Printf("catalog: %d channels in %d groups, %d guide channels (%s)\n",
			res.Stats.Channels, res.Stats.Groups, res.Stats.GuideChannels, res.Stats.Elapsed.Round(time.Millisecond))

	case "channels":
		_ = channelsCmd.Parse(os.Args[2:])
		groups, err := catalog.Load(orDefault(*channelsCatalog, cfg.CatalogPath))
		if err != nil {
			logger.Error().Err(err).Msg("load catalog failed")
			os.Exit(1)
		}
		for _, g := range groups {
			fmt.Printf("%s (%d)\n", g.Title, len(g.Channels))
			for _, ch := range g.Channels {
				fmt.Printf("  %s  [%d sources]\n", ch.Title, len(ch.Sources))
			}
		}

	case "guide":
		_ = guideCmd.Parse(os.Args[2:])
		serveMetrics(orDefault(*guideMetrics, cfg.MetricsAddr))
		groups, err := catalog.Load(orDefault(*guideCatalog, cfg.CatalogPath))
		if err != nil {
			logger.Error().Err(err).Msg("load catalog failed")
			os.Exit(1)
		}
		store, closeStore := openStore(cfg, logger)
		defer closeStore()

		// Reuse the builder's guide resolution by running a guide-only pass
		// against the configured URLs; the catalog supplies the channels to
		// annotate.
		b := newBuilder(cfg, store, nil, splitList(*guideURLs))
		ix, failures, err := b.BuildGuide(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("guide fetch failed")
			os.Exit(1)
		}
		for _, f := range failures {
			logger.Warn().Str("url", f.URL).Err(f.Err).Msg("guide url skipped")
		}

		now := time.Now().UnixMilli()
		for _, ch := range groups.Channels() {
			gc := ix.Match(ch.Name, ch.Title)
			if gc == nil {
				fmt.Printf("%-30s  no guide data\n", ch.Title)
				continue
			}
			current, next := gc.NowNext(now)
			fmt.Printf("%-30s  now: %s  next: %s\n", ch.Title, programmeTitle(current), programmeTitle(next))
		}

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}
}

func newBuilder(cfg *config.Config, store settings.Store, playlists, guides []string) *ingest.Builder {
	f := fetch.New()
	f.Client = httpclient.WithTimeout(cfg.HTTPTimeout)
	f.Attempts = cfg.FetchAttempts
	f.Interval = cfg.FetchInterval
	if cfg.RateLimit > 0 {
		f.Limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimit)
	}

	if len(playlists) == 0 {
		playlists = cfg.PlaylistURLs
	}
	if len(guides) == 0 {
		guides = cfg.GuideURLs
	}
	progress := log.With("progress")
	return ingest.NewBuilder(ingest.Config{
		PlaylistURLs:       playlists,
		GuideURLs:          guides,
		DefaultPlaylistURL: config.DefaultPlaylistURL,
		DefaultGuideURL:    config.DefaultGuideURL,
		Store:              store,
		Fetcher:            f,
		OnProgress: func(p ingest.Progress) {
			progress.Info().
				Str("phase", string(p.Phase)).
				Int("n", p.Index+1).
				Int("of", p.Total).
				Str("url", p.URL).
				Msg("fetching")
		},
	})
}

// openStore opens the SQLite settings database when configured, else an
// in-memory store. The returned func closes whatever was opened.
func openStore(cfg *config.Config, logger zerolog.Logger) (settings.Store, func()) {
	if cfg.SettingsPath == "" {
		return &settings.Memory{}, func() {}
	}
	s, err := settings.OpenSQLite(cfg.SettingsPath)
	if err != nil {
		logger.Warn().Err(err).Str("path", cfg.SettingsPath).Msg("settings db unavailable, using in-memory")
		return &settings.Memory{}, func() {}
	}
	return s, func() { _ = s.Close() }
}

func splitList(s string) []string {
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

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func programmeTitle(p *epg.Programme) string {
	if p == nil {
		return "-"
	}
	return p.Title
}
