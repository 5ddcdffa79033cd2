// Package fetch wraps single-URL HTTP fetches with a bounded retry budget and
// a fixed inter-attempt delay. Retries for one URL are strictly sequential;
// callers fan out over independent URLs themselves.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/ducktv/ducktv/internal/httpclient"
	"github.com/ducktv/ducktv/internal/log"
	"github.com/ducktv/ducktv/internal/metrics"
)

const (
	DefaultAttempts = 10
	DefaultInterval = 3 * time.Second

	// Playlist and guide documents are short of this by orders of magnitude;
	// the cap only guards against a hostile endpoint streaming forever.
	maxBodyBytes = 64 << 20
)

// Error is a fetch that exhausted its retry budget. It carries the URL so the
// caller can evict a misbehaving source from future defaults.
type Error struct {
	URL      string
	Attempts int
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("fetch %s: %d attempts: %v", e.URL, e.Attempts, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Response is a completed fetch.
type Response struct {
	Body        []byte
	ContentType string
}

// Fetcher retries failed fetches at a fixed interval. The interval is
// deliberately constant rather than exponential: worst-case latency for a
// build stays predictable, matching how long a viewer will wait on a loading
// screen.
type Fetcher struct {
	Client    *http.Client
	Attempts  int            // retry budget; default DefaultAttempts
	Interval  time.Duration  // fixed inter-attempt delay; default DefaultInterval
	Limiter   *rate.Limiter  // optional request-rate cap shared across URLs
	HostSem   *httpclient.HostSemaphore
	UserAgent string
}

// New returns a Fetcher with the shared tuned client, default budget, and the
// process-global per-host limiter.
func New() *Fetcher {
	return &Fetcher{
		Client:    httpclient.Default(),
		Attempts:  DefaultAttempts,
		Interval:  DefaultInterval,
		HostSem:   httpclient.GlobalHostSem,
		UserAgent: "DuckTV/1.0",
	}
}

// Fetch GETs url, retrying on transport errors and non-2xx statuses until the
// budget runs out. Cancellation is honoured at the top of every attempt and
// during the inter-attempt wait; an in-flight request is bounded by the
// client timeout.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Response, error) {
	attempts := f.Attempts
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	interval := f.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	logger := log.With("fetch")
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, &Error{URL: url, Attempts: attempt - 1, Err: err}
		}
		if f.Limiter != nil {
			if err := f.Limiter.Wait(ctx); err != nil {
				return nil, &Error{URL: url, Attempts: attempt - 1, Err: err}
			}
		}

		res, err := f.fetchOnce(ctx, url)
		if err == nil {
			metrics.FetchAttemptsTotal.WithLabelValues("ok").Inc()
			return res, nil
		}
		lastErr = err
		metrics.FetchAttemptsTotal.WithLabelValues("retry").Inc()
		logger.Warn().Str("url", url).Int("attempt", attempt).Err(err).Msg("fetch attempt failed")

		if attempt < attempts {
			select {
			case <-ctx.Done():
				return nil, &Error{URL: url, Attempts: attempt, Err: ctx.Err()}
			case <-time.After(interval):
			}
		}
	}
	metrics.FetchAttemptsTotal.WithLabelValues("exhausted").Inc()
	return nil, &Error{URL: url, Attempts: attempts, Err: lastErr}
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string) (*Response, error) {
	if f.HostSem != nil {
		release := f.HostSem.Acquire(url)
		defer release()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}

	client := f.Client
	if client == nil {
		client = httpclient.Default()
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused, then fail.
		io.CopyN(io.Discard, resp.Body, 4096)
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	return &Response{
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}
