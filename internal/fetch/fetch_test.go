package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func testFetcher(srv *httptest.Server, attempts int) *Fetcher {
	f := New()
	f.Client = srv.Client()
	f.Attempts = attempts
	f.Interval = 5 * time.Millisecond
	return f
}

func TestFetchSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("#EXTM3U\n"))
	}))
	defer srv.Close()

	res, err := testFetcher(srv, 3).Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(res.Body) != "#EXTM3U\n" {
		t.Errorf("body = %q", res.Body)
	}
	if res.ContentType != "text/plain" {
		t.Errorf("content type = %q", res.ContentType)
	}
}

func TestFetchRetriesThenSucceeds(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	res, err := testFetcher(srv, 5).Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(res.Body) != "ok" {
		t.Errorf("body = %q", res.Body)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

func TestFetchBudgetExhausted(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := testFetcher(srv, 4).Fetch(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("want error after exhausted budget")
	}
	var fe *Error
	if !errors.As(err, &fe) {
		t.Fatalf("error type = %T, want *Error", err)
	}
	if fe.URL != srv.URL || fe.Attempts != 4 {
		t.Errorf("Error = %+v, want URL+attempts annotated", fe)
	}
	if got := atomic.LoadInt32(&calls); got != 4 {
		t.Errorf("calls = %d, want 4", got)
	}
}

func TestFetchCancellationStopsRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	f := testFetcher(srv, 100)
	f.Interval = 50 * time.Millisecond

	done := make(chan error, 1)
	go func() {
		_, err := f.Fetch(ctx, srv.URL)
		done <- err
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v, want context.Canceled in chain", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Fetch did not return after cancellation")
	}
}

func TestFetchTransportError(t *testing.T) {
	// Server closed before the fetch: every attempt is a transport error.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := testFetcher(srv, 2).Fetch(context.Background(), url)
	var fe *Error
	if !errors.As(err, &fe) {
		t.Fatalf("error = %v, want *Error", err)
	}
}

func TestFetchHonorsRateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	const gap = 100 * time.Millisecond
	f := testFetcher(srv, 1)
	f.Limiter = rate.NewLimiter(rate.Every(gap), 1)

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := f.Fetch(context.Background(), srv.URL); err != nil {
			t.Fatalf("Fetch %d: %v", i, err)
		}
	}
	// Burst 1: the second and third fetch each wait out one interval.
	if elapsed := time.Since(start); elapsed < 2*gap {
		t.Errorf("3 fetches took %v, want at least %v", elapsed, 2*gap)
	}
}

func TestFetchRateLimitWaitCancellable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := testFetcher(srv, 1)
	f.Limiter = rate.NewLimiter(rate.Every(time.Hour), 1)
	if _, err := f.Fetch(context.Background(), srv.URL); err != nil {
		t.Fatalf("first fetch: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := f.Fetch(ctx, srv.URL)
	if err == nil {
		t.Fatal("want error when the limiter wait outlives the context")
	}
	var fe *Error
	if !errors.As(err, &fe) || fe.URL != srv.URL {
		t.Errorf("err = %v, want *Error carrying the URL", err)
	}
}
