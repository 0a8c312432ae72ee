package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pders01/bytenews/internal/config"
)

func TestFetcher_FetchFeed(t *testing.T) {
	tests := []struct {
		name           string
		serverResponse func(w http.ResponseWriter, r *http.Request)
		expectBody     string
		expectError    bool
	}{
		{
			name: "successful fetch",
			serverResponse: func(w http.ResponseWriter, r *http.Request) {
				expectedUserAgent := "bytenews-test/1.0"
				if r.Header.Get("User-Agent") != expectedUserAgent {
					t.Errorf("expected User-Agent %s, got %s", expectedUserAgent, r.Header.Get("User-Agent"))
				}
				if r.Header.Get("Accept") != feedAccept {
					t.Errorf("expected feed Accept header, got %s", r.Header.Get("Accept"))
				}
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("<rss></rss>"))
			},
			expectBody: "<rss></rss>",
		},
		{
			name: "server error",
			serverResponse: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			expectError: true,
		},
		{
			name: "not found",
			serverResponse: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(tt.serverResponse))
			defer server.Close()

			fetcher := NewFetcher(config.TestConfig(t.TempDir()))
			body, err := fetcher.FetchFeed(context.Background(), server.URL)

			if tt.expectError {
				if err == nil {
					t.Fatal("expected error but got none")
				}
				var fetchErr *FetchError
				if !errors.As(err, &fetchErr) {
					t.Errorf("expected *FetchError, got %T", err)
				} else if fetchErr.URL != server.URL {
					t.Errorf("expected URL %s, got %s", server.URL, fetchErr.URL)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(body) != tt.expectBody {
				t.Errorf("expected body %q, got %q", tt.expectBody, string(body))
			}
		})
	}
}

func TestFetcher_FetchPageUsesPageAccept(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != pageAccept {
			t.Errorf("expected page Accept header, got %s", r.Header.Get("Accept"))
		}
		w.Write([]byte("<html></html>"))
	}))
	defer server.Close()

	fetcher := NewFetcher(config.TestConfig(t.TempDir()))
	if _, err := fetcher.FetchPage(context.Background(), server.URL); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFetcher_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	cfg := config.TestConfig(t.TempDir())
	cfg.Feed.HTTPTimeout = 100 * time.Millisecond
	fetcher := NewFetcher(cfg)

	start := time.Now()
	_, err := fetcher.FetchPage(context.Background(), server.URL)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("hung request was not bounded, took %v", elapsed)
	}
}

func TestFetcher_Defaults(t *testing.T) {
	fetcher := NewFetcher(nil)
	if fetcher.userAgent != defaultUserAgent {
		t.Errorf("expected default user agent, got %s", fetcher.userAgent)
	}
	if fetcher.timeout != defaultTimeout {
		t.Errorf("expected default timeout %v, got %v", defaultTimeout, fetcher.timeout)
	}
}

func TestFetcher_InvalidURL(t *testing.T) {
	fetcher := NewFetcher(nil)
	_, err := fetcher.FetchFeed(context.Background(), "://bad")
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected *FetchError, got %v", err)
	}
}
