package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/bytenews/internal/config"
	"github.com/pders01/bytenews/internal/ingest"
	"github.com/pders01/bytenews/internal/storage"
	"github.com/pders01/bytenews/internal/textproc"
)

func newTestManager(t *testing.T, cfg *config.Config) (*Manager, *storage.Store) {
	t.Helper()
	store, err := storage.NewStore(filepath.Join(t.TempDir(), "manager.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	normalizer, err := textproc.New()
	require.NoError(t, err)

	manager := NewManager(cfg, NewCollector(cfg, normalizer), ingest.New(store, nil), store)
	return manager, store
}

func TestNewManager(t *testing.T) {
	cfg := config.TestConfig(t.TempDir())
	manager, _ := newTestManager(t, cfg)

	assert.NotNil(t, manager)
	assert.NotNil(t, manager.collector)
	assert.True(t, manager.urlValidator.AllowLocalhost, "test config allows private hosts")

	cfg.Feed.AllowPrivateHosts = false
	strict := NewManager(cfg, manager.collector, manager.ingestor, nil)
	assert.False(t, strict.urlValidator.AllowLocalhost)
}

func TestSetPermissiveValidation(t *testing.T) {
	manager, _ := newTestManager(t, config.TestConfig(t.TempDir()))

	manager.SetPermissiveValidation(false)
	assert.False(t, manager.urlValidator.AllowLocalhost)
	assert.False(t, manager.urlValidator.AllowPrivateIPs)

	manager.SetPermissiveValidation(true)
	assert.True(t, manager.urlValidator.AllowLocalhost)
	assert.True(t, manager.urlValidator.AllowPrivateIPs)
}

func TestScrapeIngestsAllSources(t *testing.T) {
	good := newsSite(t, fiveItems(), nil)
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()

	cfg := config.TestConfig(t.TempDir())
	cfg.Sources = []config.SourceConfig{
		{Name: "Good", URL: good.URL + "/feed.xml"},
		{Name: "Down", URL: down.URL},
		{Name: "Invalid", URL: "http://0.0.0.0/feed"},
	}
	manager, store := newTestManager(t, cfg)

	report := manager.Scrape(context.Background())

	require.Len(t, report.Sources, 3)
	assert.NotEmpty(t, report.RunID)
	assert.False(t, report.Finished.Before(report.Started))

	assert.Equal(t, "Good", report.Sources[0].Source)
	assert.NoError(t, report.Sources[0].Err)
	assert.Equal(t, 3, report.Sources[0].Fetched)
	assert.Equal(t, 3, report.Sources[0].Added)

	assert.Equal(t, "Down", report.Sources[1].Source)
	assert.Error(t, report.Sources[1].Err)
	assert.Equal(t, "Invalid", report.Sources[2].Source)
	assert.Error(t, report.Sources[2].Err)

	assert.Equal(t, 3, report.Added)
	assert.Equal(t, 2, report.Failed())

	articles, err := store.ListArticles(storage.ArticleFilter{})
	require.NoError(t, err)
	require.Len(t, articles, 3)
	for _, a := range articles {
		assert.Equal(t, "General", a.Category)
		assert.Equal(t, "Good", a.Author)
		assert.False(t, a.Approved)
		assert.Empty(t, a.Summary)
	}

	categories, err := store.ListCategories()
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, "General", categories[0].Name)
}

func TestScrapeIsIdempotent(t *testing.T) {
	site := newsSite(t, fiveItems(), nil)

	cfg := config.TestConfig(t.TempDir())
	cfg.Sources = []config.SourceConfig{{Name: "Site", URL: site.URL + "/feed.xml"}}
	manager, store := newTestManager(t, cfg)

	first := manager.Scrape(context.Background())
	second := manager.Scrape(context.Background())

	assert.Equal(t, 3, first.Added)
	assert.Equal(t, 3, second.Fetched)
	assert.Equal(t, 0, second.Added)
	assert.NotEqual(t, first.RunID, second.RunID)

	articles, err := store.ListArticles(storage.ArticleFilter{})
	require.NoError(t, err)
	assert.Len(t, articles, 3)
}

func TestScrapeMaxPerSourcePerRun(t *testing.T) {
	site := newsSite(t, fiveItems(), nil)

	cfg := config.TestConfig(t.TempDir())
	cfg.Feed.MaxPerSourcePerRun = 1
	cfg.Sources = []config.SourceConfig{{Name: "Site", URL: site.URL + "/feed.xml"}}
	manager, store := newTestManager(t, cfg)

	report := manager.Scrape(context.Background())
	assert.Equal(t, 1, report.Added)

	// The cap applies before dedup, so the next run sees the same first entry
	report = manager.Scrape(context.Background())
	assert.Equal(t, 0, report.Added)

	articles, err := store.ListArticles(storage.ArticleFilter{})
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "Story 1", articles[0].Title)
}

func TestScrapeWithNoSources(t *testing.T) {
	manager, _ := newTestManager(t, config.TestConfig(t.TempDir()))

	report := manager.Scrape(context.Background())
	assert.Empty(t, report.Sources)
	assert.Equal(t, 0, report.Added)
	assert.Equal(t, 0, report.Failed())
}

func TestScrapeManySourcesConcurrently(t *testing.T) {
	cfg := config.TestConfig(t.TempDir())
	cfg.Feed.MaxConcurrentSources = 2
	for i := 0; i < 6; i++ {
		site := newsSite(t, fiveItems(), nil)
		cfg.Sources = append(cfg.Sources, config.SourceConfig{Name: site.URL, URL: site.URL + "/feed.xml"})
	}
	manager, _ := newTestManager(t, cfg)

	report := manager.Scrape(context.Background())

	require.Len(t, report.Sources, 6)
	for i, s := range report.Sources {
		assert.Equal(t, cfg.Sources[i].Name, s.Source)
		assert.NoError(t, s.Err)
	}
	assert.Equal(t, 18, report.Added)
}
