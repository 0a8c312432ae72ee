package feed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pders01/bytenews/internal/config"
	"github.com/pders01/bytenews/internal/debuglog"
	"github.com/pders01/bytenews/internal/ingest"
	"github.com/pders01/bytenews/internal/storage"
	"github.com/pders01/bytenews/internal/validation"
)

const defaultMaxConcurrentSources = 4

// CategoryStore creates the category new articles are filed under.
type CategoryStore interface {
	EnsureCategory(name string) (*storage.Category, error)
}

// SourceReport is the outcome of scraping one source.
type SourceReport struct {
	Source  string
	Fetched int
	Added   int
	Err     error
}

// Report summarizes one scrape run. Sources are in configuration order.
type Report struct {
	RunID    string
	Started  time.Time
	Finished time.Time
	Sources  []SourceReport
	Fetched  int
	Added    int
}

// Failed counts sources that could not be scraped.
func (r *Report) Failed() int {
	n := 0
	for _, s := range r.Sources {
		if s.Err != nil {
			n++
		}
	}
	return n
}

// Manager scrapes every configured source and ingests the results.
type Manager struct {
	config       *config.Config
	collector    *Collector
	ingestor     *ingest.Ingestor
	categories   CategoryStore
	urlValidator *validation.FeedURLValidator
}

func NewManager(cfg *config.Config, collector *Collector, ingestor *ingest.Ingestor, categories CategoryStore) *Manager {
	urlValidator := validation.NewFeedURLValidator()
	if cfg.Feed.AllowPrivateHosts {
		urlValidator = validation.NewPermissiveFeedURLValidator()
	}
	return &Manager{
		config:       cfg,
		collector:    collector,
		ingestor:     ingestor,
		categories:   categories,
		urlValidator: urlValidator,
	}
}

// SetPermissiveValidation enables permissive URL validation for development/testing
func (m *Manager) SetPermissiveValidation(permissive bool) {
	if permissive {
		m.urlValidator = validation.NewPermissiveFeedURLValidator()
	} else {
		m.urlValidator = validation.NewFeedURLValidator()
	}
}

// Scrape runs every configured source through a bounded worker pool. A
// failing source is recorded in the report and never stops the others.
func (m *Manager) Scrape(ctx context.Context) *Report {
	report := &Report{
		RunID:   uuid.NewString(),
		Started: time.Now(),
		Sources: make([]SourceReport, len(m.config.Sources)),
	}
	logger := debuglog.WithFields(map[string]any{"run": report.RunID})
	logger.Infof("scrape started for %d sources", len(m.config.Sources))

	category := m.config.Feed.DefaultCategory
	if category == "" {
		category = "General"
	}
	if m.categories != nil {
		if _, err := m.categories.EnsureCategory(category); err != nil {
			logger.Warnf("ensuring category %q: %v", category, err)
		}
	}

	workers := m.config.Feed.MaxConcurrentSources
	if workers <= 0 {
		workers = defaultMaxConcurrentSources
	}

	jobs := make(chan int, len(m.config.Sources))
	var wg sync.WaitGroup
	for i := 0; i < workers && i < len(m.config.Sources); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				report.Sources[idx] = m.ScrapeSource(ctx, m.config.Sources[idx], category)
			}
		}()
	}

	for i := range m.config.Sources {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	for _, s := range report.Sources {
		report.Fetched += s.Fetched
		report.Added += s.Added
	}
	report.Finished = time.Now()

	logger.Infof("scrape finished: %d fetched, %d added, %d sources failed", report.Fetched, report.Added, report.Failed())
	return report
}

// ScrapeSource fetches one source and ingests at most
// feed.max_per_source_per_run of its candidates (0 means no cap).
func (m *Manager) ScrapeSource(ctx context.Context, source config.SourceConfig, category string) SourceReport {
	result := SourceReport{Source: source.Name}

	url, err := m.urlValidator.ValidateAndNormalize(source.URL)
	if err != nil {
		result.Err = fmt.Errorf("invalid feed URL: %w", err)
		debuglog.WithFields(map[string]any{"source": source.Name}).Errorf("%v", result.Err)
		return result
	}
	source.URL = url

	candidates, err := m.collector.Collect(ctx, source, m.config.Feed.EntryLimit)
	if err != nil {
		result.Err = err
		debuglog.WithFields(map[string]any{"source": source.Name}).Errorf("feed unavailable: %v", err)
		return result
	}
	if perRun := m.config.Feed.MaxPerSourcePerRun; perRun > 0 && len(candidates) > perRun {
		candidates = candidates[:perRun]
	}

	result.Fetched = len(candidates)
	result.Added = m.ingestor.Ingest(candidates, category)
	return result
}
