package feed

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/pders01/bytenews/internal/config"
	"github.com/pders01/bytenews/internal/debuglog"
	"github.com/pders01/bytenews/internal/storage"
	"github.com/pders01/bytenews/internal/textproc"
	"github.com/pders01/bytenews/internal/validation"
)

const (
	defaultEntryLimit       = 3
	defaultMinArticleLength = 200
	defaultMinExcerptLength = 50
)

// Collector turns one feed source into candidate articles: it reads the
// feed, extracts each entry's full page and falls back to the feed excerpt
// when extraction fails.
type Collector struct {
	fetcher    *Fetcher
	parser     *Parser
	extractor  PageExtractor
	normalizer *textproc.Normalizer

	entryLimit int
	minExcerpt int
	now        func() time.Time
}

func NewCollector(cfg *config.Config, normalizer *textproc.Normalizer) *Collector {
	entryLimit := defaultEntryLimit
	minArticle := defaultMinArticleLength
	minExcerpt := defaultMinExcerptLength
	if cfg != nil {
		if cfg.Feed.EntryLimit > 0 {
			entryLimit = cfg.Feed.EntryLimit
		}
		if cfg.Feed.MinArticleLength > 0 {
			minArticle = cfg.Feed.MinArticleLength
		}
		if cfg.Feed.MinExcerptLength > 0 {
			minExcerpt = cfg.Feed.MinExcerptLength
		}
	}

	fetcher := NewFetcher(cfg)
	return &Collector{
		fetcher:    fetcher,
		parser:     NewParser(),
		extractor:  NewHTMLExtractor(fetcher, minArticle),
		normalizer: normalizer,
		entryLimit: entryLimit,
		minExcerpt: minExcerpt,
		now:        time.Now,
	}
}

// SetExtractor replaces the full-page extractor.
func (c *Collector) SetExtractor(extractor PageExtractor) {
	c.extractor = extractor
}

// Fetch returns up to limit candidates from source in feed order. It never
// fails: feed-level and per-entry problems are logged and yield fewer
// candidates.
func (c *Collector) Fetch(ctx context.Context, source config.SourceConfig, limit int) []storage.Candidate {
	candidates, err := c.Collect(ctx, source, limit)
	if err != nil {
		debuglog.WithFields(map[string]any{"source": source.Name}).Errorf("feed unavailable: %v", err)
	}
	return candidates
}

// Collect is Fetch with the feed-level error returned instead of logged.
func (c *Collector) Collect(ctx context.Context, source config.SourceConfig, limit int) ([]storage.Candidate, error) {
	if limit <= 0 {
		limit = c.entryLimit
	}

	data, err := c.fetcher.FetchFeed(ctx, source.URL)
	if err != nil {
		return nil, err
	}
	entries, err := c.parser.Parse(data)
	if err != nil {
		return nil, &FetchError{URL: source.URL, Err: err}
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}

	logger := debuglog.WithFields(map[string]any{"source": source.Name})
	candidates := make([]storage.Candidate, 0, len(entries))
	for i, entry := range entries {
		candidate, err := c.buildCandidate(ctx, source, entry)
		if err != nil {
			logger.With("entry", i).Warnf("skipping entry: %v", err)
			continue
		}
		candidates = append(candidates, candidate)
	}

	logger.Infof("collected %d of %d entries", len(candidates), len(entries))
	return candidates, nil
}

func (c *Collector) buildCandidate(ctx context.Context, source config.SourceConfig, entry Entry) (storage.Candidate, error) {
	if entry.Link == "" {
		return storage.Candidate{}, fmt.Errorf("entry %q has no link", entry.Title)
	}
	link, err := validation.CanonicalLink(entry.Link)
	if err != nil {
		return storage.Candidate{}, err
	}

	content, err := c.safeExtract(ctx, entry.Link)
	if err != nil {
		debuglog.Debugf("full extraction failed for %s, using excerpt: %v", entry.Link, err)
		content, err = c.excerpt(entry)
		if err != nil {
			return storage.Candidate{}, err
		}
	}

	return storage.Candidate{
		Title:     c.normalizer.StripMarkup(entry.Title),
		Link:      link,
		Source:    source.Name,
		Content:   content,
		Published: c.publishedAt(entry),
	}, nil
}

// safeExtract runs the extractor, turning a panic into a FetchError.
func (c *Collector) safeExtract(ctx context.Context, url string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = &FetchError{URL: url, Err: fmt.Errorf("extractor panic: %v", r)}
		}
	}()
	return c.extractor.Extract(ctx, url)
}

func (c *Collector) excerpt(entry Entry) (string, error) {
	text := c.normalizer.StripMarkup(entry.Excerpt())
	if length := utf8.RuneCountInString(text); length < c.minExcerpt {
		return "", &ContentTooShortError{URL: entry.Link, Length: length, Min: c.minExcerpt}
	}
	return text, nil
}

func (c *Collector) publishedAt(entry Entry) time.Time {
	switch {
	case entry.Published != nil && !entry.Published.IsZero():
		return entry.Published.UTC()
	case entry.Updated != nil && !entry.Updated.IsZero():
		return entry.Updated.UTC()
	default:
		return c.now().UTC()
	}
}
