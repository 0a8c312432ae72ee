// Package ingest stores freshly fetched candidates, skipping links already
// known to the store.
package ingest

import (
	"errors"
	"fmt"

	"github.com/pders01/bytenews/internal/debuglog"
	"github.com/pders01/bytenews/internal/storage"
)

// Store is the part of storage.Store the ingestor needs.
type Store interface {
	FindByLink(link string) (*storage.Article, error)
	Create(article *storage.Article) (*storage.Article, error)
}

// Indexer receives every article the ingestor creates.
type Indexer interface {
	IndexArticle(article *storage.Article) error
}

// PersistenceError reports a store failure for one candidate.
type PersistenceError struct {
	Link string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persisting %s: %v", e.Link, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

type Ingestor struct {
	store   Store
	indexer Indexer
}

// New returns an ingestor writing to store. indexer may be nil.
func New(store Store, indexer Indexer) *Ingestor {
	return &Ingestor{store: store, indexer: indexer}
}

// Ingest stores each candidate whose link is not yet known and returns how
// many were created. Failures for one candidate are logged and do not stop
// the rest.
func (i *Ingestor) Ingest(candidates []storage.Candidate, category string) int {
	created := 0
	for _, candidate := range candidates {
		ok, err := i.ingestOne(candidate, category)
		if err != nil {
			debuglog.WithFields(map[string]any{
				"link":   candidate.Link,
				"source": candidate.Source,
			}).Errorf("ingest failed: %v", err)
			continue
		}
		if ok {
			created++
		}
	}
	return created
}

func (i *Ingestor) ingestOne(candidate storage.Candidate, category string) (bool, error) {
	existing, err := i.store.FindByLink(candidate.Link)
	switch {
	case err == nil && existing != nil:
		debuglog.Debugf("skipping known article %s", candidate.Link)
		return false, nil
	case err != nil && !errors.Is(err, storage.ErrNotFound):
		return false, &PersistenceError{Link: candidate.Link, Err: err}
	}

	author := candidate.Source
	if author == "" {
		author = "Unknown"
	}

	article, err := i.store.Create(&storage.Article{
		Title:     candidate.Title,
		Content:   candidate.Content,
		Link:      candidate.Link,
		Source:    candidate.Source,
		Author:    author,
		SourceURL: candidate.Link,
		Category:  category,
		Published: candidate.Published,
	})
	if errors.Is(err, storage.ErrDuplicateLink) {
		debuglog.Debugf("lost insert race for %s", candidate.Link)
		return false, nil
	}
	if err != nil {
		return false, &PersistenceError{Link: candidate.Link, Err: err}
	}

	debuglog.Infof("stored article %d: %s", article.ID, article.Title)

	if i.indexer != nil {
		if err := i.indexer.IndexArticle(article); err != nil {
			debuglog.Warnf("indexing article %d: %v", article.ID, err)
		}
	}
	return true, nil
}
