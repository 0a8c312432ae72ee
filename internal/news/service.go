// Package news holds the on-demand operations readers and moderators trigger
// on stored articles: summaries, audio, approval, feedback and the public
// listing.
package news

import (
	"context"
	"errors"
	"fmt"

	"github.com/pders01/bytenews/internal/audio"
	"github.com/pders01/bytenews/internal/debuglog"
	"github.com/pders01/bytenews/internal/search"
	"github.com/pders01/bytenews/internal/storage"
	"github.com/pders01/bytenews/internal/summary"
)

var (
	// ErrNotApproved is returned when a reader asks for an article that has
	// not been approved yet.
	ErrNotApproved = errors.New("article not approved")
	// ErrInvalidFeedback is returned for a feedback kind other than
	// FeedbackHelpful or FeedbackNotHelpful.
	ErrInvalidFeedback = errors.New("feedback must be \"helpful\" or \"not_helpful\"")
)

const (
	FeedbackHelpful    = "helpful"
	FeedbackNotHelpful = "not_helpful"
)

// Store is the part of storage.Store the service needs.
type Store interface {
	GetArticle(id uint64) (*storage.Article, error)
	Update(article *storage.Article) error
	ListArticles(filter storage.ArticleFilter) ([]*storage.Article, error)
	Approve(id uint64) (*storage.Article, error)
	RecordFeedback(id uint64, helpful bool) (*storage.Article, error)
}

// Speaker turns text into audio.
type Speaker interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Index is the search index kept in step with stored articles.
type Index interface {
	search.Searcher
	search.UpdateListener
	Reindex(articles []*storage.Article) error
}

type Service struct {
	store      Store
	summarizer *summary.Summarizer
	speaker    Speaker
	blobs      audio.BlobStore
	index      Index
	sentences  int
}

// Options wires the optional collaborators of a Service.
type Options struct {
	Speaker   Speaker
	Blobs     audio.BlobStore
	Index     Index
	Sentences int
}

func NewService(store Store, summarizer *summary.Summarizer, opts Options) *Service {
	return &Service{
		store:      store,
		summarizer: summarizer,
		speaker:    opts.Speaker,
		blobs:      opts.Blobs,
		index:      opts.Index,
		sentences:  opts.Sentences,
	}
}

// GenerateSummary summarizes the article content and stores the result,
// replacing any previous summary.
func (s *Service) GenerateSummary(id uint64) (*storage.Article, error) {
	article, err := s.store.GetArticle(id)
	if err != nil {
		return nil, err
	}

	article.Summary = s.summarizer.Summarize(article.Content, article.Title, s.sentences)
	if err := s.store.Update(article); err != nil {
		return nil, fmt.Errorf("saving summary: %w", err)
	}
	s.reindex(article)
	return article, nil
}

// GenerateAudio returns the audio reference of the article, synthesizing and
// storing the audio first when it has none. An article without a summary
// is summarized before synthesis.
func (s *Service) GenerateAudio(ctx context.Context, id uint64) (string, error) {
	if s.speaker == nil || s.blobs == nil {
		return "", errors.New("audio is not configured")
	}

	article, err := s.store.GetArticle(id)
	if err != nil {
		return "", err
	}
	if article.AudioRef != "" {
		return article.AudioRef, nil
	}

	if article.Summary == "" {
		if article, err = s.GenerateSummary(id); err != nil {
			return "", err
		}
	}

	data, err := s.speaker.Synthesize(ctx, article.Summary)
	if err != nil {
		return "", err
	}

	ref, err := s.blobs.Save(ctx, audio.FileName(article.ID), data)
	if err != nil {
		return "", &audio.SynthesisError{Err: err}
	}

	article.AudioRef = ref
	if err := s.store.Update(article); err != nil {
		return "", fmt.Errorf("saving audio reference: %w", err)
	}

	debuglog.WithFields(map[string]any{
		"article": article.ID,
		"bytes":   len(data),
	}).Infof("stored audio at %s", ref)
	return ref, nil
}

// Approve makes the article visible in the public listing.
func (s *Service) Approve(id uint64) (*storage.Article, error) {
	article, err := s.store.Approve(id)
	if err != nil {
		return nil, err
	}
	s.reindex(article)
	return article, nil
}

// Feedback records a reader's opinion of the summary.
func (s *Service) Feedback(id uint64, kind string) (*storage.Article, error) {
	switch kind {
	case FeedbackHelpful:
		return s.store.RecordFeedback(id, true)
	case FeedbackNotHelpful:
		return s.store.RecordFeedback(id, false)
	default:
		return nil, ErrInvalidFeedback
	}
}

// ListApproved returns approved articles, newest first. An empty category
// matches every category; limit <= 0 means no limit.
func (s *Service) ListApproved(category string, limit int) ([]*storage.Article, error) {
	return s.store.ListArticles(storage.ArticleFilter{
		ApprovedOnly: true,
		Category:     category,
		Limit:        limit,
	})
}

// GetApproved returns one article if readers may see it.
func (s *Service) GetApproved(id uint64) (*storage.Article, error) {
	article, err := s.store.GetArticle(id)
	if err != nil {
		return nil, err
	}
	if !article.Approved {
		return nil, ErrNotApproved
	}
	return article, nil
}

// Search returns approved articles matching query, best match first.
func (s *Service) Search(query string, limit int) ([]*storage.Article, error) {
	if s.index == nil {
		return nil, errors.New("search index is not configured")
	}
	if limit <= 0 {
		limit = 20
	}

	// Unapproved hits are filtered out afterwards, so ask for more.
	hits, err := s.index.Search(query, limit*3)
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}

	articles := make([]*storage.Article, 0, len(hits))
	for _, hit := range hits {
		article, err := s.store.GetArticle(hit.ArticleID)
		if err != nil {
			if !errors.Is(err, storage.ErrNotFound) {
				debuglog.Warnf("search hit %d: %v", hit.ArticleID, err)
			}
			continue
		}
		if !article.Approved {
			continue
		}
		articles = append(articles, article)
		if len(articles) == limit {
			break
		}
	}
	return articles, nil
}

// Reindex rebuilds the search index from every stored article.
func (s *Service) Reindex() (int, error) {
	if s.index == nil {
		return 0, errors.New("search index is not configured")
	}
	articles, err := s.store.ListArticles(storage.ArticleFilter{})
	if err != nil {
		return 0, err
	}
	if err := s.index.Reindex(articles); err != nil {
		return 0, fmt.Errorf("reindexing: %w", err)
	}
	return len(articles), nil
}

func (s *Service) reindex(article *storage.Article) {
	if s.index == nil {
		return
	}
	if err := s.index.IndexArticle(article); err != nil {
		debuglog.Warnf("indexing article %d: %v", article.ID, err)
	}
}
