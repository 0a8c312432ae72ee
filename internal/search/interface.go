package search

import "github.com/pders01/bytenews/internal/storage"

// Result is one article matching a query.
type Result struct {
	ArticleID uint64
	Title     string
	Score     float64
}

// Searcher defines the minimal search API used by the service and the CLI.
type Searcher interface {
	Search(query string, limit int) ([]*Result, error)
}

// UpdateListener is notified when an article is created or changes.
type UpdateListener interface {
	IndexArticle(article *storage.Article) error
}

// DebugStatser provides lightweight stats for visibility/debugging.
type DebugStatser interface {
	DocCount() (int, error)
}
