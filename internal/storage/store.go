package storage

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/pders01/bytenews/internal/debuglog"
)

var (
	articlesBucket   = []byte("articles")
	linksBucket      = []byte("links")
	categoriesBucket = []byte("categories")
)

var (
	ErrNotFound            = errors.New("article not found")
	ErrDuplicateLink       = errors.New("article with this link already exists")
	ErrAudioWithoutSummary = errors.New("article cannot carry audio without a summary")
)

type Store struct {
	db *bolt.DB
}

func NewStore(dbPath string) (*Store, error) {
	return Open(dbPath, 1*time.Second)
}

// Open opens or creates the database at dbPath, waiting up to timeout for the
// file lock held by another process.
func Open(dbPath string, timeout time.Duration) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{articlesBucket, linksBucket, categoriesBucket} {
			if _, createErr := tx.CreateBucketIfNotExists(bucket); createErr != nil {
				return createErr
			}
		}
		return nil
	})

	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

// FindByLink returns the article stored under link or ErrNotFound.
func (s *Store) FindByLink(link string) (*Article, error) {
	var article *Article
	err := s.db.View(func(tx *bolt.Tx) error {
		id := tx.Bucket(linksBucket).Get([]byte(link))
		if id == nil {
			return ErrNotFound
		}
		var err error
		article, err = getArticle(tx, id)
		return err
	})
	return article, err
}

// Create stores a new article and assigns its ID. The link check and the
// insert share one write transaction, so of two racing creates for the same
// link exactly one wins and the other gets ErrDuplicateLink.
func (s *Store) Create(article *Article) (*Article, error) {
	if article.Link == "" {
		return nil, fmt.Errorf("article link is required")
	}
	if article.Summary == "" && article.AudioRef != "" {
		return nil, ErrAudioWithoutSummary
	}

	created := *article
	err := s.db.Update(func(tx *bolt.Tx) error {
		links := tx.Bucket(linksBucket)
		if links.Get([]byte(created.Link)) != nil {
			return ErrDuplicateLink
		}

		b := tx.Bucket(articlesBucket)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		created.ID = seq
		if created.CreatedAt.IsZero() {
			created.CreatedAt = time.Now().UTC()
		}

		if err := putArticle(tx, &created); err != nil {
			return err
		}
		return links.Put([]byte(created.Link), itob(created.ID))
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// Update replaces a stored article. The link index follows a changed link.
func (s *Store) Update(article *Article) error {
	if article.Summary == "" && article.AudioRef != "" {
		return ErrAudioWithoutSummary
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		existing, err := getArticle(tx, itob(article.ID))
		if err != nil {
			return err
		}

		if existing.Link != article.Link {
			links := tx.Bucket(linksBucket)
			if article.Link == "" {
				return fmt.Errorf("article link is required")
			}
			if links.Get([]byte(article.Link)) != nil {
				return ErrDuplicateLink
			}
			if err := links.Delete([]byte(existing.Link)); err != nil {
				return err
			}
			if err := links.Put([]byte(article.Link), itob(article.ID)); err != nil {
				return err
			}
		}

		return putArticle(tx, article)
	})
}

func (s *Store) GetArticle(id uint64) (*Article, error) {
	var article *Article
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		article, err = getArticle(tx, itob(id))
		return err
	})
	return article, err
}

// ListArticles returns matching articles, newest publication first.
func (s *Store) ListArticles(filter ArticleFilter) ([]*Article, error) {
	var articles []*Article
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(articlesBucket)
		return b.ForEach(func(k []byte, v []byte) error {
			var article Article
			if err := json.Unmarshal(v, &article); err != nil {
				debuglog.Warnf("skipping undecodable article %d: %v", binary.BigEndian.Uint64(k), err)
				return nil
			}
			if filter.ApprovedOnly && !article.Approved {
				return nil
			}
			if filter.Category != "" && !strings.EqualFold(article.Category, filter.Category) {
				return nil
			}
			articles = append(articles, &article)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(articles, func(i, j int) bool {
		if !articles[i].Published.Equal(articles[j].Published) {
			return articles[i].Published.After(articles[j].Published)
		}
		return articles[i].ID > articles[j].ID
	})
	if filter.Limit > 0 && len(articles) > filter.Limit {
		articles = articles[:filter.Limit]
	}
	return articles, nil
}

// Approve marks the article visible to readers.
func (s *Store) Approve(id uint64) (*Article, error) {
	return s.modify(id, func(a *Article) {
		a.Approved = true
	})
}

// RecordFeedback increments the helpful or not-helpful counter.
func (s *Store) RecordFeedback(id uint64, helpful bool) (*Article, error) {
	return s.modify(id, func(a *Article) {
		if helpful {
			a.HelpfulCount++
		} else {
			a.NotHelpfulCount++
		}
	})
}

func (s *Store) modify(id uint64, fn func(*Article)) (*Article, error) {
	var article *Article
	err := s.db.Update(func(tx *bolt.Tx) error {
		var err error
		article, err = getArticle(tx, itob(id))
		if err != nil {
			return err
		}
		fn(article)
		return putArticle(tx, article)
	})
	if err != nil {
		return nil, err
	}
	return article, nil
}

// EnsureCategory returns the category called name, creating it if needed.
func (s *Store) EnsureCategory(name string) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("category name is required")
	}

	var category Category
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(categoriesBucket)
		if data := b.Get([]byte(name)); data != nil {
			return json.Unmarshal(data, &category)
		}
		category = Category{Name: name}
		data, err := json.Marshal(category)
		if err != nil {
			return err
		}
		return b.Put([]byte(name), data)
	})
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (s *Store) ListCategories() ([]*Category, error) {
	var categories []*Category
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(categoriesBucket).ForEach(func(_ []byte, v []byte) error {
			var category Category
			if err := json.Unmarshal(v, &category); err != nil {
				return err
			}
			categories = append(categories, &category)
			return nil
		})
	})
	// bbolt iterates keys in byte order; readers expect case-insensitive order
	sort.Slice(categories, func(i, j int) bool {
		return strings.ToLower(categories[i].Name) < strings.ToLower(categories[j].Name)
	})
	return categories, err
}

func getArticle(tx *bolt.Tx, key []byte) (*Article, error) {
	data := tx.Bucket(articlesBucket).Get(key)
	if data == nil {
		return nil, ErrNotFound
	}
	var article Article
	if err := json.Unmarshal(data, &article); err != nil {
		return nil, fmt.Errorf("decoding article: %w", err)
	}
	return &article, nil
}

func putArticle(tx *bolt.Tx, article *Article) error {
	data, err := json.Marshal(article)
	if err != nil {
		return err
	}
	return tx.Bucket(articlesBucket).Put(itob(article.ID), data)
}
