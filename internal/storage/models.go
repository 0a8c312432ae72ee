package storage

import (
	"time"
)

// Candidate is an article fetched from a feed that has not been stored yet.
type Candidate struct {
	Title     string    `json:"title"`
	Link      string    `json:"link"`
	Source    string    `json:"source"`
	Content   string    `json:"content"`
	Published time.Time `json:"published"`
}

type Article struct {
	ID              uint64    `json:"id"`
	Title           string    `json:"title"`
	Content         string    `json:"content"`
	Summary         string    `json:"summary"`
	Link            string    `json:"link"`
	Source          string    `json:"source"`
	Author          string    `json:"author"`
	SourceURL       string    `json:"source_url"`
	Category        string    `json:"category"`
	Published       time.Time `json:"published"`
	CreatedAt       time.Time `json:"created_at"`
	AudioRef        string    `json:"audio_ref"`
	HelpfulCount    int       `json:"helpful_count"`
	NotHelpfulCount int       `json:"not_helpful_count"`
	Approved        bool      `json:"approved"`
}

type Category struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ArticleFilter narrows ListArticles. Zero values match everything.
type ArticleFilter struct {
	ApprovedOnly bool
	Category     string
	Limit        int
}
