package tui

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pders01/bytenews/internal/feed"
	"github.com/pders01/bytenews/internal/storage"
)

func TestShowBanner(t *testing.T) {
	var buf bytes.Buffer
	ShowBanner(&buf, "1.0.0-test")
	out := buf.String()

	if !strings.Contains(out, "news in a nutshell v1.0.0-test") {
		t.Errorf("Expected banner to contain tagline with version, got: %s", out)
	}
	if !strings.Contains(out, "╔") || !strings.Contains(out, "╝") {
		t.Errorf("Expected banner to contain border characters, got: %s", out)
	}
	if !strings.Contains(out, "◆") {
		t.Errorf("Expected banner to contain separator, got: %s", out)
	}
}

func TestShowBannerDevVersion(t *testing.T) {
	var buf bytes.Buffer
	ShowBanner(&buf, "dev")
	if strings.Contains(buf.String(), "vdev") {
		t.Errorf("dev builds should not carry a version tag: %s", buf.String())
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		fn    func(string, int) string
		in    string
		limit int
		want  string
	}{
		{truncateEnd, "hello", 10, "hello"},
		{truncateEnd, "hello world", 6, "hello…"},
		{truncateEnd, "héllo", 1, "…"},
		{truncateEnd, "hello", 0, ""},
		{truncateMiddle, "https://example.com/a/b", 30, "https://example.com/a/b"},
		{truncateMiddle, "abcdefghij", 5, "ab…ij"},
		{truncateMiddle, "abcdefghij", 4, "a…ij"},
	}
	for _, tt := range tests {
		if got := tt.fn(tt.in, tt.limit); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.limit, got, tt.want)
		}
	}
}

func sampleArticle() *storage.Article {
	return &storage.Article{
		ID:           7,
		Title:        "River bursts its banks",
		Author:       "BBC News",
		Category:     "General",
		Link:         "https://example.com/news/flood",
		Published:    time.Date(2024, 3, 5, 21, 0, 0, 0, time.UTC),
		Summary:      "Heavy rain pushed the river over its banks.",
		Content:      "First paragraph.\n\nSecond paragraph.",
		AudioRef:     "/media/audio/7_summary.mp3",
		Approved:     true,
		HelpfulCount: 2,
	}
}

func TestArticleMarkdown(t *testing.T) {
	md := ArticleMarkdown(sampleArticle())

	for _, want := range []string{
		"# River bursts its banks",
		"*BBC News* · General",
		"approved",
		"> Heavy rain pushed the river over its banks.",
		"`/media/audio/7_summary.mp3`",
		"First paragraph.\n\nSecond paragraph.",
		"(https://example.com/news/flood)",
		"2 helpful, 0 not helpful",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestArticleMarkdownPending(t *testing.T) {
	a := sampleArticle()
	a.Approved = false
	a.Summary = ""
	a.AudioRef = ""
	a.HelpfulCount = 0

	md := ArticleMarkdown(a)
	if !strings.Contains(md, "pending approval") {
		t.Error("expected pending marker")
	}
	if strings.Contains(md, "## Summary") || strings.Contains(md, "Audio:") || strings.Contains(md, "feedback") {
		t.Errorf("unexpected sections:\n%s", md)
	}
}

func TestRenderArticle(t *testing.T) {
	out, err := RenderArticle(sampleArticle(), "notty")
	if err != nil {
		t.Fatalf("RenderArticle: %v", err)
	}
	if !strings.Contains(out, "River bursts its banks") || !strings.Contains(out, "Second paragraph.") {
		t.Errorf("rendered article missing content:\n%s", out)
	}
}

func TestArticleList(t *testing.T) {
	var buf bytes.Buffer
	ArticleList(&buf, nil)
	if !strings.Contains(buf.String(), "No articles.") {
		t.Errorf("empty list output: %q", buf.String())
	}

	buf.Reset()
	pending := sampleArticle()
	pending.ID = 8
	pending.Approved = false
	ArticleList(&buf, []*storage.Article{sampleArticle(), pending})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "7") || !strings.Contains(lines[0], "River bursts its banks") {
		t.Errorf("first line: %q", lines[0])
	}
}

func TestScrapeReport(t *testing.T) {
	start := time.Now()
	report := &feed.Report{
		RunID:    "run-1",
		Started:  start,
		Finished: start.Add(1500 * time.Millisecond),
		Sources: []feed.SourceReport{
			{Source: "BBC News", Fetched: 3, Added: 1},
			{Source: "CNN", Err: errors.New("fetching feed: HTTP 503")},
		},
		Added: 1,
	}

	var buf bytes.Buffer
	ScrapeReport(&buf, report)
	out := buf.String()

	for _, want := range []string{"run-1", "BBC News", "3 fetched, 1 new", "HTTP 503", "1 new articles from 2 sources (1 failed) in 1.5s"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}
