package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/pders01/bytenews/internal/storage"
)

const wordWrapWidth = 80

// ArticleList writes one line per article: id, approval marker, title and
// publication date.
func ArticleList(w io.Writer, articles []*storage.Article) {
	if len(articles) == 0 {
		fmt.Fprintln(w, HelpStyle.Render("No articles."))
		return
	}

	for _, a := range articles {
		marker := PendingItemStyle.Render("○")
		if a.Approved {
			marker = ApprovedItemStyle.Render("●")
		}
		id := HeaderStyle.Render(fmt.Sprintf("%5d", a.ID))
		title := TitleStyle.Render(truncateEnd(a.Title, 60))
		meta := TimeStyle.Render(" • " + a.Author + " • " + a.Published.Format("Jan 2, 15:04"))
		fmt.Fprintf(w, "%s %s %s%s\n", id, marker, title, meta)
	}
}

// ArticleMarkdown is the article as a markdown document.
func ArticleMarkdown(a *storage.Article) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", a.Title)

	status := "pending approval"
	if a.Approved {
		status = "approved"
	}
	fmt.Fprintf(&b, "*%s* · %s · %s · %s\n\n", a.Author, a.Category, a.Published.Format("Jan 2, 2006 15:04 MST"), status)

	if a.Summary != "" {
		fmt.Fprintf(&b, "## Summary\n\n> %s\n\n", a.Summary)
	}
	if a.AudioRef != "" {
		fmt.Fprintf(&b, "Audio: `%s`\n\n", a.AudioRef)
	}

	b.WriteString("## Article\n\n")
	for _, para := range strings.Split(a.Content, "\n\n") {
		if para = strings.TrimSpace(para); para != "" {
			b.WriteString(para + "\n\n")
		}
	}

	fmt.Fprintf(&b, "---\n\n[%s](%s)\n\n", truncateMiddle(a.Link, 70), a.Link)
	if a.HelpfulCount+a.NotHelpfulCount > 0 {
		fmt.Fprintf(&b, "Summary feedback: %d helpful, %d not helpful\n", a.HelpfulCount, a.NotHelpfulCount)
	}
	return b.String()
}

// RenderArticle renders the article for the terminal. style is a glamour
// style name; "auto" picks one from the terminal background.
func RenderArticle(a *storage.Article, style string) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(wordWrapWidth)}
	if style == "" || style == "auto" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}

	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("creating renderer: %w", err)
	}
	return r.Render(ArticleMarkdown(a))
}
