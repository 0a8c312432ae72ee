package feed

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// PageExtractor turns an article URL into its plain body text.
type PageExtractor interface {
	Extract(ctx context.Context, url string) (string, error)
}

// HTMLExtractor downloads article pages and pulls paragraph text out with a
// cascade of CSS selectors, trying publisher-specific ones first.
type HTMLExtractor struct {
	fetcher   *Fetcher
	minLength int
}

func NewHTMLExtractor(fetcher *Fetcher, minLength int) *HTMLExtractor {
	return &HTMLExtractor{fetcher: fetcher, minLength: minLength}
}

var siteSelectors = []struct {
	host      string
	selectors []string
}{
	{"bbc.co.uk", []string{"[data-component=\"text-block\"] p", "article p"}},
	{"bbc.com", []string{"[data-component=\"text-block\"] p", "article p"}},
	{"cnn.com", []string{".article__content p", ".zn-body__paragraph", "article p"}},
	{"ndtv.com", []string{".sp-cn p", ".ins_storybody p", "article p"}},
	{"aljazeera.com", []string{".wysiwyg p", "main article p"}},
}

var genericSelectors = []string{
	"article p",
	"[itemprop=\"articleBody\"] p",
	".article-body p",
	".story-body p",
	".post-content p",
	".entry-content p",
	"main p",
	"#content p",
	"p",
}

// Extract returns the article text at url, or a ContentTooShortError when
// the page yields less than the configured minimum.
func (e *HTMLExtractor) Extract(ctx context.Context, url string) (string, error) {
	body, err := e.fetcher.FetchPage(ctx, url)
	if err != nil {
		return "", err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", &FetchError{URL: url, Err: fmt.Errorf("parsing HTML: %w", err)}
	}
	doc.Find("script, style, noscript, nav, header, footer, aside, form").Remove()

	text := extractParagraphs(doc, selectorsFor(url))
	if utf8.RuneCountInString(text) < e.minLength {
		// Pages without paragraph markup still have readable body text
		if bodyText := strings.Join(strings.Fields(doc.Find("body").Text()), " "); utf8.RuneCountInString(bodyText) > utf8.RuneCountInString(text) {
			text = bodyText
		}
	}

	if length := utf8.RuneCountInString(text); length == 0 || length < e.minLength {
		return "", &ContentTooShortError{URL: url, Length: length, Min: e.minLength}
	}
	return text, nil
}

func selectorsFor(url string) []string {
	for _, site := range siteSelectors {
		if strings.Contains(url, site.host) {
			return append(append([]string{}, site.selectors...), genericSelectors...)
		}
	}
	return genericSelectors
}

// extractParagraphs returns the text of the first selector whose matches
// fill at least one paragraph, joined by blank lines.
func extractParagraphs(doc *goquery.Document, selectors []string) string {
	for _, selector := range selectors {
		var paragraphs []string
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			text := strings.Join(strings.Fields(s.Text()), " ")
			if len(text) > 20 {
				paragraphs = append(paragraphs, text)
			}
		})
		if len(paragraphs) > 0 {
			return strings.Join(paragraphs, "\n\n")
		}
	}
	return ""
}
