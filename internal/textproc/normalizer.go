// Package textproc turns feed and page markup into plain text and splits text
// into words and sentences for summarization.
package textproc

import (
	"fmt"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
	"golang.org/x/net/html"
)

// Kind selects the unit Tokenize splits text into.
type Kind int

const (
	Word Kind = iota
	Sentence
)

func (k Kind) String() string {
	switch k {
	case Word:
		return "word"
	case Sentence:
		return "sentence"
	default:
		return "unknown"
	}
}

const punctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// Normalizer holds the English tokenizers and stop-word list. Build it once
// with New and share it; all methods are safe for concurrent use.
type Normalizer struct {
	words     *unicode.UnicodeTokenizer
	stopWords analysis.TokenMap

	mu      sync.Mutex // guards sentTok
	sentTok *sentences.DefaultSentenceTokenizer
}

// New loads the English stop-word list and the punkt sentence model.
func New() (*Normalizer, error) {
	stopWords := analysis.NewTokenMap()
	if err := stopWords.LoadBytes(en.EnglishStopWords); err != nil {
		return nil, fmt.Errorf("loading stop words: %w", err)
	}
	addStopWords(stopWords, summaryStopWords)

	sentTok, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, fmt.Errorf("loading sentence model: %w", err)
	}

	return &Normalizer{
		words:     unicode.NewUnicodeTokenizer(),
		stopWords: stopWords,
		sentTok:   sentTok,
	}, nil
}

// StripMarkup returns the text content of an HTML fragment. Text nodes are
// joined with a space so words on either side of a removed tag stay apart;
// script and style bodies are dropped.
func (n *Normalizer) StripMarkup(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return collapseSpace(raw)
	}
	doc.Find("script, style, noscript").Remove()

	var parts []string
	for _, node := range doc.Nodes {
		collectText(node, &parts)
	}
	return collapseSpace(strings.Join(parts, " "))
}

func collectText(node *html.Node, parts *[]string) {
	if node.Type == html.TextNode {
		*parts = append(*parts, node.Data)
		return
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		collectText(child, parts)
	}
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// StripPunctuation removes ASCII punctuation and leaves everything else,
// whitespace included, untouched.
func (n *Normalizer) StripPunctuation(text string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x80 && strings.ContainsRune(punctuation, r) {
			return -1
		}
		return r
	}, text)
}

// Tokenize splits text into words or sentences in document order. Word
// tokens follow Unicode word boundaries with punctuation dropped. Sentences
// are trimmed; empty fragments are skipped.
func (n *Normalizer) Tokenize(text string, kind Kind) []string {
	if strings.TrimSpace(text) == "" {
		return []string{}
	}

	switch kind {
	case Sentence:
		return n.sentenceTokens(text)
	default:
		return n.wordTokens(text)
	}
}

func (n *Normalizer) wordTokens(text string) []string {
	stream := n.words.Tokenize([]byte(text))
	out := make([]string, 0, len(stream))
	for _, token := range stream {
		out = append(out, string(token.Term))
	}
	return out
}

func (n *Normalizer) sentenceTokens(text string) []string {
	n.mu.Lock()
	found := n.sentTok.Tokenize(text)
	n.mu.Unlock()

	out := make([]string, 0, len(found))
	for _, s := range found {
		if trimmed := strings.TrimSpace(s.Text); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// IsStopWord reports whether the lower-cased word is on the English stop list.
func (n *Normalizer) IsStopWord(word string) bool {
	return n.stopWords[strings.ToLower(word)]
}
