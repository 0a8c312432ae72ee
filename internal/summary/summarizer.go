// Package summary builds extractive summaries by scoring sentences on word
// frequency, with extra weight for title words and the opening sentences.
package summary

import (
	"sort"
	"strings"
	"unicode"

	"github.com/pders01/bytenews/internal/textproc"
)

// Placeholder is returned for content with no text to summarize.
const Placeholder = "No content available to summarize."

const (
	DefaultSentences = 3

	titleBoost      = 0.5
	leadBonus       = 1.0
	secondLeadBonus = 0.5
)

// Result is a summary and the positions of the sentences it was built from.
type Result struct {
	Text            string
	SentenceIndices []int
}

type Summarizer struct {
	normalizer *textproc.Normalizer
}

func New(normalizer *textproc.Normalizer) *Summarizer {
	return &Summarizer{normalizer: normalizer}
}

// Summarize returns the n highest scoring sentences of content in document
// order. Content that already has n sentences or fewer comes back unchanged.
func (s *Summarizer) Summarize(content, title string, n int) string {
	return s.Extract(content, title, n).Text
}

// Extract is Summarize with the chosen sentence positions.
func (s *Summarizer) Extract(content, title string, n int) Result {
	if n <= 0 {
		n = DefaultSentences
	}
	if strings.TrimSpace(content) == "" {
		return Result{Text: Placeholder}
	}

	sentences := s.normalizer.Tokenize(content, textproc.Sentence)
	if len(sentences) == 0 {
		return Result{Text: Placeholder}
	}
	if len(sentences) <= n {
		return Result{Text: content, SentenceIndices: sequence(len(sentences))}
	}

	freq := make(map[string]float64)
	for _, word := range s.words(content) {
		if isAlnum(word) && !s.normalizer.IsStopWord(word) {
			freq[word]++
		}
	}
	if title != "" {
		for _, word := range s.words(title) {
			if _, ok := freq[word]; ok {
				freq[word] += titleBoost
			}
		}
	}

	type scored struct {
		index int
		score float64
	}
	ranked := make([]scored, len(sentences))
	for i, sentence := range sentences {
		var score float64
		for _, word := range s.words(sentence) {
			score += freq[word]
		}
		switch i {
		case 0:
			score += leadBonus
		case 1:
			score += secondLeadBonus
		}
		ranked[i] = scored{index: i, score: score}
	}

	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].score > ranked[b].score
	})

	indices := make([]int, 0, n)
	for _, r := range ranked[:n] {
		indices = append(indices, r.index)
	}
	sort.Ints(indices)

	picked := make([]string, 0, n)
	for _, i := range indices {
		picked = append(picked, sentences[i])
	}
	return Result{Text: strings.Join(picked, " "), SentenceIndices: indices}
}

// words lower-cases text, drops punctuation and splits it into words.
func (s *Summarizer) words(text string) []string {
	return s.normalizer.Tokenize(s.normalizer.StripPunctuation(strings.ToLower(text)), textproc.Word)
}

func isAlnum(word string) bool {
	if word == "" {
		return false
	}
	for _, r := range word {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func sequence(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
