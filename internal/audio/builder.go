// Package audio turns summaries into speech through an external
// text-to-speech service and stores the resulting MP3 files.
package audio

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pders01/bytenews/internal/config"
	"github.com/pders01/bytenews/internal/debuglog"
)

const (
	// MaxChars is the longest text the speech service accepts.
	MaxChars = 5000

	defaultLanguage = "en"
	defaultTimeout  = 30 * time.Second
)

// ErrEmptyText is wrapped in a SynthesisError when there is nothing to say.
var ErrEmptyText = errors.New("no text to synthesize")

// SynthesisError reports a failed synthesis. It is shown to users as is.
type SynthesisError struct {
	Err error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("audio synthesis failed: %v", e.Err)
}

func (e *SynthesisError) Unwrap() error {
	return e.Err
}

// SpeechSynthesizer converts text to MP3 audio in the given language.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text, language string) ([]byte, error)
}

// Builder prepares summary text for a SpeechSynthesizer and returns the
// complete audio.
type Builder struct {
	synth    SpeechSynthesizer
	language string
	maxChars int
	timeout  time.Duration
}

func NewBuilder(cfg *config.Config, synth SpeechSynthesizer) *Builder {
	b := &Builder{
		synth:    synth,
		language: defaultLanguage,
		maxChars: MaxChars,
		timeout:  defaultTimeout,
	}
	if cfg != nil {
		if cfg.Audio.Language != "" {
			b.language = cfg.Audio.Language
		}
		if cfg.Audio.MaxChars > 0 && cfg.Audio.MaxChars < MaxChars {
			b.maxChars = cfg.Audio.MaxChars
		}
		if cfg.Audio.HTTPTimeout > 0 {
			b.timeout = cfg.Audio.HTTPTimeout
		}
	}
	return b
}

// Synthesize returns MP3 audio for text, cut to the service limit first.
// Every failure is a *SynthesisError.
func (b *Builder) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &SynthesisError{Err: ErrEmptyText}
	}
	text = Truncate(text, b.maxChars)

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	data, err := b.synth.Synthesize(ctx, text, b.language)
	if err != nil {
		return nil, &SynthesisError{Err: err}
	}
	if len(data) == 0 {
		return nil, &SynthesisError{Err: errors.New("speech service returned no audio")}
	}

	debuglog.Debugf("synthesized %d bytes of audio from %d characters", len(data), len([]rune(text)))
	return data, nil
}

// Truncate cuts text to at most limit characters.
func Truncate(text string, limit int) string {
	if limit <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}

// FileName is the stored audio name for an article.
func FileName(articleID uint64) string {
	return fmt.Sprintf("%d_summary.mp3", articleID)
}
