package audio

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pders01/bytenews/internal/config"
)

const (
	defaultEndpoint = "https://translate.google.com/translate_tts"

	// chunkSize is the longest text one translate_tts request accepts.
	chunkSize = 100

	// maxChunkAudio caps the MP3 read for one chunk.
	maxChunkAudio = 4 << 20
)

// GoogleTTS speaks text through the Google Translate speech endpoint. Long
// text is sent in chunks and the MP3 parts are concatenated.
type GoogleTTS struct {
	client    *http.Client
	endpoint  string
	userAgent string
}

func NewGoogleTTS(cfg *config.Config) *GoogleTTS {
	tts := &GoogleTTS{
		client:    &http.Client{Timeout: defaultTimeout},
		endpoint:  defaultEndpoint,
		userAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64)",
	}
	if cfg != nil {
		if cfg.Audio.Endpoint != "" {
			tts.endpoint = cfg.Audio.Endpoint
		}
		if cfg.Audio.HTTPTimeout > 0 {
			tts.client.Timeout = cfg.Audio.HTTPTimeout
		}
		if cfg.Feed.UserAgent != "" {
			tts.userAgent = cfg.Feed.UserAgent
		}
	}
	return tts
}

func (g *GoogleTTS) Synthesize(ctx context.Context, text, language string) ([]byte, error) {
	chunks := splitChunks(text, chunkSize)
	if len(chunks) == 0 {
		return nil, ErrEmptyText
	}

	var audio []byte
	for i, chunk := range chunks {
		part, err := g.fetchChunk(ctx, chunk, language, i, len(chunks))
		if err != nil {
			return nil, fmt.Errorf("chunk %d of %d: %w", i+1, len(chunks), err)
		}
		audio = append(audio, part...)
	}
	return audio, nil
}

func (g *GoogleTTS) fetchChunk(ctx context.Context, text, language string, idx, total int) ([]byte, error) {
	params := url.Values{}
	params.Set("ie", "UTF-8")
	params.Set("client", "tw-ob")
	params.Set("tl", language)
	params.Set("q", text)
	params.Set("total", strconv.Itoa(total))
	params.Set("idx", strconv.Itoa(idx))
	params.Set("textlen", strconv.Itoa(utf8.RuneCountInString(text)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxChunkAudio+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxChunkAudio {
		return nil, fmt.Errorf("audio chunk exceeds %d bytes", maxChunkAudio)
	}
	return data, nil
}

// splitChunks breaks text into pieces of at most size characters, cutting at
// spaces where possible.
func splitChunks(text string, size int) []string {
	var chunks []string
	var current []rune

	flush := func() {
		if s := strings.TrimSpace(string(current)); s != "" {
			chunks = append(chunks, s)
		}
		current = current[:0]
	}

	for _, word := range strings.Fields(text) {
		runes := []rune(word)
		for len(runes) > size {
			flush()
			chunks = append(chunks, string(runes[:size]))
			runes = runes[size:]
		}

		needed := len(runes)
		if len(current) > 0 {
			needed++
		}
		if len(current)+needed > size {
			flush()
		}
		if len(current) > 0 {
			current = append(current, ' ')
		}
		current = append(current, runes...)
	}
	flush()
	return chunks
}
