package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pders01/bytenews/internal/audio"
	"github.com/pders01/bytenews/internal/config"
	"github.com/pders01/bytenews/internal/feed"
	"github.com/pders01/bytenews/internal/ingest"
	"github.com/pders01/bytenews/internal/news"
	"github.com/pders01/bytenews/internal/search"
	"github.com/pders01/bytenews/internal/storage"
	"github.com/pders01/bytenews/internal/summary"
	"github.com/pders01/bytenews/internal/textproc"
)

// app holds everything one command needs. Close releases it.
type app struct {
	cfg     *config.Config
	store   *storage.Store
	index   *search.Index
	manager *feed.Manager
	service *news.Service
	blobs   audio.BlobStore
}

// openApp wires the pipeline from cfg. withAudio also sets up speech
// synthesis and the audio store, which may need cloud credentials.
func openApp(ctx context.Context, cfg *config.Config, withAudio bool) (*app, error) {
	store, err := storage.Open(cfg.Database.Path, cfg.Database.Timeout)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, store: store}

	a.index, err = search.Open(cfg.Database.SearchIndex)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("opening search index: %w", err)
	}

	normalizer, err := textproc.New()
	if err != nil {
		a.Close()
		return nil, err
	}

	opts := news.Options{Index: a.index, Sentences: cfg.Summary.Sentences}
	if withAudio {
		a.blobs, err = audio.NewBlobStore(ctx, cfg)
		if err != nil {
			a.Close()
			return nil, err
		}
		opts.Blobs = a.blobs
		opts.Speaker = audio.NewBuilder(cfg, audio.NewGoogleTTS(cfg))
	}

	a.service = news.NewService(store, summary.New(normalizer), opts)
	a.manager = feed.NewManager(cfg, feed.NewCollector(cfg, normalizer), ingest.New(store, a.index), store)
	return a, nil
}

// audioPath turns an audio reference into something a local player can
// open: a file path for the local backend, the reference itself otherwise.
func (a *app) audioPath(ref string) string {
	files, ok := a.blobs.(*audio.FileStore)
	if !ok {
		return ref
	}
	base := a.cfg.Audio.BaseURL
	if base != "" && strings.HasPrefix(ref, base) {
		return files.Path(strings.TrimPrefix(ref, base))
	}
	return ref
}

func (a *app) Close() error {
	var errs []error
	if closer, ok := a.blobs.(io.Closer); ok {
		errs = append(errs, closer.Close())
	}
	if a.index != nil {
		errs = append(errs, a.index.Close())
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	return errors.Join(errs...)
}
