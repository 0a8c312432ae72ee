package audio

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/spf13/afero"

	"github.com/pders01/bytenews/internal/config"
)

// BlobStore persists synthesized audio and returns the reference readers use
// to fetch it.
type BlobStore interface {
	Save(ctx context.Context, name string, data []byte) (string, error)
}

// FileStore writes audio files to a directory and references them by a URL
// prefix served by the API.
type FileStore struct {
	fs      afero.Fs
	dir     string
	baseURL string
}

func NewFileStore(fs afero.Fs, dir, baseURL string) *FileStore {
	if baseURL == "" {
		baseURL = "/media/audio/"
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &FileStore{fs: fs, dir: dir, baseURL: baseURL}
}

func (s *FileStore) Save(_ context.Context, name string, data []byte) (string, error) {
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating audio directory: %w", err)
	}
	if err := afero.WriteFile(s.fs, s.Path(name), data, 0o644); err != nil {
		return "", fmt.Errorf("writing audio file: %w", err)
	}
	return s.baseURL + name, nil
}

// Path is the file location of the named audio.
func (s *FileStore) Path(name string) string {
	return filepath.Join(s.dir, filepath.Base(name))
}

// Fs exposes the directory holding the audio files, for serving them.
func (s *FileStore) Fs() afero.Fs {
	return afero.NewBasePathFs(s.fs, s.dir)
}

// GCSStore uploads audio to a Cloud Storage bucket.
type GCSStore struct {
	client *storage.Client
	bucket string
	prefix string
}

func NewGCSStore(ctx context.Context, bucket string) (*GCSStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}
	return &GCSStore{client: client, bucket: bucket, prefix: "audio/"}, nil
}

func (s *GCSStore) Save(ctx context.Context, name string, data []byte) (string, error) {
	objectName := s.prefix + name
	writer := s.client.Bucket(s.bucket).Object(objectName).NewWriter(ctx)
	writer.ContentType = "audio/mpeg"

	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return "", fmt.Errorf("writing object data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("closing object writer: %w", err)
	}
	return publicURL(s.bucket, objectName), nil
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}

func publicURL(bucket, object string) string {
	return "https://storage.googleapis.com/" + path.Join(bucket, object)
}

// NewBlobStore builds the store selected by audio.backend.
func NewBlobStore(ctx context.Context, cfg *config.Config) (BlobStore, error) {
	switch cfg.Audio.Backend {
	case "gcs":
		return NewGCSStore(ctx, cfg.Audio.Bucket)
	case "local", "":
		return NewFileStore(afero.NewOsFs(), cfg.Audio.Dir, cfg.Audio.BaseURL), nil
	default:
		return nil, fmt.Errorf("unknown audio backend %q", cfg.Audio.Backend)
	}
}
