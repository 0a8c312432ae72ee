package news

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/bytenews/internal/audio"
	"github.com/pders01/bytenews/internal/search"
	"github.com/pders01/bytenews/internal/storage"
	"github.com/pders01/bytenews/internal/summary"
	"github.com/pders01/bytenews/internal/textproc"
)

const storyContent = "The river rose overnight. Residents moved to higher ground. " +
	"The river is expected to peak on Friday. Officials opened two shelters. " +
	"Schools will stay closed."

type fakeSpeaker struct {
	calls int
	text  string
	err   error
}

func (f *fakeSpeaker) Synthesize(_ context.Context, text string) ([]byte, error) {
	f.calls++
	f.text = text
	if f.err != nil {
		return nil, f.err
	}
	return []byte("mp3:" + text), nil
}

type testEnv struct {
	svc     *Service
	store   *storage.Store
	index   *search.Index
	speaker *fakeSpeaker
	fs      afero.Fs
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store, err := storage.NewStore(filepath.Join(t.TempDir(), "news.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	index, err := search.NewMemIndex()
	require.NoError(t, err)
	t.Cleanup(func() { index.Close() })

	normalizer, err := textproc.New()
	require.NoError(t, err)

	env := &testEnv{store: store, index: index, speaker: &fakeSpeaker{}, fs: afero.NewMemMapFs()}
	env.svc = NewService(store, summary.New(normalizer), Options{
		Speaker:   env.speaker,
		Blobs:     audio.NewFileStore(env.fs, "/audio", "/media/audio/"),
		Index:     index,
		Sentences: 2,
	})
	return env
}

func (e *testEnv) addArticle(t *testing.T, title, link, content string) *storage.Article {
	t.Helper()
	a, err := e.store.Create(&storage.Article{
		Title:     title,
		Link:      link,
		Content:   content,
		Category:  "General",
		Published: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.NoError(t, e.index.IndexArticle(a))
	return a
}

func TestGenerateSummary(t *testing.T) {
	env := newTestEnv(t)
	a := env.addArticle(t, "River flood", "https://example.com/flood", storyContent)

	updated, err := env.svc.GenerateSummary(a.ID)
	require.NoError(t, err)
	assert.Equal(t, "The river rose overnight. The river is expected to peak on Friday.", updated.Summary)

	stored, err := env.store.GetArticle(a.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.Summary, stored.Summary)
}

func TestGenerateSummaryEmptyContent(t *testing.T) {
	env := newTestEnv(t)
	a := env.addArticle(t, "Empty", "https://example.com/empty", "   ")

	updated, err := env.svc.GenerateSummary(a.ID)
	require.NoError(t, err)
	assert.Equal(t, summary.Placeholder, updated.Summary)
}

func TestGenerateSummaryNotFound(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.GenerateSummary(404)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestGenerateAudio(t *testing.T) {
	env := newTestEnv(t)
	a := env.addArticle(t, "River flood", "https://example.com/flood", storyContent)

	ref, err := env.svc.GenerateAudio(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, "/media/audio/"+audio.FileName(a.ID), ref)

	stored, err := env.store.GetArticle(a.ID)
	require.NoError(t, err)
	assert.Equal(t, ref, stored.AudioRef)
	assert.NotEmpty(t, stored.Summary, "audio needs a summary first")
	assert.Equal(t, stored.Summary, env.speaker.text)

	data, err := afero.ReadFile(env.fs, "/audio/"+audio.FileName(a.ID))
	require.NoError(t, err)
	assert.Equal(t, "mp3:"+stored.Summary, string(data))
}

func TestGenerateAudioReturnsExisting(t *testing.T) {
	env := newTestEnv(t)
	a := env.addArticle(t, "River flood", "https://example.com/flood", storyContent)

	first, err := env.svc.GenerateAudio(context.Background(), a.ID)
	require.NoError(t, err)
	second, err := env.svc.GenerateAudio(context.Background(), a.ID)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, env.speaker.calls)
}

func TestGenerateAudioFailure(t *testing.T) {
	env := newTestEnv(t)
	env.speaker.err = &audio.SynthesisError{Err: errors.New("service down")}
	a := env.addArticle(t, "River flood", "https://example.com/flood", storyContent)

	_, err := env.svc.GenerateAudio(context.Background(), a.ID)
	var synthErr *audio.SynthesisError
	require.ErrorAs(t, err, &synthErr)

	stored, err := env.store.GetArticle(a.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.AudioRef)
}

func TestGenerateAudioNotConfigured(t *testing.T) {
	env := newTestEnv(t)
	svc := NewService(env.store, env.svc.summarizer, Options{})
	a := env.addArticle(t, "River flood", "https://example.com/flood", storyContent)

	_, err := svc.GenerateAudio(context.Background(), a.ID)
	assert.Error(t, err)
}

func TestApproveAndGetApproved(t *testing.T) {
	env := newTestEnv(t)
	a := env.addArticle(t, "River flood", "https://example.com/flood", storyContent)

	_, err := env.svc.GetApproved(a.ID)
	assert.ErrorIs(t, err, ErrNotApproved)

	approved, err := env.svc.Approve(a.ID)
	require.NoError(t, err)
	assert.True(t, approved.Approved)

	got, err := env.svc.GetApproved(a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.Link, got.Link)

	_, err = env.svc.GetApproved(999)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestFeedback(t *testing.T) {
	env := newTestEnv(t)
	a := env.addArticle(t, "River flood", "https://example.com/flood", storyContent)

	_, err := env.svc.Feedback(a.ID, FeedbackHelpful)
	require.NoError(t, err)
	_, err = env.svc.Feedback(a.ID, FeedbackHelpful)
	require.NoError(t, err)
	updated, err := env.svc.Feedback(a.ID, FeedbackNotHelpful)
	require.NoError(t, err)

	assert.Equal(t, 2, updated.HelpfulCount)
	assert.Equal(t, 1, updated.NotHelpfulCount)

	_, err = env.svc.Feedback(a.ID, "meh")
	assert.ErrorIs(t, err, ErrInvalidFeedback)
}

func TestListApproved(t *testing.T) {
	env := newTestEnv(t)
	a := env.addArticle(t, "One", "https://example.com/1", storyContent)
	env.addArticle(t, "Two", "https://example.com/2", storyContent)

	list, err := env.svc.ListApproved("", 0)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = env.svc.Approve(a.ID)
	require.NoError(t, err)

	list, err = env.svc.ListApproved("", 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, a.ID, list[0].ID)

	list, err = env.svc.ListApproved("Sports", 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSearchOnlyApproved(t *testing.T) {
	env := newTestEnv(t)
	flood := env.addArticle(t, "River flood", "https://example.com/flood", storyContent)
	env.addArticle(t, "River cruise", "https://example.com/cruise", "Boats sail along the river in summer.")

	_, err := env.svc.Approve(flood.ID)
	require.NoError(t, err)

	results, err := env.svc.Search("river", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, flood.ID, results[0].ID)
}

func TestReindex(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.store.Create(&storage.Article{Title: "Unindexed harvest", Link: "https://example.com/h", Approved: true})
	require.NoError(t, err)

	results, err := env.svc.Search("harvest", 5)
	require.NoError(t, err)
	assert.Empty(t, results)

	n, err := env.svc.Reindex()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	results, err = env.svc.Search("harvest", 5)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}
