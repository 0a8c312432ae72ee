package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/bytenews/internal/feed"
)

type countingScraper struct {
	calls atomic.Int32
	block bool
}

func (c *countingScraper) Scrape(ctx context.Context) *feed.Report {
	c.calls.Add(1)
	if c.block {
		<-ctx.Done()
	}
	return &feed.Report{RunID: "test"}
}

func TestNewRejectsBadSchedule(t *testing.T) {
	_, err := New("every tuesday", &countingScraper{})
	assert.Error(t, err)

	for _, spec := range []string{"@every 1h", "*/5 * * * *", "@daily"} {
		_, err := New(spec, &countingScraper{})
		assert.NoError(t, err, spec)
	}
}

func TestSchedulerRunsScrape(t *testing.T) {
	scraper := &countingScraper{}
	s, err := New("@every 1s", scraper)
	require.NoError(t, err)

	s.Start(context.Background())
	defer s.Stop()

	assert.Eventually(t, func() bool { return s.Runs() >= 1 }, 3*time.Second, 50*time.Millisecond)
	assert.GreaterOrEqual(t, scraper.calls.Load(), int32(1))
}

func TestStopCancelsRunningScrape(t *testing.T) {
	scraper := &countingScraper{block: true}
	s, err := New("@every 1s", scraper)
	require.NoError(t, err)

	s.Start(context.Background())
	require.Eventually(t, func() bool { return scraper.calls.Load() == 1 }, 3*time.Second, 20*time.Millisecond)

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after cancelling the scrape")
	}
	assert.Equal(t, 1, s.Runs())
}

func TestCronLoggerPairs(t *testing.T) {
	fields := pairs([]any{"entry", 1, "next", "soon", "dangling"})
	assert.Equal(t, map[string]any{"entry": 1, "next": "soon"}, fields)

	cronLogger{}.Error(errors.New("boom"), "job failed", "entry", 1)
}
