// Package scheduler runs the feed scrape on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/pders01/bytenews/internal/debuglog"
	"github.com/pders01/bytenews/internal/feed"
)

// Scraper is implemented by feed.Manager.
type Scraper interface {
	Scrape(ctx context.Context) *feed.Report
}

type Scheduler struct {
	cron    *cron.Cron
	scraper Scraper
	spec    string

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	runs   int
}

// New validates spec (standard five-field cron or a descriptor such as
// "@every 1h") and prepares a scheduler. Overlapping runs are skipped.
func New(spec string, scraper Scraper) (*Scheduler, error) {
	logger := cronLogger{}
	c := cron.New(cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)))

	s := &Scheduler{cron: c, scraper: scraper, spec: spec}
	if _, err := c.AddFunc(spec, s.run); err != nil {
		return nil, fmt.Errorf("invalid scrape schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start begins running scrapes in the background. ctx bounds every run.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.cron.Start()
	debuglog.Infof("scrape scheduled: %s", s.spec)
}

// Stop cancels a running scrape and waits for it to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()
	<-s.cron.Stop().Done()
}

// Runs reports how many scrapes have completed.
func (s *Scheduler) Runs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs
}

func (s *Scheduler) run() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}

	report := s.scraper.Scrape(ctx)
	debuglog.WithFields(map[string]any{
		"run":     report.RunID,
		"added":   report.Added,
		"failed":  report.Failed(),
		"sources": len(report.Sources),
	}).Infof("scheduled scrape finished")

	s.mu.Lock()
	s.runs++
	s.mu.Unlock()
}

// cronLogger forwards cron's own messages to debuglog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	debuglog.WithFields(pairs(keysAndValues)).Debugf("cron: %s", msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	debuglog.WithFields(pairs(keysAndValues)).Errorf("cron: %s: %v", msg, err)
}

func pairs(keysAndValues []any) map[string]any {
	fields := make(map[string]any, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return fields
}
