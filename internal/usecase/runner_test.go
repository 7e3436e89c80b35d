package usecase

import (
	"context"
	"errors"
	"testing"

	"RatePull/internal/scraper"
	"RatePull/pkg/logger"
)

type stubScraper struct {
	name  string
	stats scraper.Stats
	err   error
	runs  int
}

func (s *stubScraper) Name() string { return s.name }

func (s *stubScraper) Run(ctx context.Context) (scraper.Stats, error) {
	s.runs++
	if err := ctx.Err(); err != nil {
		return s.stats, err
	}
	return s.stats, s.err
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func TestRunnerContinuesPastFailedProvider(t *testing.T) {
	boom := errors.New("blocked")
	a := &stubScraper{name: "sbab", err: boom}
	b := &stubScraper{name: "ica", stats: scraper.Stats{Bank: "ica", Records: 5}}

	r := NewScrapeRunner([]scraper.Scraper{a, b}, testLogger(t))
	stats, err := r.Run(context.Background())

	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped provider error, got %v", err)
	}
	if b.runs != 1 {
		t.Fatal("second provider should still run")
	}
	if len(stats) != 2 || stats[1].Records != 5 {
		t.Fatalf("stats %+v", stats)
	}
}

func TestRunnerStopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := &stubScraper{name: "sbab"}
	b := &stubScraper{name: "ica"}
	r := NewScrapeRunner([]scraper.Scraper{a, b}, testLogger(t))

	_, err := r.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
	if b.runs != 0 {
		t.Fatal("cancelled run must not start further providers")
	}
}
