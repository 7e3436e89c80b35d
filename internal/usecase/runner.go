package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"

	"RatePull/internal/scraper"
	"RatePull/pkg/logger"
)

// ScrapeRunner executes the selected provider scrapers one after
// another and prints a per-bank summary table when done. Each scraper
// owns its sinks, so a failing provider never corrupts another's
// output file.
type ScrapeRunner struct {
	scrapers []scraper.Scraper
	log      *logger.Logger
}

// NewScrapeRunner creates a runner over the given scrapers.
func NewScrapeRunner(scrapers []scraper.Scraper, log *logger.Logger) *ScrapeRunner {
	return &ScrapeRunner{scrapers: scrapers, log: log}
}

// Run executes every scraper and aggregates their stats. A provider
// failure is recorded and the remaining providers still run; context
// cancellation stops the whole run.
func (r *ScrapeRunner) Run(ctx context.Context) ([]scraper.Stats, error) {
	runID := uuid.NewString()
	log := r.log.With(logger.String("run_id", runID))

	start := time.Now()
	all := make([]scraper.Stats, 0, len(r.scrapers))
	var errs []error

	for _, s := range r.scrapers {
		log.Info("starting scraper", logger.String("bank", s.Name()))

		stats, err := s.Run(ctx)
		all = append(all, stats)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			if ctx.Err() != nil {
				log.Warn("run cancelled", logger.String("bank", s.Name()))
				break
			}
			log.Error("scraper failed", logger.String("bank", s.Name()), logger.Error(err))
			continue
		}

		log.Info("scraper finished",
			logger.String("bank", s.Name()),
			logger.Int("records", stats.Records),
			logger.Int("errors", stats.Errors),
			logger.Duration("duration", stats.Duration))
	}

	renderSummary(os.Stdout, all, time.Since(start))
	return all, errors.Join(errs...)
}

func renderSummary(out *os.File, stats []scraper.Stats, elapsed time.Duration) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{"Bank", "Segments", "Requests", "Records", "Errors", "Retries", "Duration"})

	var requests, records, errCount int
	for _, s := range stats {
		t.AppendRow(table.Row{
			s.Bank, s.Segments, s.Requests, s.Records, s.Errors, s.Retries,
			s.Duration.Round(time.Millisecond),
		})
		requests += s.Requests
		records += s.Records
		errCount += s.Errors
	}
	t.AppendFooter(table.Row{"total", "", requests, records, errCount, "", elapsed.Round(time.Millisecond)})
	t.Render()
}
