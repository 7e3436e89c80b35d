// Package scraper implements the per-provider clients that walk the
// generated segment grid, call each lender's public pricing API and
// export the normalized rows.
package scraper

import (
	"context"
	"time"

	"RatePull/internal/domain/models"
	"RatePull/internal/sink"
	"RatePull/pkg/logger"
)

// Scraper is one provider client. Run walks the full segment grid for
// the provider, one request at a time, writing rows to the configured
// sinks as it goes.
type Scraper interface {
	Name() string
	Run(ctx context.Context) (Stats, error)
}

// Stats summarizes one provider's scraping pass.
type Stats struct {
	Bank     string
	Segments int
	Requests int
	Records  int
	Errors   int
	Retries  int
	Duration time.Duration
}

// Metrics is the subset of the metrics recorder the scrapers need.
type Metrics interface {
	RecordRequest(bank, result string)
	RecordLatency(bank string, seconds float64)
	RecordWritten(bank, sink string)
	RecordError(kind string)
	RecordSegments(bank string, count int)
}

// NopMetrics discards all observations.
type NopMetrics struct{}

func (NopMetrics) RecordRequest(string, string)  {}
func (NopMetrics) RecordLatency(string, float64) {}
func (NopMetrics) RecordWritten(string, string)  {}
func (NopMetrics) RecordError(string)            {}
func (NopMetrics) RecordSegments(string, int)    {}

// writeToSinks exports one record to every sink, returning how many
// writes succeeded.
func writeToSinks(sinks []sink.Sink, record models.Record, rec Metrics, log *logger.Logger) int {
	written := 0
	for _, s := range sinks {
		if err := s.Write(record); err != nil {
			rec.RecordError("sink_write")
			log.Error("sink write failed", logger.String("sink", s.Name()), logger.Error(err))
			continue
		}
		rec.RecordWritten(record.Bank, s.Name())
		written++
	}
	return written
}

func closeSinks(sinks []sink.Sink, log *logger.Logger) {
	for _, s := range sinks {
		if err := s.Close(); err != nil {
			log.Warn("sink close failed", logger.String("sink", s.Name()), logger.Error(err))
		}
	}
}

// logProgress emits a heartbeat every progressEvery segments.
const progressEvery = 500

func logProgress(log *logger.Logger, done, total int) {
	if done%progressEvery == 0 || done == total {
		log.Info("progress", logger.Int("done", done), logger.Int("total", total))
	}
}
