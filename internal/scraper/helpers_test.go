package scraper

import (
	"testing"

	"RatePull/internal/domain/models"
	"RatePull/internal/segment"
	"RatePull/pkg/logger"
)

// memorySink collects written records for assertions.
type memorySink struct {
	records []models.Record
	closed  bool
}

func (m *memorySink) Name() string { return "memory" }

func (m *memorySink) Write(record models.Record) error {
	m.records = append(m.records, record)
	return nil
}

func (m *memorySink) Close() error {
	m.closed = true
	return nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

// tinyGrid keeps provider tests to a handful of requests.
func tinyGrid() segment.Config {
	cfg := segment.DefaultConfig()
	cfg.LTVGranularity = 0.5
	cfg.CustomLoanVolumeBins = []int{100_000}
	return cfg
}
