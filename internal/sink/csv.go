package sink

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"RatePull/internal/domain/models"
)

// CSVSink appends records to a per-run CSV file under the data dir,
// one file per provider namespace. The header is derived from the
// first record written (core columns first, extra columns sorted) and
// locked for the rest of the run; later records missing a column get
// an empty cell and unknown columns are dropped.
//
// Safe for concurrent use.
type CSVSink struct {
	mu      sync.Mutex
	path    string
	file    *os.File
	writer  *csv.Writer
	columns []string
}

// NewCSVSink creates the output file for a namespace (provider name).
// Intermediate directories are created automatically.
func NewCSVSink(dataDir, namespace string) (*CSVSink, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("csv: create data dir: %w", err)
	}

	filename := fmt.Sprintf("%s_mortgage_pricing_%s.csv", namespace, time.Now().UTC().Format("20060102T150405"))
	path := filepath.Join(dataDir, filename)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	return &CSVSink{
		path:   path,
		file:   f,
		writer: csv.NewWriter(f),
	}, nil
}

func (s *CSVSink) Name() string { return "csv" }

// Path returns the output file location.
func (s *CSVSink) Path() string { return s.path }

// Write appends one record, emitting the header row on first use.
func (s *CSVSink) Write(record models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.columns == nil {
		s.columns = record.Columns()
		if err := s.writer.Write(s.columns); err != nil {
			return fmt.Errorf("csv: write header: %w", err)
		}
	}

	row := make([]string, len(s.columns))
	for i, col := range s.columns {
		row[i] = record.Value(col)
	}
	if err := s.writer.Write(row); err != nil {
		return fmt.Errorf("csv: write row: %w", err)
	}

	s.writer.Flush()
	return s.writer.Error()
}

// Close flushes and closes the underlying file.
func (s *CSVSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		_ = s.file.Close()
		return err
	}
	return s.file.Close()
}
