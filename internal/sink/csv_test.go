package sink

import (
	"encoding/csv"
	"os"
	"testing"
	"time"

	"RatePull/internal/domain/models"
)

func readAll(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return rows
}

func sampleRecord(bank string, extra map[string]any) models.Record {
	r := models.NewRecord(bank, "https://example.com/rates", models.NewMarketSegment(200_000, 100_000, "12"))
	r.ScrapedAt = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for k, v := range extra {
		r.Extra[k] = v
	}
	return r
}

func TestCSVSinkHeaderFromFirstRecord(t *testing.T) {
	s, err := NewCSVSink(t.TempDir(), "sbab")
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}

	first := sampleRecord("sbab", map[string]any{"rate": 4.19, "effective_rate": 4.31})
	if err := s.Write(first); err != nil {
		t.Fatalf("write: %v", err)
	}
	// second record carries an unknown column and misses a known one
	second := sampleRecord("sbab", map[string]any{"rate": 3.99, "surprise": "x"})
	if err := s.Write(second); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	rows := readAll(t, s.Path())
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}

	header := rows[0]
	want := []string{"bank", "url", "scraped_at", "asset_value", "loan_amount", "ltv", "period", "effective_rate", "rate"}
	if len(header) != len(want) {
		t.Fatalf("header mismatch: %v", header)
	}
	for i := range want {
		if header[i] != want[i] {
			t.Fatalf("header[%d]: want %q got %q", i, want[i], header[i])
		}
	}

	// locked header: row 2 keeps the original columns
	if rows[2][7] != "" {
		t.Fatalf("missing column should be empty, got %q", rows[2][7])
	}
	if rows[1][4] != "100000" || rows[1][5] != "0.5" {
		t.Fatalf("unexpected segment cells: %v", rows[1])
	}
}

func TestCSVSinkFilenameNamespace(t *testing.T) {
	dir := t.TempDir()
	s, err := NewCSVSink(dir, "hypoteket")
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	defer s.Close()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one file, got %d", len(entries))
	}
	name := entries[0].Name()
	if got := name[:len("hypoteket_mortgage_pricing_")]; got != "hypoteket_mortgage_pricing_" {
		t.Fatalf("unexpected filename %q", name)
	}
}
