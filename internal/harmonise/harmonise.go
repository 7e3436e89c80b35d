// Package harmonise merges per-run scraper CSVs, whose columns differ
// per provider, into one dataset with a canonical schema. Provider
// specific columns are preserved verbatim inside a raw json column.
package harmonise

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"RatePull/pkg/logger"
)

// OutputColumns is the canonical schema of the merged dataset.
var OutputColumns = []string{
	"bank",
	"ltv",
	"asset_value",
	"loan_amount",
	"interest_term_months",
	"scraped_time",
	"url",
	"json",
}

// columnMap renames scraper output columns to the canonical schema.
var columnMap = map[string]string{
	"url":         "url",
	"ltv":         "ltv",
	"asset_value": "asset_value",
	"loan_amount": "loan_amount",
	"period":      "interest_term_months",
	"scraped_at":  "scraped_time",
}

// Options control a harmonisation run.
type Options struct {
	DataDir   string
	Output    string
	Delimiter rune // output separator, ',' when zero
	Limit     int  // max input files, <= 0 means all
	Cleanup   bool // remove merged inputs afterwards
}

// Summary reports what a run processed.
type Summary struct {
	Files int
	Rows  int
}

// Run merges every CSV under opts.DataDir into opts.Output. Input
// files are visited in lexical order so repeated runs over the same
// data produce byte-identical output.
func Run(opts Options, log *logger.Logger) (Summary, error) {
	var sum Summary

	if !strings.HasSuffix(opts.Output, ".csv") {
		return sum, fmt.Errorf("output must be a csv filename, got %q", opts.Output)
	}
	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}

	inputs, err := listInputs(opts.DataDir, opts.Output, opts.Limit)
	if err != nil {
		return sum, err
	}
	if len(inputs) == 0 {
		return sum, fmt.Errorf("no csv files under %s", opts.DataDir)
	}

	if dir := filepath.Dir(opts.Output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return sum, fmt.Errorf("create output dir: %w", err)
		}
	}
	out, err := os.Create(opts.Output)
	if err != nil {
		return sum, fmt.Errorf("create output: %w", err)
	}
	defer out.Close()

	w := csv.NewWriter(out)
	w.Comma = opts.Delimiter
	if err := w.Write(OutputColumns); err != nil {
		return sum, fmt.Errorf("write header: %w", err)
	}

	for _, path := range inputs {
		rows, err := mergeFile(path, w)
		if err != nil {
			return sum, fmt.Errorf("harmonise %s: %w", path, err)
		}
		sum.Files++
		sum.Rows += rows
		log.Debug("merged file", logger.String("path", path), logger.Int("rows", rows))
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return sum, fmt.Errorf("flush output: %w", err)
	}

	if opts.Cleanup {
		log.Info("cleaning up merged inputs", logger.Int("count", len(inputs)))
		for _, path := range inputs {
			if err := os.Remove(path); err != nil {
				return sum, fmt.Errorf("cleanup %s: %w", path, err)
			}
		}
	}
	return sum, nil
}

// listInputs returns the data dir's CSV files in lexical order,
// excluding the output file itself when it lives inside the data dir.
func listInputs(dataDir, output string, limit int) ([]string, error) {
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("read data dir: %w", err)
	}

	absOutput, _ := filepath.Abs(output)

	var inputs []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}
		path := filepath.Join(dataDir, entry.Name())
		if abs, err := filepath.Abs(path); err == nil && abs == absOutput {
			continue
		}
		inputs = append(inputs, path)
	}
	sort.Strings(inputs)

	if limit > 0 && limit < len(inputs) {
		inputs = inputs[:limit]
	}
	return inputs, nil
}

// mergeFile appends one input CSV's rows to the output writer.
func mergeFile(path string, w *csv.Writer) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return 0, fmt.Errorf("read header: %w", err)
	}

	bank := bankFromFilename(path)

	rows := 0
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return rows, fmt.Errorf("read row: %w", err)
		}

		values := map[string]string{"bank": bank}
		raw := make(map[string]string, len(header))
		for i, col := range header {
			if i >= len(row) {
				break
			}
			raw[col] = row[i]
			if canonical, ok := columnMap[col]; ok {
				values[canonical] = row[i]
			}
		}

		encoded, err := json.Marshal(raw)
		if err != nil {
			return rows, fmt.Errorf("encode raw row: %w", err)
		}
		values["json"] = string(encoded)

		record := make([]string, len(OutputColumns))
		for i, col := range OutputColumns {
			record[i] = values[col]
		}
		if err := w.Write(record); err != nil {
			return rows, fmt.Errorf("write row: %w", err)
		}
		rows++
	}
	return rows, nil
}

// bankFromFilename extracts the provider name from the per-run file
// naming scheme, e.g. "sbab_mortgage_pricing_<ts>.csv" yields "sbab".
func bankFromFilename(path string) string {
	base := filepath.Base(path)
	if i := strings.Index(base, "_"); i > 0 {
		return base[:i]
	}
	return strings.TrimSuffix(base, ".csv")
}
