package models

import (
	"encoding/json"
	"sort"
	"strconv"
	"time"
)

// Record is the flat row eventually appended to a sink: a known core
// schema shared by every provider plus an overflow bag for whatever
// extra columns the provider's API returned.
type Record struct {
	Bank      string
	URL       string
	ScrapedAt time.Time

	AssetValue float64
	LoanAmount float64
	LTV        float64
	Period     string

	// Extra holds provider-specific response fields keyed by column
	// name. Values are rendered with FormatValue when exported.
	Extra map[string]any
}

// NewRecord builds a record from a segment and the request URL.
func NewRecord(bank, url string, seg MarketSegment) Record {
	return Record{
		Bank:       bank,
		URL:        url,
		ScrapedAt:  time.Now().UTC(),
		AssetValue: seg.AssetValue,
		LoanAmount: seg.LoanAmount,
		LTV:        seg.LTV,
		Period:     seg.Period,
		Extra:      make(map[string]any),
	}
}

// CoreColumns is the fixed ordering of the shared schema, used as the
// leading columns of every exported row.
var CoreColumns = []string{
	"bank",
	"url",
	"scraped_at",
	"asset_value",
	"loan_amount",
	"ltv",
	"period",
}

// Columns returns the full column list for this record: core columns
// first, then the Extra keys in sorted order.
func (r Record) Columns() []string {
	cols := make([]string, 0, len(CoreColumns)+len(r.Extra))
	cols = append(cols, CoreColumns...)
	extra := make([]string, 0, len(r.Extra))
	for k := range r.Extra {
		extra = append(extra, k)
	}
	sort.Strings(extra)
	return append(cols, extra...)
}

// Value returns the rendered value for a column, or the empty string
// when the record has no value for it.
func (r Record) Value(column string) string {
	switch column {
	case "bank":
		return r.Bank
	case "url":
		return r.URL
	case "scraped_at":
		return r.ScrapedAt.Format(time.RFC3339)
	case "asset_value":
		return FormatValue(r.AssetValue)
	case "loan_amount":
		return FormatValue(r.LoanAmount)
	case "ltv":
		return FormatValue(r.LTV)
	case "period":
		return r.Period
	}
	if v, ok := r.Extra[column]; ok {
		return FormatValue(v)
	}
	return ""
}

// FormatValue renders a cell value for CSV export.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return t.Format(time.RFC3339)
	default:
		// nested payloads (slices, objects) are kept as raw JSON
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
