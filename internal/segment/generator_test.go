package segment

import (
	"errors"
	"math"
	"testing"
)

func TestGenerateDefaultGrid(t *testing.T) {
	segments, err := Generate(DefaultConfig(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segments) == 0 {
		t.Fatalf("expected segments")
	}
	if len(segments) >= 500_000 {
		t.Fatalf("grid too large: %d segments", len(segments))
	}

	uniqueLTVs := map[float64]struct{}{}
	uniqueVols := map[float64]struct{}{}
	uniqueAssets := map[float64]struct{}{}

	for _, s := range segments {
		uniqueLTVs[s.LTV] = struct{}{}
		uniqueVols[s.LoanAmount] = struct{}{}
		uniqueAssets[s.AssetValue] = struct{}{}

		if math.Abs(s.LTV-s.LoanAmount/s.AssetValue) > 1e-9 {
			t.Fatalf("ltv drifted from loan/asset: %+v", s)
		}
		if s.LoanAmount < 50_000 {
			t.Fatalf("loan amount below axis floor: %v", s.LoanAmount)
		}
		if s.AssetValue < 50_000 {
			t.Fatalf("asset value below axis floor: %v", s.AssetValue)
		}
	}

	if len(uniqueLTVs) <= 1 || len(uniqueVols) <= 1 || len(uniqueAssets) <= 1 {
		t.Fatalf("degenerate grid: %d ltvs, %d volumes, %d asset values",
			len(uniqueLTVs), len(uniqueVols), len(uniqueAssets))
	}
}

func TestGenerateDefaultCardinality(t *testing.T) {
	// 89 volume bins, 50 LTV steps -> 89*50 asset values, crossed
	// against the volume axis again
	segments, err := Generate(DefaultConfig(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := 89 * 50 * 89
	if len(segments) != want {
		t.Fatalf("expected %d segments, got %d", want, len(segments))
	}
}

func TestGenerateAttachesPeriod(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CustomLoanVolumeBins = []int{100_000, 200_000}
	cfg.LTVGranularity = 0.1

	segments, err := Generate(cfg, "36")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, s := range segments {
		if s.Period != "36" {
			t.Fatalf("expected period 36 on every segment, got %q", s.Period)
		}
	}
}

func TestGenerateCustomBins(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CustomLoanVolumeBins = []int{100_000, 200_000}

	segments, err := Generate(cfg, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, s := range segments {
		if s.LoanAmount != 100_000 && s.LoanAmount != 200_000 {
			t.Fatalf("loan amount %v not drawn from custom bins", s.LoanAmount)
		}
	}
}

func TestGenerateSingleCell(t *testing.T) {
	// granularity 0.5 yields a single LTV sample, so one custom bin
	// produces exactly one asset value and one final segment
	cfg := DefaultConfig()
	cfg.LTVGranularity = 0.5
	cfg.CustomLoanVolumeBins = []int{100_000}

	segments, err := Generate(cfg, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segments) != 1 {
		t.Fatalf("expected exactly one segment, got %d", len(segments))
	}
	s := segments[0]
	if s.AssetValue != 200_000.0 {
		t.Fatalf("expected asset value 200000, got %v", s.AssetValue)
	}
	if s.LoanAmount != 100_000 {
		t.Fatalf("expected loan amount 100000, got %v", s.LoanAmount)
	}
	if s.Period != "" {
		t.Fatalf("expected empty period, got %q", s.Period)
	}
	if s.LTV != 0.5 {
		t.Fatalf("expected ltv 0.5, got %v", s.LTV)
	}
}

func TestGenerateDeterministicShuffle(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CustomLoanVolumeBins = []int{100_000, 200_000, 300_000}
	cfg.LTVGranularity = 0.05
	cfg.RandomizeOrder = true
	cfg.Seed = 42

	first, err := Generate(cfg, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Generate(cfg, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("length mismatch: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("order not reproducible at index %d: %+v vs %+v", i, first[i], second[i])
		}
	}

	cfg.Seed = 1337
	other, err := Generate(cfg, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	same := true
	for i := range first {
		if first[i] != other[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatalf("different seeds produced identical order")
	}
}

func TestGenerateTruncationIsPrefix(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CustomLoanVolumeBins = []int{100_000, 200_000}
	cfg.LTVGranularity = 0.1
	cfg.RandomizeOrder = true
	cfg.Seed = 7

	full, err := Generate(cfg, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg.URLsLimit = 5
	limited, err := Generate(cfg, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(limited) != 5 {
		t.Fatalf("expected 5 segments, got %d", len(limited))
	}
	for i := range limited {
		if limited[i] != full[i] {
			t.Fatalf("truncation is not a prefix at index %d", i)
		}
	}

	cfg.URLsLimit = len(full) + 100
	all, err := Generate(cfg, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != len(full) {
		t.Fatalf("limit above total should return everything, got %d of %d", len(all), len(full))
	}
}

func TestGenerateZeroLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.URLsLimit = 0
	segments, err := Generate(cfg, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segments) != 0 {
		t.Fatalf("limit 0 should return no segments, got %d", len(segments))
	}
}

func TestGenerateInvalidGranularity(t *testing.T) {
	for _, g := range []float64{0, -0.1} {
		cfg := DefaultConfig()
		cfg.LTVGranularity = g
		if _, err := Generate(cfg, ""); !errors.Is(err, ErrInvalidConfiguration) {
			t.Fatalf("granularity %v: expected ErrInvalidConfiguration, got %v", g, err)
		}
	}
}

func TestGenerateInvalidBins(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CustomLoanVolumeBins = []int{100_000, 0}
	if _, err := Generate(cfg, ""); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
	}

	cfg.CustomLoanVolumeBins = []int{-50_000}
	if _, err := Generate(cfg, ""); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestParseLoanVolumeBins(t *testing.T) {
	want := 20 // 50k..2M step 100k
	for _, in := range []string{
		"[50_000, 2_000_000, 100_000]",
		"[50000,2000000,100000]",
		"50000.0,2000000.0,100000.0",
	} {
		bins, err := ParseLoanVolumeBins(in)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", in, err)
		}
		if len(bins) != want {
			t.Fatalf("%q: expected %d bins, got %d", in, want, len(bins))
		}
		if bins[0] != 50_000 || bins[len(bins)-1] != 1_950_000 {
			t.Fatalf("%q: unexpected bounds %d..%d", in, bins[0], bins[len(bins)-1])
		}
	}
}

func TestParseLoanVolumeBinsRejectsGarbage(t *testing.T) {
	for _, in := range []string{"0.0.0.0.1", "0-100-10", "", "100000", "[1,2]", "[0,100,10]"} {
		if _, err := ParseLoanVolumeBins(in); err == nil {
			t.Fatalf("%q: expected error", in)
		}
	}
}
