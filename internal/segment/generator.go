// Package segment generates the market-segment grid that parameterizes
// every outbound pricing request.
//
// The two business dimensions are loan-to-value ratio and loan volume.
// Lender APIs accept loan amount and asset value directly, so the LTV
// axis is folded into derived asset values via ltv = loan/asset, i.e.
// asset = loan/ltv. The final grid is the cross product of the volume
// axis with every derived asset value, which maximizes coverage of the
// 2D (loan, asset) query space the APIs accept.
package segment

import (
	"errors"
	"fmt"
	"math/rand"

	"RatePull/internal/domain/models"
)

// ErrInvalidConfiguration is returned when the generator is handed a
// malformed granularity or bin value. It reflects a programming or
// input mistake and should be treated as fatal, not retried.
var ErrInvalidConfiguration = errors.New("invalid segment configuration")

// DefaultLTVGranularity is the step size of the LTV axis when the
// configuration does not override it.
const DefaultLTVGranularity = 0.01

// LTV axis bounds: [0.5, 1.0), half-open.
const (
	ltvAxisStart = 0.5
	ltvAxisStop  = 1.0
)

// DefaultLoanVolumeBins is the built-in loan-volume axis: a three-tier
// arithmetic progression balancing coverage against combinatorial
// explosion. Upper bounds are exclusive. The tiers are chosen so the
// default grid stays well below one million segments.
var DefaultLoanVolumeBins = defaultLoanVolumeBins()

func defaultLoanVolumeBins() []int {
	var bins []int
	for v := 50_000; v < 2_000_000; v += 50_000 {
		bins = append(bins, v)
	}
	for v := 2_000_000; v < 5_000_000; v += 100_000 {
		bins = append(bins, v)
	}
	for v := 5_000_000; v < 10_000_000; v += 250_000 {
		bins = append(bins, v)
	}
	return bins
}

// Config is the generator's configuration surface.
type Config struct {
	// LTVGranularity is the step size of the LTV axis. Must be > 0;
	// DefaultConfig seeds it with DefaultLTVGranularity.
	LTVGranularity float64

	// CustomLoanVolumeBins overrides the built-in volume axis when
	// non-empty. Used verbatim, in the given order.
	CustomLoanVolumeBins []int

	// URLsLimit caps the number of segments returned. A negative
	// value means no limit. Truncation is always a prefix of the
	// (possibly shuffled) sequence, never a sample.
	URLsLimit int

	// RandomizeOrder shuffles the segment sequence with a permutation
	// seeded by Seed. Same seed, same order, across runs.
	RandomizeOrder bool
	Seed           int64
}

// DefaultConfig returns a Config with the built-in axes and no limit.
func DefaultConfig() Config {
	return Config{LTVGranularity: DefaultLTVGranularity, URLsLimit: -1}
}

func (c Config) validate() error {
	if c.LTVGranularity <= 0 {
		return fmt.Errorf("%w: ltv granularity %v must be > 0", ErrInvalidConfiguration, c.LTVGranularity)
	}
	for _, bin := range c.CustomLoanVolumeBins {
		if bin <= 0 {
			return fmt.Errorf("%w: loan volume bin %d must be positive", ErrInvalidConfiguration, bin)
		}
	}
	return nil
}

// Generate produces the complete, deterministic set of market segments
// for one scraping pass. The period label is attached uniformly to
// every segment; pass the empty string when the provider has no period
// axis at generation time.
//
// Natural order is outer loop over the volume axis, inner loop over the
// full derived asset-value list, both ascending for the default bins.
// Pure computation: no I/O, fresh slice per call, safe for concurrent
// callers.
func Generate(cfg Config, period string) ([]models.MarketSegment, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	volumeBins := DefaultLoanVolumeBins
	if len(cfg.CustomLoanVolumeBins) > 0 {
		volumeBins = cfg.CustomLoanVolumeBins
	}

	ltvBins := ltvAxis(cfg.LTVGranularity)

	// one derived asset value per (ltv, volume) pair, LTV outer
	assetValues := make([]float64, 0, len(ltvBins)*len(volumeBins))
	for _, ltv := range ltvBins {
		for _, vol := range volumeBins {
			assetValues = append(assetValues, float64(vol)/ltv)
		}
	}

	segments := make([]models.MarketSegment, 0, len(volumeBins)*len(assetValues))
	for _, loanAmount := range volumeBins {
		for _, assetValue := range assetValues {
			segments = append(segments, models.NewMarketSegment(assetValue, float64(loanAmount), period))
		}
	}

	if cfg.RandomizeOrder {
		Shuffle(segments, cfg.Seed)
	}

	return Truncate(segments, cfg.URLsLimit), nil
}

// Shuffle applies an in-place Fisher-Yates permutation driven by a
// seeded PRNG: same seed, same resulting order, across runs. Callers
// that combine several generation passes (one per commitment period)
// shuffle the combined sequence with this instead of per pass.
func Shuffle(segments []models.MarketSegment, seed int64) {
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(segments), func(i, j int) {
		segments[i], segments[j] = segments[j], segments[i]
	})
}

// Truncate returns the first limit segments; a negative limit means no
// truncation. Always a prefix, never a sample.
func Truncate(segments []models.MarketSegment, limit int) []models.MarketSegment {
	if limit >= 0 && limit < len(segments) {
		return segments[:limit]
	}
	return segments
}

// ltvAxis samples [ltvAxisStart, ltvAxisStop) with the given step,
// index-multiplied rather than accumulated to keep float error flat.
func ltvAxis(step float64) []float64 {
	var bins []float64
	for i := 0; ; i++ {
		v := ltvAxisStart + float64(i)*step
		if v >= ltvAxisStop {
			break
		}
		bins = append(bins, v)
	}
	return bins
}
