package segment

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseLoanVolumeBins parses a "[start, stop, step]" range expression
// into an expanded half-open arithmetic progression. Brackets are
// optional, underscores and a trailing ".0" are tolerated, so
// "[50_000, 2_000_000, 100_000]", "50000,2000000,100000" and
// "50000.0,2000000.0,100000.0" all describe the same axis.
func ParseLoanVolumeBins(s string) ([]int, error) {
	cleaned := strings.NewReplacer("[", "", "]", "", "_", "", " ", "").Replace(s)
	parts := strings.Split(cleaned, ",")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: loan volume bins %q: want start,stop,step", ErrInvalidConfiguration, s)
	}

	vals := make([]int, 3)
	for i, p := range parts {
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: loan volume bins %q: %v", ErrInvalidConfiguration, s, err)
		}
		if f != float64(int(f)) {
			return nil, fmt.Errorf("%w: loan volume bins %q: %v is not a whole number", ErrInvalidConfiguration, s, f)
		}
		vals[i] = int(f)
	}

	start, stop, step := vals[0], vals[1], vals[2]
	if start <= 0 || stop <= start || step <= 0 {
		return nil, fmt.Errorf("%w: loan volume bins %q: need 0 < start < stop and step > 0", ErrInvalidConfiguration, s)
	}

	var bins []int
	for v := start; v < stop; v += step {
		bins = append(bins, v)
	}
	return bins, nil
}
