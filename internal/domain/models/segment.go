package models

// MarketSegment is one pricing query point: a (asset value, loan amount)
// pair with the loan-to-value ratio it was sampled at, plus an optional
// provider-specific commitment period label.
//
// Segments are immutable value objects. LTV is fixed at construction as
// LoanAmount/AssetValue and must never be mutated independently of the
// two source fields.
type MarketSegment struct {
	AssetValue float64
	LoanAmount float64

	// Period is the commitment/binding period label, provider-specific
	// encoding (month count as string, or a raw provider code). Empty
	// when the provider has no period axis at generation time.
	Period string

	LTV float64
}

// NewMarketSegment builds a segment and derives its LTV ratio.
func NewMarketSegment(assetValue, loanAmount float64, period string) MarketSegment {
	return MarketSegment{
		AssetValue: assetValue,
		LoanAmount: loanAmount,
		Period:     period,
		LTV:        loanAmount / assetValue,
	}
}
