package scraper

import (
	"context"
	"fmt"
	"time"

	"RatePull/internal/domain/models"
	"RatePull/internal/segment"
	"RatePull/internal/sink"
	"RatePull/pkg/logger"
)

// HypoteketScraper polls the Hypoteket loan rates API. One GET per
// segment, the response lists one rate per interest term.
type HypoteketScraper struct {
	baseURL string
	segCfg  segment.Config
	sinks   []sink.Sink
	tr      *Transport
	log     *logger.Logger
	rec     Metrics
}

type hypoteketRateEntry struct {
	InterestTerm              string  `json:"interestTerm"` // threeMonth | oneYear | threeYear | fiveYear
	Rate                      float64 `json:"rate"`
	EffectiveInterestRate     float64 `json:"effectiveInterestRate"`
	ValidFrom                 string  `json:"validFrom"`
	ID                        int     `json:"id"`
	Order                     int     `json:"order"`
	CodeInterestRate          float64 `json:"codeInterestRate"`
	CodeEffectiveInterestRate float64 `json:"codeEffectiveInterestRate"`
	Code                      string  `json:"code"`
}

// NewHypoteket creates the Hypoteket scraper.
func NewHypoteket(baseURL string, segCfg segment.Config, sinks []sink.Sink, tr *Transport, log *logger.Logger, rec Metrics) *HypoteketScraper {
	return &HypoteketScraper{
		baseURL: baseURL,
		segCfg:  segCfg,
		sinks:   sinks,
		tr:      tr,
		log:     log,
		rec:     rec,
	}
}

func (s *HypoteketScraper) Name() string { return "hypoteket" }

func (s *HypoteketScraper) scrapeURL(loanAmount, assetValue float64) string {
	return fmt.Sprintf("%s/loans/interestRates?propertyValue=%d&loanSize=%d",
		s.baseURL, int(assetValue), int(loanAmount))
}

// Run walks the segment grid and exports one row per listed term.
func (s *HypoteketScraper) Run(ctx context.Context) (Stats, error) {
	start := time.Now()
	stats := Stats{Bank: s.Name()}
	defer closeSinks(s.sinks, s.log)

	segments, err := segment.Generate(s.segCfg, "")
	if err != nil {
		return stats, err
	}
	stats.Segments = len(segments)
	s.rec.RecordSegments(s.Name(), len(segments))
	s.log.Info("scraping segment grid", logger.Int("segments", len(segments)))

	for i, seg := range segments {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		url := s.scrapeURL(seg.LoanAmount, seg.AssetValue)
		stats.Requests++

		var entries []hypoteketRateEntry
		if err := s.tr.GetJSON(ctx, url, nil, &entries); err != nil {
			stats.Errors++
			s.log.Warn("request failed, skipping segment", logger.String("url", url), logger.Error(err))
			continue
		}

		for _, e := range entries {
			record := models.NewRecord(s.Name(), url, seg)
			record.Period = e.InterestTerm
			record.Extra["interestTerm"] = e.InterestTerm
			record.Extra["rate"] = e.Rate
			record.Extra["effectiveInterestRate"] = e.EffectiveInterestRate
			record.Extra["validFrom"] = e.ValidFrom
			record.Extra["id"] = e.ID
			record.Extra["order"] = e.Order
			record.Extra["codeInterestRate"] = e.CodeInterestRate
			record.Extra["codeEffectiveInterestRate"] = e.CodeEffectiveInterestRate
			record.Extra["code"] = e.Code
			stats.Records += writeToSinks(s.sinks, record, s.rec, s.log)
		}

		logProgress(s.log, i+1, len(segments))
	}

	stats.Duration = time.Since(start)
	return stats, nil
}
