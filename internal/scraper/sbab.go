package scraper

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"RatePull/internal/domain/models"
	"RatePull/internal/segment"
	"RatePull/internal/sink"
	"RatePull/pkg/logger"
)

// SBABScraper polls the open SBAB rate API. One GET per segment, the
// response lists one rate per binding period.
type SBABScraper struct {
	baseURL string
	segCfg  segment.Config
	sinks   []sink.Sink
	tr      *Transport
	log     *logger.Logger
	rec     Metrics
}

type sbabRateEntry struct {
	LoptidText        string  `json:"LoptidText"`
	Rantesats         float64 `json:"Rantesats"`
	Rantebindningstid int     `json:"Rantebindningstid"`
	EffektivRantesats float64 `json:"EffektivRantesats"`
}

// NewSBAB creates the SBAB scraper.
func NewSBAB(baseURL string, segCfg segment.Config, sinks []sink.Sink, tr *Transport, log *logger.Logger, rec Metrics) *SBABScraper {
	return &SBABScraper{
		baseURL: baseURL,
		segCfg:  segCfg,
		sinks:   sinks,
		tr:      tr,
		log:     log,
		rec:     rec,
	}
}

func (s *SBABScraper) Name() string { return "sbab" }

func (s *SBABScraper) scrapeURL(loanAmount, assetValue float64) string {
	return fmt.Sprintf("%s/resources/rantor/bolan/hamtaprisdiffaderantor/%d/%d",
		s.baseURL, int(assetValue), int(loanAmount))
}

// Run walks the segment grid and exports one row per listed rate.
func (s *SBABScraper) Run(ctx context.Context) (Stats, error) {
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

		var entries []sbabRateEntry
		if err := s.tr.GetJSON(ctx, url, nil, &entries); err != nil {
			stats.Errors++
			s.log.Warn("request failed, skipping segment", logger.String("url", url), logger.Error(err))
			continue
		}

		for _, e := range entries {
			record := models.NewRecord(s.Name(), url, seg)
			record.Period = strconv.Itoa(e.Rantebindningstid)
			record.Extra["LoptidText"] = e.LoptidText
			record.Extra["Rantesats"] = e.Rantesats
			record.Extra["Rantebindningstid"] = e.Rantebindningstid
			record.Extra["EffektivRantesats"] = e.EffektivRantesats
			stats.Records += writeToSinks(s.sinks, record, s.rec, s.log)
		}

		logProgress(s.log, i+1, len(segments))
	}

	stats.Duration = time.Since(start)
	return stats, nil
}
