package scraper

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"RatePull/internal/domain/models"
	"RatePull/internal/segment"
	"RatePull/internal/sink"
	xhttp "RatePull/pkg/http"
	"RatePull/pkg/logger"
)

// Skandia blocks abusive callers with an HTML page carrying this
// phrase; once it appears the IP is burned and the run must stop.
const skandiaBlockPhrase = "Vi har stoppat detta anrop"

// SkandiaScraper polls the Skandiabanken mortgage discount API. The
// rate list endpoint yields the live commitment periods and their
// current list rates; each (period, segment) pair is then POSTed to
// the discounts endpoint. Failed posts are retried once in-memory at
// the end of the run.
type SkandiaScraper struct {
	baseURL      string
	discountsURL string

	segCfg segment.Config
	sinks  []sink.Sink
	tr     *Transport
	log    *logger.Logger
	rec    Metrics
}

// skandiaRateEntry is one row of the public rate list, e.g.
// {"id": "3;4,41", "text": "Ordinarie ränta (3 mån): 4,41%"}.
type skandiaRateEntry struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

func (e skandiaRateEntry) bindingPeriod() string {
	return strings.SplitN(e.ID, ";", 2)[0]
}

func (e skandiaRateEntry) housingInterest() (float64, error) {
	parts := strings.Split(e.ID, ";")
	raw := strings.ReplaceAll(parts[len(parts)-1], ",", ".")
	return strconv.ParseFloat(raw, 64)
}

type skandiaDiscountRequest struct {
	BindingPeriod   int     `json:"bindingPeriod"`
	HousingInterest float64 `json:"housingInterest"`
	LoanVolume      int     `json:"loanVolume"`
	Price           int     `json:"price"`
}

type skandiaDiscountResponse struct {
	AmortizePercentage          float64        `json:"AmortizePercentage"`
	AmortizeAmount              float64        `json:"AmortizeAmount"`
	Discount                    float64        `json:"Discount"`
	Interest                    float64        `json:"Interest"`
	BaseDicount                 float64        `json:"BaseDicount"` // sic, upstream field name
	EffectiveInterestRate       float64        `json:"EffectiveInterestRate"`
	YearlyDiscount              float64        `json:"YearlyDiscount"`
	MonthlyDiscount             float64        `json:"MonthlyDiscount"`
	MonthlyInterestCost         float64        `json:"MonthlyInterestCost"`
	MonthlyInterestTaxDeduction float64        `json:"MonthlyInterestTaxDeduction"`
	AdditonalDiscounts          map[string]any `json:"AdditonalDiscounts"`
}

type skandiaJob struct {
	seg models.MarketSegment
	req skandiaDiscountRequest
}

// NewSkandia creates the Skandiabanken scraper.
func NewSkandia(baseURL, discountsURL string, segCfg segment.Config, sinks []sink.Sink, tr *Transport, log *logger.Logger, rec Metrics) *SkandiaScraper {
	return &SkandiaScraper{
		baseURL:      baseURL,
		discountsURL: discountsURL,
		segCfg:       segCfg,
		sinks:        sinks,
		tr:           tr,
		log:          log,
		rec:          rec,
	}
}

func (s *SkandiaScraper) Name() string { return "skandia" }

// generateJobs fetches the live rate list and expands one segment grid
// per listed period into POST payloads.
func (s *SkandiaScraper) generateJobs(ctx context.Context) ([]skandiaJob, error) {
	var entries []skandiaRateEntry
	if err := s.tr.GetJSON(ctx, s.baseURL+"/interests/mortgage", nil, &entries); err != nil {
		return nil, fmt.Errorf("fetch rate list: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("fetch rate list: no periods listed")
	}

	perPass := s.segCfg
	perPass.RandomizeOrder = false
	perPass.URLsLimit = -1

	var jobs []skandiaJob
	for _, entry := range entries {
		period, err := strconv.Atoi(entry.bindingPeriod())
		if err != nil {
			s.log.Warn("unparseable rate list entry, skipping", logger.String("id", entry.ID))
			continue
		}
		interest, err := entry.housingInterest()
		if err != nil {
			s.log.Warn("unparseable rate list entry, skipping", logger.String("id", entry.ID))
			continue
		}

		segments, err := segment.Generate(perPass, entry.bindingPeriod())
		if err != nil {
			return nil, err
		}
		for _, seg := range segments {
			jobs = append(jobs, skandiaJob{
				seg: seg,
				req: skandiaDiscountRequest{
					BindingPeriod:   period,
					HousingInterest: interest,
					LoanVolume:      int(seg.LoanAmount),
					Price:           int(seg.AssetValue),
				},
			})
		}
	}

	if s.segCfg.RandomizeOrder {
		shuffleJobs(jobs, s.segCfg.Seed)
	}
	if s.segCfg.URLsLimit >= 0 && s.segCfg.URLsLimit < len(jobs) {
		jobs = jobs[:s.segCfg.URLsLimit]
	}
	return jobs, nil
}

// Run posts every (period, segment) discount query and exports one row
// per successful response. A detected block aborts with ErrBlocked.
func (s *SkandiaScraper) Run(ctx context.Context) (Stats, error) {
	start := time.Now()
	stats := Stats{Bank: s.Name()}
	defer closeSinks(s.sinks, s.log)

	jobs, err := s.generateJobs(ctx)
	if err != nil {
		return stats, err
	}
	stats.Segments = len(jobs)
	s.rec.RecordSegments(s.Name(), len(jobs))
	s.log.Info("scraping segment grid", logger.Int("segments", len(jobs)))

	var retry []skandiaJob
	for i, job := range jobs {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		ok, err := s.scrapeOne(ctx, job, &stats)
		if err != nil {
			return stats, err
		}
		if !ok {
			retry = append(retry, job)
		}

		logProgress(s.log, i+1, len(jobs))
	}

	// single in-memory retry pass, nothing survives a restart
	if len(retry) > 0 {
		s.log.Info("retrying failed requests", logger.Int("count", len(retry)))
		for _, job := range retry {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
			stats.Retries++
			if _, err := s.scrapeOne(ctx, job, &stats); err != nil {
				return stats, err
			}
		}
	}

	stats.Duration = time.Since(start)
	return stats, nil
}

// scrapeOne returns ok=false for a retryable failure and a non-nil
// error only for fatal conditions (block page, cancellation).
func (s *SkandiaScraper) scrapeOne(ctx context.Context, job skandiaJob, stats *Stats) (bool, error) {
	stats.Requests++

	var resp skandiaDiscountResponse
	if err := s.tr.PostJSON(ctx, s.discountsURL, job.req, nil, &resp); err != nil {
		var statusErr *xhttp.StatusError
		if errors.As(err, &statusErr) && strings.Contains(statusErr.Body, skandiaBlockPhrase) {
			s.rec.RecordError("blocked")
			return false, fmt.Errorf("%w: %s", ErrBlocked, s.Name())
		}
		stats.Errors++
		s.log.Warn("request failed, queueing for retry", logger.Error(err))
		return false, nil
	}

	record := models.NewRecord(s.Name(), s.discountsURL, job.seg)
	record.Extra["AmortizePercentage"] = resp.AmortizePercentage
	record.Extra["AmortizeAmount"] = resp.AmortizeAmount
	record.Extra["Discount"] = resp.Discount
	record.Extra["Interest"] = resp.Interest
	record.Extra["BaseDicount"] = resp.BaseDicount
	record.Extra["EffectiveInterestRate"] = resp.EffectiveInterestRate
	record.Extra["YearlyDiscount"] = resp.YearlyDiscount
	record.Extra["MonthlyDiscount"] = resp.MonthlyDiscount
	record.Extra["MonthlyInterestCost"] = resp.MonthlyInterestCost
	record.Extra["MonthlyInterestTaxDeduction"] = resp.MonthlyInterestTaxDeduction
	record.Extra["AdditonalDiscounts"] = resp.AdditonalDiscounts
	record.Extra["bindingPeriod"] = job.req.BindingPeriod
	record.Extra["housingInterest"] = job.req.HousingInterest
	stats.Records += writeToSinks(s.sinks, record, s.rec, s.log)
	return true, nil
}

// shuffleJobs mirrors segment.Shuffle for the expanded POST payloads.
func shuffleJobs(jobs []skandiaJob, seed int64) {
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(jobs), func(i, j int) {
		jobs[i], jobs[j] = jobs[j], jobs[i]
	})
}
