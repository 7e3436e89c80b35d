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

// ICAScraper polls the ICA Banken interest-proposal API. The API is
// keyed by commitment period, so one generation pass runs per period
// and the combined sequence is shuffled and truncated as a whole.
// Requests carry a short-lived bearer token fetched from the public
// token endpoint and refreshed mid-run when it expires.
type ICAScraper struct {
	baseURL  string
	ratesURL string
	periods  []int
	tokenTTL time.Duration

	segCfg segment.Config
	sinks  []sink.Sink
	tr     *Transport
	log    *logger.Logger
	rec    Metrics

	tokenFetchedAt time.Time
}

type icaAccessTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type icaProposal struct {
	ListInterestRate             float64 `json:"list_interest_rate"`
	ListAmount                   int     `json:"list_amount"`
	RiskDiscountInterestRate     float64 `json:"risk_discount_interest_rate"`
	RiskDiscountAmount           int     `json:"risk_discount_amount"`
	LoyaltyDiscountInterestRate  float64 `json:"loyalty_discount_interest_rate"`
	LoyaltyDiscountAmount        int     `json:"loyalty_discount_amount"`
	CategoryDiscountInterestRate float64 `json:"category_discount_interest_rate"`
	CategoryDiscountAmount       int     `json:"category_discount_amount"`
	OfferedInterestRate          float64 `json:"offered_interest_rate"`
	OfferedAmount                int     `json:"offered_amount"`
	EffectiveInterestRate        float64 `json:"effective_interest_rate"`
	LoanToValueInterestRate      float64 `json:"loan_to_value_interest_rate"`
}

type icaProposalEnvelope struct {
	Response icaProposal `json:"response"`
}

// NewICA creates the ICA Banken scraper.
func NewICA(baseURL, ratesURL string, periods []int, tokenTTL time.Duration, segCfg segment.Config, sinks []sink.Sink, tr *Transport, log *logger.Logger, rec Metrics) *ICAScraper {
	return &ICAScraper{
		baseURL:  baseURL,
		ratesURL: ratesURL,
		periods:  periods,
		tokenTTL: tokenTTL,
		segCfg:   segCfg,
		sinks:    sinks,
		tr:       tr,
		log:      log,
		rec:      rec,
	}
}

func (s *ICAScraper) Name() string { return "ica" }

func (s *ICAScraper) scrapeURL(seg models.MarketSegment) string {
	return fmt.Sprintf("%s?type_of_mortgage=BL&period_of_commitment=%s&loan_amount=%d&value_of_the_estate=%d&ica_spend_amount=0",
		s.ratesURL, seg.Period, int(seg.LoanAmount), int(seg.AssetValue))
}

func (s *ICAScraper) tokenExpired() bool {
	return time.Since(s.tokenFetchedAt) > s.tokenTTL
}

// refreshAccessToken fetches a fresh public token and pins it on the
// transport as the Authorization header.
func (s *ICAScraper) refreshAccessToken(ctx context.Context) error {
	var token icaAccessTokenResponse
	if err := s.tr.GetJSON(ctx, s.baseURL+"/token/public", nil, &token); err != nil {
		return fmt.Errorf("fetch access token: %w", err)
	}
	if token.AccessToken == "" {
		return fmt.Errorf("fetch access token: empty token in response")
	}
	s.tr.SetHeader("Authorization", "Bearer "+token.AccessToken)
	s.tokenFetchedAt = time.Now()
	s.log.Debug("access token refreshed", logger.Int("expires_in", token.ExpiresIn))
	return nil
}

// generateSegments runs one generation pass per commitment period and
// shuffles/truncates the combined sequence per the run configuration.
func (s *ICAScraper) generateSegments() ([]models.MarketSegment, error) {
	perPass := s.segCfg
	perPass.RandomizeOrder = false
	perPass.URLsLimit = -1

	var segments []models.MarketSegment
	for _, period := range s.periods {
		part, err := segment.Generate(perPass, strconv.Itoa(period))
		if err != nil {
			return nil, err
		}
		segments = append(segments, part...)
	}

	if s.segCfg.RandomizeOrder {
		segment.Shuffle(segments, s.segCfg.Seed)
	}
	return segment.Truncate(segments, s.segCfg.URLsLimit), nil
}

// Run walks the per-period segment grids and exports one row per
// proposal.
func (s *ICAScraper) Run(ctx context.Context) (Stats, error) {
	start := time.Now()
	stats := Stats{Bank: s.Name()}
	defer closeSinks(s.sinks, s.log)

	segments, err := s.generateSegments()
	if err != nil {
		return stats, err
	}
	stats.Segments = len(segments)
	s.rec.RecordSegments(s.Name(), len(segments))
	s.log.Info("scraping segment grid",
		logger.Int("segments", len(segments)), logger.Int("periods", len(s.periods)))

	if err := s.refreshAccessToken(ctx); err != nil {
		return stats, err
	}

	for i, seg := range segments {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if s.tokenExpired() {
			if err := s.refreshAccessToken(ctx); err != nil {
				return stats, err
			}
		}

		url := s.scrapeURL(seg)
		stats.Requests++

		var envelope icaProposalEnvelope
		if err := s.tr.GetJSON(ctx, url, nil, &envelope); err != nil {
			stats.Errors++
			s.log.Warn("request failed, skipping segment", logger.String("url", url), logger.Error(err))
			continue
		}

		p := envelope.Response
		record := models.NewRecord(s.Name(), url, seg)
		record.Extra["list_interest_rate"] = p.ListInterestRate
		record.Extra["list_amount"] = p.ListAmount
		record.Extra["risk_discount_interest_rate"] = p.RiskDiscountInterestRate
		record.Extra["risk_discount_amount"] = p.RiskDiscountAmount
		record.Extra["loyalty_discount_interest_rate"] = p.LoyaltyDiscountInterestRate
		record.Extra["loyalty_discount_amount"] = p.LoyaltyDiscountAmount
		record.Extra["category_discount_interest_rate"] = p.CategoryDiscountInterestRate
		record.Extra["category_discount_amount"] = p.CategoryDiscountAmount
		record.Extra["offered_interest_rate"] = p.OfferedInterestRate
		record.Extra["offered_amount"] = p.OfferedAmount
		record.Extra["effective_interest_rate"] = p.EffectiveInterestRate
		record.Extra["loan_to_value_interest_rate"] = p.LoanToValueInterestRate
		stats.Records += writeToSinks(s.sinks, record, s.rec, s.log)

		logProgress(s.log, i+1, len(segments))
	}

	stats.Duration = time.Since(start)
	return stats, nil
}
