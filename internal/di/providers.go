package di

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"RatePull/internal/scraper"
	"RatePull/internal/segment"
	"RatePull/internal/sink"
	"RatePull/internal/usecase"
	"RatePull/pkg/config"
	pkgkafka "RatePull/pkg/kafka"
	applogger "RatePull/pkg/logger"
	"RatePull/pkg/metrics"
	"RatePull/pkg/server"
)

// ValidTargets are the supported provider names.
var ValidTargets = []string{"sbab", "ica", "hypoteket", "skandia"}

// ValidSinks are the supported sink names.
var ValidSinks = []string{"csv", "kafka"}

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideMetrics creates the Prometheus metrics recorder.
func ProvideMetrics() *metrics.Recorder {
	return metrics.New()
}

// ProvideSegmentConfig builds the generator config, expanding a
// custom loan-volume range expression when one is set.
func ProvideSegmentConfig(cfg *config.Config) (segment.Config, error) {
	segCfg := segment.Config{
		LTVGranularity: cfg.Segments.LTVGranularity,
		URLsLimit:      cfg.Scrape.URLsLimit,
		RandomizeOrder: cfg.Scrape.RandomizeOrder,
		Seed:           cfg.Scrape.Seed,
	}
	if cfg.Segments.LoanVolumeBins != "" {
		bins, err := segment.ParseLoanVolumeBins(cfg.Segments.LoanVolumeBins)
		if err != nil {
			return segment.Config{}, fmt.Errorf("loan volume bins: %w", err)
		}
		segCfg.CustomLoanVolumeBins = bins
	}
	return segCfg, nil
}

// ProvideScrapers builds one scraper per configured target, each with
// its own transport and sinks so runs stay isolated per provider.
func ProvideScrapers(cfg *config.Config, segCfg segment.Config, log *applogger.Logger, rec *metrics.Recorder) ([]scraper.Scraper, error) {
	if len(cfg.Scrape.Targets) == 0 {
		return nil, fmt.Errorf("no scrape targets configured, valid targets: %s", strings.Join(ValidTargets, ", "))
	}

	var proxy *url.URL
	if cfg.Scrape.Proxy != "" {
		u, err := url.Parse(cfg.Scrape.Proxy)
		if err != nil {
			return nil, fmt.Errorf("parse proxy url: %w", err)
		}
		proxy = u
	}

	targets := dedupe(cfg.Scrape.Targets)
	scrapers := make([]scraper.Scraper, 0, len(targets))
	for _, target := range targets {
		sinks, err := buildSinks(cfg, target)
		if err != nil {
			return nil, err
		}

		tr := scraper.NewTransport(target, log, rec,
			scraper.WithDelay(cfg.Scrape.Delay),
			scraper.WithRateLimit(cfg.Scrape.RateLimit),
			scraper.WithRotateUserAgent(cfg.Scrape.RotateUserAgent),
			scraper.WithProxy(proxy),
			scraper.WithTimeout(cfg.Scrape.RequestTimeout),
		)

		switch target {
		case "sbab":
			scrapers = append(scrapers, scraper.NewSBAB(cfg.Providers.SBAB.BaseURL, segCfg, sinks, tr, log, rec))
		case "ica":
			scrapers = append(scrapers, scraper.NewICA(
				cfg.Providers.ICA.BaseURL, cfg.Providers.ICA.RatesURL,
				cfg.Providers.ICA.Periods, cfg.Providers.ICA.TokenTTL,
				segCfg, sinks, tr, log, rec))
		case "hypoteket":
			scrapers = append(scrapers, scraper.NewHypoteket(cfg.Providers.Hypoteket.BaseURL, segCfg, sinks, tr, log, rec))
		case "skandia":
			scrapers = append(scrapers, scraper.NewSkandia(
				cfg.Providers.Skandia.BaseURL, cfg.Providers.Skandia.DiscountsURL,
				segCfg, sinks, tr, log, rec))
		default:
			return nil, fmt.Errorf("unknown target %q, valid targets: %s", target, strings.Join(ValidTargets, ", "))
		}
	}
	return scrapers, nil
}

// buildSinks creates a fresh sink set for one provider. Sinks are per
// scraper because each scraper closes its own on completion.
func buildSinks(cfg *config.Config, bank string) ([]sink.Sink, error) {
	names := dedupe(cfg.Scrape.Sinks)
	sinks := make([]sink.Sink, 0, len(names))
	for _, name := range names {
		switch name {
		case "csv":
			s, err := sink.NewCSVSink(cfg.CSV.DataDir, bank)
			if err != nil {
				return nil, fmt.Errorf("csv sink for %s: %w", bank, err)
			}
			sinks = append(sinks, s)
		case "kafka":
			producer, err := pkgkafka.NewProducer(
				pkgkafka.WithBrokers(cfg.Kafka.Brokers),
				pkgkafka.WithCompression(cfg.Kafka.Compression),
				pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
				pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
				pkgkafka.WithWriteTimeout(cfg.Kafka.WriteTimeout),
			)
			if err != nil {
				return nil, fmt.Errorf("kafka sink for %s: %w", bank, err)
			}
			sinks = append(sinks, sink.NewKafkaSink(producer, cfg.Kafka.Topic, cfg.Kafka.WriteTimeout))
		default:
			return nil, fmt.Errorf("unknown sink %q, valid sinks: %s", name, strings.Join(ValidSinks, ", "))
		}
	}
	if len(sinks) == 0 {
		return nil, fmt.Errorf("no sinks configured, valid sinks: %s", strings.Join(ValidSinks, ", "))
	}
	return sinks, nil
}

// ProvideRunner creates the scrape runner.
func ProvideRunner(scrapers []scraper.Scraper, log *applogger.Logger) *usecase.ScrapeRunner {
	return usecase.NewScrapeRunner(scrapers, log)
}

// ProvideApp creates the application server.
func ProvideApp(cfg *config.Config, runner *usecase.ScrapeRunner, log *applogger.Logger) *server.App {
	return server.New(cfg, runner, log)
}

// dedupe normalizes and sorts names so runs are ordered the same way
// regardless of how targets were spelled on the command line.
func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
