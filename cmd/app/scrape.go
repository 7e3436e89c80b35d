package main

import (
	"time"

	"github.com/spf13/cobra"

	"RatePull/internal/di"
	"RatePull/pkg/config"
)

func newScrapeCmd(configPath *string) *cobra.Command {
	var (
		targets        []string
		sinks          []string
		delay          time.Duration
		rateLimit      float64
		urlsLimit      int
		randomize      bool
		seed           int64
		proxy          string
		rotateUA       bool
		ltvGranularity float64
		loanVolumeBins string
		debug          bool
	)

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Scrape the configured lenders across the segment grid",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadWithEnv(*configPath)
			if err != nil {
				return err
			}

			// flags override file config
			f := cmd.Flags()
			if f.Changed("target") {
				cfg.Scrape.Targets = targets
			}
			if f.Changed("sink") {
				cfg.Scrape.Sinks = sinks
			}
			if f.Changed("delay") {
				cfg.Scrape.Delay = delay
			}
			if f.Changed("rate-limit") {
				cfg.Scrape.RateLimit = rateLimit
			}
			if f.Changed("urls-limit") {
				cfg.Scrape.URLsLimit = urlsLimit
			}
			if f.Changed("randomize") {
				cfg.Scrape.RandomizeOrder = randomize
			}
			if f.Changed("seed") {
				cfg.Scrape.Seed = seed
			}
			if f.Changed("proxy") {
				cfg.Scrape.Proxy = proxy
			}
			if f.Changed("rotate-user-agent") {
				cfg.Scrape.RotateUserAgent = rotateUA
			}
			if f.Changed("ltv-granularity") {
				cfg.Segments.LTVGranularity = ltvGranularity
			}
			if f.Changed("loan-volume-bins") {
				cfg.Segments.LoanVolumeBins = loanVolumeBins
			}
			if debug {
				cfg.Logging.Level = "debug"
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			app, err := di.InitializeApp(cfg)
			if err != nil {
				return err
			}
			return app.Run()
		},
	}

	cmd.Flags().StringSliceVar(&targets, "target", nil, "lenders to scrape (sbab, ica, hypoteket, skandia)")
	cmd.Flags().StringSliceVar(&sinks, "sink", nil, "export sinks (csv, kafka)")
	cmd.Flags().DurationVar(&delay, "delay", 0, "fixed pause between requests")
	cmd.Flags().Float64Var(&rateLimit, "rate-limit", 0, "max requests per second, 0 disables")
	cmd.Flags().IntVar(&urlsLimit, "urls-limit", -1, "max segments to scrape, negative means all")
	cmd.Flags().BoolVar(&randomize, "randomize", false, "shuffle segment order")
	cmd.Flags().Int64Var(&seed, "seed", 42, "shuffle seed")
	cmd.Flags().StringVar(&proxy, "proxy", "", "proxy url")
	cmd.Flags().BoolVar(&rotateUA, "rotate-user-agent", false, "rotate the User-Agent header per request")
	cmd.Flags().Float64Var(&ltvGranularity, "ltv-granularity", 0.01, "step size of the LTV axis")
	cmd.Flags().StringVar(&loanVolumeBins, "loan-volume-bins", "", "custom volume axis as \"[start, stop, step]\"")
	cmd.Flags().BoolVar(&debug, "debug", false, "debug logging")
	return cmd
}
