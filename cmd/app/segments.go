package main

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"RatePull/internal/segment"
	"RatePull/pkg/config"
)

const segmentSampleRows = 10

func newSegmentsCmd(configPath *string) *cobra.Command {
	var (
		ltvGranularity float64
		loanVolumeBins string
		countOnly      bool
	)

	cmd := &cobra.Command{
		Use:   "segments",
		Short: "Preview the market segment grid without scraping",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadWithEnv(*configPath)
			if err != nil {
				return err
			}

			f := cmd.Flags()
			if f.Changed("ltv-granularity") {
				cfg.Segments.LTVGranularity = ltvGranularity
			}
			if f.Changed("loan-volume-bins") {
				cfg.Segments.LoanVolumeBins = loanVolumeBins
			}

			segCfg := segment.Config{LTVGranularity: cfg.Segments.LTVGranularity, URLsLimit: -1}
			if cfg.Segments.LoanVolumeBins != "" {
				bins, err := segment.ParseLoanVolumeBins(cfg.Segments.LoanVolumeBins)
				if err != nil {
					return err
				}
				segCfg.CustomLoanVolumeBins = bins
			}

			segments, err := segment.Generate(segCfg, "")
			if err != nil {
				return err
			}

			if countOnly {
				fmt.Println(len(segments))
				return nil
			}

			volumes := len(segment.DefaultLoanVolumeBins)
			if len(segCfg.CustomLoanVolumeBins) > 0 {
				volumes = len(segCfg.CustomLoanVolumeBins)
			}
			ltvSamples := 0
			if volumes > 0 {
				ltvSamples = len(segments) / (volumes * volumes)
			}

			fmt.Printf("volume bins: %d\nltv samples: %d\nasset values: %d\ntotal segments: %d\n\n",
				volumes, ltvSamples, volumes*ltvSamples, len(segments))

			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.AppendHeader(table.Row{"Asset value", "Loan amount", "LTV"})
			for i, seg := range segments {
				if i == segmentSampleRows {
					break
				}
				t.AppendRow(table.Row{
					fmt.Sprintf("%.0f", seg.AssetValue),
					fmt.Sprintf("%.0f", seg.LoanAmount),
					fmt.Sprintf("%.4f", seg.LTV),
				})
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().Float64Var(&ltvGranularity, "ltv-granularity", 0.01, "step size of the LTV axis")
	cmd.Flags().StringVar(&loanVolumeBins, "loan-volume-bins", "", "custom volume axis as \"[start, stop, step]\"")
	cmd.Flags().BoolVar(&countOnly, "count-only", false, "print only the total segment count")
	return cmd
}
