package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"RatePull/internal/harmonise"
	"RatePull/pkg/config"
	applogger "RatePull/pkg/logger"
)

func newHarmoniseCmd(configPath *string) *cobra.Command {
	var (
		output    string
		cleanup   bool
		limit     int
		delimiter string
	)

	cmd := &cobra.Command{
		Use:   "harmonise",
		Short: "Merge per-run CSVs into one canonical dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadWithEnv(*configPath)
			if err != nil {
				return err
			}
			log, err := applogger.New(&applogger.Config{
				Level:  cfg.Logging.Level,
				Format: cfg.Logging.Format,
				Output: cfg.Logging.Output,
			})
			if err != nil {
				return err
			}

			opts := harmonise.Options{
				DataDir: cfg.CSV.DataDir,
				Output:  output,
				Cleanup: cleanup,
				Limit:   limit,
			}
			if delimiter != "" {
				opts.Delimiter = rune(delimiter[0])
			}

			sum, err := harmonise.Run(opts, log)
			if err != nil {
				return err
			}
			fmt.Printf("merged %d files (%d rows) into %s\n", sum.Files, sum.Rows, output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output csv path")
	cmd.Flags().BoolVarP(&cleanup, "cleanup", "c", false, "remove merged input files")
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "max input files, 0 means all")
	cmd.Flags().StringVarP(&delimiter, "delimiter", "d", ",", "output field delimiter")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}
