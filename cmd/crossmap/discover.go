package main

import (
	"time"

	"github.com/spf13/cobra"
)

func newDiscoverCmd(a *app) *cobra.Command {
	var (
		tables    []string
		source    string
		threshold float64
		workers   int
		timeout   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Suggest column mappings from a source table to the others",
		RunE: func(cmd *cobra.Command, _ []string) error {
			specs, err := parseTableSpecs(tables)
			if err != nil {
				return err
			}

			store := a.newStore()
			defer store.Close()

			sess, err := store.Create(cmd.Context(), "discover", specs)
			if err != nil {
				return err
			}

			opts := a.sessionOptions().Discovery
			if cmd.Flags().Changed("threshold") {
				opts.Threshold = threshold
			}

			if cmd.Flags().Changed("workers") {
				opts.Workers = workers
			}

			if cmd.Flags().Changed("timeout") {
				opts.Timeout = timeout
			}

			res, runErr := sess.Discover(cmd.Context(), source, &opts)
			if runErr != nil && !res.Partial {
				return runErr
			}

			if err := writeJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}

			return runErr
		},
	}

	cmd.Flags().StringArrayVar(&tables, "table", nil, "table as alias=path[:role] (repeatable)")
	cmd.Flags().StringVar(&source, "source", "", "alias of the source table (required)")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "minimum confidence (default from config)")
	cmd.Flags().IntVar(&workers, "workers", 0, "column pairs scored in parallel (default from config)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "stop the pass after this long and print partial results")

	_ = cmd.MarkFlagRequired("table")
	_ = cmd.MarkFlagRequired("source")

	return cmd
}
