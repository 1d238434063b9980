package main

import (
	"github.com/spf13/cobra"

	"crossmap/internal/mapping"
)

func newCompareCmd(a *app) *cobra.Command {
	var (
		tables         []string
		source, report string
		threshold      float64
	)

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare source category values with the line items of a report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			src, err := mapping.ParseColumnRef(source)
			if err != nil {
				return err
			}

			rep, err := mapping.ParseColumnRef(report)
			if err != nil {
				return err
			}

			specs, err := parseTableSpecs(tables)
			if err != nil {
				return err
			}

			store := a.newStore()
			defer store.Close()

			sess, err := store.Create(cmd.Context(), "compare", specs)
			if err != nil {
				return err
			}

			opts := a.sessionOptions().Discovery
			if cmd.Flags().Changed("threshold") {
				opts.Threshold = threshold
			}

			gap, err := sess.Compare(src.Alias, src.Column, rep.Alias, rep.Column, &opts)
			if err != nil {
				return err
			}

			return writeJSON(cmd.OutOrStdout(), gap)
		},
	}

	cmd.Flags().StringArrayVar(&tables, "table", nil, "table as alias=path[:role] (repeatable)")
	cmd.Flags().StringVar(&source, "source", "", "source category column as alias.column")
	cmd.Flags().StringVar(&report, "report", "", "report line-item column as alias.column")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "minimum score for a potential match (default from config)")

	for _, name := range []string{"table", "source", "report"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}
