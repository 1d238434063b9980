package main

import (
	"github.com/spf13/cobra"

	"crossmap/internal/diagnostic"
	"crossmap/internal/hierarchy"
	"crossmap/internal/table"
)

type hierarchyOutput struct {
	Nodes       *hierarchy.Forest      `json:"nodes"`
	Roots       []string               `json:"roots"`
	Diagnostics diagnostic.Diagnostics `json:"diagnostics"`
}

func newHierarchyCmd(a *app) *cobra.Command {
	var (
		file         string
		sheet        string
		cols         hierarchy.Columns
		allowOrphans bool
	)

	cmd := &cobra.Command{
		Use:   "hierarchy",
		Short: "Build and check a report hierarchy table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			t, err := table.FileLoader{}.Load(table.Spec{Path: file, Sheet: sheet})
			if err != nil {
				return err
			}

			rows, err := hierarchy.RowsFromTable(t, cols)
			if err != nil {
				return err
			}

			opts := a.cfg.Hierarchy
			if cmd.Flags().Changed("allow-orphans") {
				opts.AllowOrphans = allowOrphans
			}

			f, err := hierarchy.Build(rows, opts)
			if err != nil {
				return err
			}

			out := hierarchyOutput{Nodes: f, Diagnostics: f.Diagnostics()}
			for _, r := range f.Roots() {
				out.Roots = append(out.Roots, r.Label)
			}

			return writeJSON(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "hierarchy file (csv, tsv, xlsx)")
	cmd.Flags().StringVar(&sheet, "sheet", "", "worksheet name for xlsx files")
	cmd.Flags().BoolVar(&allowOrphans, "allow-orphans", false, "treat unknown parents as extra roots")
	addColumnFlags(cmd, &cols)

	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func addColumnFlags(cmd *cobra.Command, cols *hierarchy.Columns) {
	d := hierarchy.DefaultColumns

	cmd.Flags().StringVar(&cols.Element, "element-column", d.Element, "hierarchy element column")
	cmd.Flags().StringVar(&cols.Parent, "parent-column", d.Parent, "hierarchy parent column")
	cmd.Flags().StringVar(&cols.Operator, "operator-column", d.Operator, "hierarchy operator column")
	cmd.Flags().StringVar(&cols.Multiplier, "multiplier-column", d.Multiplier, "hierarchy multiplier column")
	cmd.Flags().StringVar(&cols.Level, "level-column", d.Level, "hierarchy level column")
}
