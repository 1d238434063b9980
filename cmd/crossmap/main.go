// Command crossmap discovers column mappings across tabular files, rolls
// amounts up a report hierarchy and checks accounting equations.
//
// Usage:
//
//	crossmap discover  --table ledger=gl.csv --table coa=coa.xlsx --source ledger
//	crossmap compare   --table ledger=gl.csv --table report=bs.csv --source ledger.account --report report.line
//	crossmap hierarchy --file coa.csv
//	crossmap validate  --table ... --table coa=coa.csv:hierarchy --source ledger --category account \
//	                   --amount amount --mappings defs.yaml --rule balance_sheet_equation
//	crossmap mappings  save|load|list|delete --set q4
//
// Output is indented JSON on stdout; logs go to stderr.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"crossmap/internal/config"
	"crossmap/internal/logging"
	"crossmap/internal/session"
	"crossmap/internal/table"
)

type app struct {
	configPath string
	logLevel   string

	cfg *config.Config
	log *zap.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	err := newRootCmd().ExecuteContext(ctx)

	stop()

	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:          "crossmap",
		Short:        "Cross-file mapping discovery, hierarchy rollup and equation checks",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "crossmap.yaml", "config file (missing file uses defaults)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		newDiscoverCmd(a),
		newCompareCmd(a),
		newHierarchyCmd(a),
		newValidateCmd(a),
		newMappingsCmd(a),
	)

	return root
}

func (a *app) init() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}

	log, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}

	a.cfg, a.log = cfg, log

	return nil
}

func (a *app) sessionOptions() session.Options {
	opts := session.Options{
		Discovery: a.cfg.Discovery,
		Hierarchy: a.cfg.Hierarchy,
		Threshold: a.cfg.Rollup.Threshold,
	}
	opts.Discovery.Log = a.log

	return opts
}

func (a *app) newStore() *session.Store {
	return session.NewStore(table.FileLoader{}, a.log, a.sessionOptions())
}
