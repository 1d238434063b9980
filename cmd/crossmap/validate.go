package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"crossmap/internal/defstore"
	"crossmap/internal/equation"
	"crossmap/internal/hierarchy"
	"crossmap/internal/mapping"
	"crossmap/internal/session"
	"crossmap/internal/table"
)

var (
	errValidationFailed = errors.New("validation failed")
	errNoHierarchyTable = errors.New("no hierarchy table")
)

type validateOptions struct {
	tables    []string
	request   session.RollupRequest
	filters   []string
	hierarchy string
	columns   hierarchy.Columns
	mappings  string
	set       string
	discover  bool
	detach    []string
	rules     []string
	equations []string
	tolerance string
}

func newValidateCmd(a *app) *cobra.Command {
	var o validateOptions

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Roll amounts up the hierarchy and check equations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runValidate(cmd, o)
		},
	}

	f := cmd.Flags()
	f.StringArrayVar(&o.tables, "table", nil, "table as alias=path[:role] (repeatable)")
	f.StringVar(&o.request.Source, "source", "", "alias of the table holding the amounts")
	f.StringVar(&o.request.CategoryColumn, "category", "", "category column of the source table")
	f.StringVar(&o.request.AmountColumn, "amount", "", "amount column of the source table")
	f.StringArrayVar(&o.filters, "filter", nil, "keep rows where column=value (repeatable)")
	f.Float64Var(&o.request.Threshold, "threshold", 0, "minimum mapping confidence (default from config)")
	f.StringVar(&o.hierarchy, "hierarchy", "", "alias of the hierarchy table (default: the table with role hierarchy)")
	f.StringVar(&o.mappings, "mappings", "", "YAML file with mapping definitions")
	f.StringVar(&o.set, "set", "", "saved definition set to attach")
	f.BoolVar(&o.discover, "discover", false, "adopt discovered mappings from the source table")
	f.StringArrayVar(&o.detach, "detach", nil, `drop the definition "alias.column -> alias.column" before the rollup (repeatable)`)
	f.StringArrayVar(&o.rules, "rule", nil, "predefined rule: "+strings.Join(equation.PredefinedNames(), ", "))
	f.StringArrayVar(&o.equations, "equation", nil, `custom equation, e.g. "Total Assets = Total Liabilities + Total Equity"`)
	f.StringVar(&o.tolerance, "tolerance", "", "absolute tolerance (default from config)")
	addColumnFlags(cmd, &o.columns)

	for _, name := range []string{"table", "source", "category", "amount"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func (a *app) runValidate(cmd *cobra.Command, o validateOptions) error {
	ctx := cmd.Context()

	rules, err := a.rules(o)
	if err != nil {
		return err
	}

	specs, err := parseTableSpecs(o.tables)
	if err != nil {
		return err
	}

	if o.request.Filters, err = parseFilters(o.filters); err != nil {
		return err
	}

	store := a.newStore()
	defer store.Close()

	sess, err := store.Create(ctx, "validate", specs)
	if err != nil {
		return err
	}

	alias, err := hierarchyAlias(sess, o.hierarchy)
	if err != nil {
		return err
	}

	if _, err := sess.BuildHierarchy(alias, o.columns, nil); err != nil {
		return err
	}

	if err := a.attachDefinitions(ctx, sess, o); err != nil {
		return err
	}

	v, err := sess.Validate(o.request, rules...)
	if err != nil {
		return err
	}

	if err := writeJSON(cmd.OutOrStdout(), v); err != nil {
		return err
	}

	if !v.Passed {
		return errValidationFailed
	}

	return nil
}

// hierarchyAlias returns alias, or else the only table loaded with role
// hierarchy.
func hierarchyAlias(sess *session.Session, alias string) (string, error) {
	if alias != "" {
		return alias, nil
	}

	tables, err := sess.TablesByRole(table.RoleHierarchy)
	if err != nil {
		return "", err
	}

	if len(tables) != 1 {
		return "", fmt.Errorf("%w: pass --hierarchy or load one table with role %q (found %d)",
			errNoHierarchyTable, table.RoleHierarchy, len(tables))
	}

	return tables[0].Alias, nil
}

func (a *app) rules(o validateOptions) ([]equation.Rule, error) {
	tol, err := a.cfg.Validation.ToleranceValue()
	if err != nil {
		return nil, err
	}

	if o.tolerance != "" {
		if tol, err = decimal.NewFromString(o.tolerance); err != nil {
			return nil, fmt.Errorf("--tolerance: %w", err)
		}
	}

	var rules []equation.Rule

	for _, name := range o.rules {
		r, ok := equation.Predefined(name)
		if !ok {
			return nil, fmt.Errorf("unknown rule %q (known: %s)", name, strings.Join(equation.PredefinedNames(), ", "))
		}

		rules = append(rules, r.WithTolerance(tol))
	}

	for _, expr := range o.equations {
		if _, err := equation.Parse(expr); err != nil {
			return nil, err
		}

		rules = append(rules, equation.Custom(expr, tol))
	}

	if len(rules) == 0 {
		r, _ := equation.Predefined(equation.RuleBalanceSheet)
		rules = append(rules, r.WithTolerance(tol))
	}

	return rules, nil
}

// attachDefinitions attaches discovered definitions first so that explicit
// ones from a file or a saved set replace them, then drops the --detach keys.
func (a *app) attachDefinitions(ctx context.Context, sess *session.Session, o validateOptions) error {
	if o.discover {
		res, err := sess.Discover(ctx, o.request.Source, nil)
		if err != nil {
			return err
		}

		if _, err := sess.Adopt(res.Candidates); err != nil {
			return err
		}
	}

	if o.set != "" {
		ds, err := defstore.Open(ctx, a.cfg.Store.Path, a.log)
		if err != nil {
			return err
		}
		defer ds.Close()

		defs, err := ds.Load(ctx, o.set)
		if err != nil {
			return err
		}

		if err := sess.AttachMapping(defs...); err != nil {
			return err
		}
	}

	if o.mappings != "" {
		f, err := mapping.LoadFile(o.mappings)
		if err != nil {
			return err
		}

		if err := sess.AttachMapping(f.Definitions...); err != nil {
			return err
		}
	}

	for _, raw := range o.detach {
		k, err := mapping.ParseKey(raw)
		if err != nil {
			return fmt.Errorf("--detach: %w", err)
		}

		removed, err := sess.Detach(k)
		if err != nil {
			return err
		}

		if !removed {
			a.log.Warn("no definition to detach", zap.Stringer("key", k))
		}
	}

	return nil
}
