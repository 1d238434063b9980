package session

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"crossmap/internal/common"
	"crossmap/internal/diagnostic"
	"crossmap/internal/equation"
	"crossmap/internal/hierarchy"
	"crossmap/internal/mapping"
	"crossmap/internal/rollup"
	"crossmap/internal/table"
)

// RollupRequest selects the records of one rollup.
type RollupRequest struct {
	// Source is the alias of the table holding the records.
	Source         string `json:"source"`
	CategoryColumn string `json:"category_column"`
	AmountColumn   string `json:"amount_column"`
	// Filters keeps only rows whose column equals the given text.
	Filters map[string]string `json:"filters,omitempty"`
	// Threshold overrides the store threshold when positive.
	Threshold float64 `json:"threshold,omitempty"`
}

// Outcome is a finished rollup over every root of the attached forest.
type Outcome struct {
	Source      string                 `json:"source"`
	Roots       []rollup.Result        `json:"roots"`
	Unmapped    []rollup.Unmapped      `json:"unmapped_values"`
	Coverage    float64                `json:"mapping_coverage"`
	Resolutions []mapping.Resolution   `json:"resolutions"`
	Diagnostics diagnostic.Diagnostics `json:"diagnostics"`

	// Run answers further node and equation queries against the same
	// memoized totals.
	Run *rollup.Run `json:"-"`
}

// Validation is the outcome of checking rules against one rollup.
type Validation struct {
	Reports []equation.Report `json:"reports"`
	Passed  bool              `json:"passed"`
	Rollup  *Outcome          `json:"rollup"`
}

type snapshot struct {
	source *table.Table
	tables mapping.Tables
	defs   []mapping.Definition
	forest *hierarchy.Forest
}

// Rollup maps the category values of the request's source through the
// active definitions onto the leaves of the attached forest and totals
// every root. Explicit definitions are consulted before discovered ones.
// Values that resolve to nothing, to an unknown label or to an inner node
// stay in the unmapped bucket.
func (s *Session) Rollup(req RollupRequest) (*Outcome, error) {
	threshold := req.Threshold
	if threshold <= 0 || threshold > 1 {
		threshold = s.opts.Threshold
	}

	snap, err := s.snapshot(req, threshold)
	if err != nil {
		return nil, err
	}

	out := &Outcome{Source: req.Source}

	records, err := readRecords(snap.source, req, &out.Diagnostics)
	if err != nil {
		return nil, err
	}

	values := make([]string, 0, len(records))
	for _, r := range records {
		values = append(values, r.Category)
	}

	leaves := s.resolveLeaves(snap, values, threshold, out)

	run, err := rollup.New(snap.forest, leaves, records)
	if err != nil {
		return nil, err
	}

	out.Run = run
	out.Roots = run.Roots()
	out.Unmapped = run.Unmapped()
	out.Coverage = run.Coverage()

	s.log.Info("rollup finished",
		zap.String("alias", req.Source),
		zap.Int("rows", len(records)),
		zap.Int("mapped", len(leaves)),
		zap.Int("unmapped", len(out.Unmapped)),
		zap.Float64("coverage", out.Coverage))

	return out, nil
}

// Validate runs one rollup and checks every rule against it.
func (s *Session) Validate(req RollupRequest, rules ...equation.Rule) (*Validation, error) {
	if len(rules) == 0 {
		return nil, fmt.Errorf("no rules to validate")
	}

	out, err := s.Rollup(req)
	if err != nil {
		return nil, err
	}

	v := &Validation{Rollup: out, Passed: true}

	for _, rule := range rules {
		report, err := equation.Evaluate(rule, out.Run)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", rule.Name, err)
		}

		v.Passed = v.Passed && report.Passed
		v.Reports = append(v.Reports, report)

		s.log.Info("rule evaluated",
			zap.String("rule", report.RuleName),
			zap.Bool("passed", report.Passed),
			zap.Stringer("difference", report.Difference))
	}

	return v, nil
}

func (s *Session) snapshot(req RollupRequest, threshold float64) (snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, err := s.table(req.Source)
	if err != nil {
		return snapshot{}, err
	}

	if s.forest == nil {
		return snapshot{}, ErrNoHierarchy
	}

	src := mapping.ColumnRef{Alias: req.Source, Column: req.CategoryColumn}

	var defs []mapping.Definition

	for _, d := range s.defs.Active(threshold) {
		if d.Source == src {
			defs = append(defs, d)
		}
	}

	slices.SortStableFunc(defs, func(a, b mapping.Definition) int {
		switch {
		case a.IsExplicit() == b.IsExplicit():
			return 0
		case a.IsExplicit():
			return -1
		default:
			return 1
		}
	})

	return snapshot{source: t, tables: s.tables, defs: defs, forest: s.forest}, nil
}

func readRecords(t *table.Table, req RollupRequest, diags *diagnostic.Diagnostics) ([]rollup.Record, error) {
	for _, col := range append([]string{req.CategoryColumn, req.AmountColumn}, common.SortedKeys(req.Filters)...) {
		if !t.HasColumn(col) {
			return nil, fmt.Errorf("%w: %s.%s", table.ErrColumnNotFound, t.Alias, col)
		}
	}

	var (
		records []rollup.Record
		skipped []string
	)

	for i, row := range t.All() {
		if !rowMatches(row, req.Filters) {
			continue
		}

		amount, ok := row.Get(req.AmountColumn).Decimal()
		if !ok {
			skipped = append(skipped, fmt.Sprint(i+2))
			continue
		}

		records = append(records, rollup.Record{
			Category: strings.TrimSpace(row.Get(req.CategoryColumn).Text),
			Amount:   amount,
		})
	}

	if len(skipped) > 0 {
		diags.AddWarning(diagnostic.CodeInvalidAmount,
			fmt.Sprintf("%d rows skipped: %s is blank or not a number", len(skipped), req.AmountColumn),
			t.Alias, "lines "+strings.Join(common.Head(skipped, 10), ", "))
	}

	return records, nil
}

func rowMatches(row table.Row, filters map[string]string) bool {
	for col, want := range filters {
		if strings.TrimSpace(row.Get(col).Text) != strings.TrimSpace(want) {
			return false
		}
	}

	return true
}

// resolveLeaves assigns leaf ids to distinct category values, definition by
// definition. A value settled by one definition is not offered to the next.
func (s *Session) resolveLeaves(snap snapshot, values []string, threshold float64, out *Outcome) rollup.LeafMap {
	leaves := make(rollup.LeafMap)
	subject := snap.source.Alias

	if len(snap.defs) == 0 {
		out.Diagnostics.AddWarning(diagnostic.CodeNoDefinition,
			"no active mapping definition for the category column; every value is unmapped", subject, "")
	}

	pending := slices.Clone(values)
	slices.Sort(pending)
	pending = slices.Compact(pending)

	final := make(map[string]mapping.Resolution, len(pending))

	for _, d := range snap.defs {
		if len(pending) == 0 {
			break
		}

		target, ok := snap.tables[d.Target.Alias]
		if !ok {
			continue
		}

		targets, err := mapping.Targets(d, target)
		if err != nil {
			out.Diagnostics.AddWarning(diagnostic.CodeUnknownColumn, err.Error(), d.Key().String(), d.Target.Column)
			continue
		}

		var rest []string

		for _, r := range mapping.Resolve(d, pending, targets, threshold) {
			id, settled := s.settle(snap.forest, d, r, &out.Diagnostics)
			if settled {
				if id == uuid.Nil {
					r.Method = mapping.MethodUnresolved
				} else {
					leaves[r.Value] = id
				}

				final[r.Value] = r

				continue
			}

			if prev, seen := final[r.Value]; !seen || r.Score > prev.Score {
				final[r.Value] = r
			}

			rest = append(rest, r.Value)
		}

		pending = rest
	}

	for _, v := range pending {
		r, ok := final[v]
		if !ok {
			r = mapping.Resolution{Value: v, Method: mapping.MethodUnresolved}
		}

		if r.Resolved() {
			// resolved to a label outside the forest
			r.Method = mapping.MethodUnresolved
		} else if r.Score > 0 {
			out.Diagnostics.AddInfo(diagnostic.CodeLowConfidence,
				fmt.Sprintf("best match scored %.2f, below %.2f", r.Score, threshold), subject, v)
		}

		final[v] = r
	}

	for _, v := range common.SortedKeys(final) {
		out.Resolutions = append(out.Resolutions, final[v])
	}

	return leaves
}

// settle decides one resolution. It reports settled for values that must
// not be offered to further definitions; the id is uuid.Nil when the value
// stays unmapped.
func (s *Session) settle(f *hierarchy.Forest, d mapping.Definition, r mapping.Resolution, diags *diagnostic.Diagnostics) (uuid.UUID, bool) {
	if !r.Resolved() {
		return uuid.Nil, false
	}

	node, ok := f.Lookup(r.Label)
	if !ok {
		diags.AddWarning(diagnostic.CodeUnknownLeaf,
			fmt.Sprintf("%q resolves to %q, which is not in the hierarchy", r.Value, r.Label), d.Key().String(), r.Value)

		return uuid.Nil, false
	}

	if !node.IsLeaf {
		diags.AddWarning(diagnostic.CodeNotLeaf,
			fmt.Sprintf("%q resolves to %q, which has children; the value stays unmapped", r.Value, r.Label),
			d.Key().String(), r.Value)

		return uuid.Nil, true
	}

	if r.Ambiguous {
		diags.AddInfo(diagnostic.CodeAmbiguousValue,
			fmt.Sprintf("%q matched %q with a close runner-up", r.Value, r.Label), d.Key().String(), r.Value)
	}

	return node.ID, true
}
