package discover

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"crossmap/internal/common"
	"crossmap/internal/diagnostic"
	"crossmap/internal/match"
	"crossmap/internal/table"
)

// ErrUnknownSource is returned when the source alias is not among the inputs.
var ErrUnknownSource = errors.New("unknown source table")

// Result is the outcome of one discovery pass.
type Result struct {
	Source      string                 `json:"source"`
	Candidates  CandidateList          `json:"candidates"`
	Hierarchies []HierarchyHint        `json:"hierarchies,omitempty"`
	JoinPaths   []JoinPath             `json:"suggested_join_paths,omitempty"`
	Diagnostics diagnostic.Diagnostics `json:"diagnostics"`
	// Partial is set when the pass stopped early; Candidates then holds
	// only the pairs that finished.
	Partial bool `json:"partial,omitempty"`
}

type column struct {
	alias  string
	name   string
	kind   table.Kind
	values valueSet
	index  *blockIndex
}

type pair struct {
	src, dst *column
}

// Discover scores every column of the source table against every column of
// the other tables. On cancellation it returns the sorted candidates of the
// pairs that finished together with the context error.
func Discover(ctx context.Context, tables []*table.Table, source string, opts Options) (Result, error) {
	opts = opts.withDefaults()
	log := opts.Log.With(zap.String("source", source))
	started := time.Now()

	if opts.Timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	res := Result{Source: source, Candidates: CandidateList{}}

	srcIdx := slices.IndexFunc(tables, func(t *table.Table) bool { return t.Alias == source })
	if srcIdx < 0 {
		return res, fmt.Errorf("%w: %q", ErrUnknownSource, source)
	}

	hints := make(map[string]HierarchyHint)

	for _, t := range tables {
		if h, ok := DetectHierarchy(t); ok {
			hints[t.Alias] = h
			res.Hierarchies = append(res.Hierarchies, h)
			res.Diagnostics.AddInfo(diagnostic.CodeHierarchyTableDetected,
				fmt.Sprintf("element %q, parent %q", h.ElementColumn, h.ParentColumn), t.Alias, h.ElementColumn)
		}
	}

	sources := profileColumns(tables[srcIdx], opts, false)

	var pairs []pair

	for _, t := range tables {
		if t.Alias == source {
			continue
		}

		hint, isHierarchy := hints[t.Alias]

		for _, dst := range profileColumns(t, opts, true) {
			if isHierarchy && hint.structural(dst.name) {
				continue
			}

			for _, src := range sources {
				if c := match.Compatible(src.kind, dst.kind); c == match.Incompatible {
					res.Diagnostics.AddInfo(diagnostic.CodeColumnPairSkipped,
						fmt.Sprintf("%s and %s are not comparable", src.kind, dst.kind),
						src.alias+"."+src.name, dst.alias+"."+dst.name)

					continue
				}

				pairs = append(pairs, pair{src: src, dst: dst})
			}
		}
	}

	log.Debug("scoring column pairs", zap.Int("pairs", len(pairs)), zap.Int("workers", opts.Workers))

	scored := make([]*Candidate, len(pairs))
	done := make([]bool, len(pairs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)

	for i, p := range pairs {
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			c, err := scorePair(gctx, p, opts)
			if err != nil {
				return err
			}

			scored[i], done[i] = c, true

			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	finished := 0

	for i, c := range scored {
		if done[i] {
			finished++
		}

		if c != nil {
			res.Candidates = append(res.Candidates, *c)
		}
	}

	res.Candidates.Sort()
	res.JoinPaths = JoinPaths(res.Candidates)

	fields := []zap.Field{
		zap.Int("pairs", len(pairs)),
		zap.Int("scored", finished),
		zap.Int("candidates", len(res.Candidates)),
		zap.Int("hierarchies", len(res.Hierarchies)),
		zap.Duration("elapsed", time.Since(started)),
	}

	if err != nil {
		res.Partial = true
		log.Warn("discovery stopped early", append(fields, zap.Error(err))...)

		return res, err
	}

	log.Info("discovery finished", fields...)

	return res, nil
}

func profileColumns(t *table.Table, opts Options, indexed bool) []*column {
	var out []*column

	profiles, ok := opts.Profiles[t.Alias]
	if !ok {
		profiles = t.Profile(opts.SampleLimit)
	}

	for _, p := range profiles {
		vs := newValueSet(p.Samples)
		if len(vs.norm) == 0 {
			continue
		}

		c := &column{alias: t.Alias, name: p.Column, kind: p.Type, values: vs}
		if indexed {
			c.index = newBlockIndex(vs.norm)
		}

		out = append(out, c)
	}

	return out
}

// scorePair computes the candidate for one column pair, or nil when the
// pair stays below the threshold. It checks ctx between source values.
func scorePair(ctx context.Context, p pair, opts Options) (*Candidate, error) {
	t := opts.Threshold
	src, dst := p.src.values, p.dst.values

	var samples []SamplePair

	exact := 0

	for _, s := range src.norm {
		if dst.has(s) {
			exact++

			samples = append(samples, SamplePair{SourceValue: src.original[s], TargetValue: dst.original[s], Score: 1})
		}
	}

	c := &Candidate{
		SourceFile:   p.src.alias,
		SourceColumn: p.src.name,
		TargetFile:   p.dst.alias,
		TargetColumn: p.dst.name,
		NameScore:    match.ScoreLabels(p.src.name, p.dst.name),
		ExactRatio:   float64(exact) / float64(len(src.norm)),
	}

	if c.ExactRatio < t {
		considered := src.norm[:min(len(src.norm), opts.FuzzyLimit)]
		hits := 0
		samples = samples[:0]

		for _, s := range considered {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			if dst.has(s) {
				hits++

				samples = append(samples, SamplePair{SourceValue: src.original[s], TargetValue: dst.original[s], Score: 1})

				continue
			}

			best, ok := p.dst.index.best(s, t)
			if ok && best.Score >= t {
				hits++

				samples = append(samples, SamplePair{
					SourceValue: src.original[s],
					TargetValue: dst.original[best.Candidate],
					Score:       best.Score,
				})
			}
		}

		c.FuzzyRatio = float64(hits) / float64(len(considered))
	}

	value := max(c.ExactRatio, c.FuzzyRatio)
	c.Confidence = common.Clamp01(value + opts.NameWeight*c.NameScore*(1-value))

	switch {
	case c.ExactRatio >= t:
		c.MatchType = MatchExact
	case c.FuzzyRatio >= t:
		c.MatchType = MatchFuzzy
	case value > 0 && c.Confidence >= t:
		c.MatchType = MatchValueOverlap
	default:
		return nil, nil
	}

	slices.SortFunc(samples, func(a, b SamplePair) int {
		if a.Score != b.Score {
			if a.Score > b.Score {
				return -1
			}

			return 1
		}

		return strings.Compare(a.SourceValue, b.SourceValue)
	})

	c.Samples = samples[:min(len(samples), maxSamplePairs)]

	return c, nil
}
