package rollup

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"crossmap/internal/common"
	"crossmap/internal/hierarchy"
	"crossmap/internal/match"
)

// ErrNotLeaf is matched by NotLeafError.
var ErrNotLeaf = errors.New("mapping target is not a leaf")

// NotLeafError reports a category value mapped onto an inner node.
type NotLeafError struct {
	Category string
	Label    string
}

func (e *NotLeafError) Error() string {
	return fmt.Sprintf("%v: %q maps to %q", ErrNotLeaf, e.Category, e.Label)
}

func (e *NotLeafError) Unwrap() error { return ErrNotLeaf }

// Record is one source row reduced to its category and amount.
type Record struct {
	Category string
	Amount   decimal.Decimal
}

// LeafMap maps raw category values to leaf node ids.
type LeafMap map[string]uuid.UUID

// Contribution is one category value's share of a node total.
// Effective is Amount × Factor, and the Effective values of a Result sum
// to its Total.
type Contribution struct {
	Category  string          `json:"category_value"`
	LeafID    uuid.UUID       `json:"leaf_id"`
	LeafLabel string          `json:"leaf_label"`
	Amount    decimal.Decimal `json:"amount"`
	Factor    decimal.Decimal `json:"factor"`
	Effective decimal.Decimal `json:"effective"`
}

// Result is the rolled-up total of one node.
type Result struct {
	NodeID        uuid.UUID       `json:"node_id"`
	Label         string          `json:"label"`
	Total         decimal.Decimal `json:"total_amount"`
	Contributions []Contribution  `json:"contributing_leaves"`
}

// Unmapped is the residue of one category value with no leaf.
type Unmapped struct {
	Value  string          `json:"value"`
	Amount decimal.Decimal `json:"amount"`
	Count  int             `json:"count"`
}

// Run is one rollup call: fixed inputs with memoized node results. It is
// safe for concurrent use.
type Run struct {
	forest   *hierarchy.Forest
	direct   map[uuid.UUID][]Contribution
	unmapped []Unmapped

	totalAbs    decimal.Decimal
	unmappedAbs decimal.Decimal

	mu   sync.Mutex
	memo map[uuid.UUID]Result
}

// New validates leaves against forest and buckets records.
func New(forest *hierarchy.Forest, leaves LeafMap, records []Record) (*Run, error) {
	for _, category := range common.SortedKeys(leaves) {
		node, ok := forest.Node(leaves[category])
		if !ok {
			return nil, fmt.Errorf("%w: id %s for category %q", hierarchy.ErrUnknownNode, leaves[category], category)
		}

		if !node.IsLeaf {
			return nil, &NotLeafError{Category: category, Label: node.Label}
		}
	}

	mapped := make(map[string]decimal.Decimal)
	residue := make(map[string]*Unmapped)

	r := &Run{
		forest: forest,
		direct: make(map[uuid.UUID][]Contribution),
		memo:   make(map[uuid.UUID]Result),
	}

	for _, rec := range records {
		r.totalAbs = r.totalAbs.Add(rec.Amount.Abs())

		if _, ok := leaves[rec.Category]; ok {
			mapped[rec.Category] = mapped[rec.Category].Add(rec.Amount)
			continue
		}

		u, ok := residue[rec.Category]
		if !ok {
			u = &Unmapped{Value: rec.Category}
			residue[rec.Category] = u
		}

		u.Amount = u.Amount.Add(rec.Amount)
		u.Count++
		r.unmappedAbs = r.unmappedAbs.Add(rec.Amount.Abs())
	}

	for _, category := range common.SortedKeys(mapped) {
		id := leaves[category]
		node, _ := forest.Node(id)
		amount := mapped[category]

		r.direct[id] = append(r.direct[id], Contribution{
			Category:  category,
			LeafID:    id,
			LeafLabel: node.Label,
			Amount:    amount,
			Factor:    decimal.NewFromInt(1),
			Effective: amount,
		})
	}

	for _, u := range residue {
		r.unmapped = append(r.unmapped, *u)
	}

	slices.SortFunc(r.unmapped, func(a, b Unmapped) int {
		if c := b.Amount.Abs().Cmp(a.Amount.Abs()); c != 0 {
			return c
		}

		return strings.Compare(a.Value, b.Value)
	})

	return r, nil
}

// Rollup returns the total of the node labelled label.
func (r *Run) Rollup(label string) (Result, error) {
	node, ok := r.forest.Lookup(label)
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", hierarchy.ErrUnknownNode, label)
	}

	return r.RollupID(node.ID)
}

// RollupID returns the total of the node with the given id.
func (r *Run) RollupID(id uuid.UUID) (Result, error) {
	if _, ok := r.forest.Node(id); !ok {
		return Result{}, fmt.Errorf("%w: id %s", hierarchy.ErrUnknownNode, id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	res := r.compute(id)
	res.Contributions = slices.Clone(res.Contributions)

	return res, nil
}

// compute must be called with r.mu held.
func (r *Run) compute(id uuid.UUID) Result {
	if res, ok := r.memo[id]; ok {
		return res
	}

	node, _ := r.forest.Node(id)
	res := Result{NodeID: id, Label: node.Label}

	for _, c := range r.direct[id] {
		res.Total = res.Total.Add(c.Effective)
		res.Contributions = append(res.Contributions, c)
	}

	for _, child := range r.forest.Children(id) {
		sub := r.compute(child.ID)
		factor := child.Factor()

		res.Total = res.Total.Add(sub.Total.Mul(factor))

		for _, c := range sub.Contributions {
			c.Factor = c.Factor.Mul(factor)
			c.Effective = c.Amount.Mul(c.Factor)
			res.Contributions = append(res.Contributions, c)
		}
	}

	r.memo[id] = res

	return res
}

// Roots rolls up every root of the forest in input order.
func (r *Run) Roots() []Result {
	roots := r.forest.Roots()
	out := make([]Result, 0, len(roots))

	for _, n := range roots {
		res, _ := r.RollupID(n.ID)
		out = append(out, res)
	}

	return out
}

// Unmapped returns the unmapped bucket sorted by |amount| descending, then
// by value.
func (r *Run) Unmapped() []Unmapped {
	return slices.Clone(r.unmapped)
}

// Coverage returns 1 − Σ|unmapped| / Σ|all| over record amounts. With no
// amounts at all it is 1, or 0 when some record was unmapped.
func (r *Run) Coverage() float64 {
	if r.totalAbs.IsZero() {
		if len(r.unmapped) > 0 {
			return 0
		}

		return 1
	}

	ratio := r.unmappedAbs.Div(r.totalAbs)

	return common.Clamp01(decimal.NewFromInt(1).Sub(ratio).InexactFloat64())
}

// Total implements the equation resolver: it rolls up the node named name.
// Names match labels exactly first, then by normalized text when that is
// unique.
func (r *Run) Total(name string) (decimal.Decimal, error) {
	label, ok := r.resolveLabel(name)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %q", hierarchy.ErrUnknownNode, name)
	}

	res, err := r.Rollup(label)
	if err != nil {
		return decimal.Zero, err
	}

	return res.Total, nil
}

func (r *Run) resolveLabel(name string) (string, bool) {
	if _, ok := r.forest.Lookup(name); ok {
		return name, true
	}

	want := match.Normalize(name)
	if want == "" {
		return "", false
	}

	var found []string

	for _, label := range r.forest.Labels() {
		if match.Normalize(label) == want {
			found = append(found, label)
		}
	}

	if len(found) != 1 {
		return "", false
	}

	return found[0], true
}
