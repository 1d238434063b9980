package hierarchy

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"crossmap/internal/common"
	"crossmap/internal/diagnostic"
)

// Namespace seeds node ids so the same label always gets the same id.
var Namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("crossmap:hierarchy"))

// NodeID returns the deterministic id of a label.
func NodeID(label string) uuid.UUID {
	return uuid.NewSHA1(Namespace, []byte(label))
}

// State is the lifecycle state of a Builder.
type State int

const (
	StateEmpty State = iota
	StateBuilding
	StateValid
	StateInvalid
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateBuilding:
		return "building"
	case StateValid:
		return "valid"
	case StateInvalid:
		return "invalid"
	default:
		return common.UnknownStr
	}
}

// Options configures a build.
type Options struct {
	// AllowOrphans turns an unknown parent reference into an extra root
	// with a warning instead of failing the build.
	AllowOrphans bool `yaml:"allow_orphans" json:"allow_orphans"`
}

// Builder accumulates rows and builds a Forest exactly once.
type Builder struct {
	opts   Options
	state  State
	rows   []Row
	forest *Forest
	err    error
}

// NewBuilder returns an empty builder.
func NewBuilder(opts Options) *Builder {
	return &Builder{opts: opts}
}

// Build is a shorthand for NewBuilder(opts), Add(rows...), Build().
func Build(rows []Row, opts Options) (*Forest, error) {
	b := NewBuilder(opts)
	if err := b.Add(rows...); err != nil {
		return nil, err
	}

	return b.Build()
}

// State returns the current state.
func (b *Builder) State() State {
	return b.state
}

// Err returns the reason of an Invalid build.
func (b *Builder) Err() error {
	return b.err
}

// Add appends rows. It fails with ErrSealed once Build has run.
func (b *Builder) Add(rows ...Row) error {
	if b.state == StateValid || b.state == StateInvalid {
		return ErrSealed
	}

	b.rows = append(b.rows, rows...)
	if len(b.rows) > 0 {
		b.state = StateBuilding
	}

	return nil
}

// Build validates the rows and returns the forest. Repeated calls return the
// same forest or the same error.
func (b *Builder) Build() (*Forest, error) {
	switch b.state {
	case StateValid:
		return b.forest, nil
	case StateInvalid:
		return nil, b.err
	}

	f, err := b.build()
	if err != nil {
		b.state, b.err = StateInvalid, err
		b.rows = nil

		return nil, err
	}

	b.state, b.forest = StateValid, f
	b.rows = nil

	return f, nil
}

func (b *Builder) build() (*Forest, error) {
	rows := make([]Row, len(b.rows))
	index := make(map[string]int, len(b.rows))

	for i, r := range b.rows {
		r.Element = strings.TrimSpace(r.Element)
		r.Parent = strings.TrimSpace(r.Parent)

		if err := validateRow(r); err != nil {
			return nil, err
		}

		if first, dup := index[r.Element]; dup {
			return nil, duplicateError(b.rows, rows[first].Element)
		}

		index[r.Element] = i
		rows[i] = r
	}

	var diags diagnostic.Diagnostics

	parent := make([]int, len(rows))

	for i, r := range rows {
		parent[i] = -1
		if r.Parent == "" {
			continue
		}

		p, ok := index[r.Parent]
		if !ok {
			if !b.opts.AllowOrphans {
				return nil, &UnknownParentError{Element: r.Element, Parent: r.Parent}
			}

			diags.AddWarning(diagnostic.CodeOrphanPromoted,
				fmt.Sprintf("parent %q not found; treated as a root", r.Parent), r.Element, "parent")

			continue
		}

		parent[i] = p
	}

	if cycle := findCycle(rows, parent); cycle != nil {
		return nil, &CyclicHierarchyError{Path: cycle}
	}

	return newForest(rows, parent, diags), nil
}

func validateRow(r Row) error {
	if r.Element == "" {
		return &InvalidRowError{Line: r.Line, Reason: "empty element label"}
	}

	if !r.Operator.Valid() {
		return &InvalidRowError{Line: r.Line, Reason: fmt.Sprintf("element %q has an unknown operator", r.Element)}
	}

	if r.Multiplier.IsNegative() {
		return &InvalidRowError{Line: r.Line, Reason: fmt.Sprintf("element %q has negative multiplier %s", r.Element, r.Multiplier)}
	}

	return nil
}

func duplicateError(rows []Row, label string) error {
	e := &DuplicateElementError{Label: label}

	for _, r := range rows {
		if strings.TrimSpace(r.Element) == label {
			e.Lines = append(e.Lines, r.Line)
		}
	}

	return e
}

// findCycle walks parent links depth first, marking nodes in progress (gray)
// and finished (black). Reaching a gray node closes a cycle. The returned
// path follows child -> parent links and repeats its first label at the end.
func findCycle(rows []Row, parent []int) []string {
	const (
		white = iota
		gray
		black
	)

	color := make([]uint8, len(rows))

	for start := range rows {
		if color[start] != white {
			continue
		}

		var stack []int

		i := start
		for i >= 0 && color[i] == white {
			color[i] = gray
			stack = append(stack, i)
			i = parent[i]
		}

		if i >= 0 && color[i] == gray {
			j := slices.Index(stack, i)
			path := make([]string, 0, len(stack)-j+1)

			for _, k := range stack[j:] {
				path = append(path, rows[k].Element)
			}

			return append(path, rows[i].Element)
		}

		for _, s := range stack {
			color[s] = black
		}
	}

	return nil
}
