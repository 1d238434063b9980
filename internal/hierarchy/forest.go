package hierarchy

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"crossmap/internal/diagnostic"
)

// Node is one element of a Forest.
type Node struct {
	ID         uuid.UUID       `json:"id"`
	Label      string          `json:"label"`
	ParentID   uuid.NullUUID   `json:"parent_id"`
	Parent     string          `json:"parent,omitempty"`
	Operator   Operator        `json:"operator"`
	Multiplier decimal.Decimal `json:"multiplier"`
	Level      int             `json:"level"`
	IsLeaf     bool            `json:"is_leaf"`
}

// IsRoot reports whether n has no parent.
func (n Node) IsRoot() bool {
	return !n.ParentID.Valid
}

// Factor is the signed multiplier applied to n's total in its parent.
func (n Node) Factor() decimal.Decimal {
	return n.Multiplier.Mul(n.Operator.Sign())
}

// Forest is a validated, immutable set of trees.
type Forest struct {
	nodes    []Node
	byID     map[uuid.UUID]int
	byLabel  map[string]int
	parent   []int
	children [][]int
	order    []int
	diags    diagnostic.Diagnostics
}

func newForest(rows []Row, parent []int, diags diagnostic.Diagnostics) *Forest {
	n := len(rows)
	f := &Forest{
		nodes:    make([]Node, n),
		byID:     make(map[uuid.UUID]int, n),
		byLabel:  make(map[string]int, n),
		parent:   parent,
		children: make([][]int, n),
		diags:    diags,
	}

	for i, p := range parent {
		if p >= 0 {
			f.children[p] = append(f.children[p], i)
		}
	}

	depth := derivedDepths(parent)

	for i, r := range rows {
		node := Node{
			ID:         NodeID(r.Element),
			Label:      r.Element,
			Operator:   r.Operator,
			Multiplier: r.Multiplier,
			Level:      depth[i],
			IsLeaf:     len(f.children[i]) == 0,
		}

		if p := parent[i]; p >= 0 {
			node.ParentID = uuid.NullUUID{UUID: NodeID(rows[p].Element), Valid: true}
			node.Parent = rows[p].Element
		}

		if r.Level != nil && *r.Level != depth[i] {
			f.diags.AddWarning(diagnostic.CodeLevelMismatch,
				fmt.Sprintf("explicit level %d differs from derived level %d", *r.Level, depth[i]),
				r.Element, "level")

			node.Level = *r.Level
		}

		f.nodes[i] = node
		f.byID[node.ID] = i
		f.byLabel[node.Label] = i
	}

	// children precede their parent
	order, err := topoSort(n, func(i int) []int { return f.children[i] })
	if err != nil {
		panic(fmt.Sprintf("hierarchy: acyclic forest failed to sort: %v", err))
	}

	f.order = order

	return f
}

// derivedDepths returns each node's distance from its root.
func derivedDepths(parent []int) []int {
	depth := make([]int, len(parent))
	known := make([]bool, len(parent))

	var walk func(i int) int
	walk = func(i int) int {
		if known[i] {
			return depth[i]
		}

		d := 0
		if p := parent[i]; p >= 0 {
			d = walk(p) + 1
		}

		depth[i], known[i] = d, true

		return d
	}

	for i := range parent {
		walk(i)
	}

	return depth
}

// Len returns the number of nodes.
func (f *Forest) Len() int {
	return len(f.nodes)
}

// Nodes returns all nodes in input order.
func (f *Forest) Nodes() []Node {
	return slices.Clone(f.nodes)
}

// Node returns the node with the given id.
func (f *Forest) Node(id uuid.UUID) (Node, bool) {
	i, ok := f.byID[id]
	if !ok {
		return Node{}, false
	}

	return f.nodes[i], true
}

// Lookup returns the node with the given label.
func (f *Forest) Lookup(label string) (Node, bool) {
	i, ok := f.byLabel[label]
	if !ok {
		return Node{}, false
	}

	return f.nodes[i], true
}

// Labels returns every label in input order.
func (f *Forest) Labels() []string {
	out := make([]string, len(f.nodes))
	for i, n := range f.nodes {
		out[i] = n.Label
	}

	return out
}

// Roots returns nodes without a parent in input order.
func (f *Forest) Roots() []Node {
	return f.filter(Node.IsRoot)
}

// Leaves returns nodes without children in input order.
func (f *Forest) Leaves() []Node {
	return f.filter(func(n Node) bool { return n.IsLeaf })
}

func (f *Forest) filter(keep func(Node) bool) []Node {
	var out []Node

	for _, n := range f.nodes {
		if keep(n) {
			out = append(out, n)
		}
	}

	return out
}

// Children returns the direct children of id in input order.
func (f *Forest) Children(id uuid.UUID) []Node {
	i, ok := f.byID[id]
	if !ok {
		return nil
	}

	return f.pick(f.children[i])
}

// BottomUp returns every node with children ahead of their parents.
// Among nodes that are ready at the same time, input order wins.
func (f *Forest) BottomUp() []Node {
	return f.pick(f.order)
}

// PathToRoot returns the node named label followed by its ancestors.
func (f *Forest) PathToRoot(label string) ([]Node, error) {
	i, ok := f.byLabel[label]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNode, label)
	}

	var path []int
	for ; i >= 0; i = f.parent[i] {
		path = append(path, i)
	}

	return f.pick(path), nil
}

// Descendants returns every node below label, breadth first.
func (f *Forest) Descendants(label string) ([]Node, error) {
	i, ok := f.byLabel[label]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNode, label)
	}

	var out []int

	queue := slices.Clone(f.children[i])
	for len(queue) > 0 {
		j := queue[0]
		queue = queue[1:]
		out = append(out, j)
		queue = append(queue, f.children[j]...)
	}

	return f.pick(out), nil
}

// Diagnostics returns warnings raised while building the forest.
func (f *Forest) Diagnostics() diagnostic.Diagnostics {
	return f.diags
}

// MarshalJSON encodes the forest as its node list.
func (f *Forest) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.nodes)
}

func (f *Forest) pick(idx []int) []Node {
	out := make([]Node, len(idx))
	for k, i := range idx {
		out[k] = f.nodes[i]
	}

	return out
}
