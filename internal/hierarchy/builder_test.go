package hierarchy

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crossmap/internal/diagnostic"
)

func balanceSheetRows() []Row {
	allowance := NewRow("Allowance for Doubtful Accounts", "Current Assets")
	allowance.Operator = OperatorSubtract

	return []Row{
		NewRow("Total Assets", ""),
		NewRow("Current Assets", "Total Assets"),
		NewRow("Cash", "Current Assets"),
		NewRow("Receivables", "Current Assets"),
		allowance,
		NewRow("Total Liabilities", ""),
		NewRow("Payables", "Total Liabilities"),
	}
}

func labels(nodes []Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Label
	}

	return out
}

func TestBuild_Forest(t *testing.T) {
	f, err := Build(balanceSheetRows(), Options{})
	require.NoError(t, err)

	assert.Equal(t, 7, f.Len())
	assert.Equal(t, []string{"Total Assets", "Total Liabilities"}, labels(f.Roots()))
	assert.Equal(t, []string{"Cash", "Receivables", "Allowance for Doubtful Accounts", "Payables"}, labels(f.Leaves()))
	assert.Equal(t, []string{
		"Cash", "Receivables", "Allowance for Doubtful Accounts", "Current Assets",
		"Total Assets", "Payables", "Total Liabilities",
	}, labels(f.BottomUp()))

	cash, ok := f.Lookup("Cash")
	require.True(t, ok)
	assert.Equal(t, 2, cash.Level)
	assert.True(t, cash.IsLeaf)
	assert.Equal(t, "Current Assets", cash.Parent)
	assert.Equal(t, NodeID("Current Assets"), cash.ParentID.UUID)
	assert.Equal(t, NodeID("Cash"), cash.ID)

	root, ok := f.Node(NodeID("Total Assets"))
	require.True(t, ok)
	assert.True(t, root.IsRoot())
	assert.Equal(t, 0, root.Level)
	assert.Equal(t, []string{"Current Assets"}, labels(f.Children(root.ID)))

	allowance, _ := f.Lookup("Allowance for Doubtful Accounts")
	assert.True(t, allowance.Factor().Equal(decimal.NewFromInt(-1)))
	assert.Empty(t, f.Diagnostics().Warnings)
}

func TestBuild_Deterministic(t *testing.T) {
	a, err := Build(balanceSheetRows(), Options{})
	require.NoError(t, err)

	b, err := Build(balanceSheetRows(), Options{})
	require.NoError(t, err)

	assert.Equal(t, a.Nodes(), b.Nodes())
	assert.Equal(t, a.BottomUp(), b.BottomUp())
}

func TestBuild_TwoNodeCycle(t *testing.T) {
	b := NewBuilder(Options{})
	require.NoError(t, b.Add(NewRow("A", "B"), NewRow("B", "A")))
	assert.Equal(t, StateBuilding, b.State())

	_, err := b.Build()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCyclicHierarchy)

	var cycle *CyclicHierarchyError
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, []string{"A", "B", "A"}, cycle.Path)
	assert.Equal(t, StateInvalid, b.State())

	_, again := b.Build()
	assert.Same(t, err, again)
	assert.ErrorIs(t, b.Add(NewRow("C", "")), ErrSealed)
}

func TestBuild_SelfCycle(t *testing.T) {
	_, err := Build([]Row{NewRow("Root", ""), NewRow("Loop", "Loop")}, Options{})

	var cycle *CyclicHierarchyError
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, []string{"Loop", "Loop"}, cycle.Path)
}

func TestBuild_CycleBelowTree(t *testing.T) {
	_, err := Build([]Row{
		NewRow("Root", ""),
		NewRow("X", "Root"),
		NewRow("P", "R"),
		NewRow("Q", "P"),
		NewRow("R", "Q"),
	}, Options{})

	var cycle *CyclicHierarchyError
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, []string{"P", "R", "Q", "P"}, cycle.Path)
}

func TestBuild_DuplicateElement(t *testing.T) {
	rows := []Row{NewRow("Total", ""), NewRow("Cash", "Total"), NewRow("Bank", "Total"), NewRow("Cash", "Total")}
	for i := range rows {
		rows[i].Line = i + 2
	}

	_, err := Build(rows, Options{})

	var dup *DuplicateElementError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "Cash", dup.Label)
	assert.Equal(t, []int{3, 5}, dup.Lines)
}

func TestBuild_UnknownParent(t *testing.T) {
	rows := []Row{NewRow("Total", ""), NewRow("Petty Cash", "Cash Accounts")}

	_, err := Build(rows, Options{})

	var unknown *UnknownParentError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "Petty Cash", unknown.Element)
	assert.Equal(t, "Cash Accounts", unknown.Parent)

	f, err := Build(rows, Options{AllowOrphans: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"Total", "Petty Cash"}, labels(f.Roots()))

	diags := f.Diagnostics()
	require.Len(t, diags.WithCode(diagnostic.CodeOrphanPromoted), 1)
	assert.Equal(t, "Petty Cash", diags.Warnings[0].Subject)
}

func TestBuild_LevelMismatchKeepsExplicit(t *testing.T) {
	rows := balanceSheetRows()
	five, one := 5, 1
	rows[2].Level = &five // Cash is derived at 2
	rows[1].Level = &one  // matches

	f, err := Build(rows, Options{})
	require.NoError(t, err)

	cash, _ := f.Lookup("Cash")
	assert.Equal(t, 5, cash.Level)

	diags := f.Diagnostics()
	warnings := diags.WithCode(diagnostic.CodeLevelMismatch)
	require.Len(t, warnings, 1)
	assert.Equal(t, "Cash", warnings[0].Subject)
}

func TestBuild_InvalidRows(t *testing.T) {
	negative := NewRow("Cash", "")
	negative.Multiplier = decimal.NewFromInt(-2)

	tests := []struct {
		name string
		row  Row
	}{
		{"empty label", NewRow("  ", "")},
		{"negative multiplier", negative},
		{"bad operator", Row{Element: "X", Operator: Operator(7), Multiplier: decimal.NewFromInt(1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build([]Row{tt.row}, Options{})
			assert.ErrorIs(t, err, ErrInvalidRow)
		})
	}
}

func TestBuilder_EmptyAndValid(t *testing.T) {
	b := NewBuilder(Options{})
	assert.Equal(t, StateEmpty, b.State())

	f, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, 0, f.Len())
	assert.Equal(t, StateValid, b.State())

	again, err := b.Build()
	require.NoError(t, err)
	assert.Same(t, f, again)
	assert.ErrorIs(t, b.Add(NewRow("X", "")), ErrSealed)
	assert.Equal(t, "valid", b.State().String())
}

func TestForest_Navigation(t *testing.T) {
	f, err := Build(balanceSheetRows(), Options{})
	require.NoError(t, err)

	path, err := f.PathToRoot("Receivables")
	require.NoError(t, err)
	assert.Equal(t, []string{"Receivables", "Current Assets", "Total Assets"}, labels(path))

	desc, err := f.Descendants("Total Assets")
	require.NoError(t, err)
	assert.Equal(t, []string{"Current Assets", "Cash", "Receivables", "Allowance for Doubtful Accounts"}, labels(desc))

	_, err = f.PathToRoot("Goodwill")
	assert.ErrorIs(t, err, ErrUnknownNode)

	_, err = f.Descendants("Goodwill")
	assert.True(t, errors.Is(err, ErrUnknownNode))
}

func TestForest_JSON(t *testing.T) {
	f, err := Build(balanceSheetRows()[:3], Options{})
	require.NoError(t, err)

	out, err := json.Marshal(f)
	require.NoError(t, err)

	var nodes []map[string]any
	require.NoError(t, json.Unmarshal(out, &nodes))
	require.Len(t, nodes, 3)

	assert.Nil(t, nodes[0]["parent_id"])
	assert.Equal(t, "add", nodes[0]["operator"])
	assert.Equal(t, "1", nodes[0]["multiplier"])
	assert.Equal(t, NodeID("Total Assets").String(), nodes[1]["parent_id"])
	assert.Equal(t, true, nodes[2]["is_leaf"])
}
