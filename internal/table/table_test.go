package table

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestFromRecords_InfersKinds(t *testing.T) {
	tbl, err := FromRecords("gl", []string{"Account", "Amount", "Posted", "Level", "Flag"}, [][]string{
		{"Cash", "1,200.50", "2024-01-31", "1", "true"},
		{"Receivables", "(40)", "2024-02-29", "2", "false"},
		{"Inventory", "300", "", "2", "TRUE"},
	})
	require.NoError(t, err)

	assert.Equal(t, KindText, tbl.Kind("Account"))
	assert.Equal(t, KindDecimal, tbl.Kind("Amount"))
	assert.Equal(t, KindDate, tbl.Kind("Posted"))
	assert.Equal(t, KindInteger, tbl.Kind("Level"))
	assert.Equal(t, KindBoolean, tbl.Kind("Flag"))
	assert.Equal(t, KindEmpty, tbl.Kind("Missing"))
	assert.Equal(t, 1, tbl.NullCount("Posted"))
	assert.Equal(t, 3, tbl.Len())
}

func TestFromRecords_RejectsDuplicateHeader(t *testing.T) {
	_, err := FromRecords("x", []string{"a", "a"}, nil)
	require.Error(t, err)

	_, err = FromRecords("x", nil, nil)
	require.Error(t, err)
}

func TestValue_Decimal(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"100", "100", true},
		{"1,234.56", "1234.56", true},
		{"(12.50)", "-12.5", true},
		{"$ 99", "99", true},
		{"abc", "0", false},
		{"", "0", false},
		{"N/A", "0", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			d, ok := NewValue(tt.raw).Decimal()
			assert.Equal(t, tt.ok, ok)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(d), "got %s", d)
		})
	}
}

func TestValue_IsBlank(t *testing.T) {
	assert.True(t, NewValue("  ").IsBlank())
	assert.True(t, NewValue("").Null)

	na := NewValue("NA")
	assert.True(t, na.Null)
	assert.False(t, na.IsBlank())
	assert.Equal(t, "NA", na.Text)
}

func TestProfile_BoundsSamples(t *testing.T) {
	records := [][]string{{"a"}, {"b"}, {"a"}, {""}, {"c"}}
	tbl, err := FromRecords("t", []string{"v"}, records)
	require.NoError(t, err)

	p := tbl.Profile(2)
	require.Len(t, p, 1)
	assert.Equal(t, "t", p[0].FileID)
	assert.Equal(t, []string{"a", "b"}, p[0].Samples)
	assert.Equal(t, 3, p[0].Cardinality)
	assert.Equal(t, 1, p[0].NullCount)
	assert.Equal(t, KindText, p[0].Type)
}

func TestRowsIteration(t *testing.T) {
	tbl, err := FromRecords("t", []string{"k", "v"}, [][]string{{"x", "1"}, {"y"}})
	require.NoError(t, err)

	var keys []string
	for _, row := range tbl.All() {
		keys = append(keys, row.Get("k").String())
		if row.Index() == 1 {
			assert.True(t, row.Get("v").Null)
		}
	}

	assert.Equal(t, []string{"x", "y"}, keys)

	col, ok := tbl.FindColumn("K")
	assert.True(t, ok)
	assert.Equal(t, "k", col)
}

func TestFileLoader_CSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ledger.csv")
	require.NoError(t, os.WriteFile(path, []byte("account;amount\nCash;100\nDebt;40\n"), 0o644))

	tbl, err := FileLoader{}.Load(Spec{Path: path})
	require.NoError(t, err)

	assert.Equal(t, "ledger", tbl.Alias)
	assert.Equal(t, RoleData, tbl.Role)
	assert.Equal(t, []string{"account", "amount"}, tbl.Columns())
	assert.Equal(t, KindInteger, tbl.Kind("amount"))
}

func TestFileLoader_XLSX(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "structure.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"element", "parent", "operator"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"Total Assets", "", "add"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{"Cash", "Total Assets", "add"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	tbl, err := FileLoader{}.Load(Spec{Path: path, Alias: "bs", Role: "hierarchy"})
	require.NoError(t, err)

	assert.Equal(t, "bs", tbl.Alias)
	assert.Equal(t, "hierarchy", tbl.Role)
	assert.Equal(t, 2, tbl.Len())

	parents, err := tbl.Column("parent")
	require.NoError(t, err)
	assert.True(t, parents[0].Null)
	assert.Equal(t, "Total Assets", parents[1].Text)
}

func TestFileLoader_Errors(t *testing.T) {
	_, err := FileLoader{}.Load(Spec{Path: "data.parquet"})
	require.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = FileLoader{}.Load(Spec{Path: filepath.Join(t.TempDir(), "missing.csv")})
	require.Error(t, err)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "decimal", KindDecimal.String())
	assert.Equal(t, "Kind(42)", Kind(42).String())
	assert.Equal(t, KindDate, ParseKind("DATE"))
}
