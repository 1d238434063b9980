package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crossmap/internal/hierarchy"
	"crossmap/internal/table"
)

func TestParseTableSpec(t *testing.T) {
	tests := []struct {
		in      string
		want    table.Spec
		wantErr bool
	}{
		{in: "data/gl.csv", want: table.Spec{Path: "data/gl.csv", Alias: "gl", Role: table.RoleData}},
		{in: "ledger=data/gl.csv", want: table.Spec{Path: "data/gl.csv", Alias: "ledger", Role: table.RoleData}},
		{in: "coa=coa.xlsx:hierarchy", want: table.Spec{Path: "coa.xlsx", Alias: "coa", Role: "hierarchy"}},
		{in: "=gl.csv", wantErr: true},
		{in: "gl=", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseTableSpec(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFilters(t *testing.T) {
	got, err := parseFilters([]string{"entity=A", " period =2024-12"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"entity": "A", "period": "2024-12"}, got)

	_, err = parseFilters([]string{"entity"})
	assert.Error(t, err)
}

func write(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append([]string{"--config", filepath.Join(dir, "none.yaml"), "--log-level", "error"}, args...))

	err := root.Execute()

	return out.String(), err
}

func fixtures(t *testing.T) (dir, ledger, coa string) {
	t.Helper()

	dir = t.TempDir()
	ledger = write(t, dir, "ledger.csv", "account,amount\n"+
		"Cash,100\nTrade Receivables,50\nAllowance,10\nPayables,60\nShare Capital,80\n")
	coa = write(t, dir, "coa.csv", "element,parent,operator\n"+
		"Total Assets,,add\nCash,Total Assets,add\nNet Receivables,Total Assets,add\n"+
		"Trade Receivables,Net Receivables,add\nAllowance,Net Receivables,subtract\n"+
		"Total Liabilities,,add\nPayables,Total Liabilities,add\n"+
		"Total Equity,,add\nShare Capital,Total Equity,add\n")

	return dir, ledger, coa
}

func TestValidateCommand(t *testing.T) {
	dir, ledger, coa := fixtures(t)

	out, err := run(t, dir, "validate",
		"--table", "ledger="+ledger, "--table", "coa="+coa,
		"--source", "ledger", "--category", "account", "--amount", "amount",
		"--hierarchy", "coa", "--discover", "--rule", "balance_sheet_equation")
	require.NoError(t, err)

	var got struct {
		Passed  bool `json:"passed"`
		Reports []struct {
			RuleName string  `json:"rule_name"`
			Coverage float64 `json:"mapping_coverage_pct"`
		} `json:"reports"`
	}

	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.True(t, got.Passed)
	require.Len(t, got.Reports, 1)
	assert.Equal(t, "balance_sheet_equation", got.Reports[0].RuleName)
	assert.InDelta(t, 100.0, got.Reports[0].Coverage, 0)

	_, err = run(t, dir, "validate",
		"--table", "ledger="+ledger, "--table", "coa="+coa,
		"--source", "ledger", "--category", "account", "--amount", "amount",
		"--hierarchy", "coa", "--discover", "--equation", "Total Assets = Total Equity")
	require.ErrorIs(t, err, errValidationFailed)
}

func TestValidateCommand_HierarchyRoleAndDetach(t *testing.T) {
	dir, ledger, coa := fixtures(t)

	coverage := func(out string) float64 {
		t.Helper()

		var got struct {
			Reports []struct {
				Coverage float64 `json:"mapping_coverage_pct"`
			} `json:"reports"`
		}

		require.NoError(t, json.Unmarshal([]byte(out), &got))
		require.Len(t, got.Reports, 1)

		return got.Reports[0].Coverage
	}

	base := []string{"validate",
		"--table", "ledger=" + ledger, "--table", "coa=" + coa + ":hierarchy",
		"--source", "ledger", "--category", "account", "--amount", "amount", "--discover"}

	out, err := run(t, dir, base...)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, coverage(out), 0)

	out, err = run(t, dir, append(base, "--detach", "ledger.account -> coa.element")...)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, coverage(out), 0)

	_, err = run(t, dir, append(base, "--detach", "ledger.account")...)
	require.Error(t, err)

	_, err = run(t, dir, "validate",
		"--table", "ledger="+ledger, "--table", "coa="+coa,
		"--source", "ledger", "--category", "account", "--amount", "amount")
	require.ErrorIs(t, err, errNoHierarchyTable)
}

func TestCompareCommand(t *testing.T) {
	dir, ledger, coa := fixtures(t)

	out, err := run(t, dir, "compare", "--table", "ledger="+ledger, "--table", "coa="+coa,
		"--source", "ledger.account", "--report", "coa.element")
	require.NoError(t, err)

	var got struct {
		Exact      int      `json:"exact_matches"`
		Pct        float64  `json:"coverage_percentage"`
		SourceOnly []string `json:"source_only"`
		ReportOnly []string `json:"report_only"`
	}

	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 5, got.Exact)
	assert.InDelta(t, 100.0, got.Pct, 0)
	assert.Empty(t, got.SourceOnly)
	assert.Equal(t, []string{"Net Receivables", "Total Assets", "Total Equity", "Total Liabilities"}, got.ReportOnly)

	_, err = run(t, dir, "compare", "--table", "ledger="+ledger, "--source", "ledger", "--report", "coa.element")
	require.Error(t, err)
}

func TestDiscoverCommand(t *testing.T) {
	dir, ledger, coa := fixtures(t)

	out, err := run(t, dir, "discover", "--table", "ledger="+ledger, "--table", "coa="+coa, "--source", "ledger")
	require.NoError(t, err)

	var got struct {
		Candidates []struct {
			TargetColumn string `json:"target_column"`
			MatchType    string `json:"match_type"`
		} `json:"candidates"`
		Hierarchies []struct {
			ElementColumn string `json:"element_column"`
		} `json:"hierarchies"`
	}

	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got.Candidates, 1)
	assert.Equal(t, "element", got.Candidates[0].TargetColumn)
	assert.Equal(t, "exact", got.Candidates[0].MatchType)
	require.Len(t, got.Hierarchies, 1)
}

func TestHierarchyCommand(t *testing.T) {
	dir, _, coa := fixtures(t)

	out, err := run(t, dir, "hierarchy", "--file", coa)
	require.NoError(t, err)

	var got struct {
		Nodes []map[string]any `json:"nodes"`
		Roots []string         `json:"roots"`
	}

	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Len(t, got.Nodes, 9)
	assert.Equal(t, []string{"Total Assets", "Total Liabilities", "Total Equity"}, got.Roots)

	cyclic := write(t, dir, "cyclic.csv", "element,parent\nA,B\nB,A\n")
	_, err = run(t, dir, "hierarchy", "--file", cyclic)
	assert.ErrorIs(t, err, hierarchy.ErrCyclicHierarchy)
}

func TestMappingsCommands(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CROSSMAP_STORE_PATH", filepath.Join(dir, "defs.db"))

	defs := write(t, dir, "defs.yaml", `
definitions:
  - source: ledger.account
    target: coa.element
    values:
      Suspense: Cash
`)

	_, err := run(t, dir, "mappings", "save", "--set", "q4", "--file", defs)
	require.NoError(t, err)

	out, err := run(t, dir, "mappings", "list")
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "q4"`)

	out, err = run(t, dir, "mappings", "load", "--set", "q4")
	require.NoError(t, err)
	assert.Contains(t, out, "ledger.account")
	assert.Contains(t, out, "Suspense: Cash")

	_, err = run(t, dir, "mappings", "load")
	require.ErrorIs(t, err, errMissingSet)

	_, err = run(t, dir, "mappings", "delete", "--set", "q4")
	require.NoError(t, err)

	out, err = run(t, dir, "mappings", "list")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)
}
