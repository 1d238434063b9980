package diagnostic

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiagnostics_Collect(t *testing.T) {
	var d Diagnostics

	d.AddWarning(CodeLevelMismatch, "level 3 given, 2 derived", "Cash", "level")
	d.AddInfo(CodeHierarchyTableDetected, "hierarchy-shaped table", "coa", "")

	assert.True(t, d.IsValid())
	require.NoError(t, d.Error())
	assert.Len(t, d.WithCode(CodeLevelMismatch), 1)

	d.AddError(CodeUnknownColumn, "column not loaded", "ledger", "Acct")
	assert.True(t, d.HasErrors())
	assert.EqualError(t, d.Error(), "[ledger] Acct: [unknown_column] column not loaded")
}

func TestDiagnostics_Merge(t *testing.T) {
	var a, b Diagnostics

	a.AddWarning("w", "one", "", "")
	b.AddWarning("w", "two", "", "")
	b.AddError("e", "three", "", "")

	a.Merge(b)

	assert.Len(t, a.Warnings, 2)
	assert.Len(t, a.Errors, 1)
	assert.Equal(t, "[e] three", a.Errors[0].String())
}

func TestDiagnostic_JSON(t *testing.T) {
	var d Diagnostics
	d.AddWarning(CodeOrphanPromoted, "parent missing", "Petty Cash", "")

	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `{"warnings":[{"severity":"warning","code":"orphan_promoted_to_root",
		"message":"parent missing","subject":"Petty Cash"}]}`, string(out))
	assert.Equal(t, "unknown", Severity(9).String())
}
