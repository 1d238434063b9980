package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortedKeys(t *testing.T) {
	m := map[string]int{"b": 2, "c": 3, "a": 1}
	assert.Equal(t, []string{"a", "b", "c"}, SortedKeys(m))
	assert.Empty(t, SortedKeys(map[string]int{}))
}

func TestFileAlias(t *testing.T) {
	assert.Equal(t, "ledger", FileAlias("/data/in/ledger.csv"))
	assert.Equal(t, "report.v2", FileAlias("report.v2.xlsx"))
	assert.Equal(t, "", FileAlias(""))
}

func TestClamp01(t *testing.T) {
	assert.InDelta(t, 0.0, Clamp01(-0.2), 0)
	assert.InDelta(t, 1.0, Clamp01(1.0000001), 0)
	assert.InDelta(t, 0.5, Clamp01(0.5), 0)
}

func TestHead(t *testing.T) {
	assert.Equal(t, []int{1, 2}, Head([]int{1, 2, 3}, 2))
	assert.Equal(t, []int{1}, Head([]int{1}, 5))
	assert.Empty(t, Head([]int{1}, -1))
}
