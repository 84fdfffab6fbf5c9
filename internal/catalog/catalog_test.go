package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_Invariants(t *testing.T) {
	c := Default()
	require.Equal(t, 88, c.Len())

	total := 0
	for page := 1; page <= PageCount; page++ {
		cps := c.ByPage(page)
		assert.NotEmpty(t, cps, "page %d", page)
		for i := 1; i < len(cps); i++ {
			assert.Less(t, cps[i-1].SrNo, cps[i].SrNo)
		}
		total += len(cps)
	}
	assert.Equal(t, 88, total)
	assert.Empty(t, c.ByPage(8))
}

func TestLookup(t *testing.T) {
	c := Default()

	cp, ok := c.Lookup(1)
	require.True(t, ok)
	assert.Equal(t, 1, cp.Page)
	assert.Equal(t, "Temperature", cp.Description)

	cp, ok = c.Lookup(22)
	require.True(t, ok)
	assert.Equal(t, []string{"TOP", "Bottom", "Sides"}, cp.SubFieldKeys)
	assert.True(t, cp.HasSubKey("Sides"))
	assert.False(t, cp.HasSubKey("Left"))

	_, ok = c.Lookup(0)
	assert.False(t, ok)
	_, ok = c.Lookup(89)
	assert.False(t, ok)
}

func TestSubFieldKeys_TabberGrid(t *testing.T) {
	c := Default()
	for _, sr := range []int{16, 17, 18, 19} {
		cp, ok := c.Lookup(sr)
		require.True(t, ok)
		assert.Len(t, cp.SubFieldKeys, 8, "sr %d", sr)
		assert.Equal(t, "TS01A", cp.SubFieldKeys[0])
		assert.Equal(t, "TS04B", cp.SubFieldKeys[7])
	}
}

func TestFindByNameAndStage(t *testing.T) {
	c := Default()

	cp, ok := c.FindByNameAndStage("humidity", "shop floor")
	require.True(t, ok)
	assert.Equal(t, 2, cp.SrNo)

	_, ok = c.FindByNameAndStage("humidity", "framing")
	assert.False(t, ok)

	_, ok = c.FindByNameAndStage("", "")
	assert.False(t, ok)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"empty", "checkpoints: []"},
		{"gap", "checkpoints:\n  - {sr: 1, page: 1, description: a}\n  - {sr: 3, page: 1, description: b}\n"},
		{"bad page", "checkpoints:\n  - {sr: 1, page: 9, description: a}\n"},
		{"no description", "checkpoints:\n  - {sr: 1, page: 1, description: ' '}\n"},
		{"dup subkey", "checkpoints:\n  - {sr: 1, page: 1, description: a, subFieldKeys: [S1, S1]}\n"},
		{"not yaml", "checkpoints: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestParse_SortsBySrNo(t *testing.T) {
	c, err := Parse([]byte("checkpoints:\n  - {sr: 2, page: 2, description: b}\n  - {sr: 1, page: 1, description: a}\n"))
	require.NoError(t, err)
	all := c.All()
	require.Len(t, all, 2)
	assert.Equal(t, 1, all[0].SrNo)
	assert.Equal(t, 2, all[1].SrNo)
}
