package extract

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var stringLengthRule = TableRule{
	Anchor:    "String length",
	Until:     "Cell to Cell",
	Keys:      GridKeys("stringLength"),
	Shape:     regexp.MustCompile(`\b(\d{4}|\d\s\d{3})\b`),
	Normalize: func(s string) string { return strings.Join(strings.Fields(s), "") },
	Validate:  stringLength.has,
}

func TestTableExtractor_ZipsInDocumentOrder(t *testing.T) {
	text := "String length\n1163,1169,1171,1168,1172,1170,1175,1169\nCell to Cell Gap"
	got := NewTableExtractor(0).Extract(text, stringLengthRule)

	want := FieldMap{
		"stringLengthTS01A": "1163",
		"stringLengthTS01B": "1169",
		"stringLengthTS02A": "1171",
		"stringLengthTS02B": "1168",
		"stringLengthTS03A": "1172",
		"stringLengthTS03B": "1170",
		"stringLengthTS04A": "1175",
		"stringLengthTS04B": "1169",
	}
	assert.Equal(t, want, got)
}

func TestTableExtractor_DropsInvalidBeforeZipping(t *testing.T) {
	text := "String length 1163 9999 1 169 1171"
	got := NewTableExtractor(0).Extract(text, stringLengthRule)

	assert.Equal(t, FieldMap{
		"stringLengthTS01A": "1163",
		"stringLengthTS01B": "1169",
		"stringLengthTS02A": "1171",
	}, got)
}

func TestTableExtractor_DiscardsSurplus(t *testing.T) {
	text := "String length 1101 1102 1103 1104 1105 1106 1107 1108 1109 1110"
	got := NewTableExtractor(0).Extract(text, stringLengthRule)

	require.Len(t, got, 8)
	assert.Equal(t, "1108", got["stringLengthTS04B"])
}

func TestTableExtractor_MissingAnchor(t *testing.T) {
	got := NewTableExtractor(0).Extract("Cell to Cell Gap 1.2 1.3", stringLengthRule)
	assert.Empty(t, got)
}

func TestTableExtractor_StopAnchor(t *testing.T) {
	text := "String length 1163 Cell to Cell 1170"
	got := NewTableExtractor(0).Extract(text, stringLengthRule)
	assert.Equal(t, FieldMap{"stringLengthTS01A": "1163"}, got)
}

func TestTableExtractor_AnchorAcrossLines(t *testing.T) {
	text := "STRING\n  LENGTH\n1150"
	got := NewTableExtractor(0).Extract(text, stringLengthRule)
	assert.Equal(t, FieldMap{"stringLengthTS01A": "1150"}, got)
}

func TestTableExtractor_Window(t *testing.T) {
	text := "String length 1150" + strings.Repeat(" ", 20) + "1160"

	got := NewTableExtractor(10).Extract(text, stringLengthRule)
	assert.Equal(t, FieldMap{"stringLengthTS01A": "1150"}, got)

	got = NewTableExtractor(0).Extract(text, stringLengthRule)
	assert.Len(t, got, 2)

	r := stringLengthRule
	r.Window = 10
	got = NewTableExtractor(0).Extract(text, r)
	assert.Len(t, got, 1)
}

func TestTableExtractor_StatusGrid(t *testing.T) {
	r := TableRule{Anchor: "Visual Check after", Keys: GridKeys("visualCheck"), Status: "OK"}

	got := NewTableExtractor(0).Extract("Visual Check after Stringing", r)
	require.Len(t, got, 8)
	for _, k := range GridKeys("visualCheck") {
		assert.Equal(t, "OK", got[k], k)
	}

	assert.Empty(t, NewTableExtractor(0).Extract("EL Image of Strings", r))
}

func TestTableExtractor_SectionWithoutAnchorText(t *testing.T) {
	_, ok := NewTableExtractor(0).Section("anything", TableRule{Anchor: "  "})
	assert.False(t, ok)
}

func TestGridAndSampleKeys(t *testing.T) {
	assert.Equal(t, "cellGapTS01A", GridKeys("cellGap")[0])
	assert.Equal(t, "cellGapTS04B", GridKeys("cellGap")[7])
	assert.Equal(t, []string{"trimmingSNo1", "trimmingSNo2", "trimmingSNo3"}, SampleKeys("trimmingSNo", 3))
}
