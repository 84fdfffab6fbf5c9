package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/ipqc-tracker/internal/extract"
)

func TestRecover(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want extract.FieldMap
	}{
		{
			name: "plain json",
			raw:  `{"temperature": "23°C", "humidity": null, "appearance": true}`,
			want: extract.FieldMap{"temperature": "23°C", "appearance": "OK"},
		},
		{
			name: "fenced json with numbers",
			raw:  "```json\n{\"stringLengthTS01A\": 1163, \"cellGapTS01A\": 0.76}\n```",
			want: extract.FieldMap{"stringLengthTS01A": "1163", "cellGapTS01A": "0.76"},
		},
		{
			name: "trailing comma",
			raw:  `Result: {"humidity": "45%",}`,
			want: extract.FieldMap{"humidity": "45%"},
		},
		{
			name: "nested object falls back to inner object",
			raw:  `{"page": {"temperature": "24°C"}}`,
			want: extract.FieldMap{"temperature": "24°C"},
		},
		{
			name: "key value lines",
			raw:  "temperature = 23°C\nhumidity: null\neva1Type: EP304",
			want: extract.FieldMap{"temperature": "23°C", "eva1Type": "EP304"},
		},
		{
			name: "nothing usable",
			raw:  "I could not read the page.",
			want: extract.FieldMap{},
		},
		{
			name: "empty",
			raw:  "   ",
			want: extract.FieldMap{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Recover(tt.raw, nil))
		})
	}
}

func TestRecover_MalformedModelOutput(t *testing.T) {
	raw := "Here is the data: ```json\n{temperature: '23°C', humidity: 45%}\n```"

	var got extract.FieldMap
	require.NotPanics(t, func() { got = Recover(raw, nil) })
	require.NotEmpty(t, got)
	assert.Equal(t, "23°C", got["temperature"])
	assert.Equal(t, "45%", got["humidity"])
}

func TestRepairJSON(t *testing.T) {
	assert.Equal(t, `{"a": "1", "b": "x y"}`, repairJSON(`{a: 1, 'b': x y,}`))
}

func TestBuildUserPrompt_Truncates(t *testing.T) {
	fields, ok := PagePrompt(1)
	require.True(t, ok)
	assert.Contains(t, fields, "stringLengthTS01A")

	long := make([]rune, MaxPromptText+50)
	for i := range long {
		long[i] = '℃'
	}
	p := BuildUserPrompt(1, fields, string(long))
	assert.Contains(t, p, "=== OCR TEXT START ===")
	assert.NotContains(t, p, string(long))

	_, ok = PagePrompt(8)
	assert.False(t, ok)
}
