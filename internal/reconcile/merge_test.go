package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joseph-ayodele/ipqc-tracker/internal/extract"
)

func TestMerge_Precedence(t *testing.T) {
	tests := []struct {
		name                string
		keyword, regex, llm extract.FieldMap
		want                extract.FieldMap
	}{
		{"regex beats keyword", extract.FieldMap{"a": "1"}, extract.FieldMap{"a": "2"}, extract.FieldMap{}, extract.FieldMap{"a": "2"}},
		{"llm beats both wholesale", extract.FieldMap{"a": "1", "b": "k"}, extract.FieldMap{"a": "2"}, extract.FieldMap{"a": "3"}, extract.FieldMap{"a": "3"}},
		{"union of keyword and regex", extract.FieldMap{"a": "1"}, extract.FieldMap{"b": "2"}, nil, extract.FieldMap{"a": "1", "b": "2"}},
		{"blank llm map is ignored", extract.FieldMap{"a": "1"}, nil, extract.FieldMap{"a": "  "}, extract.FieldMap{"a": "1"}},
		{"all empty", nil, nil, nil, extract.FieldMap{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Merge(tt.keyword, tt.regex, tt.llm))
		})
	}
}

func TestMerge_DoesNotModifyInputs(t *testing.T) {
	kw := extract.FieldMap{"a": "1"}
	rx := extract.FieldMap{"a": "2"}
	out := Merge(kw, rx, nil)
	out["a"] = "changed"

	assert.Equal(t, "1", kw["a"])
	assert.Equal(t, "2", rx["a"])
}

func TestMerge_ExtractorOutputKeepsPositions(t *testing.T) {
	e := extract.NewExtractor(0, nil)
	text := "Temperature\n35℃\nHumidity\n45%\nString length\n1163 1300 1171\nCell to Cell Gap"

	got := Merge(e.Keyword(1, text), e.Regex(1, text), nil)

	assert.NotContains(t, got, "temperature")
	assert.Equal(t, "45%", got["humidity"])
	assert.Equal(t, "1163", got["stringLengthTS01A"])
	assert.Equal(t, "1171", got["stringLengthTS01B"])
	assert.NotContains(t, got, "stringLengthTS02A")
}
