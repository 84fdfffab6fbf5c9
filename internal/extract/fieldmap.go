package extract

import (
	"sort"
	"strconv"
	"strings"
)

// FieldMap is the flat output of one extraction strategy for one page.
//
// Keys are camelCase names local to the extractors: a plain group name for
// scalars (temperature, stringToStringGap), the group name followed by a grid
// position for grid rows (visualCheckTS01A, cellGapTS04B), and the group name
// followed by a 1-based sample index for sample rows (trimmingSNo3).
// A key that is absent means the value was not found.
type FieldMap map[string]string

// Set stores value under key after trimming. Blank values are not stored.
func (m FieldMap) Set(key, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	m[key] = value
}

// Get returns the trimmed value for key and whether it is non-blank.
func (m FieldMap) Get(key string) (string, bool) {
	v := strings.TrimSpace(m[key])
	return v, v != ""
}

// Has reports whether key holds a non-blank value.
func (m FieldMap) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Keys returns the keys in sorted order.
func (m FieldMap) Keys() []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Clone returns a shallow copy; nil stays nil.
func (m FieldMap) Clone() FieldMap {
	if m == nil {
		return nil
	}
	out := make(FieldMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Absorb copies every non-blank entry of o into m, overwriting on collision.
func (m FieldMap) Absorb(o FieldMap) {
	for k, v := range o {
		m.Set(k, v)
	}
}

// GridPositions are the eight tabber/stringer positions of a grid row.
var GridPositions = []string{"TS01A", "TS01B", "TS02A", "TS02B", "TS03A", "TS03B", "TS04A", "TS04B"}

// GridKeys returns group+position for every grid position.
func GridKeys(group string) []string {
	out := make([]string, len(GridPositions))
	for i, p := range GridPositions {
		out[i] = group + p
	}
	return out
}

// SampleKeys returns group1..groupN.
func SampleKeys(group string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = group + strconv.Itoa(i+1)
	}
	return out
}
