package reconcile

import "github.com/joseph-ayodele/ipqc-tracker/internal/extract"

// Merge combines the three candidate maps of one page.
//
// An llm map holding any non-blank value is authoritative and is returned
// alone. Otherwise the keyword and regex maps are unioned, regex winning on a
// shared key. The inputs are never modified.
func Merge(keyword, regex, llm extract.FieldMap) extract.FieldMap {
	if hasData(llm) {
		out := make(extract.FieldMap, len(llm))
		out.Absorb(llm)
		return out
	}
	out := make(extract.FieldMap, len(keyword)+len(regex))
	out.Absorb(keyword)
	out.Absorb(regex)
	return out
}

func hasData(m extract.FieldMap) bool {
	for k := range m {
		if m.Has(k) {
			return true
		}
	}
	return false
}
