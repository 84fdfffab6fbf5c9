package extract

import (
	"regexp"
	"strings"
)

// DefaultSectionWindow is the number of characters after an anchor that make up a table section.
const DefaultSectionWindow = 800

// TableRule describes a checkpoint printed as a row of repeated cells.
type TableRule struct {
	// Anchor is the printed checkpoint description that starts the section.
	Anchor string
	// Until, when found inside the window, ends the section early.
	Until string
	// Keys are the FieldMap keys filled positionally, in printed order.
	Keys []string
	// Shape matches one cell value. The first group is used when present.
	Shape *regexp.Regexp
	// Normalize runs on each raw match before validation.
	Normalize func(string) string
	// Validate drops matches that have the right shape but an impossible value.
	Validate func(string) bool
	// Status fills every key with this token once the anchor is found.
	Status string
	// Window overrides the extractor window when positive.
	Window int
}

// TableExtractor locates table sections and zips their cell values onto keys.
type TableExtractor struct {
	Window int
}

// NewTableExtractor returns an extractor with the given window, or the default when window <= 0.
func NewTableExtractor(window int) *TableExtractor {
	if window <= 0 {
		window = DefaultSectionWindow
	}
	return &TableExtractor{Window: window}
}

// Section returns the text following the anchor, bounded by the window and
// the optional stop anchor. ok is false when the anchor is absent.
func (e *TableExtractor) Section(text string, r TableRule) (string, bool) {
	if strings.TrimSpace(r.Anchor) == "" {
		return "", false
	}
	loc := anchorPattern(r.Anchor).FindStringIndex(text)
	if loc == nil {
		return "", false
	}
	window := r.Window
	if window <= 0 {
		window = e.Window
	}
	if window <= 0 {
		window = DefaultSectionWindow
	}
	section := truncateRunes(text[loc[1]:], window)
	if r.Until != "" {
		if end := anchorPattern(r.Until).FindStringIndex(section); end != nil {
			section = section[:end[0]]
		}
	}
	return section, true
}

// Extract applies one table rule. Matches are taken in document order; the
// Nth accepted value fills the Nth key, surplus values are discarded and
// missing positions stay absent.
func (e *TableExtractor) Extract(text string, r TableRule) FieldMap {
	out := make(FieldMap, len(r.Keys))
	section, ok := e.Section(text, r)
	if !ok {
		return out
	}
	if r.Status != "" {
		for _, k := range r.Keys {
			out[k] = r.Status
		}
		return out
	}
	if r.Shape == nil {
		return out
	}

	values := make([]string, 0, len(r.Keys))
	for _, m := range r.Shape.FindAllStringSubmatch(section, -1) {
		v := m[0]
		if len(m) > 1 && m[1] != "" {
			v = m[1]
		}
		if r.Normalize != nil {
			v = r.Normalize(v)
		}
		v = strings.TrimSpace(v)
		if v == "" || (r.Validate != nil && !r.Validate(v)) {
			continue
		}
		values = append(values, v)
		if len(values) == len(r.Keys) {
			break
		}
	}
	for i, v := range values {
		out[r.Keys[i]] = v
	}
	return out
}

// ExtractAll applies every rule and merges their output in order.
func (e *TableExtractor) ExtractAll(text string, rules []TableRule) FieldMap {
	out := make(FieldMap)
	for _, r := range rules {
		out.Absorb(e.Extract(text, r))
	}
	return out
}

// anchorPattern matches s case-insensitively with any run of whitespace
// standing for each space, since OCR frequently breaks printed labels across lines.
func anchorPattern(s string) *regexp.Regexp {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`(?i)` + strings.Join(words, `\s+`))
}

func truncateRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
