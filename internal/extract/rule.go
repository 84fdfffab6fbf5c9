package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// Rule extracts one FieldMap key from page text.
//
// Patterns are tried in order and the first one that matches decides the
// outcome: if Validate rejects that match the key stays absent and later
// patterns are not consulted.
type Rule struct {
	Key      string
	Patterns []*regexp.Regexp
	// Validate checks the submatches of the winning pattern. Nil accepts.
	Validate func(m []string) bool
	// Format renders the accepted match. Nil yields the first group, or the
	// whole match when the pattern has no groups.
	Format func(m []string) string
	// Constant, when set, is emitted as soon as a pattern matches. It is used
	// for procedural rows whose printed value is a fixed acknowledgement.
	Constant string
}

// Extract runs the rule against text.
func (r Rule) Extract(text string) (string, bool) {
	for _, p := range r.Patterns {
		m := p.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if r.Validate != nil && !r.Validate(m) {
			return "", false
		}
		var v string
		switch {
		case r.Constant != "":
			v = r.Constant
		case r.Format != nil:
			v = r.Format(m)
		case len(m) > 1:
			v = m[1]
		default:
			v = m[0]
		}
		v = strings.TrimSpace(v)
		return v, v != ""
	}
	return "", false
}

// Rules is an ordered rule list. When several rules share a key, the
// earliest rule that yields a value wins.
type Rules []Rule

// Apply runs the rules and returns the keys that were found.
func (rs Rules) Apply(text string) FieldMap {
	out := make(FieldMap, len(rs))
	for _, r := range rs {
		if _, done := out[r.Key]; done {
			continue
		}
		if v, ok := r.Extract(text); ok {
			out[r.Key] = v
		}
	}
	return out
}

// ci compiles a case-insensitive pattern.
func ci(p string) *regexp.Regexp { return regexp.MustCompile(`(?i)` + p) }

// pats compiles a case-insensitive pattern list.
func pats(ps ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(ps))
	for i, p := range ps {
		out[i] = ci(p)
	}
	return out
}

// degC matches a Celsius sign as printed (℃) or after NFKC folding (°C).
const degC = `(?:℃|[°º]\s*C)`

// groupInRange validates that group g parses as a number within [lo, hi].
func groupInRange(g int, lo, hi float64) func([]string) bool {
	return func(m []string) bool {
		return g < len(m) && inRange(m[g], lo, hi)
	}
}

// groupsInRange validates that every listed group lies within [lo, hi].
func groupsInRange(lo, hi float64, gs ...int) func([]string) bool {
	return func(m []string) bool {
		for _, g := range gs {
			if g >= len(m) || !inRange(m[g], lo, hi) {
				return false
			}
		}
		return true
	}
}

// bounds is the inclusive range of plausible readings for one checkpoint.
// Pattern rules and keyword heuristics of the same key use the same value.
type bounds struct{ lo, hi float64 }

// Reading ranges per checkpoint.
var (
	roomTemp        = bounds{20, 30}
	relHumidity     = bounds{0, 100}
	glassThickness  = bounds{1.5, 4}
	evaThickness    = bounds{0.3, 1.0}
	stringerTemp    = bounds{350, 450}
	reworkIronTemp  = bounds{200, 500}
	cellEff         = bounds{15, 30}
	cellSide        = bounds{100, 300}
	stringLength    = bounds{1100, 1200}
	cellGap         = bounds{0.5, 2.0}
	anodizingMicron = bounds{10, 100}
)

func (b bounds) has(s string) bool { return inRange(s, b.lo, b.hi) }

// group validates submatch g.
func (b bounds) group(g int) func([]string) bool { return groupInRange(g, b.lo, b.hi) }

// groups validates every listed submatch.
func (b bounds) groups(gs ...int) func([]string) bool { return groupsInRange(b.lo, b.hi, gs...) }

// splitDecimal validates the reading g1.g2.
func (b bounds) splitDecimal() func([]string) bool { return splitDecimalInRange(b.lo, b.hi) }

func inRange(s string, lo, hi float64) bool {
	f, err := strconv.ParseFloat(strings.TrimSpace(strings.Replace(s, ",", ".", 1)), 64)
	return err == nil && f >= lo && f <= hi
}

// suffix formats group 1 followed by unit.
func suffix(unit string) func([]string) string {
	return func(m []string) string { return m[1] + unit }
}

// decimalSuffix joins groups 1 and 2 with a dot, then appends unit.
// "24-50" printed as a split reading becomes "24.50".
func decimalSuffix(unit string) func([]string) string {
	return func(m []string) string { return m[1] + "." + m[2] + unit }
}

// triplet formats a L×W×T dimension in millimetres.
func triplet(m []string) string { return m[1] + "×" + m[2] + "×" + m[3] + " mm" }

// splitDecimalInRange validates the reading g1.g2 against [lo, hi].
func splitDecimalInRange(lo, hi float64) func([]string) bool {
	return func(m []string) bool {
		return len(m) > 2 && inRange(m[1]+"."+m[2], lo, hi)
	}
}
