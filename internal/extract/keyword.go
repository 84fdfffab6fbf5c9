package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// Helpers shared by the per-page keyword heuristics. They search loosely and
// never fail; absence is reported as "" or false.

// section returns the text from the first occurrence of start up to the first
// occurrence of any end marker after it. A missing start yields "".
func section(text, start string, ends ...string) string {
	i := indexFold(text, start)
	if i < 0 {
		return ""
	}
	rest := text[i:]
	skip := len(start)
	if skip > len(rest) {
		skip = len(rest)
	}
	cut := len(rest)
	for _, e := range ends {
		if j := indexFold(rest[skip:], e); j >= 0 && j+skip < cut {
			cut = j + skip
		}
	}
	return rest[:cut]
}

// indexFold is a case-insensitive strings.Index.
func indexFold(s, sub string) int {
	loc := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(sub)).FindStringIndex(s)
	if loc == nil {
		return -1
	}
	return loc[0]
}

var reOKToken = regexp.MustCompile(`(?i)\b(ok|good|pass)\b`)

// countOK counts acknowledgement tokens in s.
func countOK(s string) int { return len(reOKToken.FindAllString(s, -1)) }

// fillOK sets keys to "OK" when s carries at least len(keys) acknowledgement tokens.
func fillOK(out FieldMap, s string, keys []string) {
	if s == "" || countOK(s) < len(keys) {
		return
	}
	for _, k := range keys {
		out[k] = "OK"
	}
}

var (
	reBarcode     = regexp.MustCompile(`(?i)\b[G6][S5][O0]?\s*\d{4,5}\s*[T7]?\s*[A-Z\d]*\s*\d{0,6}`)
	reBarcodeHead = regexp.MustCompile(`(?i)^(?:G5|65|6S)`)
)

// RepairBarcode fixes the usual OCR confusions in module serials: whitespace
// inside the code, G5/6S read for GS, and the letter O read for the zero after GS.
func RepairBarcode(s string) string {
	s = strings.ToUpper(strings.Join(strings.Fields(s), ""))
	s = reBarcodeHead.ReplaceAllString(s, "GS")
	if strings.HasPrefix(s, "GSO") {
		s = "GS0" + s[3:]
	}
	return s
}

// barcodes returns up to n repaired serials in document order.
func barcodes(s string, n int) []string {
	var out []string
	for _, m := range reBarcode.FindAllString(s, -1) {
		b := RepairBarcode(m)
		if len(b) < 8 {
			continue
		}
		out = append(out, b)
		if len(out) == n {
			break
		}
	}
	return out
}

var reLabelPlaceholder = regexp.MustCompile(`^[:\s]*$`)

// isPlaceholder reports whether v only repeats a form label.
func isPlaceholder(v, label string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	switch v {
	case strings.ToLower(label), "enter result", "result", "value", "ref", "temp", "quality", "time":
		return true
	}
	return reLabelPlaceholder.MatchString(v)
}

// labelValue reads the value printed after label, on the same line or the next.
func labelValue(s, label string) string {
	q := regexp.QuoteMeta(label)
	for _, p := range []string{
		`(?i)\b` + q + `[:\s]*\n\s*([^\n]+)`,
		`(?i)\b` + q + `[:\s]+([^\n]+)`,
	} {
		m := regexp.MustCompile(p).FindStringSubmatch(s)
		if m != nil && !isPlaceholder(m[1], label) {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

// samples reads S1..Sn values from s. When no labelled value is found it falls
// back to the serials present in s, in order.
func samples(s string, n int) []string {
	out := make([]string, n)
	found := false
	for i := 0; i < n; i++ {
		if v := labelValue(s, "S"+strconv.Itoa(i+1)); v != "" {
			if bs := barcodes(v, 1); len(bs) == 1 {
				v = bs[0]
			}
			out[i] = v
			found = true
		}
	}
	if found {
		return out
	}
	for i, b := range barcodes(s, n) {
		out[i] = b
	}
	return out
}

// zip binds vals to keys positionally; extras are dropped.
func zip(out FieldMap, keys, vals []string) {
	for i, v := range vals {
		if i == len(keys) {
			return
		}
		out.Set(keys[i], v)
	}
}

// setSamples writes non-empty sample values under group1..groupN.
func setSamples(out FieldMap, group string, vals []string) {
	for i, v := range vals {
		out.Set(group+strconv.Itoa(i+1), v)
	}
}

var reGSPL = regexp.MustCompile(`(?i)GSPL/[A-Z/\d\-]+`)

// refValue returns the first GSPL document reference after label.
func refValue(text, label string) string {
	i := indexFold(text, label)
	if i < 0 {
		return ""
	}
	return strings.ToUpper(reGSPL.FindString(text[i:]))
}

var reDimTriplet = regexp.MustCompile(`(?i)\(?(\d{4})\s*[×xX*\s]\s*(\d{3,4})\s*[×xX*\s]\s*(\d+\.?\d*)\)?`)

// dimension finds the first L×W×T triplet whose thickness lies within thick.
func dimension(s string, thick bounds) string {
	for _, m := range reDimTriplet.FindAllStringSubmatch(s, -1) {
		if thick.has(m[3]) {
			return triplet(m)
		}
	}
	return ""
}

var reEVAType = regexp.MustCompile(`(?i)\b(E[PR]E?\s*\d{3})\b`)

// evaType returns the EVA/EPE material code, folding the ER misread to EP.
func evaType(s string) string {
	m := reEVAType.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	code := strings.ToUpper(strings.Join(strings.Fields(m[1]), ""))
	if strings.HasPrefix(code, "ER") {
		code = "EP" + code[2:]
	}
	return code
}

var reISODate = regexp.MustCompile(`(\d{4})[-/](\d{2})[-/](\d{2})`)

// isoDate returns the first YYYY-MM-DD or YYYY/MM/DD date in s.
func isoDate(s string) string {
	m := reISODate.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return m[1] + "-" + m[2] + "-" + m[3]
}

// first returns the first submatch group of re in s.
func first(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}
