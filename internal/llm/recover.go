package llm

import (
	"encoding/json"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/joseph-ayodele/ipqc-tracker/internal/extract"
)

var (
	reFence         = regexp.MustCompile("```[A-Za-z]*")
	reBraceGreedy   = regexp.MustCompile(`\{[\s\S]*\}`)
	reBraceInner    = regexp.MustCompile(`\{[^{}]*\}`)
	reTrailingObj   = regexp.MustCompile(`,\s*\}`)
	reTrailingArr   = regexp.MustCompile(`,\s*\]`)
	reBareKey       = regexp.MustCompile(`([{,]\s*)"?(\w+)"?\s*:`)
	reBareValue     = regexp.MustCompile(`:\s*([^",\[\]{}\s][^,\[\]{}]*?)\s*([,}])`)
	reKeyValueEntry = regexp.MustCompile(`"?(\w+)"?\s*[:=]\s*"?([^",\n\r}]+)"?`)
)

// Recover pulls a FieldMap out of raw model output. It tries, in order:
//  1. the text with code fences and backticks removed, parsed as JSON
//  2. brace-delimited substrings, longest first, after syntax repairs
//  3. a line scan for key: value pairs
//
// Each parsed candidate must be a flat object of scalars. When nothing can be
// recovered the result is an empty map.
func Recover(raw string, logger *slog.Logger) extract.FieldMap {
	if logger == nil {
		logger = slog.Default()
	}
	text := strings.TrimSpace(strings.ReplaceAll(reFence.ReplaceAllString(raw, ""), "`", ""))
	if text == "" {
		return extract.FieldMap{}
	}

	if m, ok := decodeObject(text); ok {
		logger.Debug("llm.recover.ok", "stage", "direct", "fields", len(m))
		return NormalizeFields(m, logger)
	}

	for _, cand := range braceCandidates(text) {
		if m, ok := decodeObject(repairJSON(cand)); ok {
			logger.Debug("llm.recover.ok", "stage", "repaired", "fields", len(m))
			return NormalizeFields(m, logger)
		}
	}

	out := scanKeyValues(text)
	logger.Debug("llm.recover.ok", "stage", "scan", "fields", len(out))
	return out
}

// decodeObject parses s and accepts it only when it is a flat scalar object.
func decodeObject(s string) (map[string]any, bool) {
	if err := ValidateJSONAgainstSchema(FieldMapSchema(), []byte(s)); err != nil {
		return nil, false
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, false
	}
	return m, true
}

// braceCandidates lists the distinct brace-delimited substrings of s, longest first.
func braceCandidates(s string) []string {
	seen := map[string]bool{}
	var out []string
	add := func(c string) {
		if c != "" && !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	add(reBraceGreedy.FindString(s))
	for _, c := range reBraceInner.FindAllString(s, -1) {
		add(c)
	}
	sort.SliceStable(out, func(i, j int) bool { return len(out[i]) > len(out[j]) })
	return out
}

// repairJSON fixes the usual model slips: trailing commas, single quotes,
// unquoted keys and unquoted values.
func repairJSON(s string) string {
	s = reTrailingObj.ReplaceAllString(s, "}")
	s = reTrailingArr.ReplaceAllString(s, "]")
	s = strings.ReplaceAll(s, "'", `"`)
	s = reBareKey.ReplaceAllString(s, `${1}"${2}":`)
	s = reBareValue.ReplaceAllString(s, `: "${1}"${2}`)
	return s
}

func scanKeyValues(s string) extract.FieldMap {
	out := make(extract.FieldMap)
	for _, m := range reKeyValueEntry.FindAllStringSubmatch(s, -1) {
		v := strings.TrimSpace(m[2])
		if isNullToken(v) {
			continue
		}
		if _, dup := out[m[1]]; dup {
			continue
		}
		out.Set(m[1], v)
	}
	return out
}
