package extract

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/joseph-ayodele/ipqc-tracker/internal/entity"
)

// pageRules bundles the regex rules, table rules and keyword heuristics of one printed page.
type pageRules struct {
	rules   Rules
	tables  []TableRule
	keyword func(text string) FieldMap
}

var pages = map[int]pageRules{
	1: {rules: page1Rules, tables: page1Tables, keyword: page1Keywords},
	2: {rules: page2Rules, tables: page2Tables, keyword: page2Keywords},
	3: {rules: page3Rules, tables: page3Tables, keyword: page3Keywords},
	4: {rules: page4Rules, tables: page4Tables, keyword: page4Keywords},
	5: {rules: page5Rules, tables: page5Tables, keyword: page5Keywords},
	6: {rules: page6Rules, tables: page6Tables, keyword: page6Keywords},
	7: {rules: page7Rules, tables: page7Tables, keyword: page7Keywords},
}

// Extractor runs the deterministic extraction strategies for a page.
type Extractor struct {
	tables *TableExtractor
	logger *slog.Logger
}

// NewExtractor builds an extractor whose table sections span window characters.
func NewExtractor(window int, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{tables: NewTableExtractor(window), logger: logger}
}

// Regex runs the hand-tuned pattern rules and table rules for page.
// Unknown pages yield an empty map.
func (e *Extractor) Regex(page int, text string) FieldMap {
	p, ok := pages[page]
	if !ok {
		return FieldMap{}
	}
	out := p.rules.Apply(text)
	out.Absorb(e.tables.ExtractAll(text, p.tables))
	e.logger.Debug("extract.regex.done", "page", page, "fields", len(out))
	return out
}

// Keyword runs the loose keyword heuristics for page.
func (e *Extractor) Keyword(page int, text string) FieldMap {
	p, ok := pages[page]
	if !ok || p.keyword == nil {
		return FieldMap{}
	}
	out := make(FieldMap)
	out.Absorb(p.keyword(text))
	// Keys of a shaped table come from its rule whenever the anchor is printed.
	for _, r := range p.tables {
		if r.Shape == nil {
			continue
		}
		if _, found := e.tables.Section(text, r); !found {
			continue
		}
		for _, k := range r.Keys {
			delete(out, k)
		}
		out.Absorb(e.tables.Extract(text, r))
	}
	e.logger.Debug("extract.keyword.done", "page", page, "fields", len(out))
	return out
}

// Header parses the page header.
func (e *Extractor) Header(text string) entity.Header {
	return ParseHeader(text)
}

// Pages lists the page numbers that have extraction rules.
func Pages() []int { return []int{1, 2, 3, 4, 5, 6, 7} }

// Shared value shapes for table cells.
var (
	shapeBarcode = regexp.MustCompile(`(?i)\b([G6][S5][0-9A-Z]{15,18})\b`)
	shapeOK      = regexp.MustCompile(`(?i)\b(ok|good|pass)\b`)
)

// validBarcode accepts repaired module serials of plausible length.
func validBarcode(s string) bool {
	return strings.HasPrefix(s, "GS") && len(s) >= 17 && len(s) <= 20
}

// okToken canonicalises an acknowledgement cell.
func okToken(string) string { return "OK" }
