package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// Page 3: auto busbar flatten, pre-lamination EL, string rework and module rework.

var page3Rules = Rules{
	{
		Key:      "numberOfHoles",
		Patterns: pats(`\b(\d)\s*Holes?\b`),
		Format:   suffix(" Holes"),
	},
	{
		Key: "stringReworkCleaning",
		Patterns: pats(
			`String Rework[\s\S]{0,150}?Cleaning[\s\S]{0,60}?\b(Clean\s*/?\s*W[euo]t|Clean|Wet)\b`,
		),
		Format: func(m []string) string { return canonicalClean(m[1]) },
	},
	{
		Key: "stringReworkSolderingTemp",
		Patterns: pats(
			`String Rework[\s\S]{0,300}?Soldering Iron Temp[\s\S]{0,80}?\b(\d{3})\s*` + degAny,
		),
		Validate: reworkIronTemp.group(1),
		Format:   suffix("°C"),
	},
	{
		Key: "stringReworkSolderingTime",
		Patterns: pats(
			`String Rework[\s\S]{0,300}?Soldering Iron Temp[\s\S]{0,120}?\b(\d{1,2})\s*(?:Sec|s)\b`,
		),
		Format: suffix(" Sec"),
	},
	{
		Key:      "moduleReworkMethod",
		Patterns: pats(`Method of Rework[\s\S]{0,100}?\b(Manual|Automatic|Auto)\b`),
		Format:   func(m []string) string { return strings.ToUpper(m[1][:1]) + strings.ToLower(m[1][1:]) },
	},
	{
		Key: "moduleReworkCleaning",
		Patterns: pats(
			`Module Rework[\s\S]{0,250}?Cleaning of (?:station|Rework station)[\s\S]{0,60}?\b(Clean)\b`,
		),
		Constant: "Clean",
	},
	{
		Key: "moduleReworkSolderingTemp",
		Patterns: pats(
			`Module Rework[\s\S]{0,300}?Soldering Iron Temp[\s\S]{0,80}?\b(\d{3})\s*` + degAny,
		),
		Validate: reworkIronTemp.group(1),
		Format:   suffix("°C"),
	},
	{
		Key: "moduleReworkSolderingTime",
		Patterns: pats(
			`Module Rework[\s\S]{0,300}?Soldering Iron Temp[\s\S]{0,120}?\b(\d{1,2})\s*(?:Sec|s)\b`,
		),
		Format: suffix(" Sec"),
	},
}

var page3Tables = []TableRule{
	{
		Anchor:    "Pre lamination EL",
		Until:     "String Rework",
		Keys:      SampleKeys("preLamELBarcode", 3),
		Shape:     shapeBarcode,
		Normalize: RepairBarcode,
		Validate:  validBarcode,
	},
}

var (
	reHoleCount   = regexp.MustCompile(`(?i)\b(\d)\s*Holes?\b`)
	reHoleDim     = regexp.MustCompile(`\b(\d{1,2})[.:](\d{2})\b`)
	reCleanStatus = regexp.MustCompile(`(?i)\b(Clean\s*/?\s*W[euo]t|Clean|Wet)\b`)
	reSeconds     = regexp.MustCompile(`(?i)\b(\d{1,2})\s*(?:Sec|s)\b`)
	reRework      = regexp.MustCompile(`(?i)\b(Manual|Automatic|Auto)\b`)
)

func page3Keywords(text string) FieldMap {
	out := make(FieldMap)

	flatten := section(text, "Busbar Flatten", "Pre lamination")
	if flatten == "" {
		flatten = section(text, "Holes", "Pre lamination")
	}
	if m := reHoleCount.FindStringSubmatch(flatten); m != nil {
		out.Set("numberOfHoles", m[1]+" Holes")
	}
	var dims []string
	for _, m := range reHoleDim.FindAllStringSubmatch(section(flatten, "Holes", "Visual"), -1) {
		dims = append(dims, m[1]+"."+m[2]+" mm")
	}
	zip(out, SampleKeys("holesDimension", 3), dims)
	fillOK(out, section(flatten, "Visual Inspection"), SampleKeys("flattenVisual", 5))

	setELLines(out, "preLamELBarcode", "preLamELResult", section(text, "Pre lamination", "String Rework"), 3)

	str := section(text, "String Rework", "Module Rework")
	if m := reCleanStatus.FindStringSubmatch(str); m != nil {
		out.Set("cleaningStatus", canonicalClean(m[1]))
	}
	for _, m := range reSolder3.FindAllStringSubmatch(str, -1) {
		if reworkIronTemp.has(m[1]) {
			out.Set("solderingIronTemp", m[1]+"°C")
			break
		}
	}
	if m := reSeconds.FindStringSubmatch(str); m != nil {
		out.Set("solderingIronTime", m[1]+" Sec")
	}

	mod := section(text, "Module Rework")
	if m := reRework.FindStringSubmatch(section(mod, "Method")); m != nil {
		out.Set("methodOfRework", strings.ToUpper(m[1][:1])+strings.ToLower(m[1][1:]))
	}
	if m := reCleanStatus.FindStringSubmatch(section(mod, "Cleaning")); m != nil {
		out.Set("reworkCleaningStatus", canonicalClean(m[1]))
	}
	for _, m := range reSolder3.FindAllStringSubmatch(mod, -1) {
		if reworkIronTemp.has(m[1]) {
			out.Set("reworkSolderingTemp", m[1]+"°C")
			break
		}
	}
	// The module rework time is the second duration on the page; the first belongs to string rework.
	secs := reSeconds.FindAllStringSubmatch(text, -1)
	if m := reSeconds.FindStringSubmatch(mod); m != nil {
		out.Set("reworkSolderingTime", m[1]+" Sec")
	} else if len(secs) > 1 {
		out.Set("reworkSolderingTime", secs[1][1]+" Sec")
	}
	return out
}

// canonicalClean folds the OCR spellings of the Clean/Wet status.
func canonicalClean(s string) string {
	s = strings.ToLower(strings.Join(strings.Fields(s), ""))
	switch {
	case strings.HasPrefix(s, "clean") && strings.Contains(s, "w"):
		return "Clean/Wet"
	case strings.HasPrefix(s, "clean"):
		return "Clean"
	default:
		return "Wet"
	}
}

type elLine struct {
	serial string
	result string
}

var reELResult = regexp.MustCompile(`(?i)\b(ok|ng|pass|fail|good)\b`)

// elLines reads "serial result" rows from an EL inspection section. A row
// without a printed result is kept with an empty result.
func elLines(s string, n int) []elLine {
	var out []elLine
	for _, line := range strings.Split(s, "\n") {
		bs := barcodes(line, 1)
		if len(bs) == 0 || !validBarcode(bs[0]) {
			continue
		}
		l := elLine{serial: bs[0]}
		if m := reELResult.FindStringSubmatch(line); m != nil {
			l.result = strings.ToUpper(m[1])
		}
		out = append(out, l)
		if len(out) == n {
			break
		}
	}
	return out
}

// setELLines stores up to n EL rows as serialGroupI / resultGroupI.
func setELLines(out FieldMap, serialGroup, resultGroup, s string, n int) {
	for i, l := range elLines(s, n) {
		out.Set(serialGroup+strconv.Itoa(i+1), l.serial)
		out.Set(resultGroup+strconv.Itoa(i+1), l.result)
	}
}
