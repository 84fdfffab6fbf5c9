package extract

import (
	"regexp"
	"strings"
)

// Page 1: shop floor, glass loader, EVA/EPE cutting, edge soldering, cell loading, tabber & stringer.

// degAny matches a temperature unit that OCR may have reduced to a bare degree sign or letter.
const degAny = `(?:℃|[°º]\s*C?|C\b)`

const dimSep = `\s*[×xX*]\s*`

var page1Rules = Rules{
	{
		Key: "temperature",
		Patterns: pats(
			`(?:Monitoring Result|Result)[\s\S]{0,50}?\b(\d{2})\s*`+degC,
			`Temperature[\s\S]{0,100}?\b(\d{2})\s*`+degC,
		),
		Validate: roomTemp.group(1),
		Format:   suffix("°C"),
	},
	{
		Key: "humidity",
		Patterns: pats(
			`Humidity[\s\S]{0,100}?\b(\d{2})\s*%`,
			`\bRH\b.*?\b(\d{2})\s*%`,
		),
		Validate: relHumidity.group(1),
		Format:   suffix("%"),
	},
	{
		Key: "frontGlassDimension",
		Patterns: pats(
			`Glass dimension[\s\S]{0,200}?(\d{4})`+dimSep+`(\d{3,4})`+dimSep+`(\d\.?\d*)\s*mm`,
			`(\d{4})`+dimSep+`(\d{3,4})`+dimSep+`(\d\.?\d*)\s*mm`,
		),
		Validate: glassThickness.group(3),
		Format:   triplet,
	},
	{
		Key: "appearance",
		Patterns: pats(
			`Appearance[\s\S]{0,100}?\b(?:ok|pass|good|clean)\b`,
			`Glass Loader[\s\S]{0,150}?Visual[\s\S]{0,60}?\b(?:ok|pass|good)\b`,
		),
		Constant: "OK",
	},
	{
		Key: "eva1Type",
		Patterns: pats(
			`EVA/EPE Type[\s\S]{0,100}?\bE[PR]E?\s*(\d{3,4})\b`,
			`Type[\s:]+EP(\d{3,4})\b`,
			`\bEP(\d{3,4})\b`,
		),
		Format: func(m []string) string { return "EP" + m[1] },
	},
	{
		Key: "eva1Dimension",
		Patterns: pats(
			`EVA/EPE[\s\S]{0,50}?dimension[\s\S]{0,150}?(\d{3,4})` + dimSep + `(\d{3,4})` + dimSep + `(\d\.?\d*)`,
		),
		Validate: evaThickness.group(3),
		Format:   triplet,
	},
	{
		Key: "evaManufacturingDate",
		Patterns: pats(
			`EVA/EPE Status[\s\S]{0,100}?(\d{4}[/-]\d{2}[/-]\d{2})`,
			`Mfg\.?\s*Date[\s:]+(\d{4}[/-]\d{2}[/-]\d{2})`,
		),
		Format: func(m []string) string { return strings.ReplaceAll(m[1], "/", "-") },
	},
	{
		Key: "solderingTemperature",
		Patterns: pats(
			`Soldering Temp[a-z]*[\s\S]{0,100}?\b(\d{3})\s*`+degAny,
			`(?:soldering|solder)[\s\w]*temp[\s:]*(\d{3})\s*`+degAny,
			`\b(\d{3})\s*`+degC,
		),
		Validate: stringerTemp.group(1),
		Format:   suffix("°C"),
	},
	{
		Key: "cellEfficiency",
		Patterns: pats(
			`Cell Manufacturer\s*&\s*Eff\.?[\s\S]{0,100}?\b(\d{2}\.\d{1,2})\s*%`,
			`\bEff[\s\S]{0,40}?\b(\d{2}\.\d{1,2})\s*%`,
			`\b(\d{2}\.\d{2})\s*%`,
		),
		Validate: cellEff.group(1),
		Format:   suffix("%"),
	},
	{
		Key: "cellSize",
		Patterns: pats(
			`Cell Size[\s\S]{0,50}?(\d{2,3}\.\d{1,2})`+dimSep+`(\d{2,3}\.\d{1,2})`,
			`(\d{2,3}\.\d{2})`+dimSep+`(\d{2,3}\.\d{2})`,
		),
		Validate: cellSide.groups(1, 2),
		Format:   func(m []string) string { return m[1] + "×" + m[2] },
	},
	{
		Key: "cellCondition",
		Patterns: pats(
			`Cell Condition[\s\S]{0,100}?Free From`,
			`condition[\s:]*(?:ok|good|clean|pass)\b`,
		),
		Constant: "OK",
	},
	{
		Key: "cleanliness",
		Patterns: pats(
			`Cleanliness of Cell Loading Area[\s\S]{0,100}?\bClean`,
			`Cleanliness[\s\S]{0,60}?\b(?:Clean|ok|good)\b`,
		),
		Constant: "Clean",
	},
	{
		Key: "crossCutting",
		Patterns: pats(
			`Cell Cross cutting[\s\S]{0,100}?\bequal`,
			`cutting[\s:]*(?:equal|ok|good)\b`,
		),
		Constant: "Equal",
	},
}

var page1Tables = []TableRule{
	{
		Anchor: "Visual Check after",
		Keys:   GridKeys("visualCheck"),
		Status: "OK",
	},
	{
		Anchor: "EL Image of Strings",
		Keys:   GridKeys("elImage"),
		Status: "OK",
	},
	{
		Anchor:    "String length",
		Until:     "Cell to Cell",
		Keys:      GridKeys("stringLength"),
		Shape:     regexp.MustCompile(`\b(\d{4}|\d\s\d{3})\b`),
		Normalize: func(s string) string { return strings.Join(strings.Fields(s), "") },
		Validate:  stringLength.has,
		Window:    500,
	},
	{
		Anchor:   "Cell to Cell Gap",
		Until:    "Peel Strength",
		Keys:     GridKeys("cellGap"),
		Shape:    regexp.MustCompile(`\b(\d\.\d{1,2})\b`),
		Validate: cellGap.has,
		Window:   500,
	},
}

var (
	reManufacturer = regexp.MustCompile(`(?i)\b(Solar\s*Space|Astronergy|Jinko|Longi|Trina|JA\s*Solar|Aiko)\b`)
	reTempC        = regexp.MustCompile(`(?i)\b(\d{1,2}(?:\.\d)?)\s*` + degC)
	reHumidity     = regexp.MustCompile(`\b(\d{2,3})\s*%`)
	reATWTemp      = regexp.MustCompile(`(?i)\b(\d{2,3})\s*` + degAny)
	reEff          = regexp.MustCompile(`\b(\d{2}\.\d+)\s*%`)
	reCellSize     = regexp.MustCompile(`(\d{2,3}\.\d+)` + dimSep + `(\d{2,3}\.\d+)`)
	rePeelN        = regexp.MustCompile(`\b(\d+(?:\.\d+)?)\s*N\b`)
	reSolder3      = regexp.MustCompile(`(?i)\b(\d{3})\s*` + degAny)

	reCellCondition = regexp.MustCompile(`(?i)Cell\s*Condition[\s\S]*?\b(ok|good|pass|free from)`)
	reCleanliness   = regexp.MustCompile(`(?i)Cleanliness[\s\S]*?\bclean\b`)
	reEqual         = regexp.MustCompile(`(?i)\bequal\b`)
)

func page1Keywords(text string) FieldMap {
	out := make(FieldMap)

	if m := reTempC.FindStringSubmatch(text); m != nil && roomTemp.has(m[1]) {
		out.Set("temperature", m[1]+"°C")
	}
	for _, m := range reHumidity.FindAllStringSubmatch(text, -1) {
		if inRange(m[1], 20, 100) {
			out.Set("humidity", m[1]+"%")
			break
		}
	}

	glass := section(text, "Glass", "EVA")
	out.Set("frontGlassDimension", dimension(glass, glassThickness))
	if reOKToken.MatchString(section(glass, "Appearance")) {
		out.Set("appearance", "OK")
	}

	eva := section(text, "EVA", "Soldering", "Cell Loading")
	out.Set("eva1Type", evaType(eva))
	out.Set("eva1Dimension", dimension(text, evaThickness))
	if reOKToken.MatchString(eva) {
		out.Set("evaStatusOk", "OK")
	}
	out.Set("evaManufacturingDate", isoDate(eva))

	solder := section(text, "Soldering", "Cell Loading")
	for _, m := range reSolder3.FindAllStringSubmatch(solder, -1) {
		if stringerTemp.has(m[1]) {
			out.Set("evaSolderingTemp", m[1]+"°C")
			break
		}
	}
	if out.Has("evaSolderingTemp") && reOKToken.MatchString(solder) {
		out.Set("evaSolderingQuality", "OK")
	}

	cell := section(text, "Cell Loading", "Tabber")
	if cell == "" {
		cell = text
	}
	out.Set("cellManufacturer", first(reManufacturer, cell))
	if m := reEff.FindStringSubmatch(cell); m != nil && cellEff.has(m[1]) {
		out.Set("cellEfficiency", m[1]+"%")
	}
	if m := reCellSize.FindStringSubmatch(cell); m != nil && cellSide.has(m[1]) && cellSide.has(m[2]) {
		out.Set("cellSize", m[1]+"×"+m[2])
	}
	if reCellCondition.MatchString(cell) {
		out.Set("cellCondition", "OK")
	}
	if reCleanliness.MatchString(cell) {
		out.Set("cleanliness", "Clean")
	}
	if reEqual.MatchString(cell) {
		out.Set("crossCutting", "Equal")
	}

	// The ATW stringer temperature is printed twice: under cell loading and under tabber & stringer.
	atw := section(text, "ATW")
	atwTemps := reATWTemp.FindAllStringSubmatch(atw, 2)
	if len(atwTemps) > 0 {
		out.Set("atwTemp", atwTemps[0][1]+"°C")
	}
	if len(atwTemps) > 1 {
		out.Set("tabberAtwTemp", atwTemps[1][1]+"°C")
	}

	tabber := section(text, "Tabber", "Auto bussing")
	if tabber == "" {
		tabber = text
	}
	if indexFold(tabber, "Visual Check") >= 0 {
		for _, k := range GridKeys("visualCheck") {
			out[k] = "OK"
		}
	}
	if indexFold(tabber, "EL Image") >= 0 {
		for _, k := range GridKeys("elImage") {
			out[k] = "OK"
		}
	}
	if peel := section(text, "Peel Strength"); peel != "" {
		if m := rePeelN.FindStringSubmatch(peel); m != nil {
			out.Set("tabberPeelStrength", m[1]+" N")
		}
	}
	return out
}
