package extract

import (
	"regexp"
	"strings"
)

// Page 2: peel strength carried over from the stringer, auto bussing, auto RFID,
// second EVA/EPE cutting and the back glass loader.

var page2Rules = Rules{
	{
		Key: "ribbonToCellPeelStrength",
		Patterns: pats(
			`Ribbon to cell[\s\S]{0,100}?\b(\d+(?:\.\d+)?)\s*N\b`,
		),
		Format: suffix(" N"),
	},
	{
		Key: "stringToStringGap",
		Patterns: pats(
			`String to String Gap[\s\S]{0,100}?\b(\d\.\d{1,2})\s*mm`,
			`\b(\d\.\d)\s*mm`,
		),
		Format: suffix(" mm"),
	},
	{
		Key: "cellEdgeTop",
		Patterns: pats(
			`Cell edge to Glass edge[\s\S]{0,200}?TOP[\s\S]{0,50}?\b(\d{2})[.\-](\d{2})`,
		),
		Format: decimalSuffix(" mm"),
	},
	{
		Key: "busbarPeelStrength",
		Patterns: pats(
			`Ribbon to busbar[\s\S]{0,100}?\b(\d+(?:\.\d+)?)\s*N\b`,
		),
		Format: suffix(" N"),
	},
	{
		Key: "terminalBusbar",
		Patterns: pats(
			`Terminal busbar to edge[\s\S]{0,100}?\b(\d\.\d{2})\s*mm`,
			`\b(\d\.\d{2})\s*mm`,
		),
		Format: suffix(" mm"),
	},
	{
		Key: "solderingQuality",
		Patterns: pats(
			`Soldering Quality of Ribbon[\s\S]{0,100}?\bok\b`,
			`No Dry/Poor Soldering[\s\S]{0,50}?\bok\b`,
		),
		Constant: "OK",
	},
	{
		Key: "creepageTop1",
		Patterns: pats(
			`Top\s*&\s*Bottom Creepage[\s\S]{0,200}?T\s*=\s*(\d{2})[.:](\d{2})`,
		),
		Format: decimalSuffix(""),
	},
	{
		Key: "processVerificationAuto",
		Patterns: pats(
			`Verification of Process[\s\S]{0,100}?\bOK\b`,
			`Specification for Auto Bussing[\s\S]{0,50}?\bOK\b`,
		),
		Constant: "OK",
	},
	{
		Key: "autoTaping",
		Patterns: pats(
			`Quality of auto taping[\s\S]{0,100}?\bOk\b`,
			`Taping should be proper[\s\S]{0,50}?\bOk\b`,
		),
		Constant: "OK",
	},
	{
		Key: "eva2Type",
		Patterns: pats(
			`EVA/EPE Type[\s\S]{0,100}?\bE[PR]E?\s*(\d{3,4})\b`,
			`\bEP(\d{3,4})\b`,
		),
		Format: func(m []string) string { return "EP" + m[1] },
	},
	{
		Key: "eva2Dimension",
		Patterns: pats(
			`EVA/EPE[\s\S]{0,50}?dimension[\s\S]{0,150}?(\d{3,4})` + dimSep + `(\d{3,4})` + dimSep + `(\d\.?\d*)`,
		),
		Validate: evaThickness.group(3),
		Format:   triplet,
	},
	{
		Key: "backGlassDimension",
		Patterns: pats(
			`Back Glass[\s\S]{0,200}?(\d{4})`+dimSep+`(\d{4})`+dimSep+`(\d\.?\d*)\s*mm`,
			`(\d{4})`+dimSep+`(\d{4})`+dimSep+`(\d\.?\d*)\s*mm`,
		),
		Validate: glassThickness.group(3),
		Format:   triplet,
	},
}

var page2Tables = []TableRule{
	{
		Anchor:    "Position verification",
		Until:     "EVA",
		Keys:      SampleKeys("positionVerification", 3),
		Shape:     shapeOK,
		Normalize: okToken,
		Window:    300,
	},
}

var (
	reEdgeTop    = regexp.MustCompile(`(?i)\bTO?P\s*[-:=]?\s*(\d{1,2}\.\d+)\s*mm`)
	reEdgeBottom = regexp.MustCompile(`(?i)\bBottom\s*[-:=]?\s*(\d{1,2}\.\d+)\s*mm`)
	reEdgeSides  = regexp.MustCompile(`(?i)\bSides?\s*[-:=]?\s*(\d{1,2}\.\d+)\s*mm`)
	reGapMM      = regexp.MustCompile(`(?i)\b(\d+\.?\d*)\s*mm`)
	reTwoDec     = regexp.MustCompile(`\b(\d{1,2}\.\d+)`)
)

func page2Keywords(text string) FieldMap {
	out := make(FieldMap)

	if peel := section(text, "Ribbon to cell", "String to String"); peel != "" {
		if m := rePeelN.FindStringSubmatch(peel); m != nil {
			out.Set("ribbonToCellPeelStrength", m[1]+" N")
		}
	}
	if gap := section(text, "String to String Gap", "Cell edge"); gap != "" {
		if m := reGapMM.FindStringSubmatch(gap); m != nil {
			out.Set("stringToStringGap", m[1]+" mm")
		}
	}

	edge := section(text, "Cell edge", "Peel Strength", "Terminal")
	if edge == "" {
		edge = text
	}
	if m := reEdgeTop.FindStringSubmatch(edge); m != nil {
		out.Set("cellEdgeTop", m[1]+" mm")
	}
	if m := reEdgeBottom.FindStringSubmatch(edge); m != nil {
		out.Set("cellEdgeBottom", m[1]+" mm")
	}
	if m := reEdgeSides.FindStringSubmatch(edge); m != nil {
		out.Set("cellEdgeSides", m[1]+" mm")
	}

	if busbar := section(text, "Ribbon to busbar", "Terminal"); busbar != "" {
		if m := rePeelN.FindStringSubmatch(busbar); m != nil {
			out.Set("busbarPeelStrength", m[1]+" N")
		}
	}
	if term := section(text, "Terminal busbar", "Soldering Quality"); term != "" {
		if m := reGapMM.FindStringSubmatch(term); m != nil && strings.Contains(m[1], ".") {
			out.Set("terminalBusbar", m[1]+" mm")
		}
	}

	fillOK(out, section(text, "Soldering Quality", "Creepage"), SampleKeys("solderingQuality", 3))

	if creep := section(text, "Creepage", "Verification of Process", "Specification"); creep != "" {
		vals := reTwoDec.FindAllString(creep, -1)
		if len(vals) >= 6 {
			zip(out, SampleKeys("creepageTop", 3), vals[:3])
			zip(out, SampleKeys("creepageBottom", 3), vals[3:6])
		}
	}

	if reOKToken.MatchString(section(text, "Specification for Auto Bussing", "taping")) {
		out.Set("processVerificationAuto", "OK")
	}
	fillOK(out, section(text, "auto taping", "RFID", "Position"), SampleKeys("autoTaping", 3))
	fillOK(out, section(text, "Position verification", "EVA"), SampleKeys("positionVerification", 3))

	eva := section(text, "EVA", "Back Glass")
	out.Set("eva2Type", evaType(eva))
	out.Set("eva2Dimension", dimension(eva, evaThickness))
	if reOKToken.MatchString(section(eva, "Status")) {
		out.Set("eva2StatusOk", "OK")
	}

	out.Set("backGlassDimension", dimension(section(text, "Back Glass"), glassThickness))
	return out
}
