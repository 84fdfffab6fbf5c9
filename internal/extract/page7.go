package extract

import (
	"regexp"
	"strings"
)

// Page 7: RFID, final visual, backlabel, dimension check and packaging.

var page7Rules = Rules{
	{
		Key:      "rfidPosition",
		Patterns: pats(`\b(Left|Loft|Right|Center|Centre)\s*(?:Corner|Side)`),
		Format:   func(m []string) string { return rfidSide(m[1]) },
	},
	{
		Key:      "cellMakeDate",
		Patterns: pats(`\b(` + monthNames + `)[a-z]*[\s'\-,]*(\d{2,4})\b`),
		Format:   monthYear,
	},
	{
		Key:      "moduleDimensionLW",
		Patterns: pats(`\b(\d{4})` + dimSep + `(\d{4})` + dimSep + `(\d{2,3})\b`),
		Format:   triplet,
	},
	{
		Key:      "mountingHole",
		Patterns: pats(`Mounting Hole[\s\S]{0,120}?\b(\d{2,4}(?:\.\d+)?)\s*mm`),
		Format:   suffix(" mm"),
	},
	{
		Key:      "diagonalDiff",
		Patterns: pats(`Diagonal[\s\S]{0,100}?\b(\d(?:\.\d+)?)\s*mm`),
		Format:   suffix(" mm"),
	},
	{
		Key:      "cornerGap",
		Patterns: pats(`Corner Gap[\s\S]{0,100}?\b(\d\.\d+)`),
		Format:   suffix(" mm"),
	},
	{
		Key:      "jbCableLength",
		Patterns: pats(`(?:JB )?Cable length[\s\S]{0,100}?\b(\d{3,4})\s*mm`),
		Format:   suffix(" mm"),
	},
	{
		Key:      "packagingLabel",
		Patterns: pats(`Packaging Label[\s\S]{0,100}?\b(ok|good)\b`),
		Constant: "OK",
	},
	{
		Key:      "contentInBox",
		Patterns: pats(`Content in Box[\s\S]{0,100}?\b(ok|good)\b`),
		Constant: "OK",
	},
	{
		Key:      "boxCondition",
		Patterns: pats(`Box Condition[\s\S]{0,100}?\b(ok|good)\b`),
		Constant: "OK",
	},
	{
		Key:      "palletDimension",
		Patterns: pats(`Pallet dimension[\s\S]{0,120}?\b([\dQO]{4})` + dimSep + `([\dQO]{4})` + dimSep + `([\dQO]{2,4})\b`),
		Format: func(m []string) string {
			return fixDigits(m[1]) + "×" + fixDigits(m[2]) + "×" + fixDigits(m[3]) + " mm"
		},
	},
}

var page7Tables = []TableRule{
	{
		Anchor:    "Final Visual",
		Until:     "Backlabel",
		Keys:      SampleKeys("finalVisualSNo", 5),
		Shape:     shapeBarcode,
		Normalize: RepairBarcode,
		Validate:  validBarcode,
	},
	{
		Anchor:    "Backlabel",
		Until:     "Dimension",
		Keys:      SampleKeys("backlabelSNo", 5),
		Shape:     shapeBarcode,
		Normalize: RepairBarcode,
		Validate:  validBarcode,
	},
}

const monthNames = `Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec`

var (
	reRFIDSide  = regexp.MustCompile(`(?i)\b(Left|Loft|Right|Center|Centre)\b`)
	reMonthYear = regexp.MustCompile(`(?i)\b(` + monthNames + `)[a-z]*[\s'\-,]*(\d{2,4})\b`)
	reMake      = regexp.MustCompile(`(?i)Make[\s:]*([A-Za-z][A-Za-z ]{2,30})`)
	reModuleDim = regexp.MustCompile(`\b(\d{4})` + dimSep + `(\d{4})` + dimSep + `(\d{2,3})\b`)
	reMM        = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*mm`)
)

func page7Keywords(text string) FieldMap {
	out := make(FieldMap)

	rfid := section(text, "RFID", "Final Visual")
	if m := reRFIDSide.FindStringSubmatch(rfid); m != nil {
		out.Set("rfidPosition", rfidSide(m[1]))
	}
	if m := reMake.FindStringSubmatch(rfid); m != nil {
		out.Set("cellModuleMake", strings.TrimSpace(m[1]))
	}
	if m := reMonthYear.FindStringSubmatch(rfid); m != nil {
		out.Set("cellMakeDate", monthYear(m))
	}

	setSampleRows(out, "finalVisualSNo", "finalVisualResult", section(text, "Final Visual", "Backlabel"), 5)
	setSampleRows(out, "backlabelSNo", "backlabelResult", section(text, "Backlabel", "Dimension"), 5)

	dim := section(text, "Dimension", "Packaging")
	if m := reModuleDim.FindStringSubmatch(dim); m != nil {
		out.Set("moduleDimensionLW", triplet(m))
	}
	if m := reMM.FindStringSubmatch(section(dim, "Mounting")); m != nil {
		out.Set("mountingHole", m[1]+" mm")
	}
	if m := reMM.FindStringSubmatch(section(dim, "Diagonal")); m != nil {
		out.Set("diagonalDiff", m[1]+" mm")
	}
	if m := reMM.FindStringSubmatch(section(dim, "Corner")); m != nil {
		out.Set("cornerGap", m[1]+" mm")
	}
	if m := reMM.FindStringSubmatch(section(dim, "Cable")); m != nil {
		out.Set("jbCableLength", m[1]+" mm")
	}

	pack := section(text, "Packaging")
	if reOKToken.MatchString(section(pack, "Label", "Content")) {
		out.Set("packagingLabel", "OK")
	}
	if reOKToken.MatchString(section(pack, "Content", "Box Condition")) {
		out.Set("contentInBox", "OK")
	}
	if reOKToken.MatchString(section(pack, "Box Condition", "Pallet")) {
		out.Set("boxCondition", "OK")
	}
	if m := reDimTriplet.FindStringSubmatch(section(pack, "Pallet")); m != nil {
		out.Set("palletDimension", triplet(m))
	}
	return out
}

// rfidSide canonicalises the RFID tag side, folding the common Loft misread.
func rfidSide(s string) string {
	switch strings.ToLower(s) {
	case "left", "loft":
		return "Left Side"
	case "right":
		return "Right Side"
	default:
		return "Center"
	}
}

// monthYear renders a month-year cell as "Mon YYYY".
func monthYear(m []string) string {
	mon := strings.ToUpper(m[1][:1]) + strings.ToLower(m[1][1:3])
	year := m[2]
	if len(year) == 2 {
		year = "20" + year
	}
	return mon + " " + year
}
