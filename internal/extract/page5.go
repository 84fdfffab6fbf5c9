package extract

import (
	"regexp"
	"strings"
)

// Page 5: framing, junction box fixing and soldering, OLE potting and curing.

var page5Rules = Rules{
	{
		Key:      "glueUniformity",
		Patterns: pats(`Glue uniformity`),
		Constant: "OK",
	},
	{
		Key:      "shortSideGlueRef",
		Patterns: pats(`Short Side Glue[\s\S]{0,150}?(GSPL/[A-Z/\d\-]+)`),
		Format:   upperGroup,
	},
	{
		Key:      "longSideGlueRef",
		Patterns: pats(`Long Side Glue[\s\S]{0,150}?(GSPL/[A-Z/\d\-]+)`),
		Format:   upperGroup,
	},
	{
		Key:      "anodizingThickness",
		Patterns: pats(`\b(\d{2}\.\d{1,2})\s*Micron`),
		Validate: anodizingMicron.group(1),
		Format:   suffix(" Micron"),
	},
	{
		Key: "jbCheck",
		Patterns: pats(
			`Junction Box Check[\s\S]{0,100}?\bok\b`,
			`JB (?:Appearance|Check)[\s\S]{0,60}?\bok\b`,
		),
		Constant: "OK",
	},
	{
		Key:      "jbCableLength",
		Patterns: pats(`Cable length[\s\S]{0,80}?\b(\d{3})\s*mm`, `\b(\d{3})\s*mm`),
		Format:   suffix(" mm"),
	},
	{
		Key:      "siliconGlueWeight",
		Patterns: pats(`Silicon Glue Weight[\s\S]{0,100}?\b(\d{2}\.\d{1,3})`, `\b(\d{2}\.\d{1,3})\s*gm`),
		Format:   suffix(" gm"),
	},
	{
		Key:      "maxWeldingTime",
		Patterns: pats(`\b(\d\.\d)\s*Sec`),
		Format:   suffix(" Sec"),
	},
	{
		Key:      "solderingCurrent",
		Patterns: pats(`\b(\d{2})\s*A(?:mps?)?\b`),
		Format:   suffix(" A"),
	},
	{
		Key: "jbSolderingQuality",
		Patterns: pats(
			`Soldering Quality[\s\S]{0,100}?\bok\b`,
		),
		Constant: "OK",
	},
	{
		Key:      "glueRatioRef",
		Patterns: pats(`A/B Glue Ratio[\s\S]{0,150}?(GSPL/[A-Z/\d\-]+)`),
		Format:   upperGroup,
	},
	{
		Key:      "pottingWeight",
		Patterns: pats(`Potting (?:material )?weight[\s\S]{0,100}?\b(\d{1,2}(?:\.\d{1,3})?)\s*(?:gm|g)\b`),
		Format:   suffix(" gm"),
	},
	{
		Key:      "curingTemperature",
		Patterns: pats(`Curing[\s\S]{0,200}?Temperature[\s\S]{0,100}?\b(\d{2})[-.](\d{2})\s*` + degC),
		Validate: roomTemp.splitDecimal(),
		Format:   decimalSuffix("°C"),
	},
	{
		Key:      "curingHumidity",
		Patterns: pats(`Curing[\s\S]{0,200}?Humidity[\s\S]{0,100}?\b(\d{2})\s*%`),
		Format:   suffix("%"),
	},
	{
		Key:      "curingTime",
		Patterns: pats(`Curing Time[\s\S]{0,100}?\b(\d{1,2})\s*hrs`, `\b(\d{1,2})\s*hours`),
		Format:   suffix(" hrs"),
	},
}

var page5Tables = []TableRule{
	{
		Anchor:    "OLE Potting Inspection",
		Until:     "Curing",
		Keys:      SampleKeys("oleVisualCheck", 3),
		Shape:     shapeOK,
		Normalize: okToken,
		Window:    300,
	},
}

var (
	reMicron   = regexp.MustCompile(`(?i)\b(\d{1,3}(?:\.\d{1,2})?)\s*Micron`)
	reCableMM  = regexp.MustCompile(`(?i)\b(\d{3,4})\s*mm`)
	reGramWt   = regexp.MustCompile(`(?i)\b(\d{1,3}(?:\.\d{1,3})?)\s*(?:gm|g|grams?)\b`)
	reSecDec   = regexp.MustCompile(`(?i)\b(\d{1,2}(?:\.\d)?)\s*Sec`)
	reAmps     = regexp.MustCompile(`(?i)\b(\d{1,2}(?:\.\d)?)\s*A(?:mps?)?\b`)
	reClock    = regexp.MustCompile(`\b([0-9QO]{1,2})[:.]([0-9QO]{2})\b`)
	reHours    = regexp.MustCompile(`(?i)\b(\d{1,2})\s*(?:hrs?|hours?)\b`)
	reTempDeg  = regexp.MustCompile(`(?i)\b(\d{2}(?:\.\d{1,2})?)\s*` + degC)
	reHumidPct = regexp.MustCompile(`\b(\d{2})\s*%`)
)

func page5Keywords(text string) FieldMap {
	out := make(FieldMap)

	framing := section(text, "Framing", "Junction Box")
	if framing == "" {
		framing = text
	}
	if indexFold(framing, "uniform") >= 0 && reOKToken.MatchString(framing) {
		out.Set("glueUniformity", "OK")
	}
	out.Set("shortSideGlueRef", refValue(framing, "Short Side"))
	out.Set("longSideGlueRef", refValue(framing, "Long Side"))
	for _, m := range reMicron.FindAllStringSubmatch(framing, -1) {
		if anodizingMicron.has(m[1]) {
			out.Set("anodizingThickness", m[1]+" Micron")
			break
		}
	}

	jb := section(text, "Junction Box", "Potting")
	if reOKToken.MatchString(section(jb, "Junction Box", "Silicon")) {
		out.Set("jbAppearance", "OK")
	}
	if m := reCableMM.FindStringSubmatch(jb); m != nil {
		out.Set("jbCableLength", m[1]+" mm")
	}
	if m := reGramWt.FindStringSubmatch(section(jb, "Silicon")); m != nil {
		out.Set("siliconGlueWeight", m[1]+" gm")
	}
	if m := reSecDec.FindStringSubmatch(jb); m != nil {
		out.Set("maxWeldingTime", m[1]+" Sec")
	}
	if m := reAmps.FindStringSubmatch(jb); m != nil {
		out.Set("solderingCurrent", m[1]+" A")
	}
	if reOKToken.MatchString(section(jb, "Soldering Quality")) {
		out.Set("jbSolderingQuality", "OK")
	}

	potting := section(text, "Potting", "Curing")
	out.Set("glueRatioRef", refValue(potting, "Ratio"))
	if m := reGramWt.FindStringSubmatch(section(potting, "weight")); m != nil {
		out.Set("pottingWeight", m[1]+" gm")
	}
	clocks := reClock.FindAllStringSubmatch(section(potting, "Nozzle"), 2)
	for i, m := range clocks {
		out.Set(SampleKeys("nozzleChangeTime", 2)[i], fixDigits(m[1])+":"+fixDigits(m[2]))
	}
	fillOK(out, section(potting, "Visual", "Curing"), SampleKeys("oleVisualCheck", 3))

	curing := section(text, "Curing")
	for _, m := range reTempDeg.FindAllStringSubmatch(curing, -1) {
		if roomTemp.has(m[1]) {
			out.Set("curingTemperature", m[1]+"°C")
			break
		}
	}
	// 50% is the printed specification limit, not a reading.
	for _, m := range reHumidPct.FindAllStringSubmatch(curing, -1) {
		if inRange(m[1], 40, 80) && m[1] != "50" {
			out.Set("curingHumidity", m[1]+"%")
			break
		}
	}
	for _, m := range reHours.FindAllStringSubmatch(curing, -1) {
		if inRange(m[1], 2, 12) {
			out.Set("curingTime", m[1]+" hrs")
			break
		}
	}
	return out
}

// fixDigits maps the letters OCR confuses with zero back to digits.
func fixDigits(s string) string {
	return strings.NewReplacer("Q", "0", "O", "0", "o", "0").Replace(s)
}
