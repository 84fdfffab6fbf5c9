package extract

import (
	"regexp"
	"strings"
)

// Page 6: buffing, cleaning, flash tester, hipot and post EL.

var page6Rules = Rules{
	{
		Key:      "buffingCondition",
		Patterns: pats(`Corner Edge[\s\S]{0,120}?\b(ok|good)\b`),
		Constant: "OK",
	},
	{
		Key:      "ambientTemp",
		Patterns: pats(`Ambient Temp[\s\S]{0,100}?\b(\d{2})[-.](\d{2})`),
		Validate: roomTemp.splitDecimal(),
		Format:   decimalSuffix("°C"),
	},
	{
		Key:      "moduleTemp",
		Patterns: pats(`Module Temp[\s\S]{0,100}?\b(\d{2})[-.](\d{2})`),
		Validate: roomTemp.splitDecimal(),
		Format:   decimalSuffix("°C"),
	},
	{
		Key:      "sunsimulatorBarcode",
		Patterns: pats(`Sun\s*simulator[\s\S]{0,150}?\b([G6][S5][O0]?\d[0-9A-Z]{13,17})\b`),
		Format:   func(m []string) string { return RepairBarcode(m[1]) },
	},
	{
		Key:      "validation",
		Patterns: pats(`Validation[\s\S]{0,100}?\bok\b`),
		Constant: "OK",
	},
	{
		Key:      "silverRefEL",
		Patterns: pats(`Silver Ref[\s\S]{0,100}?\bok\b`),
		Constant: "OK",
	},
	{
		Key:      "voltage",
		Patterns: pats(`\b(\d{2}\.\d{1,2})\s*Volt`),
		Format:   suffix(" V"),
	},
	{
		Key:      "current",
		Patterns: pats(`\b(\d+\.\d+)\s*Amps?`),
		Format:   suffix(" A"),
	},
}

var page6Tables = []TableRule{
	{
		Anchor:    "Module free from residue",
		Until:     "Flash Tester",
		Keys:      SampleKeys("cleaningSNo", 5),
		Shape:     shapeBarcode,
		Normalize: RepairBarcode,
		Validate:  validBarcode,
	},
	{
		Anchor:    "Hipot",
		Until:     "Post EL",
		Keys:      SampleKeys("hipotSNo", 5),
		Shape:     shapeBarcode,
		Normalize: RepairBarcode,
		Validate:  validBarcode,
	},
	{
		Anchor:    "Post EL",
		Until:     "RFID",
		Keys:      SampleKeys("elSNo", 3),
		Shape:     shapeBarcode,
		Normalize: RepairBarcode,
		Validate:  validBarcode,
	},
}

var (
	reReading = regexp.MustCompile(`\b(\d{2}\.\d{1,2})\b`)
	reVolt    = regexp.MustCompile(`(?i)\b(\d{2}\.\d{1,2})\s*V(?:olts?)?\b`)
	reAmpDec  = regexp.MustCompile(`(?i)\b(\d{1,2}\.\d{1,3})\s*A(?:mps?)?\b`)
	reDCW     = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*(?:mA|[uµμ]A|M[ΩΩ]|M\s*ohm)`)
)

func page6Keywords(text string) FieldMap {
	out := make(FieldMap)

	if reOKToken.MatchString(section(text, "Buffing", "Cleaning")) {
		out.Set("buffingCondition", "OK")
	}
	setSampleRows(out, "cleaningSNo", "cleaningResult", section(text, "Module free from residue", "Flash"), 5)

	flash := section(text, "Flash", "Hipot")
	if flash == "" {
		flash = text
	}
	if m := reReading.FindStringSubmatch(section(flash, "Ambient", "Module Temp")); m != nil && roomTemp.has(m[1]) {
		out.Set("ambientTemp", m[1]+"°C")
	}
	if m := reReading.FindStringSubmatch(section(flash, "Module Temp", "Sun")); m != nil && roomTemp.has(m[1]) {
		out.Set("moduleTemp", m[1]+"°C")
	}
	if bs := barcodes(section(flash, "Sun", "Validation"), 1); len(bs) == 1 && validBarcode(bs[0]) {
		out.Set("sunsimulatorBarcode", bs[0])
	}
	if reOKToken.MatchString(section(flash, "Validation", "Silver")) {
		out.Set("validation", "OK")
	}
	if reOKToken.MatchString(section(flash, "Silver")) {
		out.Set("silverRefEL", "OK")
	}

	hipot := section(text, "Hipot", "Post EL")
	for i, line := range hipotLines(hipot, 5) {
		out.Set(SampleKeys("hipotSNo", 5)[i], line.serial)
		out.Set(SampleKeys("dcw", 5)[i], line.result)
	}

	post := section(text, "Post EL", "RFID")
	if m := reVolt.FindStringSubmatch(post); m != nil {
		out.Set("voltage", m[1]+" V")
	}
	if m := reAmpDec.FindStringSubmatch(post); m != nil {
		out.Set("current", m[1]+" A")
	}
	setELLines(out, "elSNo", "elResult", post, 3)
	return out
}

// hipotLines reads serial rows from the hipot table, keeping the first
// leakage or insulation reading printed on the same line.
func hipotLines(s string, n int) []elLine {
	var out []elLine
	for _, line := range strings.Split(s, "\n") {
		bs := barcodes(line, 1)
		if len(bs) == 0 || !validBarcode(bs[0]) {
			continue
		}
		out = append(out, elLine{serial: bs[0], result: reDCW.FindString(line)})
		if len(out) == n {
			break
		}
	}
	return out
}
