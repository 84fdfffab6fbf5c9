package extract

import (
	"regexp"
	"strings"
)

// Page 4: laminator, auto tape removing, auto edge trimming and 90° visual.

var page4Rules = Rules{
	{
		Key: "laminatorMonitoring",
		Patterns: pats(
			`Monitoring (?:of )?(?:Laminator )?(?:Process )?Parameters?[\s\S]{0,100}?\bok\b`,
			`Laminator[\s\S]{0,150}?\bok\b`,
		),
		Constant: "OK",
	},
	{
		Key: "diaphragmCleaning",
		Patterns: pats(
			`Cleaning of Diaphragm[\s\S]{0,100}?\bClean`,
			`Diaphragm[\s\S]{0,80}?\bClean`,
		),
		Constant: "Clean",
	},
	{
		Key:      "peelTestRef",
		Patterns: pats(`Peel (?:of )?Test[\s\S]{0,150}?(GSPL/[A-Z/\d\-]+)`),
		Format:   upperGroup,
	},
	{
		Key:      "gelContentRef",
		Patterns: pats(`Gel Content Test[\s\S]{0,150}?(GSPL/[A-Z/\d\-]+)`),
		Format:   upperGroup,
	},
	{
		Key:      "gelContentRef",
		Patterns: pats(`Gel Content Test`),
		Constant: "Refer Document GSPL/IPQC/QC/001",
	},
	{
		Key:      "bladeCondition",
		Patterns: pats(`Trimming Blade`),
		Constant: "OK",
	},
}

var page4Tables = []TableRule{
	{
		Anchor:    "Auto Tape Removing",
		Until:     "Trimming",
		Keys:      SampleKeys("tapeRemovingVisual", 5),
		Shape:     shapeOK,
		Normalize: okToken,
		Window:    400,
	},
	{
		Anchor:    "Trimming Quality",
		Until:     "Trimming Blade",
		Keys:      SampleKeys("trimmingSNo", 5),
		Shape:     shapeBarcode,
		Normalize: RepairBarcode,
		Validate:  validBarcode,
	},
	{
		Anchor:    "90° Visual",
		Until:     "Framing",
		Keys:      SampleKeys("visualSNo", 5),
		Shape:     shapeBarcode,
		Normalize: RepairBarcode,
		Validate:  validBarcode,
	},
}

var reBladeLife = regexp.MustCompile(`(?i)Blade[\s\S]{0,80}?\b(ok|good|change[ds]?|replaced?)\b`)

func page4Keywords(text string) FieldMap {
	out := make(FieldMap)

	if reOKToken.MatchString(section(text, "Laminator", "Diaphragm")) {
		out.Set("laminatorMonitoring", "OK")
	}
	if indexFold(section(text, "Diaphragm", "Peel"), "clean") >= 0 {
		out.Set("diaphragmCleaning", "Clean")
	}
	out.Set("peelTestRef", refValue(text, "Peel"))
	out.Set("gelContentRef", refValue(text, "Gel Content"))

	fillOK(out, section(text, "Tape Removing", "Trimming"), SampleKeys("tapeRemovingVisual", 5))

	trim := section(text, "Auto Edge Trimming", "90°", "90 °")
	if trim == "" {
		trim = section(text, "Trimming Quality", "90°", "90 °")
	}
	setSampleRows(out, "trimmingSNo", "trimmingResult", section(trim, "Trimming Quality", "Trimming Blade"), 5)
	if reBladeLife.MatchString(section(trim, "Trimming Blade")) {
		out.Set("bladeCondition", "OK")
	}

	visual := section(text, "90°")
	if visual == "" {
		visual = section(text, "90 °")
	}
	setSampleRows(out, "visualSNo", "visualResult", visual, 5)
	return out
}

// setSampleRows fills serial and result keys for a S1..Sn sample table.
// Results are only set when the section prints at least n acknowledgements.
func setSampleRows(out FieldMap, serialGroup, resultGroup, s string, n int) {
	if s == "" {
		return
	}
	setSamples(out, serialGroup, samples(s, n))
	fillOK(out, s, SampleKeys(resultGroup, n))
}

func upperGroup(m []string) string { return strings.ToUpper(m[1]) }
