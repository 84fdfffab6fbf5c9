package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// pageCase checks the two strategies of one page against the same text.
// A key mapped to "" must be absent from the output.
type pageCase struct {
	name    string
	page    int
	text    string
	regex   map[string]string
	keyword map[string]string
}

func runPageCases(t *testing.T, cases []pageCase) {
	t.Helper()
	e := NewExtractor(0, nil)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rx := e.Regex(tc.page, tc.text)
			kw := e.Keyword(tc.page, tc.text)
			for k, want := range tc.regex {
				if want == "" {
					assert.NotContains(t, rx, k, "regex")
					continue
				}
				assert.Equal(t, want, rx[k], "regex %s", k)
			}
			for k, want := range tc.keyword {
				if want == "" {
					assert.NotContains(t, kw, k, "keyword")
					continue
				}
				assert.Equal(t, want, kw[k], "keyword %s", k)
			}
		})
	}
}

// assertSamePositions requires both strategies to agree on every key of a grid.
func assertSamePositions(t *testing.T, kw, rx FieldMap, keys []string) {
	t.Helper()
	for _, k := range keys {
		assert.Equal(t, rx[k], kw[k], k)
	}
}

func TestPage1_ReadingRanges(t *testing.T) {
	runPageCases(t, []pageCase{
		{
			name:    "temperature above range",
			page:    1,
			text:    "Temperature\n35℃\nHumidity\n45%",
			regex:   map[string]string{"temperature": "", "humidity": "45%"},
			keyword: map[string]string{"temperature": "", "humidity": "45%"},
		},
		{
			name:    "temperature below range",
			page:    1,
			text:    "Temperature\n17℃",
			regex:   map[string]string{"temperature": ""},
			keyword: map[string]string{"temperature": ""},
		},
		{
			name:    "temperature in range",
			page:    1,
			text:    "Temperature\n23℃",
			regex:   map[string]string{"temperature": "23°C"},
			keyword: map[string]string{"temperature": "23°C"},
		},
	})
}

func TestPage1_GridsAgreeAcrossStrategies(t *testing.T) {
	text := "String length\n1163 1300 1171\nCell to Cell Gap\n0.8 2.5 1.1\nPeel Strength 2.1 N"
	e := NewExtractor(0, nil)
	rx := e.Regex(1, text)
	kw := e.Keyword(1, text)

	assert.Equal(t, "1163", rx["stringLengthTS01A"])
	assert.Equal(t, "1171", rx["stringLengthTS01B"])
	assert.NotContains(t, rx, "stringLengthTS02A")
	assert.Equal(t, "0.8", rx["cellGapTS01A"])
	assert.Equal(t, "1.1", rx["cellGapTS01B"])
	assert.NotContains(t, rx, "cellGapTS02A")

	assertSamePositions(t, kw, rx, GridKeys("stringLength"))
	assertSamePositions(t, kw, rx, GridKeys("cellGap"))
	assert.Equal(t, "2.1 N", kw["tabberPeelStrength"])
}

func TestPage3_ReworkStations(t *testing.T) {
	text := "String Rework Station\nCleaning of station Clean\nSoldering Iron Temp 380℃ 3 Sec\n" +
		"Module Rework Station\nMethod of Rework Manual\nCleaning of station Clean\nSoldering Iron Temp 620℃ 4 Sec"
	runPageCases(t, []pageCase{{
		name: "iron temperatures",
		page: 3,
		text: text,
		regex: map[string]string{
			"stringReworkSolderingTemp": "380°C",
			"moduleReworkSolderingTemp": "",
			"moduleReworkMethod":        "Manual",
		},
		keyword: map[string]string{
			"solderingIronTemp":   "380°C",
			"reworkSolderingTemp": "",
			"methodOfRework":      "Manual",
		},
	}})
}

func TestPage4_TrimmingSamples(t *testing.T) {
	text := "Auto Edge Trimming\nTrimming Quality\n" +
		"S1 GS04875TG2312345678 OK\n" +
		"S2 GS04875TG2312345679 OK\n" +
		"S3 GS04875TG2312345680 OK\n" +
		"S4 GS04875TG2312345681 OK\n" +
		"S5 GS04875TG2312345682 OK\n" +
		"Trimming Blade life ok\n90° Visual"
	e := NewExtractor(0, nil)
	rx := e.Regex(4, text)
	kw := e.Keyword(4, text)

	assert.Equal(t, "GS04875TG2312345678", rx["trimmingSNo1"])
	assert.Equal(t, "GS04875TG2312345682", rx["trimmingSNo5"])
	assert.Equal(t, "OK", rx["bladeCondition"])
	assert.Equal(t, "OK", kw["bladeCondition"])
	assert.Equal(t, "OK", kw["trimmingResult3"])
	assertSamePositions(t, kw, rx, SampleKeys("trimmingSNo", 5))
}

func TestPage5_FramingAndCuring(t *testing.T) {
	runPageCases(t, []pageCase{
		{
			name: "readings in range",
			page: 5,
			text: "Framing\nShort Side Glue GSPL/QA/SSG-01\nAnodizing Thickness 15.50 Micron\n" +
				"Junction Box\nCable length 300 mm\nPotting\n" +
				"Curing\nTemperature 24.50℃\nCuring Time 4 hrs",
			regex: map[string]string{
				"shortSideGlueRef":   "GSPL/QA/SSG-01",
				"anodizingThickness": "15.50 Micron",
				"jbCableLength":      "300 mm",
				"curingTemperature":  "24.50°C",
				"curingTime":         "4 hrs",
			},
			keyword: map[string]string{
				"shortSideGlueRef":   "GSPL/QA/SSG-01",
				"anodizingThickness": "15.50 Micron",
				"jbCableLength":      "300 mm",
				"curingTemperature":  "24.50°C",
				"curingTime":         "4 hrs",
			},
		},
		{
			name:    "readings out of range",
			page:    5,
			text:    "Framing\nAnodizing Thickness 150.5 Micron\nCuring\nTemperature 33.5℃\nCuring Time 4 hrs",
			regex:   map[string]string{"anodizingThickness": "", "curingTemperature": ""},
			keyword: map[string]string{"anodizingThickness": "", "curingTemperature": "", "curingTime": "4 hrs"},
		},
	})
}

func TestPage6_FlashTester(t *testing.T) {
	text := "Flash Tester\nAmbient Temp 24.50\nModule Temp 36.20\n" +
		"Sun simulator GS04875TG2312345678\nValidation ok\nSilver Ref EL ok\n" +
		"Hipot\nPost EL\n41.25 Volt 13.45 Amps\nRFID"
	runPageCases(t, []pageCase{{
		name: "flash tester readings",
		page: 6,
		text: text,
		regex: map[string]string{
			"ambientTemp":         "24.50°C",
			"moduleTemp":          "",
			"sunsimulatorBarcode": "GS04875TG2312345678",
			"validation":          "OK",
			"silverRefEL":         "OK",
			"voltage":             "41.25 V",
			"current":             "13.45 A",
		},
		keyword: map[string]string{
			"ambientTemp":         "24.50°C",
			"moduleTemp":          "",
			"sunsimulatorBarcode": "GS04875TG2312345678",
			"validation":          "OK",
			"silverRefEL":         "OK",
			"voltage":             "41.25 V",
			"current":             "13.45 A",
		},
	}})
}

func TestPage6_SampleSerialsAgreeAcrossStrategies(t *testing.T) {
	// The second serial is split by OCR and does not have the table cell shape.
	text := "Module free from residue\n" +
		"S1 GS04875TG2312345678 OK\n" +
		"S2 GS04875TG23 12345679 OK\n" +
		"S3 GS04875TG2312345680 OK\n" +
		"Flash Tester"
	e := NewExtractor(0, nil)
	rx := e.Regex(6, text)
	kw := e.Keyword(6, text)

	assert.Equal(t, "GS04875TG2312345678", rx["cleaningSNo1"])
	assert.Equal(t, "GS04875TG2312345680", rx["cleaningSNo2"])
	assert.NotContains(t, rx, "cleaningSNo3")
	assertSamePositions(t, kw, rx, SampleKeys("cleaningSNo", 5))
}

func TestPage7_PackagingAndLabels(t *testing.T) {
	text := "RFID\nLoft Corner\nMake Solar Space\nAug'25\n" +
		"Final Visual\nBacklabel\nG504875TG2312345678\n6S04875TG2312345679\n" +
		"Dimension\n2278 x 1134 x 35\nMounting Hole 1400 mm\n" +
		"Packaging\nPallet dimension 2300 x 1140 x 1230"
	e := NewExtractor(0, nil)
	rx := e.Regex(7, text)
	kw := e.Keyword(7, text)

	for _, m := range []FieldMap{rx, kw} {
		assert.Equal(t, "Left Side", m["rfidPosition"])
		assert.Equal(t, "Aug 2025", m["cellMakeDate"])
		assert.Equal(t, "2278×1134×35 mm", m["moduleDimensionLW"])
		assert.Equal(t, "1400 mm", m["mountingHole"])
		assert.Equal(t, "2300×1140×1230 mm", m["palletDimension"])
	}
	assert.Equal(t, "Solar Space", kw["cellModuleMake"])

	assert.Equal(t, "GS04875TG2312345678", rx["backlabelSNo1"])
	assert.Equal(t, "GS04875TG2312345679", rx["backlabelSNo2"])
	assertSamePositions(t, kw, rx, SampleKeys("backlabelSNo", 5))
}
