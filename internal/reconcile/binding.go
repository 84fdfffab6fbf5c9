package reconcile

import (
	"strconv"
	"strings"

	"github.com/joseph-ayodele/ipqc-tracker/internal/extract"
)

// source reads one checkpoint field out of a page FieldMap.
// name is the field key, or key expression, cited in report reasons.
type source struct {
	name string
	read func(extract.FieldMap) string
}

func key(k string) source {
	return source{name: k, read: func(m extract.FieldMap) string {
		v, _ := m.Get(k)
		return v
	}}
}

// firstOf yields the first source holding a value.
func firstOf(ss ...source) source {
	names := make([]string, len(ss))
	for i, s := range ss {
		names[i] = s.name
	}
	return source{name: strings.Join(names, " | "), read: func(m extract.FieldMap) string {
		for _, s := range ss {
			if v := s.read(m); v != "" {
				return v
			}
		}
		return ""
	}}
}

// concat joins the non-blank values of ss with sep.
func concat(sep string, ss ...source) source {
	names := make([]string, len(ss))
	for i, s := range ss {
		names[i] = s.name
	}
	return source{name: strings.Join(names, " + "), read: func(m extract.FieldMap) string {
		var parts []string
		for _, s := range ss {
			if v := s.read(m); v != "" {
				parts = append(parts, v)
			}
		}
		return strings.Join(parts, sep)
	}}
}

// joined lists group1..groupN separated by commas.
func joined(group string, n int) source {
	ks := extract.SampleKeys(group, n)
	ss := make([]source, n)
	for i, k := range ks {
		ss[i] = key(k)
	}
	s := concat(", ", ss...)
	s.name = group + "1-" + strconv.Itoa(n)
	return s
}

// pair renders "a<sep>b" when both are present, else whichever one is.
func pair(a, b source, sep string) source {
	return source{name: a.name + " + " + b.name, read: func(m extract.FieldMap) string {
		av, bv := a.read(m), b.read(m)
		switch {
		case av != "" && bv != "":
			return av + sep + bv
		case av != "":
			return av
		default:
			return bv
		}
	}}
}

// prefixed puts p in front of a present value.
func prefixed(p string, s source) source {
	return source{name: s.name, read: func(m extract.FieldMap) string {
		if v := s.read(m); v != "" {
			return p + v
		}
		return ""
	}}
}

// binding ties a catalog checkpoint to the FieldMap keys that fill it.
// Scalar checkpoints use result; sub-field checkpoints use subs keyed by the
// catalog sub-field key.
type binding struct {
	result source
	subs   map[string]source
}

func scalar(s source) binding { return binding{result: s} }

func subs(kv map[string]source) binding { return binding{subs: kv} }

// grid binds TS01A..TS04B to group+position.
func grid(group string) binding {
	kv := make(map[string]source, len(extract.GridPositions))
	for _, p := range extract.GridPositions {
		kv[p] = key(group + p)
	}
	return subs(kv)
}

// sampleRows binds S1..Sn to "<serial> - <result>" pairs.
func sampleRows(serialGroup, resultGroup string, n int) binding {
	kv := make(map[string]source, n)
	for i := 1; i <= n; i++ {
		idx := strconv.Itoa(i)
		kv["S"+idx] = pair(key(serialGroup+idx), key(resultGroup+idx), " - ")
	}
	return subs(kv)
}

func hipotSamples(n int) binding {
	kv := make(map[string]source, n)
	for i := 1; i <= n; i++ {
		idx := strconv.Itoa(i)
		kv["Sample "+idx] = pair(key("hipotSNo"+idx), prefixed("DCW=", key("dcw"+idx)), ": ")
	}
	return subs(kv)
}

var bindings = map[int]binding{
	// Page 1: shop floor, glass, EVA, cell loading, tabber and stringer.
	1:  scalar(key("temperature")),
	2:  scalar(key("humidity")),
	3:  scalar(key("frontGlassDimension")),
	4:  scalar(key("appearance")),
	5:  scalar(key("eva1Type")),
	6:  scalar(key("eva1Dimension")),
	7:  scalar(firstOf(prefixed("OK / ", key("evaManufacturingDate")), key("evaStatusOk"))),
	8:  subs(map[string]source{"Temp": firstOf(key("evaSolderingTemp"), key("solderingTemperature")), "Quality": firstOf(key("evaSolderingQuality"), key("solderingQuality"))}),
	9:  scalar(concat(" ", key("cellManufacturer"), key("cellEfficiency"))),
	10: scalar(key("cellSize")),
	11: scalar(key("cellCondition")),
	12: scalar(key("cleanliness")),
	13: subs(map[string]source{"ATW Temp": key("atwTemp")}),
	14: scalar(key("crossCutting")),
	15: subs(map[string]source{"ATW Temp": firstOf(key("tabberAtwTemp"), key("tabberProcessParam"))}),
	16: grid("visualCheck"),
	17: grid("elImage"),
	18: grid("stringLength"),
	19: grid("cellGap"),

	// Page 2: peel tests, bussing, creepage, EVA 2 and back glass.
	20: subs(map[string]source{"Ribbon to cell": firstOf(key("ribbonToCellPeelStrength"), key("tabberPeelStrength"))}),
	21: scalar(key("stringToStringGap")),
	22: subs(map[string]source{"TOP": key("cellEdgeTop"), "Bottom": key("cellEdgeBottom"), "Sides": key("cellEdgeSides")}),
	23: subs(map[string]source{"Ribbon to busbar": key("busbarPeelStrength")}),
	24: scalar(firstOf(key("terminalBusbar"), key("terminalBusbarToEdge"))),
	25: scalar(firstOf(joined("solderingQuality", 3), key("solderingQuality"))),
	26: scalar(concat(" / ", prefixed("Top: ", joined("creepageTop", 3)), prefixed("Bottom: ", joined("creepageBottom", 3)))),
	27: scalar(firstOf(key("processVerificationAuto"), key("autoBussingStatus"))),
	28: scalar(firstOf(joined("autoTaping", 3), joined("autoTapingQuality", 3), key("autoTaping"))),
	29: scalar(firstOf(joined("positionVerification", 3), joined("rfidPosition", 3))),
	30: scalar(key("eva2Type")),
	31: scalar(key("eva2Dimension")),
	32: scalar(firstOf(key("eva2StatusOk"), key("eva2Status"))),
	33: scalar(key("backGlassDimension")),

	// Page 3: holes, flatten, pre-lamination EL and rework stations.
	34: scalar(firstOf(key("holesDimension"), joined("holesDimension", 3), key("numberOfHoles"))),
	35: scalar(joined("flattenVisual", 5)),
	36: sampleRows("preLamELBarcode", "preLamELResult", 3),
	37: scalar(firstOf(key("stringReworkCleaning"), key("cleaningStatus"))),
	38: subs(map[string]source{"Temp": firstOf(key("stringReworkSolderingTemp"), key("solderingIronTemp")), "Time": firstOf(key("stringReworkSolderingTime"), key("solderingIronTime"))}),
	39: scalar(firstOf(key("moduleReworkMethod"), key("methodOfRework"))),
	40: scalar(firstOf(key("moduleReworkCleaning"), key("reworkCleaningStatus"))),
	41: subs(map[string]source{"Temp": firstOf(key("moduleReworkSolderingTemp"), key("reworkSolderingTemp")), "Time": firstOf(key("moduleReworkSolderingTime"), key("reworkSolderingTime"))}),

	// Page 4: laminator, tape removing, trimming and 90° visual.
	42: scalar(key("laminatorMonitoring")),
	43: scalar(key("diaphragmCleaning")),
	44: subs(map[string]source{"Ref": key("peelTestRef")}),
	45: subs(map[string]source{"Ref": key("gelContentRef")}),
	46: scalar(joined("tapeRemovingVisual", 5)),
	47: sampleRows("trimmingSNo", "trimmingResult", 5),
	48: scalar(key("bladeCondition")),
	49: sampleRows("visualSNo", "visualResult", 5),

	// Page 5: framing, junction box, potting and curing.
	50: scalar(key("glueUniformity")),
	51: subs(map[string]source{"Ref": key("shortSideGlueRef")}),
	52: scalar(key("longSideGlueRef")),
	53: scalar(key("anodizingThickness")),
	54: scalar(concat(" / ", firstOf(key("jbCheck"), key("jbAppearance")), key("jbCableLength"))),
	55: scalar(key("siliconGlueWeight")),
	56: scalar(key("maxWeldingTime")),
	57: scalar(key("solderingCurrent")),
	58: scalar(key("jbSolderingQuality")),
	59: subs(map[string]source{"Ref": key("glueRatioRef")}),
	60: scalar(key("pottingWeight")),
	61: subs(map[string]source{"Time": concat(" - ", key("nozzleChangeTime1"), key("nozzleChangeTime2"))}),
	62: scalar(joined("oleVisualCheck", 3)),
	63: scalar(key("curingTemperature")),
	64: scalar(key("curingHumidity")),
	65: scalar(key("curingTime")),

	// Page 6: buffing, cleaning, flash tester, hipot and post EL.
	66: scalar(key("buffingCondition")),
	67: sampleRows("cleaningSNo", "cleaningResult", 5),
	68: scalar(key("ambientTemp")),
	69: scalar(key("moduleTemp")),
	70: scalar(firstOf(key("sunsimulatorCalibration"), prefixed("OK - ", key("sunsimulatorBarcode")))),
	71: scalar(key("validation")),
	72: scalar(key("silverRefEL")),
	73: hipotSamples(5),
	74: scalar(concat(" / ", key("voltage"), key("current"))),
	75: sampleRows("elSNo", "elResult", 3),

	// Page 7: RFID, final visual, backlabel, dimensions and packaging.
	76: scalar(key("rfidPosition")),
	77: scalar(concat(" / ", key("cellModuleMake"), key("cellMakeDate"))),
	78: sampleRows("finalVisualSNo", "finalVisualResult", 5),
	79: sampleRows("backlabelSNo", "backlabelResult", 5),
	80: scalar(key("moduleDimensionLW")),
	81: scalar(key("mountingHole")),
	82: scalar(key("diagonalDiff")),
	83: scalar(key("cornerGap")),
	84: scalar(key("jbCableLength")),
	85: scalar(key("packagingLabel")),
	86: scalar(key("contentInBox")),
	87: scalar(key("boxCondition")),
	88: scalar(key("palletDimension")),
}
