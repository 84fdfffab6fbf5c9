package ocr

import (
	"regexp"
	"strings"
)

// TextLayerThreshold is the minimum score for a PDF text layer to be used
// instead of rasterizing the page and running OCR.
const TextLayerThreshold = 0.5

var (
	reFormAnchor = regexp.MustCompile(`(?i)\b(ipqc|checkpoint|stringer|tabber|laminat\w*|framing|hipot|sample|criteria|frequency)\b`)
	reOKCell     = regexp.MustCompile(`(?i)\b(ok|pass)\b`)
	reSerial     = regexp.MustCompile(`\bGS\d[0-9A-Z]{14,17}\b`)
	reMeasure    = regexp.MustCompile(`\b\d+(?:\.\d+)?\s*(?:mm|°C|%|N|Sec|gm)\b`)
)

// heuristicConfidence scores how much a text looks like a filled check
// sheet page, in 0..1. Empty or near-empty text layers score 0.
func heuristicConfidence(txt string) float32 {
	if len(strings.TrimSpace(txt)) < 40 {
		return 0
	}
	score := float32(0.2)
	if n := len(reFormAnchor.FindAllString(txt, 4)); n > 0 {
		score += 0.1 * float32(n)
	}
	if reOKCell.MatchString(txt) {
		score += 0.1
	}
	if reSerial.MatchString(txt) {
		score += 0.1
	}
	if reMeasure.MatchString(txt) {
		score += 0.1
	}
	if len(txt) > 400 {
		score += 0.1
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}
