package llm

import (
	"embed"
	"fmt"
	"strings"
)

//go:embed prompts/*.txt
var promptFS embed.FS

// MaxPromptText is the number of characters of page text sent to the model.
const MaxPromptText = 4000

// SystemPrompt states the output rules shared by every page.
const SystemPrompt = `You extract readings from OCR text of an in-process quality control (IPQC) check sheet used on a solar module production line.
Return ONLY one JSON object whose keys are the requested field names. No prose, no markdown, no code fences.
Rules:
- Use null when a field is not present in the text. Never guess.
- Ticks, check marks and the word OK all mean "OK".
- Dimensions are "L×W×T mm", for example "2278×1134×3.2 mm".
- Temperatures carry °C, for example "24°C". Percentages carry %, for example "45%".
- EVA/EPE codes look like EP304.
- Module serial numbers start with GS or GSO followed by digits.
The response must start with { and end with }.`

// PagePrompt returns the field list for page, or false when the page has none.
func PagePrompt(page int) (string, bool) {
	b, err := promptFS.ReadFile(fmt.Sprintf("prompts/page%d.txt", page))
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(string(b)), true
}

// BuildUserPrompt wraps the page field list and the first MaxPromptText characters of text.
func BuildUserPrompt(page int, fields, text string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Extract these fields from the OCR text of page %d.\n", page)
	b.WriteString("Return ONLY a JSON object with the field names as keys.\n\n")
	b.WriteString(fields)
	b.WriteString("\n\n=== OCR TEXT START ===\n")
	b.WriteString(truncate(text, MaxPromptText))
	b.WriteString("\n=== OCR TEXT END ===\n\nJSON output:")
	return b.String()
}

// truncate keeps the first n runes of s.
func truncate(s string, n int) string {
	i := 0
	for j := range s {
		if i == n {
			return s[:j]
		}
		i++
	}
	return s
}
