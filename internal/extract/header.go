package extract

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/ipqc-tracker/internal/entity"
)

var headerRules = struct {
	date, time, shift, poNo Rule
}{
	date: Rule{
		Key: "date",
		Patterns: pats(
			`(?:^|\n)\s*Date\s*:-?\s*(\d{2}/\d{2}/\d{2,4})`,
			`Date\s+De\s*(\d{2}/\d{2}/\d{2,4})`,
		),
		Validate: func(m []string) bool { _, ok := formatDate(m[1]); return ok },
		Format:   func(m []string) string { s, _ := formatDate(m[1]); return s },
	},
	time: Rule{
		Key: "time",
		Patterns: pats(
			`Time\s*:-?\s*(\d{1,2}:\d{2})`,
			`Time\s+(\d{1,2}:\d{2})`,
		),
		Validate: func(m []string) bool { _, ok := formatClock(m[1]); return ok },
		Format:   func(m []string) string { s, _ := formatClock(m[1]); return s },
	},
	shift: Rule{
		Key: "shift",
		Patterns: pats(
			`Shift\s+(Night|Day|Morning)\b`,
			`shift\s*\(\s*([ABC])\s*\)`,
		),
		Format: func(m []string) string { return canonicalShift(m[1]) },
	},
	poNo: Rule{
		Key: "poNo",
		Patterns: pats(
			`Po\.?\s*no\.?\s*:-\s*([A-Z0-9][A-Z0-9\-/]+)`,
			`\bPO[\s:]+([A-Z0-9][A-Z0-9\-/]{5,})`,
		),
		Validate: func(m []string) bool {
			v := m[1]
			if len(v) <= 5 {
				return false
			}
			l := strings.ToLower(v)
			return !strings.HasPrefix(l, "sample") && !strings.HasPrefix(l, "shif") && !strings.HasPrefix(l, "stage")
		},
	},
}

// ParseHeader reads the page header. Fields that are not found stay empty.
func ParseHeader(text string) entity.Header {
	var h entity.Header
	if v, ok := headerRules.date.Extract(text); ok {
		h.Date = v
	}
	if v, ok := headerRules.time.Extract(text); ok {
		h.Time = v
	}
	if v, ok := headerRules.shift.Extract(text); ok {
		h.Shift = v
	}
	if v, ok := headerRules.poNo.Extract(text); ok {
		h.PoNo = v
	}
	return h
}

// formatDate turns DD/MM/YY or DD/MM/YYYY into YYYY-MM-DD. Two-digit years are 20YY.
func formatDate(s string) (string, bool) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return "", false
	}
	day, err1 := strconv.Atoi(parts[0])
	month, err2 := strconv.Atoi(parts[1])
	year := parts[2]
	if err1 != nil || err2 != nil {
		return "", false
	}
	switch len(year) {
	case 2:
		year = "20" + year
	case 4:
	default:
		return "", false
	}
	if day < 1 || day > 31 || month < 1 || month > 12 {
		return "", false
	}
	return fmt.Sprintf("%s-%02d-%02d", year, month, day), true
}

// formatClock zero-pads the hour of H:MM.
func formatClock(s string) (string, bool) {
	h, m, ok := strings.Cut(s, ":")
	if !ok {
		return "", false
	}
	hour, err1 := strconv.Atoi(h)
	minute, err2 := strconv.Atoi(m)
	if err1 != nil || err2 != nil || hour > 23 || minute > 59 {
		return "", false
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), true
}

func canonicalShift(s string) string {
	switch strings.ToLower(s) {
	case "night":
		return "Night"
	case "day":
		return "Day"
	case "morning":
		return "Morning"
	}
	return strings.ToUpper(s)
}
