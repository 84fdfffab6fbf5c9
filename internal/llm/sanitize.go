package llm

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/ipqc-tracker/internal/extract"
)

// NormalizeFields turns a decoded model object into a FieldMap.
//   - strings are trimmed; blank, "null" and "undefined" are dropped
//   - numbers keep their shortest decimal form
//   - true becomes "OK" (a ticked box); false is dropped
//   - nested values are dropped
func NormalizeFields(m map[string]any, logger *slog.Logger) extract.FieldMap {
	if logger == nil {
		logger = slog.Default()
	}
	out := make(extract.FieldMap, len(m))
	var dropped []string
	for k, v := range m {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		switch t := v.(type) {
		case string:
			s := strings.TrimSpace(t)
			if s == "" || isNullToken(s) {
				dropped = append(dropped, k+"(empty)")
				continue
			}
			out[k] = s
		case float64:
			out[k] = strconv.FormatFloat(t, 'f', -1, 64)
		case bool:
			if t {
				out[k] = "OK"
			} else {
				dropped = append(dropped, k+"(false)")
			}
		case nil:
			dropped = append(dropped, k+"(null)")
		default:
			dropped = append(dropped, k+"(type)")
		}
	}
	if len(dropped) > 0 {
		logger.Debug("llm.extract.normalize", "dropped", dropped)
	}
	return out
}

func isNullToken(s string) bool {
	return strings.EqualFold(s, "null") || strings.EqualFold(s, "undefined")
}
