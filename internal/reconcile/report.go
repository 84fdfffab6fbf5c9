package reconcile

import (
	"encoding/json"

	"github.com/joseph-ayodele/ipqc-tracker/constants"
)

// ReportEntry is the outcome of one checkpoint field for one processed page.
type ReportEntry struct {
	Page       int                   `json:"page"`
	SrNo       int                   `json:"sr_no"`
	Checkpoint string                `json:"checkpoint"`
	Field      string                `json:"field"`
	Status     constants.FieldStatus `json:"status"`
	Value      string                `json:"value"`
	Reason     string                `json:"reason"`
}

// Report is the append-only extraction log of a processing run.
type Report struct {
	entries []ReportEntry
}

// Append adds entries at the end of the log.
func (r *Report) Append(es ...ReportEntry) {
	r.entries = append(r.entries, es...)
}

// Reset empties the log at the start of a full run.
func (r *Report) Reset() { r.entries = nil }

// Len is the number of entries.
func (r *Report) Len() int { return len(r.entries) }

// Entries returns a copy of the log in append order.
func (r *Report) Entries() []ReportEntry {
	out := make([]ReportEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Page returns the entries recorded for page.
func (r *Report) Page(page int) []ReportEntry {
	var out []ReportEntry
	for _, e := range r.entries {
		if e.Page == page {
			out = append(out, e)
		}
	}
	return out
}

// Summary counts entries per status.
type Summary struct {
	Success  int `json:"success"`
	Doubtful int `json:"doubtful"`
	Missing  int `json:"missing"`
	Manual   int `json:"manual"`
}

// Total is the number of counted entries.
func (s Summary) Total() int { return s.Success + s.Doubtful + s.Missing + s.Manual }

func (r *Report) Summary() Summary {
	var s Summary
	for _, e := range r.entries {
		switch e.Status {
		case constants.FieldStatusSuccess:
			s.Success++
		case constants.FieldStatusDoubtful:
			s.Doubtful++
		case constants.FieldStatusMissing:
			s.Missing++
		case constants.FieldStatusManual:
			s.Manual++
		}
	}
	return s
}

func (r *Report) MarshalJSON() ([]byte, error) {
	if r.entries == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(r.entries)
}

func (r *Report) UnmarshalJSON(b []byte) error {
	var es []ReportEntry
	if err := json.Unmarshal(b, &es); err != nil {
		return err
	}
	r.entries = es
	return nil
}
