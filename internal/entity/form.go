package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/joseph-ayodele/ipqc-tracker/constants"
)

// ResultKey is the manual-edit marker key for a checkpoint's scalar result.
const ResultKey = "result"

// Header holds the fields printed at the top of every check sheet page.
type Header struct {
	Date  string `json:"date,omitempty"`  // YYYY-MM-DD
	Time  string `json:"time,omitempty"`  // HH:MM
	Shift string `json:"shift,omitempty"` // Day, Night, Morning, A, B or C
	PoNo  string `json:"po_no,omitempty"`
}

// Merge copies every non-empty field of o into h. Empty fields of o never blank h.
func (h *Header) Merge(o Header) {
	if o.Date != "" {
		h.Date = o.Date
	}
	if o.Time != "" {
		h.Time = o.Time
	}
	if o.Shift != "" {
		h.Shift = o.Shift
	}
	if o.PoNo != "" {
		h.PoNo = o.PoNo
	}
}

// IsZero reports whether no header field is set.
func (h Header) IsZero() bool { return h == Header{} }

// CheckpointResult is the recorded outcome of one checkpoint.
type CheckpointResult struct {
	SrNo       int               `json:"sr_no"`
	Result     string            `json:"result,omitempty"`
	SubResults map[string]string `json:"sub_results,omitempty"`
	// Manual marks fields set by an operator, keyed by sub-key or ResultKey.
	Manual map[string]bool `json:"manual,omitempty"`
}

// Value returns the scalar result when subKey is empty, else the sub-result.
func (c *CheckpointResult) Value(subKey string) string {
	if subKey == "" {
		return c.Result
	}
	return c.SubResults[subKey]
}

// IsManual reports whether the field was set by an operator.
func (c *CheckpointResult) IsManual(subKey string) bool {
	if subKey == "" {
		subKey = ResultKey
	}
	return c.Manual[subKey]
}

// Set writes a value into the scalar result or a sub-result.
func (c *CheckpointResult) Set(subKey, value string) {
	if subKey == "" {
		c.Result = value
		return
	}
	if c.SubResults == nil {
		c.SubResults = make(map[string]string)
	}
	c.SubResults[subKey] = value
}

// SetManual writes a value and marks it as operator-entered.
func (c *CheckpointResult) SetManual(subKey, value string) {
	c.Set(subKey, value)
	if c.Manual == nil {
		c.Manual = make(map[string]bool)
	}
	if subKey == "" {
		subKey = ResultKey
	}
	c.Manual[subKey] = true
}

// HasData reports whether any result or sub-result is non-empty.
func (c *CheckpointResult) HasData() bool {
	if c.Result != "" {
		return true
	}
	for _, v := range c.SubResults {
		if v != "" {
			return true
		}
	}
	return false
}

// Form is one physical checklist with its header and checkpoint results in srNo order.
type Form struct {
	ID          uuid.UUID            `json:"id"`
	ChecklistID string               `json:"checklist_id"`
	Header      Header               `json:"header"`
	Checkpoints []CheckpointResult   `json:"checkpoints"`
	Status      constants.FormStatus `json:"status"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// NewForm creates a pending form with one empty result per checkpoint, srNo 1..count.
func NewForm(checklistID string, count int) *Form {
	now := time.Now().UTC()
	f := &Form{
		ID:          uuid.New(),
		ChecklistID: checklistID,
		Checkpoints: make([]CheckpointResult, count),
		Status:      constants.FormStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for i := range f.Checkpoints {
		f.Checkpoints[i].SrNo = i + 1
	}
	return f
}

// Checkpoint returns the result slot for srNo, or nil when out of range.
func (f *Form) Checkpoint(srNo int) *CheckpointResult {
	if srNo < 1 || srNo > len(f.Checkpoints) {
		return nil
	}
	return &f.Checkpoints[srNo-1]
}

// Advance moves the form to next, enforcing the lifecycle order.
// Advancing to the current status is a no-op.
func (f *Form) Advance(next constants.FormStatus) error {
	if f.Status == next {
		return nil
	}
	if !f.Status.CanTransition(next) {
		return fmt.Errorf("form %s: cannot move from %q to %q", f.ChecklistID, f.Status, next)
	}
	f.Status = next
	f.UpdatedAt = time.Now().UTC()
	return nil
}

// Clone returns a deep copy of the form.
func (f *Form) Clone() *Form {
	out := *f
	out.Checkpoints = make([]CheckpointResult, len(f.Checkpoints))
	for i, cp := range f.Checkpoints {
		c := CheckpointResult{SrNo: cp.SrNo, Result: cp.Result}
		if cp.SubResults != nil {
			c.SubResults = make(map[string]string, len(cp.SubResults))
			for k, v := range cp.SubResults {
				c.SubResults[k] = v
			}
		}
		if cp.Manual != nil {
			c.Manual = make(map[string]bool, len(cp.Manual))
			for k, v := range cp.Manual {
				c.Manual[k] = v
			}
		}
		out.Checkpoints[i] = c
	}
	return &out
}
