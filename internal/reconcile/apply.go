package reconcile

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/ipqc-tracker/constants"
	"github.com/joseph-ayodele/ipqc-tracker/internal/catalog"
	"github.com/joseph-ayodele/ipqc-tracker/internal/common"
	"github.com/joseph-ayodele/ipqc-tracker/internal/entity"
	"github.com/joseph-ayodele/ipqc-tracker/internal/extract"
)

// placeholders are values OCR reads from an unfilled cell. "ok" is a real answer.
var placeholders = map[string]struct{}{
	"placeholder": {},
	"n/a":         {},
	"na":          {},
	"-":           {},
}

// Classify returns the report status of an extracted value.
func Classify(value string) constants.FieldStatus {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return constants.FieldStatusMissing
	}
	if _, ok := placeholders[v]; ok {
		return constants.FieldStatusDoubtful
	}
	return constants.FieldStatusSuccess
}

// Applier writes merged page fields into a form and reports each outcome.
type Applier struct {
	catalog *catalog.Catalog
	logger  *slog.Logger
}

// NewApplier creates an applier over cat, falling back to the default catalog.
func NewApplier(cat *catalog.Catalog, logger *slog.Logger) *Applier {
	if cat == nil {
		cat = catalog.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Applier{catalog: cat, logger: logger}
}

// Apply maps fm onto the checkpoints printed on page and returns at least one
// report entry per checkpoint.
//
// Only fields with a non-blank value are written, so an empty or partial
// re-extraction keeps earlier values. Operator-entered fields are never
// overwritten. A sub-field checkpoint with no extracted value at all is
// reported as one aggregate missing entry.
func (a *Applier) Apply(page int, fm extract.FieldMap, form *entity.Form) []ReportEntry {
	var out []ReportEntry
	written := 0
	for _, cp := range a.catalog.ByPage(page) {
		slot := form.Checkpoint(cp.SrNo)
		b, ok := bindings[cp.SrNo]
		if slot == nil || !ok {
			a.logger.Warn("reconcile.apply.unbound", "page", page, "sr_no", cp.SrNo, "has_slot", slot != nil)
			out = append(out, ReportEntry{
				Page: page, SrNo: cp.SrNo, Checkpoint: cp.Description, Field: entity.ResultKey,
				Status: constants.FieldStatusMissing, Value: "-",
				Reason: "no field binding for this checkpoint",
			})
			continue
		}

		if !cp.HasSubFields() {
			e, w := a.track(page, cp, slot, "", b.result, fm)
			out = append(out, e)
			if w {
				written++
			}
			continue
		}

		if !anySub(cp, b, fm) && !anyManual(cp, slot) {
			names := make([]string, 0, len(cp.SubFieldKeys))
			for _, k := range cp.SubFieldKeys {
				if s, ok := b.subs[k]; ok {
					names = append(names, s.name)
				}
			}
			out = append(out, ReportEntry{
				Page: page, SrNo: cp.SrNo, Checkpoint: cp.Description, Field: strings.Join(cp.SubFieldKeys, ", "),
				Status: constants.FieldStatusMissing, Value: "-",
				Reason: missingReason(strings.Join(names, ", "), slot.HasData()),
			})
			continue
		}
		for _, k := range cp.SubFieldKeys {
			s, ok := b.subs[k]
			if !ok {
				s = source{name: k, read: func(extract.FieldMap) string { return "" }}
			}
			e, w := a.track(page, cp, slot, k, s, fm)
			out = append(out, e)
			if w {
				written++
			}
		}
	}
	a.logger.Debug("reconcile.apply.done", "page", page, "entries", len(out), "written", written)
	return out
}

// track classifies one field, writes it when extraction produced a value and
// the field is not operator-owned, and returns its report entry.
func (a *Applier) track(page int, cp catalog.Checkpoint, slot *entity.CheckpointResult, subKey string, s source, fm extract.FieldMap) (ReportEntry, bool) {
	field := subKey
	if field == "" {
		field = entity.ResultKey
	}
	e := ReportEntry{Page: page, SrNo: cp.SrNo, Checkpoint: cp.Description, Field: field}
	v := s.read(fm)

	if slot.IsManual(subKey) {
		e.Status = constants.FieldStatusManual
		e.Value = slot.Value(subKey)
		if v != "" && v != e.Value {
			e.Reason = fmt.Sprintf("manual value kept; extraction read %q", v)
		} else {
			e.Reason = "manual value kept"
		}
		return e, false
	}

	e.Status = Classify(v)
	switch e.Status {
	case constants.FieldStatusMissing:
		e.Value = "-"
		e.Reason = missingReason(s.name, slot.Value(subKey) != "")
		return e, false
	case constants.FieldStatusDoubtful:
		e.Reason = fmt.Sprintf("placeholder value %q read; the entry was not legible", v)
	default:
		e.Reason = fmt.Sprintf("read from %q", s.name)
	}
	e.Value = v
	slot.Set(subKey, v)
	return e, true
}

func missingReason(name string, kept bool) string {
	r := fmt.Sprintf("no data for %q in the OCR text; the cell may be blank or unreadable", name)
	if kept {
		r += "; earlier value kept"
	}
	return r
}

func anySub(cp catalog.Checkpoint, b binding, fm extract.FieldMap) bool {
	for _, k := range cp.SubFieldKeys {
		if s, ok := b.subs[k]; ok && s.read(fm) != "" {
			return true
		}
	}
	return false
}

func anyManual(cp catalog.Checkpoint, slot *entity.CheckpointResult) bool {
	for _, k := range cp.SubFieldKeys {
		if slot.IsManual(k) {
			return true
		}
	}
	return false
}

// ApplyManualEdit records an operator value for srNo, or for its subKey when
// the checkpoint has sub-fields, and moves the form to edited. The field is
// marked manual so later extraction leaves it alone.
func (a *Applier) ApplyManualEdit(form *entity.Form, srNo int, subKey, value string) (ReportEntry, error) {
	cp, ok := a.catalog.Lookup(srNo)
	if !ok {
		return ReportEntry{}, common.InvalidInputf("checkpoint %d is not in the catalog", srNo)
	}
	subKey = strings.TrimSpace(subKey)
	switch {
	case cp.HasSubFields() && subKey == "":
		return ReportEntry{}, common.InvalidInputf("checkpoint %d needs one of the sub-fields %v", srNo, cp.SubFieldKeys)
	case !cp.HasSubFields() && subKey != "":
		return ReportEntry{}, common.InvalidInputf("checkpoint %d has no sub-field %q", srNo, subKey)
	case cp.HasSubFields() && !cp.HasSubKey(subKey):
		return ReportEntry{}, common.InvalidInputf("checkpoint %d has no sub-field %q", srNo, subKey)
	}
	slot := form.Checkpoint(srNo)
	if slot == nil {
		return ReportEntry{}, common.InvalidInputf("form %s has no checkpoint %d", form.ChecklistID, srNo)
	}
	if err := form.Advance(constants.FormStatusEdited); err != nil {
		return ReportEntry{}, common.NewAppError(common.CodeInvalid, "manual edit", err)
	}

	value = strings.TrimSpace(value)
	slot.SetManual(subKey, value)

	field := subKey
	if field == "" {
		field = entity.ResultKey
	}
	a.logger.Info("reconcile.manual_edit", "checklist_id", form.ChecklistID, "sr_no", srNo, "field", field)
	return ReportEntry{
		Page: cp.Page, SrNo: srNo, Checkpoint: cp.Description, Field: field,
		Status: constants.FieldStatusManual, Value: value, Reason: "entered by operator",
	}, nil
}
