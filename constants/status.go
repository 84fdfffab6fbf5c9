package constants

// FormStatus is the lifecycle status of an IPQC form.
type FormStatus string

// Stable values (stored as-is in the forms table).
const (
	FormStatusPending      FormStatus = "pending"       // created, nothing extracted yet
	FormStatusOCRProcessed FormStatus = "ocr_processed" // at least one page extracted
	FormStatusEdited       FormStatus = "edited"        // operator changed a value
	FormStatusSaved        FormStatus = "saved"         // persisted on explicit save
	FormStatusExported     FormStatus = "exported"      // written to xlsx/json
)

var formStatusRank = map[FormStatus]int{
	FormStatusPending:      0,
	FormStatusOCRProcessed: 1,
	FormStatusEdited:       2,
	FormStatusSaved:        3,
	FormStatusExported:     4,
}

// FormStatuses lists every form status in lifecycle order.
func FormStatuses() []FormStatus {
	return []FormStatus{FormStatusPending, FormStatusOCRProcessed, FormStatusEdited, FormStatusSaved, FormStatusExported}
}

// Valid reports whether s is a known form status.
func (s FormStatus) Valid() bool {
	_, ok := formStatusRank[s]
	return ok
}

// Rank is the position of s in the lifecycle, or -1 when unknown.
func (s FormStatus) Rank() int {
	if r, ok := formStatusRank[s]; ok {
		return r
	}
	return -1
}

// CanTransition reports whether a form may move from s to next.
// Moves are forward-only, except that a saved form may go back to edited.
func (s FormStatus) CanTransition(next FormStatus) bool {
	if !s.Valid() || !next.Valid() {
		return false
	}
	if s == FormStatusSaved && next == FormStatusEdited {
		return true
	}
	return next.Rank() >= s.Rank()
}

// FieldStatus classifies a single extracted field in the extraction report.
type FieldStatus string

const (
	FieldStatusSuccess  FieldStatus = "success"
	FieldStatusDoubtful FieldStatus = "doubtful"
	FieldStatusMissing  FieldStatus = "missing"
	// FieldStatusManual marks a field whose value was entered by an operator.
	FieldStatusManual FieldStatus = "manual"
)

// Valid reports whether s is a known field status.
func (s FieldStatus) Valid() bool {
	switch s {
	case FieldStatusSuccess, FieldStatusDoubtful, FieldStatusMissing, FieldStatusManual:
		return true
	}
	return false
}
