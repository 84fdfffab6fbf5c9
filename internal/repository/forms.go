package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/ipqc-tracker/constants"
	"github.com/joseph-ayodele/ipqc-tracker/internal/entity"
	"github.com/joseph-ayodele/ipqc-tracker/internal/reconcile"
)

// Activity actions written to the form activity log.
const (
	ActionProcessed = "processed"
	ActionEdited    = "edited"
	ActionSaved     = "saved"
	ActionExported  = "exported"
)

// FormSummary is one row of a form listing.
type FormSummary struct {
	ID          uuid.UUID            `json:"id"`
	ChecklistID string               `json:"checklist_id"`
	Status      constants.FormStatus `json:"status"`
	Header      entity.Header        `json:"header"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// Activity is one entry of a form's activity log.
type Activity struct {
	ID          uuid.UUID `json:"id"`
	ChecklistID string    `json:"checklist_id"`
	Action      string    `json:"action"`
	Detail      string    `json:"detail,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ListFilter narrows ListForms. Zero values mean no filter.
type ListFilter struct {
	Status constants.FormStatus
	Limit  int
}

// FormRepository persists forms keyed by checklist ID together with the
// report of their latest processing run.
type FormRepository interface {
	Migrate(ctx context.Context) error
	// SaveForm inserts or replaces the form with the same checklist ID.
	SaveForm(ctx context.Context, form *entity.Form, report *reconcile.Report) error
	// LoadForm returns common.ErrNotFound for an unknown checklist ID.
	LoadForm(ctx context.Context, checklistID string) (*entity.Form, *reconcile.Report, error)
	ListForms(ctx context.Context, f ListFilter) ([]FormSummary, error)
	LogActivity(ctx context.Context, checklistID, action, detail string) error
	ListActivity(ctx context.Context, checklistID string) ([]Activity, error)
	Ping(ctx context.Context) error
	Close() error
}

// formRow is the stored shape of a form; both stores serialize through it.
type formRow struct {
	ID          string
	ChecklistID string
	Status      string
	Header      []byte
	Checkpoints []byte
	Report      []byte
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func toRow(form *entity.Form, report *reconcile.Report) (formRow, error) {
	header, err := json.Marshal(form.Header)
	if err != nil {
		return formRow{}, fmt.Errorf("marshal header: %w", err)
	}
	cps, err := json.Marshal(form.Checkpoints)
	if err != nil {
		return formRow{}, fmt.Errorf("marshal checkpoints: %w", err)
	}
	if report == nil {
		report = &reconcile.Report{}
	}
	rep, err := report.MarshalJSON()
	if err != nil {
		return formRow{}, fmt.Errorf("marshal report: %w", err)
	}
	return formRow{
		ID:          form.ID.String(),
		ChecklistID: form.ChecklistID,
		Status:      string(form.Status),
		Header:      header,
		Checkpoints: cps,
		Report:      rep,
		CreatedAt:   form.CreatedAt.UTC(),
		UpdatedAt:   form.UpdatedAt.UTC(),
	}, nil
}

func (r formRow) toForm() (*entity.Form, *reconcile.Report, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("parse form id %q: %w", r.ID, err)
	}
	f := &entity.Form{
		ID:          id,
		ChecklistID: r.ChecklistID,
		Status:      constants.FormStatus(r.Status),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if len(r.Header) > 0 {
		if err := json.Unmarshal(r.Header, &f.Header); err != nil {
			return nil, nil, fmt.Errorf("unmarshal header: %w", err)
		}
	}
	if err := json.Unmarshal(r.Checkpoints, &f.Checkpoints); err != nil {
		return nil, nil, fmt.Errorf("unmarshal checkpoints: %w", err)
	}
	rep := &reconcile.Report{}
	if len(r.Report) > 0 {
		if err := rep.UnmarshalJSON(r.Report); err != nil {
			return nil, nil, fmt.Errorf("unmarshal report: %w", err)
		}
	}
	return f, rep, nil
}

func summaryFromRow(id, checklistID, status string, header []byte, updatedAt time.Time) (FormSummary, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return FormSummary{}, fmt.Errorf("parse form id %q: %w", id, err)
	}
	s := FormSummary{ID: uid, ChecklistID: checklistID, Status: constants.FormStatus(status), UpdatedAt: updatedAt}
	if len(header) > 0 {
		if err := json.Unmarshal(header, &s.Header); err != nil {
			return FormSummary{}, fmt.Errorf("unmarshal header: %w", err)
		}
	}
	return s, nil
}
