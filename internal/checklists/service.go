package checklists

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/ipqc-tracker/constants"
	"github.com/joseph-ayodele/ipqc-tracker/internal/catalog"
	"github.com/joseph-ayodele/ipqc-tracker/internal/common"
	"github.com/joseph-ayodele/ipqc-tracker/internal/entity"
	"github.com/joseph-ayodele/ipqc-tracker/internal/export"
	"github.com/joseph-ayodele/ipqc-tracker/internal/ingest"
	"github.com/joseph-ayodele/ipqc-tracker/internal/pipeline"
	"github.com/joseph-ayodele/ipqc-tracker/internal/reconcile"
	"github.com/joseph-ayodele/ipqc-tracker/internal/repository"
)

// PageCounter reports the number of pages of a PDF.
type PageCounter interface {
	PageCount(ctx context.Context, doc []byte) (int, error)
}

// Service handles checklist use cases: process, edit, save, export, show, list.
type Service struct {
	repo      repository.FormRepository
	processor *pipeline.Processor
	exporter  *export.Service
	pages     PageCounter
	catalog   *catalog.Catalog
	logger    *slog.Logger
}

// NewService creates a checklist service. pages may be nil, in which case a
// PDF is assumed to hold the whole check sheet.
func NewService(repo repository.FormRepository, proc *pipeline.Processor, exp *export.Service, pages PageCounter, cat *catalog.Catalog, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cat == nil {
		cat = catalog.Default()
	}
	return &Service{repo: repo, processor: proc, exporter: exp, pages: pages, catalog: cat, logger: logger}
}

// ProcessResult is the outcome of one processing run.
type ProcessResult struct {
	Form      *entity.Form           `json:"form"`
	Report    *reconcile.Report      `json:"report"`
	Processed []int                  `json:"processed_pages"`
	Failures  []pipeline.PageFailure `json:"failures,omitempty"`
}

// Process runs the pipeline over src and persists the result. A checklist
// that was processed before is loaded first, so manual edits and values the
// new run did not find are kept.
func (s *Service) Process(ctx context.Context, src ingest.Source) (*ProcessResult, error) {
	if err := common.NewValidator().Field("checklist_id", src.ChecklistID, common.Required, common.ChecklistID).Err(); err != nil {
		return nil, err
	}
	ctx = common.WithChecklistID(ctx, src.ChecklistID)
	s.logger.Info("checklist.process.start", "checklist_id", src.ChecklistID, "kind", src.Kind, "path", src.Path,
		"request_id", common.RequestIDFromContext(ctx))

	form, _, err := s.repo.LoadForm(ctx, src.ChecklistID)
	switch {
	case errors.Is(err, common.ErrNotFound):
		form = entity.NewForm(src.ChecklistID, s.catalog.Len())
		s.logger.Info("creating checklist", "checklist_id", src.ChecklistID)
	case err != nil:
		return nil, err
	}

	session := pipeline.NewSession(form)
	switch src.Kind {
	case ingest.KindPDF:
		doc, err := os.ReadFile(src.Path)
		if err != nil {
			return nil, common.NewAppError(common.CodeInvalid, "read "+src.Path, err)
		}
		n := catalog.PageCount
		if s.pages != nil {
			if c, err := s.pages.PageCount(ctx, doc); err != nil {
				s.logger.Warn("page count failed; assuming full sheet", "checklist_id", src.ChecklistID, "error", err)
			} else if c < n {
				n = c
			}
		}
		if _, err := s.processor.ProcessDocument(ctx, session, doc, n); err != nil {
			return nil, err
		}
	case ingest.KindText, ingest.KindDir:
		pages, err := ingest.LoadPages(src)
		if err != nil {
			return nil, common.NewAppError(common.CodeInvalid, "load pages", err)
		}
		if _, err := s.processor.ProcessChecklist(ctx, session, pages); err != nil {
			return nil, err
		}
	default:
		return nil, common.InvalidInputf("unknown source kind %q", src.Kind)
	}

	if err := s.repo.SaveForm(ctx, session.Form, session.Report); err != nil {
		return nil, err
	}
	s.logActivity(ctx, src.ChecklistID, repository.ActionProcessed, processDetail(session))

	return &ProcessResult{
		Form:      session.Form,
		Report:    session.Report,
		Processed: session.ProcessedPages(),
		Failures:  session.Failures,
	}, nil
}

func processDetail(s *pipeline.Session) string {
	ok := make([]string, 0, len(s.Processed))
	for _, p := range s.ProcessedPages() {
		ok = append(ok, strconv.Itoa(p))
	}
	d := "pages " + strings.Join(ok, ",")
	if len(s.Failures) > 0 {
		failed := make([]string, 0, len(s.Failures))
		for _, f := range s.Failures {
			failed = append(failed, strconv.Itoa(f.Page))
		}
		d += "; failed " + strings.Join(failed, ",")
	}
	return d
}

// EditRequest is an operator correction of one checkpoint field.
type EditRequest struct {
	ChecklistID string
	SrNo        int
	SubKey      string
	Value       string
}

// Edit records a manual value, appends it to the report and persists the form.
func (s *Service) Edit(ctx context.Context, req EditRequest) (reconcile.ReportEntry, error) {
	v := common.NewValidator().
		Field("checklist_id", req.ChecklistID, common.Required, common.ChecklistID).
		Field("sr_no", req.SrNo, common.IntRange(1, s.catalog.Len())).
		Field("value", req.Value, common.MaxLength(200))
	if err := v.Err(); err != nil {
		return reconcile.ReportEntry{}, err
	}

	form, report, err := s.repo.LoadForm(ctx, req.ChecklistID)
	if err != nil {
		return reconcile.ReportEntry{}, err
	}
	entry, err := s.processor.Applier().ApplyManualEdit(form, req.SrNo, req.SubKey, req.Value)
	if err != nil {
		return reconcile.ReportEntry{}, err
	}
	report.Append(entry)
	if err := s.repo.SaveForm(ctx, form, report); err != nil {
		return reconcile.ReportEntry{}, err
	}
	s.logActivity(ctx, req.ChecklistID, repository.ActionEdited, fmt.Sprintf("sr %d %s", req.SrNo, entry.Field))
	return entry, nil
}

// Save marks the form as saved.
func (s *Service) Save(ctx context.Context, checklistID string) (*entity.Form, error) {
	form, report, err := s.repo.LoadForm(ctx, checklistID)
	if err != nil {
		return nil, err
	}
	if form.Status == constants.FormStatusPending {
		return nil, common.InvalidInputf("form %s has not been processed", checklistID)
	}
	if err := form.Advance(constants.FormStatusSaved); err != nil {
		return nil, common.NewAppError(common.CodeInvalid, "save", err)
	}
	if err := s.repo.SaveForm(ctx, form, report); err != nil {
		return nil, err
	}
	s.logActivity(ctx, checklistID, repository.ActionSaved, "")
	return form, nil
}

// Export renders the form and records the exported status.
func (s *Service) Export(ctx context.Context, checklistID string, format export.Format) ([]byte, error) {
	form, report, err := s.repo.LoadForm(ctx, checklistID)
	if err != nil {
		return nil, err
	}
	out, err := s.exporter.Export(form, report, format)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SaveForm(ctx, form, report); err != nil {
		return nil, err
	}
	s.logActivity(ctx, checklistID, repository.ActionExported, string(format))
	return out, nil
}

// Details is everything stored about one checklist.
type Details struct {
	Form     *entity.Form          `json:"form"`
	Report   *reconcile.Report     `json:"report"`
	Summary  reconcile.Summary     `json:"summary"`
	Activity []repository.Activity `json:"activity"`
}

func (s *Service) Show(ctx context.Context, checklistID string) (*Details, error) {
	form, report, err := s.repo.LoadForm(ctx, checklistID)
	if err != nil {
		return nil, err
	}
	acts, err := s.repo.ListActivity(ctx, checklistID)
	if err != nil {
		return nil, err
	}
	return &Details{Form: form, Report: report, Summary: report.Summary(), Activity: acts}, nil
}

func (s *Service) List(ctx context.Context, f repository.ListFilter) ([]repository.FormSummary, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, common.InvalidInputf("unknown status %q", f.Status)
	}
	return s.repo.ListForms(ctx, f)
}

// logActivity never fails the operation it records.
func (s *Service) logActivity(ctx context.Context, checklistID, action, detail string) {
	if err := s.repo.LogActivity(ctx, checklistID, action, detail); err != nil {
		s.logger.Warn("failed to log activity", "checklist_id", checklistID, "action", action, "error", err)
	}
}
