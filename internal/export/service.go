package export

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/ipqc-tracker/constants"
	"github.com/joseph-ayodele/ipqc-tracker/internal/catalog"
	"github.com/joseph-ayodele/ipqc-tracker/internal/common"
	"github.com/joseph-ayodele/ipqc-tracker/internal/entity"
	"github.com/joseph-ayodele/ipqc-tracker/internal/reconcile"
)

// Format is an export file format.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
)

// ParseFormat accepts a format name or a file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".") {
	case "xlsx", "excel":
		return FormatXLSX, nil
	case "json":
		return FormatJSON, nil
	}
	return "", common.InvalidInputf("unknown export format %q", s)
}

// Sheet names of the workbook.
const (
	SheetChecklist = "Checklist"
	SheetReport    = "Report"
)

// Document is the JSON export: the form, its report and a status summary.
type Document struct {
	Form       *entity.Form            `json:"form"`
	Report     []reconcile.ReportEntry `json:"report"`
	Summary    reconcile.Summary       `json:"summary"`
	ExportedAt time.Time               `json:"exported_at"`
}

// Service renders forms as files and moves them to the exported status.
type Service struct {
	catalog *catalog.Catalog
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(cat *catalog.Catalog, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cat == nil {
		cat = catalog.Default()
	}
	return &Service{catalog: cat, logger: logger, now: time.Now}
}

// Export renders form in the given format and advances it to exported.
// A form that has never been processed or edited cannot be exported.
func (s *Service) Export(form *entity.Form, report *reconcile.Report, format Format) ([]byte, error) {
	if form.Status == constants.FormStatusPending {
		return nil, common.InvalidInputf("form %s has not been processed", form.ChecklistID)
	}
	if !form.Status.CanTransition(constants.FormStatusExported) {
		return nil, common.InvalidInputf("form %s cannot be exported from %q", form.ChecklistID, form.Status)
	}
	if report == nil {
		report = &reconcile.Report{}
	}

	var (
		out []byte
		err error
	)
	switch format {
	case FormatXLSX:
		out, err = s.XLSX(form, report)
	case FormatJSON:
		out, err = s.JSON(form, report)
	default:
		return nil, common.InvalidInputf("unknown export format %q", format)
	}
	if err != nil {
		return nil, err
	}
	if err := form.Advance(constants.FormStatusExported); err != nil {
		return nil, common.NewAppError(common.CodeInvalid, "export", err)
	}
	return out, nil
}

// JSON renders the form and report as an indented JSON document.
func (s *Service) JSON(form *entity.Form, report *reconcile.Report) ([]byte, error) {
	entries := report.Entries()
	doc := Document{
		Form:       form,
		Report:     entries,
		Summary:    report.Summary(),
		ExportedAt: s.now().UTC(),
	}
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("json export: %w", err)
	}
	s.logger.Info("export.json.ok", "checklist_id", form.ChecklistID, "entries", len(entries))
	return b, nil
}

var checklistHeaders = []string{"Sr. No.", "Page", "Stage", "Checkpoint", "Criteria", "Field", "Result", "Manual"}

var reportHeaders = []string{"Page", "Sr. No.", "Checkpoint", "Field", "Status", "Value", "Reason"}

// XLSX returns a workbook with the checklist sheet (header block, then one
// row per checkpoint or sub-field) and the report sheet.
func (s *Service) XLSX(form *entity.Form, report *reconcile.Report) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetChecklist); err != nil {
		return nil, fmt.Errorf("xlsx rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetReport); err != nil {
		return nil, fmt.Errorf("xlsx new sheet: %w", err)
	}
	idx, _ := f.GetSheetIndex(SheetChecklist)
	f.SetActiveSheet(idx)

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("xlsx style: %w", err)
	}

	rows := s.writeChecklist(f, form, bold)
	entries := report.Entries()
	writeReport(f, entries, bold)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"checklist_id", form.ChecklistID,
		"rows", rows,
		"report_rows", len(entries),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func (s *Service) writeChecklist(f *excelize.File, form *entity.Form, bold int) int {
	const sheet = SheetChecklist
	set := func(col, row int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, v)
	}

	block := [][2]string{
		{"Checklist ID", form.ChecklistID},
		{"Date", form.Header.Date},
		{"Time", form.Header.Time},
		{"Shift", form.Header.Shift},
		{"PO No.", form.Header.PoNo},
		{"Status", string(form.Status)},
	}
	for i, kv := range block {
		set(1, i+1, kv[0])
		set(2, i+1, kv[1])
	}
	_ = f.SetCellStyle(sheet, "A1", fmt.Sprintf("A%d", len(block)), bold)

	hdrRow := len(block) + 2
	for i, h := range checklistHeaders {
		set(i+1, hdrRow, h)
	}
	first, _ := excelize.CoordinatesToCellName(1, hdrRow)
	last, _ := excelize.CoordinatesToCellName(len(checklistHeaders), hdrRow)
	_ = f.SetCellStyle(sheet, first, last, bold)

	row := hdrRow + 1
	written := 0
	for _, cp := range s.catalog.All() {
		slot := form.Checkpoint(cp.SrNo)
		if slot == nil {
			continue
		}
		keys := []string{""}
		if cp.HasSubFields() {
			keys = cp.SubFieldKeys
		}
		for _, k := range keys {
			field := k
			if field == "" {
				field = entity.ResultKey
			}
			manual := ""
			if slot.IsManual(k) {
				manual = "yes"
			}
			set(1, row, cp.SrNo)
			set(2, row, cp.Page)
			set(3, row, cp.Stage)
			set(4, row, cp.Description)
			set(5, row, cp.Criteria)
			set(6, row, field)
			set(7, row, slot.Value(k))
			set(8, row, manual)
			row++
			written++
		}
	}

	_ = f.SetColWidth(sheet, "A", "B", 10)
	_ = f.SetColWidth(sheet, "C", "C", 22)
	_ = f.SetColWidth(sheet, "D", "E", 40)
	_ = f.SetColWidth(sheet, "F", "F", 12)
	_ = f.SetColWidth(sheet, "G", "G", 48)
	_ = f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      hdrRow,
		TopLeftCell: fmt.Sprintf("A%d", hdrRow+1),
		ActivePane:  "bottomLeft",
	})
	return written
}

func writeReport(f *excelize.File, entries []reconcile.ReportEntry, bold int) {
	const sheet = SheetReport
	set := func(col, row int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
	for i, h := range reportHeaders {
		set(i+1, 1, h)
	}
	last, _ := excelize.CoordinatesToCellName(len(reportHeaders), 1)
	_ = f.SetCellStyle(sheet, "A1", last, bold)

	for i, e := range entries {
		row := i + 2
		set(1, row, e.Page)
		set(2, row, e.SrNo)
		set(3, row, e.Checkpoint)
		set(4, row, e.Field)
		set(5, row, string(e.Status))
		set(6, row, e.Value)
		set(7, row, truncate(e.Reason, 200))
	}
	_ = f.SetColWidth(sheet, "A", "B", 8)
	_ = f.SetColWidth(sheet, "C", "C", 40)
	_ = f.SetColWidth(sheet, "D", "E", 12)
	_ = f.SetColWidth(sheet, "F", "F", 32)
	_ = f.SetColWidth(sheet, "G", "G", 72)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n == 1 {
		return string(r[:1])
	}
	return string(r[:n-1]) + "…"
}
