package checklists

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/ipqc-tracker/constants"
	"github.com/joseph-ayodele/ipqc-tracker/internal/common"
	"github.com/joseph-ayodele/ipqc-tracker/internal/export"
	"github.com/joseph-ayodele/ipqc-tracker/internal/ingest"
	"github.com/joseph-ayodele/ipqc-tracker/internal/pipeline"
	"github.com/joseph-ayodele/ipqc-tracker/internal/repository"
)

const page1Text = "Date :- 25/12/25\nTime :- 8:20\nShift Night\n" +
	"Shop Floor\nTemperature\n23℃\nHumidity\n45%"

type stubRecognizer struct{ text string }

func (s stubRecognizer) Recognize(context.Context, []byte) (string, error) { return s.text, nil }

type stubRasterizer struct{}

func (stubRasterizer) RasterizePage(_ context.Context, _ []byte, page int) ([]byte, error) {
	return []byte(fmt.Sprintf("page-%d", page)), nil
}

type stubPages struct{ n int }

func (s stubPages) PageCount(context.Context, []byte) (int, error) { return s.n, nil }

func newTestService(t *testing.T, pages PageCounter) (*Service, repository.FormRepository) {
	t.Helper()
	repo, err := repository.NewSQLiteRepository(filepath.Join(t.TempDir(), "ipqc.db"), nil)
	require.NoError(t, err)
	require.NoError(t, repo.Migrate(context.Background()))
	t.Cleanup(func() { _ = repo.Close() })

	proc := pipeline.NewProcessor(pipeline.Config{}, nil, stubRecognizer{text: page1Text}, stubRasterizer{}, nil, nil)
	return NewService(repo, proc, export.NewService(nil, nil), pages, nil, nil), repo
}

func textSource(t *testing.T, id string) ingest.Source {
	t.Helper()
	path := filepath.Join(t.TempDir(), id+".txt")
	require.NoError(t, os.WriteFile(path, []byte(page1Text), 0o644))
	src, err := ingest.SourceFromPath(path)
	require.NoError(t, err)
	return src
}

func actions(d *Details) []string {
	out := make([]string, 0, len(d.Activity))
	for _, a := range d.Activity {
		out = append(out, a.Action)
	}
	return out
}

func TestService_ProcessText(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	res, err := svc.Process(ctx, textSource(t, "CL-0001"))
	require.NoError(t, err)
	assert.Equal(t, []int{1}, res.Processed)
	assert.Empty(t, res.Failures)
	assert.Equal(t, "23°C", res.Form.Checkpoint(1).Result)

	d, err := svc.Show(ctx, "CL-0001")
	require.NoError(t, err)
	assert.Equal(t, constants.FormStatusOCRProcessed, d.Form.Status)
	assert.Equal(t, "2025-12-25", d.Form.Header.Date)
	assert.Equal(t, res.Report.Len(), d.Report.Len())
	assert.Equal(t, []string{repository.ActionProcessed}, actions(d))
	assert.Equal(t, "pages 1", d.Activity[0].Detail)
}

func TestService_ProcessPDF(t *testing.T) {
	svc, _ := newTestService(t, stubPages{n: 2})
	path := filepath.Join(t.TempDir(), "CL-0002.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))
	src, err := ingest.SourceFromPath(path)
	require.NoError(t, err)

	res, err := svc.Process(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, res.Processed, "page count caps the run")
}

func TestService_ProcessRejectsBadID(t *testing.T) {
	svc, _ := newTestService(t, nil)
	_, err := svc.Process(context.Background(), ingest.Source{ChecklistID: "../etc", Kind: ingest.KindText})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestService_ReprocessKeepsManualEdits(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()
	src := textSource(t, "CL-0003")

	_, err := svc.Process(ctx, src)
	require.NoError(t, err)

	entry, err := svc.Edit(ctx, EditRequest{ChecklistID: "CL-0003", SrNo: 1, Value: "24°C"})
	require.NoError(t, err)
	assert.Equal(t, constants.FieldStatusManual, entry.Status)

	res, err := svc.Process(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, "24°C", res.Form.Checkpoint(1).Result)
	assert.Equal(t, constants.FormStatusEdited, res.Form.Status)

	d, err := svc.Show(ctx, "CL-0003")
	require.NoError(t, err)
	assert.Equal(t, []string{repository.ActionProcessed, repository.ActionEdited, repository.ActionProcessed}, actions(d))
}

func TestService_EditValidation(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()
	_, err := svc.Process(ctx, textSource(t, "CL-0004"))
	require.NoError(t, err)

	_, err = svc.Edit(ctx, EditRequest{ChecklistID: "CL-0004", SrNo: 0, Value: "x"})
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = svc.Edit(ctx, EditRequest{ChecklistID: "CL-9999", SrNo: 1, Value: "x"})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestService_SaveAndExport(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()
	_, err := svc.Process(ctx, textSource(t, "CL-0005"))
	require.NoError(t, err)

	form, err := svc.Save(ctx, "CL-0005")
	require.NoError(t, err)
	assert.Equal(t, constants.FormStatusSaved, form.Status)

	out, err := svc.Export(ctx, "CL-0005", export.FormatJSON)
	require.NoError(t, err)
	var doc export.Document
	require.NoError(t, json.Unmarshal(out, &doc))
	assert.Equal(t, "CL-0005", doc.Form.ChecklistID)
	assert.NotEmpty(t, doc.Report)

	d, err := svc.Show(ctx, "CL-0005")
	require.NoError(t, err)
	assert.Equal(t, constants.FormStatusExported, d.Form.Status)
	assert.Equal(t, []string{repository.ActionProcessed, repository.ActionSaved, repository.ActionExported}, actions(d))
}

func TestService_SaveUnknown(t *testing.T) {
	svc, _ := newTestService(t, nil)
	_, err := svc.Save(context.Background(), "CL-0404")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestService_List(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()
	for _, id := range []string{"CL-0010", "CL-0011"} {
		_, err := svc.Process(ctx, textSource(t, id))
		require.NoError(t, err)
	}
	_, err := svc.Save(ctx, "CL-0011")
	require.NoError(t, err)

	all, err := svc.List(ctx, repository.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	saved, err := svc.List(ctx, repository.ListFilter{Status: constants.FormStatusSaved})
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "CL-0011", saved[0].ChecklistID)

	_, err = svc.List(ctx, repository.ListFilter{Status: "archived"})
	assert.Error(t, err)
}
