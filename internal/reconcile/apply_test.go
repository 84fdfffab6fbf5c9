package reconcile

import (
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/ipqc-tracker/constants"
	"github.com/joseph-ayodele/ipqc-tracker/internal/catalog"
	"github.com/joseph-ayodele/ipqc-tracker/internal/common"
	"github.com/joseph-ayodele/ipqc-tracker/internal/entity"
	"github.com/joseph-ayodele/ipqc-tracker/internal/extract"
)

func newForm(t *testing.T) (*Applier, *entity.Form) {
	t.Helper()
	cat := catalog.Default()
	return NewApplier(cat, nil), entity.NewForm("CL-0001", cat.Len())
}

func entriesFor(es []ReportEntry, srNo int) []ReportEntry {
	var out []ReportEntry
	for _, e := range es {
		if e.SrNo == srNo {
			out = append(out, e)
		}
	}
	return out
}

func TestBindings_CoverCatalog(t *testing.T) {
	for _, cp := range catalog.Default().All() {
		b, ok := bindings[cp.SrNo]
		require.True(t, ok, "sr %d has no binding", cp.SrNo)
		if !cp.HasSubFields() {
			assert.NotNil(t, b.result.read, "sr %d", cp.SrNo)
			assert.Empty(t, b.subs, "sr %d", cp.SrNo)
			continue
		}
		var got []string
		for k := range b.subs {
			got = append(got, k)
		}
		want := append([]string(nil), cp.SubFieldKeys...)
		sort.Strings(got)
		sort.Strings(want)
		assert.Equal(t, want, got, "sr %d", cp.SrNo)
	}
}

func TestApply_ShopFloor(t *testing.T) {
	a, form := newForm(t)
	es := a.Apply(1, extract.FieldMap{"temperature": "23°C", "humidity": "45%"}, form)

	assert.Equal(t, "23°C", form.Checkpoint(1).Result)
	assert.Equal(t, "45%", form.Checkpoint(2).Result)

	temp := entriesFor(es, 1)
	require.Len(t, temp, 1)
	assert.Equal(t, constants.FieldStatusSuccess, temp[0].Status)
	assert.Equal(t, "Temperature", temp[0].Checkpoint)
	assert.Equal(t, "23°C", temp[0].Value)
	assert.Equal(t, constants.FieldStatusSuccess, entriesFor(es, 2)[0].Status)
}

func TestApply_PartialReapplyKeepsValues(t *testing.T) {
	a, form := newForm(t)
	a.Apply(1, extract.FieldMap{"temperature": "23°C"}, form)
	es := a.Apply(1, extract.FieldMap{}, form)

	assert.Equal(t, "23°C", form.Checkpoint(1).Result)
	e := entriesFor(es, 1)[0]
	assert.Equal(t, constants.FieldStatusMissing, e.Status)
	assert.Contains(t, e.Reason, "earlier value kept")

	a.Apply(1, extract.FieldMap{"temperature": "24°C"}, form)
	assert.Equal(t, "24°C", form.Checkpoint(1).Result)
}

func TestApply_ReportCompleteness(t *testing.T) {
	cat := catalog.Default()
	for page := 1; page <= catalog.PageCount; page++ {
		a, form := newForm(t)
		es := a.Apply(page, extract.FieldMap{}, form)
		for _, cp := range cat.ByPage(page) {
			got := entriesFor(es, cp.SrNo)
			require.NotEmpty(t, got, "page %d sr %d", page, cp.SrNo)
			for _, e := range got {
				assert.Equal(t, constants.FieldStatusMissing, e.Status)
				assert.Equal(t, page, e.Page)
			}
		}
	}
}

func TestApply_Classification(t *testing.T) {
	tests := []struct {
		value string
		want  constants.FieldStatus
	}{
		{"N/A", constants.FieldStatusDoubtful},
		{"placeholder", constants.FieldStatusDoubtful},
		{"-", constants.FieldStatusDoubtful},
		{"na", constants.FieldStatusDoubtful},
		{"OK", constants.FieldStatusSuccess},
		{"45%", constants.FieldStatusSuccess},
		{"   ", constants.FieldStatusMissing},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.value))
		})
	}

	a, form := newForm(t)
	es := a.Apply(1, extract.FieldMap{"humidity": "N/A"}, form)
	e := entriesFor(es, 2)[0]
	assert.Equal(t, constants.FieldStatusDoubtful, e.Status)
	assert.Equal(t, "N/A", form.Checkpoint(2).Result)
}

func TestApply_GridFields(t *testing.T) {
	a, form := newForm(t)
	fm := extract.FieldMap{"stringLengthTS01A": "1163", "stringLengthTS01B": "1169"}
	es := a.Apply(1, fm, form)

	grid := entriesFor(es, 18)
	require.Len(t, grid, 8)
	assert.Equal(t, "TS01A", grid[0].Field)
	assert.Equal(t, constants.FieldStatusSuccess, grid[0].Status)
	assert.Equal(t, constants.FieldStatusMissing, grid[7].Status)
	assert.Equal(t, "1169", form.Checkpoint(18).SubResults["TS01B"])

	empty := entriesFor(es, 16)
	require.Len(t, empty, 1, "an unfilled grid is one aggregate entry")
	assert.Equal(t, constants.FieldStatusMissing, empty[0].Status)
	assert.False(t, form.Checkpoint(16).HasData())
}

func TestApply_CompositeValues(t *testing.T) {
	a, form := newForm(t)

	a.Apply(2, extract.FieldMap{
		"creepageTop1": "12.10", "creepageTop2": "12.20", "creepageTop3": "12.30",
		"creepageBottom1": "13.10", "creepageBottom2": "13.20", "creepageBottom3": "13.30",
		"cellEdgeTop": "18.50 mm",
	}, form)
	assert.Equal(t, "Top: 12.10, 12.20, 12.30 / Bottom: 13.10, 13.20, 13.30", form.Checkpoint(26).Result)
	assert.Equal(t, "18.50 mm", form.Checkpoint(22).SubResults["TOP"])

	a.Apply(4, extract.FieldMap{
		"trimmingSNo1": "GS04875TG2312345678", "trimmingResult1": "OK",
		"trimmingSNo2": "GS04875TG2312345679",
	}, form)
	assert.Equal(t, "GS04875TG2312345678 - OK", form.Checkpoint(47).SubResults["S1"])
	assert.Equal(t, "GS04875TG2312345679", form.Checkpoint(47).SubResults["S2"])

	a.Apply(6, extract.FieldMap{"hipotSNo1": "GS04875TG2312345678", "dcw1": "2.1 mA", "sunsimulatorBarcode": "GS04875TG2399999999"}, form)
	assert.Equal(t, "GS04875TG2312345678: DCW=2.1 mA", form.Checkpoint(73).SubResults["Sample 1"])
	assert.Equal(t, "OK - GS04875TG2399999999", form.Checkpoint(70).Result)

	a.Apply(1, extract.FieldMap{"evaStatusOk": "OK"}, form)
	assert.Equal(t, "OK", form.Checkpoint(7).Result)
	a.Apply(1, extract.FieldMap{"evaManufacturingDate": "2025-11-02", "evaStatusOk": "OK"}, form)
	assert.Equal(t, "OK / 2025-11-02", form.Checkpoint(7).Result)
}

func TestApply_ManualEditIsSticky(t *testing.T) {
	a, form := newForm(t)

	e, err := a.ApplyManualEdit(form, 1, "", " 25°C ")
	require.NoError(t, err)
	assert.Equal(t, constants.FieldStatusManual, e.Status)
	assert.Equal(t, constants.FormStatusEdited, form.Status)

	es := a.Apply(1, extract.FieldMap{"temperature": "23°C"}, form)
	assert.Equal(t, "25°C", form.Checkpoint(1).Result)
	got := entriesFor(es, 1)[0]
	assert.Equal(t, constants.FieldStatusManual, got.Status)
	assert.Equal(t, "25°C", got.Value)
	assert.Contains(t, got.Reason, "23°C")

	_, err = a.ApplyManualEdit(form, 22, "Sides", "12.0 mm")
	require.NoError(t, err)
	es = a.Apply(2, extract.FieldMap{}, form)
	edge := entriesFor(es, 22)
	require.Len(t, edge, 3, "a manual sub-field is reported next to its siblings")
	assert.Equal(t, constants.FieldStatusManual, edge[2].Status)
}

func TestApplyManualEdit_Rejects(t *testing.T) {
	a, form := newForm(t)
	tests := []struct {
		name   string
		srNo   int
		subKey string
	}{
		{"unknown checkpoint", 99, ""},
		{"sub-key on scalar", 1, "Temp"},
		{"missing sub-key", 22, ""},
		{"unknown sub-key", 22, "Left"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.ApplyManualEdit(form, tt.srNo, tt.subKey, "x")
			require.Error(t, err)
			assert.True(t, errors.Is(err, common.ErrInvalidInput))
		})
	}
	assert.Equal(t, constants.FormStatusPending, form.Status)
}

func TestReport(t *testing.T) {
	var r Report
	r.Append(
		ReportEntry{Page: 1, SrNo: 1, Status: constants.FieldStatusSuccess},
		ReportEntry{Page: 1, SrNo: 2, Status: constants.FieldStatusDoubtful},
		ReportEntry{Page: 2, SrNo: 21, Status: constants.FieldStatusMissing},
	)
	assert.Equal(t, Summary{Success: 1, Doubtful: 1, Missing: 1}, r.Summary())
	assert.Len(t, r.Page(1), 2)

	b, err := r.MarshalJSON()
	require.NoError(t, err)
	var back Report
	require.NoError(t, back.UnmarshalJSON(b))
	assert.Equal(t, r.Entries(), back.Entries())

	r.Reset()
	assert.Equal(t, 0, r.Len())
}
