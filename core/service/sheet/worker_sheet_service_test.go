package sheet

import (
	"context"
	"testing"
	"time"

	"tracker_worker/adapter/out/persistence"
	"tracker_worker/core/domain"
	"tracker_worker/core/port/in"
	"tracker_worker/core/service/alert"
	"tracker_worker/pkg/clock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc    *Service
	store  *persistence.SheetStore
	ledger *persistence.FileLedgerRepository
	clock  *clock.Fixed
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	f := &fixture{
		store:  persistence.NewSheetStore(dir),
		ledger: persistence.NewFileLedgerRepository(dir),
		clock:  clock.NewFixed(time.Date(2024, 6, 10, 10, 0, 0, 0, time.Local)),
	}
	f.svc = NewService(f.store, persistence.NewFileOverrideRepository(dir), alert.NewLedger(f.ledger, f.clock, nil), f.clock)
	return f
}

func (f *fixture) firstID(t *testing.T, sheet domain.Sheet) string {
	t.Helper()
	rows, err := f.store.Rows(sheet)
	require.NoError(t, err)
	return rows[0].ID
}

func TestUpdateCell_KPIRecomputesProgress(t *testing.T) {
	f := newFixture(t)
	id := f.firstID(t, domain.SheetSizing)

	rec, err := f.svc.UpdateCell(context.Background(), &in.UpdateCellRequest{
		Sheet: domain.SheetSizing, RowID: id, Column: domain.FieldSizingKPI, Value: "11/06/2024",
	})
	require.NoError(t, err)
	assert.Equal(t, "Còn 1 ngày", rec.Get(domain.FieldSizingProgress))

	stored, _ := f.store.Row(domain.SheetSizing, domain.RowRef{ID: id})
	assert.Equal(t, "Còn 1 ngày", stored.Get(domain.FieldSizingProgress))
}

func TestUpdateCell_RequestDateDerivesKPI(t *testing.T) {
	tests := []struct {
		name         string
		presetKPI    string
		presetStatus string
		request      string
		wantKPI      string
		wantStatus   string
	}{
		{"friday request", "", "", "07/06/2024", "11/06/2024", "Còn 1 ngày"},
		{"monday request", "", "", "10/06/2024", "12/06/2024", "Còn 2 ngày"},
		{"corrected request overwrites kpi", "20/06/2024", "", "07/06/2024", "11/06/2024", "Còn 1 ngày"},
		{"cleared request clears kpi", "13/06/2024", "Còn 3 ngày", "", "", ""},
		{"unparseable request keeps kpi", "13/06/2024", "Còn 3 ngày", "soon", "13/06/2024", "Còn 3 ngày"},
		{"unparseable request on empty row", "", "", "soon", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			id := f.firstID(t, domain.SheetSizing)
			if tt.presetKPI != "" {
				require.NoError(t, f.store.SetField(domain.SheetSizing, id, domain.FieldSizingKPI, tt.presetKPI))
			}
			if tt.presetStatus != "" {
				require.NoError(t, f.store.SetField(domain.SheetSizing, id, domain.FieldSizingProgress, tt.presetStatus))
			}

			rec, err := f.svc.UpdateCell(context.Background(), &in.UpdateCellRequest{
				Sheet: domain.SheetSizing, RowID: id, Column: domain.FieldSizingRequest, Value: tt.request,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantKPI, rec.Get(domain.FieldSizingKPI))
			assert.Equal(t, tt.wantStatus, rec.Get(domain.FieldSizingProgress))

			stored, err := f.store.Row(domain.SheetSizing, domain.RowRef{ID: id})
			require.NoError(t, err)
			assert.Equal(t, tt.wantKPI, stored.Get(domain.FieldSizingKPI))
		})
	}
}

func TestUpdateCell_SRCodeWritesLedgerOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	row := 0

	_, err := f.svc.UpdateCell(ctx, &in.UpdateCellRequest{
		Sheet: domain.SheetCapPhat, Row: &row, Column: domain.FieldCapPhatSRCode, Value: "SR-123",
	})
	require.NoError(t, err)

	f.clock.Advance(72 * time.Hour)
	_, err = f.svc.UpdateCell(ctx, &in.UpdateCellRequest{
		Sheet: domain.SheetCapPhat, Row: &row, Column: domain.FieldCapPhatSRCode, Value: "SR-456",
	})
	require.NoError(t, err)

	entries, err := f.ledger.LoadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{f.firstID(t, domain.SheetCapPhat): "10/06/2024"}, entries)
}

func TestUpdateCell_Errors(t *testing.T) {
	f := newFixture(t)
	row := 99

	tests := []struct {
		name string
		req  *in.UpdateCellRequest
		want error
	}{
		{"unknown sheet", &in.UpdateCellRequest{Sheet: "Nope", RowID: "x", Column: "STT"}, domain.ErrUnknownSheet},
		{"missing row", &in.UpdateCellRequest{Sheet: domain.SheetCapPhat, Column: domain.FieldCapPhatSRCode}, domain.ErrInvalidIndex},
		{"row out of range", &in.UpdateCellRequest{Sheet: domain.SheetCapPhat, Row: &row, Column: domain.FieldCapPhatSRCode}, domain.ErrInvalidIndex},
		{"unknown row id", &in.UpdateCellRequest{Sheet: domain.SheetCapPhat, RowID: "nope", Column: domain.FieldCapPhatSRCode}, domain.ErrRowNotFound},
		{"unknown column", &in.UpdateCellRequest{Sheet: domain.SheetCapPhat, RowID: "nope", Column: "Bogus"}, domain.ErrInvalidColumn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.UpdateCell(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestOverrides(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	assert.ErrorIs(t, f.svc.SetOverride(ctx, "row-1", "+84900000000"), domain.ErrInvalidInput)
	require.NoError(t, f.svc.SetOverride(ctx, "row-1", "whatsapp:+84900000000"))

	got, err := f.svc.ListOverrides(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"row-1": "whatsapp:+84900000000"}, got)

	require.NoError(t, f.svc.DeleteOverride(ctx, "row-1"))
	assert.ErrorIs(t, f.svc.DeleteOverride(ctx, "row-1"), domain.ErrRowNotFound)
}
