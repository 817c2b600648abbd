package persistence

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"tracker_worker/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stt(rows []domain.Record) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Fields[domain.FieldSTT]
	}
	return out
}

func TestSheetStore_NewHasBlankRows(t *testing.T) {
	s := NewSheetStore(t.TempDir())
	for _, sheet := range domain.Sheets {
		rows, err := s.Rows(sheet)
		require.NoError(t, err)
		assert.Len(t, rows, InitialRows)
		assert.NotEmpty(t, rows[0].ID)
		assert.NotEqual(t, rows[0].ID, rows[1].ID)
	}

	_, err := s.Rows("Unknown")
	assert.ErrorIs(t, err, ErrUnknownSheet)
}

func TestSheetStore_AddRow(t *testing.T) {
	tests := []struct {
		name       string
		afterIndex int
		wantPos    int
	}{
		{"after first", 0, 1},
		{"prepend", -1, 0},
		{"past end appends", 99, InitialRows},
		{"below range appends", -5, InitialRows},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSheetStore(t.TempDir())
			before, _ := s.Rows(domain.SheetCapPhat)

			rows, err := s.AddRow(domain.SheetCapPhat, tt.afterIndex)
			require.NoError(t, err)
			require.Len(t, rows, InitialRows+1)

			for _, b := range before {
				assert.NotEqual(t, b.ID, rows[tt.wantPos].ID)
			}
			assert.Equal(t, []string{"1", "2", "3", "4", "5", "6"}, stt(rows))
		})
	}
}

func TestSheetStore_DeleteRow(t *testing.T) {
	s := NewSheetStore(t.TempDir())
	before, _ := s.Rows(domain.SheetSizing)

	rows, err := s.DeleteRow(domain.SheetSizing, 1)
	require.NoError(t, err)
	require.Len(t, rows, InitialRows-1)
	assert.Equal(t, before[2].ID, rows[1].ID)
	assert.Equal(t, []string{"1", "2", "3", "4"}, stt(rows))

	_, err = s.DeleteRow(domain.SheetSizing, 10)
	assert.ErrorIs(t, err, ErrInvalidIndex)
}

func TestSheetStore_UpdateCell(t *testing.T) {
	s := NewSheetStore(t.TempDir())
	rows, _ := s.Rows(domain.SheetCapPhat)
	id := rows[2].ID

	rec, prev, err := s.UpdateCell(domain.SheetCapPhat, domain.RowRef{ID: id}, domain.FieldCapPhatSRCode, "SR-1")
	require.NoError(t, err)
	assert.Equal(t, "", prev)
	assert.Equal(t, "SR-1", rec.Get(domain.FieldCapPhatSRCode))

	_, prev, err = s.UpdateCell(domain.SheetCapPhat, domain.RowRef{Index: 2}, domain.FieldCapPhatSRCode, "SR-2")
	require.NoError(t, err)
	assert.Equal(t, "SR-1", prev)

	_, _, err = s.UpdateCell(domain.SheetCapPhat, domain.RowRef{ID: id}, "Nope", "x")
	assert.ErrorIs(t, err, ErrInvalidColumn)
	_, _, err = s.UpdateCell(domain.SheetCapPhat, domain.RowRef{ID: "missing"}, domain.FieldCapPhatSRCode, "x")
	assert.ErrorIs(t, err, ErrNotFound)
	_, _, err = s.UpdateCell(domain.SheetCapPhat, domain.RowRef{Index: -1}, domain.FieldCapPhatSRCode, "x")
	assert.ErrorIs(t, err, ErrInvalidIndex)
	_, _, err = s.UpdateCell("Nope", domain.RowRef{Index: 0}, domain.FieldCapPhatSRCode, "x")
	assert.ErrorIs(t, err, ErrUnknownSheet)
}

func TestSheetStore_PersistAndReload(t *testing.T) {
	dir := t.TempDir()
	s := NewSheetStore(dir)
	rows, _ := s.Rows(domain.SheetSizing)
	_, _, err := s.UpdateCell(domain.SheetSizing, domain.RowRef{ID: rows[0].ID}, domain.FieldSizingKPI, "12/06/2024")
	require.NoError(t, err)

	reloaded := NewSheetStore(dir)
	require.NoError(t, reloaded.Load(context.Background()))
	got, err := reloaded.Row(domain.SheetSizing, domain.RowRef{ID: rows[0].ID})
	require.NoError(t, err)
	assert.Equal(t, "12/06/2024", got.Get(domain.FieldSizingKPI))
}

func TestSheetStore_LoadSanitizes(t *testing.T) {
	dir := t.TempDir()
	doc := `{
  "CapPhat": [
    {"STT": 7, "Dự án": "Data Lake", "Mã SR": "NaN", "Thời gian tiếp nhận y/c": "NaT", "row_id": "keep-me", "Extra": "x"},
    {"STT": 9, "Dự án": 42}
  ]
}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, StoreFileName), []byte(doc), 0o644))

	s := NewSheetStore(dir)
	require.NoError(t, s.Load(context.Background()))

	rows, err := s.Rows(domain.SheetCapPhat)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "keep-me", rows[0].ID)
	assert.Equal(t, "Data Lake", rows[0].Get(domain.FieldCapPhatProject))
	assert.Equal(t, "", rows[0].Get(domain.FieldCapPhatSRCode))
	assert.Equal(t, "", rows[0].Get(domain.FieldCapPhatReceived))
	assert.NotContains(t, rows[0].Fields, "Extra")
	assert.Len(t, rows[0].Fields, len(domain.SheetCapPhat.Columns()))

	assert.NotEmpty(t, rows[1].ID)
	assert.Equal(t, "42", rows[1].Get(domain.FieldCapPhatProject))
	assert.Equal(t, []string{"1", "2"}, stt(rows))

	// Sheets missing from the document keep their blank rows.
	sizing, _ := s.Rows(domain.SheetSizing)
	assert.Len(t, sizing, InitialRows)
}

func TestSheetStore_ReadOnlyMirrorKeepsOwnerEdits(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	owner := NewSheetStore(dir)
	rows, _ := owner.Rows(domain.SheetCapPhat)
	sizing, _ := owner.Rows(domain.SheetSizing)
	_, _, err := owner.UpdateCell(domain.SheetCapPhat, domain.RowRef{Index: 1}, domain.FieldCapPhatProject, "Data Lake")
	require.NoError(t, err)

	mirror := NewSheetStore(dir)
	require.NoError(t, mirror.Load(ctx))
	mirror.SetReadOnly(true)

	// The owner edits after the mirror loaded, then the mirror writes a label.
	_, _, err = owner.UpdateCell(domain.SheetCapPhat, domain.RowRef{ID: rows[0].ID}, domain.FieldCapPhatSRCode, "SR-1")
	require.NoError(t, err)
	require.NoError(t, mirror.SetField(domain.SheetSizing, sizing[0].ID, domain.FieldSizingProgress, "Quá hạn"))

	got, err := mirror.Row(domain.SheetSizing, domain.RowRef{ID: sizing[0].ID})
	require.NoError(t, err)
	assert.Equal(t, "Quá hạn", got.Get(domain.FieldSizingProgress))

	fresh := NewSheetStore(dir)
	require.NoError(t, fresh.Load(ctx))
	rec, err := fresh.Row(domain.SheetCapPhat, domain.RowRef{ID: rows[0].ID})
	require.NoError(t, err)
	assert.Equal(t, "SR-1", rec.Get(domain.FieldCapPhatSRCode))
	lbl, err := fresh.Row(domain.SheetSizing, domain.RowRef{ID: sizing[0].ID})
	require.NoError(t, err)
	assert.Equal(t, "", lbl.Get(domain.FieldSizingProgress))

	// The mirror picks up the owner's edit on its next reload.
	require.NoError(t, mirror.Load(ctx))
	rec, err = mirror.Row(domain.SheetCapPhat, domain.RowRef{ID: rows[0].ID})
	require.NoError(t, err)
	assert.Equal(t, "SR-1", rec.Get(domain.FieldCapPhatSRCode))
}
