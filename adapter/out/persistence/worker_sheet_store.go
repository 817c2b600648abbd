package persistence

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"tracker_worker/core/domain"
	"tracker_worker/core/port/out"
	"tracker_worker/pkg/logger"

	"github.com/google/uuid"
)

// StoreFileName is the record store document under the data directory.
const StoreFileName = "data_store.json"

// InitialRows is the number of blank rows a new sheet starts with.
const InitialRows = 5

// SheetStore is the in-memory tabular store, mirrored to one JSON document.
// Persisted rows are flat objects of column -> value plus "row_id".
type SheetStore struct {
	mu     sync.RWMutex
	doc    *jsonDocument
	sheets map[domain.Sheet][]domain.Record
	newID  func() string

	// readOnly keeps every change in memory; the next Load discards it.
	readOnly bool
}

// NewSheetStore creates a store whose document lives in dir. Call Load to
// read existing data.
func NewSheetStore(dir string) *SheetStore {
	s := &SheetStore{
		doc:    newJSONDocument(dir, StoreFileName),
		sheets: make(map[domain.Sheet][]domain.Record, len(domain.Sheets)),
		newID:  func() string { return uuid.NewString() },
	}
	for _, sheet := range domain.Sheets {
		s.sheets[sheet] = s.blankRows(sheet, InitialRows)
	}
	return s
}

// SetReadOnly stops the store from writing its document. A process that
// only mirrors a store owned by another process must not write it back.
func (s *SheetStore) SetReadOnly(readOnly bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readOnly = readOnly
}

// Load replaces the sheets present in the document. Sheets absent from it
// keep their blank rows. A read error leaves the store unchanged.
func (s *SheetStore) Load(ctx context.Context) error {
	var raw map[string][]map[string]any
	if err := s.doc.load(&raw); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sheet := range domain.Sheets {
		rows, ok := raw[string(sheet)]
		if !ok {
			continue
		}
		s.sheets[sheet] = s.sanitize(sheet, rows)
		renumber(s.sheets[sheet])
	}
	return nil
}

// Rows returns a snapshot copy of every record in sheet.
func (s *SheetStore) Rows(sheet domain.Sheet) ([]domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, ok := s.sheets[sheet]
	if !ok {
		return nil, ErrUnknownSheet
	}
	return cloneRows(rows), nil
}

// Row returns a copy of the addressed row.
func (s *SheetStore) Row(sheet domain.Sheet, ref domain.RowRef) (domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, err := s.locate(sheet, ref)
	if err != nil {
		return domain.Record{}, err
	}
	return s.sheets[sheet][i].Clone(), nil
}

// AddRow inserts a blank row after afterIndex, or appends it when afterIndex
// is out of range. It returns the sheet after the insert.
func (s *SheetStore) AddRow(sheet domain.Sheet, afterIndex int) ([]domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, ok := s.sheets[sheet]
	if !ok {
		return nil, ErrUnknownSheet
	}

	row := domain.NewRecord(s.newID(), sheet.Columns())
	if afterIndex < -1 || afterIndex >= len(rows) {
		rows = append(rows, row)
	} else {
		rows = append(rows, domain.Record{})
		copy(rows[afterIndex+2:], rows[afterIndex+1:])
		rows[afterIndex+1] = row
	}
	renumber(rows)
	s.sheets[sheet] = rows
	s.persist()
	return cloneRows(rows), nil
}

// DeleteRow removes the row at index and returns the sheet after the delete.
func (s *SheetStore) DeleteRow(sheet domain.Sheet, index int) ([]domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, ok := s.sheets[sheet]
	if !ok {
		return nil, ErrUnknownSheet
	}
	if index < 0 || index >= len(rows) {
		return nil, ErrInvalidIndex
	}

	rows = append(rows[:index], rows[index+1:]...)
	renumber(rows)
	s.sheets[sheet] = rows
	s.persist()
	return cloneRows(rows), nil
}

// UpdateCell writes value into column of the addressed row. It returns the
// updated row and the value the cell held before.
func (s *SheetStore) UpdateCell(sheet domain.Sheet, ref domain.RowRef, column, value string) (domain.Record, string, error) {
	if !sheet.Valid() {
		return domain.Record{}, "", ErrUnknownSheet
	}
	if !sheet.HasColumn(column) {
		return domain.Record{}, "", ErrInvalidColumn
	}
	column = domain.NormalizeField(column)

	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.locate(sheet, ref)
	if err != nil {
		return domain.Record{}, "", err
	}

	rec := s.sheets[sheet][i]
	prev := rec.Fields[column]
	rec.Fields[column] = value
	s.persist()
	return rec.Clone(), prev, nil
}

// SetField writes a derived value. Unlike UpdateCell it addresses the row by
// id only and skips column validation of the caller's input.
func (s *SheetStore) SetField(sheet domain.Sheet, rowID, field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.locate(sheet, domain.RowRef{ID: rowID})
	if err != nil {
		return err
	}
	s.sheets[sheet][i].Fields[field] = value
	s.persist()
	return nil
}

// locate returns the slice index of ref. Caller holds mu.
func (s *SheetStore) locate(sheet domain.Sheet, ref domain.RowRef) (int, error) {
	rows, ok := s.sheets[sheet]
	if !ok {
		return 0, ErrUnknownSheet
	}
	if ref.ID != "" {
		for i := range rows {
			if rows[i].ID == ref.ID {
				return i, nil
			}
		}
		return 0, ErrNotFound
	}
	if ref.Index < 0 || ref.Index >= len(rows) {
		return 0, ErrInvalidIndex
	}
	return ref.Index, nil
}

// persist writes every sheet. A failed write keeps the in-memory state.
// Caller holds mu.
func (s *SheetStore) persist() {
	if s.readOnly {
		return
	}
	doc := make(map[string][]map[string]string, len(s.sheets))
	for sheet, rows := range s.sheets {
		flat := make([]map[string]string, 0, len(rows))
		for _, r := range rows {
			m := make(map[string]string, len(r.Fields)+1)
			for k, v := range r.Fields {
				m[k] = v
			}
			m[domain.FieldRowID] = r.ID
			flat = append(flat, m)
		}
		doc[string(sheet)] = flat
	}
	if err := s.doc.save(doc); err != nil {
		logger.WithError(err).Warn("[SheetStore] Failed to save %s", StoreFileName)
	}
}

// sanitize keeps only known columns, blanks nan-like values and assigns ids
// to rows that lack one.
func (s *SheetStore) sanitize(sheet domain.Sheet, raw []map[string]any) []domain.Record {
	columns := sheet.Columns()
	rows := make([]domain.Record, 0, len(raw))
	for _, r := range raw {
		normalized := make(map[string]any, len(r))
		for k, v := range r {
			normalized[domain.NormalizeField(k)] = v
		}

		id := stringify(normalized[domain.FieldRowID])
		if id == "" {
			id = s.newID()
		}
		rec := domain.NewRecord(id, columns)
		for _, c := range columns {
			rec.Fields[c] = stringify(normalized[c])
		}
		rows = append(rows, rec)
	}
	return rows
}

func (s *SheetStore) blankRows(sheet domain.Sheet, n int) []domain.Record {
	rows := make([]domain.Record, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, domain.NewRecord(s.newID(), sheet.Columns()))
	}
	renumber(rows)
	return rows
}

func stringify(v any) string {
	var str string
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		str = t
	case float64:
		str = strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		str = strconv.FormatBool(t)
	default:
		str = fmt.Sprint(t)
	}
	switch strings.ToLower(strings.TrimSpace(str)) {
	case "nan", "nat", "none", "null":
		return ""
	}
	return str
}

func renumber(rows []domain.Record) {
	for i := range rows {
		rows[i].Fields[domain.FieldSTT] = strconv.Itoa(i + 1)
	}
}

func cloneRows(rows []domain.Record) []domain.Record {
	cp := make([]domain.Record, len(rows))
	for i, r := range rows {
		cp[i] = r.Clone()
	}
	return cp
}

var _ out.RecordStore = (*SheetStore)(nil)
var _ out.SheetRepository = (*SheetStore)(nil)
