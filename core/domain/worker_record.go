package domain

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// FieldRowID is the key under which a row's identity is persisted.
const FieldRowID = "row_id"

// Record is one sheet row. ID is assigned once at creation and never changes.
type Record struct {
	ID     string            `json:"row_id"`
	Fields map[string]string `json:"fields"`
}

// NewRecord returns a record with every column present and empty.
func NewRecord(id string, columns []string) Record {
	fields := make(map[string]string, len(columns))
	for _, c := range columns {
		fields[c] = ""
	}
	return Record{ID: id, Fields: fields}
}

// Get returns the trimmed value of field, "" when missing.
func (r Record) Get(field string) string {
	if r.Fields == nil {
		return ""
	}
	if v, ok := r.Fields[field]; ok {
		return strings.TrimSpace(v)
	}
	// Imported workbooks sometimes carry decomposed Vietnamese headers.
	return strings.TrimSpace(r.Fields[NormalizeField(field)])
}

// Clone returns a deep copy.
func (r Record) Clone() Record {
	fields := make(map[string]string, len(r.Fields))
	for k, v := range r.Fields {
		fields[k] = v
	}
	return Record{ID: r.ID, Fields: fields}
}

// NormalizeField puts a field name into NFC form and trims it.
func NormalizeField(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// RowRef addresses a row by id, or by position when ID is empty.
type RowRef struct {
	ID    string
	Index int
}
