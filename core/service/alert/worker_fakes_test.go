package alert

import (
	"context"
	"errors"
	"sync"

	"tracker_worker/core/domain"
	"tracker_worker/core/port/out"
)

// memRecords is an in-memory out.RecordStore.
type memRecords struct {
	mu    sync.Mutex
	rows  map[domain.Sheet][]domain.Record
	fails map[domain.Sheet]bool
}

func newMemRecords() *memRecords {
	return &memRecords{rows: map[domain.Sheet][]domain.Record{}, fails: map[domain.Sheet]bool{}}
}

func (m *memRecords) add(sheet domain.Sheet, id string, fields map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := domain.NewRecord(id, sheet.Columns())
	for k, v := range fields {
		rec.Fields[k] = v
	}
	m.rows[sheet] = append(m.rows[sheet], rec)
}

func (m *memRecords) Rows(sheet domain.Sheet) ([]domain.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fails[sheet] {
		return nil, errors.New("store unavailable")
	}
	out := make([]domain.Record, 0, len(m.rows[sheet]))
	for _, r := range m.rows[sheet] {
		out = append(out, r.Clone())
	}
	return out, nil
}

func (m *memRecords) SetField(sheet domain.Sheet, rowID, field, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows[sheet] {
		if m.rows[sheet][i].ID == rowID {
			m.rows[sheet][i].Fields[field] = value
			return nil
		}
	}
	return errors.New("row not found")
}

func (m *memRecords) field(sheet domain.Sheet, rowID, field string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows[sheet] {
		if r.ID == rowID {
			return r.Fields[field]
		}
	}
	return ""
}

// sentMessage is one call recorded by recordingGateway.
type sentMessage struct {
	To   string
	Body string
	Vars map[string]string
}

// recordingGateway records sends and fails for addresses in reject.
type recordingGateway struct {
	mu     sync.Mutex
	sent   []sentMessage
	reject map[string]bool
}

func newRecordingGateway() *recordingGateway {
	return &recordingGateway{reject: map[string]bool{}}
}

func (g *recordingGateway) Send(_ context.Context, to, body string, vars map[string]string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.reject[to] {
		return false
	}
	g.sent = append(g.sent, sentMessage{To: to, Body: body, Vars: vars})
	return true
}

func (g *recordingGateway) Configured() bool { return true }

func (g *recordingGateway) messages() []sentMessage {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]sentMessage, len(g.sent))
	copy(out, g.sent)
	return out
}

// memLedgerRepo is an in-memory out.LedgerRepository.
type memLedgerRepo struct {
	mu      sync.Mutex
	entries map[string]string
	failGet bool
	puts    int
}

func newMemLedgerRepo() *memLedgerRepo {
	return &memLedgerRepo{entries: map[string]string{}}
}

func (r *memLedgerRepo) LoadAll(context.Context) (map[string]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failGet {
		return nil, errors.New("unreadable")
	}
	out := make(map[string]string, len(r.entries))
	for k, v := range r.entries {
		out[k] = v
	}
	return out, nil
}

func (r *memLedgerRepo) PutIfAbsent(_ context.Context, rowID, date string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[rowID]; ok {
		return false, nil
	}
	r.entries[rowID] = date
	r.puts++
	return true, nil
}

// memOverrides is an in-memory out.OverrideRepository.
type memOverrides struct {
	entries map[string]string
}

func (o *memOverrides) LoadAll(context.Context) (map[string]string, error) {
	return o.entries, nil
}

func (o *memOverrides) Set(_ context.Context, rowID, address string) error {
	o.entries[rowID] = address
	return nil
}

func (o *memOverrides) Delete(_ context.Context, rowID string) error {
	delete(o.entries, rowID)
	return nil
}

var (
	_ out.RecordStore        = (*memRecords)(nil)
	_ out.MessageGateway     = (*recordingGateway)(nil)
	_ out.LedgerRepository   = (*memLedgerRepo)(nil)
	_ out.OverrideRepository = (*memOverrides)(nil)
)
