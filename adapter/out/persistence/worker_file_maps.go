package persistence

import (
	"context"
	"strings"
	"sync"

	"tracker_worker/core/port/out"
)

// Document names under the data directory.
const (
	LedgerFileName    = "cap_phat_sr_created.json"
	OverridesFileName = "phone_recipients.json"
)

// fileMap is a string map mirrored to a JSON document. The in-memory copy
// survives a failed write and is merged with the file on every read.
type fileMap struct {
	mu  sync.Mutex
	doc *jsonDocument
	mem map[string]string
}

func newFileMap(dir, name string) *fileMap {
	return &fileMap{doc: newJSONDocument(dir, name), mem: make(map[string]string)}
}

// refresh merges the document into memory. Caller holds mu.
func (m *fileMap) refresh() error {
	disk := make(map[string]string)
	if err := m.doc.load(&disk); err != nil {
		return err
	}
	for k, v := range disk {
		m.mem[k] = v
	}
	return nil
}

func (m *fileMap) snapshot() map[string]string {
	cp := make(map[string]string, len(m.mem))
	for k, v := range m.mem {
		cp[k] = v
	}
	return cp
}

// FileLedgerRepository implements out.LedgerRepository on a JSON document.
type FileLedgerRepository struct {
	m *fileMap
}

// NewFileLedgerRepository creates a ledger stored in dir.
func NewFileLedgerRepository(dir string) *FileLedgerRepository {
	return &FileLedgerRepository{m: newFileMap(dir, LedgerFileName)}
}

// LoadAll returns every recorded date.
func (r *FileLedgerRepository) LoadAll(ctx context.Context) (map[string]string, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.refresh(); err != nil {
		return nil, err
	}
	return r.m.snapshot(), nil
}

// PutIfAbsent stores date for rowID unless an entry already exists.
// The entry is kept in memory even when the document cannot be written.
func (r *FileLedgerRepository) PutIfAbsent(ctx context.Context, rowID, date string) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	// An unreadable file must not let a second date in, so memory wins.
	_ = r.m.refresh()
	if _, ok := r.m.mem[rowID]; ok {
		return false, nil
	}
	r.m.mem[rowID] = date
	if err := r.m.doc.save(r.m.mem); err != nil {
		return true, err
	}
	return true, nil
}

// FileOverrideRepository implements out.OverrideRepository on a JSON document.
type FileOverrideRepository struct {
	m *fileMap
}

// NewFileOverrideRepository creates an override map stored in dir.
func NewFileOverrideRepository(dir string) *FileOverrideRepository {
	return &FileOverrideRepository{m: newFileMap(dir, OverridesFileName)}
}

// LoadAll returns every override.
func (r *FileOverrideRepository) LoadAll(ctx context.Context) (map[string]string, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.refresh(); err != nil {
		return nil, err
	}
	return r.m.snapshot(), nil
}

// Set adds or replaces the override for rowID.
func (r *FileOverrideRepository) Set(ctx context.Context, rowID, address string) error {
	rowID = strings.TrimSpace(rowID)
	if rowID == "" {
		return ErrInvalidInput
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	_ = r.m.refresh()
	r.m.mem[rowID] = strings.TrimSpace(address)
	return r.m.doc.save(r.m.mem)
}

// Delete removes the override for rowID.
func (r *FileOverrideRepository) Delete(ctx context.Context, rowID string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	_ = r.m.refresh()
	if _, ok := r.m.mem[rowID]; !ok {
		return ErrNotFound
	}
	delete(r.m.mem, rowID)
	// refresh merges disk into memory, so the file must be rewritten
	// before the next read or the entry comes back.
	return r.m.doc.save(r.m.mem)
}

var (
	_ out.LedgerRepository   = (*FileLedgerRepository)(nil)
	_ out.OverrideRepository = (*FileOverrideRepository)(nil)
)
