// Package persistence provides storage adapters implementing outbound ports.
package persistence

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
)

// jsonDocument is one JSON file that is read whole and rewritten whole.
// Writes go to a temp file in the same directory and are renamed into place,
// so a reader never sees a half-written document.
type jsonDocument struct {
	path string
}

func newJSONDocument(dir, name string) *jsonDocument {
	return &jsonDocument{path: filepath.Join(dir, name)}
}

// load decodes the document into v. A missing file leaves v untouched and
// returns nil.
func (d *jsonDocument) load(v any) error {
	data, err := os.ReadFile(d.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read %s: %w", d.path, err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", d.path, err)
	}
	return nil
}

func (d *jsonDocument) save(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", d.path, err)
	}

	dir := filepath.Dir(d.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(d.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", d.path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", d.path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", d.path, err)
	}
	if err := os.Rename(tmpName, d.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", d.path, err)
	}
	return nil
}
