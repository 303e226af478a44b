package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Dir is a directory of JSON documents, one file per key. Writes go through
// a temp file and rename so readers never observe a half-written document.
type Dir struct{ base string }

func NewDir(base string) (*Dir, error) {
	if base == "" {
		base = "./data"
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, err
	}
	return &Dir{base: base}, nil
}

func (d *Dir) Path(key string) string {
	return filepath.Join(d.base, filepath.Clean(key)+".json")
}

// Load unmarshals the document at key into v. Missing files are not an
// error: v is left untouched and ok is false.
func (d *Dir) Load(key string, v interface{}) (ok bool, err error) {
	raw, err := os.ReadFile(d.Path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	if len(raw) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (d *Dir) Store(key string, v interface{}) error {
	dst := d.Path(key)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := dst + ".tmp-" + uuid.NewString()
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

func (d *Dir) Delete(key string) error {
	err := os.Remove(d.Path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// List returns the keys (file names without extension) under a subdirectory.
func (d *Dir) List(sub string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(d.base, sub))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if filepath.Ext(name) != ".json" {
			continue
		}
		keys = append(keys, filepath.Join(sub, name[:len(name)-len(".json")]))
	}
	return keys, nil
}
