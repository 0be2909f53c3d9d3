package runstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Disk stores each run in its own JSON file named by the run key.
type Disk struct {
	dbPath string
}

// NewDisk constructs a Disk value for use, creating the directory when
// it does not exist.
func NewDisk(dbPath string) (*Disk, error) {
	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, err
	}

	return &Disk{dbPath: dbPath}, nil
}

// Close in this implementation has nothing to do since a new file is
// written to disk for each run and then immediately closed.
func (d *Disk) Close() error {
	return nil
}

// Put writes the run to disk unless a run with the same key already exists.
// The file is written under a temporary name and renamed into place so a
// reader never sees a partial run.
func (d *Disk) Put(ctx context.Context, run Run) error {
	path, err := d.getPath(run.Key)
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil {
		return nil
	}

	// Marshal the run for writing to disk in a more human readable format.
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return err
	}

	f, err := os.CreateTemp(d.dbPath, run.Key+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}

	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}

	return nil
}

// Get locates and decodes the run stored under the specified key.
func (d *Disk) Get(ctx context.Context, key string) (Run, error) {
	path, err := d.getPath(key)
	if err != nil {
		return Run{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Run{}, ErrNotFound
		}
		return Run{}, err
	}
	defer f.Close()

	var run Run
	if err := json.NewDecoder(f).Decode(&run); err != nil {
		return Run{}, fmt.Errorf("decode run %s: %w", key, err)
	}

	return run, nil
}

// getPath forms the path to the specified run.
func (d *Disk) getPath(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\.`) {
		return "", fmt.Errorf("invalid run key %q", key)
	}

	return filepath.Join(d.dbPath, key+".json"), nil
}
