package texpak

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// outputFile is an archive being written next to its final path. Nothing
// appears at the final path until Commit succeeds.
type outputFile struct {
	*os.File
	finalPath string
	done      bool
}

// createOutput creates the parent directories of path and a temporary
// file beside it.
func createOutput(path string) (*outputFile, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s for archive: %w", dir, err)
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary archive in %s: %w", dir, err)
	}
	return &outputFile{File: f, finalPath: path}, nil
}

// Commit flushes the temporary file and renames it over the final path.
func (o *outputFile) Commit() error {
	if o.done {
		return errors.New("archive output already finished")
	}
	o.done = true
	if err := o.Sync(); err != nil {
		o.discard()
		return fmt.Errorf("failed to sync archive %s: %w", o.Name(), err)
	}
	if err := o.Close(); err != nil {
		os.Remove(o.Name())
		return fmt.Errorf("failed to close archive %s: %w", o.Name(), err)
	}
	if err := os.Chmod(o.Name(), 0644); err != nil {
		os.Remove(o.Name())
		return fmt.Errorf("failed to set permissions on %s: %w", o.Name(), err)
	}
	if err := os.Rename(o.Name(), o.finalPath); err != nil {
		os.Remove(o.Name())
		return fmt.Errorf("failed to move archive into place at %s: %w", o.finalPath, err)
	}
	return nil
}

// Abort removes the temporary file. It is a no-op after Commit.
func (o *outputFile) Abort() {
	if o.done {
		return
	}
	o.done = true
	o.discard()
}

func (o *outputFile) discard() {
	o.Close()
	os.Remove(o.Name())
}
