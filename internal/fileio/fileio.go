// Package fileio holds the write discipline shared by every persona-kit store:
// whole-file replacement through a temp file and rename, and an advisory lock
// on the project directory for read-modify-write sequences.
package fileio

import (
	"fmt"
	"os"
	"path/filepath"
)

// Error reports a filesystem failure while reading or writing persona-kit state.
type Error struct {
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// WriteFile replaces path with data. The bytes are written to a temp file in the
// same directory and renamed into place, so readers see either the old file or
// the new one. Parent directories are created as needed.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &Error{Op: "mkdir", Path: dir, Err: err}
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return &Error{Op: "create", Path: path, Err: err}
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return &Error{Op: "write", Path: path, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return &Error{Op: "sync", Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return &Error{Op: "close", Path: path, Err: err}
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		cleanup()
		return &Error{Op: "chmod", Path: path, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return &Error{Op: "rename", Path: path, Err: err}
	}
	return nil
}

// Exists reports whether path names an existing regular file.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
