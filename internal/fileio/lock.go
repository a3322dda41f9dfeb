//go:build unix

package fileio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// ErrLocked is returned by TryLock when another process holds the lock.
var ErrLocked = errors.New("project is locked by another persona-kit process")

// Lock is an advisory flock held on a file inside the project directory.
// It serializes persona-kit invocations that mutate the same project; it does
// nothing against writers that ignore it.
type Lock struct {
	path string
	file *os.File
}

// Acquire blocks until the exclusive lock on path is held.
func Acquire(path string) (*Lock, error) {
	return acquire(path, unix.LOCK_EX)
}

// TryLock takes the lock without waiting and returns ErrLocked when it is busy.
func TryLock(path string) (*Lock, error) {
	return acquire(path, unix.LOCK_EX|unix.LOCK_NB)
}

func acquire(path string, how int) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, &Error{Op: "mkdir", Path: filepath.Dir(path), Err: err}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, &Error{Op: "open", Path: path, Err: err}
	}
	if err := unix.Flock(int(f.Fd()), how); err != nil {
		f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, ErrLocked
		}
		return nil, &Error{Op: "flock", Path: path, Err: err}
	}
	// Holder pid is informational only.
	_ = f.Truncate(0)
	_, _ = f.WriteAt([]byte(fmt.Sprintf("%d\n", os.Getpid())), 0)
	return &Lock{path: path, file: f}, nil
}

// Release drops the lock. It is safe to call on a nil or released Lock.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	err := unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	cerr := l.file.Close()
	l.file = nil
	if err != nil {
		return &Error{Op: "unlock", Path: l.path, Err: err}
	}
	return cerr
}
