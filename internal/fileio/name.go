package fileio

import (
	"errors"
	"strings"
)

// CheckName rejects names that cannot be used as a single path element
// inside a persona-kit directory.
func CheckName(s string) error {
	switch {
	case s == "":
		return errors.New("empty name")
	case s == "." || s == "..":
		return errors.New("reserved name")
	case strings.ContainsAny(s, `/\`):
		return errors.New("name contains a path separator")
	}
	return nil
}
