// Package tasks holds the implementation task backlog and the pipeline that
// executes one task against the project's git work tree.
package tasks

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/kennyg/persona-kit/internal/fileio"
)

const (
	// DefaultStatus is shown for tasks without a status
	DefaultStatus = "pending"
	// DefaultPriority is shown for tasks without a priority
	DefaultPriority = "medium"

	formatVersion = "1.0"
)

var (
	// ErrMalformedData marks a tasks.json that exists but cannot be parsed.
	ErrMalformedData = errors.New("malformed task backlog")
	// ErrTaskNotFound is returned when no task has the requested id.
	ErrTaskNotFound = errors.New("task not found")
)

// Scalar is a JSON string or number kept in its textual form. Task ids and
// priorities are written by other tools as either.
type Scalar string

func (s *Scalar) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*s = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = Scalar(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("want string or number, got %s", data)
	}
	*s = Scalar(n.String())
	return nil
}

func (s Scalar) String() string {
	return string(s)
}

// Task is one unit of implementation work.
type Task struct {
	ID          Scalar `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
	Priority    Scalar `json:"priority,omitempty"`
}

// DisplayID returns the id, or "unknown" when the task has none.
func (t Task) DisplayID() string {
	if t.ID == "" {
		return "unknown"
	}
	return t.ID.String()
}

// DisplayName returns the name, or a placeholder when empty.
func (t Task) DisplayName() string {
	if t.Name == "" {
		return "Unnamed task"
	}
	return t.Name
}

// DisplayStatus returns the status, defaulting to pending.
func (t Task) DisplayStatus() string {
	if t.Status == "" {
		return DefaultStatus
	}
	return t.Status
}

// DisplayPriority returns the priority, defaulting to medium.
func (t Task) DisplayPriority() string {
	if t.Priority == "" {
		return DefaultPriority
	}
	return t.Priority.String()
}

// BranchName is the branch a task is implemented on.
func (t Task) BranchName() string {
	return "task-" + t.DisplayID()
}

// CommitMessage is the message used when the task's changes are committed.
func (t Task) CommitMessage() string {
	return "Implement " + t.DisplayName()
}

// Backlog is the on-disk shape of tasks.json
type Backlog struct {
	Tasks   []Task `json:"tasks"`
	Version string `json:"version"`
}

// Find returns the first task whose id equals id. Ids are not required to be
// unique; later duplicates are never returned.
func (b *Backlog) Find(id string) (Task, error) {
	for _, t := range b.Tasks {
		if t.ID.String() == id {
			return t, nil
		}
	}
	return Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
}

// DuplicateIDs returns ids that appear more than once, in first-seen order.
func (b *Backlog) DuplicateIDs() []string {
	seen := make(map[string]int)
	var dups []string
	for _, t := range b.Tasks {
		id := t.ID.String()
		seen[id]++
		if seen[id] == 2 {
			dups = append(dups, id)
		}
	}
	return dups
}

// Store reads and writes tasks.json.
type Store struct {
	path   string
	logger *slog.Logger
}

// NewStore returns a store for the backlog at path. A nil logger uses slog.Default().
func NewStore(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{path: path, logger: logger}
}

// Path returns the backlog file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the backlog. The result is never nil: a missing file is an empty
// backlog, and an unreadable or malformed file is an empty backlog plus a
// warning in the second return value.
func (s *Store) Load() (*Backlog, error) {
	empty := &Backlog{Version: formatVersion}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return empty, nil
		}
		s.logger.Warn("could not read tasks", "path", s.path, "error", err)
		return empty, &fileio.Error{Op: "read", Path: s.path, Err: err}
	}

	var b Backlog
	if err := json.Unmarshal(data, &b); err != nil {
		s.logger.Warn("malformed tasks file, starting empty", "path", s.path, "error", err)
		return empty, fmt.Errorf("%w: %s: %v", ErrMalformedData, s.path, err)
	}
	if b.Version == "" {
		b.Version = formatVersion
	}
	return &b, nil
}

// Save writes the whole backlog atomically.
func (s *Store) Save(b *Backlog) error {
	if b.Version == "" {
		b.Version = formatVersion
	}
	if b.Tasks == nil {
		b.Tasks = []Task{}
	}
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return err
	}
	return fileio.WriteFile(s.path, append(data, '\n'), 0644)
}
