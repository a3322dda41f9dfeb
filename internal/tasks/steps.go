package tasks

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kennyg/persona-kit/internal/fileio"
)

// DefaultSteps returns the five implementation phases. The phases only
// report progress, except documentation which writes a task note into
// notesDir when notesDir is not empty.
func DefaultSteps(notesDir string) []Step {
	steps := []Step{
		{Name: "analyze", Title: "Analyze requirements"},
		{Name: "plan", Title: "Plan implementation"},
		{Name: "implement", Title: "Write code"},
		{Name: "review", Title: "Review changes"},
		{Name: "document", Title: "Update documentation"},
	}
	if notesDir != "" {
		steps[len(steps)-1].Run = func(_ context.Context, t Task) error {
			_, err := WriteNote(notesDir, t)
			return err
		}
	}
	return steps
}

// NotePath returns the path of the task note inside dir. Ids that are not a
// single path element are rejected.
func NotePath(dir string, t Task) (string, error) {
	id := t.DisplayID()
	if err := fileio.CheckName(id); err != nil {
		return "", fmt.Errorf("task id %q: %w", id, err)
	}
	return filepath.Join(dir, "task-"+id+".md"), nil
}

// WriteNote renders the task note and writes it atomically, returning its path.
func WriteNote(dir string, t Task) (string, error) {
	path, err := NotePath(dir, t)
	if err != nil {
		return "", err
	}
	if err := fileio.WriteFile(path, []byte(RenderNote(t)), 0644); err != nil {
		return "", err
	}
	return path, nil
}

// RenderNote renders the markdown note for a task.
func RenderNote(t Task) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Task %s: %s\n\n", t.DisplayID(), t.DisplayName())
	fmt.Fprintf(&b, "**Status:** %s\n", t.DisplayStatus())
	fmt.Fprintf(&b, "**Priority:** %s\n", t.DisplayPriority())
	fmt.Fprintf(&b, "**Branch:** %s\n", t.BranchName())

	if t.Description != "" {
		fmt.Fprintf(&b, "\n## Description\n\n%s\n", t.Description)
	}

	b.WriteString("\n## Phases\n\n")
	for i, s := range DefaultSteps("") {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s.Title)
	}
	return b.String()
}
