package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Layout of the persona-kit directory inside a project:
//
//	persona-kit/personas/personas.json      persona-kit/personas/<type>.md
//	persona-kit/patterns/patterns.json      persona-kit/patterns/<category>/<type>.md
//	persona-kit/workflows/workflows.json    persona-kit/workflows/<type>.md
//	persona-kit/implement.json              persona-kit/tasks.json
const (
	// KitDir is the directory persona-kit owns under the project root
	KitDir = "persona-kit"

	// ImplementFile holds the implementation settings
	ImplementFile = "implement.json"
	// TasksFile holds the task backlog
	TasksFile = "tasks.json"
	// CatalogFile optionally overrides the built-in asset catalog
	CatalogFile = "catalog.yaml"
	// LockFile is flocked around read-modify-write of persona-kit state
	LockFile = ".lock"
	// ImplementationDir receives generated task notes
	ImplementationDir = "implementation"

	// FormatVersion is written into every persisted document
	FormatVersion = "1.0"
)

// Paths holds the locations persona-kit reads and writes for one project.
type Paths struct {
	// ProjectRoot is the absolute project directory
	ProjectRoot string
	// KitDir is <project>/persona-kit
	KitDir string

	ImplementFile     string
	TasksFile         string
	CatalogFile       string
	LockFile          string
	ImplementationDir string
}

// GetPaths resolves the project directory and returns its persona-kit paths.
// The project directory must already exist.
func GetPaths(project string) (*Paths, error) {
	if project == "" {
		project = "."
	}
	root, err := filepath.Abs(project)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("project path does not exist: %s", root)
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("project path is not a directory: %s", root)
	}

	kit := filepath.Join(root, KitDir)
	return &Paths{
		ProjectRoot:       root,
		KitDir:            kit,
		ImplementFile:     filepath.Join(kit, ImplementFile),
		TasksFile:         filepath.Join(kit, TasksFile),
		CatalogFile:       filepath.Join(kit, CatalogFile),
		LockFile:          filepath.Join(kit, LockFile),
		ImplementationDir: filepath.Join(kit, ImplementationDir),
	}, nil
}

// KindDir returns the directory holding one asset kind's index and documents.
func (p *Paths) KindDir(dirName string) string {
	return filepath.Join(p.KitDir, dirName)
}

// EnsureDirs creates the persona-kit directory
func (p *Paths) EnsureDirs() error {
	return os.MkdirAll(p.KitDir, 0755)
}
