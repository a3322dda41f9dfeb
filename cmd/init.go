package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kennyg/persona-kit/internal/artifact"
	"github.com/kennyg/persona-kit/internal/config"
	"github.com/kennyg/persona-kit/internal/fileio"
	"github.com/kennyg/persona-kit/internal/tasks"
	"github.com/kennyg/persona-kit/internal/ui"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Set up persona-kit in a project",
	Long: `Create the persona-kit directory structure in the project:

  persona-kit/personas/        persona index and documents
  persona-kit/patterns/        pattern index and documents
  persona-kit/workflows/       workflow index and documents
  persona-kit/implement.json   implementation settings
  persona-kit/tasks.json       task backlog

Existing files are left as they are.

Examples:
  persona-kit init
  persona-kit init -p ../service --catalog`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

var initCatalog bool

func init() {
	initCmd.Flags().BoolVar(&initCatalog, "catalog", false, "also write catalog.yaml to customize the allowed types")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	paths, err := openProject()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	fmt.Fprintln(out)
	fmt.Fprintln(out, ui.SectionHeader("Initializing Persona Kit"))
	fmt.Fprintln(out)

	dirs := []string{
		paths.KindDir(artifact.PersonasDirName),
		paths.KindDir(artifact.PatternsDirName),
		paths.KindDir(artifact.WorkflowsDirName),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return &fileio.Error{Op: "mkdir", Path: dir, Err: err}
		}
		fmt.Fprintln(out, ui.RenderMuted("  Created "+rel(paths, dir)+"/"))
	}

	err = writeIfMissing(out, paths, paths.ImplementFile, func() error {
		return config.SaveImplementConfig(paths.ImplementFile, config.DefaultImplementConfig())
	})
	if err != nil {
		return err
	}

	err = writeIfMissing(out, paths, paths.TasksFile, func() error {
		return tasks.NewStore(paths.TasksFile, nil).Save(&tasks.Backlog{})
	})
	if err != nil {
		return err
	}

	if initCatalog {
		err = writeIfMissing(out, paths, paths.CatalogFile, func() error {
			return fileio.WriteFile(paths.CatalogFile, artifact.DefaultCatalogYAML(), 0644)
		})
		if err != nil {
			return err
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, ui.SuccessLine("Persona kit ready"))
	fmt.Fprintln(out)
	fmt.Fprintln(out, ui.RenderMuted("  Next steps:"))
	fmt.Fprintln(out, ui.RenderMuted("    1. persona-kit personas create <type>"))
	fmt.Fprintln(out, ui.RenderMuted("    2. persona-kit workflows create <type>"))
	fmt.Fprintln(out, ui.RenderMuted("    3. Add tasks to "+rel(paths, paths.TasksFile)+" and run 'persona-kit implement status'"))
	if footer := ui.PageFooter(); footer != "" {
		fmt.Fprintln(out, footer)
	}
	return nil
}

func writeIfMissing(out io.Writer, paths *config.Paths, path string, write func() error) error {
	if fileio.Exists(path) {
		fmt.Fprintln(out, ui.RenderMuted("  Kept existing "+rel(paths, path)))
		return nil
	}
	if err := write(); err != nil {
		return err
	}
	fmt.Fprintln(out, ui.RenderMuted("  Created "+rel(paths, path)))
	return nil
}

// rel returns path relative to the project root, for display.
func rel(paths *config.Paths, path string) string {
	if r, err := filepath.Rel(paths.ProjectRoot, path); err == nil {
		return r
	}
	return path
}
