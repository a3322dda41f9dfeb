package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kennyg/persona-kit/internal/config"
	"github.com/kennyg/persona-kit/internal/fileio"
	"github.com/kennyg/persona-kit/internal/process"
	"github.com/kennyg/persona-kit/internal/tasks"
	"github.com/kennyg/persona-kit/internal/testprobe"
	"github.com/kennyg/persona-kit/internal/ui"
	"github.com/kennyg/persona-kit/internal/vcs"
)

var (
	forceExecute    bool
	strictImplement bool
)

// newRunner builds the process runner used for git and test commands.
var newRunner = func() process.Runner {
	return process.NewExecRunner(slog.Default())
}

var implementCmd = &cobra.Command{
	Use:   "implement",
	Short: "Execute implementation tasks on their own branches",
	Long: `Work through the task backlog in persona-kit/tasks.json.

Each executed task gets a branch named task-<id>, runs the implementation
phases, tries the project's test command and commits the result. Branches,
tests and commits can each be switched off with 'implement config'.`,
}

var implementStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show settings, tasks and git status",
	Args:  cobra.NoArgs,
	RunE:  runImplementStatus,
}

var implementExecuteCmd = &cobra.Command{
	Use:   "execute <task-id>",
	Short: "Execute one task",
	Long: `Execute one task from the backlog.

Examples:
  persona-kit implement execute 3
  persona-kit implement execute login-form --force`,
	Args: cobra.ExactArgs(1),
	RunE: runImplementExecute,
}

var implementConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change implementation settings",
	Long: `Show or change implementation settings.

Only the flags you pass are changed. Without flags the current settings
are printed.

Examples:
  persona-kit implement config
  persona-kit implement config --auto-commit=false --generate-docs`,
	Args: cobra.NoArgs,
	RunE: runImplementConfig,
}

var implementValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check that the project is ready for task execution",
	Args:  cobra.NoArgs,
	RunE:  runImplementValidate,
}

func init() {
	implementExecuteCmd.Flags().BoolVar(&forceExecute, "force", false, "exit zero even when the task fails")
	implementValidateCmd.Flags().BoolVar(&strictImplement, "strict", false, "exit non-zero when the environment is not ready")

	for _, name := range config.SettingNames {
		implementConfigCmd.Flags().Bool(settingFlag(name), false, "enable or disable "+settingLabel(name))
	}

	implementCmd.AddCommand(implementStatusCmd, implementExecuteCmd, implementConfigCmd, implementValidateCmd)
}

// settingFlag maps an implement.json key to its flag name.
func settingFlag(name string) string {
	return strings.ReplaceAll(name, "_", "-")
}

// settingLabel maps an implement.json key to a display label, e.g. "Auto Commit".
func settingLabel(name string) string {
	words := strings.Split(name, "_")
	for i, w := range words {
		words[i] = capitalize(w)
	}
	return strings.Join(words, " ")
}

func printSettings(out io.Writer, s config.Settings) {
	for _, name := range config.SettingNames {
		v, _ := s.Get(name)
		state := ui.Render(ui.Success, "Enabled")
		if !v {
			state = ui.Render(ui.Muted, "Disabled")
		}
		fmt.Fprintf(out, "  %s: %s\n", settingLabel(name), state)
	}
}

func loadSettings(out io.Writer, paths *config.Paths) *config.ImplementConfig {
	cfg, warn := config.LoadImplementConfig(paths.ImplementFile)
	if warn != nil {
		fmt.Fprintln(out, ui.WarningLine(fmt.Sprintf("Could not load implement config: %v", warn)))
	}
	return cfg
}

func loadBacklog(out io.Writer, paths *config.Paths) *tasks.Backlog {
	backlog, warn := tasks.NewStore(paths.TasksFile, slog.Default()).Load()
	if warn != nil {
		fmt.Fprintln(out, ui.WarningLine(fmt.Sprintf("Could not load tasks: %v", warn)))
	}
	return backlog
}

func newGit(paths *config.Paths) *vcs.Git {
	return vcs.New(newRunner(), paths.ProjectRoot, vcs.WithLogger(slog.Default()))
}

func runImplementStatus(cmd *cobra.Command, args []string) error {
	paths, err := openProject()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	cfg := loadSettings(out, paths)
	backlog := loadBacklog(out, paths)

	fmt.Fprintln(out)
	fmt.Fprintln(out, ui.SectionHeader("Implementation Status"))
	fmt.Fprintln(out)
	fmt.Fprintln(out, ui.Render(ui.Subtitle, "Implementation Settings:"))
	printSettings(out, cfg.Settings)
	fmt.Fprintln(out)

	if len(backlog.Tasks) > 0 {
		fmt.Fprintln(out, ui.Render(ui.Subtitle, fmt.Sprintf("Pending Tasks (%d):", len(backlog.Tasks))))
		var rows [][]string
		for _, t := range backlog.Tasks {
			rows = append(rows, []string{t.DisplayID(), t.DisplayName(), t.DisplayStatus(), t.DisplayPriority()})
		}
		fmt.Fprintln(out, ui.Table([]string{"ID", "Name", "Status", "Priority"}, rows))
	} else {
		fmt.Fprintln(out, ui.WarningLine("No tasks found."))
		fmt.Fprintf(out, "  Add tasks to %s first.\n", paths.TasksFile)
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, ui.Render(ui.Subtitle, "Git Status:"))
	st, err := newGit(paths).Status(cmd.Context())
	if err != nil {
		slog.Debug("git status failed", "error", err)
		if vcs.IsNotInstalled(err) {
			fmt.Fprintln(out, ui.ErrorLine("git is not installed"))
		} else {
			fmt.Fprintln(out, ui.ErrorLine("Error checking git status"))
		}
		fmt.Fprintln(out, "  Current branch: unknown")
		return nil
	}
	if st.Dirty {
		fmt.Fprintln(out, ui.WarningLine("Uncommitted changes detected"))
	} else {
		fmt.Fprintln(out, ui.SuccessLine("Working directory clean"))
	}
	branch := st.CurrentBranch
	if branch == "" {
		branch = "unknown"
	}
	fmt.Fprintf(out, "  Current branch: %s\n", ui.RenderCode(branch))
	return nil
}

func runImplementExecute(cmd *cobra.Command, args []string) error {
	paths, err := openProject()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	cfg := loadSettings(out, paths)
	backlog := loadBacklog(out, paths)

	task, err := backlog.Find(args[0])
	if err != nil {
		return err
	}

	notesDir := ""
	if cfg.Settings.GenerateDocs {
		notesDir = paths.ImplementationDir
	}
	runner := newRunner()
	pipeline := tasks.NewPipeline(
		vcs.New(runner, paths.ProjectRoot, vcs.WithLogger(slog.Default())),
		testprobe.New(runner, paths.ProjectRoot, testprobe.WithLogger(slog.Default())),
		cfg.Settings,
		tasks.WithSteps(tasks.DefaultSteps(notesDir)),
		tasks.WithReporter(consoleReporter{out: out}),
		tasks.WithLogger(slog.Default()),
	)

	res := pipeline.Execute(cmd.Context(), task)
	fmt.Fprintln(out)
	if res.Success {
		fmt.Fprintln(out, ui.SuccessLine("Task execution completed successfully!"))
		return nil
	}
	fmt.Fprintln(out, ui.ErrorLine("Task execution failed."))
	if forceExecute {
		return nil
	}
	return fmt.Errorf("task %s failed at %s: %w", task.DisplayID(), res.FailedStage, res.Err)
}

func runImplementConfig(cmd *cobra.Command, args []string) error {
	paths, err := openProject()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	changed := false
	for _, name := range config.SettingNames {
		if cmd.Flags().Changed(settingFlag(name)) {
			changed = true
		}
	}
	if !changed {
		cfg := loadSettings(out, paths)
		fmt.Fprintln(out, ui.Render(ui.Subtitle, "Current Implementation Settings:"))
		printSettings(out, cfg.Settings)
		fmt.Fprintln(out)
		fmt.Fprintln(out, ui.RenderMuted("  Use --help to see available configuration options."))
		return nil
	}

	lock, err := fileio.Acquire(paths.LockFile)
	if err != nil {
		return err
	}
	defer lock.Release()

	cfg := loadSettings(out, paths)
	for _, name := range config.SettingNames {
		flag := settingFlag(name)
		if !cmd.Flags().Changed(flag) {
			continue
		}
		v, err := cmd.Flags().GetBool(flag)
		if err != nil {
			return err
		}
		if err := cfg.Settings.Set(name, v); err != nil {
			return err
		}
	}
	if err := config.SaveImplementConfig(paths.ImplementFile, cfg); err != nil {
		return fmt.Errorf("failed to save implementation settings: %w", err)
	}

	fmt.Fprintln(out, ui.SuccessLine("Implementation settings updated successfully!"))
	fmt.Fprintln(out)
	fmt.Fprintln(out, ui.Render(ui.Subtitle, "Updated Settings:"))
	printSettings(out, cfg.Settings)
	return nil
}

func runImplementValidate(cmd *cobra.Command, args []string) error {
	paths, err := openProject()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	cfg := loadSettings(out, paths)
	backlog := loadBacklog(out, paths)

	fmt.Fprintln(out, ui.Render(ui.Title, "Validating implementation environment..."))
	fmt.Fprintln(out)

	isRepo := newGit(paths).IsRepository(cmd.Context())
	if isRepo {
		fmt.Fprintf(out, "  Git Repository: %s\n", ui.Render(ui.Success, "✓ Found"))
	} else {
		fmt.Fprintf(out, "  Git Repository: %s\n", ui.Render(ui.Error, "✗ Not found"))
	}

	hasTasks := len(backlog.Tasks) > 0
	if hasTasks {
		fmt.Fprintf(out, "  Tasks: %s\n", ui.Render(ui.Success, fmt.Sprintf("✓ %d found", len(backlog.Tasks))))
	} else {
		fmt.Fprintf(out, "  Tasks: %s\n", ui.Render(ui.Error, "✗ None found"))
	}
	if dups := backlog.DuplicateIDs(); len(dups) > 0 {
		fmt.Fprintln(out, ui.WarningLine(fmt.Sprintf("Duplicate task ids: %s (only the first of each runs)", strings.Join(dups, ", "))))
	}

	var tools []string
	for _, c := range testprobe.New(newRunner(), paths.ProjectRoot).Installed() {
		tools = append(tools, c.String())
	}
	if len(tools) > 0 {
		fmt.Fprintf(out, "  Test commands: %s\n", strings.Join(tools, ", "))
	} else {
		fmt.Fprintf(out, "  Test commands: %s\n", ui.Render(ui.Warning, "none on PATH, the test stage will find nothing"))
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, ui.Render(ui.Subtitle, "Configuration Settings:"))
	printSettings(out, cfg.Settings)
	fmt.Fprintln(out)

	if isRepo && hasTasks {
		fmt.Fprintln(out, ui.SuccessLine("Implementation environment is ready!"))
		return nil
	}
	fmt.Fprintln(out, ui.WarningLine("Implementation environment needs attention."))
	if !isRepo {
		fmt.Fprintln(out, "    - Initialize git repository or navigate to a git repository")
	}
	if !hasTasks {
		fmt.Fprintln(out, "    - Create tasks in "+paths.TasksFile)
	}
	if strictImplement {
		return errSilent
	}
	return nil
}

// consoleReporter prints pipeline progress for a person watching the run.
type consoleReporter struct {
	out io.Writer
}

func (r consoleReporter) Report(e tasks.Event) {
	res := e.Result
	switch e.Kind {
	case tasks.EventTaskStarted:
		fmt.Fprintln(r.out)
		fmt.Fprintf(r.out, "  %s %s\n", ui.TaskBadge(), ui.Render(ui.Title, "Executing Task: "+res.Task.DisplayName()))
		if res.Task.Description != "" {
			fmt.Fprintf(r.out, "  Description: %s\n", res.Task.Description)
		}
		fmt.Fprintln(r.out, ui.RenderMuted("  run "+res.RunID))
		fmt.Fprintln(r.out)

	case tasks.EventStageSkipped:
		fmt.Fprintln(r.out, ui.SkipLine(stageLabel(e.Stage)+" disabled"))

	case tasks.EventStageStarted:
		switch e.Stage {
		case tasks.StageBranch:
			fmt.Fprintln(r.out, ui.InfoLine("Creating branch "+res.Task.BranchName()+"..."))
		case tasks.StageSteps:
			fmt.Fprintln(r.out, ui.InfoLine("Executing implementation steps..."))
		case tasks.StageTest:
			fmt.Fprintln(r.out, ui.InfoLine("Running tests..."))
		case tasks.StageCommit:
			fmt.Fprintln(r.out, ui.InfoLine("Committing changes..."))
		}

	case tasks.EventStepFinished:
		label := fmt.Sprintf("  [%d/%d] %s", e.Index+1, e.Total, e.Step)
		if e.Err != nil {
			fmt.Fprintln(r.out, ui.ErrorLine(label+": "+e.Err.Error()))
		} else {
			fmt.Fprintln(r.out, ui.SuccessLine(label))
		}

	case tasks.EventStageFinished:
		if e.Err != nil {
			fmt.Fprintln(r.out, ui.ErrorLine(fmt.Sprintf("%s failed: %v", stageLabel(e.Stage), e.Err)))
			return
		}
		r.stageDone(e.Stage, res)

	case tasks.EventTaskFinished:
		if res.Success {
			fmt.Fprintln(r.out, ui.SuccessLine(fmt.Sprintf("Task '%s' completed successfully!", res.Task.DisplayName())))
		}
	}
}

func (r consoleReporter) stageDone(stage tasks.Stage, res *tasks.Result) {
	switch stage {
	case tasks.StageBranch:
		if res.Branch.Existed {
			fmt.Fprintln(r.out, ui.WarningLine(fmt.Sprintf("Branch '%s' already exists.", res.Branch.Name)))
		} else {
			fmt.Fprintln(r.out, ui.SuccessLine(fmt.Sprintf("Created and switched to branch '%s'", res.Branch.Name)))
		}

	case tasks.StageTest:
		for _, a := range res.Tests.Attempts {
			fmt.Fprintln(r.out, ui.RenderMuted("    Trying test command: "+a.Command))
			if a.Outcome == testprobe.OutcomeFailed {
				fmt.Fprintln(r.out, ui.RenderMuted(fmt.Sprintf("    Tests failed. Exit code: %d", a.ExitCode)))
				if s := strings.TrimSpace(a.Stdout); s != "" {
					fmt.Fprintln(r.out, "    Output: "+ui.Truncate(s, 500))
				}
				if s := strings.TrimSpace(a.Stderr); s != "" {
					fmt.Fprintln(r.out, "    Error: "+ui.Truncate(s, 500))
				}
			}
		}
		if passed, ok := res.Tests.Passed(); ok {
			fmt.Fprintln(r.out, ui.SuccessLine("Tests passed: "+passed.Command))
		} else {
			fmt.Fprintln(r.out, ui.WarningLine("Tests failed or not found. Continuing anyway."))
		}

	case tasks.StageCommit:
		if res.Commit.NothingToCommit {
			fmt.Fprintln(r.out, ui.WarningLine("No changes to commit."))
		} else {
			fmt.Fprintln(r.out, ui.SuccessLine("Committed changes: "+res.Commit.Message))
		}
	}
}

func stageLabel(s tasks.Stage) string {
	switch s {
	case tasks.StageBranch:
		return "Branch creation"
	case tasks.StageSteps:
		return "Implementation steps"
	case tasks.StageTest:
		return "Test run"
	case tasks.StageCommit:
		return "Commit"
	}
	return string(s)
}
