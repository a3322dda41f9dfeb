package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/kennyg/persona-kit/internal/config"
	"github.com/kennyg/persona-kit/internal/ui"
)

var (
	// Version is set at build time
	Version = "dev"

	projectPath string
	verbose     bool
)

// errSilent marks a failure whose message has already been printed.
var errSilent = errors.New("command failed")

var rootCmd = &cobra.Command{
	Use:   "persona-kit",
	Short: "Team personas, patterns and workflows for AI-assisted development",
	Long: ui.Logo() + `

  Describe how your team works: who is involved, how they communicate,
  and which processes they follow. Then let the implement pipeline
  work through the task backlog on its own branches.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		slog.SetDefault(newLogger(cmd.ErrOrStderr(), verbose))
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command. Errors are printed here so every
// subcommand reports failures the same way.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil && !errors.Is(err, errSilent) {
		fmt.Fprintln(rootCmd.ErrOrStderr(), ui.Render(ui.Error, "Error: "+err.Error()))
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&projectPath, "project", "p", ".", "path to the project directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(personaKind.command())
	rootCmd.AddCommand(patternKind.command())
	rootCmd.AddCommand(workflowKind.command())
	rootCmd.AddCommand(implementCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "persona-kit %s\n", Version)
	},
}

func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// openProject resolves --project and makes sure persona-kit/ exists.
func openProject() (*config.Paths, error) {
	paths, err := config.GetPaths(projectPath)
	if err != nil {
		return nil, err
	}
	if err := paths.EnsureDirs(); err != nil {
		return nil, fmt.Errorf("create %s: %w", paths.KitDir, err)
	}
	return paths, nil
}
