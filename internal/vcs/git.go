// Package vcs drives the git command line for the task pipeline: branch
// creation, staging and committing everything, and status queries.
package vcs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kennyg/persona-kit/internal/process"
)

// DefaultTimeout bounds each git invocation.
const DefaultTimeout = 30 * time.Second

// Error reports a git operation that failed. Stderr carries git's own message.
type Error struct {
	Op       string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *Error) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	switch {
	case e.Err != nil && msg != "":
		return fmt.Sprintf("git %s: %v: %s", e.Op, e.Err, msg)
	case e.Err != nil:
		return fmt.Sprintf("git %s: %v", e.Op, e.Err)
	case msg != "":
		return fmt.Sprintf("git %s: exit status %d: %s", e.Op, e.ExitCode, msg)
	default:
		return fmt.Sprintf("git %s: exit status %d", e.Op, e.ExitCode)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// BranchResult describes the outcome of CreateAndSwitchBranch.
type BranchResult struct {
	Name string
	// Existed is true when the branch was already present and nothing was done
	Existed bool
}

// CommitResult describes the outcome of CommitAll.
type CommitResult struct {
	// NothingToCommit is true when the staged diff was empty
	NothingToCommit bool
	Message         string
	Files           []string
}

// Status is the working tree state.
type Status struct {
	Dirty         bool
	CurrentBranch string
}

// Git runs git in one working directory.
type Git struct {
	runner  process.Runner
	dir     string
	timeout time.Duration
	env     []string
	logger  *slog.Logger
}

// Option configures a Git client.
type Option func(*Git)

// WithTimeout sets the per-invocation timeout.
func WithTimeout(d time.Duration) Option {
	return func(g *Git) { g.timeout = d }
}

// WithEnv adds environment entries to every git invocation.
func WithEnv(env ...string) Option {
	return func(g *Git) { g.env = append(g.env, env...) }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Git) { g.logger = l }
}

// New returns a Git client for dir.
func New(runner process.Runner, dir string, opts ...Option) *Git {
	g := &Git{
		runner:  runner,
		dir:     dir,
		timeout: DefaultTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// run executes git and turns runner failures and non-zero exits into *Error.
func (g *Git) run(ctx context.Context, op string, args ...string) (process.Result, error) {
	res, err := g.exec(ctx, args...)
	if err != nil {
		return res, &Error{Op: op, ExitCode: res.ExitCode, Stderr: res.Stderr, Err: err}
	}
	if !res.Success() {
		return res, &Error{Op: op, ExitCode: res.ExitCode, Stderr: res.Stderr}
	}
	return res, nil
}

func (g *Git) exec(ctx context.Context, args ...string) (process.Result, error) {
	return g.runner.Run(ctx, process.Command{
		Name:    "git",
		Args:    args,
		Dir:     g.dir,
		Env:     g.env,
		Timeout: g.timeout,
	})
}

// IsRepository reports whether the directory is inside a git work tree. Any
// failure, including git being absent, reads as false.
func (g *Git) IsRepository(ctx context.Context) bool {
	res, err := g.exec(ctx, "rev-parse", "--is-inside-work-tree")
	if err != nil || !res.Success() {
		return false
	}
	return strings.TrimSpace(res.Stdout) == "true"
}

// BranchExists reports whether a local branch named name exists.
func (g *Git) BranchExists(ctx context.Context, name string) (bool, error) {
	res, err := g.exec(ctx, "show-ref", "--verify", "--quiet", "refs/heads/"+name)
	if err != nil {
		return false, &Error{Op: "show-ref", ExitCode: res.ExitCode, Stderr: res.Stderr, Err: err}
	}
	switch res.ExitCode {
	case 0:
		return true, nil
	case 1:
		return false, nil
	default:
		return false, &Error{Op: "show-ref", ExitCode: res.ExitCode, Stderr: res.Stderr}
	}
}

// CreateAndSwitchBranch creates name and checks it out. An existing branch is
// left alone and reported with Existed set; that is not an error.
func (g *Git) CreateAndSwitchBranch(ctx context.Context, name string) (BranchResult, error) {
	exists, err := g.BranchExists(ctx, name)
	if err != nil {
		return BranchResult{Name: name}, err
	}
	if exists {
		g.logger.Info("branch already exists", "branch", name)
		return BranchResult{Name: name, Existed: true}, nil
	}

	if _, err := g.run(ctx, "checkout", "checkout", "-b", name); err != nil {
		return BranchResult{Name: name}, err
	}
	g.logger.Info("created branch", "branch", name)
	return BranchResult{Name: name}, nil
}

// CommitAll stages every change and commits it. An empty staged diff is
// reported with NothingToCommit set and no commit is made.
func (g *Git) CommitAll(ctx context.Context, message string) (CommitResult, error) {
	result := CommitResult{Message: message}

	if _, err := g.run(ctx, "add", "add", "-A"); err != nil {
		return result, err
	}

	res, err := g.run(ctx, "diff", "diff", "--cached", "--name-only")
	if err != nil {
		return result, err
	}
	result.Files = splitLines(res.Stdout)
	if len(result.Files) == 0 {
		result.NothingToCommit = true
		g.logger.Info("nothing to commit")
		return result, nil
	}

	if _, err := g.run(ctx, "commit", "commit", "-m", message); err != nil {
		return result, err
	}
	g.logger.Info("committed changes", "files", len(result.Files))
	return result, nil
}

// Status reports whether the work tree has uncommitted changes and which
// branch is checked out.
func (g *Git) Status(ctx context.Context) (Status, error) {
	res, err := g.run(ctx, "status", "status", "--porcelain")
	if err != nil {
		return Status{}, err
	}
	st := Status{Dirty: strings.TrimSpace(res.Stdout) != ""}

	res, err = g.run(ctx, "branch", "branch", "--show-current")
	if err != nil {
		return st, err
	}
	st.CurrentBranch = strings.TrimSpace(res.Stdout)
	return st, nil
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// IsNotInstalled reports whether err came from git being absent.
func IsNotInstalled(err error) bool {
	return errors.Is(err, process.ErrNotFound)
}
