package vcs

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kennyg/persona-kit/internal/process"
)

// scriptedRunner answers git invocations by their argument line.
type scriptedRunner struct {
	responses map[string]scripted
	calls     []string
}

type scripted struct {
	res process.Result
	err error
}

func (s *scriptedRunner) Run(_ context.Context, cmd process.Command) (process.Result, error) {
	line := strings.Join(cmd.Args, " ")
	s.calls = append(s.calls, line)
	if r, ok := s.responses[line]; ok {
		return r.res, r.err
	}
	return process.Result{}, nil
}

func ok(stdout string) scripted {
	return scripted{res: process.Result{Stdout: stdout}}
}

func exit(code int, stderr string) scripted {
	return scripted{res: process.Result{ExitCode: code, Stderr: stderr}}
}

func TestGit_IsRepository(t *testing.T) {
	tests := []struct {
		name string
		resp scripted
		want bool
	}{
		{"inside work tree", ok("true\n"), true},
		{"not a repository", exit(128, "fatal: not a git repository"), false},
		{"git missing", scripted{res: process.Result{ExitCode: -1}, err: process.ErrNotFound}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &scriptedRunner{responses: map[string]scripted{"rev-parse --is-inside-work-tree": tt.resp}}
			assert.Equal(t, tt.want, New(r, "/repo").IsRepository(context.Background()))
		})
	}
}

func TestGit_CreateAndSwitchBranch_Existing(t *testing.T) {
	r := &scriptedRunner{responses: map[string]scripted{
		"show-ref --verify --quiet refs/heads/task-7": ok(""),
	}}

	res, err := New(r, "/repo").CreateAndSwitchBranch(context.Background(), "task-7")
	require.NoError(t, err)
	assert.True(t, res.Existed)
	assert.Equal(t, []string{"show-ref --verify --quiet refs/heads/task-7"}, r.calls)
}

func TestGit_CreateAndSwitchBranch_New(t *testing.T) {
	r := &scriptedRunner{responses: map[string]scripted{
		"show-ref --verify --quiet refs/heads/task-7": exit(1, ""),
	}}

	res, err := New(r, "/repo").CreateAndSwitchBranch(context.Background(), "task-7")
	require.NoError(t, err)
	assert.False(t, res.Existed)
	assert.Contains(t, r.calls, "checkout -b task-7")
}

func TestGit_CreateAndSwitchBranch_Failure(t *testing.T) {
	r := &scriptedRunner{responses: map[string]scripted{
		"show-ref --verify --quiet refs/heads/task-7": exit(1, ""),
		"checkout -b task-7":                          exit(128, "fatal: not a valid branch name"),
	}}

	_, err := New(r, "/repo").CreateAndSwitchBranch(context.Background(), "task-7")
	require.Error(t, err)

	var gerr *Error
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, "checkout", gerr.Op)
	assert.Equal(t, 128, gerr.ExitCode)
	assert.Contains(t, gerr.Error(), "not a valid branch name")
}

func TestGit_CommitAll_NothingToCommit(t *testing.T) {
	r := &scriptedRunner{responses: map[string]scripted{
		"diff --cached --name-only": ok("\n"),
	}}

	res, err := New(r, "/repo").CommitAll(context.Background(), "Implement thing")
	require.NoError(t, err)
	assert.True(t, res.NothingToCommit)
	for _, c := range r.calls {
		assert.False(t, strings.HasPrefix(c, "commit"), "commit should not run, got %q", c)
	}
}

func TestGit_CommitAll_Commits(t *testing.T) {
	r := &scriptedRunner{responses: map[string]scripted{
		"diff --cached --name-only": ok("a.go\nb.go\n"),
	}}

	res, err := New(r, "/repo").CommitAll(context.Background(), "Implement thing")
	require.NoError(t, err)
	assert.False(t, res.NothingToCommit)
	assert.Equal(t, []string{"a.go", "b.go"}, res.Files)
	assert.Equal(t, []string{"add -A", "diff --cached --name-only", "commit -m Implement thing"}, r.calls)
}

func TestGit_CommitAll_Failure(t *testing.T) {
	r := &scriptedRunner{responses: map[string]scripted{
		"diff --cached --name-only": ok("a.go\n"),
		"commit -m msg":             exit(1, "Author identity unknown"),
	}}

	_, err := New(r, "/repo").CommitAll(context.Background(), "msg")
	var gerr *Error
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, "commit", gerr.Op)
	assert.Equal(t, "Author identity unknown", gerr.Stderr)
}

func TestGit_Status(t *testing.T) {
	r := &scriptedRunner{responses: map[string]scripted{
		"status --porcelain":    ok(" M main.go\n"),
		"branch --show-current": ok("task-3\n"),
	}}

	st, err := New(r, "/repo").Status(context.Background())
	require.NoError(t, err)
	assert.True(t, st.Dirty)
	assert.Equal(t, "task-3", st.CurrentBranch)
}

func TestGit_StatusFailure(t *testing.T) {
	r := &scriptedRunner{responses: map[string]scripted{
		"status --porcelain": {res: process.Result{ExitCode: -1}, err: process.ErrNotFound},
	}}

	_, err := New(r, "/repo").Status(context.Background())
	require.Error(t, err)
	assert.True(t, IsNotInstalled(err))
}

// TestGit_RealRepository exercises the adapter against the git binary.
func TestGit_RealRepository(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	dir := t.TempDir()
	ctx := context.Background()
	g := New(process.NewExecRunner(nil), dir, WithEnv(
		"GIT_AUTHOR_NAME=Persona Kit", "GIT_AUTHOR_EMAIL=kit@example.com",
		"GIT_COMMITTER_NAME=Persona Kit", "GIT_COMMITTER_EMAIL=kit@example.com",
		"GIT_CONFIG_GLOBAL=/dev/null", "GIT_CONFIG_NOSYSTEM=1",
	))

	assert.False(t, g.IsRepository(ctx))
	_, err := g.run(ctx, "init", "init", "-q")
	require.NoError(t, err)
	assert.True(t, g.IsRepository(ctx))

	res, err := g.CommitAll(ctx, "empty")
	require.NoError(t, err)
	assert.True(t, res.NothingToCommit)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("hi\n"), 0644))
	st, err := g.Status(ctx)
	require.NoError(t, err)
	assert.True(t, st.Dirty)

	res, err = g.CommitAll(ctx, "Add readme")
	require.NoError(t, err)
	assert.False(t, res.NothingToCommit)
	assert.Equal(t, []string{"README.md"}, res.Files)

	br, err := g.CreateAndSwitchBranch(ctx, "task-1")
	require.NoError(t, err)
	assert.False(t, br.Existed)

	st, err = g.Status(ctx)
	require.NoError(t, err)
	assert.False(t, st.Dirty)
	assert.Equal(t, "task-1", st.CurrentBranch)

	br, err = g.CreateAndSwitchBranch(ctx, "task-1")
	require.NoError(t, err)
	assert.True(t, br.Existed)
}
