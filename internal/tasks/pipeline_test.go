package tasks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kennyg/persona-kit/internal/config"
	"github.com/kennyg/persona-kit/internal/testprobe"
	"github.com/kennyg/persona-kit/internal/vcs"
)

type fakeVCS struct {
	branchErr  error
	branchSeen string
	commitErr  error
	commitMsg  string
	nothing    bool
	calls      []string
}

func (f *fakeVCS) CreateAndSwitchBranch(_ context.Context, name string) (vcs.BranchResult, error) {
	f.calls = append(f.calls, "branch")
	f.branchSeen = name
	return vcs.BranchResult{Name: name}, f.branchErr
}

func (f *fakeVCS) CommitAll(_ context.Context, message string) (vcs.CommitResult, error) {
	f.calls = append(f.calls, "commit")
	f.commitMsg = message
	return vcs.CommitResult{Message: message, NothingToCommit: f.nothing}, f.commitErr
}

type fakeProber struct {
	report testprobe.Report
	calls  int
}

func (f *fakeProber) Probe(context.Context) testprobe.Report {
	f.calls++
	return f.report
}

func allOn() config.Settings {
	return config.Settings{AutoCommit: true, CreateBranches: true, RunTests: true}
}

func recordingSteps(log *[]string, failAt string) []Step {
	var steps []Step
	for _, name := range []string{"analyze", "plan", "implement", "review", "document"} {
		name := name
		steps = append(steps, Step{Name: name, Title: name, Run: func(context.Context, Task) error {
			*log = append(*log, name)
			if name == failAt {
				return errors.New("boom")
			}
			return nil
		}})
	}
	return steps
}

func fixedID() string { return "run-1" }

func TestExecuteHappyPath(t *testing.T) {
	v := &fakeVCS{}
	p := &fakeProber{report: testprobe.Report{Succeeded: true}}
	var ran []string

	pl := NewPipeline(v, p, allOn(), WithSteps(recordingSteps(&ran, "")), WithRunID(fixedID))
	res := pl.Execute(context.Background(), Task{ID: "7", Name: "Add login"})

	require.True(t, res.Success)
	assert.Equal(t, "run-1", res.RunID)
	assert.Equal(t, "task-7", v.branchSeen)
	assert.Equal(t, "Implement Add login", v.commitMsg)
	assert.Equal(t, []string{"branch", "commit"}, v.calls)
	assert.Equal(t, []string{"analyze", "plan", "implement", "review", "document"}, ran)
	assert.Len(t, res.Steps, 5)
	assert.Equal(t, 1, p.calls)
	assert.Empty(t, res.Skipped)
}

func TestExecuteBranchFailureStopsEverything(t *testing.T) {
	v := &fakeVCS{branchErr: &vcs.Error{Op: "checkout", ExitCode: 128, Stderr: "fatal: not a git repository"}}
	p := &fakeProber{}
	var ran []string

	res := NewPipeline(v, p, allOn(), WithSteps(recordingSteps(&ran, ""))).
		Execute(context.Background(), Task{ID: "1", Name: "x"})

	assert.False(t, res.Success)
	assert.Equal(t, StageBranch, res.FailedStage)
	assert.Empty(t, ran, "steps must not start after branch failure")
	assert.Equal(t, 0, p.calls)
	assert.Equal(t, []string{"branch"}, v.calls)

	var gitErr *vcs.Error
	assert.ErrorAs(t, res.Err, &gitErr)
}

func TestExecuteNothingToCommitIsSuccess(t *testing.T) {
	v := &fakeVCS{nothing: true}
	p := &fakeProber{report: testprobe.Report{Succeeded: true}}

	res := NewPipeline(v, p, allOn(), WithSteps(nil)).Execute(context.Background(), Task{ID: "1"})

	require.True(t, res.Success)
	require.NotNil(t, res.Commit)
	assert.True(t, res.Commit.NothingToCommit)
}

func TestExecuteTestFailureIsNotFatal(t *testing.T) {
	v := &fakeVCS{}
	p := &fakeProber{report: testprobe.Report{Attempts: []testprobe.Attempt{
		{Command: "go test ./...", Outcome: testprobe.OutcomeFailed, ExitCode: 1},
	}}}

	res := NewPipeline(v, p, allOn()).Execute(context.Background(), Task{ID: "1"})

	assert.True(t, res.Success)
	require.NotNil(t, res.Tests)
	assert.False(t, res.Tests.Succeeded)
	assert.Equal(t, []string{"branch", "commit"}, v.calls)
}

func TestExecuteCommitFailure(t *testing.T) {
	v := &fakeVCS{commitErr: &vcs.Error{Op: "commit", ExitCode: 1}}
	p := &fakeProber{report: testprobe.Report{Succeeded: true}}

	res := NewPipeline(v, p, allOn()).Execute(context.Background(), Task{ID: "1"})

	assert.False(t, res.Success)
	assert.Equal(t, StageCommit, res.FailedStage)
	assert.True(t, res.Ran(StageTest))
}

func TestExecuteDisabledStagesAreSkipped(t *testing.T) {
	v := &fakeVCS{}
	p := &fakeProber{}
	var ran []string

	res := NewPipeline(v, p, config.Settings{}, WithSteps(recordingSteps(&ran, ""))).
		Execute(context.Background(), Task{ID: "1"})

	assert.True(t, res.Success)
	assert.Empty(t, v.calls)
	assert.Equal(t, 0, p.calls)
	assert.Len(t, ran, 5)
	assert.Equal(t, []Stage{StageBranch, StageTest, StageCommit}, res.Skipped)
	assert.False(t, res.Ran(StageBranch))
	assert.True(t, res.Ran(StageSteps))
}

func TestExecuteStepFailureAborts(t *testing.T) {
	v := &fakeVCS{}
	p := &fakeProber{}
	var ran []string

	res := NewPipeline(v, p, allOn(), WithSteps(recordingSteps(&ran, "plan"))).
		Execute(context.Background(), Task{ID: "1"})

	assert.False(t, res.Success)
	assert.Equal(t, StageSteps, res.FailedStage)
	assert.Equal(t, []string{"analyze", "plan"}, ran)
	assert.Equal(t, []string{"branch"}, v.calls, "no commit after a failed step")
	assert.Equal(t, 0, p.calls)
	assert.ErrorContains(t, res.Err, "step plan")
}

func TestExecuteReportsStepEventsInOrder(t *testing.T) {
	var events []string
	rep := ReporterFunc(func(e Event) {
		switch e.Kind {
		case EventStepStarted:
			events = append(events, "start:"+e.Step)
		case EventStepFinished:
			events = append(events, "done:"+e.Step)
		case EventTaskFinished:
			events = append(events, "finished")
		}
	})
	steps := []Step{{Name: "a", Title: "A"}, {Name: "b", Title: "B"}}

	NewPipeline(nil, nil, config.Settings{}, WithSteps(steps), WithReporter(rep)).
		Execute(context.Background(), Task{ID: "1"})

	assert.Equal(t, []string{"start:A", "done:A", "start:B", "done:B", "finished"}, events)
}

func TestDefaultStepsWritesNote(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "implementation")
	steps := DefaultSteps(dir)
	require.Len(t, steps, 5)
	assert.Equal(t, "Update documentation", steps[4].Title)

	res := NewPipeline(nil, nil, config.Settings{}, WithSteps(steps)).
		Execute(context.Background(), Task{ID: "4", Name: "Docs", Description: "Write them"})
	require.True(t, res.Success)

	data, err := os.ReadFile(filepath.Join(dir, "task-4.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Task 4: Docs")
	assert.Contains(t, string(data), "Write them")
	assert.Contains(t, string(data), "5. Update documentation")
}

func TestDefaultStepsWithoutNotesDirWritesNothing(t *testing.T) {
	for _, s := range DefaultSteps("") {
		assert.Nil(t, s.Run, s.Name)
	}
}

func TestExecuteWithoutStepsStillEntersStepsStage(t *testing.T) {
	res := NewPipeline(nil, nil, config.Settings{}, WithSteps(nil)).
		Execute(context.Background(), Task{ID: "1"})

	assert.True(t, res.Success)
	assert.Empty(t, res.Steps)
	assert.True(t, res.Ran(StageSteps))
	assert.Equal(t, []Stage{StageSteps}, res.Stages)
}

func TestExecuteRecordsStagesInOrder(t *testing.T) {
	res := NewPipeline(&fakeVCS{}, &fakeProber{}, allOn(), WithSteps(nil)).
		Execute(context.Background(), Task{ID: "1"})

	assert.Equal(t, []Stage{StageBranch, StageSteps, StageTest, StageCommit}, res.Stages)
}

func TestDefaultStepsRejectsTaskIDOutsideNotesDir(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "project", "persona-kit", "implementation")

	for _, id := range []string{"/../../../../escaped", "../escaped", ".."} {
		t.Run(id, func(t *testing.T) {
			res := NewPipeline(nil, nil, config.Settings{}, WithSteps(DefaultSteps(dir))).
				Execute(context.Background(), Task{ID: Scalar(id)})

			assert.False(t, res.Success)
			assert.Equal(t, StageSteps, res.FailedStage)
			assert.ErrorContains(t, res.Err, "step document")
			require.Len(t, res.Steps, 5)
			assert.Error(t, res.Steps[4].Err)
		})
	}

	matches, err := filepath.Glob(filepath.Join(root, "*.md"))
	require.NoError(t, err)
	assert.Empty(t, matches)
	_, err = os.Stat(filepath.Join(root, "project", "escaped.md"))
	assert.True(t, os.IsNotExist(err))
}

func TestNotePath(t *testing.T) {
	path, err := NotePath("notes", Task{ID: "7"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("notes", "task-7.md"), path)

	_, err = NotePath("notes", Task{ID: "a/b"})
	assert.ErrorContains(t, err, "path separator")

	_, err = WriteNote(t.TempDir(), Task{ID: "../x"})
	assert.Error(t, err)
}
