package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kennyg/persona-kit/internal/config"
	"github.com/kennyg/persona-kit/internal/testprobe"
	"github.com/kennyg/persona-kit/internal/vcs"
)

// Stage is one stage of the pipeline. Stages run in declaration order and
// never repeat: branch, steps, test, commit.
type Stage string

const (
	StageBranch Stage = "branch"
	StageSteps  Stage = "steps"
	StageTest   Stage = "test"
	StageCommit Stage = "commit"
)

// VCS is the version control surface the pipeline needs.
type VCS interface {
	CreateAndSwitchBranch(ctx context.Context, name string) (vcs.BranchResult, error)
	CommitAll(ctx context.Context, message string) (vcs.CommitResult, error)
}

// Prober finds and runs the project's tests.
type Prober interface {
	Probe(ctx context.Context) testprobe.Report
}

// Step is one named unit of work in the steps stage. A step that returns an
// error fails the task and no later step runs.
type Step struct {
	Name  string
	Title string
	Run   func(ctx context.Context, t Task) error
}

// StepResult records one executed step.
type StepResult struct {
	Name     string
	Title    string
	Err      error
	Duration time.Duration
}

// Result is the outcome of executing one task.
type Result struct {
	RunID   string
	Task    Task
	Success bool
	// FailedStage and Err are set when Success is false
	FailedStage Stage
	Err         error

	Branch *vcs.BranchResult
	Steps  []StepResult
	Tests  *testprobe.Report
	Commit *vcs.CommitResult
	// Stages lists the stages entered, in order; Skipped the ones switched off
	Stages  []Stage
	Skipped []Stage
}

// Ran reports whether a stage was entered.
func (r Result) Ran(stage Stage) bool {
	for _, s := range r.Stages {
		if s == stage {
			return true
		}
	}
	return false
}

// EventKind identifies a progress event.
type EventKind int

const (
	EventTaskStarted EventKind = iota
	EventStageStarted
	EventStageSkipped
	EventStageFinished
	EventStepStarted
	EventStepFinished
	EventTaskFinished
)

// Event is a progress notification. Every step produces a started and a
// finished event, in step order.
type Event struct {
	Kind  EventKind
	Stage Stage
	// Step fields are set for step events
	Step  string
	Index int
	Total int
	Err   error
	// Result is the pipeline state at the time of the event
	Result *Result
}

// Reporter receives progress events.
type Reporter interface {
	Report(e Event)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(Event)

func (f ReporterFunc) Report(e Event) { f(e) }

// Pipeline executes tasks: optional branch, steps, optional tests, optional commit.
type Pipeline struct {
	vcs      VCS
	prober   Prober
	settings config.Settings
	steps    []Step
	reporter Reporter
	logger   *slog.Logger
	newID    func() string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithSteps replaces the default steps.
func WithSteps(steps []Step) Option {
	return func(p *Pipeline) { p.steps = steps }
}

// WithReporter sets the progress reporter.
func WithReporter(r Reporter) Option {
	return func(p *Pipeline) { p.reporter = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithRunID sets the function that names each run.
func WithRunID(f func() string) Option {
	return func(p *Pipeline) { p.newID = f }
}

// NewPipeline returns a pipeline. v must be non-nil when branches or commits
// are enabled, and prober when tests are enabled.
func NewPipeline(v VCS, prober Prober, settings config.Settings, opts ...Option) *Pipeline {
	p := &Pipeline{
		vcs:      v,
		prober:   prober,
		settings: settings,
		steps:    DefaultSteps(""),
		reporter: ReporterFunc(func(Event) {}),
		logger:   slog.Default(),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Execute runs t through the pipeline. The task fails only when branch
// creation, a step, or the commit fails; failing or missing tests do not
// fail it.
func (p *Pipeline) Execute(ctx context.Context, t Task) Result {
	res := Result{RunID: p.newID(), Task: t}
	log := p.logger.With("task", t.DisplayID(), "run_id", res.RunID)
	log.Info("task started", "name", t.DisplayName())
	p.emit(Event{Kind: EventTaskStarted}, &res)

	if !p.branch(ctx, t, &res, log) ||
		!p.runSteps(ctx, t, &res, log) {
		return p.finish(res, log)
	}
	p.test(ctx, &res, log)
	if !p.commit(ctx, t, &res, log) {
		return p.finish(res, log)
	}

	res.Success = true
	return p.finish(res, log)
}

func (p *Pipeline) branch(ctx context.Context, t Task, res *Result, log *slog.Logger) bool {
	if !p.settings.CreateBranches {
		p.skip(StageBranch, res)
		return true
	}
	p.emit(Event{Kind: EventStageStarted, Stage: StageBranch}, res)

	br, err := p.vcs.CreateAndSwitchBranch(ctx, t.BranchName())
	res.Branch = &br
	if err != nil {
		p.fail(res, StageBranch, err, log)
		return false
	}
	p.emit(Event{Kind: EventStageFinished, Stage: StageBranch}, res)
	return true
}

func (p *Pipeline) runSteps(ctx context.Context, t Task, res *Result, log *slog.Logger) bool {
	p.emit(Event{Kind: EventStageStarted, Stage: StageSteps}, res)

	total := len(p.steps)
	for i, step := range p.steps {
		p.emit(Event{Kind: EventStepStarted, Stage: StageSteps, Step: step.Title, Index: i, Total: total}, res)

		start := time.Now()
		err := ctx.Err()
		if err == nil && step.Run != nil {
			err = step.Run(ctx, t)
		}
		res.Steps = append(res.Steps, StepResult{Name: step.Name, Title: step.Title, Err: err, Duration: time.Since(start)})
		p.emit(Event{Kind: EventStepFinished, Stage: StageSteps, Step: step.Title, Index: i, Total: total, Err: err}, res)

		if err != nil {
			p.fail(res, StageSteps, fmt.Errorf("step %s: %w", step.Name, err), log)
			return false
		}
		log.Debug("step completed", "step", step.Name)
	}

	p.emit(Event{Kind: EventStageFinished, Stage: StageSteps}, res)
	return true
}

func (p *Pipeline) test(ctx context.Context, res *Result, log *slog.Logger) {
	if !p.settings.RunTests {
		p.skip(StageTest, res)
		return
	}
	p.emit(Event{Kind: EventStageStarted, Stage: StageTest}, res)

	report := p.prober.Probe(ctx)
	res.Tests = &report
	if !report.Succeeded {
		log.Warn("no passing test command, continuing", "tried", len(report.Attempts))
	}
	p.emit(Event{Kind: EventStageFinished, Stage: StageTest}, res)
}

func (p *Pipeline) commit(ctx context.Context, t Task, res *Result, log *slog.Logger) bool {
	if !p.settings.AutoCommit {
		p.skip(StageCommit, res)
		return true
	}
	p.emit(Event{Kind: EventStageStarted, Stage: StageCommit}, res)

	cr, err := p.vcs.CommitAll(ctx, t.CommitMessage())
	res.Commit = &cr
	if err != nil {
		p.fail(res, StageCommit, err, log)
		return false
	}
	p.emit(Event{Kind: EventStageFinished, Stage: StageCommit}, res)
	return true
}

func (p *Pipeline) skip(stage Stage, res *Result) {
	res.Skipped = append(res.Skipped, stage)
	p.emit(Event{Kind: EventStageSkipped, Stage: stage}, res)
}

func (p *Pipeline) fail(res *Result, stage Stage, err error, log *slog.Logger) {
	res.FailedStage = stage
	res.Err = err
	log.Error("task failed", "stage", string(stage), "error", err)
	p.emit(Event{Kind: EventStageFinished, Stage: stage, Err: err}, res)
}

func (p *Pipeline) finish(res Result, log *slog.Logger) Result {
	if res.Success {
		log.Info("task completed")
	}
	p.emit(Event{Kind: EventTaskFinished, Err: res.Err}, &res)
	return res
}

func (p *Pipeline) emit(e Event, res *Result) {
	if e.Kind == EventStageStarted {
		res.Stages = append(res.Stages, e.Stage)
	}
	e.Result = res
	p.reporter.Report(e)
}
