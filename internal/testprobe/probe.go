// Package testprobe looks for a working test command in a project by trying
// one candidate per ecosystem until a run passes.
package testprobe

import (
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"time"

	"github.com/kennyg/persona-kit/internal/process"
)

// DefaultTimeout bounds each candidate run.
const DefaultTimeout = 300 * time.Second

// DefaultCandidates is the fixed priority order of test commands.
func DefaultCandidates() []process.Command {
	return []process.Command{
		{Name: "python", Args: []string{"-m", "pytest"}},
		{Name: "python", Args: []string{"-m", "unittest"}},
		{Name: "npm", Args: []string{"test"}},
		{Name: "yarn", Args: []string{"test"}},
		{Name: "cargo", Args: []string{"test"}},
		{Name: "go", Args: []string{"test", "./..."}},
	}
}

// Outcome classifies one candidate run.
type Outcome string

const (
	OutcomePassed   Outcome = "passed"
	OutcomeFailed   Outcome = "failed"
	OutcomeAbsent   Outcome = "absent"
	OutcomeTimedOut Outcome = "timed-out"
	OutcomeError    Outcome = "error"
)

// Attempt records one candidate run.
type Attempt struct {
	Command  string
	Outcome  Outcome
	ExitCode int
	Stdout   string
	Stderr   string
	Err      error
}

// Report is the result of a probe.
type Report struct {
	Succeeded bool
	Attempts  []Attempt
}

// TriedCommands returns the command lines that were attempted, in order.
func (r Report) TriedCommands() []string {
	out := make([]string, len(r.Attempts))
	for i, a := range r.Attempts {
		out[i] = a.Command
	}
	return out
}

// Passed returns the attempt that passed, if any.
func (r Report) Passed() (Attempt, bool) {
	for _, a := range r.Attempts {
		if a.Outcome == OutcomePassed {
			return a, true
		}
	}
	return Attempt{}, false
}

// Probe tries test commands in order.
type Probe struct {
	runner     process.Runner
	dir        string
	candidates []process.Command
	timeout    time.Duration
	logger     *slog.Logger
	lookPath   func(string) (string, error)
}

// Option configures a Probe.
type Option func(*Probe)

// WithCandidates replaces the default candidate list.
func WithCandidates(cmds []process.Command) Option {
	return func(p *Probe) { p.candidates = cmds }
}

// WithTimeout sets the per-candidate timeout.
func WithTimeout(d time.Duration) Option {
	return func(p *Probe) { p.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Probe) { p.logger = l }
}

// WithLookPath replaces exec.LookPath for Installed.
func WithLookPath(f func(string) (string, error)) Option {
	return func(p *Probe) { p.lookPath = f }
}

// New returns a probe that runs candidates in dir.
func New(runner process.Runner, dir string, opts ...Option) *Probe {
	p := &Probe{
		runner:     runner,
		dir:        dir,
		candidates: DefaultCandidates(),
		timeout:    DefaultTimeout,
		logger:     slog.Default(),
		lookPath:   exec.LookPath,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Probe runs candidates until one exits zero. Absent tools, timeouts, launch
// errors and failing runs are recorded and the next candidate is tried.
// A report without Succeeded is not an error for the caller.
func (p *Probe) Probe(ctx context.Context) Report {
	var report Report
	for _, c := range p.candidates {
		if ctx.Err() != nil {
			break
		}

		cmd := c
		cmd.Dir = p.dir
		if cmd.Timeout == 0 {
			cmd.Timeout = p.timeout
		}

		res, err := p.runner.Run(ctx, cmd)
		a := Attempt{
			Command:  cmd.String(),
			ExitCode: res.ExitCode,
			Stdout:   res.Stdout,
			Stderr:   res.Stderr,
			Err:      err,
		}
		switch {
		case errors.Is(err, process.ErrNotFound):
			a.Outcome = OutcomeAbsent
		case errors.Is(err, process.ErrTimeout):
			a.Outcome = OutcomeTimedOut
		case err != nil:
			a.Outcome = OutcomeError
		case res.Success():
			a.Outcome = OutcomePassed
		default:
			a.Outcome = OutcomeFailed
		}
		report.Attempts = append(report.Attempts, a)
		p.logger.Debug("test candidate", "command", a.Command, "outcome", string(a.Outcome), "exit_code", a.ExitCode)

		if a.Outcome == OutcomePassed {
			report.Succeeded = true
			break
		}
	}
	return report
}

// Installed returns the candidates whose executable is on PATH, in probe
// order. It runs nothing.
func (p *Probe) Installed() []process.Command {
	var out []process.Command
	for _, c := range p.candidates {
		if _, err := p.lookPath(c.Name); err == nil {
			out = append(out, c)
		}
	}
	return out
}
