// Package executor walks an assembled step.Step tree to completion,
// layering operator prompting, run correlation, and two-stage cancellation
// on top of the scheduling semantics step.Step.Run already implements.
package executor

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/juju/clock"
	"gopkg.in/tomb.v2"

	"github.com/canonical/cou/internal/step"
)

// ExitCode mirrors the process exit codes the CLI maps onto.
type ExitCode int

const (
	ExitSuccess     ExitCode = 0
	ExitFailure     ExitCode = 1
	ExitInterrupted ExitCode = 130
)

// PromptAnswer is an operator's response to a step prompt.
type PromptAnswer int

const (
	AnswerContinue PromptAnswer = iota
	AnswerSkip
	AnswerAbort
)

// Prompter asks the operator whether to continue, skip, or abort a step
// that is about to run. Implementations own input validation/retry (e.g.
// looping on invalid terminal input); Execute treats whatever they return
// as final. internal/cli wires in an ansiterm-colored y/N/a reader; tests
// use trivial stubs.
type Prompter interface {
	Prompt(ctx context.Context, description string) (PromptAnswer, error)
}

// Logger is the minimal surface Execute needs to announce a step about to
// run. internal/logging wires in a loggo.Logger, which already satisfies
// this signature.
type Logger interface {
	Infof(format string, args ...any)
}

// ErrAborted is the error Execute returns when the operator picks abort at
// a prompt; it maps to ExitFailure, matching the original "(a)bort" path.
var ErrAborted = errors.New("upgrade aborted by operator")

// Options configures a single Execute call.
type Options struct {
	// Interactive, when true, prompts before every step with meaningful
	// content (an operation or children) via Prompter. When false, every
	// such step is announced via Logger and run immediately.
	Interactive bool
	Prompter    Prompter
	Logger      Logger

	// RunID correlates this run's log lines; a fresh uuid is generated if
	// left empty.
	RunID string

	// PollInterval controls how often the safe-cancel watcher checks
	// step.Step.AllDone. Defaults to 50ms; tests can inject a longer
	// interval alongside a fake Clock to avoid real waits.
	PollInterval time.Duration
	Clock        clock.Clock
}

// CancelController is the bridge between a process signal handler and a
// running Execute call. The first SIGINT should call RequestSafeCancel;
// the second should cancel the context passed to Execute directly, which
// this package treats as the "terminate immediately" path.
type CancelController struct {
	safe      chan struct{}
	triggered chan struct{}
}

// NewCancelController returns a controller with no cancellation requested.
func NewCancelController() *CancelController {
	return &CancelController{safe: make(chan struct{}), triggered: make(chan struct{})}
}

// RequestSafeCancel requests that every step not yet started be marked
// Canceled once the currently running step (if any) finishes. Safe to call
// more than once or concurrently; only the first call has an effect.
func (c *CancelController) RequestSafeCancel() {
	select {
	case <-c.triggered:
	default:
		close(c.triggered)
		close(c.safe)
	}
}

// Triggered reports whether RequestSafeCancel has been called.
func (c *CancelController) Triggered() bool {
	select {
	case <-c.triggered:
		return true
	default:
		return false
	}
}

// Execute runs tree to completion (or cancellation), returning the process
// exit code this run corresponds to. ctl may be nil, in which case no
// external SafeCancel request is possible; ctx cancellation still works.
func Execute(ctx context.Context, tree *step.Step, opts Options, ctl *CancelController) (ExitCode, error) {
	if ctl == nil {
		ctl = NewCancelController()
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.WallClock
	}
	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = 50 * time.Millisecond
	}
	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	// watcher runs under a tomb, the juju-juju worker idiom for a
	// goroutine whose lifetime is tied to the call that spawned it: Kill
	// requests it stop, Wait blocks until it actually has.
	var watcher tomb.Tomb
	watcher.Go(func() error {
		watch(ctx, tree, ctl, clk, pollInterval, watcher.Dying())
		return nil
	})

	hookCtx := step.WithHook(ctx, newHook(opts, runID))
	err := tree.Run(hookCtx)

	watcher.Kill(nil)
	_ = watcher.Wait()

	switch {
	case ctl.Triggered() || ctx.Err() != nil:
		return ExitInterrupted, err
	case err != nil:
		return ExitFailure, err
	default:
		return ExitSuccess, nil
	}
}

// watch is the two-stage-SIGINT watcher: it waits for either a safe-cancel
// request or hard context cancellation, requests the corresponding
// step.Step.Cancel, then (for the safe path only) polls AllDone so a
// second, harder cancellation arriving later is still honored promptly.
func watch(ctx context.Context, tree *step.Step, ctl *CancelController, clk clock.Clock, pollInterval time.Duration, dying <-chan struct{}) {
	select {
	case <-ctl.safe:
		tree.Cancel(true)
	case <-ctx.Done():
		tree.Cancel(false)
		return
	case <-dying:
		return
	}

	timer := clk.NewTimer(pollInterval)
	defer timer.Stop()
	for {
		select {
		case <-dying:
			return
		case <-ctx.Done():
			tree.Cancel(false)
			return
		case <-timer.Chan():
			if tree.AllDone() {
				return
			}
			timer.Reset(pollInterval)
		}
	}
}

// newHook adapts Options into a step.Hook: in interactive mode it prompts
// before every step with content, in non-interactive mode it only
// announces. Both paths log "Running: <description>" immediately before
// the step actually executes, mirroring the original implementation's
// unconditional log line on the continue path.
func newHook(opts Options, runID string) step.Hook {
	return func(ctx context.Context, s *step.Step) (bool, error) {
		if !opts.Interactive || opts.Prompter == nil {
			announce(opts.Logger, runID, s.Description)
			return false, nil
		}

		answer, err := opts.Prompter.Prompt(ctx, s.Description)
		if err != nil {
			return false, err
		}
		switch answer {
		case AnswerSkip:
			return true, nil
		case AnswerAbort:
			return false, ErrAborted
		default:
			announce(opts.Logger, runID, s.Description)
			return false, nil
		}
	}
}

func announce(logger Logger, runID, description string) {
	if logger == nil {
		return
	}
	logger.Infof("[run %s] Running: %s", runID, description)
}
