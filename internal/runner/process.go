// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/matt-FFFFFF/scriptrun/internal/ctxlog"
	"github.com/matt-FFFFFF/scriptrun/internal/progress"
	"github.com/matt-FFFFFF/scriptrun/internal/signalbroker"
)

var _ Runnable = (*Process)(nil)

var (
	// ErrCouldNotStartProcess is returned when the process could not be started.
	ErrCouldNotStartProcess = errors.New("could not start process")
	// ErrFailedToCreatePipe is returned when the operating system pipe could not be created.
	ErrFailedToCreatePipe = errors.New("failed to create pipe")
	// ErrNonZeroExit is returned when the process exits with a code not listed as success.
	ErrNonZeroExit = errors.New("process exited unsuccessfully")
	// ErrTimeoutExceeded is returned when the process was killed after its timeout.
	ErrTimeoutExceeded = errors.New("timeout exceeded")
	// ErrCancelled is returned when the process was killed because the run was cancelled.
	ErrCancelled = errors.New("run cancelled")
	// ErrSignalReceived is returned when an operating system signal was forwarded to the process.
	ErrSignalReceived = errors.New("signal received")
	// ErrDuplicateSignalReceived is returned when a second identical signal forced termination.
	ErrDuplicateSignalReceived = errors.New("duplicate signal received, process forcefully terminated")
)

// Process runs a single executable. Output is streamed to Stdout and Stderr
// as it is produced and also captured into the Result.
type Process struct {
	*BaseCommand
	Path             string    // Executable to run; must be a path, no PATH search is done.
	Args             []string  // Arguments, not including the executable name.
	SuccessExitCodes []int     // Defaults to 0.
	Stdout           io.Writer // Live destination for stdout, may be nil.
	Stderr           io.Writer // Live destination for stderr, may be nil.
	MaxCapture       int64     // Bytes kept per stream; DefaultMaxCapture when zero.

	// NewProcessGroup starts the child in its own process group so that
	// signals and kills reach its descendants too. Leave it off for
	// interactive children that read from the terminal.
	NewProcessGroup bool

	sigCh chan os.Signal // Overrides the signal subscription in tests.
}

// Run implements Runnable.
func (p *Process) Run(ctx context.Context) Results {
	return Results{p.Execute(ctx)}
}

// Execute runs the process and returns its result.
func (p *Process) Execute(ctx context.Context) *Result {
	if p.BaseCommand == nil {
		p.BaseCommand = &BaseCommand{}
	}

	logger := ctxlog.Logger(ctx).With("runnableType", "Process", "label", p.GetLabel())
	logger.Debug("process info", "path", p.Path, "args", p.Args, "cwd", p.Cwd)

	start := time.Now()
	res := &Result{Label: p.GetLabel(), ExitCode: -1}

	defer func() {
		res.Duration = time.Since(start)
		logger.Debug("process finished", "status", res.Status, "exitCode", res.ExitCode, "duration", res.Duration)
		p.emitResult(res)
	}()

	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	sigCh := p.sigCh
	if sigCh == nil {
		sigCh = signalbroker.New(ctx)
		defer signalbroker.Stop(sigCh)
	}

	rOut, wOut, err := os.Pipe()
	if err != nil {
		res.Status = StatusError
		res.Error = errors.Join(ErrCouldNotStartProcess, ErrFailedToCreatePipe, err)

		return res
	}

	rErr, wErr, err := os.Pipe()
	if err != nil {
		closeAll(rOut, wOut)

		res.Status = StatusError
		res.Error = errors.Join(ErrCouldNotStartProcess, ErrFailedToCreatePipe, err)

		return res
	}

	p.emit(progress.Event{Type: progress.EventStarted})

	ps, err := os.StartProcess(p.Path, slices.Concat([]string{filepath.Base(p.Path)}, p.Args), &os.ProcAttr{
		Dir:   p.Cwd,
		Env:   environ(p.Env),
		Files: []*os.File{os.Stdin, wOut, wErr},
		Sys:   sysProcAttr(p.NewProcessGroup),
	})

	// The child owns the write ends now; closing ours lets the readers see EOF.
	closeAll(wOut, wErr)

	if err != nil {
		closeAll(rOut, rErr)

		res.Status = StatusError
		res.Error = errors.Join(ErrCouldNotStartProcess, err)

		return res
	}

	logger.Debug("process started", "pid", ps.Pid)

	outCap, errCap := newCapture(p.MaxCapture), newCapture(p.MaxCapture)
	outSink, errSink := tee{outCap, p.Stdout}, tee{errCap, p.Stderr}

	// Lines are only split out when someone is listening for them.
	var outLines, errLines *lineWriter
	if p.Reporter() != nil {
		outLines, errLines = p.lineWriter(false), p.lineWriter(true)
		outSink, errSink = append(outSink, outLines), append(errSink, errLines)
	}

	var copies sync.WaitGroup

	copies.Add(2) //nolint:mnd

	go pump(&copies, rOut, outSink)
	go pump(&copies, rErr, errSink)

	wd := &watchdog{
		ps:      ps,
		group:   p.NewProcessGroup,
		sigCh:   sigCh,
		notices: errSink,
		readers: []*os.File{rOut, rErr},
		done:    make(chan struct{}),
	}
	go wd.run(ctx)

	state, waitErr := ps.Wait()
	// Descendants can hold the pipes open after the child exits, so the
	// watchdog stays up until both streams are drained.
	copies.Wait()
	close(wd.done)
	outLines.Flush()
	errLines.Flush()

	res.StdOut = outCap.Bytes()
	res.StdErr = errCap.Bytes()
	res.Truncated = outCap.Overflowed() || errCap.Overflowed()

	if state != nil {
		res.ExitCode = state.ExitCode()
	}

	p.settle(res, waitErr, wd.err())

	return res
}

// settle decides the status and error of a finished process.
func (p *Process) settle(res *Result, waitErr, watchdogErr error) {
	success := p.SuccessExitCodes
	if len(success) == 0 {
		success = []int{0}
	}

	switch {
	case errors.Is(watchdogErr, ErrTimeoutExceeded):
		res.Status = StatusTimeout
		res.ExitCode = -1
		res.Error = errors.Join(watchdogErr, waitErr)
	case watchdogErr != nil:
		res.Status = StatusError
		res.ExitCode = -1
		res.Error = errors.Join(watchdogErr, waitErr)
	case waitErr != nil:
		res.Status = StatusError
		res.ExitCode = -1
		res.Error = waitErr
	case slices.Contains(success, res.ExitCode):
		res.Status = StatusSuccess
	default:
		res.Status = StatusError
		res.Error = fmt.Errorf("%w: exit code %d", ErrNonZeroExit, res.ExitCode)
	}
}

func (p *Process) lineWriter(stderr bool) *lineWriter {
	return &lineWriter{emit: func(line string) {
		p.emit(progress.Event{Type: progress.EventOutput, Line: line, Stderr: stderr})
	}}
}

// drainGrace is how long output is still read after a kill before the pipes are closed.
const drainGrace = 500 * time.Millisecond

// watchdog forwards signals to the child and kills it when ctx ends.
// After a kill it closes readers if they are not drained within drainGrace.
type watchdog struct {
	ps      *os.Process
	group   bool
	sigCh   chan os.Signal
	notices io.Writer
	readers []*os.File
	done    chan struct{}

	mu     sync.Mutex
	reason error
}

func (w *watchdog) record(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.reason = errors.Join(w.reason, err)
}

func (w *watchdog) err() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.reason
}

func (w *watchdog) run(ctx context.Context) {
	logger := ctxlog.Logger(ctx).With("pid", w.ps.Pid)
	seen := make(map[os.Signal]struct{})
	sigCh := w.sigCh

	for {
		select {
		case <-w.done:
			return

		case s, ok := <-sigCh:
			if !ok {
				sigCh = nil
				continue
			}

			if _, dup := seen[s]; dup {
				logger.Info("duplicate signal, killing process", "signal", s.String())
				fmt.Fprintf(w.notices, "received duplicate signal, killing process: %s\n", s) //nolint:errcheck
				w.record(ErrDuplicateSignalReceived)
				w.terminate(ctx)

				return
			}

			seen[s] = struct{}{}

			logger.Info("forwarding signal", "signal", s.String())
			fmt.Fprintf(w.notices, "received signal: %s\n", s) //nolint:errcheck
			w.record(ErrSignalReceived)

			if err := signalProcess(w.ps, s, w.group); err != nil {
				logger.Info("failed to forward signal", "signal", s.String(), "error", err)
			}

		case <-ctx.Done():
			select {
			case <-w.done:
				return
			default:
			}

			reason := ErrCancelled
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				reason = ErrTimeoutExceeded
			}

			logger.Info("context done, killing process", "reason", reason)
			fmt.Fprintf(w.notices, "%s, killing process\n", reason) //nolint:errcheck
			w.record(reason)
			w.terminate(ctx)

			return
		}
	}
}

// terminate kills the child and, failing a prompt drain, closes the pipes
// that a surviving descendant may still hold open.
func (w *watchdog) terminate(ctx context.Context) {
	kill(ctx, w.ps, w.group)

	t := time.NewTimer(drainGrace)
	defer t.Stop()

	select {
	case <-w.done:
	case <-t.C:
		ctxlog.Debug(ctx, "output not drained after kill, closing pipes", "pid", w.ps.Pid)
		closeAll(w.readers...)
	}
}

func kill(ctx context.Context, ps *os.Process, group bool) {
	if err := killProcess(ps, group); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			ctxlog.Debug(ctx, "process already done", "pid", ps.Pid)
			return
		}

		ctxlog.Error(ctx, "process kill error", "pid", ps.Pid, "error", err)

		return
	}

	ctxlog.Info(ctx, "process killed", "pid", ps.Pid)
}

func pump(wg *sync.WaitGroup, r *os.File, w io.Writer) {
	defer wg.Done()

	_, _ = io.Copy(w, r)
	_ = r.Close()
}

func closeAll(files ...*os.File) {
	for _, f := range files {
		_ = f.Close()
	}
}

// environ returns the parent environment with extra appended, later entries win.
func environ(extra map[string]string) []string {
	env := os.Environ()

	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	for _, k := range keys {
		env = append(env, k+"="+extra[k])
	}

	return env
}
