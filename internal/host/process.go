package host

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"rtfctl/pkg/logging"
	"sync"
	"syscall"
	"time"
)

// DefaultShutdownGrace is how long a timed out host gets to exit after
// SIGTERM before it is killed.
const DefaultShutdownGrace = 10 * time.Second

// ProcessOptions configures a ProcessAdapter.
type ProcessOptions struct {
	// HostPath is the host application executable.
	HostPath string
	// Timeout bounds a single unit. Zero disables the bound.
	Timeout       time.Duration
	ShutdownGrace time.Duration
	Debug         bool
	// Args are passed to the host before the journal path.
	Args []string
}

// ProcessAdapter launches the host application once per unit, handing it a
// journal that describes the unit.
type ProcessAdapter struct {
	opts ProcessOptions

	mu      sync.Mutex
	tempDir string
}

// NewProcessAdapter validates opts. The journal directory is created on the
// first Execute and removed again by Cleanup, so one adapter can serve
// several runs.
func NewProcessAdapter(opts ProcessOptions) (*ProcessAdapter, error) {
	if opts.HostPath == "" {
		return nil, errors.New("host path is required")
	}
	if opts.ShutdownGrace <= 0 {
		opts.ShutdownGrace = DefaultShutdownGrace
	}
	return &ProcessAdapter{opts: opts}, nil
}

// JournalDir returns the directory holding unit journals, or "" when none
// exists yet.
func (a *ProcessAdapter) JournalDir() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.tempDir
}

func (a *ProcessAdapter) journalDir() (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.tempDir == "" {
		tempDir, err := os.MkdirTemp("", "rtfctl-journals-*")
		if err != nil {
			return "", fmt.Errorf("failed to create temp directory: %w", err)
		}
		a.tempDir = tempDir
	}
	return a.tempDir, nil
}

// Execute implements Adapter. A cancelled ctx terminates the host the same
// way a timeout does and reports the unit as skipped.
func (a *ProcessAdapter) Execute(ctx context.Context, unit Unit, appendResults bool) Outcome {
	start := time.Now()
	outcome := a.execute(ctx, unit, appendResults)
	outcome.Duration = time.Since(start)
	return outcome
}

func (a *ProcessAdapter) execute(ctx context.Context, unit Unit, appendResults bool) Outcome {
	if err := ctx.Err(); err != nil {
		return Outcome{Status: StatusSkipped, Diagnostic: fmt.Sprintf("%s not started: %v", unit.Name(), err)}
	}
	dir, err := a.journalDir()
	if err != nil {
		return Outcome{Status: StatusFailure, Diagnostic: err.Error()}
	}
	journal := NewJournal(unit, appendResults, a.opts.Debug)
	journalPath, err := WriteJournal(dir, journal, unit.Name())
	if err != nil {
		return Outcome{Status: StatusFailure, Diagnostic: err.Error()}
	}
	logging.Debug("Host", "journal for %s written to %s", unit.Name(), journalPath)

	capture := newLogCapture(func(stream, line string) {
		if a.opts.Debug {
			logging.Debug("Host", "[%s] %s", stream, line)
		}
	})

	args := append(append([]string{}, a.opts.Args...), journalPath)
	cmd := exec.Command(a.opts.HostPath, args...)
	cmd.Dir = unit.WorkingDirectory
	cmd.Stdout = capture.stdoutWriter
	cmd.Stderr = capture.stderrWriter
	// Children of the host may keep the output pipes open after it exits.
	cmd.WaitDelay = a.opts.ShutdownGrace

	if err := cmd.Start(); err != nil {
		capture.close()
		return Outcome{
			Status:     StatusFailure,
			Diagnostic: fmt.Sprintf("failed to start host %s: %v", a.opts.HostPath, err),
		}
	}
	logging.Info("Host", "started %s for %s %s (pid %d)", a.opts.HostPath, unit.Kind, unit.Name(), cmd.Process.Pid)

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	var timeout <-chan time.Time
	if a.opts.Timeout > 0 {
		timer := time.NewTimer(a.opts.Timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	var outcome Outcome
	select {
	case err := <-done:
		capture.close()
		outcome = exitOutcome(err, capture)
	case <-timeout:
		a.gracefulShutdown(cmd, done, unit)
		capture.close()
		outcome = Outcome{
			Status:     StatusTimeout,
			Diagnostic: fmt.Sprintf("%s did not finish within %s", unit.Name(), a.opts.Timeout),
		}
	case <-ctx.Done():
		a.gracefulShutdown(cmd, done, unit)
		capture.close()
		outcome = Outcome{
			Status:     StatusSkipped,
			Diagnostic: fmt.Sprintf("%s aborted: %v", unit.Name(), ctx.Err()),
		}
	}
	outcome.Output = capture.combined()
	return outcome
}

func exitOutcome(err error, capture *logCapture) Outcome {
	if err == nil {
		return Outcome{Status: StatusSuccess}
	}
	diagnostic := err.Error()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		diagnostic = fmt.Sprintf("host exited with code %d", exitErr.ExitCode())
		if last := capture.lastStderrLine(); last != "" {
			diagnostic += ": " + last
		}
	}
	return Outcome{Status: StatusFailure, Diagnostic: diagnostic}
}

// gracefulShutdown sends SIGTERM and kills the host if it has not exited
// within the grace period. done receives the result of cmd.Wait.
func (a *ProcessAdapter) gracefulShutdown(cmd *exec.Cmd, done <-chan error, unit Unit) {
	process := cmd.Process

	if err := process.Signal(syscall.SIGTERM); err != nil {
		logging.Debug("Host", "SIGTERM failed for %s, killing: %v", unit.Name(), err)
		_ = process.Kill()
		<-done
		return
	}

	select {
	case err := <-done:
		logging.Debug("Host", "host for %s exited after SIGTERM: %v", unit.Name(), err)
	case <-time.After(a.opts.ShutdownGrace):
		logging.Warn("Host", "graceful shutdown timeout for %s, forcing kill", unit.Name())
		_ = process.Kill()
		<-done
	}
}

// Cleanup implements Adapter by removing the journal directory.
func (a *ProcessAdapter) Cleanup() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.tempDir == "" {
		return nil
	}
	dir := a.tempDir
	a.tempDir = ""
	return os.RemoveAll(dir)
}
