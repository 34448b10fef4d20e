// Package orchestrator sequences execution units against the host adapter
// and owns the lifecycle of the results artifact.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"rtfctl/internal/assembly"
	"rtfctl/internal/config"
	"rtfctl/internal/host"
	"rtfctl/internal/selector"
	"rtfctl/pkg/logging"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrAlreadyRunning is returned by Execute while another pass is in progress.
var ErrAlreadyRunning = errors.New("a run is already in progress")

const subscriberBuffer = 256

// Orchestrator runs resolved targets one unit at a time.
type Orchestrator struct {
	adapter  host.Adapter
	reporter Reporter

	mu            sync.Mutex
	state         State
	stopRequested bool
	completed     int
	total         int
	subscribers   []chan Event

	// reportMu serializes reporter calls in parallel mode.
	reportMu sync.Mutex
	// scratch holds per-unit results files in parallel mode.
	scratch string
}

// New creates an orchestrator. A nil reporter discards all output.
func New(adapter host.Adapter, reporter Reporter) *Orchestrator {
	if reporter == nil {
		reporter = NewQuietReporter(nil)
	}
	return &Orchestrator{adapter: adapter, reporter: reporter}
}

// State returns the current state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Progress returns the number of tests covered by finished units and the
// number expected by the current run.
func (o *Orchestrator) Progress() (completed, total int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.completed, o.total
}

// Subscribe returns a channel receiving run events. Events are dropped when
// the subscriber falls behind.
func (o *Orchestrator) Subscribe() <-chan Event {
	ch := make(chan Event, subscriberBuffer)
	o.mu.Lock()
	o.subscribers = append(o.subscribers, ch)
	o.mu.Unlock()
	return ch
}

// Stop asks the current run to halt. The unit in flight finishes; the
// remaining units are recorded as skipped. Stop has no effect when idle.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state == StateIdle {
		return
	}
	if !o.stopRequested {
		logging.Info("Orchestrator", "stop requested, remaining units will be skipped")
	}
	o.stopRequested = true
}

func (o *Orchestrator) stopping() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stopRequested
}

// publish must be called with o.mu held.
func (o *Orchestrator) publish(ev Event) {
	ev.State = o.state
	ev.Completed = o.completed
	ev.Total = o.total
	for _, ch := range o.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state = s
	logging.Debug("Orchestrator", "state %s", s)
	o.publish(Event{Type: EventStateChanged})
}

// begin moves Idle to Resolving or reports a run in progress.
func (o *Orchestrator) begin() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != StateIdle {
		return ErrAlreadyRunning
	}
	o.state = StateResolving
	o.stopRequested = false
	o.completed = 0
	o.total = 0
	o.publish(Event{Type: EventStateChanged})
	return nil
}

// Execute performs one full pass: resolve the target from cfg's filters,
// prepare the results artifact, run every unit and clean up. A resolution
// miss is returned as an error and no unit runs. Unit failures never abort
// the pass; they are recorded in the summary.
func (o *Orchestrator) Execute(ctx context.Context, cfg *config.RunConfig, assemblies []assembly.AssemblyData) (*RunSummary, error) {
	if err := o.begin(); err != nil {
		return nil, err
	}
	defer func() {
		o.setState(StateCleanup)
		if err := o.Cleanup(); err != nil {
			logging.Warn("Orchestrator", "cleanup failed: %v", err)
		}
		o.setState(StateIdle)
	}()

	target, err := selector.Resolve(cfg, assemblies)
	if err != nil {
		logging.Error("Orchestrator", err, "no run target")
		return nil, err
	}
	cfg.RunCount = target.RunCount

	if err := PrepareResults(cfg); err != nil {
		return nil, err
	}

	summary := &RunSummary{
		RunID:       uuid.NewString(),
		Target:      target.Kind.String(),
		Fixture:     cfg.Fixture,
		Test:        cfg.Test,
		RunCount:    target.RunCount,
		ResultsPath: cfg.ResultsPath,
		Concatenate: cfg.Concatenate,
		Parallel:    max(cfg.Parallel, 1),
		StartTime:   time.Now(),
	}

	o.mu.Lock()
	o.total = target.RunCount
	o.mu.Unlock()
	o.setState(StateExecuting)

	o.reporter.ReportStart(cfg, target)
	logging.Info("Orchestrator", "running %s target, %d test(s)", target.Kind, target.RunCount)

	switch target.Kind {
	case selector.KindFixture:
		summary.Units = []UnitResult{o.RunFixture(ctx, cfg, target.Assembly, target.Fixture)}
	case selector.KindTest:
		summary.Units = []UnitResult{o.RunTest(ctx, cfg, target.Assembly, target.Fixture, target.Test)}
	default:
		summary.Units = o.RunAllAssemblies(ctx, cfg, target.Assemblies)
	}

	for _, r := range summary.Units {
		summary.updateCounters(r)
	}
	summary.Stopped = o.stopping() || ctx.Err() != nil
	summary.EndTime = time.Now()
	summary.Duration = summary.EndTime.Sub(summary.StartTime)

	o.reporter.ReportSummary(summary)
	if cfg.ReportPath != "" {
		if path, err := saveDetailedReport(cfg.ReportPath, summary); err != nil {
			logging.Warn("Orchestrator", "failed to save detailed report: %v", err)
		} else {
			logging.Info("Orchestrator", "detailed report saved to %s", path)
		}
	}
	return summary, nil
}

// RunAllAssemblies runs every assembly as one unit, in load order. With
// cfg.Parallel above one the assemblies run concurrently and their results
// are merged into the artifact in load order afterwards.
func (o *Orchestrator) RunAllAssemblies(ctx context.Context, cfg *config.RunConfig, assemblies []assembly.AssemblyData) []UnitResult {
	units := selector.Target{Kind: selector.KindAll, Assemblies: assemblies}.
		Units(cfg.ResultsPath, cfg.WorkingDirectory)

	if cfg.Parallel > 1 && len(units) > 1 {
		return o.runParallel(ctx, cfg, units)
	}
	return o.runSequential(ctx, cfg, units)
}

// runSequential runs units in order. Only the first unit of a fresh run
// replaces the artifact; every later one appends to it.
func (o *Orchestrator) runSequential(ctx context.Context, cfg *config.RunConfig, units []host.Unit) []UnitResult {
	results := make([]UnitResult, 0, len(units))
	for i, unit := range units {
		results = append(results, o.runUnit(ctx, unit, cfg.Concatenate || i > 0))
	}
	return results
}

// RunFixture runs a single fixture as one unit.
func (o *Orchestrator) RunFixture(ctx context.Context, cfg *config.RunConfig, a *assembly.AssemblyData, f *assembly.FixtureData) UnitResult {
	target := selector.Target{Kind: selector.KindFixture, Assembly: a, Fixture: f, RunCount: f.TestCount()}
	return o.runUnit(ctx, target.Units(cfg.ResultsPath, cfg.WorkingDirectory)[0], cfg.Concatenate)
}

// RunTest runs a single test as one unit.
func (o *Orchestrator) RunTest(ctx context.Context, cfg *config.RunConfig, a *assembly.AssemblyData, f *assembly.FixtureData, t *assembly.TestData) UnitResult {
	target := selector.Target{Kind: selector.KindTest, Assembly: a, Fixture: f, Test: t, RunCount: 1}
	return o.runUnit(ctx, target.Units(cfg.ResultsPath, cfg.WorkingDirectory)[0], cfg.Concatenate)
}

func newUnitResult(unit host.Unit) UnitResult {
	return UnitResult{
		Name:      unit.Name(),
		Kind:      unit.Kind.String(),
		Assembly:  unit.AssemblyName,
		Fixture:   unit.Fixture,
		Test:      unit.Test,
		Expected:  unit.Expected,
		StartTime: time.Now(),
	}
}

// runUnit hands one unit to the adapter unless a stop was requested or
// ctx is already done.
func (o *Orchestrator) runUnit(ctx context.Context, unit host.Unit, appendResults bool) UnitResult {
	result := newUnitResult(unit)

	if o.stopping() {
		result.Outcome = host.Outcome{Status: host.StatusSkipped, Diagnostic: "run stopped"}
		o.finishUnit(unit, result)
		return result
	}
	if err := ctx.Err(); err != nil {
		result.Outcome = host.Outcome{Status: host.StatusSkipped, Diagnostic: fmt.Sprintf("run cancelled: %v", err)}
		o.finishUnit(unit, result)
		return result
	}

	o.mu.Lock()
	o.publish(Event{Type: EventUnitStarted, Unit: unit})
	o.mu.Unlock()
	o.reportMu.Lock()
	o.reporter.ReportUnitStart(unit)
	o.reportMu.Unlock()

	logging.Debug("Orchestrator", "executing %s %s (append=%t)", unit.Kind, unit.Name(), appendResults)
	result.Outcome = o.adapter.Execute(ctx, unit, appendResults)

	switch result.Status {
	case host.StatusSuccess:
		logging.Info("Orchestrator", "%s finished in %s", unit.Name(), result.Duration)
	default:
		logging.Warn("Orchestrator", "%s %s: %s", unit.Name(), result.Status, result.Diagnostic)
	}

	o.finishUnit(unit, result)
	return result
}

func (o *Orchestrator) finishUnit(unit host.Unit, result UnitResult) {
	o.mu.Lock()
	if result.Status != host.StatusSkipped {
		o.completed += unit.Expected
	}
	o.publish(Event{Type: EventUnitFinished, Unit: unit, Result: &result})
	o.mu.Unlock()

	o.reportMu.Lock()
	o.reporter.ReportUnitResult(result)
	o.reportMu.Unlock()
}

// Cleanup releases adapter resources and scratch files. It is called at the
// end of every Execute and is safe to call again at shutdown.
func (o *Orchestrator) Cleanup() error {
	var errs []error
	if o.scratch != "" {
		if err := removeScratch(o.scratch); err != nil {
			errs = append(errs, err)
		}
		o.scratch = ""
	}
	if o.adapter != nil {
		if err := o.adapter.Cleanup(); err != nil {
			errs = append(errs, fmt.Errorf("adapter cleanup: %w", err))
		}
	}
	return errors.Join(errs...)
}
