package orchestrator

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"rtfctl/internal/config"
	"rtfctl/internal/host"
	"rtfctl/internal/selector"
	"time"
)

// Reporter receives run progress for presentation.
type Reporter interface {
	ReportStart(cfg *config.RunConfig, target selector.Target)
	ReportUnitStart(unit host.Unit)
	ReportUnitResult(result UnitResult)
	ReportSummary(summary *RunSummary)
}

// Output formats accepted by NewReporter.
const (
	OutputText  = "text"
	OutputQuiet = "quiet"
	OutputJSON  = "json"
)

// NewReporter returns the reporter for format.
func NewReporter(format string, w io.Writer, verbose bool) (Reporter, error) {
	switch format {
	case "", OutputText:
		return NewConsoleReporter(w, verbose), nil
	case OutputQuiet:
		return NewQuietReporter(w), nil
	case OutputJSON:
		return NewJSONReporter(w), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want text, quiet or json)", format)
	}
}

// consoleReporter prints human readable progress
type consoleReporter struct {
	w       io.Writer
	verbose bool
}

// NewConsoleReporter creates the default text reporter.
func NewConsoleReporter(w io.Writer, verbose bool) Reporter {
	if w == nil {
		w = io.Discard
	}
	return &consoleReporter{w: w, verbose: verbose}
}

func (r *consoleReporter) ReportStart(cfg *config.RunConfig, target selector.Target) {
	fmt.Fprintf(r.w, "🧪 Running %s (%d test(s))\n", describeTarget(target), target.RunCount)

	if r.verbose {
		fmt.Fprintf(r.w, "⚙️  Configuration:\n")
		fmt.Fprintf(r.w, "   • Working directory: %s\n", stringOrDefault(cfg.WorkingDirectory, "(none)"))
		fmt.Fprintf(r.w, "   • Results: %s\n", stringOrDefault(cfg.ResultsPath, "(none)"))
		fmt.Fprintf(r.w, "   • Concatenate: %t\n", cfg.Concatenate)
		fmt.Fprintf(r.w, "   • Timeout: %v\n", cfg.Timeout)
		if cfg.Parallel > 1 {
			fmt.Fprintf(r.w, "   • Parallel workers: %d\n", cfg.Parallel)
		}
		fmt.Fprintf(r.w, "\n")
	}
}

func (r *consoleReporter) ReportUnitStart(unit host.Unit) {
	if r.verbose {
		fmt.Fprintf(r.w, "🎯 Starting %s: %s (%d test(s))\n", unit.Kind, unit.Name(), unit.Expected)
	}
}

func (r *consoleReporter) ReportUnitResult(result UnitResult) {
	symbol := resultSymbol(result.Status)
	fmt.Fprintf(r.w, "%s %s (%v)\n", symbol, result.Name, result.Duration.Round(time.Millisecond))
	if result.Diagnostic != "" {
		fmt.Fprintf(r.w, "   %s\n", result.Diagnostic)
	}
}

func (r *consoleReporter) ReportSummary(s *RunSummary) {
	fmt.Fprintf(r.w, "\n🏁 Run Complete\n")
	fmt.Fprintf(r.w, "⏱️  Duration: %v\n", s.Duration.Round(time.Millisecond))
	fmt.Fprintf(r.w, "📊 Units:\n")
	fmt.Fprintf(r.w, "   ✅ Passed: %d\n", s.Passed)
	if s.Failed > 0 {
		fmt.Fprintf(r.w, "   ❌ Failed: %d\n", s.Failed)
	}
	if s.TimedOut > 0 {
		fmt.Fprintf(r.w, "   ⏰ Timed out: %d\n", s.TimedOut)
	}
	if s.Skipped > 0 {
		fmt.Fprintf(r.w, "   ⏭️  Skipped: %d\n", s.Skipped)
	}
	fmt.Fprintf(r.w, "   📈 Total: %d\n", len(s.Units))
	if s.ResultsPath != "" {
		fmt.Fprintf(r.w, "📄 Results: %s\n", s.ResultsPath)
	}

	switch {
	case s.Stopped:
		fmt.Fprintf(r.w, "\n🛑 Run stopped\n")
	case s.Succeeded():
		fmt.Fprintf(r.w, "\n🎉 All units passed!\n")
	default:
		fmt.Fprintf(r.w, "\n💔 Some units failed\n")
	}
}

// quietReporter only prints failures and a one line summary
type quietReporter struct {
	w io.Writer
}

// NewQuietReporter creates a reporter for CI logs.
func NewQuietReporter(w io.Writer) Reporter {
	if w == nil {
		w = io.Discard
	}
	return &quietReporter{w: w}
}

func (r *quietReporter) ReportStart(*config.RunConfig, selector.Target) {}

func (r *quietReporter) ReportUnitStart(host.Unit) {}

func (r *quietReporter) ReportUnitResult(result UnitResult) {
	if result.Status == host.StatusFailure || result.Status == host.StatusTimeout {
		fmt.Fprintf(r.w, "%s %s: %s\n", resultSymbol(result.Status), result.Name, result.Diagnostic)
	}
}

func (r *quietReporter) ReportSummary(s *RunSummary) {
	if s.Succeeded() {
		fmt.Fprintf(r.w, "✅ All %d units passed\n", s.Passed)
	} else {
		fmt.Fprintf(r.w, "❌ %d/%d units failed\n", s.Failed+s.TimedOut, len(s.Units))
	}
}

// jsonReporter prints the run summary as JSON
type jsonReporter struct {
	w io.Writer
}

// NewJSONReporter creates a reporter for machine consumption.
func NewJSONReporter(w io.Writer) Reporter {
	if w == nil {
		w = io.Discard
	}
	return &jsonReporter{w: w}
}

func (r *jsonReporter) ReportStart(*config.RunConfig, selector.Target) {}

func (r *jsonReporter) ReportUnitStart(host.Unit) {}

func (r *jsonReporter) ReportUnitResult(UnitResult) {}

func (r *jsonReporter) ReportSummary(s *RunSummary) {
	jsonData, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		fmt.Fprintf(r.w, `{"error": "Failed to marshal results: %v"}`+"\n", err)
		return
	}
	fmt.Fprintln(r.w, string(jsonData))
}

// saveDetailedReport writes summary as JSON into dir and returns the path.
func saveDetailedReport(dir string, summary *RunSummary) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	name := "rtfctl-run-" + time.Now().Format("20060102-150405")
	if len(summary.RunID) >= 8 {
		name += "-" + summary.RunID[:8]
	}
	fullPath := filepath.Join(dir, name+".json")

	jsonData, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report to JSON: %w", err)
	}
	if err := os.WriteFile(fullPath, jsonData, 0644); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}
	return fullPath, nil
}

func describeTarget(t selector.Target) string {
	switch t.Kind {
	case selector.KindFixture:
		return fmt.Sprintf("fixture %s", t.Fixture.Name)
	case selector.KindTest:
		return fmt.Sprintf("test %s.%s", t.Fixture.Name, t.Test.Name)
	default:
		return fmt.Sprintf("%d assemblies", len(t.Assemblies))
	}
}

func resultSymbol(status host.Status) string {
	switch status {
	case host.StatusSuccess:
		return "✅"
	case host.StatusFailure:
		return "❌"
	case host.StatusTimeout:
		return "⏰"
	case host.StatusSkipped:
		return "⏭️"
	default:
		return "❓"
	}
}

func stringOrDefault(s, defaultValue string) string {
	if s == "" {
		return defaultValue
	}
	return s
}
