package cmd

import (
	"context"
	"fmt"
	"os"
	"rtfctl/internal/app"
	"rtfctl/internal/orchestrator"
	"time"

	"github.com/spf13/cobra"
)

// runFlags holds the values of the run flags.
type runFlags struct {
	dir         string
	assembly    string
	results     string
	fixture     string
	test        string
	concatenate bool
	gui         bool
	debug       bool
	timeout     time.Duration
	hostPath    string
	hostIndex   int
	hostExe     string
	hostsFile   string
	hostRoots   []string
	parallel    int
	reportDir   string
	output      string
}

var flags runFlags

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "rtfctl",
	Short: "Run Revit Test Framework assemblies against an installed Revit",
	Long: `rtfctl selects tests from a test assembly manifest and runs them inside an
installed instance of the host application, one unit at a time.

Without filters every assembly runs as one unit. --fixture runs a single
fixture and --testName a single test; the first match in load order wins.
Results are written to the file given with --results, replacing it unless
--concatenate is set.

Use --gui for the interactive front end.`,
	Args: cobra.NoArgs,
	// SilenceUsage is set to true to prevent printing usage message on errors
	// handled by us (e.g. missing assembly, failed units)
	SilenceUsage: true,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return validateFlags(flags)
	},
	RunE: runRoot,
}

// SetVersion sets the version for the root command
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "rtfctl version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		// Cobra prints the error, we just exit non-zero
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newHostsCmd())
	rootCmd.AddCommand(newMCPCmd())

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.dir, "dir", "", "Working directory; relative model and assembly paths resolve against it (default: the executable's directory)")
	pf.StringVarP(&flags.assembly, "assembly", "a", "", "Path to the test assembly manifest")
	pf.BoolVarP(&flags.debug, "debug", "d", false, "Enable debug logging and run the host with its debugger hooks")
	pf.StringVar(&flags.hostExe, "host-exe", "", "Host executable name inside an install location (default \"Revit.exe\")")
	pf.StringVar(&flags.hostsFile, "hosts-file", "", "YAML file listing host instances")
	pf.StringArrayVar(&flags.hostRoots, "host-root", nil, "Directory scanned for host installations (repeatable)")
	pf.StringVar(&flags.output, "output", orchestrator.OutputText, "Output format: text, quiet or json")

	f := rootCmd.Flags()
	f.StringVarP(&flags.results, "results", "r", "", "Path of the results file")
	f.StringVarP(&flags.fixture, "fixture", "f", "", "Run only this fixture")
	f.StringVarP(&flags.test, "testName", "t", "", "Run only this test")
	f.BoolVarP(&flags.concatenate, "concatenate", "c", false, "Append to an existing results file")
	f.BoolVar(&flags.gui, "gui", false, "Start the interactive front end")
	f.DurationVar(&flags.timeout, "timeout", 0, "Maximum duration of one unit (default 2m0s)")
	f.StringVar(&flags.hostPath, "host-path", "", "Host executable to launch, overriding discovery")
	f.IntVar(&flags.hostIndex, "host", -1, "Index of the discovered host instance to use (see 'rtfctl hosts')")
	f.IntVar(&flags.parallel, "parallel", 1, "Number of assemblies run concurrently when running everything")
	f.StringVar(&flags.reportDir, "report", "", "Directory receiving a JSON run report")

	rootCmd.MarkFlagsMutuallyExclusive("fixture", "testName")
}

func validateFlags(f runFlags) error {
	if f.fixture != "" && f.test != "" {
		return fmt.Errorf("--fixture and --testName cannot be combined")
	}
	if f.parallel < 1 {
		return fmt.Errorf("--parallel must be at least 1, got %d", f.parallel)
	}
	if f.timeout < 0 {
		return fmt.Errorf("--timeout must not be negative, got %s", f.timeout)
	}
	return nil
}

// newAppConfig maps the flags onto an application configuration.
func newAppConfig(f runFlags) *app.Config {
	cfg := app.NewConfig()
	run := cfg.Run

	run.WorkingDirectory = f.dir
	run.TestAssemblyPath = f.assembly
	run.ResultsPath = f.results
	run.Fixture = f.fixture
	run.Test = f.test
	run.Concatenate = f.concatenate
	run.GUI = f.gui
	run.Debug = f.debug
	if f.timeout > 0 {
		run.Timeout = f.timeout
		cfg.TimeoutSet = true
	}
	run.HostPath = f.hostPath
	run.SelectedHostIndex = f.hostIndex
	if f.hostExe != "" {
		run.HostExecutable = f.hostExe
	}
	run.Parallel = f.parallel
	run.ReportPath = f.reportDir

	cfg.HostsFile = f.hostsFile
	cfg.HostRoots = f.hostRoots
	cfg.Output = f.output
	return cfg
}

// newApplication builds the application for the current flags.
func newApplication(cmd *cobra.Command) (*app.Application, error) {
	cfg := newAppConfig(flags)
	cfg.Stdout = cmd.OutOrStdout()

	application, err := app.NewApplication(commandContext(cmd), cfg, app.Deps{})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize application: %w", err)
	}
	return application, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func runRoot(cmd *cobra.Command, args []string) error {
	application, err := newApplication(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if err := application.Shutdown(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "cleanup failed: %v\n", err)
		}
	}()
	return application.Run(commandContext(cmd))
}
