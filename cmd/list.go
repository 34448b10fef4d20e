package cmd

import (
	"encoding/json"
	"fmt"
	"rtfctl/internal/assembly"
	"rtfctl/internal/orchestrator"

	"github.com/charmbracelet/lipgloss/tree"
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the assemblies, fixtures and tests of a test assembly manifest",
		Long: `Loads the manifest given with --assembly and prints its content in
declaration order. With --output json the assemblies are printed as JSON.`,
		Args: cobra.NoArgs,
		RunE: runList,
	}
}

func runList(cmd *cobra.Command, args []string) error {
	if flags.assembly == "" {
		return fmt.Errorf("--assembly is required")
	}
	workingDir := flags.dir
	if workingDir == "" {
		workingDir = newAppConfig(flags).ExecutableDir
	}

	assemblies, err := assembly.Load(flags.assembly, workingDir)
	if err != nil {
		return fmt.Errorf("failed to load test assembly: %w", err)
	}

	out := cmd.OutOrStdout()
	if flags.output == orchestrator.OutputJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(assemblies)
	}
	fmt.Fprintln(out, renderAssemblyTree(assemblies))
	fmt.Fprintf(out, "%d assemblies, %d tests\n", len(assemblies), assembly.TotalTests(assemblies))
	return nil
}

func renderAssemblyTree(assemblies []assembly.AssemblyData) string {
	root := tree.New()
	for _, a := range assemblies {
		at := tree.Root(fmt.Sprintf("%s (%d)", a.Name, a.TestCount()))
		for _, f := range a.Fixtures {
			ft := tree.Root(fmt.Sprintf("%s (%d)", f.Name, f.TestCount()))
			for _, t := range f.Tests {
				ft.Child(t.Name)
			}
			at.Child(ft)
		}
		root.Child(at)
	}
	return root.String()
}
