package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve list and run tools over MCP (stdio transport)",
		Long: `Runs an MCP server on stdin/stdout exposing the tools list_hosts,
list_tests and run_tests. Logs are written to stderr.`,
		Args: cobra.NoArgs,
		RunE: runMCP,
	}
}

func runMCP(cmd *cobra.Command, args []string) error {
	application, err := newApplication(cmd)
	if err != nil {
		return err
	}
	defer application.Shutdown()

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return application.ServeMCP(ctx, rootCmd.Version, cmd.InOrStdin(), cmd.OutOrStdout())
}
