package cmd

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

func newHostsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hosts",
		Short: "Print the discovered host application instances",
		Long: `Discovers host instances from --hosts-file and the --host-root
directories (or the platform default install location) and prints them with
the index accepted by --host.`,
		Args: cobra.NoArgs,
		RunE: runHosts,
	}
}

func runHosts(cmd *cobra.Command, args []string) error {
	application, err := newApplication(cmd)
	if err != nil {
		return err
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "NAME", "INSTALL LOCATION")
	for i, h := range application.Hosts() {
		t.Row(strconv.Itoa(i), h.Name, h.InstallLocation)
	}
	fmt.Fprintln(cmd.OutOrStdout(), t.String())
	return nil
}
