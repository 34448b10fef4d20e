package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"rtfctl/internal/assembly"
	"rtfctl/internal/config"
	"rtfctl/internal/orchestrator"
	"rtfctl/pkg/logging"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// OrchestratorFactory builds an orchestrator for the host selected in cfg.
type OrchestratorFactory func(cfg *config.RunConfig) (*orchestrator.Orchestrator, error)

// MCPServer exposes host discovery, test listing and test runs as MCP tools.
type MCPServer struct {
	base            *config.RunConfig
	newOrchestrator OrchestratorFactory
	server          *server.MCPServer

	// runMu allows a single run at a time.
	runMu sync.Mutex
}

// NewMCPServer creates the server. base supplies the hosts and the defaults
// every tool call starts from; it is never modified.
func NewMCPServer(base *config.RunConfig, factory OrchestratorFactory, version string) *MCPServer {
	m := &MCPServer{
		base:            base,
		newOrchestrator: factory,
	}
	m.server = server.NewMCPServer(
		"rtfctl",
		version,
		server.WithToolCapabilities(true),
	)
	m.server.AddTools(m.Tools()...)
	return m
}

// Server returns the underlying MCP server.
func (m *MCPServer) Server() *server.MCPServer {
	return m.server
}

// Start serves MCP over the given streams until ctx is done or in closes.
func (m *MCPServer) Start(ctx context.Context, in io.Reader, out io.Writer) error {
	logging.Info("Agent", "serving MCP on stdio (%d host instance(s))", len(m.base.Hosts))
	stdio := server.NewStdioServer(m.server)
	err := stdio.Listen(ctx, in, out)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("MCP server error: %w", err)
	}
	return nil
}

// Tools returns the tool definitions with their handlers.
func (m *MCPServer) Tools() []server.ServerTool {
	return []server.ServerTool{
		{
			Tool: mcp.NewTool("list_hosts",
				mcp.WithDescription("List the discovered host application instances"),
			),
			Handler: m.handleListHosts,
		},
		{
			Tool: mcp.NewTool("list_tests",
				mcp.WithDescription("List the assemblies, fixtures and tests of a test assembly manifest"),
				mcp.WithString("assembly", mcp.Description("Path to the test assembly manifest (defaults to the configured one)")),
			),
			Handler: m.handleListTests,
		},
		{
			Tool: mcp.NewTool("run_tests",
				mcp.WithDescription("Run all assemblies, a single fixture or a single test and return the run summary"),
				mcp.WithString("assembly", mcp.Description("Path to the test assembly manifest (defaults to the configured one)")),
				mcp.WithString("fixture", mcp.Description("Run only this fixture")),
				mcp.WithString("test", mcp.Description("Run only this test")),
				mcp.WithString("results", mcp.Description("Path of the results file")),
				mcp.WithBoolean("concatenate", mcp.Description("Append to an existing results file")),
				mcp.WithNumber("host", mcp.Description("Index of the host instance to use (see list_hosts)")),
			),
			Handler: m.handleRunTests,
		},
	}
}

type hostInfo struct {
	Index           int    `json:"index"`
	Name            string `json:"name"`
	InstallLocation string `json:"installLocation"`
	Selected        bool   `json:"selected"`
}

func (m *MCPServer) handleListHosts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	hosts := make([]hostInfo, len(m.base.Hosts))
	for i, h := range m.base.Hosts {
		hosts[i] = hostInfo{
			Index:           i,
			Name:            h.Name,
			InstallLocation: h.InstallLocation,
			Selected:        i == m.base.SelectedHostIndex,
		}
	}
	return jsonResult(hosts)
}

type fixtureInfo struct {
	Name  string   `json:"name"`
	Tests []string `json:"tests"`
}

type assemblyInfo struct {
	Name     string        `json:"name"`
	Path     string        `json:"path,omitempty"`
	Tests    int           `json:"tests"`
	Fixtures []fixtureInfo `json:"fixtures"`
}

func (m *MCPServer) handleListTests(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	assemblies, err := m.loadAssemblies(stringArg(args, "assembly"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	out := make([]assemblyInfo, 0, len(assemblies))
	for _, a := range assemblies {
		info := assemblyInfo{Name: a.Name, Path: a.Path, Tests: a.TestCount(), Fixtures: []fixtureInfo{}}
		for _, f := range a.Fixtures {
			fi := fixtureInfo{Name: f.Name, Tests: []string{}}
			for _, t := range f.Tests {
				fi.Tests = append(fi.Tests, t.Name)
			}
			info.Fixtures = append(info.Fixtures, fi)
		}
		out = append(out, info)
	}
	return jsonResult(out)
}

func (m *MCPServer) handleRunTests(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !m.runMu.TryLock() {
		return mcp.NewToolResultError(orchestrator.ErrAlreadyRunning.Error()), nil
	}
	defer m.runMu.Unlock()

	cfg, err := m.runConfig(request.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	assemblies, err := m.loadAssemblies(cfg.TestAssemblyPath)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cfg.Assemblies = assemblies

	orch, err := m.newOrchestrator(cfg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("cannot start run: %v", err)), nil
	}

	summary, err := orch.Execute(ctx, cfg, assemblies)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(summary)
}

// runConfig copies the base configuration and applies the call arguments.
func (m *MCPServer) runConfig(args map[string]any) (*config.RunConfig, error) {
	cfg := *m.base
	cfg.Assemblies = nil

	if v := stringArg(args, "assembly"); v != "" {
		cfg.TestAssemblyPath = v
	}
	if _, ok := args["fixture"]; ok {
		cfg.Fixture = stringArg(args, "fixture")
		cfg.Test = ""
	}
	if _, ok := args["test"]; ok {
		cfg.Test = stringArg(args, "test")
		if _, fixtureSet := args["fixture"]; !fixtureSet {
			cfg.Fixture = ""
		}
	}
	if v := stringArg(args, "results"); v != "" {
		cfg.ResultsPath = v
	}
	if v, ok := args["concatenate"].(bool); ok {
		cfg.Concatenate = v
	}
	if v, ok := args["host"].(float64); ok {
		if v != math.Trunc(v) {
			return nil, fmt.Errorf("host index must be a whole number, got %v", v)
		}
		idx := int(v)
		if idx < 0 || idx >= len(cfg.Hosts) {
			return nil, fmt.Errorf("host index %d out of range (%d host instance(s))", idx, len(cfg.Hosts))
		}
		cfg.SelectedHostIndex = idx
		cfg.HostPath = ""
	}

	if err := cfg.ValidateFilters(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (m *MCPServer) loadAssemblies(path string) ([]assembly.AssemblyData, error) {
	if path == "" {
		path = m.base.TestAssemblyPath
	}
	if path == "" {
		return nil, errors.New("no test assembly given")
	}
	return assembly.Load(path, m.base.WorkingDirectory)
}

func stringArg(args map[string]any, name string) string {
	s, _ := args[name].(string)
	return s
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to format result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
