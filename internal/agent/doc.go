// Package agent serves rtfctl's operations as MCP (Model Context Protocol)
// tools over stdio, so that an assistant can discover host instances, list
// the tests of a manifest and run them.
//
// Three tools are registered:
//
//   - list_hosts returns the discovered host instances with their index.
//   - list_tests returns the assemblies, fixtures and tests of a manifest.
//   - run_tests runs everything, one fixture or one test and returns the
//     run summary as JSON.
//
// Every call starts from a copy of the session configuration, so calls never
// influence each other. Only one run_tests call executes at a time.
//
// Example usage:
//
//	srv := agent.NewMCPServer(cfg, factory, version)
//	if err := srv.Start(ctx, os.Stdin, os.Stdout); err != nil {
//	    log.Fatal(err)
//	}
package agent
