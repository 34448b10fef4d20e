// Package config holds the run configuration for rtfctl.
//
// A RunConfig is the single mutable context for one invocation: the working
// directory, the test assembly manifest, the results artifact, the selection
// filters, the host application instances, and the loaded assemblies. It is
// created by the front end (command line or interactive session) and handed
// explicitly to the selector and the orchestrator.
//
// # Persisted Settings
//
// Interactive sessions remember a small subset of the configuration between
// runs in ~/.config/rtfctl/settings.yaml:
//
//	workingDirectory: /work/tests
//	assemblyPath: /work/tests/manifest.yaml
//	resultsPath: /work/tests/results.xml
//	isDebug: false
//	timeout: 120000
//	selectedProduct: 0
//
// The timeout is stored in milliseconds. A selectedProduct outside the
// range of discovered host instances is reset to -1 on load.
//
// # Validation
//
// SetWorkingDirectory and SetTestAssembly reject paths that do not exist
// with ErrInvalidPath. ValidateFilters rejects a configuration where both a
// fixture and a test filter are set. ResolveHostPath fails with ErrNoHosts
// when neither an explicit host path nor any host instance is available.
package config
