package app

import (
	"context"
	"rtfctl/internal/config"
	"rtfctl/internal/discovery"
	"rtfctl/internal/host"
	"rtfctl/internal/orchestrator"
	"rtfctl/internal/tui/controller"
	"rtfctl/internal/tui/model"
)

// Deps are the collaborators of an Application. Zero fields get defaults.
type Deps struct {
	Discoverer  discovery.Discoverer
	NewAdapter  func(opts host.ProcessOptions) (host.Adapter, error)
	Interactive func(ctx context.Context, opts model.Options) error
}

func (d Deps) withDefaults(cfg *Config) Deps {
	if d.Discoverer == nil {
		d.Discoverer = NewDiscoverer(cfg.HostsFile, cfg.HostRoots, cfg.Run.HostExecutable)
	}
	if d.NewAdapter == nil {
		d.NewAdapter = func(opts host.ProcessOptions) (host.Adapter, error) {
			return host.NewProcessAdapter(opts)
		}
	}
	if d.Interactive == nil {
		d.Interactive = controller.Run
	}
	return d
}

// NewDiscoverer combines the hosts file, if any, with a scan of the install
// roots. Without explicit roots the platform defaults are scanned.
func NewDiscoverer(hostsFile string, roots []string, executable string) discovery.Discoverer {
	var chain discovery.Chain
	if hostsFile != "" {
		chain = append(chain, discovery.FileDiscoverer{Path: hostsFile})
	}
	if len(roots) == 0 {
		roots = discovery.DefaultRoots()
	}
	if len(roots) > 0 {
		chain = append(chain, discovery.DirDiscoverer{Roots: roots, Executable: executable})
	}
	return chain
}

// newOrchestrator builds an orchestrator whose adapter launches the host
// resolved from cfg.
func newOrchestrator(deps Deps, cfg *config.RunConfig, reporter orchestrator.Reporter) (*orchestrator.Orchestrator, error) {
	hostPath, err := cfg.ResolveHostPath()
	if err != nil {
		return nil, err
	}
	adapter, err := deps.NewAdapter(host.ProcessOptions{
		HostPath: hostPath,
		Timeout:  cfg.Timeout,
		Debug:    cfg.Debug,
	})
	if err != nil {
		return nil, err
	}
	return orchestrator.New(adapter, reporter), nil
}
