// Package discovery locates installed instances of the host application.
package discovery

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"rtfctl/internal/config"
	"rtfctl/pkg/logging"
	"runtime"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvHostRoots lists install roots separated by the OS path list separator.
const EnvHostRoots = "RTFCTL_HOST_ROOTS"

// DefaultProductPrefix is the directory name prefix of a host install.
const DefaultProductPrefix = "Revit"

// Discoverer returns host instances in a stable order.
type Discoverer interface {
	Discover(ctx context.Context) ([]config.HostInstance, error)
}

// FileDiscoverer reads host instances from a YAML file of the form
//
//	hosts:
//	  - name: Revit 2024
//	    installLocation: C:\Program Files\Autodesk\Revit 2024
type FileDiscoverer struct {
	Path string
}

type hostsFile struct {
	Hosts []config.HostInstance `yaml:"hosts"`
}

// Discover implements Discoverer.
func (d FileDiscoverer) Discover(ctx context.Context) ([]config.HostInstance, error) {
	data, err := os.ReadFile(d.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read hosts file %s: %w", d.Path, err)
	}
	var f hostsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse hosts file %s: %w", d.Path, err)
	}

	hosts := make([]config.HostInstance, 0, len(f.Hosts))
	for i, h := range f.Hosts {
		if h.InstallLocation == "" {
			return nil, fmt.Errorf("hosts file %s: entry %d has no installLocation", d.Path, i)
		}
		if h.Name == "" {
			h.Name = filepath.Base(h.InstallLocation)
		}
		hosts = append(hosts, h)
	}
	return hosts, nil
}

// DirDiscoverer scans install roots for directories named with Prefix that
// contain Executable.
type DirDiscoverer struct {
	Roots      []string
	Prefix     string
	Executable string
}

// Discover implements Discoverer. Missing roots are skipped.
func (d DirDiscoverer) Discover(ctx context.Context) ([]config.HostInstance, error) {
	prefix := d.Prefix
	if prefix == "" {
		prefix = DefaultProductPrefix
	}
	exe := d.Executable
	if exe == "" {
		exe = config.DefaultHostExecutable
	}

	var hosts []config.HostInstance
	for _, root := range d.Roots {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entries, err := os.ReadDir(root)
		if err != nil {
			logging.Debug("Discovery", "skipping install root %s: %v", root, err)
			continue
		}
		var found []config.HostInstance
		for _, e := range entries {
			if !e.IsDir() || !strings.HasPrefix(e.Name(), prefix) {
				continue
			}
			location := filepath.Join(root, e.Name())
			if info, err := os.Stat(filepath.Join(location, exe)); err != nil || info.IsDir() {
				continue
			}
			found = append(found, config.HostInstance{Name: e.Name(), InstallLocation: location})
		}
		sort.Slice(found, func(i, j int) bool { return found[i].Name < found[j].Name })
		hosts = append(hosts, found...)
	}
	return hosts, nil
}

// DefaultRoots returns the install roots from RTFCTL_HOST_ROOTS, or the
// platform default when unset.
func DefaultRoots() []string {
	if v := os.Getenv(EnvHostRoots); v != "" {
		return filepath.SplitList(v)
	}
	if runtime.GOOS == "windows" {
		pf := os.Getenv("ProgramFiles")
		if pf == "" {
			pf = `C:\Program Files`
		}
		return []string{filepath.Join(pf, "Autodesk")}
	}
	return nil
}

// Chain concatenates the results of several discoverers in order, keeping
// the first instance seen for each install location.
type Chain []Discoverer

// Discover implements Discoverer.
func (c Chain) Discover(ctx context.Context) ([]config.HostInstance, error) {
	seen := make(map[string]bool)
	var hosts []config.HostInstance
	for _, d := range c {
		found, err := d.Discover(ctx)
		if err != nil {
			return nil, err
		}
		for _, h := range found {
			key := filepath.Clean(h.InstallLocation)
			if seen[key] {
				continue
			}
			seen[key] = true
			hosts = append(hosts, h)
		}
	}
	return hosts, nil
}

// Hosts runs d and fails with config.ErrNoHosts when nothing was found.
func Hosts(ctx context.Context, d Discoverer) ([]config.HostInstance, error) {
	hosts, err := d.Discover(ctx)
	if err != nil {
		return nil, fmt.Errorf("host discovery failed: %w", err)
	}
	if len(hosts) == 0 {
		return nil, config.ErrNoHosts
	}
	logging.Debug("Discovery", "found %d host instance(s)", len(hosts))
	return hosts, nil
}
