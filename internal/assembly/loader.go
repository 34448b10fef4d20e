package assembly

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidManifest is returned when a manifest fails to parse or validate.
var ErrInvalidManifest = errors.New("invalid assembly manifest")

// manifest is the on-disk description of one or more test assemblies.
// JSON manifests decode through the same path since JSON is valid YAML.
type manifest struct {
	Assemblies []AssemblyData `yaml:"assemblies"`
}

// Load reads the manifest at manifestPath and returns its assemblies in
// declaration order. Relative assembly paths are resolved against
// workingDir, or against the manifest's directory when workingDir is empty.
// An assembly without a path refers to the manifest file itself.
func Load(manifestPath, workingDir string) ([]AssemblyData, error) {
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read assembly manifest %s: %w", manifestPath, err)
	}
	return Parse(data, manifestPath, workingDir)
}

// Parse decodes manifest bytes; manifestPath is only used to resolve paths
// and name assemblies that do not declare one.
func Parse(data []byte, manifestPath, workingDir string) ([]AssemblyData, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	if err := validateDocument(doc); err != nil {
		return nil, err
	}

	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}

	baseDir := workingDir
	if baseDir == "" {
		baseDir = filepath.Dir(manifestPath)
	}

	for i := range m.Assemblies {
		a := &m.Assemblies[i]
		switch {
		case a.Path == "":
			a.Path = manifestPath
		case !filepath.IsAbs(a.Path):
			a.Path = filepath.Join(baseDir, a.Path)
		}
		if a.Name == "" {
			a.Name = strings.TrimSuffix(filepath.Base(a.Path), filepath.Ext(a.Path))
		}
		if err := checkUniqueNames(*a); err != nil {
			return nil, err
		}
	}

	return m.Assemblies, nil
}

// checkUniqueNames enforces unique fixture names within an assembly and
// unique test names within a fixture.
func checkUniqueNames(a AssemblyData) error {
	fixtures := make(map[string]struct{}, len(a.Fixtures))
	for _, f := range a.Fixtures {
		if _, dup := fixtures[f.Name]; dup {
			return fmt.Errorf("%w: duplicate fixture %q in assembly %q", ErrInvalidManifest, f.Name, a.Name)
		}
		fixtures[f.Name] = struct{}{}

		tests := make(map[string]struct{}, len(f.Tests))
		for _, t := range f.Tests {
			if _, dup := tests[t.Name]; dup {
				return fmt.Errorf("%w: duplicate test %q in fixture %q", ErrInvalidManifest, t.Name, f.Name)
			}
			tests[t.Name] = struct{}{}
		}
	}
	return nil
}
