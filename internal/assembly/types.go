// Package assembly describes the fixtures and tests of a test assembly and
// loads them from a manifest file.
package assembly

// TestData is a single named executable test case.
type TestData struct {
	Name string `yaml:"name" json:"name"`
	// ModelPath is the document the host opens before running the test, if any.
	ModelPath string `yaml:"model,omitempty" json:"model,omitempty"`
}

// FixtureData is a named group of tests. Name is namespace qualified.
type FixtureData struct {
	Name  string     `yaml:"name" json:"name"`
	Tests []TestData `yaml:"tests,omitempty" json:"tests,omitempty"`
}

// TestCount returns the number of tests declared by the fixture.
func (f FixtureData) TestCount() int {
	return len(f.Tests)
}

// AssemblyData is a loaded collection of test fixtures.
type AssemblyData struct {
	Name     string        `yaml:"name" json:"name"`
	Path     string        `yaml:"path" json:"path"`
	Fixtures []FixtureData `yaml:"fixtures" json:"fixtures"`
}

// TestCount returns the number of tests across every fixture of the assembly.
func (a AssemblyData) TestCount() int {
	count := 0
	for _, f := range a.Fixtures {
		count += f.TestCount()
	}
	return count
}

// TotalTests returns the number of tests across every fixture of every assembly.
func TotalTests(assemblies []AssemblyData) int {
	count := 0
	for _, a := range assemblies {
		count += a.TestCount()
	}
	return count
}

// FixtureRef points at a fixture together with the assembly that declares it.
type FixtureRef struct {
	Assembly *AssemblyData
	Fixture  *FixtureData
}

// TestRef points at a test together with its fixture and assembly.
type TestRef struct {
	Assembly *AssemblyData
	Fixture  *FixtureData
	Test     *TestData
}

// FindFixture returns the first fixture named name, scanning assemblies in
// load order and fixtures in declaration order. Matching is exact.
func FindFixture(assemblies []AssemblyData, name string) (FixtureRef, bool) {
	for i := range assemblies {
		a := &assemblies[i]
		for j := range a.Fixtures {
			if a.Fixtures[j].Name == name {
				return FixtureRef{Assembly: a, Fixture: &a.Fixtures[j]}, true
			}
		}
	}
	return FixtureRef{}, false
}

// FindTest returns the first test named name under assembly-load-order ×
// fixture-declaration-order × test-declaration-order. Matching is exact.
func FindTest(assemblies []AssemblyData, name string) (TestRef, bool) {
	for i := range assemblies {
		a := &assemblies[i]
		for j := range a.Fixtures {
			f := &a.Fixtures[j]
			for k := range f.Tests {
				if f.Tests[k].Name == name {
					return TestRef{Assembly: a, Fixture: f, Test: &f.Tests[k]}, true
				}
			}
		}
	}
	return TestRef{}, false
}
