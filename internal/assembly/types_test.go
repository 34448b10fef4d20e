package assembly

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoAssemblies() []AssemblyData {
	return []AssemblyData{
		{
			Name: "First",
			Fixtures: []FixtureData{
				{Name: "A", Tests: []TestData{{Name: "t1"}, {Name: "t2"}}},
				{Name: "B", Tests: []TestData{{Name: "t3"}}},
			},
		},
		{
			Name: "Second",
			Fixtures: []FixtureData{
				{Name: "B", Tests: []TestData{{Name: "t2"}, {Name: "t4"}}},
				{Name: "Empty"},
			},
		},
	}
}

func TestTotalTests(t *testing.T) {
	assert.Equal(t, 5, TotalTests(twoAssemblies()))
	assert.Equal(t, 0, TotalTests(nil))
}

func TestFindFixture_FirstMatchInLoadOrder(t *testing.T) {
	assemblies := twoAssemblies()

	ref, ok := FindFixture(assemblies, "B")
	require.True(t, ok)
	assert.Equal(t, "First", ref.Assembly.Name)
	assert.Equal(t, []TestData{{Name: "t3"}}, ref.Fixture.Tests)

	_, ok = FindFixture(assemblies, "b")
	assert.False(t, ok, "matching is case-sensitive")
}

func TestFindTest_FirstMatchInDeclarationOrder(t *testing.T) {
	assemblies := twoAssemblies()

	ref, ok := FindTest(assemblies, "t2")
	require.True(t, ok)
	assert.Equal(t, "First", ref.Assembly.Name)
	assert.Equal(t, "A", ref.Fixture.Name)

	ref, ok = FindTest(assemblies, "t4")
	require.True(t, ok)
	assert.Equal(t, "Second", ref.Assembly.Name)

	_, ok = FindTest(assemblies, "missing")
	assert.False(t, ok)
}
