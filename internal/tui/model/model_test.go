package model

import (
	"context"
	"fmt"
	"rtfctl/internal/assembly"
	"rtfctl/internal/config"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleAssemblies() []assembly.AssemblyData {
	return []assembly.AssemblyData{
		{
			Name: "Walls",
			Fixtures: []assembly.FixtureData{
				{Name: "WallTests", Tests: []assembly.TestData{{Name: "Create"}, {Name: "Delete"}}},
			},
		},
		{
			Name: "Floors",
			Fixtures: []assembly.FixtureData{
				{Name: "FloorTests", Tests: []assembly.TestData{{Name: "Slope"}}},
			},
		},
	}
}

func newTestModel() *Model {
	cfg := config.DefaultRunConfig()
	cfg.Assemblies = sampleAssemblies()
	return NewModel(context.Background(), Options{Config: cfg})
}

func TestBuildRows(t *testing.T) {
	rows := BuildRows(sampleAssemblies())

	var labels []string
	for _, r := range rows {
		labels = append(labels, fmt.Sprintf("%d:%s", r.Kind, r.Label()))
	}
	assert.Equal(t, []string{
		"0:Walls", "1:WallTests", "2:Create", "2:Delete",
		"0:Floors", "1:FloorTests", "2:Slope",
	}, labels)

	assert.Equal(t, 2, rows[0].Tests)
	assert.Equal(t, 2, rows[1].Tests)
	assert.Equal(t, 1, rows[2].Tests)
	assert.Empty(t, BuildRows(nil))
}

func TestRow_ResultKey(t *testing.T) {
	tests := []struct {
		row  Row
		want string
	}{
		{Row{Kind: RowAssembly, Assembly: "Walls"}, "Walls"},
		{Row{Kind: RowFixture, Assembly: "Walls", Fixture: "WallTests"}, "WallTests"},
		{Row{Kind: RowTest, Assembly: "Walls", Fixture: "WallTests", Test: "Create"}, "WallTests.Create"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.row.ResultKey())
	}
}

func TestSetAssemblies_ClampsCursor(t *testing.T) {
	m := newTestModel()
	m.Cursor = 6

	m.SetAssemblies(sampleAssemblies()[:1])
	assert.Len(t, m.Rows, 4)
	assert.Equal(t, 3, m.Cursor)
	assert.Len(t, m.Config.Assemblies, 1)

	m.SetAssemblies(nil)
	assert.Equal(t, 0, m.Cursor)
	_, ok := m.SelectedRow()
	assert.False(t, ok)
}

func TestIsFiltered(t *testing.T) {
	m := newTestModel()
	fixtureRow := m.Rows[1]
	testRow := m.Rows[2]

	assert.False(t, m.IsFiltered(fixtureRow))
	m.Config.Fixture = "WallTests"
	assert.True(t, m.IsFiltered(fixtureRow))
	assert.False(t, m.IsFiltered(testRow))

	m.Config.Fixture = ""
	m.Config.Test = "Create"
	assert.True(t, m.IsFiltered(testRow))
	assert.False(t, m.IsFiltered(m.Rows[0]))
}

func TestAddRawLineToActivityLog_KeepsTail(t *testing.T) {
	m := newTestModel()
	for i := 0; i < MaxActivityLogLines+10; i++ {
		AddRawLineToActivityLog(m, fmt.Sprintf("line %d", i))
	}
	require.Len(t, m.ActivityLog, MaxActivityLogLines)
	assert.Equal(t, "line 10", m.ActivityLog[0])
	assert.True(t, m.ActivityLogDirty)
}

func TestSetStatusMessage(t *testing.T) {
	m := newTestModel()

	cmd := m.SetStatusMessage("first", StatusBarInfo, time.Millisecond)
	require.NotNil(t, cmd)
	first := m.StatusBarClearCancel

	m.SetStatusMessage("second", StatusBarError, time.Hour)
	assert.Equal(t, "second", m.StatusBarMessage)
	assert.Equal(t, StatusBarError, m.StatusBarMessageType)

	// The superseded timer must not clear the newer message.
	assert.Nil(t, cmd())
	select {
	case <-first:
	default:
		t.Fatal("first cancel channel should be closed")
	}
}

func TestListenForRunEventsCmd_ReturnsNilWhenDone(t *testing.T) {
	done := make(chan struct{})
	close(done)
	assert.Nil(t, ListenForRunEventsCmd(nil, done)())
}

func TestListenForLogEntriesCmd_NilChannel(t *testing.T) {
	assert.Nil(t, ListenForLogEntriesCmd(nil))
}
