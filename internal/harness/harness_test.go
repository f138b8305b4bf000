package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runScenario(t *testing.T, s *Scenario) (*Result, error) {
	t.Helper()
	return Run(s, filepath.Join(t.TempDir(), "harness.db"))
}

func TestRun_TraceIsDeterministic(t *testing.T) {
	s := &Scenario{
		Name:        "determinism",
		Description: "same scenario, same trace",
		Steps: []Step{
			{Op: OpSignup, Email: "a@b.c", Password: "hunter22"},
			{Op: OpAdd, Text: "one"},
			{Op: OpAdd, Text: "two"},
			{Op: OpToggle, Text: "one"},
		},
	}

	first, err := runScenario(t, s)
	require.NoError(t, err)
	second, err := runScenario(t, s)
	require.NoError(t, err)

	assert.Equal(t, first.Trace, second.Trace)
}

func TestRun_RecordsLifecycle(t *testing.T) {
	s := &Scenario{
		Name:        "lifecycle",
		Description: "states follow the session",
		Steps: []Step{
			{Op: OpSignup, Email: "a@b.c", Password: "hunter22"},
			{Op: OpAdd, Text: "task"},
			{Op: OpLogout},
		},
	}

	result, err := runScenario(t, s)
	require.NoError(t, err)
	require.Len(t, result.Trace, 3)

	assert.Equal(t, "live", result.Trace[0].State)
	assert.Empty(t, result.Trace[0].Items)

	require.Len(t, result.Trace[1].Items, 1)
	assert.Equal(t, "task", result.Trace[1].Items[0].Text)
	assert.Equal(t, int64(1), result.Trace[1].Items[0].CreatedSeq)

	assert.Equal(t, "unsubscribed", result.Trace[2].State)
	assert.Empty(t, result.Trace[2].Items)
}

func TestRun_ExpectedErrorIsRecorded(t *testing.T) {
	s := &Scenario{
		Name:        "expected-error",
		Description: "a declared failure lands in the trace",
		Steps: []Step{
			{Op: OpSignup, Email: "a@b.c", Password: "hunter22"},
			{Op: OpAdd, Text: "   ", ExpectError: "empty"},
		},
	}

	result, err := runScenario(t, s)
	require.NoError(t, err)
	assert.Contains(t, result.Trace[1].Error, "item text is empty")
	assert.Equal(t, "live", result.Trace[1].State)
}

func TestRun_UnexpectedSuccessFails(t *testing.T) {
	s := &Scenario{
		Name:        "unexpected-success",
		Description: "a step declared to fail must fail",
		Steps: []Step{
			{Op: OpSignup, Email: "a@b.c", Password: "hunter22", ExpectError: "nope"},
		},
	}

	_, err := runScenario(t, s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected error")
}

func TestRun_UndeclaredErrorAborts(t *testing.T) {
	s := &Scenario{
		Name:        "undeclared-error",
		Description: "toggling a missing item aborts the run",
		Steps: []Step{
			{Op: OpSignup, Email: "a@b.c", Password: "hunter22"},
			{Op: OpToggle, Text: "no such item"},
		},
	}

	_, err := runScenario(t, s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no item with text")
}

func TestRun_FilterShapesTrace(t *testing.T) {
	s := &Scenario{
		Name:        "filtering",
		Description: "filter is view state, not data",
		Steps: []Step{
			{Op: OpSignup, Email: "a@b.c", Password: "hunter22"},
			{Op: OpAdd, Text: "open"},
			{Op: OpAdd, Text: "closed"},
			{Op: OpToggle, Text: "closed"},
			{Op: OpFilter, Mode: "active"},
			{Op: OpFilter, Mode: "all"},
		},
	}

	result, err := runScenario(t, s)
	require.NoError(t, err)

	active := result.Trace[4]
	assert.Equal(t, "active", active.Filter)
	require.Len(t, active.Items, 1)
	assert.Equal(t, "open", active.Items[0].Text)

	all := result.Trace[5]
	assert.Equal(t, "all", all.Filter)
	assert.Len(t, all.Items, 2)
}
