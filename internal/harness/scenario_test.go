package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validScenario = `
name: basic
description: basic flow
steps:
  - op: signup
    email: a@b.c
    password: hunter22
  - op: add
    text: task
  - op: logout
`

func TestLoadScenario_Valid(t *testing.T) {
	s, err := LoadScenario(writeScenario(t, validScenario))
	require.NoError(t, err)
	assert.Equal(t, "basic", s.Name)
	require.Len(t, s.Steps, 3)
	assert.Equal(t, OpSignup, s.Steps[0].Op)
	assert.Equal(t, "task", s.Steps[1].Text)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read")
}

func TestLoadScenario_UnknownFieldRejected(t *testing.T) {
	_, err := LoadScenario(writeScenario(t, `
name: typo
description: has a typo
stepss:
  - op: logout
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_Validation(t *testing.T) {
	cases := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing name",
			content: "description: d\nsteps:\n  - op: logout\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			content: "name: n\nsteps:\n  - op: logout\n",
			wantErr: "description is required",
		},
		{
			name:    "empty steps",
			content: "name: n\ndescription: d\n",
			wantErr: "steps list is required",
		},
		{
			name:    "signup without email",
			content: "name: n\ndescription: d\nsteps:\n  - op: signup\n    password: p\n",
			wantErr: "email is required",
		},
		{
			name:    "login without password",
			content: "name: n\ndescription: d\nsteps:\n  - op: login\n    email: a@b.c\n",
			wantErr: "password is required",
		},
		{
			name:    "add without text",
			content: "name: n\ndescription: d\nsteps:\n  - op: add\n",
			wantErr: "text is required",
		},
		{
			name:    "filter without mode",
			content: "name: n\ndescription: d\nsteps:\n  - op: filter\n",
			wantErr: "mode is required",
		},
		{
			name:    "unknown op",
			content: "name: n\ndescription: d\nsteps:\n  - op: rename\n    text: x\n",
			wantErr: "unknown op",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tc.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestShippedScenariosLoad(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			s, err := LoadScenario(path)
			require.NoError(t, err)
			assert.Equal(t, s.Name+".yaml", filepath.Base(path),
				"scenario name must match its file name")
		})
	}
}
