package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/grovetools/widgetdeck/errors"
	"github.com/grovetools/widgetdeck/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cliEnv struct {
	configPath string
	stateDir   string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	home := t.TempDir()
	t.Setenv("WIDGETDECK_HOME", home)

	stateDir := filepath.Join(home, "state-files")
	configPath := filepath.Join(home, "widgetdeck.yml")
	content := "version: \"1.0\"\nstorage:\n  backend: file\n  path: " + stateDir + "\nmemsaver:\n  workflow_inactive_after: 5\n"
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))
	return &cliEnv{configPath: configPath, stateDir: stateDir}
}

func (c *cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := Execute(context.Background(), append(args, "--config", c.configPath), &stdout, &stderr)
	return stdout.String(), err
}

func (c *cliEnv) files(t *testing.T) *kv.File {
	t.Helper()
	f, err := kv.NewFile(c.stateDir)
	require.NoError(t, err)
	return f
}

func TestProjectLifecycle(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run(t, "project", "add", "Home", "Main")
	require.NoError(t, err)
	_, err = env.run(t, "project", "add", "Work")
	require.NoError(t, err)

	out, err := env.run(t, "project", "list", "--json")
	require.NoError(t, err)

	var projects []projectSummary
	require.NoError(t, json.Unmarshal([]byte(out), &projects))
	require.Len(t, projects, 2)
	assert.Equal(t, "Home", projects[0].Name)
	assert.True(t, projects[0].Current)
	require.Len(t, projects[0].Workflows, 1)
	assert.Equal(t, "Main", projects[0].Workflows[0].Name)
	assert.True(t, projects[0].Workflows[0].Current)

	_, err = env.run(t, "project", "switch", projects[1].ID)
	require.NoError(t, err)

	out, err = env.run(t, "project", "list", "--json")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &projects))
	assert.False(t, projects[0].Current)
	assert.True(t, projects[1].Current)

	_, err = env.run(t, "state", "patch", projects[0].Workflows[0].ID, "name=Renamed")
	require.NoError(t, err)
	out, err = env.run(t, "state", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Renamed")
	assert.Contains(t, out, `"workflowInactiveAfter": 5`, "config seeds the fresh app settings")

	_, err = env.run(t, "project", "switch", "missing")
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound))
}

func TestStateShowMissing(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run(t, "state", "show")
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound))
}

func TestStateMigrate(t *testing.T) {
	env := newCLIEnv(t)
	ctx := context.Background()
	files := env.files(t)
	require.NoError(t, files.SetText(ctx, "app-state", `{"ver":1,"obj":{
		"entities":{"projects":{"p1":{"id":"p1","name":"Old"}}},
		"ui":{"appConfig":{"workflowInactiveAfter":2},"projectsOrder":["p1"],"currentProjectId":"p1"}
	}}`))

	raw, err := env.run(t, "state", "show", "--raw")
	require.NoError(t, err)
	assert.Contains(t, raw, `"ver": 1`)

	out, err := env.run(t, "state", "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "from version 1 to 3")

	text, err := files.GetText(ctx, "app-state")
	require.NoError(t, err)
	var envelope struct {
		Ver int `json:"ver"`
		Obj struct {
			UI struct {
				AppConfig struct {
					MemSaver struct {
						WorkflowInactiveAfter int `json:"workflowInactiveAfter"`
					} `json:"memSaver"`
				} `json:"appConfig"`
				ProjectSwitcher struct {
					ProjectIDs []string `json:"projectIds"`
				} `json:"projectSwitcher"`
			} `json:"ui"`
		} `json:"obj"`
	}
	require.NoError(t, json.Unmarshal([]byte(text), &envelope))
	assert.Equal(t, 3, envelope.Ver)
	assert.Equal(t, 2, envelope.Obj.UI.AppConfig.MemSaver.WorkflowInactiveAfter)
	assert.Equal(t, []string{"p1"}, envelope.Obj.UI.ProjectSwitcher.ProjectIDs)

	out, err = env.run(t, "state", "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Already at version 3")
}

func TestStateKeysAndClear(t *testing.T) {
	env := newCLIEnv(t)
	ctx := context.Background()
	files := env.files(t)
	require.NoError(t, files.SetText(ctx, "app-state", `{"ver":3,"obj":{}}`))
	require.NoError(t, files.SetText(ctx, "other", `x`))

	out, err := env.run(t, "state", "keys")
	require.NoError(t, err)
	assert.Equal(t, "app-state\nother\n", out)

	_, err = env.run(t, "state", "clear")
	require.NoError(t, err)
	keys, err := files.GetKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"other"}, keys)

	_, err = env.run(t, "state", "clear", "--all")
	require.NoError(t, err)
	keys, err = files.GetKeys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestStateShowYAML(t *testing.T) {
	env := newCLIEnv(t)
	_, err := env.run(t, "project", "add", "Home")
	require.NoError(t, err)

	out, err := env.run(t, "state", "show", "--format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "name: Home")

	_, err = env.run(t, "state", "show", "--format", "xml")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}

func TestParseAssignments(t *testing.T) {
	changes, err := parseAssignments([]string{"name=Review", "count=3", `settings={"a":true}`})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"name":     "Review",
		"count":    float64(3),
		"settings": map[string]any{"a": true},
	}, changes)

	_, err = parseAssignments([]string{"novalue"})
	assert.Error(t, err)
}

func TestVersionReportsStateSchema(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run(t, "version", "--json")
	require.NoError(t, err)

	var info struct {
		Version      string `json:"version"`
		StateVersion int    `json:"stateVersion"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.NotEmpty(t, info.Version)
	assert.Equal(t, 3, info.StateVersion)
}
