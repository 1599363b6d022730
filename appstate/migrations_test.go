package appstate

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const v1Payload = `{
	"entities": {
		"projects": {
			"p1": {"id": "p1", "name": "one", "workflowIds": ["w1"], "settings": {"workflowInactiveAfter": 5}},
			"p2": {"id": "p2", "name": "two"}
		},
		"workflows": {"w1": {"id": "w1", "prjId": "p1", "name": "main"}}
	},
	"ui": {
		"appConfig": {"activateWorkflowsOnProjectSwitch": true, "workflowInactiveAfter": 15, "shelfLimit": 7},
		"projectsOrder": ["p2", "p1"],
		"currentProjectId": "p1"
	}
}`

func TestMigrateFromV1(t *testing.T) {
	out, err := Migrate(json.RawMessage(v1Payload), 1)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(out, &doc))

	ui := doc["ui"].(map[string]any)
	assert.NotContains(t, ui, "projectsOrder")
	assert.NotContains(t, ui, "currentProjectId")
	assert.Equal(t, map[string]any{
		"projectIds":       []any{"p2", "p1"},
		"currentProjectId": "p1",
	}, ui["projectSwitcher"])

	appConfig := ui["appConfig"].(map[string]any)
	assert.Equal(t, map[string]any{
		"activateWorkflowsOnProjectSwitch": true,
		"workflowInactiveAfter":            float64(15),
	}, appConfig["memSaver"])
	assert.Equal(t, float64(7), appConfig["shelfLimit"])

	projects := doc["entities"].(map[string]any)["projects"].(map[string]any)
	p1 := projects["p1"].(map[string]any)
	assert.Equal(t, map[string]any{"memSaver": map[string]any{"workflowInactiveAfter": float64(5)}}, p1["settings"])
	p2 := projects["p2"].(map[string]any)
	assert.Equal(t, map[string]any{"memSaver": map[string]any{}}, p2["settings"])
}

func TestMigrateFromV2OnlyGroupsMemSaver(t *testing.T) {
	v2 := `{"entities":{},"ui":{"appConfig":{"workflowInactiveAfter":0},"projectSwitcher":{"projectIds":[]}}}`

	out, err := Migrate(json.RawMessage(v2), 2)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"entities": {"projects": {}},
		"ui": {"appConfig": {"memSaver": {"workflowInactiveAfter": 0}}, "projectSwitcher": {"projectIds": []}}
	}`, string(out))
}

func TestMigrateRejectsMalformedPayloads(t *testing.T) {
	for name, payload := range map[string]string{
		"not an object": `[1,2]`,
		"null":          `null`,
		"ui is a list":  `{"ui":[]}`,
		"bad project":   `{"entities":{"projects":{"p":1}},"ui":{}}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Migrate(json.RawMessage(payload), 1)
			assert.Error(t, err)
		})
	}
}

func TestMigratedV1DecodesAndValidates(t *testing.T) {
	out, err := Migrate(json.RawMessage(v1Payload), 1)
	require.NoError(t, err)

	s, err := Decode(out)
	require.NoError(t, err)
	assert.Equal(t, []string{"p2", "p1"}, s.UI.ProjectSwitcher.ProjectIDs)
	assert.True(t, s.UI.AppConfig.MemSaver.ActivateWorkflowsOnProjectSwitch)
	assert.Equal(t, 15, s.UI.AppConfig.MemSaver.WorkflowInactiveAfter)
	assert.Equal(t, 7, s.UI.AppConfig.ShelfLimit)
	require.NotNil(t, s.Entities.Projects["p1"].Settings.MemSaver.WorkflowInactiveAfter)
	assert.Equal(t, 5, *s.Entities.Projects["p1"].Settings.MemSaver.WorkflowInactiveAfter)
}
