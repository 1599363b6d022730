package appstate

import (
	"testing"

	"github.com/grovetools/widgetdeck/entity"
	"github.com/grovetools/widgetdeck/errors"
	"github.com/grovetools/widgetdeck/memsaver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddProjectAndWorkflows(t *testing.T) {
	s := Initial(DefaultAppConfig())

	s, prj := AddProject(s, "home")
	assert.Equal(t, []string{prj.ID}, s.UI.ProjectSwitcher.ProjectIDs)
	assert.Equal(t, prj.ID, s.UI.ProjectSwitcher.CurrentProjectID)

	s, second := AddProject(s, "work")
	assert.Equal(t, prj.ID, s.UI.ProjectSwitcher.CurrentProjectID, "only the first project becomes current")
	assert.NotEqual(t, prj.ID, second.ID)

	s, w1, err := AddWorkflow(s, prj.ID, "main")
	require.NoError(t, err)
	s, w2, err := AddWorkflow(s, prj.ID, "side")
	require.NoError(t, err)

	got := s.Entities.Projects[prj.ID]
	assert.Equal(t, []string{w1.ID, w2.ID}, got.WorkflowIDs)
	assert.Equal(t, w1.ID, got.CurrentWorkflowID)
	assert.Empty(t, prj.WorkflowIDs, "the original project value is untouched")

	_, _, err = AddWorkflow(s, "nope", "x")
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound))
}

func TestAddWidgetStacksLayout(t *testing.T) {
	s := fixture()

	s, a, err := AddWidget(s, "w1", "clock", "A")
	require.NoError(t, err)
	s, b, err := AddWidget(s, "w1", "notes", "B")
	require.NoError(t, err)

	layout := s.Entities.Workflows["w1"].Layout
	require.Len(t, layout, 2)
	assert.Equal(t, a.ID, layout[0].WidgetID)
	assert.Equal(t, 0, layout[0].Y)
	assert.Equal(t, b.ID, layout[1].WidgetID)
	assert.Equal(t, layout[0].H, layout[1].Y)

	_, _, err = AddWidget(s, "w1", "", "x")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}

func TestRemoveWorkflow(t *testing.T) {
	s := fixture()
	s, widget, err := AddWidget(s, "w1", "clock", "")
	require.NoError(t, err)
	s.UI.MemSaver = memsaver.ActivateWorkflow("p1", "w1", s.UI.MemSaver)

	s, err = RemoveWorkflow(s, "w1")
	require.NoError(t, err)

	assert.NotContains(t, s.Entities.Workflows, "w1")
	assert.NotContains(t, s.Entities.Widgets, widget.ID)
	assert.Equal(t, []string{"w2"}, s.Entities.Projects["p1"].WorkflowIDs)
	assert.Equal(t, "w2", s.Entities.Projects["p1"].CurrentWorkflowID)
	assert.False(t, s.UI.MemSaver.IsActive("w1"))
	assert.True(t, s.UI.MemSaver.IsActive("w2"), "the promoted workflow of the current project is active")

	_, err = RemoveWorkflow(s, "w1")
	assert.Error(t, err)
}

func TestRemoveWorkflowOfOtherProject(t *testing.T) {
	s := fixture()

	s, err := RemoveWorkflow(s, "w3")
	require.NoError(t, err)
	assert.Empty(t, s.Entities.Projects["p2"].CurrentWorkflowID)
	assert.Empty(t, s.UI.MemSaver.ActiveWorkflows, "nothing is activated outside the current project")
}

func TestSetCurrentIDs(t *testing.T) {
	s := fixture()

	next, err := SetCurrentWorkflowID(s, "w1")
	require.NoError(t, err)
	assert.True(t, entity.SameCollection(s.Entities.Projects, next.Entities.Projects), "selecting the current workflow changes nothing")

	next, err = SetCurrentWorkflowID(s, "w2")
	require.NoError(t, err)
	assert.Equal(t, "w2", next.Entities.Projects["p1"].CurrentWorkflowID)

	next, err = SetCurrentProjectID(s, "p2")
	require.NoError(t, err)
	assert.Equal(t, "p2", next.UI.ProjectSwitcher.CurrentProjectID)

	_, err = SetCurrentProjectID(s, "p9")
	assert.Error(t, err)
}

func TestMoveProject(t *testing.T) {
	s := fixture()

	moved := MoveProject(s, 0, 1)
	assert.Equal(t, []string{"p2", "p1"}, moved.UI.ProjectSwitcher.ProjectIDs)
	assert.Equal(t, []string{"p1", "p2"}, s.UI.ProjectSwitcher.ProjectIDs)

	same := MoveProject(s, 1, 1)
	assert.True(t, entity.SameList(s.UI.ProjectSwitcher.ProjectIDs, same.UI.ProjectSwitcher.ProjectIDs))
}

func TestPatchWorkflow(t *testing.T) {
	s := fixture()

	next, err := PatchWorkflow(s, "w1", map[string]any{"name": "renamed"})
	require.NoError(t, err)
	assert.Equal(t, "renamed", next.Entities.Workflows["w1"].Name)
	assert.Equal(t, "main", s.Entities.Workflows["w1"].Name)

	_, err = PatchWorkflow(s, "w1", map[string]any{"id": "other"})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}

func TestPatchWorkflowKeepsPublishedStateIntact(t *testing.T) {
	s := fixture()
	s, _, err := AddWidget(s, "w1", "clock", "")
	require.NoError(t, err)
	s, err = PatchWorkflow(s, "w1", map[string]any{"settings": map[string]any{"memSaver": map[string]any{"workflowInactiveAfter": 5}}})
	require.NoError(t, err)
	published := s.Entities.Workflows["w1"]
	layout := append([]LayoutItem(nil), published.Layout...)

	next, err := PatchWorkflow(s, "w1", map[string]any{
		"settings": map[string]any{"memSaver": map[string]any{"workflowInactiveAfter": 9}},
		"layout":   []map[string]any{{"widgetId": layout[0].WidgetID, "x": 3, "w": 2, "h": 2}},
	})
	require.NoError(t, err)

	assert.Equal(t, 9, *next.Entities.Workflows["w1"].Settings.MemSaver.WorkflowInactiveAfter)
	assert.Equal(t, 3, next.Entities.Workflows["w1"].Layout[0].X)
	assert.Equal(t, 5, *published.Settings.MemSaver.WorkflowInactiveAfter)
	assert.Equal(t, layout, published.Layout)
}

func TestAddToShelfEvictsOrphans(t *testing.T) {
	s := fixture()
	s.UI.AppConfig.ShelfLimit = 2

	s, placed, err := AddWidget(s, "w1", "clock", "")
	require.NoError(t, err)

	var loose []string
	for i := 0; i < 2; i++ {
		w := &Widget{ID: NewID(), Type: "notes"}
		s.Entities.Widgets = entity.AddOne(s.Entities.Widgets, w)
		loose = append(loose, w.ID)
	}

	s, err = AddToShelf(s, loose[0])
	require.NoError(t, err)
	s, err = AddToShelf(s, placed.ID)
	require.NoError(t, err)
	s, err = AddToShelf(s, loose[1])
	require.NoError(t, err)

	assert.Equal(t, []string{loose[1], placed.ID}, s.UI.ShelfWidgetIDs)
	assert.NotContains(t, s.Entities.Widgets, loose[0], "dropped widgets nobody shows are deleted")

	s, err = AddToShelf(s, loose[1])
	require.NoError(t, err)
	s, err = AddToShelf(s, NewID())
	assert.Error(t, err)

	s, err = AddToShelf(s, placed.ID)
	require.NoError(t, err)
	s, other, err := AddWidget(s, "w2", "clock", "")
	require.NoError(t, err)
	s, err = AddToShelf(s, other.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{other.ID, placed.ID}, s.UI.ShelfWidgetIDs)
	assert.NotContains(t, s.Entities.Widgets, loose[1])
	assert.Contains(t, s.Entities.Widgets, placed.ID)
}
