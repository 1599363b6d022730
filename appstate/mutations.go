package appstate

import (
	"github.com/grovetools/widgetdeck/entity"
	"github.com/grovetools/widgetdeck/errors"
	"github.com/grovetools/widgetdeck/memsaver"
)

// AddProject appends a new project to the switcher. The first project
// becomes current.
func AddProject(s AppState, name string) (AppState, *Project) {
	prj := &Project{ID: NewID(), Name: name, WorkflowIDs: []string{}}
	s.Entities.Projects = entity.AddOne(s.Entities.Projects, prj)

	sw := s.UI.ProjectSwitcher
	sw.ProjectIDs = entity.AddItemToList(sw.ProjectIDs, prj.ID)
	if sw.CurrentProjectID == "" {
		sw.CurrentProjectID = prj.ID
	}
	s.UI.ProjectSwitcher = sw
	return s, prj
}

// AddWorkflow appends a new workflow to a project. The first workflow of a
// project becomes its current one.
func AddWorkflow(s AppState, prjID, name string) (AppState, *Workflow, error) {
	if _, ok := s.Entities.Projects[prjID]; !ok {
		return s, nil, errors.NotFound("project", prjID)
	}

	wfl := &Workflow{ID: NewID(), PrjID: prjID, Name: name, Layout: []LayoutItem{}}
	s.Entities.Workflows = entity.AddOne(s.Entities.Workflows, wfl)
	s.Entities.Projects = entity.UpdateOne(s.Entities.Projects, entity.Update[*Project]{
		ID: prjID,
		Apply: func(p *Project) *Project {
			cp := *p
			cp.WorkflowIDs = entity.AddItemToList(p.WorkflowIDs, wfl.ID)
			if cp.CurrentWorkflowID == "" {
				cp.CurrentWorkflowID = wfl.ID
			}
			return &cp
		},
	})
	return s, wfl, nil
}

// AddWidget creates a widget and places it below the existing layout of a
// workflow.
func AddWidget(s AppState, wflID, widgetType, name string) (AppState, *Widget, error) {
	wfl, ok := s.Entities.Workflows[wflID]
	if !ok {
		return s, nil, errors.NotFound("workflow", wflID)
	}
	if widgetType == "" {
		return s, nil, errors.InvalidInput("widget type is required")
	}

	widget := &Widget{ID: NewID(), Type: widgetType, Name: name}
	s.Entities.Widgets = entity.AddOne(s.Entities.Widgets, widget)

	bottom := 0
	for _, item := range wfl.Layout {
		if item.Y+item.H > bottom {
			bottom = item.Y + item.H
		}
	}
	s.Entities.Workflows = entity.UpdateOne(s.Entities.Workflows, entity.Update[*Workflow]{
		ID: wflID,
		Apply: func(w *Workflow) *Workflow {
			cp := *w
			cp.Layout = entity.AddItemToList(w.Layout, LayoutItem{WidgetID: widget.ID, Y: bottom, W: 4, H: 4})
			return &cp
		},
	})
	return s, widget, nil
}

// RemoveWorkflow deletes a workflow and the widgets it shows, except those
// kept on the shelf, and releases it in the memory saver.
func RemoveWorkflow(s AppState, wflID string) (AppState, error) {
	wfl, ok := s.Entities.Workflows[wflID]
	if !ok {
		return s, errors.NotFound("workflow", wflID)
	}

	var widgetIDs []string
	for _, item := range wfl.Layout {
		if entity.IndexOf(s.UI.ShelfWidgetIDs, item.WidgetID) < 0 {
			widgetIDs = append(widgetIDs, item.WidgetID)
		}
	}
	s.Entities.Widgets = entity.RemoveMany(s.Entities.Widgets, widgetIDs)
	s.Entities.Workflows = entity.RemoveOne(s.Entities.Workflows, wflID)
	s.Entities.Projects = entity.UpdateOne(s.Entities.Projects, entity.Update[*Project]{
		ID: wfl.PrjID,
		Apply: func(p *Project) *Project {
			cp := *p
			cp.WorkflowIDs = entity.RemoveValueFromList(p.WorkflowIDs, wflID)
			if cp.CurrentWorkflowID == wflID {
				cp.CurrentWorkflowID = ""
				if len(cp.WorkflowIDs) > 0 {
					cp.CurrentWorkflowID = cp.WorkflowIDs[0]
				}
			}
			return &cp
		},
	})
	s.UI.MemSaver = memsaver.DeactivateWorkflow(wflID, s.UI.MemSaver)

	// The promoted workflow of the current project is the one on screen.
	if prj, ok := s.Entities.Projects[wfl.PrjID]; ok && prj.ID == s.UI.ProjectSwitcher.CurrentProjectID && prj.CurrentWorkflowID != "" {
		s.UI.MemSaver = memsaver.ActivateWorkflow(prj.ID, prj.CurrentWorkflowID, s.UI.MemSaver)
	}
	return s, nil
}

// MoveProject reorders the project switcher.
func MoveProject(s AppState, from, to int) AppState {
	ids := entity.MoveItemInList(s.UI.ProjectSwitcher.ProjectIDs, from, to)
	if entity.SameList(ids, s.UI.ProjectSwitcher.ProjectIDs) {
		return s
	}
	s.UI.ProjectSwitcher.ProjectIDs = ids
	return s
}

// SetCurrentProjectID selects the current project.
func SetCurrentProjectID(s AppState, prjID string) (AppState, error) {
	if _, ok := s.Entities.Projects[prjID]; !ok {
		return s, errors.NotFound("project", prjID)
	}
	s.UI.ProjectSwitcher.CurrentProjectID = prjID
	return s, nil
}

// SetCurrentWorkflowID selects the current workflow of its project.
func SetCurrentWorkflowID(s AppState, wflID string) (AppState, error) {
	wfl, ok := s.Entities.Workflows[wflID]
	if !ok {
		return s, errors.NotFound("workflow", wflID)
	}
	s.Entities.Projects = entity.UpdateOne(s.Entities.Projects, entity.Update[*Project]{
		ID: wfl.PrjID,
		Apply: func(p *Project) *Project {
			if p.CurrentWorkflowID == wflID {
				return p
			}
			cp := *p
			cp.CurrentWorkflowID = wflID
			return &cp
		},
	})
	return s, nil
}

// PatchWorkflow applies changes keyed by json field name, e.g. {"name": "x"}.
func PatchWorkflow(s AppState, wflID string, changes map[string]any) (AppState, error) {
	if _, ok := s.Entities.Workflows[wflID]; !ok {
		return s, errors.NotFound("workflow", wflID)
	}
	workflows, err := entity.PatchOne(s.Entities.Workflows, wflID, changes)
	if err != nil {
		return s, errors.Wrap(err, errors.ErrCodeInvalidInput, "cannot patch workflow").WithDetail("id", wflID)
	}
	s.Entities.Workflows = workflows
	return s, nil
}

// AddToShelf puts a widget at the front of the shelf. Widgets pushed past
// the shelf limit are deleted unless a workflow still shows them.
func AddToShelf(s AppState, widgetID string) (AppState, error) {
	if _, ok := s.Entities.Widgets[widgetID]; !ok {
		return s, errors.NotFound("widget", widgetID)
	}

	shelf := entity.AddOrMoveItemInList(s.UI.ShelfWidgetIDs, widgetID, 0)
	limit := s.UI.AppConfig.ShelfLimit
	if limit <= 0 {
		limit = DefaultShelfLimit
	}
	shelf, dropped := entity.LimitListLength(shelf, limit)

	var orphans []string
	for _, id := range dropped {
		if !s.widgetInLayout(id) {
			orphans = append(orphans, id)
		}
	}
	s.Entities.Widgets = entity.RemoveMany(s.Entities.Widgets, orphans)
	s.UI.ShelfWidgetIDs = shelf
	return s, nil
}

func (s AppState) widgetInLayout(widgetID string) bool {
	for _, wfl := range s.Entities.Workflows {
		for _, item := range wfl.Layout {
			if item.WidgetID == widgetID {
				return true
			}
		}
	}
	return false
}

// RegisterWidgetType adds or replaces an installed widget type.
func RegisterWidgetType(s AppState, info *WidgetTypeInfo) AppState {
	s.Entities.WidgetTypes = entity.AddOne(s.Entities.WidgetTypes, info)
	return s
}

// SetAppMemSaver replaces the application-wide memsaver settings.
func SetAppMemSaver(s AppState, cfg memsaver.Config) AppState {
	if s.UI.AppConfig.MemSaver == cfg {
		return s
	}
	s.UI.AppConfig.MemSaver = cfg
	return s
}
