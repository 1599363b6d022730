// Package appstate defines the widgetdeck application state: normalized
// projects, workflows and widgets plus the UI state that references them.
package appstate

import (
	"github.com/google/uuid"
	"github.com/grovetools/widgetdeck/entity"
	"github.com/grovetools/widgetdeck/memsaver"
)

// Project groups workflows. Exactly one project is current at a time.
type Project struct {
	ID                string          `json:"id" jsonschema:"required"`
	Name              string          `json:"name"`
	WorkflowIDs       []string        `json:"workflowIds,omitempty"`
	CurrentWorkflowID string          `json:"currentWorkflowId,omitempty"`
	Settings          ProjectSettings `json:"settings"`
}

// GetID implements entity.Identifiable.
func (p *Project) GetID() string { return p.ID }

// ProjectSettings are per-project settings.
type ProjectSettings struct {
	MemSaver memsaver.Overrides `json:"memSaver"`
}

// Workflow is a screen of widgets laid out on a grid.
type Workflow struct {
	ID       string           `json:"id" jsonschema:"required"`
	PrjID    string           `json:"prjId"`
	Name     string           `json:"name"`
	Layout   []LayoutItem     `json:"layout,omitempty"`
	Settings WorkflowSettings `json:"settings"`
}

// GetID implements entity.Identifiable.
func (w *Workflow) GetID() string { return w.ID }

// WorkflowSettings are per-workflow settings.
type WorkflowSettings struct {
	MemSaver memsaver.Overrides `json:"memSaver"`
}

// LayoutItem places a widget on a workflow grid.
type LayoutItem struct {
	WidgetID string `json:"widgetId"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	W        int    `json:"w"`
	H        int    `json:"h"`
}

// Widget is an instance of a widget type.
type Widget struct {
	ID       string         `json:"id" jsonschema:"required"`
	Type     string         `json:"type"`
	Name     string         `json:"name"`
	Settings map[string]any `json:"settings,omitempty"`
	// ExposedAPI is whatever the running widget publishes to others.
	// Runtime only.
	ExposedAPI any `json:"-"`
}

// GetID implements entity.Identifiable.
func (w *Widget) GetID() string { return w.ID }

// WidgetTypeInfo describes an installed widget type. Registered at runtime
// and never persisted.
type WidgetTypeInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// GetID implements entity.Identifiable.
func (w *WidgetTypeInfo) GetID() string { return w.ID }

// Entities are the normalized collections.
type Entities struct {
	Projects    entity.Collection[*Project]
	Workflows   entity.Collection[*Workflow]
	Widgets     entity.Collection[*Widget]
	WidgetTypes entity.Collection[*WidgetTypeInfo]
}

// AppConfig holds application-wide settings.
type AppConfig struct {
	MemSaver memsaver.Config `json:"memSaver"`
	// ShelfLimit caps the number of widgets kept on the shelf.
	ShelfLimit int `json:"shelfLimit"`
}

// ProjectSwitcher is the ordered list of projects and the current one.
type ProjectSwitcher struct {
	ProjectIDs       []string `json:"projectIds,omitempty"`
	CurrentProjectID string   `json:"currentProjectId,omitempty"`
}

// DragDrop tracks a widget being dragged between workflows.
type DragDrop struct {
	WidgetID      string
	SrcWorkflowID string
}

// CopyBuffer holds a copied widget.
type CopyBuffer struct {
	WidgetID string
}

// ModalScreen is an open modal dialog.
type ModalScreen struct {
	Kind string
	Data map[string]any
}

// UI is the state of the user interface.
type UI struct {
	AppConfig       AppConfig
	ShelfWidgetIDs  []string
	ProjectSwitcher ProjectSwitcher
	DragDrop        *DragDrop
	CopyBuffer      *CopyBuffer
	ModalScreens    []ModalScreen
	IsLoading       bool
	MemSaver        memsaver.State
}

// AppState is the complete application state. Values are treated as
// immutable: every change builds a new AppState sharing untouched parts.
type AppState struct {
	Entities Entities
	UI       UI
}

// WithLoading implements store.Loadable.
func (s AppState) WithLoading(loading bool) AppState {
	s.UI.IsLoading = loading
	return s
}

// CurrentProject returns the current project, if any.
func (s AppState) CurrentProject() (*Project, bool) {
	return entity.GetOne(s.Entities.Projects, s.UI.ProjectSwitcher.CurrentProjectID)
}

// ProjectWorkflows returns the memsaver view of a project's workflows in order.
func (s AppState) ProjectWorkflows(prj *Project) []memsaver.Workflow {
	out := make([]memsaver.Workflow, 0, len(prj.WorkflowIDs))
	for _, id := range prj.WorkflowIDs {
		wfl, ok := s.Entities.Workflows[id]
		if !ok {
			continue
		}
		out = append(out, memsaver.Workflow{ID: wfl.ID, Settings: wfl.Settings.MemSaver})
	}
	return out
}

// EffectiveMemSaver resolves the memsaver settings of a workflow.
func (s AppState) EffectiveMemSaver(wflID string) memsaver.Config {
	cfg := s.UI.AppConfig.MemSaver
	wfl, ok := s.Entities.Workflows[wflID]
	if !ok {
		return cfg
	}
	var prjOverrides memsaver.Overrides
	if prj, ok := s.Entities.Projects[wfl.PrjID]; ok {
		prjOverrides = prj.Settings.MemSaver
	}
	return memsaver.Effective(cfg, prjOverrides, wfl.Settings.MemSaver)
}

// NewID returns a fresh entity id.
func NewID() string {
	return uuid.NewString()
}
