package appstate

import (
	"github.com/grovetools/widgetdeck/entity"
)

// PersistentAppState is the part of AppState written to storage, in the
// current schema version.
type PersistentAppState struct {
	Entities PersistentEntities `json:"entities"`
	UI       PersistentUI       `json:"ui"`
}

// PersistentEntities are the persisted collections.
type PersistentEntities struct {
	Projects  map[string]Project  `json:"projects,omitempty"`
	Workflows map[string]Workflow `json:"workflows,omitempty"`
	Widgets   map[string]Widget   `json:"widgets,omitempty"`
}

// PersistentUI is the persisted part of the UI state.
type PersistentUI struct {
	AppConfig       AppConfig       `json:"appConfig"`
	ShelfWidgetIDs  []string        `json:"shelfWidgetIds,omitempty"`
	ProjectSwitcher ProjectSwitcher `json:"projectSwitcher"`
}

// ToPersistent projects the persisted subset of s.
func ToPersistent(s AppState) PersistentAppState {
	return PersistentAppState{
		Entities: PersistentEntities{
			Projects:  deref(s.Entities.Projects),
			Workflows: deref(s.Entities.Workflows),
			Widgets:   deref(s.Entities.Widgets),
		},
		UI: PersistentUI{
			AppConfig:       s.UI.AppConfig,
			ShelfWidgetIDs:  s.UI.ShelfWidgetIDs,
			ProjectSwitcher: s.UI.ProjectSwitcher,
		},
	}
}

// FromPersistent builds an AppState from its persisted form. Runtime-only
// parts are left zero; Merge fills them from the initial state.
func FromPersistent(p PersistentAppState) AppState {
	return AppState{
		Entities: Entities{
			Projects:  ref[Project, *Project](p.Entities.Projects),
			Workflows: ref[Workflow, *Workflow](p.Entities.Workflows),
			Widgets:   ref[Widget, *Widget](p.Entities.Widgets),
		},
		UI: UI{
			AppConfig:       p.UI.AppConfig,
			ShelfWidgetIDs:  p.UI.ShelfWidgetIDs,
			ProjectSwitcher: p.UI.ProjectSwitcher,
		},
	}
}

func deref[T any, P interface {
	*T
	entity.Identifiable
}](c entity.Collection[P]) map[string]T {
	if len(c) == 0 {
		return nil
	}
	out := make(map[string]T, len(c))
	for id, e := range c {
		out[id] = *e
	}
	return out
}

func ref[T any, P interface {
	*T
	entity.Identifiable
}](m map[string]T) entity.Collection[P] {
	out := make(entity.Collection[P], len(m))
	for id, v := range m {
		out[id] = P(&v)
	}
	return out
}
