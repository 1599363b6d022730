package appstate

import (
	"sort"

	"github.com/grovetools/widgetdeck/entity"
	"github.com/grovetools/widgetdeck/memsaver"
)

// DefaultShelfLimit is the shelf size used for fresh state.
const DefaultShelfLimit = 20

// DefaultAppConfig returns the application settings of a fresh install.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		MemSaver:   memsaver.DefaultConfig(),
		ShelfLimit: DefaultShelfLimit,
	}
}

// Initial returns the state used before anything is loaded and when nothing
// is persisted.
func Initial(cfg AppConfig) AppState {
	return AppState{
		Entities: Entities{
			Projects:    entity.Collection[*Project]{},
			Workflows:   entity.Collection[*Workflow]{},
			Widgets:     entity.Collection[*Widget]{},
			WidgetTypes: entity.Collection[*WidgetTypeInfo]{},
		},
		UI: UI{
			AppConfig: cfg,
		},
	}
}

// Merge combines the initial state with a loaded one. Persisted parts come
// from loaded; runtime-only parts (widget types, memsaver, dialogs) come
// from initial.
func Merge(initial, loaded AppState) AppState {
	out := initial
	out.Entities.Projects = loaded.Entities.Projects
	out.Entities.Workflows = loaded.Entities.Workflows
	out.Entities.Widgets = loaded.Entities.Widgets
	out.UI.AppConfig = loaded.UI.AppConfig
	if out.UI.AppConfig.ShelfLimit <= 0 {
		out.UI.AppConfig.ShelfLimit = initial.UI.AppConfig.ShelfLimit
	}
	out.UI.ShelfWidgetIDs = loaded.UI.ShelfWidgetIDs
	out.UI.ProjectSwitcher = loaded.UI.ProjectSwitcher
	return out
}

// Prepare repairs references so the state is internally consistent:
// missing collections are created, nil entities and entities stored under
// a key other than their id are dropped, workflows of missing projects are
// dropped, dangling ids are dropped, every project
// appears once in the switcher and current ids point at existing entities.
// Parts that need no repair are returned unchanged.
func Prepare(s AppState) AppState {
	if s.Entities.Projects == nil {
		s.Entities.Projects = entity.Collection[*Project]{}
	}
	if s.Entities.Workflows == nil {
		s.Entities.Workflows = entity.Collection[*Workflow]{}
	}
	if s.Entities.Widgets == nil {
		s.Entities.Widgets = entity.Collection[*Widget]{}
	}
	if s.Entities.WidgetTypes == nil {
		s.Entities.WidgetTypes = entity.Collection[*WidgetTypeInfo]{}
	}

	s.Entities.Projects = dropMiskeyed(s.Entities.Projects)
	s.Entities.Workflows = dropMiskeyed(s.Entities.Workflows)
	s.Entities.Widgets = dropMiskeyed(s.Entities.Widgets)
	s.Entities.WidgetTypes = dropMiskeyed(s.Entities.WidgetTypes)

	var orphans []string
	for id, wfl := range s.Entities.Workflows {
		if _, ok := s.Entities.Projects[wfl.PrjID]; !ok {
			orphans = append(orphans, id)
		}
	}
	s.Entities.Workflows = entity.RemoveMany(s.Entities.Workflows, orphans)

	s.Entities.Projects = entity.UpdateMany(s.Entities.Projects, projectRepairs(s)...)
	s.UI.ProjectSwitcher = prepareSwitcher(s.UI.ProjectSwitcher, s.Entities.Projects)
	s.UI.ShelfWidgetIDs = keepExisting(s.UI.ShelfWidgetIDs, func(id string) bool {
		_, ok := s.Entities.Widgets[id]
		return ok
	})
	return s
}

// dropMiskeyed removes nil entries and entries whose id differs from their
// key.
func dropMiskeyed[T entity.Identifiable](c entity.Collection[T]) entity.Collection[T] {
	var zero T
	var bad []string
	for id, e := range c {
		if e == zero || e.GetID() != id {
			bad = append(bad, id)
		}
	}
	return entity.RemoveMany(c, bad)
}

func projectRepairs(s AppState) []entity.Update[*Project] {
	var updates []entity.Update[*Project]
	for id, prj := range s.Entities.Projects {
		ids := keepExisting(prj.WorkflowIDs, func(wflID string) bool {
			_, ok := s.Entities.Workflows[wflID]
			return ok
		})
		current := prj.CurrentWorkflowID
		if entity.IndexOf(ids, current) < 0 {
			current = ""
			if len(ids) > 0 {
				current = ids[0]
			}
		}
		if entity.SameList(ids, prj.WorkflowIDs) && current == prj.CurrentWorkflowID {
			continue
		}
		updates = append(updates, entity.Update[*Project]{
			ID: id,
			Apply: func(p *Project) *Project {
				cp := *p
				cp.WorkflowIDs = ids
				cp.CurrentWorkflowID = current
				return &cp
			},
		})
	}
	return updates
}

func prepareSwitcher(sw ProjectSwitcher, projects entity.Collection[*Project]) ProjectSwitcher {
	ids := keepExisting(sw.ProjectIDs, func(id string) bool {
		_, ok := projects[id]
		return ok
	})
	ids = dedupe(ids)
	if len(ids) < len(projects) {
		missing := make([]string, 0, len(projects)-len(ids))
		for id := range projects {
			if entity.IndexOf(ids, id) < 0 {
				missing = append(missing, id)
			}
		}
		sort.Strings(missing)
		for _, id := range missing {
			ids = entity.AddItemToList(ids, id)
		}
	}

	current := sw.CurrentProjectID
	if entity.IndexOf(ids, current) < 0 {
		current = ""
		if len(ids) > 0 {
			current = ids[0]
		}
	}

	if entity.SameList(ids, sw.ProjectIDs) && current == sw.CurrentProjectID {
		return sw
	}
	return ProjectSwitcher{ProjectIDs: ids, CurrentProjectID: current}
}

// keepExisting returns ids filtered by exists, or ids itself when nothing
// was dropped.
func keepExisting(ids []string, exists func(string) bool) []string {
	var out []string
	for i, id := range ids {
		if exists(id) {
			if out != nil {
				out = append(out, id)
			}
			continue
		}
		if out == nil {
			out = make([]string, i, len(ids))
			copy(out, ids[:i])
		}
	}
	if out == nil {
		return ids
	}
	return out
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	var out []string
	for i, id := range ids {
		if !seen[id] {
			seen[id] = true
			if out != nil {
				out = append(out, id)
			}
			continue
		}
		if out == nil {
			out = make([]string, i, len(ids))
			copy(out, ids[:i])
		}
	}
	if out == nil {
		return ids
	}
	return out
}
