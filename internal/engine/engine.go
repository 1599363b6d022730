// Package engine wires configuration, persistence, the state store and the
// memory saver into a running widgetdeck core.
package engine

import (
	"context"
	"time"

	"github.com/grovetools/widgetdeck/appstate"
	"github.com/grovetools/widgetdeck/config"
	"github.com/grovetools/widgetdeck/errors"
	"github.com/grovetools/widgetdeck/kv"
	"github.com/grovetools/widgetdeck/logging"
	"github.com/grovetools/widgetdeck/memsaver"
	"github.com/grovetools/widgetdeck/statestore"
	"github.com/grovetools/widgetdeck/store"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

// Options configures an Engine.
type Options struct {
	Config *config.Config
	// Backend overrides the backend selected by Config.Storage.
	Backend kv.Storage
	// Clock drives memsaver timers. Defaults to the real clock.
	Clock  clockwork.Clock
	Logger *logrus.Entry
}

// Engine owns the application state store.
type Engine struct {
	cfg     *config.Config
	backend kv.Storage
	storage *statestore.Storage[appstate.AppState]
	store   *store.Store[appstate.AppState]
	clock   clockwork.Clock
	logger  *logrus.Entry
}

// New opens the backend and starts loading the persisted state. Use Ready
// or WaitReady before relying on the loaded state.
func New(ctx context.Context, opts Options) (*Engine, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = &config.Config{}
		cfg.SetDefaults()
	}
	e := &Engine{
		cfg:    cfg,
		clock:  opts.Clock,
		logger: opts.Logger,
	}
	if e.clock == nil {
		e.clock = clockwork.NewRealClock()
	}
	if e.logger == nil {
		e.logger = logging.NewLogger("engine")
	}

	e.backend = opts.Backend
	if e.backend == nil {
		backend, err := OpenBackend(ctx, cfg.Storage)
		if err != nil {
			return nil, err
		}
		e.backend = backend
	}

	e.storage = appstate.NewStateStorage(kv.NewJSON(e.backend), cfg.Storage.Key)
	e.store = store.New(store.Options[appstate.AppState]{
		Storage:     e.storage,
		Initial:     appstate.Initial(InitialAppConfig(cfg)),
		Prepare:     appstate.Prepare,
		Merge:       appstate.Merge,
		OnReady:     e.initMemSaver,
		Logger:      logging.NewLogger("store"),
		SaveTimeout: cfg.Storage.SaveTimeoutDuration(),
	})

	e.logger.WithField("backend", cfg.Storage.Backend).WithField("key", cfg.Storage.Key).Debug("Engine started")
	return e, nil
}

// InitialAppConfig returns the fresh-install application settings with the
// memsaver values of cfg applied.
func InitialAppConfig(cfg *config.Config) appstate.AppConfig {
	app := appstate.DefaultAppConfig()
	app.MemSaver = applyMemSaverConfig(app.MemSaver, cfg.MemSaver)
	return app
}

func applyMemSaverConfig(ms memsaver.Config, cfg config.MemSaverConfig) memsaver.Config {
	if cfg.ActivateWorkflowsOnProjectSwitch != nil {
		ms.ActivateWorkflowsOnProjectSwitch = *cfg.ActivateWorkflowsOnProjectSwitch
	}
	if cfg.WorkflowInactiveAfter != nil {
		ms.WorkflowInactiveAfter = *cfg.WorkflowInactiveAfter
	}
	return ms
}

// Store returns the application state store.
func (e *Engine) Store() *store.Store[appstate.AppState] { return e.store }

// Storage returns the persisted state storage.
func (e *Engine) Storage() *statestore.Storage[appstate.AppState] { return e.storage }

// Backend returns the key/value backend.
func (e *Engine) Backend() kv.Storage { return e.backend }

// State returns the current application state.
func (e *Engine) State() appstate.AppState { return e.store.Get() }

// WaitReady blocks until the persisted state is loaded and the memory
// saver is initialized.
func (e *Engine) WaitReady(ctx context.Context) error {
	select {
	case <-e.store.Ready():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// initMemSaver activates the workflows of the current project once the
// loaded state is installed.
func (e *Engine) initMemSaver(s appstate.AppState) {
	prj, ok := s.CurrentProject()
	if !ok {
		return
	}
	e.store.Update(func(s appstate.AppState) appstate.AppState {
		return e.activateProject(s, prj.ID)
	})
	e.logger.WithField("project", prj.ID).
		WithField("active", len(e.store.Get().UI.MemSaver.ActiveWorkflows)).
		Debug("Memory saver initialized")
}

func (e *Engine) activateProject(s appstate.AppState, prjID string) appstate.AppState {
	prj, ok := s.Entities.Projects[prjID]
	if !ok {
		return s
	}
	s.UI.MemSaver = memsaver.ActivateProjectWorkflows(prj.ID, s.ProjectWorkflows(prj), prj.CurrentWorkflowID,
		s.UI.AppConfig.MemSaver, prj.Settings.MemSaver, s.UI.MemSaver, e.deactivate, e.clock)
	return s
}

// deactivate is the memsaver timer callback. A timer that is no longer the
// pending one for the workflow (it was cleared, or the workflow was
// re-armed after it fired) does nothing.
func (e *Engine) deactivate(wflID string, t *memsaver.Timeout) {
	e.store.Update(func(s appstate.AppState) appstate.AppState {
		if !s.UI.MemSaver.IsPending(wflID, t) {
			return s
		}
		s.UI.MemSaver = memsaver.DeactivateWorkflow(wflID, s.UI.MemSaver)
		e.logger.WithField("workflow", wflID).Info("Released inactive workflow")
		return s
	})
}

// SetCurrentProject switches to prjID. The entered project's workflows are
// activated first, then the left project's workflows are scheduled for
// deactivation, then the current project id changes. Each step is a
// separate store write.
func (e *Engine) SetCurrentProject(ctx context.Context, prjID string) error {
	if err := e.WaitReady(ctx); err != nil {
		return err
	}

	cur := e.store.Get()
	if _, ok := cur.Entities.Projects[prjID]; !ok {
		return errors.NotFound("project", prjID)
	}
	prevID := cur.UI.ProjectSwitcher.CurrentProjectID
	if prevID == prjID {
		return nil
	}

	e.store.Update(func(s appstate.AppState) appstate.AppState {
		return e.activateProject(s, prjID)
	})

	e.store.Update(func(s appstate.AppState) appstate.AppState {
		prev, ok := s.Entities.Projects[prevID]
		if !ok {
			return s
		}
		s.UI.MemSaver = memsaver.ScheduleDeactivationForProjectWorkflows(prev.ID, s.ProjectWorkflows(prev),
			s.UI.AppConfig.MemSaver, prev.Settings.MemSaver, s.UI.MemSaver, e.deactivate, e.clock)
		return s
	})

	var err error
	e.store.Update(func(s appstate.AppState) appstate.AppState {
		next, setErr := appstate.SetCurrentProjectID(s, prjID)
		err = setErr
		return next
	})
	if err == nil {
		e.logger.WithField("project", prjID).WithField("previous", prevID).Info("Switched project")
	}
	return err
}

// SetCurrentWorkflow makes wflID the current workflow of its project. In
// the current project the workflow is activated and the one it replaces is
// released according to its effective inactivity delay.
func (e *Engine) SetCurrentWorkflow(ctx context.Context, wflID string) error {
	return e.apply(ctx, func(s appstate.AppState) (appstate.AppState, error) {
		wfl, ok := s.Entities.Workflows[wflID]
		if !ok {
			return s, errors.NotFound("workflow", wflID)
		}
		prj, ok := s.Entities.Projects[wfl.PrjID]
		if !ok {
			return s, errors.NotFound("project", wfl.PrjID)
		}
		prevID := prj.CurrentWorkflowID

		if prj.ID == s.UI.ProjectSwitcher.CurrentProjectID {
			s.UI.MemSaver = memsaver.ActivateWorkflow(prj.ID, wflID, s.UI.MemSaver)
			if prevID != "" && prevID != wflID {
				s.UI.MemSaver = memsaver.ScheduleDeactivation(prevID, s.EffectiveMemSaver(prevID), s.UI.MemSaver, e.deactivate, e.clock)
			}
		}
		return appstate.SetCurrentWorkflowID(s, wflID)
	})
}

// AddProject creates a project.
func (e *Engine) AddProject(ctx context.Context, name string) (*appstate.Project, error) {
	var prj *appstate.Project
	err := e.apply(ctx, func(s appstate.AppState) (appstate.AppState, error) {
		var next appstate.AppState
		next, prj = appstate.AddProject(s, name)
		return next, nil
	})
	return prj, err
}

// AddWorkflow creates a workflow in a project. A workflow added to the
// current project as its first workflow is activated.
func (e *Engine) AddWorkflow(ctx context.Context, prjID, name string) (*appstate.Workflow, error) {
	var wfl *appstate.Workflow
	err := e.apply(ctx, func(s appstate.AppState) (appstate.AppState, error) {
		next, created, err := appstate.AddWorkflow(s, prjID, name)
		if err != nil {
			return s, err
		}
		wfl = created
		if prjID == next.UI.ProjectSwitcher.CurrentProjectID && next.Entities.Projects[prjID].CurrentWorkflowID == created.ID {
			next.UI.MemSaver = memsaver.ActivateWorkflow(prjID, created.ID, next.UI.MemSaver)
		}
		return next, nil
	})
	return wfl, err
}

// AddWidget creates a widget in a workflow.
func (e *Engine) AddWidget(ctx context.Context, wflID, widgetType, name string) (*appstate.Widget, error) {
	var widget *appstate.Widget
	err := e.apply(ctx, func(s appstate.AppState) (appstate.AppState, error) {
		next, created, err := appstate.AddWidget(s, wflID, widgetType, name)
		widget = created
		return next, err
	})
	return widget, err
}

// RemoveWorkflow deletes a workflow and its widgets.
func (e *Engine) RemoveWorkflow(ctx context.Context, wflID string) error {
	return e.apply(ctx, func(s appstate.AppState) (appstate.AppState, error) {
		return appstate.RemoveWorkflow(s, wflID)
	})
}

// MoveProject reorders the project switcher.
func (e *Engine) MoveProject(ctx context.Context, from, to int) error {
	return e.apply(ctx, func(s appstate.AppState) (appstate.AppState, error) {
		return appstate.MoveProject(s, from, to), nil
	})
}

// AddToShelf puts a widget on the shelf.
func (e *Engine) AddToShelf(ctx context.Context, widgetID string) error {
	return e.apply(ctx, func(s appstate.AppState) (appstate.AppState, error) {
		return appstate.AddToShelf(s, widgetID)
	})
}

// PatchWorkflow applies field changes to a workflow.
func (e *Engine) PatchWorkflow(ctx context.Context, wflID string, changes map[string]any) error {
	return e.apply(ctx, func(s appstate.AppState) (appstate.AppState, error) {
		return appstate.PatchWorkflow(s, wflID, changes)
	})
}

// RegisterWidgetType adds an installed widget type. Widget types are
// runtime only, so registering before the load completes is fine.
func (e *Engine) RegisterWidgetType(info *appstate.WidgetTypeInfo) {
	e.store.Update(func(s appstate.AppState) appstate.AppState {
		return appstate.RegisterWidgetType(s, info)
	})
}

// ApplyConfig applies the memsaver values set in a reloaded configuration
// to the live application settings.
func (e *Engine) ApplyConfig(cfg *config.Config) {
	e.store.Update(func(s appstate.AppState) appstate.AppState {
		return appstate.SetAppMemSaver(s, applyMemSaverConfig(s.UI.AppConfig.MemSaver, cfg.MemSaver))
	})
	e.logger.Debug("Applied configuration change")
}

// Watch reloads the configuration found from startDir whenever it changes
// and applies it. It blocks until ctx is cancelled.
func (e *Engine) Watch(ctx context.Context, startDir string) error {
	w, err := config.NewWatcher(startDir, 200*time.Millisecond, logging.NewLogger("config"), e.ApplyConfig)
	if err != nil {
		return err
	}
	w.Start(ctx)
	return nil
}

// Close stops pending memsaver timers, waits for pending saves and
// releases the backend.
func (e *Engine) Close(ctx context.Context) error {
	e.store.Update(func(s appstate.AppState) appstate.AppState {
		s.UI.MemSaver = memsaver.ReleaseAll(s.UI.MemSaver)
		return s
	})
	err := e.store.Close(ctx)
	if cerr := kv.Close(e.backend); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// apply runs fn as one atomic store update after the store is ready. fn's
// error aborts the update.
func (e *Engine) apply(ctx context.Context, fn func(appstate.AppState) (appstate.AppState, error)) error {
	if err := e.WaitReady(ctx); err != nil {
		return err
	}
	var err error
	e.store.Update(func(s appstate.AppState) appstate.AppState {
		next, fnErr := fn(s)
		if fnErr != nil {
			err = fnErr
			return s
		}
		return next
	})
	return err
}
