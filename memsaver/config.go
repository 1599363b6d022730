package memsaver

// Config holds the effective memory saver settings for one workflow.
type Config struct {
	// ActivateWorkflowsOnProjectSwitch activates every workflow of a project
	// when switching into it, not just the current one.
	ActivateWorkflowsOnProjectSwitch bool `json:"activateWorkflowsOnProjectSwitch"`
	// WorkflowInactiveAfter is in minutes. 0 deactivates non-current
	// workflows immediately, a negative value never deactivates them.
	WorkflowInactiveAfter int `json:"workflowInactiveAfter"`
}

// DefaultConfig is used for fresh application state.
func DefaultConfig() Config {
	return Config{
		ActivateWorkflowsOnProjectSwitch: false,
		WorkflowInactiveAfter:            -1,
	}
}

// Overrides are per-project or per-workflow settings. Nil fields inherit.
type Overrides struct {
	ActivateWorkflowsOnProjectSwitch *bool `json:"activateWorkflowsOnProjectSwitch,omitempty"`
	WorkflowInactiveAfter            *int  `json:"workflowInactiveAfter,omitempty"`
}

// IsZero reports whether no field is set.
func (o Overrides) IsZero() bool {
	return o.ActivateWorkflowsOnProjectSwitch == nil && o.WorkflowInactiveAfter == nil
}

// Effective resolves workflow ?? project ?? app for each field.
func Effective(app Config, project, workflow Overrides) Config {
	out := app
	for _, o := range []Overrides{project, workflow} {
		if o.ActivateWorkflowsOnProjectSwitch != nil {
			out.ActivateWorkflowsOnProjectSwitch = *o.ActivateWorkflowsOnProjectSwitch
		}
		if o.WorkflowInactiveAfter != nil {
			out.WorkflowInactiveAfter = *o.WorkflowInactiveAfter
		}
	}
	return out
}
