// Package memsaver decides which workflows stay active. Workflows that are
// not being looked at are released, either immediately or after a delay,
// to bound the resources they hold.
//
// Every function here is a transform over State: it returns the input
// unchanged (same slice and map) when there is nothing to do. Timer handles
// live in the state and are stopped whenever their entry is removed.
package memsaver

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// ActiveWorkflow identifies an active workflow and its project.
type ActiveWorkflow struct {
	PrjID string `json:"prjId"`
	WflID string `json:"wflId"`
}

// State is the memory saver part of the application state.
type State struct {
	ActiveWorkflows []ActiveWorkflow `json:"activeWorkflows"`
	// WorkflowTimeouts holds the pending deactivation per workflow id.
	WorkflowTimeouts map[string]*Timeout `json:"-"`
}

// Timeout is one armed delayed deactivation. Every arming creates a new
// Timeout, so a firing callback can check that it is still the pending one.
type Timeout struct {
	timer clockwork.Timer
}

// Stop cancels the timer. It returns false if the timer already fired or
// was stopped.
func (t *Timeout) Stop() bool {
	return t.timer.Stop()
}

// Workflow is the memsaver view of a workflow.
type Workflow struct {
	ID       string
	Settings Overrides
}

// DeactivateFunc is invoked, on the timer's goroutine, when a delayed
// deactivation expires. t identifies the arming that fired.
type DeactivateFunc func(wflID string, t *Timeout)

// IsActive reports whether wflID is active.
func (s State) IsActive(wflID string) bool {
	return s.indexOf(wflID) >= 0
}

// HasTimeout reports whether a deactivation is pending for wflID.
func (s State) HasTimeout(wflID string) bool {
	_, ok := s.WorkflowTimeouts[wflID]
	return ok
}

// IsPending reports whether t is the deactivation currently pending for
// wflID. A timer that was cleared, or replaced by a later arming, is not.
func (s State) IsPending(wflID string, t *Timeout) bool {
	cur, ok := s.WorkflowTimeouts[wflID]
	return ok && cur == t
}

func (s State) indexOf(wflID string) int {
	for i, a := range s.ActiveWorkflows {
		if a.WflID == wflID {
			return i
		}
	}
	return -1
}

// ActivateWorkflow marks the workflow active and cancels its pending
// deactivation.
func ActivateWorkflow(prjID, wflID string, s State) State {
	if !s.IsActive(wflID) {
		active := make([]ActiveWorkflow, len(s.ActiveWorkflows), len(s.ActiveWorkflows)+1)
		copy(active, s.ActiveWorkflows)
		s.ActiveWorkflows = append(active, ActiveWorkflow{PrjID: prjID, WflID: wflID})
	}
	return clearTimeout(wflID, s)
}

// DeactivateWorkflow removes the workflow from the active set and cancels
// its pending deactivation.
func DeactivateWorkflow(wflID string, s State) State {
	if i := s.indexOf(wflID); i >= 0 {
		active := make([]ActiveWorkflow, 0, len(s.ActiveWorkflows)-1)
		active = append(active, s.ActiveWorkflows[:i]...)
		s.ActiveWorkflows = append(active, s.ActiveWorkflows[i+1:]...)
	}
	return clearTimeout(wflID, s)
}

// StartDelayedDeactivation arms a timer calling deactivate(wflID) after the
// given number of minutes. It does nothing if a timer is already pending
// for the workflow.
func StartDelayedDeactivation(wflID string, deactivate DeactivateFunc, minutes int, s State, clk clockwork.Clock) State {
	if s.HasTimeout(wflID) {
		return s
	}

	timeout := &Timeout{}
	timeout.timer = clk.AfterFunc(time.Duration(minutes)*time.Minute, func() { deactivate(wflID, timeout) })

	timeouts := make(map[string]*Timeout, len(s.WorkflowTimeouts)+1)
	for id, t := range s.WorkflowTimeouts {
		timeouts[id] = t
	}
	timeouts[wflID] = timeout
	s.WorkflowTimeouts = timeouts
	return s
}

// ActivateProjectWorkflows runs when switching into a project. The current
// workflow is always activated. The others are activated when their
// effective settings ask for activation on project switch with a non-zero
// inactivity delay, and get a delayed deactivation when that delay is
// positive.
func ActivateProjectWorkflows(prjID string, workflows []Workflow, currentWflID string, app Config, project Overrides, s State, deactivate DeactivateFunc, clk clockwork.Clock) State {
	for _, wfl := range workflows {
		if wfl.ID == currentWflID {
			s = ActivateWorkflow(prjID, wfl.ID, s)
			continue
		}

		cfg := Effective(app, project, wfl.Settings)
		if !cfg.ActivateWorkflowsOnProjectSwitch || cfg.WorkflowInactiveAfter == 0 {
			continue
		}
		s = ActivateWorkflow(prjID, wfl.ID, s)
		if cfg.WorkflowInactiveAfter > 0 {
			s = StartDelayedDeactivation(wfl.ID, deactivate, cfg.WorkflowInactiveAfter, s, clk)
		}
	}
	return s
}

// ScheduleDeactivationForProjectWorkflows runs against the project being
// left. Each of its active workflows is released according to its
// effective delay: immediately for 0, after the delay when positive, never
// when negative.
func ScheduleDeactivationForProjectWorkflows(prjID string, workflows []Workflow, app Config, project Overrides, s State, deactivate DeactivateFunc, clk clockwork.Clock) State {
	for _, wfl := range workflows {
		if !s.IsActive(wfl.ID) {
			continue
		}
		s = ScheduleDeactivation(wfl.ID, Effective(app, project, wfl.Settings), s, deactivate, clk)
	}
	return s
}

// ScheduleDeactivation releases a single workflow that stopped being
// current according to cfg.
func ScheduleDeactivation(wflID string, cfg Config, s State, deactivate DeactivateFunc, clk clockwork.Clock) State {
	switch {
	case cfg.WorkflowInactiveAfter == 0:
		return DeactivateWorkflow(wflID, s)
	case cfg.WorkflowInactiveAfter > 0:
		return StartDelayedDeactivation(wflID, deactivate, cfg.WorkflowInactiveAfter, s, clk)
	}
	return s
}

// ReleaseAll stops every pending timer. Active workflows are left as is.
func ReleaseAll(s State) State {
	if len(s.WorkflowTimeouts) == 0 {
		return s
	}
	for _, t := range s.WorkflowTimeouts {
		t.Stop()
	}
	s.WorkflowTimeouts = map[string]*Timeout{}
	return s
}

// clearTimeout stops and forgets the pending deactivation of wflID.
func clearTimeout(wflID string, s State) State {
	t, ok := s.WorkflowTimeouts[wflID]
	if !ok {
		return s
	}
	t.Stop()

	timeouts := make(map[string]*Timeout, len(s.WorkflowTimeouts)-1)
	for id, other := range s.WorkflowTimeouts {
		if id != wflID {
			timeouts[id] = other
		}
	}
	s.WorkflowTimeouts = timeouts
	return s
}
