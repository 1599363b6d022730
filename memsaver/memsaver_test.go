package memsaver

import (
	"sync"
	"testing"
	"time"

	"github.com/grovetools/widgetdeck/entity"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }
func intPtr(i int) *int    { return &i }

func newClock() *clockwork.FakeClock {
	return clockwork.NewFakeClockAt(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
}

func noop(string, *Timeout) {}

// recorder collects deactivate callbacks. Fake timers fire on their own
// goroutines, so reads go through calls.
type recorder struct {
	mu       sync.Mutex
	fired    []string
	timeouts []*Timeout
}

func (r *recorder) deactivate(wflID string, t *Timeout) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fired = append(r.fired, wflID)
	r.timeouts = append(r.timeouts, t)
}

func (r *recorder) calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.fired...)
}

func (r *recorder) waitFor(t *testing.T, want ...string) {
	t.Helper()
	require.Eventually(t, func() bool { return assert.ObjectsAreEqual(want, r.calls()) },
		time.Second, time.Millisecond, "want calls %v", want)
}

func TestEffective(t *testing.T) {
	app := Config{ActivateWorkflowsOnProjectSwitch: false, WorkflowInactiveAfter: 10}

	assert.Equal(t, app, Effective(app, Overrides{}, Overrides{}))

	prj := Overrides{WorkflowInactiveAfter: intPtr(3)}
	assert.Equal(t, Config{WorkflowInactiveAfter: 3}, Effective(app, prj, Overrides{}))

	wfl := Overrides{ActivateWorkflowsOnProjectSwitch: boolPtr(true), WorkflowInactiveAfter: intPtr(0)}
	assert.Equal(t, Config{ActivateWorkflowsOnProjectSwitch: true, WorkflowInactiveAfter: 0}, Effective(app, prj, wfl))
}

func TestActivateWorkflow(t *testing.T) {
	s := ActivateWorkflow("P", "W1", State{})
	assert.Equal(t, []ActiveWorkflow{{PrjID: "P", WflID: "W1"}}, s.ActiveWorkflows)

	again := ActivateWorkflow("P", "W1", s)
	assert.True(t, entity.SameList(s.ActiveWorkflows, again.ActiveWorkflows), "already active is a no-op")
}

func TestActivateDoesNotMutateInput(t *testing.T) {
	base := State{ActiveWorkflows: make([]ActiveWorkflow, 1, 4)}
	base.ActiveWorkflows[0] = ActiveWorkflow{PrjID: "P", WflID: "W1"}

	a := ActivateWorkflow("P", "W2", base)
	b := ActivateWorkflow("P", "W3", base)

	assert.Len(t, base.ActiveWorkflows, 1)
	assert.Equal(t, "W2", a.ActiveWorkflows[1].WflID)
	assert.Equal(t, "W3", b.ActiveWorkflows[1].WflID)
}

func TestDeactivateWorkflow(t *testing.T) {
	clk := newClock()
	rec := &recorder{}

	s := ActivateWorkflow("P", "W1", State{})
	s = ActivateWorkflow("P", "W2", s)
	s = StartDelayedDeactivation("W2", rec.deactivate, 5, s, clk)
	timeout := s.WorkflowTimeouts["W2"]

	s = DeactivateWorkflow("W2", s)
	assert.Equal(t, []ActiveWorkflow{{PrjID: "P", WflID: "W1"}}, s.ActiveWorkflows)
	assert.False(t, s.HasTimeout("W2"))
	assert.False(t, timeout.Stop(), "timer is already stopped")

	same := DeactivateWorkflow("missing", s)
	assert.True(t, entity.SameList(s.ActiveWorkflows, same.ActiveWorkflows))
}

func TestDelayedDeactivationLifecycle(t *testing.T) {
	clk := newClock()
	rec := &recorder{}

	s := StartDelayedDeactivation("W1", rec.deactivate, 5, State{}, clk)
	require.True(t, s.HasTimeout("W1"))
	timeout := s.WorkflowTimeouts["W1"]

	again := StartDelayedDeactivation("W1", rec.deactivate, 1, s, clk)
	assert.Equal(t, s.WorkflowTimeouts, again.WorkflowTimeouts, "no second timer")

	clk.Advance(5*time.Minute - time.Second)
	assert.Never(t, func() bool { return len(rec.calls()) > 0 }, 20*time.Millisecond, time.Millisecond)

	clk.Advance(time.Second)
	rec.waitFor(t, "W1")
	assert.Same(t, timeout, rec.timeouts[0], "the callback names its arming")
	assert.True(t, s.IsPending("W1", timeout))

	clk.Advance(time.Hour)
	assert.Never(t, func() bool { return len(rec.calls()) > 1 }, 20*time.Millisecond, time.Millisecond, "fires exactly once")
}

func TestRearmingReplacesTimeout(t *testing.T) {
	clk := newClock()

	s := StartDelayedDeactivation("W1", noop, 5, State{}, clk)
	first := s.WorkflowTimeouts["W1"]

	s = ActivateWorkflow("P", "W1", s)
	assert.False(t, s.IsPending("W1", first))

	s = StartDelayedDeactivation("W1", noop, 5, s, clk)
	second := s.WorkflowTimeouts["W1"]
	assert.NotSame(t, first, second)
	assert.False(t, s.IsPending("W1", first), "an earlier arming is stale")
	assert.True(t, s.IsPending("W1", second))
	assert.False(t, s.IsPending("W2", second))
}

func TestReactivationCancelsPendingTimeout(t *testing.T) {
	clk := newClock()
	rec := &recorder{}

	s := ActivateWorkflow("P", "W1", State{})
	s = StartDelayedDeactivation("W1", rec.deactivate, 5, s, clk)
	timeout := s.WorkflowTimeouts["W1"]

	s = ActivateWorkflow("P", "W1", s)
	assert.False(t, s.HasTimeout("W1"))
	assert.Empty(t, s.WorkflowTimeouts)
	assert.False(t, timeout.Stop())

	clk.Advance(10 * time.Minute)
	assert.Never(t, func() bool { return len(rec.calls()) > 0 }, 20*time.Millisecond, time.Millisecond, "cancelled timer never fires")
}

func TestActivateProjectWorkflows(t *testing.T) {
	workflows := []Workflow{
		{ID: "W1"},
		{ID: "W2"},
		{ID: "W3", Settings: Overrides{WorkflowInactiveAfter: intPtr(0)}},
		{ID: "W4", Settings: Overrides{WorkflowInactiveAfter: intPtr(-1)}},
		{ID: "W5", Settings: Overrides{ActivateWorkflowsOnProjectSwitch: boolPtr(false)}},
	}
	app := Config{ActivateWorkflowsOnProjectSwitch: true, WorkflowInactiveAfter: 5}
	clk := newClock()
	rec := &recorder{}

	s := ActivateProjectWorkflows("P", workflows, "W1", app, Overrides{}, State{}, rec.deactivate, clk)

	assert.Equal(t, []ActiveWorkflow{{"P", "W1"}, {"P", "W2"}, {"P", "W4"}}, s.ActiveWorkflows)
	assert.False(t, s.HasTimeout("W1"), "current workflow gets no timer")
	assert.True(t, s.HasTimeout("W2"))
	assert.False(t, s.HasTimeout("W4"), "negative delay never deactivates")
	assert.Len(t, s.WorkflowTimeouts, 1)
}

func TestActivateProjectWorkflowsOnlyCurrentByDefault(t *testing.T) {
	workflows := []Workflow{{ID: "W1"}, {ID: "W2"}}
	s := ActivateProjectWorkflows("P", workflows, "W2", DefaultConfig(), Overrides{}, State{}, noop, newClock())

	assert.Equal(t, []ActiveWorkflow{{"P", "W2"}}, s.ActiveWorkflows)
	assert.Empty(t, s.WorkflowTimeouts)
}

func TestProjectOverridesApply(t *testing.T) {
	workflows := []Workflow{{ID: "W1"}, {ID: "W2"}}
	prj := Overrides{ActivateWorkflowsOnProjectSwitch: boolPtr(true), WorkflowInactiveAfter: intPtr(2)}
	clk := newClock()

	s := ActivateProjectWorkflows("P", workflows, "W1", DefaultConfig(), prj, State{}, noop, clk)
	assert.True(t, s.IsActive("W2"))
	assert.True(t, s.HasTimeout("W2"))
}

func TestScheduleDeactivationForProjectWorkflows(t *testing.T) {
	clk := newClock()
	rec := &recorder{}
	workflows := []Workflow{
		{ID: "W1"},
		{ID: "W2", Settings: Overrides{WorkflowInactiveAfter: intPtr(0)}},
		{ID: "W3", Settings: Overrides{WorkflowInactiveAfter: intPtr(-1)}},
		{ID: "W4"},
	}

	s := State{}
	for _, id := range []string{"W1", "W2", "W3"} {
		s = ActivateWorkflow("P", id, s)
	}

	s = ScheduleDeactivationForProjectWorkflows("P", workflows, Config{WorkflowInactiveAfter: 5}, Overrides{}, s, rec.deactivate, clk)

	assert.True(t, s.HasTimeout("W1"))
	assert.False(t, s.IsActive("W2"), "zero delay releases immediately")
	assert.True(t, s.IsActive("W3"))
	assert.False(t, s.HasTimeout("W3"))
	assert.False(t, s.HasTimeout("W4"), "inactive workflows are skipped")

	clk.Advance(5 * time.Minute)
	rec.waitFor(t, "W1")
}

func TestReleaseAll(t *testing.T) {
	clk := newClock()
	rec := &recorder{}

	s := ActivateWorkflow("P", "W1", State{})
	s = StartDelayedDeactivation("W1", rec.deactivate, 1, s, clk)
	s = StartDelayedDeactivation("W2", rec.deactivate, 2, s, clk)

	timeouts := s.WorkflowTimeouts

	s = ReleaseAll(s)
	assert.Empty(t, s.WorkflowTimeouts)
	assert.True(t, s.IsActive("W1"))
	for id, timeout := range timeouts {
		assert.False(t, timeout.Stop(), id)
	}

	clk.Advance(time.Hour)
	assert.Never(t, func() bool { return len(rec.calls()) > 0 }, 20*time.Millisecond, time.Millisecond)

	empty := State{}
	assert.Nil(t, ReleaseAll(empty).WorkflowTimeouts)
}
