package release

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"

	jerrors "github.com/jitrel/jitrel/internal/errors"
)

// WorkflowContext is the context passed to the state machine.
type WorkflowContext struct {
	Request   *ReleaseRequest
	TreeClean bool
	// DepsSatisfied is set once dependency resolution has run without
	// unsatisfied requirements.
	DepsSatisfied bool
	ForceMode     bool
}

// Event names for the state machine.
const (
	EventStage         statekit.EventType = "STAGE"
	EventConfirm       statekit.EventType = "CONFIRM"
	EventApplyVersions statekit.EventType = "APPLY_VERSIONS"
	EventCommit        statekit.EventType = "COMMIT"
	EventTag           statekit.EventType = "TAG"
	EventAbandon       statekit.EventType = "ABANDON"
)

// Guard names for the state machine.
const (
	GuardTreeClean     statekit.GuardType = "treeClean"
	GuardHasRequest    statekit.GuardType = "hasRequest"
	GuardDepsSatisfied statekit.GuardType = "depsSatisfied"
)

// State IDs for the state machine.
var (
	StateIDDevelopment     = statekit.StateID(StateDevelopment)
	StateIDStaged          = statekit.StateID(StateStaged)
	StateIDRequested       = statekit.StateID(StateRequested)
	StateIDVersionsApplied = statekit.StateID(StateVersionsApplied)
	StateIDReleased        = statekit.StateID(StateReleased)
	StateIDTagged          = statekit.StateID(StateTagged)
)

// WorkflowMachine wraps the Statekit state machine for the release
// pipeline.
type WorkflowMachine struct {
	interpreter *statekit.Interpreter[WorkflowContext]
}

// NewWorkflowMachine builds the pipeline machine starting in Development.
func NewWorkflowMachine() (*WorkflowMachine, error) {
	machine, err := statekit.NewMachine[WorkflowContext]("release-workflow").
		WithInitial(StateIDDevelopment).
		WithGuard(GuardTreeClean, guardTreeClean).
		WithGuard(GuardHasRequest, guardHasRequest).
		WithGuard(GuardDepsSatisfied, guardDepsSatisfied).
		State(StateIDDevelopment).
		On(EventStage).Target(StateIDStaged).
		Done().
		State(StateIDStaged).
		On(EventStage).Target(StateIDStaged). // restage, replacing stanzas
		On(EventConfirm).Target(StateIDRequested).Guard(GuardHasRequest).
		On(EventAbandon).Target(StateIDDevelopment).
		Done().
		State(StateIDRequested).
		On(EventApplyVersions).Target(StateIDVersionsApplied).Guard(GuardHasRequest).
		On(EventAbandon).Target(StateIDDevelopment).
		Done().
		State(StateIDVersionsApplied).
		On(EventApplyVersions).Target(StateIDVersionsApplied). // reapply converges on the same versions
		On(EventCommit).Target(StateIDReleased).Guard(GuardDepsSatisfied).
		Done().
		State(StateIDReleased).
		On(EventTag).Target(StateIDTagged).
		Done().
		State(StateIDTagged).
		Final().
		Done().
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build state machine: %w", err)
	}

	return &WorkflowMachine{interpreter: statekit.NewInterpreter(machine)}, nil
}

// Guard implementations. Guards take context by value.

func guardTreeClean(ctx WorkflowContext, _ statekit.Event) bool {
	return ctx.TreeClean || ctx.ForceMode
}

func guardHasRequest(ctx WorkflowContext, _ statekit.Event) bool {
	return ctx.Request != nil && !ctx.Request.IsEmpty()
}

func guardDepsSatisfied(ctx WorkflowContext, _ statekit.Event) bool {
	return ctx.DepsSatisfied || ctx.ForceMode
}

// Start starts the state machine interpreter.
func (m *WorkflowMachine) Start() {
	m.interpreter.Start()
}

// Send sends an event to the interpreter.
func (m *WorkflowMachine) Send(event statekit.EventType) error {
	if m.interpreter == nil {
		return jerrors.State("release.WorkflowMachine.Send", "interpreter not started")
	}
	m.interpreter.Send(statekit.Event{Type: event})
	return nil
}

// CurrentState returns the current pipeline state.
func (m *WorkflowMachine) CurrentState() WorkflowState {
	if m.interpreter == nil {
		return ""
	}
	return WorkflowState(m.interpreter.State().Value)
}

// IsDone reports whether the machine reached a final state.
func (m *WorkflowMachine) IsDone() bool {
	if m.interpreter == nil {
		return false
	}
	return m.interpreter.Done()
}

// ValidateTransition checks whether an event is legal from the given state
// without running the interpreter. Used when resuming a pipeline from
// repository evidence rather than in-process state.
func ValidateTransition(from WorkflowState, event statekit.EventType) error {
	const op = "release.ValidateTransition"

	var target WorkflowState
	switch event {
	case EventStage:
		target = StateStaged
	case EventConfirm:
		target = StateRequested
	case EventApplyVersions:
		target = StateVersionsApplied
	case EventCommit:
		target = StateReleased
	case EventTag:
		target = StateTagged
	case EventAbandon:
		target = StateDevelopment
	default:
		return jerrors.State(op, fmt.Sprintf("unknown event %s", event))
	}

	if !from.CanTransitionTo(target) {
		return jerrors.State(op,
			fmt.Sprintf("cannot transition from %s to %s via %s", from, target, event)).
			WithDetail("from", string(from)).
			WithDetail("event", string(event))
	}
	return nil
}
