package release

// WorkflowState identifies where a release batch is in the rc-to-release
// pipeline.
type WorkflowState string

const (
	// StateDevelopment is the resting state: no release in flight.
	StateDevelopment WorkflowState = "development"
	// StateStaged means changelog stanzas with bump specifications have
	// been written to the working tree.
	StateStaged WorkflowState = "staged"
	// StateRequested means the release request commit exists on the rc
	// branch.
	StateRequested WorkflowState = "requested"
	// StateVersionsApplied means new versions and resolved dependency
	// requirements have been written into project metadata files.
	StateVersionsApplied WorkflowState = "versions_applied"
	// StateReleased means the release merge commit exists on the release
	// branch.
	StateReleased WorkflowState = "released"
	// StateTagged means per-project release tags have been created.
	StateTagged WorkflowState = "tagged"
)

var workflowTransitions = map[WorkflowState][]WorkflowState{
	StateDevelopment:     {StateStaged},
	StateStaged:          {StateStaged, StateRequested, StateDevelopment},
	StateRequested:       {StateVersionsApplied, StateDevelopment},
	StateVersionsApplied: {StateVersionsApplied, StateReleased},
	StateReleased:        {StateTagged},
	StateTagged:          {},
}

// CanTransitionTo reports whether the pipeline permits moving to target.
func (s WorkflowState) CanTransitionTo(target WorkflowState) bool {
	for _, t := range workflowTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition exists.
func (s WorkflowState) IsTerminal() bool {
	return len(workflowTransitions[s]) == 0
}

func (s WorkflowState) String() string { return string(s) }
