package domain

// LifecycleState is the governance state of an asset.
type LifecycleState string

// Lifecycle states. REJECTED is terminal.
const (
	StatePending   LifecycleState = "PENDING"
	StateApproved  LifecycleState = "APPROVED"
	StateRejected  LifecycleState = "REJECTED"
	StatePublished LifecycleState = "PUBLISHED"
)

// Action names a lifecycle command.
type Action string

// Lifecycle actions.
const (
	ActionApprove        Action = "approve"
	ActionReject         Action = "reject"
	ActionPublish        Action = "publish"
	ActionUpdateMetadata Action = "update-metadata"
)

// transitions lists, per action, the states it may start from.
var transitions = map[Action][]LifecycleState{
	ActionApprove:        {StatePending},
	ActionReject:         {StatePending},
	ActionPublish:        {StateApproved},
	ActionUpdateMetadata: {StatePending, StateApproved, StateRejected, StatePublished},
}

// CheckTransition returns a ConflictError when action is not allowed from state.
// Re-approval of a rejected asset is not allowed.
func CheckTransition(state LifecycleState, action Action) error {
	for _, from := range transitions[action] {
		if from == state {
			return nil
		}
	}
	return ErrConflict("cannot %s an asset in state %s", action, state)
}
