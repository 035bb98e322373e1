package model

// Plan is the ordered list of actions that converges the observed state
// onto the target, plus notes for the aspects already satisfied. Planning
// is pure: the same target and observation always yield the same plan, and
// a converged system yields an empty one.
type Plan struct {
	Actions []Action
	Notes   []string
}

// Empty reports whether the plan has no actions to execute.
func (p Plan) Empty() bool {
	return len(p.Actions) == 0
}

// NeedsConfirmation reports whether any action requires an explicit yes.
func (p Plan) NeedsConfirmation() bool {
	for _, action := range p.Actions {
		if action.Class == ClassNeedsConfirmation {
			return true
		}
	}
	return false
}

// Privileged reports whether any action needs the privilege lease.
func (p Plan) Privileged() bool {
	for _, action := range p.Actions {
		if action.Privileged {
			return true
		}
	}
	return false
}

// Decisions records the operator's answer for each needs-confirmation
// action, keyed by the action's index in Plan.Actions. Actions absent from
// the map were never asked (automatic class).
type Decisions map[int]bool
