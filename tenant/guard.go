package tenant

// CanUpdate reports whether a tenant's details may be edited.
func CanUpdate(s State) bool {
	return s != StateRemoving && s != StateRemoved
}

// CanSubmit reports whether a tenant may be submitted for activation.
func CanSubmit(s State) bool {
	return s == StateNew || s == StateInactive
}

// CanEnable reports whether a tenant may become active, either by
// completing a pending activation or by re-activating a disabled tenant.
func CanEnable(s State) bool {
	return s == StatePending || s == StateInactive
}

// CanDisable reports whether a tenant may be disabled.
func CanDisable(s State) bool {
	return s == StateActive
}

// CanCreateDefaults reports whether the default tenant roles may be created.
func CanCreateDefaults(s State) bool {
	return s == StateActive
}

// CanBeginRemoval reports whether a tenant may be scheduled for removal.
func CanBeginRemoval(s State) bool {
	return s == StateNew || s == StateInactive
}

// CanRemove reports whether a tenant scheduled for removal may be removed.
func CanRemove(s State) bool {
	return s == StateRemoving
}

// Transition names a lifecycle operation.
type Transition string

const (
	TransitionSubmit       Transition = "submit"
	TransitionEnable       Transition = "enable"
	TransitionDisable      Transition = "disable"
	TransitionBeginRemoval Transition = "begin-removal"
	TransitionRemove       Transition = "remove"
)

type rule struct {
	allowed func(State) bool
	target  State
}

var rules = map[Transition]rule{
	TransitionSubmit:       {CanSubmit, StatePending},
	TransitionEnable:       {CanEnable, StateActive},
	TransitionDisable:      {CanDisable, StateInactive},
	TransitionBeginRemoval: {CanBeginRemoval, StateRemoving},
	TransitionRemove:       {CanRemove, StateRemoved},
}

// Next returns the state reached by applying tr to s. ok is false when the
// transition is unknown or not allowed from s.
func Next(s State, tr Transition) (next State, ok bool) {
	r, known := rules[tr]
	if !known || !r.allowed(s) {
		return s, false
	}
	return r.target, true
}

// Transitions returns the transitions allowed from s.
func Transitions(s State) []Transition {
	var out []Transition
	for _, tr := range []Transition{TransitionSubmit, TransitionEnable, TransitionDisable, TransitionBeginRemoval, TransitionRemove} {
		if _, ok := Next(s, tr); ok {
			out = append(out, tr)
		}
	}
	return out
}
