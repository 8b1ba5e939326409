package tenant

import (
	"fmt"
	"strings"
)

// State is the lifecycle state of a tenant.
//
//	New -> Pending -> Active <-> Inactive
//	New | Inactive -> Removing -> Removed
//
// Removed is terminal.
type State int

const (
	StateNew      State = 1
	StatePending  State = 2
	StateActive   State = 3
	StateInactive State = 4
	StateRemoving State = 5
	StateRemoved  State = 6
)

var stateNames = map[State]string{
	StateNew:      "new",
	StatePending:  "pending",
	StateActive:   "active",
	StateInactive: "inactive",
	StateRemoving: "removing",
	StateRemoved:  "removed",
}

// String returns the lowercase name of the state.
func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Valid reports whether s is a known state.
func (s State) Valid() bool {
	_, ok := stateNames[s]
	return ok
}

// ParseState parses a state name, case-insensitively.
func ParseState(name string) (State, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for s, n := range stateNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("tenant: unknown state %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("tenant: invalid state %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(data []byte) error {
	v, err := ParseState(string(data))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
