// Package state implements a per-element state machine for building
// elements. A shared catalogue of states and transitions drives many
// elements at once; each element tracks its own active state and audit
// history, and transitions for independent elements run in parallel.
package state

import "time"

// Type groups states into the families the catalogue ships with.
type Type string

const (
	TypeEquipment   Type = "equipment"
	TypeProcess     Type = "process"
	TypeSystem      Type = "system"
	TypeMaintenance Type = "maintenance"
	TypeSafety      Type = "safety"
)

// Status describes the lifecycle of a state definition.
type Status string

const (
	StatusActive        Status = "active"
	StatusInactive      Status = "inactive"
	StatusTransitioning Status = "transitioning"
	StatusError         Status = "error"
	StatusLocked        Status = "locked"
)

// Action runs as part of a transition: state entry and exit actions and
// the transition's own actions. A non-nil error aborts the transition
// and leaves the element's state unchanged.
type Action func(elementID string, ctx map[string]any) error

// Predicate gates a transition. All predicates on a transition must
// return true for the transition to apply.
type Predicate func(ctx map[string]any) bool

// State is a catalogue entry. Entry and exit conditions gate
// transitions into and out of the state; entry and exit actions run
// during a transition before the new state is committed.
type State struct {
	ID              string
	Type            Type
	Name            string
	Description     string
	Status          Status
	Properties      map[string]any
	EntryActions    []Action
	ExitActions     []Action
	EntryConditions []Predicate
	ExitConditions  []Predicate
	Timeout         time.Duration
	Priority        int
	Metadata        map[string]any
}

// Transition is a directed edge in the catalogue. Transitions out of a
// state are tried in ascending Priority order.
type Transition struct {
	From        string
	To          string
	Predicates  []Predicate
	Actions     []Action
	Priority    int
	Timeout     time.Duration
	Description string
	Metadata    map[string]any
}

// Change is an audit record of one transition attempt, successful or
// not. Records are append-only per element.
type Change struct {
	ID        string
	ElementID string
	From      string
	To        string
	Timestamp time.Time
	Trigger   string
	UserID    string
	Context   map[string]any
	Success   bool
	Error     string
	Duration  time.Duration
}
