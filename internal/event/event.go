// Package event implements the reactive event bus: prioritized event
// intake, a blocking dispatch loop, and handler registries scoped by
// element, event type, or globally. Events are processed strictly by
// priority tier; handlers for one event run concurrently through a
// bounded pool, and a failing handler never disturbs its siblings or
// the loop.
package event

import "time"

// Type classifies an event by its origin.
type Type string

const (
	TypeUserInteraction Type = "user_interaction"
	TypeSystem          Type = "system_event"
	TypePhysics         Type = "physics_event"
	TypeEnvironmental   Type = "environmental_event"
	TypeOperational     Type = "operational_event"
)

// Valid reports whether t is a known event type.
func (t Type) Valid() bool {
	switch t {
	case TypeUserInteraction, TypeSystem, TypePhysics, TypeEnvironmental, TypeOperational:
		return true
	}
	return false
}

// Priority orders event processing. Lower values drain first.
type Priority int

const (
	PriorityCritical   Priority = 0
	PriorityHigh       Priority = 1
	PriorityNormal     Priority = 2
	PriorityLow        Priority = 3
	PriorityBackground Priority = 4

	numPriorities = 5
)

// Valid reports whether p is within the defined tier range.
func (p Priority) Valid() bool {
	return p >= PriorityCritical && p <= PriorityBackground
}

func (p Priority) String() string {
	switch p {
	case PriorityCritical:
		return "critical"
	case PriorityHigh:
		return "high"
	case PriorityNormal:
		return "normal"
	case PriorityLow:
		return "low"
	case PriorityBackground:
		return "background"
	}
	return "unknown"
}

// Event is one occurrence flowing through the bus. Treated as
// immutable once emitted.
type Event struct {
	ID            string
	Type          Type
	ElementID     string
	Timestamp     time.Time
	Priority      Priority
	Payload       map[string]any
	Source        string
	CorrelationID string
	SessionID     string
	UserID        string
	Metadata      map[string]any
}

// Handler reacts to events. ElementID scopes it to one element,
// otherwise Type scopes it to one event type, otherwise it is global.
// The zero value of Disabled means the handler runs.
type Handler struct {
	ID         string
	Type       Type // empty matches any type
	ElementID  string
	Action     func(Event) (any, error)
	Condition  func(Event) bool // optional gate
	Priority   Priority
	Disabled   bool
	Timeout    time.Duration // zero uses the bus default
	RetryCount int
	Metadata   map[string]any
}

// Result records one handler's outcome for one event. Append-only.
type Result struct {
	EventID   string
	HandlerID string
	Success   bool
	Duration  time.Duration
	Value     any
	Err       string
	Timestamp time.Time
}
