// Package condition implements the declarative condition engine: a
// catalogue of reusable boolean predicates over context maps, with
// TTL-based result caching and per-condition hysteresis memory.
//
// Conditions gate state transitions and event handlers. Callers never
// see an error from evaluation: unknown ids, malformed context, and
// panics inside user predicates all surface as failed Results.
package condition

import "time"

// Kind identifies the evaluation strategy of a condition.
type Kind string

const (
	KindThreshold  Kind = "threshold"
	KindTime       Kind = "time"
	KindSpatial    Kind = "spatial"
	KindRelational Kind = "relational"
	KindComplex    Kind = "complex"
	// KindExternal wraps an application-supplied predicate closure.
	KindExternal Kind = "external"
)

// Predicate is the callback contract for external conditions.
type Predicate func(ctx map[string]any) bool

// Condition is a catalogue entry. The Spec field carries the typed
// parameters; Expression is human-readable documentation of intent.
type Condition struct {
	ID         string
	Kind       Kind
	Expression string
	Spec       Spec
	Priority   int
	Disabled   bool
	Timeout    time.Duration
	CacheTTL   time.Duration
	Metadata   map[string]any
}

// Result is the outcome of one evaluation.
//
// Success reports whether evaluation completed; Value is the boolean
// the condition produced. A failed evaluation always has Value false
// and a non-empty Err.
type Result struct {
	ConditionID string
	Success     bool
	Value       bool
	Duration    time.Duration
	CacheHit    bool
	Err         string
	Timestamp   time.Time
}

// Vector is a 3-D point used by spatial conditions.
type Vector struct {
	X, Y, Z float64
}

// Bounds is an axis-aligned box used by containment and intersection
// checks.
type Bounds struct {
	Min, Max Vector
}

// Contains reports whether p lies inside the box, boundaries included.
func (b Bounds) Contains(p Vector) bool {
	return b.Min.X <= p.X && p.X <= b.Max.X &&
		b.Min.Y <= p.Y && p.Y <= b.Max.Y &&
		b.Min.Z <= p.Z && p.Z <= b.Max.Z
}

// Intersects reports whether two boxes overlap on every axis.
func (b Bounds) Intersects(o Bounds) bool {
	return b.Min.X <= o.Max.X && b.Max.X >= o.Min.X &&
		b.Min.Y <= o.Max.Y && b.Max.Y >= o.Min.Y &&
		b.Min.Z <= o.Max.Z && b.Max.Z >= o.Min.Z
}
