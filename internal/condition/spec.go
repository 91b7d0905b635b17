package condition

import "time"

// Spec is the closed set of condition parameter variants. The sealed
// kind() method keeps dispatch exhaustive: the engine type-switches
// over exactly these implementations, and application code plugs in
// arbitrary behavior through ExternalSpec rather than new variants.
type Spec interface {
	kind() Kind
}

// Operator is a comparison operator for threshold and complex clauses.
type Operator string

const (
	OpGreater      Operator = ">"
	OpLess         Operator = "<"
	OpGreaterEqual Operator = ">="
	OpLessEqual    Operator = "<="
	OpEqual        Operator = "=="
	OpNotEqual     Operator = "!="
)

// Valid reports whether the operator is one of the supported six.
func (o Operator) Valid() bool {
	switch o {
	case OpGreater, OpLess, OpGreaterEqual, OpLessEqual, OpEqual, OpNotEqual:
		return true
	}
	return false
}

// ThresholdSpec compares a numeric context variable against a fixed
// threshold. A missing variable evaluates as 0.
//
// With Hysteresis > 0 the condition is stateful per condition id: the
// previously produced boolean shifts the effective threshold to form a
// dead-band, so the output cannot flap while the value hovers near the
// boundary. Hysteresis conditions bypass the context cache entirely.
type ThresholdSpec struct {
	Variable   string
	Operator   Operator
	Threshold  float64
	Hysteresis float64
}

func (ThresholdSpec) kind() Kind { return KindThreshold }

// TimeMode selects the temporal check a TimeSpec performs.
type TimeMode string

const (
	// TimeModeCurrent checks the wall-clock time of day against [Start, End].
	TimeModeCurrent TimeMode = "current"
	// TimeModeDuration checks that now falls in [At, At+Duration].
	TimeModeDuration TimeMode = "duration"
	// TimeModeSchedule checks a per-weekday list of time-of-day windows.
	TimeModeSchedule TimeMode = "schedule"
)

// Window is a time-of-day range in "HH:MM" form, boundaries included.
type Window struct {
	Start string
	End   string
}

// TimeSpec evaluates temporal conditions. The evaluation instant is
// taken from the context key "current_time" when present (a time.Time),
// otherwise from the engine clock.
type TimeSpec struct {
	Mode     TimeMode
	Start    string // "HH:MM", current mode
	End      string // "HH:MM", current mode
	At       time.Time
	Duration time.Duration
	Schedule map[time.Weekday][]Window
}

func (TimeSpec) kind() Kind { return KindTime }

// SpatialMode selects the geometric check a SpatialSpec performs.
type SpatialMode string

const (
	SpatialModeProximity    SpatialMode = "proximity"
	SpatialModeContainment  SpatialMode = "containment"
	SpatialModeIntersection SpatialMode = "intersection"
)

// SpatialSpec evaluates geometric relations between context-supplied
// positions and bounds. Context keys follow the boundary contract of
// the surrounding application:
//
//	proximity:    "position1", "position2" (Vector), distance <= MaxDistance
//	containment:  "container_bounds" (Bounds), "element_position" (Vector)
//	intersection: "bounds1", "bounds2" (Bounds)
//
// Vectors and bounds may also arrive as map[string]any with x/y/z or
// min_x..max_z keys, the shape the HTTP layer hands over.
type SpatialSpec struct {
	Mode        SpatialMode
	MaxDistance float64
}

func (SpatialSpec) kind() Kind { return KindSpatial }

// RelationMode selects the relationship check a RelationalSpec performs.
type RelationMode string

const (
	RelationModeDependency RelationMode = "dependency"
	RelationModeHierarchy  RelationMode = "hierarchy"
	RelationModeConnection RelationMode = "connection"
)

// RelationalSpec evaluates relationships between tracked elements.
//
//	dependency: context["dependencies"] maps element id -> status; the
//	            TargetElement's status must equal RequiredStatus.
//	hierarchy:  context["parent"] must equal ParentElement.
//	connection: every id in ConnectedElements must appear in
//	            context["connections"].
type RelationalSpec struct {
	Mode              RelationMode
	TargetElement     string
	RequiredStatus    string
	ParentElement     string
	ConnectedElements []string
}

func (RelationalSpec) kind() Kind { return KindRelational }

// ComplexSpec evaluates a boolean expression over named variables.
//
// Variables declares defaults; context values with the same names
// override them. The expression is a flat left-to-right scan split on
// " and " / " or " over primitive comparisons. There is no operator
// precedence and no parenthesis grouping.
type ComplexSpec struct {
	Expression string
	Variables  map[string]any
}

func (ComplexSpec) kind() Kind { return KindComplex }

// ExternalSpec wraps an application-supplied predicate. The engine
// still provides caching, history, and panic isolation around it.
type ExternalSpec struct {
	Fn Predicate
}

func (ExternalSpec) kind() Kind { return KindExternal }
