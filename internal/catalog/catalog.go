// Package catalog loads declarative YAML catalogues that bind the
// three engines together: condition definitions, state and transition
// definitions gated by condition ids, event handlers, and the initial
// state of each element.
package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/arx-os/svgx-behavior/internal/condition"
	"github.com/arx-os/svgx-behavior/internal/event"
	"github.com/arx-os/svgx-behavior/internal/state"
)

// Catalog is the parsed form of a catalogue file.
type Catalog struct {
	Conditions  []ConditionDef  `yaml:"conditions,omitempty"`
	States      []StateDef      `yaml:"states,omitempty"`
	Transitions []TransitionDef `yaml:"transitions,omitempty"`
	Handlers    []HandlerDef    `yaml:"handlers,omitempty"`
	Elements    []ElementDef    `yaml:"elements,omitempty"`
}

// ConditionDef declares one condition. Exactly one of the kind blocks
// must be present and must agree with Kind.
type ConditionDef struct {
	ID         string         `yaml:"id"`
	Kind       string         `yaml:"kind"`
	Expression string         `yaml:"expression,omitempty"`
	CacheTTL   string         `yaml:"cache_ttl,omitempty"`
	Threshold  *ThresholdDef  `yaml:"threshold,omitempty"`
	Time       *TimeDef       `yaml:"time,omitempty"`
	Spatial    *SpatialDef    `yaml:"spatial,omitempty"`
	Relational *RelationalDef `yaml:"relational,omitempty"`
	Complex    *ComplexDef    `yaml:"complex,omitempty"`
}

// ThresholdDef mirrors condition.ThresholdSpec.
type ThresholdDef struct {
	Variable   string  `yaml:"variable"`
	Operator   string  `yaml:"operator"`
	Value      float64 `yaml:"value"`
	Hysteresis float64 `yaml:"hysteresis,omitempty"`
}

// TimeDef mirrors condition.TimeSpec. Schedule keys are lowercase
// weekday names.
type TimeDef struct {
	Mode     string                 `yaml:"mode"`
	Start    string                 `yaml:"start,omitempty"`
	End      string                 `yaml:"end,omitempty"`
	Schedule map[string][]WindowDef `yaml:"schedule,omitempty"`
}

// WindowDef is a time-of-day window.
type WindowDef struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// SpatialDef mirrors condition.SpatialSpec.
type SpatialDef struct {
	Mode        string  `yaml:"mode"`
	MaxDistance float64 `yaml:"max_distance,omitempty"`
}

// RelationalDef mirrors condition.RelationalSpec.
type RelationalDef struct {
	Mode              string   `yaml:"mode"`
	TargetElement     string   `yaml:"target_element,omitempty"`
	RequiredStatus    string   `yaml:"required_status,omitempty"`
	ParentElement     string   `yaml:"parent_element,omitempty"`
	ConnectedElements []string `yaml:"connected_elements,omitempty"`
}

// ComplexDef mirrors condition.ComplexSpec.
type ComplexDef struct {
	Expression string         `yaml:"expression"`
	Variables  map[string]any `yaml:"variables,omitempty"`
}

// StateDef declares one catalogue state.
type StateDef struct {
	ID          string         `yaml:"id"`
	Type        string         `yaml:"type"`
	Name        string         `yaml:"name"`
	Description string         `yaml:"description,omitempty"`
	Properties  map[string]any `yaml:"properties,omitempty"`
	Priority    int            `yaml:"priority,omitempty"`
}

// TransitionDef declares one edge, optionally gated by condition ids.
type TransitionDef struct {
	From        string   `yaml:"from"`
	To          string   `yaml:"to"`
	Conditions  []string `yaml:"conditions,omitempty"`
	Priority    int      `yaml:"priority,omitempty"`
	Description string   `yaml:"description,omitempty"`
}

// HandlerDef declares a logging responder registered on the bus.
type HandlerDef struct {
	ID        string `yaml:"id"`
	EventType string `yaml:"event_type,omitempty"`
	ElementID string `yaml:"element_id,omitempty"`
	Priority  string `yaml:"priority,omitempty"`
}

// ElementDef seeds an element's initial state.
type ElementDef struct {
	ID      string `yaml:"id"`
	Initial string `yaml:"initial"`
}

// Load reads and parses a catalogue file. Unknown fields are rejected;
// validation problems are collected and returned joined so a single
// run reports every mistake.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var c Catalog
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	if errs := c.validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid catalog: %w", errors.Join(errs...))
	}
	return &c, nil
}

func (c *Catalog) validate() []error {
	var errs []error

	condIDs := make(map[string]bool)
	for i, def := range c.Conditions {
		if def.ID == "" {
			errs = append(errs, fmt.Errorf("conditions[%d]: id is required", i))
			continue
		}
		if condIDs[def.ID] {
			errs = append(errs, fmt.Errorf("condition %s: duplicate id", def.ID))
		}
		condIDs[def.ID] = true
		if _, err := def.spec(); err != nil {
			errs = append(errs, err)
		}
		if def.CacheTTL != "" {
			if _, err := time.ParseDuration(def.CacheTTL); err != nil {
				errs = append(errs, fmt.Errorf("condition %s: invalid cache_ttl: %v", def.ID, err))
			}
		}
	}

	stateIDs := make(map[string]bool)
	for i, def := range c.States {
		if def.ID == "" {
			errs = append(errs, fmt.Errorf("states[%d]: id is required", i))
			continue
		}
		if stateIDs[def.ID] {
			errs = append(errs, fmt.Errorf("state %s: duplicate id", def.ID))
		}
		stateIDs[def.ID] = true
		if def.Name == "" {
			errs = append(errs, fmt.Errorf("state %s: name is required", def.ID))
		}
		if _, err := parseStateType(def.Type); err != nil {
			errs = append(errs, fmt.Errorf("state %s: %v", def.ID, err))
		}
	}

	for i, def := range c.Transitions {
		if def.From == "" || def.To == "" {
			errs = append(errs, fmt.Errorf("transitions[%d]: from and to are required", i))
			continue
		}
		if !stateIDs[def.From] {
			errs = append(errs, fmt.Errorf("transition %s -> %s: unknown source state", def.From, def.To))
		}
		if !stateIDs[def.To] {
			errs = append(errs, fmt.Errorf("transition %s -> %s: unknown target state", def.From, def.To))
		}
		for _, id := range def.Conditions {
			if !condIDs[id] {
				errs = append(errs, fmt.Errorf("transition %s -> %s: unknown condition %s", def.From, def.To, id))
			}
		}
	}

	handlerIDs := make(map[string]bool)
	for i, def := range c.Handlers {
		if def.ID == "" {
			errs = append(errs, fmt.Errorf("handlers[%d]: id is required", i))
			continue
		}
		if handlerIDs[def.ID] {
			errs = append(errs, fmt.Errorf("handler %s: duplicate id", def.ID))
		}
		handlerIDs[def.ID] = true
		if def.EventType != "" && !event.Type(def.EventType).Valid() {
			errs = append(errs, fmt.Errorf("handler %s: unknown event type %q", def.ID, def.EventType))
		}
		if def.Priority != "" {
			if _, err := parsePriority(def.Priority); err != nil {
				errs = append(errs, fmt.Errorf("handler %s: %v", def.ID, err))
			}
		}
	}

	for i, def := range c.Elements {
		if def.ID == "" {
			errs = append(errs, fmt.Errorf("elements[%d]: id is required", i))
			continue
		}
		if !stateIDs[def.Initial] {
			errs = append(errs, fmt.Errorf("element %s: unknown initial state %q", def.ID, def.Initial))
		}
	}

	return errs
}

// spec builds the condition.Spec variant from the kind block.
func (d ConditionDef) spec() (condition.Spec, error) {
	blocks := 0
	for _, present := range []bool{d.Threshold != nil, d.Time != nil, d.Spatial != nil, d.Relational != nil, d.Complex != nil} {
		if present {
			blocks++
		}
	}
	if blocks != 1 {
		return nil, fmt.Errorf("condition %s: exactly one kind block is required", d.ID)
	}

	switch {
	case d.Threshold != nil:
		if d.Kind != "" && d.Kind != string(condition.KindThreshold) {
			return nil, fmt.Errorf("condition %s: kind %q does not match threshold block", d.ID, d.Kind)
		}
		op := condition.Operator(d.Threshold.Operator)
		if !op.Valid() {
			return nil, fmt.Errorf("condition %s: invalid operator %q", d.ID, d.Threshold.Operator)
		}
		return condition.ThresholdSpec{
			Variable:   d.Threshold.Variable,
			Operator:   op,
			Threshold:  d.Threshold.Value,
			Hysteresis: d.Threshold.Hysteresis,
		}, nil

	case d.Time != nil:
		if d.Kind != "" && d.Kind != string(condition.KindTime) {
			return nil, fmt.Errorf("condition %s: kind %q does not match time block", d.ID, d.Kind)
		}
		mode := condition.TimeMode(d.Time.Mode)
		if mode != condition.TimeModeCurrent && mode != condition.TimeModeSchedule {
			return nil, fmt.Errorf("condition %s: unsupported time mode %q", d.ID, d.Time.Mode)
		}
		spec := condition.TimeSpec{
			Mode:  mode,
			Start: d.Time.Start,
			End:   d.Time.End,
		}
		if len(d.Time.Schedule) > 0 {
			spec.Schedule = make(map[time.Weekday][]condition.Window, len(d.Time.Schedule))
			for day, windows := range d.Time.Schedule {
				wd, err := parseWeekday(day)
				if err != nil {
					return nil, fmt.Errorf("condition %s: %v", d.ID, err)
				}
				for _, w := range windows {
					spec.Schedule[wd] = append(spec.Schedule[wd], condition.Window{Start: w.Start, End: w.End})
				}
			}
		}
		return spec, nil

	case d.Spatial != nil:
		if d.Kind != "" && d.Kind != string(condition.KindSpatial) {
			return nil, fmt.Errorf("condition %s: kind %q does not match spatial block", d.ID, d.Kind)
		}
		return condition.SpatialSpec{
			Mode:        condition.SpatialMode(d.Spatial.Mode),
			MaxDistance: d.Spatial.MaxDistance,
		}, nil

	case d.Relational != nil:
		if d.Kind != "" && d.Kind != string(condition.KindRelational) {
			return nil, fmt.Errorf("condition %s: kind %q does not match relational block", d.ID, d.Kind)
		}
		return condition.RelationalSpec{
			Mode:              condition.RelationMode(d.Relational.Mode),
			TargetElement:     d.Relational.TargetElement,
			RequiredStatus:    d.Relational.RequiredStatus,
			ParentElement:     d.Relational.ParentElement,
			ConnectedElements: d.Relational.ConnectedElements,
		}, nil

	default:
		if d.Kind != "" && d.Kind != string(condition.KindComplex) {
			return nil, fmt.Errorf("condition %s: kind %q does not match complex block", d.ID, d.Kind)
		}
		if d.Complex.Expression == "" {
			return nil, fmt.Errorf("condition %s: complex expression is required", d.ID)
		}
		return condition.ComplexSpec{
			Expression: d.Complex.Expression,
			Variables:  d.Complex.Variables,
		}, nil
	}
}

func parseStateType(s string) (state.Type, error) {
	switch state.Type(s) {
	case state.TypeEquipment, state.TypeProcess, state.TypeSystem, state.TypeMaintenance, state.TypeSafety:
		return state.Type(s), nil
	}
	return "", fmt.Errorf("unknown state type %q", s)
}

func parsePriority(s string) (event.Priority, error) {
	switch s {
	case "critical":
		return event.PriorityCritical, nil
	case "high":
		return event.PriorityHigh, nil
	case "", "normal":
		return event.PriorityNormal, nil
	case "low":
		return event.PriorityLow, nil
	case "background":
		return event.PriorityBackground, nil
	}
	return 0, fmt.Errorf("unknown priority %q", s)
}

func parseWeekday(s string) (time.Weekday, error) {
	switch s {
	case "sunday":
		return time.Sunday, nil
	case "monday":
		return time.Monday, nil
	case "tuesday":
		return time.Tuesday, nil
	case "wednesday":
		return time.Wednesday, nil
	case "thursday":
		return time.Thursday, nil
	case "friday":
		return time.Friday, nil
	case "saturday":
		return time.Saturday, nil
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}
