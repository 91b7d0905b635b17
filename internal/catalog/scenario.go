package catalog

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/arx-os/svgx-behavior/internal/event"
)

// Scenario is an ordered script of events to emit and transitions to
// drive, used by the run command and integration tests.
type Scenario struct {
	Name        string           `yaml:"name"`
	Description string           `yaml:"description,omitempty"`
	Events      []EventStep      `yaml:"events,omitempty"`
	Transitions []TransitionStep `yaml:"transitions,omitempty"`
}

// EventStep describes one event to emit.
type EventStep struct {
	ID            string         `yaml:"id"`
	Type          string         `yaml:"type"`
	Element       string         `yaml:"element"`
	Priority      string         `yaml:"priority,omitempty"`
	Payload       map[string]any `yaml:"payload,omitempty"`
	CorrelationID string         `yaml:"correlation_id,omitempty"`
}

// TransitionStep drives one state transition.
type TransitionStep struct {
	Element string         `yaml:"element"`
	To      string         `yaml:"to"`
	Context map[string]any `yaml:"context,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file with strict field
// validation.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var s Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}
	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

func (s *Scenario) validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	for i, step := range s.Events {
		if step.ID == "" || step.Element == "" {
			return fmt.Errorf("events[%d]: id and element are required", i)
		}
		if !event.Type(step.Type).Valid() {
			return fmt.Errorf("events[%d]: unknown event type %q", i, step.Type)
		}
		if step.Priority != "" {
			if _, err := parsePriority(step.Priority); err != nil {
				return fmt.Errorf("events[%d]: %v", i, err)
			}
		}
	}
	for i, step := range s.Transitions {
		if step.Element == "" || step.To == "" {
			return fmt.Errorf("transitions[%d]: element and to are required", i)
		}
	}
	return nil
}

// Event converts a step into a bus event.
func (s EventStep) Event() (event.Event, error) {
	pri, err := parsePriority(s.Priority)
	if err != nil {
		return event.Event{}, err
	}
	return event.Event{
		ID:            s.ID,
		Type:          event.Type(s.Type),
		ElementID:     s.Element,
		Priority:      pri,
		Payload:       s.Payload,
		CorrelationID: s.CorrelationID,
	}, nil
}
