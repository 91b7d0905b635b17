package catalog

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/arx-os/svgx-behavior/internal/condition"
	"github.com/arx-os/svgx-behavior/internal/event"
	"github.com/arx-os/svgx-behavior/internal/state"
)

// Apply wires a validated catalogue into the three engines: conditions
// into the engine, states and condition-gated transitions into the
// machine, handlers onto the bus, and each element's initial state.
//
// Transition gates are closures over the condition engine, so gated
// transitions see fresh evaluations (subject to the engine's own
// caching) every time they are tried.
func (c *Catalog) Apply(m *state.Machine, e *condition.Engine, b *event.Bus) error {
	for _, def := range c.Conditions {
		spec, err := def.spec()
		if err != nil {
			return err
		}
		cond := &condition.Condition{
			ID:         def.ID,
			Expression: def.Expression,
			Spec:       spec,
		}
		if def.CacheTTL != "" {
			ttl, err := time.ParseDuration(def.CacheTTL)
			if err != nil {
				return fmt.Errorf("condition %s: invalid cache_ttl: %w", def.ID, err)
			}
			cond.CacheTTL = ttl
		}
		if err := e.Add(cond); err != nil {
			return fmt.Errorf("apply condition %s: %w", def.ID, err)
		}
	}

	for _, def := range c.States {
		typ, err := parseStateType(def.Type)
		if err != nil {
			return fmt.Errorf("apply state %s: %w", def.ID, err)
		}
		err = m.AddState(&state.State{
			ID:          def.ID,
			Type:        typ,
			Name:        def.Name,
			Description: def.Description,
			Properties:  def.Properties,
			Priority:    def.Priority,
		})
		if err != nil {
			return fmt.Errorf("apply state %s: %w", def.ID, err)
		}
	}

	for _, def := range c.Transitions {
		opts := []state.TransitionOption{
			state.WithPriority(def.Priority),
			state.WithDescription(def.Description),
		}
		for _, condID := range def.Conditions {
			opts = append(opts, state.WithPredicates(gate(e, condID)))
		}
		if err := m.AddTransition(def.From, def.To, opts...); err != nil {
			return fmt.Errorf("apply transition %s -> %s: %w", def.From, def.To, err)
		}
	}

	for _, def := range c.Handlers {
		pri, err := parsePriority(def.Priority)
		if err != nil {
			return fmt.Errorf("apply handler %s: %w", def.ID, err)
		}
		h := &event.Handler{
			ID:        def.ID,
			Type:      event.Type(def.EventType),
			ElementID: def.ElementID,
			Priority:  pri,
			Action:    logResponder(def.ID),
		}
		if err := b.RegisterHandler(h); err != nil {
			return fmt.Errorf("apply handler %s: %w", def.ID, err)
		}
	}

	for _, def := range c.Elements {
		if err := m.SetCurrentState(def.ID, def.Initial); err != nil {
			return fmt.Errorf("apply element %s: %w", def.ID, err)
		}
	}

	return nil
}

// gate adapts a condition id into a transition predicate.
func gate(e *condition.Engine, condID string) state.Predicate {
	return func(ctx map[string]any) bool {
		return e.Evaluate(condID, ctx).Value
	}
}

// logResponder is the action for catalogue-declared handlers: it logs
// the event and answers with a status map.
func logResponder(handlerID string) func(event.Event) (any, error) {
	return func(ev event.Event) (any, error) {
		slog.Info("catalog handler fired",
			"handler", handlerID, "event", ev.ID, "type", string(ev.Type), "element", ev.ElementID)
		return map[string]any{
			"status":     "logged",
			"handler_id": handlerID,
			"event_id":   ev.ID,
			"element_id": ev.ElementID,
		}, nil
	}
}
