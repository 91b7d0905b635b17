package event

import "time"

// RegisterDefaults installs one type-scoped handler per event family.
// Each responder inspects the payload's sub-type and answers with a
// status map describing what it processed.
func RegisterDefaults(b *Bus) error {
	handlers := []*Handler{
		{ID: "default_user_interaction", Type: TypeUserInteraction, Priority: PriorityHigh, Action: handleUserInteraction},
		{ID: "default_system_event", Type: TypeSystem, Priority: PriorityNormal, Action: handleSystem},
		{ID: "default_physics_event", Type: TypePhysics, Priority: PriorityHigh, Action: handlePhysics},
		{ID: "default_environmental_event", Type: TypeEnvironmental, Priority: PriorityNormal, Action: handleEnvironmental},
		{ID: "default_operational_event", Type: TypeOperational, Priority: PriorityHigh, Action: handleOperational},
	}
	for _, h := range handlers {
		if err := b.RegisterHandler(h); err != nil {
			return err
		}
	}
	return nil
}

func payloadString(e Event, key string) string {
	s, _ := e.Payload[key].(string)
	return s
}

func payloadFloat(e Event, key string) float64 {
	switch v := e.Payload[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

func stamp(e Event) string {
	return e.Timestamp.Format(time.RFC3339)
}

func handleUserInteraction(e Event) (any, error) {
	switch kind := payloadString(e, "interaction_type"); kind {
	case "click", "hover":
		return map[string]any{
			"status":     kind + "_processed",
			"element_id": e.ElementID,
			"position":   e.Payload["position"],
			"timestamp":  stamp(e),
		}, nil
	case "drag":
		return map[string]any{
			"status":         "drag_processed",
			"element_id":     e.ElementID,
			"start_position": e.Payload["start_position"],
			"end_position":   e.Payload["end_position"],
			"timestamp":      stamp(e),
		}, nil
	case "keyboard":
		return map[string]any{
			"status":     "keyboard_processed",
			"element_id": e.ElementID,
			"key":        payloadString(e, "key"),
			"modifiers":  e.Payload["modifiers"],
			"timestamp":  stamp(e),
		}, nil
	default:
		return map[string]any{"status": "unknown_interaction", "interaction_type": kind}, nil
	}
}

func handleSystem(e Event) (any, error) {
	switch kind := payloadString(e, "system_event_type"); kind {
	case "timer":
		return map[string]any{
			"status":     "timer_processed",
			"element_id": e.ElementID,
			"timer_id":   payloadString(e, "timer_id"),
			"timestamp":  stamp(e),
		}, nil
	case "state_change":
		return map[string]any{
			"status":     "state_change_processed",
			"element_id": e.ElementID,
			"old_state":  payloadString(e, "old_state"),
			"new_state":  payloadString(e, "new_state"),
			"timestamp":  stamp(e),
		}, nil
	case "condition":
		return map[string]any{
			"status":     "condition_processed",
			"element_id": e.ElementID,
			"condition":  payloadString(e, "condition"),
			"result":     e.Payload["result"],
			"timestamp":  stamp(e),
		}, nil
	default:
		return map[string]any{"status": "unknown_system_event", "event_type": kind}, nil
	}
}

func handlePhysics(e Event) (any, error) {
	switch kind := payloadString(e, "physics_event_type"); kind {
	case "collision":
		return map[string]any{
			"status":            "collision_processed",
			"element_id":        e.ElementID,
			"collision_partner": payloadString(e, "collision_partner"),
			"collision_point":   e.Payload["collision_point"],
			"timestamp":         stamp(e),
		}, nil
	case "force":
		return map[string]any{
			"status":       "force_processed",
			"element_id":   e.ElementID,
			"force_vector": e.Payload["force_vector"],
			"magnitude":    payloadFloat(e, "magnitude"),
			"timestamp":    stamp(e),
		}, nil
	case "motion":
		return map[string]any{
			"status":       "motion_processed",
			"element_id":   e.ElementID,
			"velocity":     e.Payload["velocity"],
			"acceleration": e.Payload["acceleration"],
			"timestamp":    stamp(e),
		}, nil
	default:
		return map[string]any{"status": "unknown_physics_event", "event_type": kind}, nil
	}
}

func handleEnvironmental(e Event) (any, error) {
	switch kind := payloadString(e, "environmental_event_type"); kind {
	case "weather":
		return map[string]any{
			"status":            "weather_processed",
			"element_id":        e.ElementID,
			"weather_condition": payloadString(e, "weather_condition"),
			"temperature":       payloadFloat(e, "temperature"),
			"humidity":          payloadFloat(e, "humidity"),
			"timestamp":         stamp(e),
		}, nil
	case "temperature":
		return map[string]any{
			"status":      "temperature_processed",
			"element_id":  e.ElementID,
			"temperature": payloadFloat(e, "temperature"),
			"unit":        defaultString(payloadString(e, "unit"), "celsius"),
			"timestamp":   stamp(e),
		}, nil
	case "pressure":
		return map[string]any{
			"status":     "pressure_processed",
			"element_id": e.ElementID,
			"pressure":   payloadFloat(e, "pressure"),
			"unit":       defaultString(payloadString(e, "unit"), "pa"),
			"timestamp":  stamp(e),
		}, nil
	default:
		return map[string]any{"status": "unknown_environmental_event", "event_type": kind}, nil
	}
}

func handleOperational(e Event) (any, error) {
	switch kind := payloadString(e, "operational_event_type"); kind {
	case "start":
		return map[string]any{
			"status":         "start_processed",
			"element_id":     e.ElementID,
			"operation_type": payloadString(e, "operation_type"),
			"timestamp":      stamp(e),
		}, nil
	case "stop":
		return map[string]any{
			"status":         "stop_processed",
			"element_id":     e.ElementID,
			"operation_type": payloadString(e, "operation_type"),
			"duration":       payloadFloat(e, "duration"),
			"timestamp":      stamp(e),
		}, nil
	case "maintenance":
		return map[string]any{
			"status":            "maintenance_processed",
			"element_id":        e.ElementID,
			"maintenance_type":  payloadString(e, "maintenance_type"),
			"maintenance_level": payloadString(e, "maintenance_level"),
			"timestamp":         stamp(e),
		}, nil
	default:
		return map[string]any{"status": "unknown_operational_event", "event_type": kind}, nil
	}
}

func defaultString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
