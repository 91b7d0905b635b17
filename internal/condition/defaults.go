package condition

// RegisterDefaults seeds the engine with the stock conditions the
// application ships for common building scenarios. Calling it twice
// returns ErrExists for the first duplicate.
func RegisterDefaults(e *Engine) error {
	defaults := []*Condition{
		{
			ID:         "temperature_threshold",
			Expression: "temperature > 30",
			Spec:       ThresholdSpec{Variable: "temperature", Operator: OpGreater, Threshold: 30},
			Priority:   1,
		},
		{
			ID:         "humidity_threshold",
			Expression: "humidity < 60",
			Spec:       ThresholdSpec{Variable: "humidity", Operator: OpLess, Threshold: 60},
			Priority:   1,
		},
		{
			ID:         "business_hours",
			Expression: "09:00 <= current_time <= 17:00",
			Spec:       TimeSpec{Mode: TimeModeCurrent, Start: "09:00", End: "17:00"},
			Priority:   2,
		},
		{
			ID:         "proximity_check",
			Expression: "distance_to_target < 5.0",
			Spec:       SpatialSpec{Mode: SpatialModeProximity, MaxDistance: 5.0},
			Priority:   1,
		},
		{
			ID:         "dependency_check",
			Expression: "parent_element.status == active",
			Spec:       RelationalSpec{Mode: RelationModeDependency, TargetElement: "parent_element", RequiredStatus: "active"},
			Priority:   3,
		},
		{
			ID:         "complex_condition",
			Expression: "temperature > 25 and humidity < 70",
			Spec: ComplexSpec{
				Expression: "temperature > 25 and humidity < 70",
				Variables:  map[string]any{"temperature": 0.0, "humidity": 0.0},
			},
			Priority: 1,
		},
	}

	for _, c := range defaults {
		c.CacheTTL = DefaultCacheTTL
		if err := e.Add(c); err != nil {
			return err
		}
	}
	return nil
}
