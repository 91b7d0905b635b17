package condition

// evalRelational evaluates element relationship conditions. Missing
// context entries simply fail the relation; they are not errors, since
// an absent dependency map legitimately means "status unknown".
func evalRelational(s RelationalSpec, ctx map[string]any) bool {
	switch s.Mode {
	case RelationModeDependency:
		status := "unknown"
		switch deps := ctx["dependencies"].(type) {
		case map[string]string:
			if st, ok := deps[s.TargetElement]; ok {
				status = st
			}
		case map[string]any:
			if st, ok := deps[s.TargetElement].(string); ok {
				status = st
			}
		}
		required := s.RequiredStatus
		if required == "" {
			required = "active"
		}
		return status == required

	case RelationModeHierarchy:
		parent, _ := ctx["parent"].(string)
		return parent != "" && parent == s.ParentElement

	case RelationModeConnection:
		connected := asStringSet(ctx["connections"])
		for _, want := range s.ConnectedElements {
			if _, ok := connected[want]; !ok {
				return false
			}
		}
		// Vacuously true when no connections are required.
		return true
	}
	return false
}

func asStringSet(v any) map[string]struct{} {
	set := make(map[string]struct{})
	switch vals := v.(type) {
	case []string:
		for _, s := range vals {
			set[s] = struct{}{}
		}
	case []any:
		for _, e := range vals {
			if s, ok := e.(string); ok {
				set[s] = struct{}{}
			}
		}
	}
	return set
}
