package condition

// toFloat coerces common numeric representations to float64. Anything
// else, including nil, evaluates as 0.
func toFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case float32:
		return float64(val)
	case int:
		return float64(val)
	case int32:
		return float64(val)
	case int64:
		return float64(val)
	case uint:
		return float64(val)
	case uint64:
		return float64(val)
	case bool:
		if val {
			return 1
		}
		return 0
	}
	return 0
}

// asVector coerces a context value to a Vector. Accepts Vector values
// directly or the map shape the boundary layers hand over.
func asVector(v any) (Vector, bool) {
	switch val := v.(type) {
	case Vector:
		return val, true
	case *Vector:
		if val == nil {
			return Vector{}, false
		}
		return *val, true
	case map[string]any:
		return Vector{X: toFloat(val["x"]), Y: toFloat(val["y"]), Z: toFloat(val["z"])}, true
	case map[string]float64:
		return Vector{X: val["x"], Y: val["y"], Z: val["z"]}, true
	}
	return Vector{}, false
}

// asBounds coerces a context value to Bounds. Accepts Bounds values
// directly or a flat map with min_x..max_z keys.
func asBounds(v any) (Bounds, bool) {
	switch val := v.(type) {
	case Bounds:
		return val, true
	case *Bounds:
		if val == nil {
			return Bounds{}, false
		}
		return *val, true
	case map[string]any:
		return Bounds{
			Min: Vector{X: toFloat(val["min_x"]), Y: toFloat(val["min_y"]), Z: toFloat(val["min_z"])},
			Max: Vector{X: toFloat(val["max_x"]), Y: toFloat(val["max_y"]), Z: toFloat(val["max_z"])},
		}, true
	case map[string]float64:
		return Bounds{
			Min: Vector{X: val["min_x"], Y: val["min_y"], Z: val["min_z"]},
			Max: Vector{X: val["max_x"], Y: val["max_y"], Z: val["max_z"]},
		}, true
	}
	return Bounds{}, false
}
