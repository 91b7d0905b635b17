package condition

import (
	"fmt"
	"math"
)

// evalSpatial evaluates geometric relations over context-supplied
// positions and bounds. Missing or malformed geometry is an error so
// the caller surfaces a failed Result rather than a silent false.
func evalSpatial(s SpatialSpec, ctx map[string]any) (bool, error) {
	switch s.Mode {
	case SpatialModeProximity:
		p1, ok := asVector(ctx["position1"])
		if !ok {
			return false, fmt.Errorf("spatial: context missing position1")
		}
		p2, ok := asVector(ctx["position2"])
		if !ok {
			return false, fmt.Errorf("spatial: context missing position2")
		}
		return distance(p1, p2) <= s.MaxDistance, nil

	case SpatialModeContainment:
		box, ok := asBounds(ctx["container_bounds"])
		if !ok {
			return false, fmt.Errorf("spatial: context missing container_bounds")
		}
		p, ok := asVector(ctx["element_position"])
		if !ok {
			return false, fmt.Errorf("spatial: context missing element_position")
		}
		return box.Contains(p), nil

	case SpatialModeIntersection:
		b1, ok := asBounds(ctx["bounds1"])
		if !ok {
			return false, fmt.Errorf("spatial: context missing bounds1")
		}
		b2, ok := asBounds(ctx["bounds2"])
		if !ok {
			return false, fmt.Errorf("spatial: context missing bounds2")
		}
		return b1.Intersects(b2), nil
	}
	return false, fmt.Errorf("spatial: unknown mode %q", s.Mode)
}

func distance(a, b Vector) float64 {
	dx, dy, dz := a.X-b.X, a.Y-b.Y, a.Z-b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
