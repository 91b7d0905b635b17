package condition

import "fmt"

// evalThreshold compares the context variable against the configured
// threshold. A missing or non-numeric variable evaluates as 0.
//
// With hysteresis, the previously produced boolean widens the band in
// the direction that keeps the output stable: once true, the effective
// threshold moves so the value must retreat past the dead-band before
// the output flips back. The new boolean is stored by the caller.
//
// Called with the engine mutex held.
func (e *Engine) evalThreshold(id string, s ThresholdSpec, ctx map[string]any) (bool, error) {
	if !s.Operator.Valid() {
		return false, fmt.Errorf("threshold: invalid operator %q", s.Operator)
	}

	value := toFloat(ctx[s.Variable])
	threshold := s.Threshold

	if s.Hysteresis > 0 {
		if last, ok := e.hysteresis[id]; ok && last {
			switch s.Operator {
			case OpGreater, OpGreaterEqual:
				threshold -= s.Hysteresis
			case OpLess, OpLessEqual:
				threshold += s.Hysteresis
			}
		}
	}

	return compare(value, s.Operator, threshold), nil
}

func compare(value float64, op Operator, threshold float64) bool {
	switch op {
	case OpGreater:
		return value > threshold
	case OpLess:
		return value < threshold
	case OpGreaterEqual:
		return value >= threshold
	case OpLessEqual:
		return value <= threshold
	case OpEqual:
		return value == threshold
	case OpNotEqual:
		return value != threshold
	}
	return false
}
