package condition

import (
	"fmt"
	"time"
)

// evalTime evaluates a temporal condition. The evaluation instant comes
// from context["current_time"] when it carries a time.Time, otherwise
// from the engine clock.
func (e *Engine) evalTime(s TimeSpec, ctx map[string]any) (bool, error) {
	now := e.now()
	if t, ok := ctx["current_time"].(time.Time); ok {
		now = t
	}

	switch s.Mode {
	case TimeModeCurrent:
		start, err := parseClock(s.Start, "00:00")
		if err != nil {
			return false, err
		}
		end, err := parseClock(s.End, "23:59")
		if err != nil {
			return false, err
		}
		m := minuteOfDay(now)
		return start <= m && m <= end, nil

	case TimeModeDuration:
		if s.At.IsZero() {
			return false, nil
		}
		end := s.At.Add(s.Duration)
		return !now.Before(s.At) && !now.After(end), nil

	case TimeModeSchedule:
		windows, ok := s.Schedule[now.Weekday()]
		if !ok {
			return false, nil
		}
		m := minuteOfDay(now)
		for _, w := range windows {
			start, err := parseClock(w.Start, "00:00")
			if err != nil {
				return false, err
			}
			end, err := parseClock(w.End, "23:59")
			if err != nil {
				return false, err
			}
			if start <= m && m <= end {
				return true, nil
			}
		}
		return false, nil
	}
	return false, fmt.Errorf("time: unknown mode %q", s.Mode)
}

// parseClock parses an "HH:MM" time of day into minutes since
// midnight, falling back to def when the value is empty.
func parseClock(v, def string) (int, error) {
	if v == "" {
		v = def
	}
	t, err := time.Parse("15:04", v)
	if err != nil {
		return 0, fmt.Errorf("time: invalid clock value %q: %w", v, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func minuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}
