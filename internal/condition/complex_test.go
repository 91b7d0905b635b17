package condition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func complexEngine(t *testing.T, expr string, vars map[string]any) *Engine {
	t.Helper()
	e := NewEngine()
	require.NoError(t, e.Add(&Condition{
		ID:   "expr",
		Spec: ComplexSpec{Expression: expr, Variables: vars},
	}))
	return e
}

func TestComplex_AndExpression(t *testing.T) {
	e := complexEngine(t, "temperature > 25 and humidity < 70", map[string]any{
		"temperature": 20.0,
		"humidity":    50.0,
	})

	assert.False(t, e.Evaluate("expr", nil).Value, "defaults fail first clause")

	ctx := map[string]any{"temperature": 28.0, "humidity": 50.0}
	assert.True(t, e.Evaluate("expr", ctx).Value)

	ctx = map[string]any{"temperature": 28.0, "humidity": 80.0}
	assert.False(t, e.Evaluate("expr", ctx).Value)
}

func TestComplex_OrExpression(t *testing.T) {
	e := complexEngine(t, "pressure >= 100 or alarm == true", map[string]any{
		"pressure": 0.0,
		"alarm":    false,
	})

	assert.False(t, e.Evaluate("expr", nil).Value)
	assert.True(t, e.Evaluate("expr", map[string]any{"pressure": 120.0, "alarm": false}).Value)
	assert.True(t, e.Evaluate("expr", map[string]any{"pressure": 0.0, "alarm": true}).Value)
}

func TestComplex_LongestVariableWins(t *testing.T) {
	// "power" must not be substituted inside "power_level".
	e := complexEngine(t, "power_level > 5", map[string]any{
		"power":       1.0,
		"power_level": 9.0,
	})
	assert.True(t, e.Evaluate("expr", nil).Value)
}

func TestComplex_EqualityComparesStrings(t *testing.T) {
	e := complexEngine(t, "status == running", map[string]any{"status": "running"})
	assert.True(t, e.Evaluate("expr", nil).Value)

	assert.False(t, e.Evaluate("expr", map[string]any{"status": "stopped"}).Value)
}

func TestComplex_UnparsableNumericClauseIsFalse(t *testing.T) {
	e := complexEngine(t, "status > 5", map[string]any{"status": "running"})
	r := e.Evaluate("expr", nil)
	require.True(t, r.Success)
	assert.False(t, r.Value)
}

func TestComplex_BareClauseTruthiness(t *testing.T) {
	e := complexEngine(t, "enabled", map[string]any{"enabled": true})
	assert.True(t, e.Evaluate("expr", nil).Value)
	assert.False(t, e.Evaluate("expr", map[string]any{"enabled": false}).Value)
}
