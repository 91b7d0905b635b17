package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arx-os/svgx-behavior/internal/ident"
)

// drain emits nothing further, closes the queue, and runs the loop to
// completion.
func drain(t *testing.T, b *Bus) {
	t.Helper()
	b.Stop()
	require.NoError(t, b.Run(context.Background()))
}

func testEvent(id string, typ Type, pri Priority) Event {
	return Event{ID: id, Type: typ, ElementID: "elem-1", Priority: pri}
}

func TestEmit_Validation(t *testing.T) {
	b := NewBus()

	cases := []struct {
		name string
		e    Event
		code ValidationCode
	}{
		{"missing id", Event{Type: TypeSystem, ElementID: "x"}, ErrCodeMissingID},
		{"missing element", Event{ID: "e1", Type: TypeSystem}, ErrCodeMissingElement},
		{"bad type", Event{ID: "e1", ElementID: "x", Type: "bogus"}, ErrCodeInvalidType},
		{"bad priority", Event{ID: "e1", ElementID: "x", Type: TypeSystem, Priority: 9}, ErrCodeInvalidPriority},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := b.Emit(tc.e)
			require.Error(t, err)
			require.True(t, IsValidation(err))
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tc.code, ve.Code)
		})
	}

	assert.Empty(t, b.History(0), "rejected events never reach history")
}

func TestEmit_StampsTimestampAndRecordsHistory(t *testing.T) {
	b := NewBus()

	id, err := b.Emit(testEvent("e1", TypeSystem, PriorityNormal))
	require.NoError(t, err)
	assert.Equal(t, "e1", id)

	h := b.History(0)
	require.Len(t, h, 1)
	assert.False(t, h[0].Timestamp.IsZero())

	processing := b.Stats()["processing"].(map[string]any)
	assert.Equal(t, int64(1), processing["total_events"])
}

func TestEmit_AfterStopFails(t *testing.T) {
	b := NewBus()
	b.Stop()
	_, err := b.Emit(testEvent("e1", TypeSystem, PriorityNormal))
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestRegisterHandler(t *testing.T) {
	b := NewBus()
	noop := func(Event) (any, error) { return nil, nil }

	require.NoError(t, b.RegisterHandler(&Handler{ID: "h1", Type: TypeSystem, Action: noop}))
	assert.ErrorIs(t, b.RegisterHandler(&Handler{ID: "h1", Action: noop}), ErrHandlerExists)
	assert.Error(t, b.RegisterHandler(&Handler{ID: "", Action: noop}))
	assert.Error(t, b.RegisterHandler(&Handler{ID: "h2"}), "action is required")

	require.NoError(t, b.UnregisterHandler("h1"))
	assert.ErrorIs(t, b.UnregisterHandler("h1"), ErrHandlerNotFound)
}

func TestRun_PriorityOrderAcrossTiers(t *testing.T) {
	b := NewBus()
	var mu sync.Mutex
	var order []string
	require.NoError(t, b.RegisterHandler(&Handler{
		ID: "collector",
		Action: func(e Event) (any, error) {
			mu.Lock()
			order = append(order, e.ID)
			mu.Unlock()
			return nil, nil
		},
	}))

	_, err := b.Emit(testEvent("bg", TypeSystem, PriorityBackground))
	require.NoError(t, err)
	_, err = b.Emit(testEvent("norm-1", TypeSystem, PriorityNormal))
	require.NoError(t, err)
	_, err = b.Emit(testEvent("crit", TypeSystem, PriorityCritical))
	require.NoError(t, err)
	_, err = b.Emit(testEvent("norm-2", TypeSystem, PriorityNormal))
	require.NoError(t, err)

	drain(t, b)

	assert.Equal(t, []string{"crit", "norm-1", "norm-2", "bg"}, order)
}

func TestRun_NoHandlersNoProcessingStats(t *testing.T) {
	b := NewBus()
	_, err := b.Emit(testEvent("e1", TypeSystem, PriorityNormal))
	require.NoError(t, err)
	_, err = b.Emit(testEvent("e2", TypeSystem, PriorityNormal))
	require.NoError(t, err)

	drain(t, b)

	processing := b.Stats()["processing"].(map[string]any)
	assert.Equal(t, int64(2), processing["total_events"])
	assert.Equal(t, int64(0), processing["processed_events"])
	assert.Len(t, b.History(0), 2)
}

func TestRun_AllHandlersFilteredCountsFailed(t *testing.T) {
	b := NewBus()
	require.NoError(t, b.RegisterHandler(&Handler{
		ID:        "gated",
		Type:      TypeSystem,
		Condition: func(Event) bool { return false },
		Action:    func(Event) (any, error) { return nil, nil },
	}))

	_, err := b.Emit(testEvent("e1", TypeSystem, PriorityNormal))
	require.NoError(t, err)
	drain(t, b)

	processing := b.Stats()["processing"].(map[string]any)
	assert.Equal(t, int64(1), processing["processed_events"])
	assert.Equal(t, int64(1), processing["failed_events"])
	assert.Empty(t, b.Results(0))
}

func TestRun_DisabledHandlerSkipped(t *testing.T) {
	b := NewBus()
	called := false
	require.NoError(t, b.RegisterHandler(&Handler{
		ID:       "off",
		Type:     TypeSystem,
		Disabled: true,
		Action: func(Event) (any, error) {
			called = true
			return nil, nil
		},
	}))

	_, err := b.Emit(testEvent("e1", TypeSystem, PriorityNormal))
	require.NoError(t, err)
	drain(t, b)

	assert.False(t, called)
}

func TestRun_HandlerScopes(t *testing.T) {
	b := NewBus()
	var mu sync.Mutex
	seen := map[string]int{}
	mark := func(id string) func(Event) (any, error) {
		return func(Event) (any, error) {
			mu.Lock()
			seen[id]++
			mu.Unlock()
			return nil, nil
		}
	}

	require.NoError(t, b.RegisterHandler(&Handler{ID: "by-element", ElementID: "elem-1", Action: mark("by-element")}))
	require.NoError(t, b.RegisterHandler(&Handler{ID: "by-type", Type: TypeSystem, Action: mark("by-type")}))
	require.NoError(t, b.RegisterHandler(&Handler{ID: "global", Action: mark("global")}))

	_, err := b.Emit(testEvent("e1", TypeSystem, PriorityNormal))
	require.NoError(t, err)
	_, err = b.Emit(Event{ID: "e2", Type: TypePhysics, ElementID: "other", Priority: PriorityNormal})
	require.NoError(t, err)
	drain(t, b)

	assert.Equal(t, 1, seen["by-element"], "element handler only for its element")
	assert.Equal(t, 1, seen["by-type"], "type handler only for its type")
	assert.Equal(t, 2, seen["global"], "global handler for every event")
}

func TestRun_HandlerErrorIsolated(t *testing.T) {
	b := NewBus()
	require.NoError(t, b.RegisterHandler(&Handler{
		ID:     "bad",
		Type:   TypeSystem,
		Action: func(Event) (any, error) { return nil, errors.New("boom") },
	}))
	require.NoError(t, b.RegisterHandler(&Handler{
		ID:     "good",
		Type:   TypeSystem,
		Action: func(Event) (any, error) { return "ok", nil },
	}))

	_, err := b.Emit(testEvent("e1", TypeSystem, PriorityNormal))
	require.NoError(t, err)
	drain(t, b)

	results := b.Results(0)
	require.Len(t, results, 2)
	byHandler := map[string]Result{}
	for _, r := range results {
		byHandler[r.HandlerID] = r
	}
	assert.False(t, byHandler["bad"].Success)
	assert.Equal(t, "boom", byHandler["bad"].Err)
	assert.True(t, byHandler["good"].Success)
	assert.Equal(t, "ok", byHandler["good"].Value)
}

func TestRun_HandlerPanicIsolated(t *testing.T) {
	b := NewBus()
	require.NoError(t, b.RegisterHandler(&Handler{
		ID:     "panicky",
		Type:   TypeSystem,
		Action: func(Event) (any, error) { panic("kaboom") },
	}))
	require.NoError(t, b.RegisterHandler(&Handler{
		ID:     "steady",
		Type:   TypeSystem,
		Action: func(Event) (any, error) { return "fine", nil },
	}))

	_, err := b.Emit(testEvent("e1", TypeSystem, PriorityNormal))
	require.NoError(t, err)
	drain(t, b)

	results := b.Results(0)
	require.Len(t, results, 2)
	for _, r := range results {
		if r.HandlerID == "panicky" {
			assert.False(t, r.Success)
			assert.Contains(t, r.Err, "panicked")
		} else {
			assert.True(t, r.Success)
		}
	}
}

func TestRun_HandlerTimeout(t *testing.T) {
	b := NewBus()
	require.NoError(t, b.RegisterHandler(&Handler{
		ID:      "slow",
		Type:    TypeSystem,
		Timeout: 20 * time.Millisecond,
		Action: func(Event) (any, error) {
			time.Sleep(500 * time.Millisecond)
			return nil, nil
		},
	}))

	_, err := b.Emit(testEvent("e1", TypeSystem, PriorityNormal))
	require.NoError(t, err)
	drain(t, b)

	results := b.Results(0)
	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Contains(t, results[0].Err, "timeout")
}

func TestRun_RetriesUntilSuccess(t *testing.T) {
	b := NewBus()
	var mu sync.Mutex
	calls := 0
	require.NoError(t, b.RegisterHandler(&Handler{
		ID:         "flaky",
		Type:       TypeSystem,
		RetryCount: 2,
		Action: func(Event) (any, error) {
			mu.Lock()
			defer mu.Unlock()
			calls++
			if calls < 3 {
				return nil, errors.New("transient")
			}
			return "recovered", nil
		},
	}))

	_, err := b.Emit(testEvent("e1", TypeSystem, PriorityNormal))
	require.NoError(t, err)
	drain(t, b)

	assert.Equal(t, 3, calls)
	results := b.Results(0)
	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
	assert.Equal(t, "recovered", results[0].Value)
}

func TestRun_ResultCacheSkipsReexecution(t *testing.T) {
	b := NewBus()
	var mu sync.Mutex
	calls := 0
	require.NoError(t, b.RegisterHandler(&Handler{
		ID:   "cached",
		Type: TypeSystem,
		Action: func(Event) (any, error) {
			mu.Lock()
			calls++
			mu.Unlock()
			return "computed", nil
		},
	}))

	payload := map[string]any{"reading": 42.0}
	_, err := b.Emit(Event{ID: "e1", Type: TypeSystem, ElementID: "x", Priority: PriorityNormal, Payload: payload})
	require.NoError(t, err)
	_, err = b.Emit(Event{ID: "e2", Type: TypeSystem, ElementID: "x", Priority: PriorityNormal, Payload: payload})
	require.NoError(t, err)
	drain(t, b)

	assert.Equal(t, 1, calls, "identical payload served from cache")
	results := b.Results(0)
	require.Len(t, results, 2)
	assert.Equal(t, "computed", results[1].Value)

	b.ClearCache()
	cache := b.Stats()["cache"].(map[string]any)
	assert.Equal(t, 0, cache["size"])
}

func TestRun_CorrelationGroups(t *testing.T) {
	b := NewBus()
	require.NoError(t, b.RegisterHandler(&Handler{
		ID:     "any",
		Action: func(Event) (any, error) { return nil, nil },
	}))

	for _, id := range []string{"e1", "e2"} {
		e := testEvent(id, TypeSystem, PriorityNormal)
		e.CorrelationID = "batch-7"
		_, err := b.Emit(e)
		require.NoError(t, err)
	}
	drain(t, b)

	assert.Equal(t, []string{"e1", "e2"}, b.Correlated("batch-7"))
	assert.Empty(t, b.Correlated("unknown"))
}

func TestRun_DoubleRunReturnsNil(t *testing.T) {
	b := NewBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	// Wait for the first loop to own the running flag.
	require.Eventually(t, func() bool { return b.running.Load() }, time.Second, time.Millisecond)

	assert.NoError(t, b.Run(ctx), "second loop declines without error")

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestRun_ContextCancelClosesQueue(t *testing.T) {
	b := NewBus()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, b.Run(ctx), context.Canceled)
	_, err := b.Emit(testEvent("e1", TypeSystem, PriorityNormal))
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestNewEventID(t *testing.T) {
	b := NewBus(WithGenerator(ident.NewFixedGenerator("evt-1", "evt-2")))
	assert.Equal(t, "evt-1", b.NewEventID())
	assert.Equal(t, "evt-2", b.NewEventID())
}

func TestStats_Shape(t *testing.T) {
	b := NewBus()
	require.NoError(t, RegisterDefaults(b))
	_, err := b.Emit(testEvent("e1", TypeSystem, PriorityNormal))
	require.NoError(t, err)

	stats := b.Stats()
	handlers := stats["handlers"].(map[string]any)
	assert.Equal(t, 5, handlers["total"])
	assert.Equal(t, 5, handlers["type"])
	assert.Equal(t, 0, handlers["global"])

	queue := stats["queue"].(map[string]any)
	assert.Equal(t, 1, queue["total_queued"])
	byTier := queue["by_priority"].(map[string]int)
	assert.Equal(t, 1, byTier["normal"])

	drain(t, b)

	b.ResetStats()
	processing := b.Stats()["processing"].(map[string]any)
	assert.Equal(t, int64(0), processing["total_events"])
}

func TestDefaults_UserInteractionClick(t *testing.T) {
	b := NewBus()
	require.NoError(t, RegisterDefaults(b))

	e := Event{
		ID: "e1", Type: TypeUserInteraction, ElementID: "door-3",
		Priority: PriorityHigh,
		Payload:  map[string]any{"interaction_type": "click", "position": map[string]any{"x": 1.0, "y": 2.0}},
	}
	_, err := b.Emit(e)
	require.NoError(t, err)
	drain(t, b)

	results := b.Results(0)
	require.Len(t, results, 1)
	require.True(t, results[0].Success)
	value := results[0].Value.(map[string]any)
	assert.Equal(t, "click_processed", value["status"])
	assert.Equal(t, "door-3", value["element_id"])
}

func TestDefaults_OperationalMaintenance(t *testing.T) {
	b := NewBus()
	require.NoError(t, RegisterDefaults(b))

	e := Event{
		ID: "e1", Type: TypeOperational, ElementID: "chiller-2",
		Priority: PriorityHigh,
		Payload:  map[string]any{"operational_event_type": "maintenance", "maintenance_type": "filter", "maintenance_level": "routine"},
	}
	_, err := b.Emit(e)
	require.NoError(t, err)
	drain(t, b)

	results := b.Results(0)
	require.Len(t, results, 1)
	value := results[0].Value.(map[string]any)
	assert.Equal(t, "maintenance_processed", value["status"])
	assert.Equal(t, "filter", value["maintenance_type"])
}
