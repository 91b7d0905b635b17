package state

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/arx-os/svgx-behavior/internal/ident"
)

// Catalogue mutation errors.
var (
	ErrExists      = errors.New("state already exists")
	ErrNotFound    = errors.New("state not found")
	ErrStateActive = errors.New("state is active for an element")
)

// DefaultHistoryLimit bounds the per-element audit history.
const DefaultHistoryLimit = 1000

type machineStats struct {
	total     int64
	succeeded int64
	failed    int64
	totalDur  time.Duration
	maxDur    time.Duration
	minDur    time.Duration
}

// Machine is a shared state catalogue driving per-element active
// states. Catalogue mutation and state reads are guarded by one
// RWMutex; transition execution additionally serializes per element so
// independent elements transition in parallel.
//
// Re-entry is not supported: an Action that calls back into
// ExecuteTransition for the same element deadlocks on the element lock.
type Machine struct {
	mu           sync.RWMutex
	states       map[string]*State
	transitions  map[string][]*Transition
	active       map[string]string
	history      map[string][]Change
	historyLimit int
	locks        *lockTable
	ids          ident.Generator
	now          func() time.Time
	stats        machineStats
}

// MachineOption configures a Machine at construction time.
type MachineOption func(*Machine)

// WithHistoryLimit bounds each element's retained audit history.
func WithHistoryLimit(n int) MachineOption {
	return func(m *Machine) { m.historyLimit = n }
}

// WithClock overrides the machine's time source.
func WithClock(now func() time.Time) MachineOption {
	return func(m *Machine) { m.now = now }
}

// WithGenerator overrides the change id generator.
func WithGenerator(g ident.Generator) MachineOption {
	return func(m *Machine) { m.ids = g }
}

// NewMachine creates an empty state machine.
func NewMachine(opts ...MachineOption) *Machine {
	m := &Machine{
		states:       make(map[string]*State),
		transitions:  make(map[string][]*Transition),
		active:       make(map[string]string),
		history:      make(map[string][]Change),
		historyLimit: DefaultHistoryLimit,
		locks:        newLockTable(),
		ids:          ident.UUIDv7Generator{},
		now:          time.Now,
	}
	m.stats.minDur = time.Duration(1<<63 - 1)
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AddState registers a state definition. Duplicate ids leave the
// catalogue unchanged.
func (m *Machine) AddState(s *State) error {
	if s == nil || s.ID == "" {
		return errors.New("state id is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.states[s.ID]; ok {
		return fmt.Errorf("state %s: %w", s.ID, ErrExists)
	}
	m.states[s.ID] = s
	slog.Info("state added", "id", s.ID, "name", s.Name)
	return nil
}

// RemoveState deletes a state and prunes every transition touching it.
// A state that is currently active for any element cannot be removed.
func (m *Machine) RemoveState(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.states[id]; !ok {
		return fmt.Errorf("state %s: %w", id, ErrNotFound)
	}
	for _, current := range m.active {
		if current == id {
			return fmt.Errorf("state %s: %w", id, ErrStateActive)
		}
	}

	delete(m.states, id)
	delete(m.transitions, id)
	for from, list := range m.transitions {
		kept := list[:0]
		for _, t := range list {
			if t.To != id {
				kept = append(kept, t)
			}
		}
		m.transitions[from] = kept
	}
	slog.Info("state removed", "id", id)
	return nil
}

// TransitionOption configures a transition added with AddTransition.
type TransitionOption func(*Transition)

// WithPredicates gates the transition on the given predicates.
func WithPredicates(ps ...Predicate) TransitionOption {
	return func(t *Transition) { t.Predicates = append(t.Predicates, ps...) }
}

// WithActions runs the given actions when the transition executes.
func WithActions(as ...Action) TransitionOption {
	return func(t *Transition) { t.Actions = append(t.Actions, as...) }
}

// WithPriority orders the transition among its siblings; lower runs
// first.
func WithPriority(p int) TransitionOption {
	return func(t *Transition) { t.Priority = p }
}

// WithTimeout records an advisory timeout on the transition.
func WithTimeout(d time.Duration) TransitionOption {
	return func(t *Transition) { t.Timeout = d }
}

// WithDescription attaches a human-readable description.
func WithDescription(d string) TransitionOption {
	return func(t *Transition) { t.Description = d }
}

// AddTransition registers a directed edge between two known states.
// Edges out of a state are kept sorted ascending by priority.
func (m *Machine) AddTransition(from, to string, opts ...TransitionOption) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.states[from]; !ok {
		return fmt.Errorf("source state %s: %w", from, ErrNotFound)
	}
	if _, ok := m.states[to]; !ok {
		return fmt.Errorf("target state %s: %w", to, ErrNotFound)
	}

	t := &Transition{From: from, To: to}
	for _, opt := range opts {
		opt(t)
	}
	m.transitions[from] = append(m.transitions[from], t)
	sort.SliceStable(m.transitions[from], func(i, j int) bool {
		return m.transitions[from][i].Priority < m.transitions[from][j].Priority
	})
	slog.Info("transition added", "from", from, "to", to)
	return nil
}

// RemoveTransition deletes every edge between from and to.
func (m *Machine) RemoveTransition(from, to string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	list, ok := m.transitions[from]
	if !ok {
		return fmt.Errorf("no transitions from state %s: %w", from, ErrNotFound)
	}
	kept := list[:0]
	for _, t := range list {
		if t.To != to {
			kept = append(kept, t)
		}
	}
	m.transitions[from] = kept
	slog.Info("transition removed", "from", from, "to", to)
	return nil
}

// SetCurrentState seeds or forces an element's active state without
// running any actions or recording history.
func (m *Machine) SetCurrentState(elementID, stateID string) error {
	if elementID == "" {
		return errors.New("element id is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.states[stateID]; !ok {
		return fmt.Errorf("state %s: %w", stateID, ErrNotFound)
	}
	m.active[elementID] = stateID
	return nil
}

// ExecuteTransition moves an element to the target state. It returns
// true only when a registered transition from the element's current
// state to the target exists, all its predicates and the boundary
// conditions hold, and every action ran without error. The element's
// state changes only after all actions succeed.
//
// An untracked element or a missing/gated transition returns false
// without recording history. An action failure records a failed Change
// and leaves the state unchanged.
func (m *Machine) ExecuteTransition(elementID, target string, ctx map[string]any) bool {
	start := m.now()
	if ctx == nil {
		ctx = map[string]any{}
	}

	el := m.locks.acquire(elementID)
	el.Lock()
	defer func() {
		el.Unlock()
		m.locks.release(elementID)
	}()

	m.mu.RLock()
	current, tracked := m.active[elementID]
	if !tracked {
		m.mu.RUnlock()
		slog.Warn("no current state for element", "element", elementID)
		return false
	}
	t := m.findTransition(current, target, ctx)
	from, to := m.states[current], m.states[target]
	m.mu.RUnlock()

	if t == nil {
		slog.Warn("invalid transition", "element", elementID, "from", current, "to", target)
		return false
	}

	// Actions run outside the catalogue lock; the element lock keeps
	// this element's transitions serialized.
	if err := runActions(elementID, ctx, exitActions(from), t.Actions, entryActions(to)); err != nil {
		slog.Error("transition failed", "element", elementID, "from", current, "to", target, "error", err)
		m.record(elementID, current, target, ctx, m.now().Sub(start), false, err.Error())
		return false
	}

	m.mu.Lock()
	m.active[elementID] = target
	m.mu.Unlock()

	m.record(elementID, current, target, ctx, m.now().Sub(start), true, "")
	slog.Info("state transition", "element", elementID, "from", current, "to", target)
	return true
}

// findTransition returns the first edge from current to target, in
// priority order, whose predicates and boundary conditions all pass.
// Called with the read lock held.
func (m *Machine) findTransition(current, target string, ctx map[string]any) *Transition {
next:
	for _, t := range m.transitions[current] {
		if t.To != target {
			continue
		}
		for _, p := range t.Predicates {
			if !p(ctx) {
				continue next
			}
		}
		if s := m.states[current]; s != nil {
			for _, p := range s.ExitConditions {
				if !p(ctx) {
					continue next
				}
			}
		}
		if s := m.states[target]; s != nil {
			for _, p := range s.EntryConditions {
				if !p(ctx) {
					continue next
				}
			}
		}
		return t
	}
	return nil
}

func exitActions(s *State) []Action {
	if s == nil {
		return nil
	}
	return s.ExitActions
}

func entryActions(s *State) []Action {
	if s == nil {
		return nil
	}
	return s.EntryActions
}

// runActions runs the groups in order and stops at the first error.
func runActions(elementID string, ctx map[string]any, groups ...[]Action) error {
	for _, group := range groups {
		for _, a := range group {
			if err := a(elementID, ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// record appends an audit Change and updates latency counters.
func (m *Machine) record(elementID, from, to string, ctx map[string]any, dur time.Duration, success bool, errText string) {
	trigger, _ := ctx["trigger"].(string)
	if trigger == "" {
		trigger = "manual"
	}
	userID, _ := ctx["user_id"].(string)

	c := Change{
		ID:        m.ids.NewID(),
		ElementID: elementID,
		From:      from,
		To:        to,
		Timestamp: m.now(),
		Trigger:   trigger,
		UserID:    userID,
		Context:   ctx,
		Success:   success,
		Error:     errText,
		Duration:  dur,
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	h := append(m.history[elementID], c)
	if len(h) > m.historyLimit {
		h = h[len(h)-m.historyLimit:]
	}
	m.history[elementID] = h

	m.stats.total++
	if success {
		m.stats.succeeded++
	} else {
		m.stats.failed++
	}
	m.stats.totalDur += dur
	if dur > m.stats.maxDur {
		m.stats.maxDur = dur
	}
	if dur < m.stats.minDur {
		m.stats.minDur = dur
	}
}

// RetireElement forgets an element: its active state, audit history,
// and lock entry. Safe to call for unknown elements.
func (m *Machine) RetireElement(elementID string) {
	m.mu.Lock()
	delete(m.active, elementID)
	delete(m.history, elementID)
	m.mu.Unlock()
	m.locks.retire(elementID)
	slog.Info("element retired", "element", elementID)
}

// CurrentState returns the element's active state id.
func (m *Machine) CurrentState(elementID string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.active[elementID]
	return id, ok
}

// State returns the catalogue entry with the given id.
func (m *Machine) State(id string) (*State, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.states[id]
	return s, ok
}

// States returns the ids of every catalogue state, sorted.
func (m *Machine) States() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.states))
	for id := range m.states {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// History returns the element's most recent audit records, newest last.
func (m *Machine) History(elementID string, limit int) []Change {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h := m.history[elementID]
	if limit <= 0 || limit > len(h) {
		limit = len(h)
	}
	out := make([]Change, limit)
	copy(out, h[len(h)-limit:])
	return out
}

// AvailableTransitions returns copies of the edges out of the
// element's current state, in priority order.
func (m *Machine) AvailableTransitions(elementID string) []Transition {
	m.mu.RLock()
	defer m.mu.RUnlock()

	current, ok := m.active[elementID]
	if !ok {
		return nil
	}
	list := m.transitions[current]
	out := make([]Transition, len(list))
	for i, t := range list {
		out[i] = *t
	}
	return out
}

// Stats returns a snapshot of processing and catalogue counters.
func (m *Machine) Stats() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var avg time.Duration
	if m.stats.total > 0 {
		avg = m.stats.totalDur / time.Duration(m.stats.total)
	}
	minDur := m.stats.minDur
	if m.stats.total == 0 {
		minDur = 0
	}

	edges := 0
	for _, list := range m.transitions {
		edges += len(list)
	}

	return map[string]any{
		"processing": map[string]any{
			"total_transitions":       m.stats.total,
			"successful_transitions":  m.stats.succeeded,
			"failed_transitions":      m.stats.failed,
			"average_transition_time": avg,
			"max_transition_time":     m.stats.maxDur,
			"min_transition_time":     minDur,
		},
		"catalogue": map[string]any{
			"total_states":      len(m.states),
			"total_transitions": edges,
			"active_elements":   len(m.active),
		},
		"locks": map[string]any{
			"entries": m.locks.size(),
		},
	}
}

// ResetStats zeroes the processing counters. The catalogue, active
// states, and histories are untouched.
func (m *Machine) ResetStats() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats = machineStats{minDur: time.Duration(1<<63 - 1)}
	slog.Info("state machine statistics reset")
}
