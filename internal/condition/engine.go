package condition

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Catalogue mutation errors.
var (
	ErrExists   = errors.New("condition already exists")
	ErrNotFound = errors.New("condition not found")
)

// Defaults mirror the tuning the surrounding application ships with.
const (
	DefaultCacheTTL     = time.Minute
	DefaultCacheSize    = 1000
	DefaultHistoryLimit = 1000
)

type cacheEntry struct {
	value bool
	at    time.Time
}

type engineStats struct {
	total     int64
	succeeded int64
	failed    int64
	cacheHits int64
	totalDur  time.Duration
	maxDur    time.Duration
	minDur    time.Duration
}

// Engine owns the condition catalogue, the evaluation cache, and the
// hysteresis memory. All methods are safe for concurrent use; a single
// mutex serializes catalogue mutation and cache writes.
type Engine struct {
	mu           sync.Mutex
	conditions   map[string]*Condition
	cache        map[string]cacheEntry
	hysteresis   map[string]bool // condition id -> last produced boolean
	history      []Result
	historyLimit int
	cacheSize    int
	now          func() time.Time
	stats        engineStats
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithCacheSize bounds the number of cached evaluation results. When
// the cache is full the oldest entry is evicted.
func WithCacheSize(n int) Option {
	return func(e *Engine) { e.cacheSize = n }
}

// WithHistoryLimit bounds the retained evaluation history.
func WithHistoryLimit(n int) Option {
	return func(e *Engine) { e.historyLimit = n }
}

// WithClock overrides the engine's time source. Tests use this to pin
// TTL expiry and time-window evaluation.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an empty condition engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		conditions:   make(map[string]*Condition),
		cache:        make(map[string]cacheEntry),
		hysteresis:   make(map[string]bool),
		historyLimit: DefaultHistoryLimit,
		cacheSize:    DefaultCacheSize,
		now:          time.Now,
	}
	e.stats.minDur = time.Duration(1<<63 - 1)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Add registers a condition in the catalogue. The id must be unique
// and the spec must be present and agree with the declared kind (an
// empty kind is filled in from the spec).
func (e *Engine) Add(c *Condition) error {
	if c == nil || c.ID == "" {
		return errors.New("condition id is required")
	}
	if c.Spec == nil {
		return fmt.Errorf("condition %s: spec is required", c.ID)
	}
	if c.Kind == "" {
		c.Kind = c.Spec.kind()
	} else if c.Kind != c.Spec.kind() {
		return fmt.Errorf("condition %s: kind %q does not match spec %q", c.ID, c.Kind, c.Spec.kind())
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = DefaultCacheTTL
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.conditions[c.ID]; ok {
		return fmt.Errorf("condition %s: %w", c.ID, ErrExists)
	}
	e.conditions[c.ID] = c
	slog.Info("condition added", "id", c.ID, "kind", c.Kind)
	return nil
}

// Remove deletes a condition and its cache and hysteresis entries.
func (e *Engine) Remove(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.conditions[id]; !ok {
		return fmt.Errorf("condition %s: %w", id, ErrNotFound)
	}
	delete(e.conditions, id)
	delete(e.hysteresis, id)
	prefix := id + "_"
	for k := range e.cache {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			delete(e.cache, k)
		}
	}
	slog.Info("condition removed", "id", id)
	return nil
}

// Get returns the condition with the given id.
func (e *Engine) Get(id string) (*Condition, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, ok := e.conditions[id]
	return c, ok
}

// Evaluate runs the condition against the context and returns a
// Result. Unknown ids, disabled conditions, malformed context, and
// panics inside user predicates produce a failed Result; Evaluate
// never panics and never returns an error to the caller.
//
// Results are cached by (condition id, context hash) for the
// condition's CacheTTL. Threshold conditions with hysteresis bypass
// the context cache: their last boolean is remembered per condition id
// and consulted fresh on every call so the dead-band tracks reality.
func (e *Engine) Evaluate(id string, ctx map[string]any) Result {
	start := e.now()
	if ctx == nil {
		ctx = map[string]any{}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	c, ok := e.conditions[id]
	if !ok {
		return e.finish(Result{ConditionID: id, Err: "condition not found"}, start)
	}
	if c.Disabled {
		return e.finish(Result{ConditionID: id, Err: "condition disabled"}, start)
	}

	stateful := isHysteresis(c)
	key := cacheKey(id, ctx)
	if !stateful {
		if ent, hit := e.cache[key]; hit && e.now().Sub(ent.at) < c.CacheTTL {
			e.stats.cacheHits++
			return Result{
				ConditionID: id,
				Success:     true,
				Value:       ent.value,
				Duration:    e.now().Sub(start),
				CacheHit:    true,
				Timestamp:   e.now(),
			}
		}
	}

	value, err := e.evalSafe(c, ctx)
	if err != nil {
		slog.Error("condition evaluation failed", "id", id, "error", err)
		return e.finish(Result{ConditionID: id, Err: err.Error()}, start)
	}

	if stateful {
		e.hysteresis[id] = value
	} else {
		e.storeCache(key, value)
	}
	return e.finish(Result{ConditionID: id, Success: true, Value: value}, start)
}

func isHysteresis(c *Condition) bool {
	ts, ok := c.Spec.(ThresholdSpec)
	return ok && ts.Hysteresis > 0
}

// evalSafe dispatches on the spec variant, converting panics inside
// evaluators or user predicates into errors.
func (e *Engine) evalSafe(c *Condition, ctx map[string]any) (value bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			value = false
			err = fmt.Errorf("condition %s panicked: %v", c.ID, r)
		}
	}()

	switch spec := c.Spec.(type) {
	case ThresholdSpec:
		return e.evalThreshold(c.ID, spec, ctx)
	case TimeSpec:
		return e.evalTime(spec, ctx)
	case SpatialSpec:
		return evalSpatial(spec, ctx)
	case RelationalSpec:
		return evalRelational(spec, ctx), nil
	case ComplexSpec:
		return evalComplex(spec, ctx), nil
	case ExternalSpec:
		if spec.Fn == nil {
			return false, fmt.Errorf("condition %s: nil external predicate", c.ID)
		}
		return spec.Fn(ctx), nil
	default:
		return false, fmt.Errorf("condition %s: unsupported spec %T", c.ID, c.Spec)
	}
}

// finish stamps the result, updates statistics, and appends history.
// Called with the engine mutex held.
func (e *Engine) finish(r Result, start time.Time) Result {
	r.Duration = e.now().Sub(start)
	r.Timestamp = e.now()

	e.stats.total++
	if r.Success {
		e.stats.succeeded++
	} else {
		e.stats.failed++
	}
	e.stats.totalDur += r.Duration
	if r.Duration > e.stats.maxDur {
		e.stats.maxDur = r.Duration
	}
	if r.Duration < e.stats.minDur {
		e.stats.minDur = r.Duration
	}

	e.history = append(e.history, r)
	if len(e.history) > e.historyLimit {
		e.history = e.history[len(e.history)-e.historyLimit:]
	}
	return r
}

// storeCache inserts a result, evicting the oldest entry when full.
// Called with the engine mutex held.
func (e *Engine) storeCache(key string, value bool) {
	if len(e.cache) >= e.cacheSize {
		var oldestKey string
		var oldestAt time.Time
		first := true
		for k, ent := range e.cache {
			if first || ent.at.Before(oldestAt) {
				oldestKey, oldestAt = k, ent.at
				first = false
			}
		}
		delete(e.cache, oldestKey)
	}
	e.cache[key] = cacheEntry{value: value, at: e.now()}
}

// History returns the most recent evaluation results, newest last.
func (e *Engine) History(limit int) []Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	if limit <= 0 || limit > len(e.history) {
		limit = len(e.history)
	}
	out := make([]Result, limit)
	copy(out, e.history[len(e.history)-limit:])
	return out
}

// Stats returns a snapshot of processing, catalogue, and cache counters.
func (e *Engine) Stats() map[string]any {
	e.mu.Lock()
	defer e.mu.Unlock()

	var avg time.Duration
	if e.stats.total > 0 {
		avg = e.stats.totalDur / time.Duration(e.stats.total)
	}
	minDur := e.stats.minDur
	if e.stats.total == 0 {
		minDur = 0
	}

	byKind := make(map[string]int)
	enabled := 0
	for _, c := range e.conditions {
		byKind[string(c.Kind)]++
		if !c.Disabled {
			enabled++
		}
	}

	return map[string]any{
		"processing": map[string]any{
			"total_evaluations":       e.stats.total,
			"successful_evaluations":  e.stats.succeeded,
			"failed_evaluations":      e.stats.failed,
			"cache_hits":              e.stats.cacheHits,
			"average_evaluation_time": avg,
			"max_evaluation_time":     e.stats.maxDur,
			"min_evaluation_time":     minDur,
		},
		"conditions": map[string]any{
			"total":   len(e.conditions),
			"enabled": enabled,
			"by_kind": byKind,
		},
		"cache": map[string]any{
			"size":               len(e.cache),
			"capacity":           e.cacheSize,
			"hysteresis_entries": len(e.hysteresis),
		},
	}
}

// ClearCache drops all cached results and hysteresis memory.
func (e *Engine) ClearCache() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache = make(map[string]cacheEntry)
	e.hysteresis = make(map[string]bool)
	slog.Info("condition cache cleared")
}

// ResetStats zeroes the processing counters. The catalogue, cache, and
// history are untouched.
func (e *Engine) ResetStats() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stats = engineStats{minDur: time.Duration(1<<63 - 1)}
	slog.Info("condition statistics reset")
}
