package event

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/arx-os/svgx-behavior/internal/ctxhash"
	"github.com/arx-os/svgx-behavior/internal/ident"
)

// Handler registry errors.
var (
	ErrHandlerExists   = errors.New("handler already registered")
	ErrHandlerNotFound = errors.New("handler not found")
)

// Defaults mirror the tuning the surrounding application ships with.
const (
	DefaultPoolSize       = 10
	DefaultHandlerTimeout = 5 * time.Second
	DefaultCacheTTL       = 5 * time.Minute
	DefaultCacheSize      = 1000
	DefaultHistoryLimit   = 1000
	DefaultResultLimit    = 1000
)

type cacheEntry struct {
	value any
	at    time.Time
}

type busStats struct {
	total     int64
	processed int64
	failed    int64
	totalDur  time.Duration
	maxDur    time.Duration
	minDur    time.Duration
}

// Bus routes emitted events to registered handlers. Emit is safe from
// any goroutine; a single Run loop consumes the queue in priority
// order and fans each event's handlers out through a bounded pool.
type Bus struct {
	queue   *priorityQueue
	running atomic.Bool

	poolSize       int
	handlerTimeout time.Duration

	mu              sync.Mutex
	elementHandlers map[string][]*Handler
	typeHandlers    map[Type][]*Handler
	globalHandlers  []*Handler
	history         []Event
	historyLimit    int
	results         []Result
	resultLimit     int
	cache           map[string]cacheEntry
	cacheTTL        time.Duration
	cacheSize       int
	correlations    map[string][]string
	ids             ident.Generator
	now             func() time.Time
	stats           busStats
}

// BusOption configures a Bus at construction time.
type BusOption func(*Bus)

// WithPoolSize bounds how many handlers run concurrently for one event.
func WithPoolSize(n int) BusOption {
	return func(b *Bus) { b.poolSize = n }
}

// WithHandlerTimeout sets the default per-handler execution timeout.
func WithHandlerTimeout(d time.Duration) BusOption {
	return func(b *Bus) { b.handlerTimeout = d }
}

// WithHistoryLimit bounds the retained event history.
func WithHistoryLimit(n int) BusOption {
	return func(b *Bus) { b.historyLimit = n }
}

// WithResultLimit bounds the retained handler results.
func WithResultLimit(n int) BusOption {
	return func(b *Bus) { b.resultLimit = n }
}

// WithCacheTTL sets how long cached handler results stay fresh.
func WithCacheTTL(d time.Duration) BusOption {
	return func(b *Bus) { b.cacheTTL = d }
}

// WithCacheSize bounds the result cache; the oldest entry is evicted
// when full.
func WithCacheSize(n int) BusOption {
	return func(b *Bus) { b.cacheSize = n }
}

// WithGenerator overrides the event id generator.
func WithGenerator(g ident.Generator) BusOption {
	return func(b *Bus) { b.ids = g }
}

// WithClock overrides the bus time source.
func WithClock(now func() time.Time) BusOption {
	return func(b *Bus) { b.now = now }
}

// NewBus creates an idle bus. Call Run to start dispatching.
func NewBus(opts ...BusOption) *Bus {
	b := &Bus{
		queue:           newPriorityQueue(),
		poolSize:        DefaultPoolSize,
		handlerTimeout:  DefaultHandlerTimeout,
		elementHandlers: make(map[string][]*Handler),
		typeHandlers:    make(map[Type][]*Handler),
		historyLimit:    DefaultHistoryLimit,
		resultLimit:     DefaultResultLimit,
		cache:           make(map[string]cacheEntry),
		cacheTTL:        DefaultCacheTTL,
		cacheSize:       DefaultCacheSize,
		correlations:    make(map[string][]string),
		ids:             ident.UUIDv7Generator{},
		now:             time.Now,
	}
	b.stats.minDur = time.Duration(1<<63 - 1)
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// NewEventID mints an id for a new event.
func (b *Bus) NewEventID() string {
	return b.ids.NewID()
}

// RegisterHandler places a handler in exactly one registry: element
// scope when ElementID is set, otherwise type scope when Type is set,
// otherwise global. Each registry stays sorted ascending by priority.
func (b *Bus) RegisterHandler(h *Handler) error {
	if h == nil || h.ID == "" {
		return errors.New("handler id is required")
	}
	if h.Action == nil {
		return fmt.Errorf("handler %s: action is required", h.ID)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.findHandler(h.ID) != nil {
		return fmt.Errorf("handler %s: %w", h.ID, ErrHandlerExists)
	}

	switch {
	case h.ElementID != "":
		b.elementHandlers[h.ElementID] = insertByPriority(b.elementHandlers[h.ElementID], h)
	case h.Type != "":
		b.typeHandlers[h.Type] = insertByPriority(b.typeHandlers[h.Type], h)
	default:
		b.globalHandlers = insertByPriority(b.globalHandlers, h)
	}
	slog.Info("handler registered", "id", h.ID, "element", h.ElementID, "type", string(h.Type))
	return nil
}

// UnregisterHandler removes the handler from whichever registry holds
// it.
func (b *Bus) UnregisterHandler(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	found := false
	for k, list := range b.elementHandlers {
		b.elementHandlers[k], found = dropHandler(list, id, found)
	}
	for k, list := range b.typeHandlers {
		b.typeHandlers[k], found = dropHandler(list, id, found)
	}
	b.globalHandlers, found = dropHandler(b.globalHandlers, id, found)

	if !found {
		return fmt.Errorf("handler %s: %w", id, ErrHandlerNotFound)
	}
	slog.Info("handler unregistered", "id", id)
	return nil
}

// findHandler scans all registries. Called with the bus mutex held.
func (b *Bus) findHandler(id string) *Handler {
	for _, list := range b.elementHandlers {
		for _, h := range list {
			if h.ID == id {
				return h
			}
		}
	}
	for _, list := range b.typeHandlers {
		for _, h := range list {
			if h.ID == id {
				return h
			}
		}
	}
	for _, h := range b.globalHandlers {
		if h.ID == id {
			return h
		}
	}
	return nil
}

func insertByPriority(list []*Handler, h *Handler) []*Handler {
	list = append(list, h)
	sort.SliceStable(list, func(i, j int) bool { return list[i].Priority < list[j].Priority })
	return list
}

func dropHandler(list []*Handler, id string, found bool) ([]*Handler, bool) {
	kept := list[:0]
	for _, h := range list {
		if h.ID == id {
			found = true
			continue
		}
		kept = append(kept, h)
	}
	return kept, found
}

// Emit validates the event and enqueues it. A zero timestamp is
// stamped with the current time. Rejected events never reach the queue
// or the history.
func (b *Bus) Emit(e Event) (string, error) {
	if err := validate(e); err != nil {
		slog.Error("event rejected", "id", e.ID, "error", err)
		return "", err
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = b.now()
	}

	if err := b.queue.Enqueue(e); err != nil {
		return "", fmt.Errorf("emit %s: %w", e.ID, err)
	}

	b.mu.Lock()
	b.history = append(b.history, e)
	if len(b.history) > b.historyLimit {
		b.history = b.history[len(b.history)-b.historyLimit:]
	}
	b.stats.total++
	b.mu.Unlock()

	slog.Debug("event emitted", "id", e.ID, "type", string(e.Type), "priority", e.Priority.String())
	return e.ID, nil
}

// Run consumes the queue until ctx is cancelled or Stop is called.
// Events drain strictly by priority tier, FIFO within a tier; the
// handler set for one event completes before the next event starts.
// Only one Run loop may be active; a second call warns and returns
// nil immediately.
//
// After Stop, Run finishes the already-queued events and returns nil.
// Cancellation returns ctx.Err() without draining.
func (b *Bus) Run(ctx context.Context) error {
	if !b.running.CompareAndSwap(false, true) {
		slog.Warn("event loop already running")
		return nil
	}
	defer b.running.Store(false)

	slog.Info("event loop started")
	for {
		e, ok := b.queue.TryDequeue()
		if !ok {
			if b.queue.Drained() {
				slog.Info("event loop drained")
				return nil
			}
			select {
			case <-ctx.Done():
				b.queue.Close()
				return ctx.Err()
			case <-b.queue.Wait():
			}
			continue
		}
		b.process(ctx, e)
	}
}

// Stop closes the queue. Events already queued are still processed by
// the Run loop; further Emit calls fail with ErrQueueClosed.
func (b *Bus) Stop() {
	b.queue.Close()
	slog.Info("event loop stopping")
}

// process dispatches one event to its applicable handlers through the
// bounded pool and records results and stats.
func (b *Bus) process(ctx context.Context, e Event) {
	start := b.now()

	b.mu.Lock()
	handlers := make([]*Handler, 0,
		len(b.elementHandlers[e.ElementID])+len(b.typeHandlers[e.Type])+len(b.globalHandlers))
	handlers = append(handlers, b.elementHandlers[e.ElementID]...)
	handlers = append(handlers, b.typeHandlers[e.Type]...)
	handlers = append(handlers, b.globalHandlers...)
	b.mu.Unlock()

	if len(handlers) == 0 {
		slog.Debug("no handlers for event", "id", e.ID)
		return
	}

	var applicable []*Handler
	for _, h := range handlers {
		if h.Disabled {
			continue
		}
		if h.Condition != nil && !h.Condition(e) {
			continue
		}
		applicable = append(applicable, h)
	}

	results := make([]Result, len(applicable))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.poolSize)
	for i, h := range applicable {
		i, h := i, h
		g.Go(func() error {
			results[i] = b.invoke(gctx, h, e)
			return nil
		})
	}
	g.Wait()

	dur := b.now().Sub(start)

	b.mu.Lock()
	b.results = append(b.results, results...)
	if len(b.results) > b.resultLimit {
		b.results = b.results[len(b.results)-b.resultLimit:]
	}
	if e.CorrelationID != "" {
		b.correlations[e.CorrelationID] = append(b.correlations[e.CorrelationID], e.ID)
	}
	b.stats.processed++
	if len(results) == 0 {
		b.stats.failed++
	}
	b.stats.totalDur += dur
	if dur > b.stats.maxDur {
		b.stats.maxDur = dur
	}
	if dur < b.stats.minDur {
		b.stats.minDur = dur
	}
	b.mu.Unlock()

	slog.Debug("event processed", "id", e.ID, "results", len(results))
}

// invoke runs one handler with its timeout and retry budget. Cached
// results short-circuit execution. Panics, errors, and timeouts become
// failed Results.
func (b *Bus) invoke(ctx context.Context, h *Handler, e Event) Result {
	start := b.now()

	key := resultCacheKey(h.ID, e)
	if value, ok := b.cachedResult(key); ok {
		return Result{
			EventID:   e.ID,
			HandlerID: h.ID,
			Success:   true,
			Duration:  b.now().Sub(start),
			Value:     value,
			Timestamp: b.now(),
		}
	}

	timeout := h.Timeout
	if timeout <= 0 {
		timeout = b.handlerTimeout
	}

	var value any
	var err error
	attempts := 1 + h.RetryCount
	for attempt := 0; attempt < attempts; attempt++ {
		value, err = b.runAction(ctx, h, e, timeout)
		if err == nil {
			break
		}
		if attempt < attempts-1 {
			slog.Warn("handler retry", "handler", h.ID, "event", e.ID, "attempt", attempt+1, "error", err)
		}
	}

	r := Result{
		EventID:   e.ID,
		HandlerID: h.ID,
		Duration:  b.now().Sub(start),
		Timestamp: b.now(),
	}
	if err != nil {
		slog.Error("handler failed", "handler", h.ID, "event", e.ID, "error", err)
		r.Err = err.Error()
		return r
	}

	r.Success = true
	r.Value = value
	b.storeResult(key, value)
	return r
}

// runAction executes the handler action under a timeout, converting a
// panic into an error. The action runs in its own goroutine so a stuck
// handler cannot wedge the dispatch loop; the goroutine is abandoned
// on timeout.
func (b *Bus) runAction(ctx context.Context, h *Handler, e Event, timeout time.Duration) (any, error) {
	hctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		value any
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- outcome{err: fmt.Errorf("handler %s panicked: %v", h.ID, rec)}
			}
		}()
		v, err := h.Action(e)
		done <- outcome{value: v, err: err}
	}()

	select {
	case <-hctx.Done():
		return nil, fmt.Errorf("handler %s: timeout after %s", h.ID, timeout)
	case o := <-done:
		return o.value, o.err
	}
}

func resultCacheKey(handlerID string, e Event) string {
	return fmt.Sprintf("%s_%s_%s_%016x", e.Type, e.ElementID, handlerID, ctxhash.Hash(e.Payload))
}

func (b *Bus) cachedResult(key string) (any, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ent, ok := b.cache[key]
	if !ok || b.now().Sub(ent.at) >= b.cacheTTL {
		return nil, false
	}
	return ent.value, true
}

// storeResult inserts a handler result, evicting the oldest entry when
// full.
func (b *Bus) storeResult(key string, value any) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.cache) >= b.cacheSize {
		var oldestKey string
		var oldestAt time.Time
		first := true
		for k, ent := range b.cache {
			if first || ent.at.Before(oldestAt) {
				oldestKey, oldestAt = k, ent.at
				first = false
			}
		}
		delete(b.cache, oldestKey)
	}
	b.cache[key] = cacheEntry{value: value, at: b.now()}
}

// History returns the most recently emitted events, newest last.
func (b *Bus) History(limit int) []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	if limit <= 0 || limit > len(b.history) {
		limit = len(b.history)
	}
	out := make([]Event, limit)
	copy(out, b.history[len(b.history)-limit:])
	return out
}

// Results returns the most recent handler results, newest last.
func (b *Bus) Results(limit int) []Result {
	b.mu.Lock()
	defer b.mu.Unlock()
	if limit <= 0 || limit > len(b.results) {
		limit = len(b.results)
	}
	out := make([]Result, limit)
	copy(out, b.results[len(b.results)-limit:])
	return out
}

// Correlated returns the event ids processed under a correlation id.
func (b *Bus) Correlated(correlationID string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.correlations[correlationID]))
	copy(out, b.correlations[correlationID])
	return out
}

// Stats returns a snapshot of processing, cache, queue, and handler
// counters.
func (b *Bus) Stats() map[string]any {
	lens := b.queue.Lens()

	b.mu.Lock()
	defer b.mu.Unlock()

	var avg time.Duration
	if b.stats.processed > 0 {
		avg = b.stats.totalDur / time.Duration(b.stats.processed)
	}
	minDur := b.stats.minDur
	if b.stats.processed == 0 {
		minDur = 0
	}

	elementCount := 0
	for _, list := range b.elementHandlers {
		elementCount += len(list)
	}
	typeCount := 0
	for _, list := range b.typeHandlers {
		typeCount += len(list)
	}

	byTier := make(map[string]int, numPriorities)
	queued := 0
	for i, n := range lens {
		byTier[Priority(i).String()] = n
		queued += n
	}

	return map[string]any{
		"processing": map[string]any{
			"total_events":            b.stats.total,
			"processed_events":        b.stats.processed,
			"failed_events":           b.stats.failed,
			"average_processing_time": avg,
			"max_processing_time":     b.stats.maxDur,
			"min_processing_time":     minDur,
		},
		"cache": map[string]any{
			"size":     len(b.cache),
			"capacity": b.cacheSize,
			"ttl":      b.cacheTTL,
		},
		"queue": map[string]any{
			"total_queued": queued,
			"by_priority":  byTier,
		},
		"handlers": map[string]any{
			"total":   elementCount + typeCount + len(b.globalHandlers),
			"element": elementCount,
			"type":    typeCount,
			"global":  len(b.globalHandlers),
		},
	}
}

// ClearCache drops all cached handler results.
func (b *Bus) ClearCache() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cache = make(map[string]cacheEntry)
	slog.Info("event cache cleared")
}

// ResetStats zeroes the processing counters. Histories, results, and
// the cache are untouched.
func (b *Bus) ResetStats() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stats = busStats{minDur: time.Duration(1<<63 - 1)}
	slog.Info("event statistics reset")
}
