package state

import "sync"

// lockTable hands out one mutex per element, created lazily and
// refcounted so retired elements do not leak entries. acquire pins the
// entry; release unpins it and evicts once the element is retired and
// nobody holds a reference.
type lockTable struct {
	mu    sync.Mutex
	locks map[string]*elementLock
}

type elementLock struct {
	sync.Mutex
	refs    int
	retired bool
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[string]*elementLock)}
}

// acquire returns the element's lock with its refcount bumped. The
// caller must Lock/Unlock it and then call release.
func (t *lockTable) acquire(id string) *elementLock {
	t.mu.Lock()
	defer t.mu.Unlock()

	el, ok := t.locks[id]
	if !ok {
		el = &elementLock{}
		t.locks[id] = el
	}
	el.refs++
	return el
}

func (t *lockTable) release(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	el, ok := t.locks[id]
	if !ok {
		return
	}
	el.refs--
	if el.refs <= 0 && el.retired {
		delete(t.locks, id)
	}
}

// retire marks the element's lock for eviction. The entry is dropped
// immediately when idle, otherwise on the last release.
func (t *lockTable) retire(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	el, ok := t.locks[id]
	if !ok {
		return
	}
	if el.refs <= 0 {
		delete(t.locks, id)
		return
	}
	el.retired = true
}

func (t *lockTable) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.locks)
}
