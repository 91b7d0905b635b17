package state

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLockTable_AcquireReleaseEvicts(t *testing.T) {
	lt := newLockTable()

	el := lt.acquire("a")
	assert.Equal(t, 1, lt.size())

	lt.release("a")
	assert.Equal(t, 1, lt.size(), "entries survive release until retired")

	lt.retire("a")
	assert.Equal(t, 0, lt.size())
	_ = el
}

func TestLockTable_RetireWhileHeldDefersEviction(t *testing.T) {
	lt := newLockTable()

	el := lt.acquire("a")
	el.Lock()

	lt.retire("a")
	assert.Equal(t, 1, lt.size(), "held lock stays until released")

	el.Unlock()
	lt.release("a")
	assert.Equal(t, 0, lt.size())
}

func TestLockTable_ReacquireAfterRetire(t *testing.T) {
	lt := newLockTable()
	lt.acquire("a")
	lt.release("a")
	lt.retire("a")

	el := lt.acquire("a")
	el.Lock()
	el.Unlock()
	lt.release("a")
	assert.Equal(t, 1, lt.size(), "fresh entry is not retired")
}

func TestLockTable_ConcurrentAcquire(t *testing.T) {
	lt := newLockTable()
	var wg sync.WaitGroup
	counter := 0

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			el := lt.acquire("shared")
			el.Lock()
			counter++
			el.Unlock()
			lt.release("shared")
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
	assert.Equal(t, 1, lt.size())
}
