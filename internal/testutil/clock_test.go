package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFixedClock_NowAndAdvance(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := NewFixedClock(base)

	assert.Equal(t, base, clock.Now())

	clock.Advance(90 * time.Second)
	assert.Equal(t, base.Add(90*time.Second), clock.Now())

	clock.Set(base)
	assert.Equal(t, base, clock.Now())
}

func TestFixedClock_ConcurrentAccess(t *testing.T) {
	clock := NewFixedClock(time.Unix(0, 0))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			clock.Advance(time.Millisecond)
		}
	}()
	for i := 0; i < 100; i++ {
		_ = clock.Now()
	}
	<-done

	assert.Equal(t, time.Unix(0, 0).Add(100*time.Millisecond), clock.Now())
}
