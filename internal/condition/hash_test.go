package condition

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCacheKey(t *testing.T) {
	a := map[string]any{"temperature": 31.0, "zone": "east"}
	b := map[string]any{"zone": "east", "temperature": 31.0}

	assert.Equal(t, cacheKey("c1", a), cacheKey("c1", b), "key order must not matter")
	assert.NotEqual(t, cacheKey("c1", a), cacheKey("c2", a))
	assert.NotEqual(t, cacheKey("c1", a), cacheKey("c1", map[string]any{"temperature": 32.0}))
}
