package ctxhash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHash_KeyOrderIndependent(t *testing.T) {
	a := map[string]any{"temperature": 31.0, "zone": "east", "occupied": true}
	b := map[string]any{"zone": "east", "occupied": true, "temperature": 31.0}
	assert.Equal(t, Hash(a), Hash(b))
}

func TestHash_ValueSensitive(t *testing.T) {
	a := map[string]any{"temperature": 31.0}
	b := map[string]any{"temperature": 31.5}
	assert.NotEqual(t, Hash(a), Hash(b))
}

func TestHash_Nested(t *testing.T) {
	a := map[string]any{"geo": map[string]any{"x": 1.0, "y": 2.0}, "tags": []any{"a", "b"}}
	b := map[string]any{"tags": []any{"a", "b"}, "geo": map[string]any{"y": 2.0, "x": 1.0}}
	c := map[string]any{"tags": []any{"b", "a"}, "geo": map[string]any{"y": 2.0, "x": 1.0}}

	assert.Equal(t, Hash(a), Hash(b))
	assert.NotEqual(t, Hash(a), Hash(c), "slice order is significant")
}

func TestHash_NilAndEmptyAgree(t *testing.T) {
	assert.Equal(t, Hash(nil), Hash(map[string]any{}))
}
