// Package ctxhash computes stable digests of context maps for cache
// keys. Both the condition engine and the event bus key their result
// caches on hashed payloads.
package ctxhash

import (
	"fmt"
	"hash/fnv"
	"io"
	"sort"
)

// Hash computes a stable FNV-1a digest of a context map.
//
// Keys are visited in sorted order and values are rendered with %v, so
// two maps with equal contents always hash identically regardless of
// iteration order. Nested maps are canonicalized recursively; slice
// order is significant.
func Hash(ctx map[string]any) uint64 {
	h := fnv.New64a()
	writeValue(h, ctx)
	return h.Sum64()
}

func writeValue(h io.Writer, v any) {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		h.Write([]byte{'{'})
		for _, k := range keys {
			h.Write([]byte(k))
			h.Write([]byte{'='})
			writeValue(h, val[k])
			h.Write([]byte{';'})
		}
		h.Write([]byte{'}'})
	case []any:
		h.Write([]byte{'['})
		for _, e := range val {
			writeValue(h, e)
			h.Write([]byte{','})
		}
		h.Write([]byte{']'})
	default:
		fmt.Fprintf(h, "%v", val)
	}
}
