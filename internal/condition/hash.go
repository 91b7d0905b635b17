package condition

import (
	"fmt"

	"github.com/arx-os/svgx-behavior/internal/ctxhash"
)

// cacheKey keys the evaluation cache by condition id and a stable
// digest of the context map.
func cacheKey(id string, ctx map[string]any) string {
	return fmt.Sprintf("%s_%016x", id, ctxhash.Hash(ctx))
}
