package render

import (
	"context"
	"image"

	"golang.org/x/sync/semaphore"
)

// LimitedRasterizer caps how many rasterizations run at once across the
// whole process. Large exports hold several full-size buffers each, so the
// cap bounds peak memory no matter how many sessions export together.
type LimitedRasterizer struct {
	next Rasterizer
	sem  *semaphore.Weighted
}

// Limit wraps r so that at most n calls to Rasterize are in flight. Callers
// over the limit wait in order until a slot frees up or their context ends.
func Limit(r Rasterizer, n int64) *LimitedRasterizer {
	if n < 1 {
		n = 1
	}
	return &LimitedRasterizer{next: r, sem: semaphore.NewWeighted(n)}
}

func (l *LimitedRasterizer) Rasterize(ctx context.Context, tree Tree, scale float64) (*image.NRGBA, error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer l.sem.Release(1)
	return l.next.Rasterize(ctx, tree, scale)
}
