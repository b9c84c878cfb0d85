// Package preload implements the spiral preload schedule driven by the
// current playhead, and a debounce wrapper that coalesces full-radius
// preload requests during slider scrubs (spec §4.7).
package preload

import (
	"github.com/playa/core/internal/framecache"
	"github.com/playa/core/internal/pixel"
	"github.com/playa/core/internal/workers"
)

// Schedule returns the spiral order c, c+1, c-1, c+2, c-2, ... clipped to
// [a, b] (spec §4.7). radius < 0 means "entire range"; otherwise only
// offsets within [c-radius, c+radius] are included.
func Schedule(center, a, b, radius int) []int {
	if a > b {
		return nil
	}
	center = clamp(center, a, b)
	out := make([]int, 0, b-a+1)
	out = append(out, center)
	for offset := 1; ; offset++ {
		if radius >= 0 && offset > radius {
			break
		}
		fwd, back := center+offset, center-offset
		if fwd > b && back < a {
			break
		}
		if fwd <= b {
			out = append(out, fwd)
		}
		if back >= a {
			out = append(out, back)
		}
	}
	return out
}

func clamp(v, a, b int) int {
	if v < a {
		return a
	}
	if v > b {
		return b
	}
	return v
}

// Submit enqueues the spiral schedule around center as epoch-tagged jobs
// on pool, skipping frames the cache already reports Loaded or Loading
// (spec §4.7: "before enqueueing, consult the cache; skip frames already
// Loaded or Loading").
func Submit(pool *workers.Pool, cache *framecache.Cache, comp uint32, center, a, b, radius int, compute func(frame int) (*pixel.Frame, error)) {
	epoch := pool.CurrentEpoch()
	for _, f := range Schedule(center, a, b, radius) {
		frame := f
		if status, ok := cache.PeekStatus(comp, frame); ok {
			if status == pixel.StatusLoaded || status == pixel.StatusLoading {
				continue
			}
		}
		pool.SubmitEpoch(epoch, func(h *workers.Handle) {
			_, _, _ = cache.GetOrInsert(comp, frame, func() (*pixel.Frame, error) {
				return compute(frame)
			})
		})
	}
}
