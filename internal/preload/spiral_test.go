package preload

import (
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/playa/core/internal/cachemgr"
	"github.com/playa/core/internal/framecache"
	"github.com/playa/core/internal/pixel"
	"github.com/playa/core/internal/workers"
)

func TestScheduleSpiralOrderUnbounded(t *testing.T) {
	got := Schedule(5, 0, 9, -1)
	want := []int{5, 6, 4, 7, 3, 8, 2, 9, 1, 0}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Schedule = %v, want %v", got, want)
	}
}

func TestScheduleClippedAtRangeEdge(t *testing.T) {
	got := Schedule(1, 0, 9, -1)
	want := []int{1, 2, 0, 3, 4, 5, 6, 7, 8, 9}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Schedule = %v, want %v", got, want)
	}
}

func TestScheduleBoundedRadius(t *testing.T) {
	got := Schedule(5, 0, 9, 2)
	want := []int{5, 6, 4, 7, 3}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Schedule = %v, want %v", got, want)
	}
}

func TestScheduleCenterClampedToRange(t *testing.T) {
	got := Schedule(50, 0, 3, -1)
	want := []int{3, 2, 1, 0}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Schedule = %v, want %v", got, want)
	}
}

func TestSubmitSkipsAlreadyLoadedFrames(t *testing.T) {
	mgr := cachemgr.New(1 << 30)
	cache := framecache.New(mgr, 0)
	epoch := &atomic.Uint64{}
	pool := workers.New(2, epoch)
	defer pool.Stop(500 * time.Millisecond)

	buf := pixel.NewPixelBuffer(pixel.FormatU8, 1, 1)
	cache.Insert(1, 5, pixel.NewLoaded(buf))

	var calls atomic.Int32
	compute := func(frame int) (*pixel.Frame, error) {
		calls.Add(1)
		return pixel.NewLoaded(pixel.NewPixelBuffer(pixel.FormatU8, 1, 1)), nil
	}
	Submit(pool, cache, 1, 5, 0, 9, 1, compute)
	time.Sleep(20 * time.Millisecond)

	// frame 5 already Loaded, so only 4 and 6 should have been computed.
	if got := calls.Load(); got != 2 {
		t.Fatalf("compute called %d times, want 2 (frames 4 and 6)", got)
	}
}
