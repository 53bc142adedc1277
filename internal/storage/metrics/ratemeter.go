package metrics

import (
	"fmt"
	"sync"
	"time"
)

// rateMeter counts hits over a sliding window split into sub-interval
// buckets. Buckets recycle lazily: a hit or read that lands on a bucket from
// an expired window zeroes it first.
type rateMeter struct {
	mu     sync.Mutex
	window time.Duration
	bucket time.Duration
	counts []int64
	starts []int64 // unix nanos of the window each bucket currently counts
	now    func() time.Time
}

func newRateMeter(rateTimeIntervalMs int64, subIntervals int, now func() time.Time) *rateMeter {
	if rateTimeIntervalMs <= 0 || subIntervals <= 0 {
		panic(fmt.Sprintf("[metrics] invalid rate meter window %dms/%d", rateTimeIntervalMs, subIntervals))
	}

	window := time.Duration(rateTimeIntervalMs) * time.Millisecond
	return &rateMeter{
		window: window,
		bucket: window / time.Duration(subIntervals),
		counts: make([]int64, subIntervals),
		starts: make([]int64, subIntervals),
		now:    now,
	}
}

func (r *rateMeter) onHit() {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := r.now().UnixNano()
	slot := n / int64(r.bucket)
	idx := int(slot % int64(len(r.counts)))
	start := slot * int64(r.bucket)

	if r.starts[idx] != start {
		r.counts[idx] = 0
		r.starts[idx] = start
	}
	r.counts[idx]++
}

// rate is hits per second across the buckets still inside the window.
func (r *rateMeter) rate() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := r.now().UnixNano()
	cutoff := n - int64(r.window)

	var total int64
	for i := range r.counts {
		if r.starts[i] > cutoff {
			total += r.counts[i]
		}
	}
	return float64(total) / r.window.Seconds()
}
