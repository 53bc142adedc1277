package eviction

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	util "github.com/bietkhonhungvandi212/region-db/internal/utils"
)

// Random2LRU keeps the two latest touch timestamps per page and ranks evict
// candidates by the older of the two. A page read once in a burst scores by
// that single touch, so scan-heavy workloads cannot wash out genuinely hot
// pages the way plain LRU sampling lets them.
type Random2LRU struct {
	mu       sync.Mutex
	store    PageStore
	rec      Reclaimer
	capacity int64
	first    []uint32 // 0 = untracked
	second   []uint32
	base     time.Time
	started  bool
	now      func() time.Time
	rnd      *rand.Rand
}

func NewRandom2LRU(store PageStore, rec Reclaimer, capacityPages int64) *Random2LRU {
	if capacityPages <= 0 {
		panic(fmt.Sprintf("[eviction] invalid capacity %d", capacityPages))
	}
	return &Random2LRU{
		store:    store,
		rec:      rec,
		capacity: capacityPages,
		now:      time.Now,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (t *Random2LRU) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.first = make([]uint32, t.capacity)
	t.second = make([]uint32, t.capacity)
	t.base = t.now()
	t.started = true
	return nil
}

func (t *Random2LRU) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.first = nil
	t.second = nil
	t.started = false
	return nil
}

func (t *Random2LRU) Touch(id util.PageID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.started || int64(id) >= t.capacity {
		return
	}

	now := t.compactTs()
	switch {
	case t.first[id] == 0:
		t.first[id] = now
	case t.second[id] == 0:
		t.second[id] = now
	case t.first[id] <= t.second[id]:
		t.first[id] = now
	default:
		t.second[id] = now
	}
}

func (t *Random2LRU) Forget(id util.PageID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.started || int64(id) >= t.capacity {
		return
	}
	t.first[id] = 0
	t.second[id] = 0
}

func (t *Random2LRU) EvictDataPage() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.started {
		return util.ErrTrackerStopped
	}

	victim := int64(-1)
	var victimScore uint32

	for i := 0; i < sampleSize; i++ {
		idx := t.rnd.Int63n(t.capacity)
		score, ok := t.scoreLocked(idx)
		if !ok {
			continue
		}
		if victim == -1 || score < victimScore {
			victim = idx
			victimScore = score
		}
	}

	if victim == -1 {
		for idx := int64(0); idx < t.capacity; idx++ {
			score, ok := t.scoreLocked(idx)
			if !ok {
				continue
			}
			if victim == -1 || score < victimScore {
				victim = idx
				victimScore = score
			}
		}
	}

	if victim == -1 {
		return util.ErrNothingToEvict
	}

	t.first[victim] = 0
	t.second[victim] = 0

	if err := t.store.FreePage(util.PageID(victim)); err != nil {
		return fmt.Errorf("[eviction] evict page %d: %w", victim, err)
	}
	t.rec.AddEmptyPage(util.PageID(victim))
	return nil
}

// scoreLocked ranks a page by its second-latest touch; single-touch pages
// rank by that touch alone.
func (t *Random2LRU) scoreLocked(idx int64) (uint32, bool) {
	first, second := t.first[idx], t.second[idx]
	if first == 0 {
		return 0, false
	}
	if second == 0 {
		return first, true
	}
	if second < first {
		return second, true
	}
	return first, true
}

func (t *Random2LRU) compactTs() uint32 {
	return uint32(t.now().Sub(t.base)/time.Second) + 1
}
