package eviction

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	util "github.com/bietkhonhungvandi212/region-db/internal/utils"
)

// sampleSize is how many random candidates one eviction round inspects.
const sampleSize = 5

// RandomLRU samples random tracked pages and evicts the one with the oldest
// touch. Timestamps are compact second offsets from Start, so the tracking
// array costs 4 bytes per page of capacity.
type RandomLRU struct {
	mu       sync.Mutex
	store    PageStore
	rec      Reclaimer
	capacity int64
	ts       []uint32 // 0 = untracked
	base     time.Time
	started  bool
	now      func() time.Time
	rnd      *rand.Rand
}

func NewRandomLRU(store PageStore, rec Reclaimer, capacityPages int64) *RandomLRU {
	if capacityPages <= 0 {
		panic(fmt.Sprintf("[eviction] invalid capacity %d", capacityPages))
	}
	return &RandomLRU{
		store:    store,
		rec:      rec,
		capacity: capacityPages,
		now:      time.Now,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (t *RandomLRU) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.ts = make([]uint32, t.capacity)
	t.base = t.now()
	t.started = true
	return nil
}

func (t *RandomLRU) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.ts = nil
	t.started = false
	return nil
}

func (t *RandomLRU) Touch(id util.PageID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.started || int64(id) >= t.capacity {
		return
	}
	t.ts[id] = t.compactTs()
}

func (t *RandomLRU) Forget(id util.PageID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.started || int64(id) >= t.capacity {
		return
	}
	t.ts[id] = 0
}

func (t *RandomLRU) EvictDataPage() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.started {
		return util.ErrTrackerStopped
	}

	victim := int64(-1)
	var victimTs uint32

	for i := 0; i < sampleSize; i++ {
		idx := t.rnd.Int63n(t.capacity)
		if t.ts[idx] == 0 {
			continue
		}
		if victim == -1 || t.ts[idx] < victimTs {
			victim = idx
			victimTs = t.ts[idx]
		}
	}

	// Sampling can miss on sparse regions; fall back to a full scan.
	if victim == -1 {
		for idx := int64(0); idx < t.capacity; idx++ {
			if t.ts[idx] == 0 {
				continue
			}
			if victim == -1 || t.ts[idx] < victimTs {
				victim = idx
				victimTs = t.ts[idx]
			}
		}
	}

	if victim == -1 {
		return util.ErrNothingToEvict
	}

	return t.evictLocked(util.PageID(victim))
}

func (t *RandomLRU) evictLocked(id util.PageID) error {
	t.ts[id] = 0

	if err := t.store.FreePage(id); err != nil {
		return fmt.Errorf("[eviction] evict page %d: %w", id, err)
	}
	t.rec.AddEmptyPage(id)
	return nil
}

// compactTs is seconds since Start, offset by one so zero stays "untracked".
func (t *RandomLRU) compactTs() uint32 {
	return uint32(t.now().Sub(t.base)/time.Second) + 1
}
