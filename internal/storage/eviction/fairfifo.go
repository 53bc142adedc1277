package eviction

import (
	"fmt"
	"sync"

	util "github.com/bietkhonhungvandi212/region-db/internal/utils"
)

// FairFIFO evicts pages in first-touch order, ignoring recency. Experimental
// variant reachable only through the selection override.
type FairFIFO struct {
	mu      sync.Mutex
	store   PageStore
	rec     Reclaimer
	queue   []util.PageID
	present map[util.PageID]struct{}
	started bool
}

func NewFairFIFO(store PageStore, rec Reclaimer) *FairFIFO {
	return &FairFIFO{
		store: store,
		rec:   rec,
	}
}

func (t *FairFIFO) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.queue = nil
	t.present = make(map[util.PageID]struct{})
	t.started = true
	return nil
}

func (t *FairFIFO) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.queue = nil
	t.present = nil
	t.started = false
	return nil
}

// Touch enqueues a page on its first touch only; later touches do not move
// it (that is the "fair" part).
func (t *FairFIFO) Touch(id util.PageID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.started {
		return
	}
	if _, ok := t.present[id]; ok {
		return
	}
	t.present[id] = struct{}{}
	t.queue = append(t.queue, id)
}

// Forget leaves the queue entry in place; EvictDataPage skips entries no
// longer in the present set.
func (t *FairFIFO) Forget(id util.PageID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.started {
		return
	}
	delete(t.present, id)
}

func (t *FairFIFO) EvictDataPage() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.started {
		return util.ErrTrackerStopped
	}

	for len(t.queue) > 0 {
		id := t.queue[0]
		t.queue = t.queue[1:]

		if _, ok := t.present[id]; !ok {
			continue
		}
		delete(t.present, id)

		if err := t.store.FreePage(id); err != nil {
			return fmt.Errorf("[eviction] evict page %d: %w", id, err)
		}
		t.rec.AddEmptyPage(id)
		return nil
	}

	return util.ErrNothingToEvict
}
