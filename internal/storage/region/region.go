package region

import (
	"fmt"

	"github.com/bietkhonhungvandi212/region-db/internal/config"
	"github.com/bietkhonhungvandi212/region-db/internal/storage/eviction"
	"github.com/bietkhonhungvandi212/region-db/internal/storage/freelist"
	"github.com/bietkhonhungvandi212/region-db/internal/storage/metrics"
	"github.com/bietkhonhungvandi212/region-db/internal/storage/pagemem"
	util "github.com/bietkhonhungvandi212/region-db/internal/utils"
)

// Region is one named, independently budgeted pool of pages. It owns exactly
// one page memory, one free list, one eviction tracker and one metrics sink,
// all sharing its lifetime.
type Region struct {
	cfg        config.RegionConfig
	pageMem    pagemem.PageMemory
	tracker    eviction.Tracker
	metrics    *metrics.Metrics
	persistent bool
	freeList   freelist.FreeList // wired after page memories start
}

func (r *Region) Config() config.RegionConfig {
	return r.cfg
}

func (r *Region) Name() string {
	return r.cfg.Name
}

func (r *Region) PageMemory() pagemem.PageMemory {
	return r.pageMem
}

func (r *Region) EvictionTracker() eviction.Tracker {
	return r.tracker
}

func (r *Region) Metrics() *metrics.Metrics {
	return r.metrics
}

// AddEmptyPage satisfies eviction.Reclaimer: trackers hand evicted slots
// back through the region so they land on whichever free list the region
// ends up wired to.
func (r *Region) AddEmptyPage(id util.PageID) {
	if r.freeList != nil {
		r.freeList.AddEmptyPage(id)
	}
}

// AllocateDataPage admits one page allocation: it runs the eviction loop
// first, then reuses an empty page if the free list has one, growing the
// page memory otherwise.
func (r *Region) AllocateDataPage() (util.PageID, error) {
	if err := r.ensureFreeSpace(); err != nil {
		return 0, err
	}

	if id, ok := r.freeList.TakeEmptyPage(); ok {
		if err := r.pageMem.AcquirePage(id); err != nil {
			return 0, fmt.Errorf("[region] [AllocateDataPage] reuse page %d in %q: %w", id, r.cfg.Name, err)
		}
		r.onPageAllocated(id)
		return id, nil
	}

	id, err := r.pageMem.AllocatePage()
	if err != nil {
		return 0, fmt.Errorf("[region] [AllocateDataPage] grow %q: %w", r.cfg.Name, err)
	}
	r.onPageAllocated(id)
	return id, nil
}

// FreeDataPage releases a data page back to the region's reuse pool. The
// tracker forgets the page so the admission loop cannot pick an already-free
// slot as victim.
func (r *Region) FreeDataPage(id util.PageID) error {
	if err := r.pageMem.FreePage(id); err != nil {
		return fmt.Errorf("[region] [FreeDataPage] page %d in %q: %w", id, r.cfg.Name, err)
	}
	r.tracker.Forget(id)
	r.freeList.AddEmptyPage(id)
	r.metrics.OnPageFreed()
	return nil
}

func (r *Region) onPageAllocated(id util.PageID) {
	r.freeList.OnPageUsed(id, r.pageMem.SystemPageSize())
	r.tracker.Touch(id)
	r.metrics.OnPageAllocated()
}

// ensureFreeSpace keeps the region under budget before an allocation
// proceeds. It evicts while the region sits over its watermark AND the
// empty-pages reserve is not replenished; either condition failing ends the
// loop. Reads of the two counters are eventually consistent by contract, so
// transient over/undershoot within the in-flight concurrency window is fine.
func (r *Region) ensureFreeSpace() error {
	// Persistence-backed regions reclaim through the persistence subsystem
	// and carry the no-op tracker, which cannot advance this loop.
	if r.cfg.EvictionMode == config.EvictionDisabled || r.persistent {
		return nil
	}

	memorySize := r.cfg.MaxSize
	sysPageSize := r.pageMem.SystemPageSize()
	watermarkPages := float64(memorySize) / float64(sysPageSize) * r.cfg.EvictionThreshold

	for {
		allocated := r.pageMem.LoadedPages()
		emptyPages := r.freeList.EmptyDataPages()

		shouldEvict := float64(allocated) > watermarkPages &&
			emptyPages < r.cfg.EmptyPagesPoolSize

		if !shouldEvict {
			return nil
		}

		if err := r.tracker.EvictDataPage(); err != nil {
			return fmt.Errorf("[region] [ensureFreeSpace] region %q: %w", r.cfg.Name, err)
		}
	}
}
