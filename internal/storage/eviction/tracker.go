package eviction

import (
	"github.com/bietkhonhungvandi212/region-db/internal/config"
	util "github.com/bietkhonhungvandi212/region-db/internal/utils"
)

// PageStore is the slice of page memory a tracker evicts through.
type PageStore interface {
	FreePage(id util.PageID) error
}

// Reclaimer receives the slot of an evicted page.
type Reclaimer interface {
	AddEmptyPage(id util.PageID)
}

// Tracker observes data-page touches for one region and evicts a single
// page on demand. Implementations serialize EvictDataPage internally; Touch
// is safe from any allocating goroutine.
type Tracker interface {
	Start() error
	Stop() error
	// Touch records a page access. Unknown pages are tolerated.
	Touch(id util.PageID)
	// Forget drops a page from tracking when it leaves the region's live
	// set, so an already-freed slot can never be picked as victim.
	Forget(id util.PageID)
	// EvictDataPage removes exactly one page's worth of data and returns its
	// slot to the free list.
	EvictDataPage() error
}

// ForConfig selects the tracker variant for a region. Persistence-backed
// regions always get the no-op tracker: reclamation there belongs to the
// persistence subsystem. The fair-FIFO override substitutes the experimental
// queue-order tracker for any enabled mode.
func ForConfig(
	rc config.RegionConfig,
	pageSize int,
	persistenceEnabled bool,
	overrideFairFifo bool,
	store PageStore,
	rec Reclaimer,
) Tracker {
	if rc.EvictionMode == config.EvictionDisabled || persistenceEnabled {
		return NewNoOp()
	}

	capacity := rc.MaxSize / int64(pageSize)

	if overrideFairFifo {
		return NewFairFIFO(store, rec)
	}

	switch rc.EvictionMode {
	case config.EvictionRandomLRU:
		return NewRandomLRU(store, rec, capacity)
	case config.EvictionRandom2LRU:
		return NewRandom2LRU(store, rec, capacity)
	default:
		return NewNoOp()
	}
}
