package freelist

import (
	"fmt"
	"sync"

	util "github.com/bietkhonhungvandi212/region-db/internal/utils"
)

// FreeList reports the reuse state of one region's data pages.
type FreeList interface {
	// EmptyDataPages is the count of pages holding zero live records,
	// immediately available for reuse.
	EmptyDataPages() int
	// FillFactor returns used and total payload units across tracked pages.
	// Total of zero means nothing is tracked yet.
	FillFactor() (used, total uint64)
	AddEmptyPage(id util.PageID)
	TakeEmptyPage() (util.PageID, bool)
	OnPageUsed(id util.PageID, usedBytes int)
}

// ReuseList is the recycle-only view of the same structure.
type ReuseList interface {
	AddEmptyPage(id util.PageID)
	TakeEmptyPage() (util.PageID, bool)
}

// List is the in-memory free/reuse list of a single region. Safe for
// concurrent use; readers of the counters tolerate eventually-consistent
// values by contract.
type List struct {
	mu       sync.Mutex
	name     string
	pageSize int
	pages    map[util.PageID]int      // known page -> live payload bytes
	empty    map[util.PageID]struct{} // subset with zero live payload
	used     uint64
}

func New(name string, pageSize int) *List {
	if pageSize <= 0 {
		panic(util.ErrInvalidPageSize)
	}
	return &List{
		name:     name,
		pageSize: pageSize,
		pages:    make(map[util.PageID]int),
		empty:    make(map[util.PageID]struct{}),
	}
}

// OnPageUsed records the live payload of a page. Zero payload moves the page
// into the empty set.
func (l *List) OnPageUsed(id util.PageID, usedBytes int) {
	if usedBytes < 0 || usedBytes > l.pageSize {
		panic(fmt.Sprintf("[freelist] [OnPageUsed] payload %d out of page bounds", usedBytes))
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	prev := l.pages[id]
	l.pages[id] = usedBytes
	l.used += uint64(usedBytes) - uint64(prev)

	if usedBytes == 0 {
		l.empty[id] = struct{}{}
	} else {
		delete(l.empty, id)
	}
}

// AddEmptyPage returns an evicted page's slot to the reuse pool.
func (l *List) AddEmptyPage(id util.PageID) {
	l.OnPageUsed(id, 0)
}

// TakeEmptyPage hands out one reusable page, if any.
func (l *List) TakeEmptyPage() (util.PageID, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for id := range l.empty {
		delete(l.empty, id)
		delete(l.pages, id)
		return id, true
	}
	return 0, false
}

// Drop forgets a page entirely (page left the region).
func (l *List) Drop(id util.PageID) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if prev, ok := l.pages[id]; ok {
		l.used -= uint64(prev)
		delete(l.pages, id)
		delete(l.empty, id)
	}
}

func (l *List) EmptyDataPages() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.empty)
}

func (l *List) FillFactor() (used, total uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.used, uint64(len(l.pages)) * uint64(l.pageSize)
}

// Stats renders a one-line occupancy summary for statistics dumps.
func (l *List) Stats() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fmt.Sprintf("free list %q: pages=%d empty=%d usedBytes=%d", l.name, len(l.pages), len(l.empty), l.used)
}
