package pagemem

import (
	"fmt"
	"sync"
	"sync/atomic"

	util "github.com/bietkhonhungvandi212/region-db/internal/utils"
)

// PageMemory is one region's page budget accountant. Backing may be
// anonymous process memory or a memory-mapped swap file; either way the
// region only ever sees page identifiers and counts.
type PageMemory interface {
	Start() error
	Stop() error
	// AllocatePage reserves a fresh page. Recycled pages go through
	// AcquirePage instead.
	AllocatePage() (util.PageID, error)
	// AcquirePage makes a previously freed page resident again.
	AcquirePage(id util.PageID) error
	// FreePage releases a resident page back to the memory.
	FreePage(id util.PageID) error
	// LoadedPages is the current resident page count.
	LoadedPages() int64
	SystemPageSize() int
}

// Provider supplies raw memory segments to a NoStore.
type Provider interface {
	Start() error
	NextSegment(size int64) ([]byte, error)
	Stop() error
}

// NoStore is the non-persistent PageMemory: pages live only in memory and
// are lost on Stop. Segments grow lazily from the initial size up to the max
// byte budget.
type NoStore struct {
	name        string
	pageSize    int
	initialSize int64
	maxSize     int64
	provider    Provider

	mu       sync.Mutex
	segments [][]byte
	mapped   int64
	nextIdx  uint64
	freed    map[util.PageID]struct{}
	started  bool

	loaded atomic.Int64
}

func NewNoStore(name string, initialSize, maxSize int64, pageSize int, prov Provider) *NoStore {
	if pageSize <= 0 {
		panic(util.ErrInvalidPageSize)
	}
	if initialSize <= 0 || maxSize < initialSize {
		panic(fmt.Sprintf("[pagemem] invalid region sizes init=%d max=%d", initialSize, maxSize))
	}

	return &NoStore{
		name:        name,
		pageSize:    pageSize,
		initialSize: initialSize,
		maxSize:     maxSize,
		provider:    prov,
		freed:       make(map[util.PageID]struct{}),
	}
}

// CapacityPages is the hard page budget derived from the max size.
func (m *NoStore) CapacityPages() int64 {
	return m.maxSize / int64(m.pageSize)
}

func (m *NoStore) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return util.ErrMemoryStarted
	}

	if err := m.provider.Start(); err != nil {
		return fmt.Errorf("[pagemem] start provider for region %q: %w", m.name, err)
	}

	if err := m.growLocked(m.initialSize); err != nil {
		m.provider.Stop()
		return err
	}

	m.started = true
	return nil
}

func (m *NoStore) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.started {
		return nil // Idempotent
	}

	m.started = false
	m.segments = nil
	m.mapped = 0
	m.nextIdx = 0
	m.freed = make(map[util.PageID]struct{})
	m.loaded.Store(0)

	if err := m.provider.Stop(); err != nil {
		return fmt.Errorf("[pagemem] stop provider for region %q: %w", m.name, err)
	}
	return nil
}

func (m *NoStore) AllocatePage() (util.PageID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.started {
		return 0, util.ErrMemoryNotStarted
	}
	if int64(m.nextIdx) >= m.CapacityPages() {
		return 0, fmt.Errorf("[pagemem] region %q: %w", m.name, util.ErrRegionExhausted)
	}

	needed := (int64(m.nextIdx) + 1) * int64(m.pageSize)
	if needed > m.mapped {
		step := m.initialSize
		if remaining := m.maxSize - m.mapped; step > remaining {
			step = remaining
		}
		if err := m.growLocked(step); err != nil {
			return 0, err
		}
	}

	id := util.PageID(m.nextIdx)
	m.nextIdx++
	m.loaded.Add(1)
	return id, nil
}

func (m *NoStore) AcquirePage(id util.PageID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.started {
		return util.ErrMemoryNotStarted
	}
	if uint64(id) >= m.nextIdx {
		return fmt.Errorf("[pagemem] acquire page %d: %w", id, util.ErrInvalidPageId)
	}
	if _, ok := m.freed[id]; !ok {
		return fmt.Errorf("[pagemem] acquire page %d: %w", id, util.ErrPageNotFree)
	}

	delete(m.freed, id)
	m.loaded.Add(1)
	return nil
}

func (m *NoStore) FreePage(id util.PageID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.started {
		return util.ErrMemoryNotStarted
	}
	if uint64(id) >= m.nextIdx {
		return fmt.Errorf("[pagemem] free page %d: %w", id, util.ErrInvalidPageId)
	}
	if _, ok := m.freed[id]; ok {
		return fmt.Errorf("[pagemem] free page %d: %w", id, util.ErrPageAlreadyFree)
	}

	m.freed[id] = struct{}{}
	m.loaded.Add(-1)
	return nil
}

func (m *NoStore) LoadedPages() int64 {
	return m.loaded.Load()
}

func (m *NoStore) SystemPageSize() int {
	return m.pageSize
}

// growLocked maps one more segment. Caller holds m.mu.
func (m *NoStore) growLocked(size int64) error {
	if size <= 0 {
		return util.ErrInvalidSegmentSize
	}

	seg, err := m.provider.NextSegment(size)
	if err != nil {
		return fmt.Errorf("[pagemem] grow region %q by %s: %w", m.name, util.ReadableSize(size), err)
	}

	m.segments = append(m.segments, seg)
	m.mapped += int64(len(seg))
	return nil
}
