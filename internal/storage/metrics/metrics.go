package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// FillFactorSource is the free-list view the fill-factor gauge reads.
type FillFactorSource interface {
	FillFactor() (used, total uint64)
}

// FillFactorProvider resolves its region's free list on first use and caches
// the handle. Until the free list exists (activation builds free lists after
// metrics), Value reports 0.
type FillFactorProvider struct {
	mu      sync.Mutex
	resolve func() FillFactorSource
	src     FillFactorSource
}

func NewFillFactorProvider(resolve func() FillFactorSource) *FillFactorProvider {
	return &FillFactorProvider{resolve: resolve}
}

func (p *FillFactorProvider) Value() float64 {
	p.mu.Lock()
	if p.src == nil {
		p.src = p.resolve()
	}
	src := p.src
	p.mu.Unlock()

	if src == nil {
		return 0
	}

	used, total := src.FillFactor()
	if total == 0 {
		return 0
	}
	return float64(used) / float64(total)
}

// Metrics holds one region's live counters. Updates are atomic; readers get
// point-in-time values and Snapshot returns a fully detached copy.
type Metrics struct {
	name                string
	enabled             atomic.Bool
	totalAllocatedPages atomic.Int64
	largeEntriesPages   atomic.Int64
	allocRate           *rateMeter
	fillFactor          *FillFactorProvider
}

func New(name string, rateTimeIntervalMs int64, subIntervals int, fillFactor *FillFactorProvider) *Metrics {
	m := &Metrics{
		name:       name,
		allocRate:  newRateMeter(rateTimeIntervalMs, subIntervals, time.Now),
		fillFactor: fillFactor,
	}
	return m
}

func (m *Metrics) Name() string {
	return m.name
}

func (m *Metrics) EnableMetrics() {
	m.enabled.Store(true)
}

func (m *Metrics) DisableMetrics() {
	m.enabled.Store(false)
}

func (m *Metrics) OnPageAllocated() {
	if !m.enabled.Load() {
		return
	}
	m.totalAllocatedPages.Add(1)
	m.allocRate.onHit()
}

func (m *Metrics) OnPageFreed() {
	if !m.enabled.Load() {
		return
	}
	m.totalAllocatedPages.Add(-1)
}

func (m *Metrics) OnLargeEntryPageAllocated() {
	if !m.enabled.Load() {
		return
	}
	m.largeEntriesPages.Add(1)
}

func (m *Metrics) TotalAllocatedPages() int64 {
	return m.totalAllocatedPages.Load()
}

// AllocationRate is pages allocated per second over the rate window.
func (m *Metrics) AllocationRate() float64 {
	return m.allocRate.rate()
}

func (m *Metrics) PagesFillFactor() float64 {
	if m.fillFactor == nil {
		return 0
	}
	return m.fillFactor.Value()
}

// Snapshot is an immutable point-in-time copy of a region's counters.
type Snapshot struct {
	Name                   string
	TotalAllocatedPages    int64
	AllocationRate         float64
	LargeEntriesPagesCount int64
	PagesFillFactor        float64
}

func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		Name:                   m.name,
		TotalAllocatedPages:    m.totalAllocatedPages.Load(),
		AllocationRate:         m.allocRate.rate(),
		LargeEntriesPagesCount: m.largeEntriesPages.Load(),
		PagesFillFactor:        m.PagesFillFactor(),
	}
}
