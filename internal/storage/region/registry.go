package region

import (
	"fmt"
	"log"
	"sort"

	"github.com/bietkhonhungvandi212/region-db/internal/config"
	"github.com/bietkhonhungvandi212/region-db/internal/storage/eviction"
	"github.com/bietkhonhungvandi212/region-db/internal/storage/freelist"
	"github.com/bietkhonhungvandi212/region-db/internal/storage/metrics"
	"github.com/bietkhonhungvandi212/region-db/internal/storage/pagemem"
	util "github.com/bietkhonhungvandi212/region-db/internal/utils"
	"github.com/google/uuid"
)

// Options carries the activation knobs that are not part of the memory
// configuration itself.
type Options struct {
	// PersistenceEnabled marks every region as persistence-backed: page
	// reclamation is then delegated to the persistence subsystem and all
	// regions get the no-op eviction tracker.
	PersistenceEnabled bool

	// OverrideFairFifoEviction substitutes the experimental fair-FIFO
	// tracker for any enabled eviction mode.
	OverrideFairFifoEviction bool

	// ConsistentID names this node's swap folder. Generated when empty.
	ConsistentID string
}

// Registry owns every active Region. Activate builds it, Deactivate consumes
// it; activation and deactivation must run on a single control-plane
// goroutine, while lookups may run concurrently with each other.
type Registry struct {
	pageSize     int
	opts         Options
	consistentID string

	regions      map[string]*Region
	freeLists    map[string]*freelist.List
	dflt         *Region
	dfltFreeList *freelist.List
}

// Activate validates the configuration and materializes one Region per
// validated config, plus the synthesized default region when none is
// configured and the reserved system region. All page memories and eviction
// trackers are started before Activate returns; on any start failure the
// already-started regions are stopped again.
func Activate(cfg *config.MemoryConfig, opts Options) (*Registry, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	reg := &Registry{
		pageSize:     cfg.PageSize,
		opts:         opts,
		consistentID: opts.ConsistentID,
		regions:      make(map[string]*Region, len(cfg.Regions)+2),
		freeLists:    make(map[string]*freelist.List, len(cfg.Regions)+2),
	}
	if reg.consistentID == "" {
		reg.consistentID = uuid.New().String()
	}

	for _, rc := range regionConfigSet(cfg) {
		if err := reg.addRegion(cfg, rc); err != nil {
			return nil, err
		}
	}

	if reg.dflt == nil {
		// Validation guarantees the default name resolves; reaching here is
		// a programming error in the derivation above.
		panic(fmt.Sprintf("[registry] default region %q was not materialized", cfg.DefaultRegionName))
	}

	if err := reg.startRegions(); err != nil {
		return nil, err
	}

	for name := range reg.regions {
		reg.freeLists[name] = freelist.New(name, cfg.PageSize)
		reg.regions[name].freeList = reg.freeLists[name]
	}
	reg.dfltFreeList = reg.freeLists[reg.dflt.Name()]

	return reg, nil
}

// regionConfigSet derives the full region set: user regions, a synthesized
// canonical default when no user region is (or is named as) the default, and
// the reserved system region.
func regionConfigSet(cfg *config.MemoryConfig) []config.RegionConfig {
	var set []config.RegionConfig

	if len(cfg.Regions) == 0 {
		log.Printf("[registry] no user-defined regions; default region of %s max size will be used",
			util.ReadableSize(cfg.DefaultRegion().MaxSize))
		set = append(set, cfg.DefaultRegion())
	} else {
		if cfg.DefaultRegionName == config.DefaultRegionName && !cfg.HasCustomDefaultRegion() {
			log.Printf("[registry] no user-defined default region; default region of %s max size will be used",
				util.ReadableSize(cfg.DefaultRegion().MaxSize))
			set = append(set, cfg.DefaultRegion())
		}
		set = append(set, cfg.Regions...)
	}

	return append(set, cfg.SystemRegion())
}

func (reg *Registry) addRegion(cfg *config.MemoryConfig, rc config.RegionConfig) error {
	name := rc.Name

	provider := metrics.NewFillFactorProvider(func() metrics.FillFactorSource {
		if fl, ok := reg.freeLists[name]; ok {
			return fl
		}
		return nil
	})

	mm := metrics.New(name, rc.RateTimeInterval, rc.SubIntervals, provider)
	if rc.MetricsEnabled {
		mm.EnableMetrics()
	}

	var prov pagemem.Provider
	if rc.SwapFilePath != "" {
		dir := pagemem.ResolveSwapDir(rc.SwapFilePath, reg.consistentID, name)
		prov = pagemem.NewMappedFileProvider(dir)
	} else {
		prov = pagemem.NewHeapProvider()
	}

	mem := pagemem.NewNoStore(name, rc.InitialSize, rc.MaxSize, cfg.PageSize, prov)

	r := &Region{cfg: rc, pageMem: mem, metrics: mm, persistent: reg.opts.PersistenceEnabled}
	r.tracker = eviction.ForConfig(rc, cfg.PageSize, reg.opts.PersistenceEnabled, reg.opts.OverrideFairFifoEviction, mem, r)

	reg.regions[name] = r

	if name == cfg.DefaultRegionName {
		reg.dflt = r
	} else if name == config.DefaultRegionName {
		log.Printf("[registry] region named %q is not used as the default; check the default_region_name setting",
			config.DefaultRegionName)
	}

	return nil
}

func (reg *Registry) startRegions() error {
	var started []*Region

	for _, name := range reg.regionNames() {
		r := reg.regions[name]
		if err := r.pageMem.Start(); err != nil {
			reg.stopRegions(started)
			return fmt.Errorf("[registry] start page memory for region %q: %w", name, err)
		}
		if err := r.tracker.Start(); err != nil {
			if stopErr := r.pageMem.Stop(); stopErr != nil {
				log.Printf("[registry] stop page memory for region %q: %v", name, stopErr)
			}
			reg.stopRegions(started)
			return fmt.Errorf("[registry] start eviction tracker for region %q: %w", name, err)
		}
		started = append(started, r)
	}
	return nil
}

func (reg *Registry) stopRegions(regions []*Region) {
	for _, r := range regions {
		if err := r.pageMem.Stop(); err != nil {
			log.Printf("[registry] stop page memory for region %q: %v", r.Name(), err)
		}
		if err := r.tracker.Stop(); err != nil {
			log.Printf("[registry] stop eviction tracker for region %q: %v", r.Name(), err)
		}
	}
}

func (reg *Registry) regionNames() []string {
	names := make([]string, 0, len(reg.regions))
	for name := range reg.regions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup resolves a region by name; the empty name resolves to the default
// region. A miss is ErrRegionNotFound, distinct from the inactive-registry
// precondition failure.
func (reg *Registry) Lookup(name string) (*Region, error) {
	if reg == nil || reg.regions == nil {
		return nil, util.ErrRegistryInactive
	}
	if name == "" {
		return reg.dflt, nil
	}
	r, ok := reg.regions[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", util.ErrRegionNotFound, name)
	}
	return r, nil
}

// DefaultRegion returns the region the empty name resolves to.
func (reg *Registry) DefaultRegion() *Region {
	if reg == nil {
		return nil
	}
	return reg.dflt
}

// Regions lists every active region in name order.
func (reg *Registry) Regions() []*Region {
	if reg == nil || reg.regions == nil {
		return nil
	}
	out := make([]*Region, 0, len(reg.regions))
	for _, name := range reg.regionNames() {
		out = append(out, reg.regions[name])
	}
	return out
}

// FreeList resolves a region's free list; empty name means the default
// region's.
func (reg *Registry) FreeList(name string) (freelist.FreeList, error) {
	if reg == nil || reg.freeLists == nil {
		return nil, util.ErrRegistryInactive
	}
	if name == "" {
		return reg.dfltFreeList, nil
	}
	fl, ok := reg.freeLists[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", util.ErrRegionNotFound, name)
	}
	return fl, nil
}

// ReuseList is the recycle-only view of the same per-region structure.
func (reg *Registry) ReuseList(name string) (freelist.ReuseList, error) {
	return reg.FreeList(name)
}

// EnsureFreeSpace drives a region back under its byte budget before a page
// allocation proceeds. A nil region is a no-op, as is any region whose
// eviction mode is disabled.
func (reg *Registry) EnsureFreeSpace(r *Region) error {
	if r == nil {
		return nil
	}
	return r.ensureFreeSpace()
}

// MetricsSnapshot returns a detached copy of one region's counters.
func (reg *Registry) MetricsSnapshot(name string) (metrics.Snapshot, error) {
	r, err := reg.Lookup(name)
	if err != nil {
		return metrics.Snapshot{}, err
	}
	return r.metrics.Snapshot(), nil
}

// MetricsSnapshots returns detached copies for every region, in name order.
func (reg *Registry) MetricsSnapshots() []metrics.Snapshot {
	if reg == nil || reg.regions == nil {
		return nil
	}
	out := make([]metrics.Snapshot, 0, len(reg.regions))
	for _, name := range reg.regionNames() {
		out = append(out, reg.regions[name].metrics.Snapshot())
	}
	return out
}

// PageSize is the system page size shared by all regions.
func (reg *Registry) PageSize() int {
	return reg.pageSize
}

// SystemRegionName returns the reserved name of the internal region.
func (reg *Registry) SystemRegionName() string {
	return config.SystemRegionName
}

// DumpStatistics logs a free-list occupancy line per region.
func (reg *Registry) DumpStatistics() {
	if reg == nil || reg.freeLists == nil {
		return
	}
	for _, name := range reg.regionNames() {
		log.Printf("[registry] %s", reg.freeLists[name].Stats())
	}
}

// Deactivate stops every region's page memory and eviction tracker, then
// discards the map. Safe to call twice; the map is cleared last so that a
// racing lookup fails cleanly rather than observing a half-stopped region
// (callers still must serialize deactivation against lookups).
func (reg *Registry) Deactivate() {
	if reg == nil || reg.regions == nil {
		return
	}

	reg.stopRegions(reg.Regions())

	reg.freeLists = nil
	reg.dflt = nil
	reg.dfltFreeList = nil
	reg.regions = nil
}
