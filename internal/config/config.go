package config

import (
	"fmt"

	util "github.com/bietkhonhungvandi212/region-db/internal/utils"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultRegionName is the canonical name of the default memory region.
	DefaultRegionName = "default"

	// SystemRegionName is reserved for engine-internal bookkeeping and must
	// not be used for user regions.
	SystemRegionName = "sysMemPlc"
)

// EvictionMode selects the data-page eviction algorithm for a region.
type EvictionMode int

const (
	EvictionDisabled EvictionMode = iota
	EvictionRandomLRU
	EvictionRandom2LRU
)

func (m EvictionMode) String() string {
	switch m {
	case EvictionDisabled:
		return "disabled"
	case EvictionRandomLRU:
		return "random-lru"
	case EvictionRandom2LRU:
		return "random-2-lru"
	default:
		return fmt.Sprintf("eviction-mode(%d)", int(m))
	}
}

// ParseEvictionMode maps a configuration string to an EvictionMode.
func ParseEvictionMode(s string) (EvictionMode, error) {
	switch s {
	case "", "disabled":
		return EvictionDisabled, nil
	case "random-lru":
		return EvictionRandomLRU, nil
	case "random-2-lru":
		return EvictionRandom2LRU, nil
	default:
		return EvictionDisabled, fmt.Errorf("unknown eviction mode %q", s)
	}
}

func (m *EvictionMode) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	mode, err := ParseEvictionMode(s)
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

func (m EvictionMode) MarshalYAML() (interface{}, error) {
	return m.String(), nil
}

// RegionConfig describes one memory region. Treated as immutable after
// Validate normalizes it.
type RegionConfig struct {
	// Name must be unique across the region set.
	Name string `yaml:"name"`

	// InitialSize is the initially reserved byte budget. Zero means "use the
	// global default"; Validate may lower it to MaxSize (see checkRegionSize).
	InitialSize int64 `yaml:"initial_size"`

	// MaxSize is the hard byte budget of the region.
	MaxSize int64 `yaml:"max_size"`

	// EvictionMode selects the eviction tracker variant.
	EvictionMode EvictionMode `yaml:"eviction_mode"`

	// EvictionThreshold is the fraction of capacity above which the
	// admission controller starts evicting. Meaningful only when
	// EvictionMode is not disabled; must lie in [0.5, 0.999].
	EvictionThreshold float64 `yaml:"eviction_threshold"`

	// EmptyPagesPoolSize is the reserve of immediately reusable pages the
	// region keeps before eviction stops.
	EmptyPagesPoolSize int `yaml:"empty_pages_pool_size"`

	// SwapFilePath, when set, backs the region with a memory-mapped file
	// under this directory instead of anonymous memory.
	SwapFilePath string `yaml:"swap_file_path"`

	// RateTimeInterval is the metrics rate window in milliseconds.
	RateTimeInterval int64 `yaml:"rate_time_interval_ms"`

	// SubIntervals is the number of buckets the rate window is split into.
	SubIntervals int `yaml:"sub_intervals"`

	// MetricsEnabled turns per-region counters on.
	MetricsEnabled bool `yaml:"metrics_enabled"`
}

// NewRegionConfig returns a region config with every optional knob at its
// default, sized by the global defaults.
func NewRegionConfig(name string) RegionConfig {
	return RegionConfig{
		Name:               name,
		InitialSize:        util.DefaultRegionInitialSize,
		MaxSize:            util.DefaultRegionMaxSize,
		EvictionMode:       EvictionDisabled,
		EvictionThreshold:  util.DefaultEvictionThreshold,
		EmptyPagesPoolSize: util.DefaultEmptyPagesPoolSize,
		RateTimeInterval:   util.DefaultRateTimeInterval,
		SubIntervals:       util.DefaultSubIntervals,
	}
}

// applyDefaults fills the zero-valued knobs a hand-built or yaml-decoded
// record may have left unset. Sizes stay untouched: the validator owns their
// defaulting rules.
func (rc *RegionConfig) applyDefaults() {
	if rc.EvictionThreshold == 0 {
		rc.EvictionThreshold = util.DefaultEvictionThreshold
	}
	if rc.EmptyPagesPoolSize == 0 {
		rc.EmptyPagesPoolSize = util.DefaultEmptyPagesPoolSize
	}
	if rc.RateTimeInterval == 0 {
		rc.RateTimeInterval = util.DefaultRateTimeInterval
	}
	if rc.SubIntervals == 0 {
		rc.SubIntervals = util.DefaultSubIntervals
	}
}

// MemoryConfig is the global configuration surface: one page-size default,
// the default-region knobs, the system-region sizes and the user region set.
type MemoryConfig struct {
	// PageSize applies to every region. Zero defaults to util.DefaultPageSize.
	PageSize int `yaml:"page_size"`

	// DefaultRegionName selects which configured region is the default.
	// Empty resolves to DefaultRegionName ("default").
	DefaultRegionName string `yaml:"default_region_name"`

	// DefaultRegionSize overrides the max size of the synthesized default
	// region. Zero means "no override"; a non-zero value conflicts with a
	// user-defined default region.
	DefaultRegionSize int64 `yaml:"default_region_size"`

	SystemRegionInitialSize int64 `yaml:"system_region_initial_size"`
	SystemRegionMaxSize     int64 `yaml:"system_region_max_size"`

	Regions []RegionConfig `yaml:"regions"`
}

// Default returns the global configuration with no user regions.
func Default() *MemoryConfig {
	return &MemoryConfig{
		PageSize:                util.DefaultPageSize,
		DefaultRegionName:       DefaultRegionName,
		SystemRegionInitialSize: util.DefaultSystemRegionInitialSize,
		SystemRegionMaxSize:     util.DefaultSystemRegionMaxSize,
	}
}

// DefaultRegion synthesizes the canonical default region for this config,
// honoring the DefaultRegionSize override.
func (c *MemoryConfig) DefaultRegion() RegionConfig {
	rc := NewRegionConfig(DefaultRegionName)
	if c.DefaultRegionSize != 0 {
		rc.MaxSize = c.DefaultRegionSize
	}
	if rc.InitialSize > rc.MaxSize {
		rc.InitialSize = rc.MaxSize
	}
	return rc
}

// SystemRegion builds the reserved region for engine-internal structures.
func (c *MemoryConfig) SystemRegion() RegionConfig {
	rc := NewRegionConfig(SystemRegionName)
	rc.InitialSize = c.SystemRegionInitialSize
	rc.MaxSize = c.SystemRegionMaxSize
	return rc
}

// HasCustomDefaultRegion reports whether the user region set already carries
// a region with the canonical default name.
func (c *MemoryConfig) HasCustomDefaultRegion() bool {
	for i := range c.Regions {
		if c.Regions[i].Name == DefaultRegionName {
			return true
		}
	}
	return false
}
