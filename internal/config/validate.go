package config

import (
	"fmt"
	"log"

	util "github.com/bietkhonhungvandi212/region-db/internal/utils"
)

// ConfigError reports a single validation violation, naming the offending
// field and the region it belongs to ("" for global fields).
type ConfigError struct {
	Region string
	Field  string
	Detail string
}

func (e *ConfigError) Error() string {
	if e.Region == "" {
		return fmt.Sprintf("invalid memory configuration [%s]: %s", e.Field, e.Detail)
	}
	return fmt.Sprintf("invalid memory configuration [region=%s, %s]: %s", e.Region, e.Field, e.Detail)
}

// Validate normalizes and validates the whole configuration. Rules run in a
// fixed order, each independently; the first violation is returned as a
// *ConfigError. The two documented auto-corrections (zero page size, zero
// initial size) mutate the config in place.
func Validate(cfg *MemoryConfig) error {
	if err := checkPageSize(cfg); err != nil {
		return err
	}

	if err := checkSystemRegionSize(cfg); err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(cfg.Regions))

	for i := range cfg.Regions {
		rc := &cfg.Regions[i]

		if err := checkRegionName(rc.Name, seen); err != nil {
			return err
		}
		if err := checkRegionSize(rc); err != nil {
			return err
		}
		if err := checkMetricsProperties(rc); err != nil {
			return err
		}
		if err := checkEvictionProperties(rc, cfg.PageSize); err != nil {
			return err
		}
	}

	return checkDefaultRegionConfig(cfg, seen)
}

func checkPageSize(cfg *MemoryConfig) error {
	if cfg.PageSize == 0 {
		cfg.PageSize = util.DefaultPageSize
		return nil
	}
	if cfg.PageSize < 0 {
		return &ConfigError{
			Field:  "page_size",
			Detail: fmt.Sprintf("page size must not be negative, got %d", cfg.PageSize),
		}
	}
	return nil
}

func checkSystemRegionSize(cfg *MemoryConfig) error {
	if cfg.SystemRegionInitialSize == 0 {
		cfg.SystemRegionInitialSize = util.DefaultSystemRegionInitialSize
	}
	if cfg.SystemRegionMaxSize == 0 {
		cfg.SystemRegionMaxSize = util.DefaultSystemRegionMaxSize
	}

	if cfg.SystemRegionInitialSize < util.MinRegionSize {
		return &ConfigError{
			Region: SystemRegionName,
			Field:  "system_region_initial_size",
			Detail: fmt.Sprintf("initial size for system region must be at least %s, got %s",
				util.ReadableSize(util.MinRegionSize), util.ReadableSize(cfg.SystemRegionInitialSize)),
		}
	}

	if util.Is32BitHost() && cfg.SystemRegionInitialSize > util.Max32BitRegionSize {
		return &ConfigError{
			Region: SystemRegionName,
			Field:  "system_region_initial_size",
			Detail: fmt.Sprintf("initial size for system region exceeds %s on a 32-bit host, got %s",
				util.ReadableSize(util.Max32BitRegionSize), util.ReadableSize(cfg.SystemRegionInitialSize)),
		}
	}

	if cfg.SystemRegionMaxSize < cfg.SystemRegionInitialSize {
		return &ConfigError{
			Region: SystemRegionName,
			Field:  "system_region_max_size",
			Detail: fmt.Sprintf("max size of system region must not be smaller than initial size, got init=%s max=%s",
				util.ReadableSize(cfg.SystemRegionInitialSize), util.ReadableSize(cfg.SystemRegionMaxSize)),
		}
	}

	return nil
}

func checkRegionName(name string, seen map[string]struct{}) error {
	if name == "" {
		return &ConfigError{
			Field:  "name",
			Detail: "region must have a non-empty name",
		}
	}
	if _, dup := seen[name]; dup {
		return &ConfigError{
			Region: name,
			Field:  "name",
			Detail: fmt.Sprintf("two regions have the same name %q", name),
		}
	}
	if name == SystemRegionName {
		return &ConfigError{
			Region: name,
			Field:  "name",
			Detail: fmt.Sprintf("region name %q is reserved for internal use", SystemRegionName),
		}
	}
	seen[name] = struct{}{}
	return nil
}

func checkRegionSize(rc *RegionConfig) error {
	defaultedInit := false

	if rc.InitialSize == 0 {
		rc.InitialSize = util.DefaultRegionInitialSize
		defaultedInit = true
	}
	if rc.MaxSize == 0 {
		rc.MaxSize = util.DefaultRegionMaxSize
	}

	if rc.InitialSize < util.MinRegionSize {
		return &ConfigError{
			Region: rc.Name,
			Field:  "initial_size",
			Detail: fmt.Sprintf("region must have size of at least %s, got %s",
				util.ReadableSize(util.MinRegionSize), util.ReadableSize(rc.InitialSize)),
		}
	}

	if rc.MaxSize < rc.InitialSize {
		if !defaultedInit {
			return &ConfigError{
				Region: rc.Name,
				Field:  "max_size",
				Detail: fmt.Sprintf("max size must not be smaller than initial size, got init=%s max=%s",
					util.ReadableSize(rc.InitialSize), util.ReadableSize(rc.MaxSize)),
			}
		}
		// Initial size was defaulted; shrink it to fit.
		log.Printf("[config] region %q max_size=%s is smaller than the default initial size %s, lowering initial_size to %s",
			rc.Name, util.ReadableSize(rc.MaxSize), util.ReadableSize(util.DefaultRegionInitialSize), util.ReadableSize(rc.MaxSize))
		rc.InitialSize = rc.MaxSize
	}

	if util.Is32BitHost() && rc.InitialSize > util.Max32BitRegionSize {
		return &ConfigError{
			Region: rc.Name,
			Field:  "initial_size",
			Detail: fmt.Sprintf("initial size exceeds %s on a 32-bit host, got %s",
				util.ReadableSize(util.Max32BitRegionSize), util.ReadableSize(rc.InitialSize)),
		}
	}

	return nil
}

func checkMetricsProperties(rc *RegionConfig) error {
	if rc.RateTimeInterval <= 0 {
		return &ConfigError{
			Region: rc.Name,
			Field:  "rate_time_interval_ms",
			Detail: fmt.Sprintf("rate time interval must be greater than zero, got %d", rc.RateTimeInterval),
		}
	}
	if rc.SubIntervals <= 0 {
		return &ConfigError{
			Region: rc.Name,
			Field:  "sub_intervals",
			Detail: fmt.Sprintf("sub intervals must be greater than zero, got %d", rc.SubIntervals),
		}
	}
	if rc.RateTimeInterval < 1_000 {
		return &ConfigError{
			Region: rc.Name,
			Field:  "rate_time_interval_ms",
			Detail: fmt.Sprintf("rate time interval must be at least 1000 ms, got %d", rc.RateTimeInterval),
		}
	}
	return nil
}

func checkEvictionProperties(rc *RegionConfig, pageSize int) error {
	if rc.EvictionMode == EvictionDisabled {
		return nil
	}

	if rc.EvictionThreshold < 0.5 || rc.EvictionThreshold > 0.999 {
		return &ConfigError{
			Region: rc.Name,
			Field:  "eviction_threshold",
			Detail: fmt.Sprintf("eviction threshold must be between 0.5 and 0.999, got %g", rc.EvictionThreshold),
		}
	}

	if rc.EmptyPagesPoolSize <= 10 {
		return &ConfigError{
			Region: rc.Name,
			Field:  "empty_pages_pool_size",
			Detail: fmt.Sprintf("empty pages pool size must be greater than 10, got %d", rc.EmptyPagesPoolSize),
		}
	}

	maxPoolSize := rc.MaxSize / int64(pageSize) / 10
	if int64(rc.EmptyPagesPoolSize) >= maxPoolSize {
		return &ConfigError{
			Region: rc.Name,
			Field:  "empty_pages_pool_size",
			Detail: fmt.Sprintf("empty pages pool size must be lesser than %d, got %d", maxPoolSize, rc.EmptyPagesPoolSize),
		}
	}

	return nil
}

func checkDefaultRegionConfig(cfg *MemoryConfig, names map[string]struct{}) error {
	if cfg.DefaultRegionName == "" {
		cfg.DefaultRegionName = DefaultRegionName
	}

	if cfg.DefaultRegionSize != 0 {
		if cfg.DefaultRegionName != DefaultRegionName {
			return &ConfigError{
				Field:  "default_region_size",
				Detail: "default_region_size and a named default region are set at the same time; drop one of them",
			}
		}
		if cfg.DefaultRegionSize < util.MinRegionSize {
			return &ConfigError{
				Field:  "default_region_size",
				Detail: fmt.Sprintf("default region size must be at least %s, got %s",
					util.ReadableSize(util.MinRegionSize), util.ReadableSize(cfg.DefaultRegionSize)),
			}
		}
		if util.Is32BitHost() && cfg.DefaultRegionSize > util.Max32BitRegionSize {
			return &ConfigError{
				Field:  "default_region_size",
				Detail: fmt.Sprintf("default region size exceeds %s on a 32-bit host, got %s",
					util.ReadableSize(util.Max32BitRegionSize), util.ReadableSize(cfg.DefaultRegionSize)),
			}
		}
	}

	if cfg.DefaultRegionName != DefaultRegionName {
		if _, ok := names[cfg.DefaultRegionName]; !ok {
			return &ConfigError{
				Field:  "default_region_name",
				Detail: fmt.Sprintf("default region %q is not present among the configured regions", cfg.DefaultRegionName),
			}
		}
	}

	return nil
}
