package util

import (
	"fmt"
	"math/bits"
)

// PageID represents a unique page identifier within one region
type PageID uint64

const (
	KiB int64 = 1024
	MiB int64 = 1024 * KiB
	GiB int64 = 1024 * MiB
)

// DefaultPageSize is the standard page size (4KB)
const DefaultPageSize = 4096

const (
	// MinRegionSize is the floor for any region's initial size.
	MinRegionSize = 10 * MiB

	// Max32BitRegionSize caps a region's initial size on 32-bit hosts.
	Max32BitRegionSize = 2 * GiB

	// MaxMapSize caps a single mapped segment.
	MaxMapSize = 8 * GiB
)

// Defaults applied to region configurations left unset.
const (
	DefaultRegionInitialSize       = 256 * MiB
	DefaultRegionMaxSize           = 1 * GiB
	DefaultSystemRegionInitialSize = 40 * MiB
	DefaultSystemRegionMaxSize     = 100 * MiB
	DefaultRateTimeInterval        = 60_000 // milliseconds
	DefaultSubIntervals            = 5
	DefaultEvictionThreshold       = 0.9
	DefaultEmptyPagesPoolSize      = 100
)

// Is32BitHost reports whether the process runs with a 32-bit address space.
func Is32BitHost() bool {
	return bits.UintSize == 32
}

// ReadableSize renders a byte count like "10.0 MiB" for error messages.
func ReadableSize(bytes int64) string {
	switch {
	case bytes >= GiB:
		return fmt.Sprintf("%.1f GiB", float64(bytes)/float64(GiB))
	case bytes >= MiB:
		return fmt.Sprintf("%.1f MiB", float64(bytes)/float64(MiB))
	case bytes >= KiB:
		return fmt.Sprintf("%.1f KiB", float64(bytes)/float64(KiB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
