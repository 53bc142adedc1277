package util

import "errors"

var (
	ErrRegionNotFound     = errors.New("requested memory region is not configured")
	ErrRegistryInactive   = errors.New("region registry is not active")
	ErrInvalidPageId      = errors.New("invalid page id")
	ErrInvalidPageSize    = errors.New("invalid page size")
	ErrPageNotResident    = errors.New("page is not resident")
	ErrPageNotFree        = errors.New("page is not on the free list")
	ErrPageAlreadyFree    = errors.New("page is already free")
	ErrRegionExhausted    = errors.New("region page capacity exhausted")
	ErrNothingToEvict     = errors.New("no evictable data page")
	ErrTrackerStopped     = errors.New("eviction tracker is not started")
	ErrMemoryNotStarted   = errors.New("page memory is not started")
	ErrMemoryStarted      = errors.New("page memory is already started")
	ErrInvalidSegmentSize = errors.New("segment size must be positive")
	ErrMaxMapSizeExceeded = errors.New("segment exceeds maximum mapping size")
	ErrSwapPathUnresolved = errors.New("cannot resolve swap directory")
)
