package pagemem

import (
	"testing"

	util "github.com/bietkhonhungvandi212/region-db/internal/utils"
	"github.com/stretchr/testify/assert"
)

const testPageSize = 4096

func newTestMemory(initPages, maxPages int64) *NoStore {
	return NewNoStore("test", initPages*testPageSize, maxPages*testPageSize, testPageSize, NewHeapProvider())
}

func TestNoStoreLifecycle(t *testing.T) {
	mem := newTestMemory(4, 8)

	t.Run("NotStarted", func(t *testing.T) {
		_, err := mem.AllocatePage()
		assert.ErrorIs(t, err, util.ErrMemoryNotStarted)
		assert.ErrorIs(t, mem.FreePage(0), util.ErrMemoryNotStarted)
	})

	t.Run("StartTwice", func(t *testing.T) {
		assert.NoError(t, mem.Start())
		assert.ErrorIs(t, mem.Start(), util.ErrMemoryStarted)
	})

	t.Run("StopIdempotent", func(t *testing.T) {
		assert.NoError(t, mem.Stop())
		assert.NoError(t, mem.Stop())
		assert.Zero(t, mem.LoadedPages())
	})
}

func TestNoStoreAllocate(t *testing.T) {
	mem := newTestMemory(2, 4)
	assert.NoError(t, mem.Start())
	defer mem.Stop()

	t.Run("SequentialIDs", func(t *testing.T) {
		for i := int64(0); i < 4; i++ {
			id, err := mem.AllocatePage()
			assert.NoError(t, err, "alloc %d", i)
			assert.Equal(t, util.PageID(i), id)
		}
		assert.Equal(t, int64(4), mem.LoadedPages())
	})

	t.Run("Exhausted", func(t *testing.T) {
		_, err := mem.AllocatePage()
		assert.ErrorIs(t, err, util.ErrRegionExhausted)
	})

	t.Run("GrowthBeyondInitial", func(t *testing.T) {
		// Pages 2 and 3 sit past the initial two-page segment.
		assert.Equal(t, int64(4*testPageSize), mem.mapped)
		assert.Len(t, mem.segments, 2)
	})
}

func TestNoStoreFreeAcquire(t *testing.T) {
	mem := newTestMemory(4, 4)
	assert.NoError(t, mem.Start())
	defer mem.Stop()

	id, err := mem.AllocatePage()
	assert.NoError(t, err)

	t.Run("FreeDropsLoaded", func(t *testing.T) {
		assert.NoError(t, mem.FreePage(id))
		assert.Zero(t, mem.LoadedPages())
	})

	t.Run("DoubleFree", func(t *testing.T) {
		assert.ErrorIs(t, mem.FreePage(id), util.ErrPageAlreadyFree)
	})

	t.Run("FreeUnknownPage", func(t *testing.T) {
		assert.ErrorIs(t, mem.FreePage(42), util.ErrInvalidPageId)
	})

	t.Run("AcquireFreed", func(t *testing.T) {
		assert.NoError(t, mem.AcquirePage(id))
		assert.Equal(t, int64(1), mem.LoadedPages())
	})

	t.Run("AcquireResident", func(t *testing.T) {
		assert.ErrorIs(t, mem.AcquirePage(id), util.ErrPageNotFree)
	})

	t.Run("AcquireUnknownPage", func(t *testing.T) {
		assert.ErrorIs(t, mem.AcquirePage(42), util.ErrInvalidPageId)
	})
}

func TestNoStoreCapacityPages(t *testing.T) {
	mem := newTestMemory(2, 100)
	assert.Equal(t, int64(100), mem.CapacityPages())
}

func TestNewNoStorePanics(t *testing.T) {
	assert.Panics(t, func() { NewNoStore("t", testPageSize, testPageSize, 0, NewHeapProvider()) })
	assert.Panics(t, func() { NewNoStore("t", 2*testPageSize, testPageSize, testPageSize, NewHeapProvider()) })
	assert.Panics(t, func() { NewNoStore("t", 0, testPageSize, testPageSize, NewHeapProvider()) })
}
