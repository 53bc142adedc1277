package eviction

import (
	"math/rand"
	"testing"
	"time"

	"github.com/bietkhonhungvandi212/region-db/internal/config"
	util "github.com/bietkhonhungvandi212/region-db/internal/utils"
	"github.com/stretchr/testify/assert"
)

// seqSource feeds the sampler a fixed index sequence. Int63n hits its
// power-of-two fast path (Int63() & (n-1)) for the capacities used here, so
// every value below maps straight to a sampled index.
type seqSource struct {
	vals []int64
	i    int
}

func (s *seqSource) Int63() int64 {
	v := s.vals[s.i%len(s.vals)]
	s.i++
	return v
}

func (s *seqSource) Seed(int64) {}

type fakeStore struct {
	freed []util.PageID
}

func (s *fakeStore) FreePage(id util.PageID) error {
	s.freed = append(s.freed, id)
	return nil
}

type fakeReclaimer struct {
	reclaimed []util.PageID
}

func (r *fakeReclaimer) AddEmptyPage(id util.PageID) {
	r.reclaimed = append(r.reclaimed, id)
}

func evictingConfig(mode config.EvictionMode) config.RegionConfig {
	rc := config.NewRegionConfig("r")
	rc.EvictionMode = mode
	return rc
}

func TestForConfig(t *testing.T) {
	store := &fakeStore{}
	rec := &fakeReclaimer{}

	cases := []struct {
		name        string
		mode        config.EvictionMode
		persistence bool
		override    bool
		want        interface{}
	}{
		{"Disabled", config.EvictionDisabled, false, false, &NoOp{}},
		{"DisabledWithOverride", config.EvictionDisabled, false, true, &NoOp{}},
		{"PersistenceForcesNoOp", config.EvictionRandomLRU, true, false, &NoOp{}},
		{"RandomLRU", config.EvictionRandomLRU, false, false, &RandomLRU{}},
		{"Random2LRU", config.EvictionRandom2LRU, false, false, &Random2LRU{}},
		{"FairFifoOverride", config.EvictionRandomLRU, false, true, &FairFIFO{}},
		{"FairFifoOverride2LRU", config.EvictionRandom2LRU, false, true, &FairFIFO{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ForConfig(evictingConfig(tc.mode), util.DefaultPageSize, tc.persistence, tc.override, store, rec)
			assert.IsType(t, tc.want, got)
		})
	}
}

func TestNoOp(t *testing.T) {
	n := NewNoOp()
	assert.NoError(t, n.Start())
	n.Touch(1)
	n.Forget(1)
	assert.NoError(t, n.EvictDataPage(), "no-op eviction never fails")
	assert.NoError(t, n.Stop())
}

func TestRandomLRU(t *testing.T) {
	newTracker := func(capacity int64) (*RandomLRU, *fakeStore, *fakeReclaimer, *time.Time) {
		store := &fakeStore{}
		rec := &fakeReclaimer{}
		tr := NewRandomLRU(store, rec, capacity)
		clock := time.Unix(1000, 0)
		tr.now = func() time.Time { return clock }
		assert.NoError(t, tr.Start())
		return tr, store, rec, &clock
	}

	t.Run("NotStarted", func(t *testing.T) {
		tr := NewRandomLRU(&fakeStore{}, &fakeReclaimer{}, 8)
		assert.ErrorIs(t, tr.EvictDataPage(), util.ErrTrackerStopped)
	})

	t.Run("NothingTracked", func(t *testing.T) {
		tr, _, _, _ := newTracker(8)
		assert.ErrorIs(t, tr.EvictDataPage(), util.ErrNothingToEvict)
	})

	t.Run("SingleCandidate", func(t *testing.T) {
		tr, store, rec, _ := newTracker(64)
		tr.Touch(17)
		assert.NoError(t, tr.EvictDataPage())
		assert.Equal(t, []util.PageID{17}, store.freed)
		assert.Equal(t, []util.PageID{17}, rec.reclaimed)
		assert.Zero(t, tr.ts[17], "victim untracked after eviction")
	})

	t.Run("EvictsUntilEmpty", func(t *testing.T) {
		tr, store, _, clock := newTracker(16)
		for id := util.PageID(0); id < 4; id++ {
			tr.Touch(id)
			*clock = clock.Add(time.Second)
		}
		for i := 0; i < 4; i++ {
			assert.NoError(t, tr.EvictDataPage())
		}
		assert.Len(t, store.freed, 4)
		assert.ErrorIs(t, tr.EvictDataPage(), util.ErrNothingToEvict)
	})

	t.Run("OldestSampledTouchWins", func(t *testing.T) {
		tr, store, _, clock := newTracker(2)
		tr.rnd = rand.New(&seqSource{vals: []int64{0, 1}})
		tr.Touch(1)
		*clock = clock.Add(10 * time.Second)
		tr.Touch(0)
		assert.NoError(t, tr.EvictDataPage())
		assert.Equal(t, []util.PageID{1}, store.freed)
	})

	t.Run("FullScanFallback", func(t *testing.T) {
		tr, store, _, _ := newTracker(2)
		// Sampler only ever draws index 0, which stays untracked; the full
		// scan must still find page 1.
		tr.rnd = rand.New(&seqSource{vals: []int64{0}})
		tr.Touch(1)
		assert.NoError(t, tr.EvictDataPage())
		assert.Equal(t, []util.PageID{1}, store.freed)
	})

	t.Run("ForgottenPageNeverEvicted", func(t *testing.T) {
		tr, store, _, clock := newTracker(2)
		tr.rnd = rand.New(&seqSource{vals: []int64{0, 1}})
		tr.Touch(0)
		*clock = clock.Add(10 * time.Second)
		tr.Touch(1)
		tr.Forget(0) // oldest candidate left the live set

		assert.NoError(t, tr.EvictDataPage())
		assert.Equal(t, []util.PageID{1}, store.freed)
		assert.ErrorIs(t, tr.EvictDataPage(), util.ErrNothingToEvict)
	})

	t.Run("TouchOutOfRangeTolerated", func(t *testing.T) {
		tr, _, _, _ := newTracker(4)
		tr.Touch(400)
		tr.Forget(400)
	})

	t.Run("TouchAfterStopTolerated", func(t *testing.T) {
		tr, _, _, _ := newTracker(4)
		assert.NoError(t, tr.Stop())
		tr.Touch(1)
	})
}

func TestRandomLRUCompactTs(t *testing.T) {
	tr := NewRandomLRU(&fakeStore{}, &fakeReclaimer{}, 4)
	clock := time.Unix(1000, 0)
	tr.now = func() time.Time { return clock }
	assert.NoError(t, tr.Start())

	assert.Equal(t, uint32(1), tr.compactTs(), "zero elapsed is still nonzero")
	clock = clock.Add(90 * time.Second)
	assert.Equal(t, uint32(91), tr.compactTs())
}

func TestRandom2LRU(t *testing.T) {
	newTracker := func(capacity int64) (*Random2LRU, *fakeStore, *time.Time) {
		store := &fakeStore{}
		tr := NewRandom2LRU(store, &fakeReclaimer{}, capacity)
		clock := time.Unix(1000, 0)
		tr.now = func() time.Time { return clock }
		assert.NoError(t, tr.Start())
		return tr, store, &clock
	}

	t.Run("ScoreSingleTouch", func(t *testing.T) {
		tr, _, _ := newTracker(4)
		tr.Touch(2)
		score, ok := tr.scoreLocked(2)
		assert.True(t, ok)
		assert.Equal(t, uint32(1), score)

		_, ok = tr.scoreLocked(3)
		assert.False(t, ok, "untouched page has no score")
	})

	t.Run("ScoreIsPenultimateTouch", func(t *testing.T) {
		tr, _, clock := newTracker(4)
		tr.Touch(0) // ts 1
		*clock = clock.Add(10 * time.Second)
		tr.Touch(0) // ts 11
		*clock = clock.Add(10 * time.Second)
		tr.Touch(0) // ts 21, replaces the oldest of (1, 11)

		score, ok := tr.scoreLocked(0)
		assert.True(t, ok)
		assert.Equal(t, uint32(11), score, "second-latest touch ranks the page")
	})

	t.Run("SingleCandidate", func(t *testing.T) {
		tr, store, _ := newTracker(32)
		tr.Touch(9)
		assert.NoError(t, tr.EvictDataPage())
		assert.Equal(t, []util.PageID{9}, store.freed)
		assert.Zero(t, tr.first[9])
		assert.Zero(t, tr.second[9])
	})

	t.Run("RetouchedOutranksScanned", func(t *testing.T) {
		tr, store, clock := newTracker(2)
		tr.rnd = rand.New(&seqSource{vals: []int64{0, 1}})
		tr.Touch(0) // ts 1
		*clock = clock.Add(5 * time.Second)
		tr.Touch(1) // ts 6
		*clock = clock.Add(5 * time.Second)
		tr.Touch(1) // ts 6, 11 -> score 6
		*clock = clock.Add(5 * time.Second)
		tr.Touch(0) // ts 1, 16 -> score 1
		// Page 0's penultimate touch is older, so it goes first.
		assert.NoError(t, tr.EvictDataPage())
		assert.Equal(t, []util.PageID{0}, store.freed)
	})

	t.Run("NothingTracked", func(t *testing.T) {
		tr, _, _ := newTracker(4)
		assert.ErrorIs(t, tr.EvictDataPage(), util.ErrNothingToEvict)
	})

	t.Run("ForgottenPageNeverEvicted", func(t *testing.T) {
		tr, _, _ := newTracker(4)
		tr.Touch(2)
		tr.Touch(2)
		tr.Forget(2)

		_, ok := tr.scoreLocked(2)
		assert.False(t, ok, "both timestamps cleared")
		assert.ErrorIs(t, tr.EvictDataPage(), util.ErrNothingToEvict)
	})
}

func TestFairFIFO(t *testing.T) {
	newTracker := func() (*FairFIFO, *fakeStore, *fakeReclaimer) {
		store := &fakeStore{}
		rec := &fakeReclaimer{}
		tr := NewFairFIFO(store, rec)
		assert.NoError(t, tr.Start())
		return tr, store, rec
	}

	t.Run("FirstTouchOrder", func(t *testing.T) {
		tr, store, _ := newTracker()
		tr.Touch(3)
		tr.Touch(1)
		tr.Touch(2)
		tr.Touch(3) // re-touch must not move it

		for i := 0; i < 3; i++ {
			assert.NoError(t, tr.EvictDataPage())
		}
		assert.Equal(t, []util.PageID{3, 1, 2}, store.freed)
		assert.ErrorIs(t, tr.EvictDataPage(), util.ErrNothingToEvict)
	})

	t.Run("NotStarted", func(t *testing.T) {
		tr := NewFairFIFO(&fakeStore{}, &fakeReclaimer{})
		assert.ErrorIs(t, tr.EvictDataPage(), util.ErrTrackerStopped)
	})

	t.Run("ReclaimerSeesEvictedSlot", func(t *testing.T) {
		tr, _, rec := newTracker()
		tr.Touch(5)
		assert.NoError(t, tr.EvictDataPage())
		assert.Equal(t, []util.PageID{5}, rec.reclaimed)
	})

	t.Run("ForgottenHeadSkipped", func(t *testing.T) {
		tr, store, _ := newTracker()
		tr.Touch(4)
		tr.Touch(6)
		tr.Forget(4) // stale queue head must be skipped, not evicted

		assert.NoError(t, tr.EvictDataPage())
		assert.Equal(t, []util.PageID{6}, store.freed)
		assert.ErrorIs(t, tr.EvictDataPage(), util.ErrNothingToEvict)
	})

	t.Run("RetouchAfterForgetReenters", func(t *testing.T) {
		tr, store, _ := newTracker()
		tr.Touch(4)
		tr.Forget(4)
		tr.Touch(4)

		assert.NoError(t, tr.EvictDataPage())
		assert.Equal(t, []util.PageID{4}, store.freed)
	})
}
