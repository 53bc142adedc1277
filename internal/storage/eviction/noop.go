package eviction

import util "github.com/bietkhonhungvandi212/region-db/internal/utils"

// NoOp is the tracker for regions that never evict: disabled mode and
// persistence-backed regions.
type NoOp struct{}

func NewNoOp() *NoOp {
	return &NoOp{}
}

func (NoOp) Start() error { return nil }

func (NoOp) Stop() error { return nil }

func (NoOp) Touch(util.PageID) {}

func (NoOp) Forget(util.PageID) {}

func (NoOp) EvictDataPage() error { return nil }
