package pagemem

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	util "github.com/bietkhonhungvandi212/region-db/internal/utils"
)

// HeapProvider backs a region with anonymous process memory.
type HeapProvider struct {
	segments [][]byte
}

func NewHeapProvider() *HeapProvider {
	return &HeapProvider{}
}

func (p *HeapProvider) Start() error {
	return nil
}

func (p *HeapProvider) NextSegment(size int64) ([]byte, error) {
	if size <= 0 {
		return nil, util.ErrInvalidSegmentSize
	}
	seg := make([]byte, size)
	p.segments = append(p.segments, seg)
	return seg, nil
}

func (p *HeapProvider) Stop() error {
	p.segments = nil
	return nil
}

// MappedFileProvider backs a region with memory-mapped swap files, one file
// per segment, under a resolved per-node directory. The files are swap, not
// storage: Stop unmaps and deletes them.
type MappedFileProvider struct {
	dir   string
	files []*os.File
	maps  [][]byte
}

func NewMappedFileProvider(dir string) *MappedFileProvider {
	return &MappedFileProvider{dir: dir}
}

func (p *MappedFileProvider) Start() error {
	if p.dir == "" {
		return util.ErrSwapPathUnresolved
	}
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return fmt.Errorf("%w: %v", util.ErrSwapPathUnresolved, err)
	}
	return nil
}

func (p *MappedFileProvider) NextSegment(size int64) ([]byte, error) {
	path := filepath.Join(p.dir, fmt.Sprintf("seg-%03d.mem", len(p.files)))

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o666)
	if err != nil {
		return nil, fmt.Errorf("open swap segment: %w", err)
	}

	seg, err := mmapFile(f, size)
	if err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("map swap segment %s: %w", path, err)
	}

	p.files = append(p.files, f)
	p.maps = append(p.maps, seg)
	return seg, nil
}

func (p *MappedFileProvider) Stop() error {
	var err error
	for _, seg := range p.maps {
		if e := munmapFile(seg); e != nil {
			err = errors.Join(err, fmt.Errorf("unmap segment: %w", e))
		}
	}
	p.maps = nil

	for _, f := range p.files {
		name := f.Name()
		if e := f.Close(); e != nil {
			err = errors.Join(err, fmt.Errorf("close %s: %w", name, e))
		}
		if e := os.Remove(name); e != nil {
			err = errors.Join(err, fmt.Errorf("remove %s: %w", name, e))
		}
	}
	p.files = nil
	return err
}
