//go:build unix

package pagemem

import (
	"fmt"
	"os"

	util "github.com/bietkhonhungvandi212/region-db/internal/utils"
	"golang.org/x/sys/unix"
)

func mmapFile(f *os.File, size int64) ([]byte, error) {
	if size <= 0 {
		return nil, util.ErrInvalidSegmentSize
	}
	if size > util.MaxMapSize {
		return nil, util.ErrMaxMapSizeExceeded
	}

	if err := f.Truncate(size); err != nil {
		return nil, fmt.Errorf("truncate to %d: %w", size, err)
	}

	b, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap: %w", err)
	}
	return b, nil
}

func munmapFile(b []byte) error {
	if b == nil {
		return nil
	}
	return unix.Munmap(b)
}
