//go:build windows

package pagemem

import (
	"fmt"
	"os"
	"syscall"
	"unsafe"

	util "github.com/bietkhonhungvandi212/region-db/internal/utils"
)

// Base on: https://github.com/etcd-io/bbolt/blob/main/bolt_windows.go

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

	sizehi := uint32(size >> 32)
	sizelo := uint32(size)
	h, err := syscall.CreateFileMapping(syscall.Handle(f.Fd()), nil, syscall.PAGE_READWRITE, sizehi, sizelo, nil)
	if err != nil {
		return nil, fmt.Errorf("create mapping: %w", err)
	}

	ptr, err := syscall.MapViewOfFile(h, syscall.FILE_MAP_WRITE, 0, 0, uintptr(size))
	if err != nil {
		if err := syscall.CloseHandle(h); err != nil {
			return nil, os.NewSyscallError("CloseHandle", err)
		}
		return nil, fmt.Errorf("map view: %w", err)
	}

	if err := syscall.CloseHandle(h); err != nil {
		return nil, os.NewSyscallError("CloseHandle", err)
	}

	return unsafe.Slice((*byte)(unsafe.Pointer(ptr)), size), nil
}

func munmapFile(b []byte) error {
	if b == nil {
		return nil
	}
	addr := uintptr(unsafe.Pointer(&b[0]))
	if err := syscall.UnmapViewOfFile(addr); err != nil {
		return os.NewSyscallError("UnmapViewOfFile", err)
	}
	return nil
}
