package loader

import (
	"errors"
	"fmt"

	"github.com/aligator/fatboot/checkpoint"
)

// ErrOutOfResources is returned if a buffer for a payload cannot be allocated.
// It ends the load attempt.
var ErrOutOfResources = errors.New("out of resources")

// Allocator hands out the buffers the loaded files are read into.
// Allocate returns a zeroed buffer of exactly size bytes.
type Allocator interface {
	Allocate(size int) ([]byte, error)
	Free(buf []byte)
}

// HeapAllocator allocates from the Go heap and enforces a limit on the bytes
// allocated and not yet freed.
type HeapAllocator struct {
	// Limit is the maximum of outstanding bytes. 0 means no limit.
	Limit int

	used int
}

func (a *HeapAllocator) Allocate(size int) ([]byte, error) {
	if size < 0 {
		return nil, checkpoint.Wrap(ErrOutOfResources, fmt.Errorf("negative size %d", size))
	}
	if a.Limit > 0 && a.used+size > a.Limit {
		return nil, checkpoint.Wrap(ErrOutOfResources, fmt.Errorf("%d bytes requested, %d of %d in use", size, a.used, a.Limit))
	}
	a.used += size
	return make([]byte, size), nil
}

// Free returns buf to the allocator. buf must have been returned by Allocate with its length unchanged.
func (a *HeapAllocator) Free(buf []byte) {
	a.used -= len(buf)
	if a.used < 0 {
		a.used = 0
	}
}

// Used returns the bytes allocated and not yet freed.
func (a *HeapAllocator) Used() int {
	return a.used
}
