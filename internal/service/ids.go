package service

import (
	"sync/atomic"
	"time"
)

// IDAllocator hands out point ids that are unique across the collection's
// lifetime under normal operation. The counter is seeded once at startup
// from a coarse wall-clock reading scaled to leave headroom above ids
// written by prior runs, then increments atomically; concurrent workers
// share one allocator.
type IDAllocator struct {
	counter atomic.Uint64
}

// NewIDAllocator seeds the allocator from the current wall clock.
func NewIDAllocator() *IDAllocator {
	return NewIDAllocatorFrom(uint64(time.Now().UnixMilli()) * 100)
}

// NewIDAllocatorFrom seeds the allocator from an explicit base value.
func NewIDAllocatorFrom(base uint64) *IDAllocator {
	a := &IDAllocator{}
	a.counter.Store(base)
	return a
}

// Next returns the next id. Ids are strictly increasing and never reused.
func (a *IDAllocator) Next() uint64 {
	return a.counter.Add(1)
}
