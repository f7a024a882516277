// Package bootmem implements a rudimentary mm.PhysicalPageProvider used to
// bootstrap the kernel before a full-featured frame allocator (with support
// for freeing and reclamation) is available.
//
// The allocator walks a caller-supplied list of available physical memory
// regions and hands out the next unallocated frame, skipping over the
// region occupied by the kernel image itself. Allocations are tracked with
// a simple high-water mark; once a frame has been handed out it can never
// be returned to the pool, which is acceptable for a boot-time allocator
// but not for general purpose use.
package bootmem

import (
	"vaspace/kernel"
	"vaspace/kernel/mm"
	"vaspace/kernel/sync"
)

var errOutOfMemory = &kernel.Error{Module: "bootmem", Message: "out of memory"}

// Region describes a contiguous range of physical memory available for
// allocation, as reported by whatever boot-time mechanism (multiboot
// memory map, device tree, firmware table) the platform uses.
type Region struct {
	Base   mm.PAddr
	Length uintptr
}

func (r Region) startFrame() mm.PAddr {
	return r.Base.AlignUp(mm.PageSize)
}

func (r Region) endFrame() mm.PAddr {
	end := r.Base.Offset(r.Length)
	return end.AlignDown(mm.PageSize)
}

// Allocator is a PhysicalPageProvider that serves frames out of a static
// list of memory regions. The zero value is not ready for use; call Init
// first.
type Allocator struct {
	mu sync.Spinlock

	regions []Region

	kernelStart, kernelEnd mm.PAddr

	allocCount     uint64
	lastAllocFrame mm.PAddr
	haveAllocated  bool
}

// Init sets up the allocator to serve frames from regions, excluding the
// physical range [kernelStart, kernelEnd) occupied by the running kernel
// image.
func (a *Allocator) Init(regions []Region, kernelStart, kernelEnd mm.PAddr) {
	a.regions = regions
	a.kernelStart = kernelStart.AlignDown(mm.PageSize)
	a.kernelEnd = kernelEnd.AlignUp(mm.PageSize)
	a.allocCount = 0
	a.haveAllocated = false
}

// AllocateBasePage reserves the next available physical frame.
func (a *Allocator) AllocateBasePage() (mm.Frame, *kernel.Error) {
	a.mu.Acquire()
	defer a.mu.Release()

	for _, region := range a.regions {
		regionStart, regionEnd := region.startFrame(), region.endFrame()
		if regionStart >= regionEnd {
			continue
		}

		candidate := regionStart
		switch {
		case a.haveAllocated && a.lastAllocFrame >= regionEnd:
			// Already exhausted this region.
			continue
		case a.haveAllocated && a.lastAllocFrame >= regionStart:
			candidate = a.lastAllocFrame.Offset(mm.PageSize)
		}

		// Skip over the kernel image if it falls within this region.
		if candidate.Offset(mm.PageSize) > a.kernelStart && candidate < a.kernelEnd {
			candidate = a.kernelEnd
		}

		if candidate.Offset(mm.PageSize) > regionEnd {
			continue
		}

		a.lastAllocFrame = candidate
		a.haveAllocated = true
		a.allocCount++

		return mm.Frame{Base: candidate, Size: mm.PageSize}, nil
	}

	return mm.InvalidFrame, errOutOfMemory
}

// AllocCount returns the total number of frames handed out so far.
func (a *Allocator) AllocCount() uint64 {
	a.mu.Acquire()
	defer a.mu.Release()
	return a.allocCount
}
