// Package vmm implements a virtual address space manager for the x86-64
// four-level hardware page table hierarchy (PML4, PDPT, PD, PT). Its core
// algorithm, mapGeneric, greedily selects the largest page granularity
// (1 GiB, 2 MiB or 4 KiB) that a given sub-range of a mapping request can
// use, allocating intermediate tables on demand and recursing across
// ragged boundaries where the request is not aligned to, or does not
// fully cover, the table it is walking through.
package vmm

import (
	"vaspace/kernel"
	"vaspace/kernel/mm"
)

// AddressSpace is a single x86-64 virtual address space, rooted at a PML4
// table. The zero value is not usable; construct one with New.
type AddressSpace struct {
	root     mm.PAddr
	provider mm.PhysicalPageProvider
}

// New allocates a fresh, empty address space: a single zeroed PML4 table
// with no mappings.
func New(provider mm.PhysicalPageProvider) (*AddressSpace, *kernel.Error) {
	root, _, err := allocTable(provider)
	if err != nil {
		return nil, err
	}
	return &AddressSpace{root: root, provider: provider}, nil
}

// RootPhysicalAddress returns the physical address of the address space's
// PML4 table, suitable for loading into CR3.
func (as *AddressSpace) RootPhysicalAddress() mm.PAddr { return as.root }

func validateMapArgs(rights MapAction, vbase mm.VAddr, pbase mm.PAddr, size uintptr) {
	if rights == MapActionNone {
		panic("vmm: MapActionNone is not a valid mapping request")
	}
	if size == 0 {
		panic("vmm: mapping request has zero size")
	}
	if !vbase.Aligned(mm.PageSize) {
		panic("vmm: virtual base address is not page aligned")
	}
	if !pbase.Aligned(mm.PageSize) {
		panic("vmm: physical base address is not page aligned")
	}
	if size&mm.PageSizeMask != 0 {
		panic("vmm: mapping size is not a multiple of the page size")
	}
}

// MapGeneric maps the physical range [pbase, pbase+size) to the virtual
// range [vbase, vbase+size), granting the access rights described by
// rights. It eagerly selects the largest page granularity (1 GiB huge
// page, 2 MiB large page, or 4 KiB base page) that each portion of the
// range can use, allocating intermediate page tables on demand via the
// address space's PhysicalPageProvider.
//
// vbase, pbase and size must all be aligned to the base page size and size
// must be non-zero; rights must not be MapActionNone. Violating any of
// these preconditions is a programming error and causes MapGeneric to
// panic rather than return an error, since they can only arise from a bug
// in the caller rather than from runtime conditions such as memory
// pressure or an already-populated mapping.
//
// If any leaf entry in the requested range is already mapped, MapGeneric
// returns an AddressSpaceError wrapping ErrAlreadyMapped and installs no
// entry at or past the conflicting address. The leaf entries already
// installed for the part of the range before the conflict, and any tables
// allocated on the way to it, remain in place; callers that need transactional
// semantics across the whole request should not reuse an AddressSpace that
// has returned this error on an overlapping range.
func (as *AddressSpace) MapGeneric(vbase mm.VAddr, pbase mm.PAddr, size uintptr, rights MapAction) *AddressSpaceError {
	validateMapArgs(rights, vbase, pbase, size)

	var (
		consumed uintptr
		err      *AddressSpaceError
	)
	for consumed < size {
		var step uintptr
		step, err = as.mapInPML4(vbase.Offset(consumed), pbase.Offset(consumed), size-consumed, rights)
		consumed += step
		if err != nil {
			return err
		}
	}
	return nil
}

// mapInPML4 installs mappings starting at vbase, allocating PDPT tables as
// needed, until either the whole of remaining has been consumed or a PDPT
// table boundary forces a return to the caller so it can move on to the
// next PML4 slot. It returns the number of bytes mapped.
func (as *AddressSpace) mapInPML4(vbase mm.VAddr, pbase mm.PAddr, remaining uintptr, rights MapAction) (uintptr, *AddressSpaceError) {
	pml4 := tableAt(as.root)
	idx := vbase.Index(0)
	e := pml4[idx]

	var pdptAddr mm.PAddr
	if !e.present() {
		addr, _, kerr := allocTable(as.provider)
		if kerr != nil {
			return 0, &AddressSpaceError{Kind: ErrFrameAllocationFailed, Addr: uintptr(vbase)}
		}
		pml4[idx] = newEntry(addr, intermediateFlags)
		pdptAddr = addr
	} else {
		pdptAddr = e.address()
	}

	return as.mapInPDPT(pdptAddr, vbase, pbase, remaining, rights)
}

// mapInPDPT installs mappings within a single PDPT table, selecting 1 GiB
// huge pages where alignment and remaining size allow and falling back to
// an intermediate PD table otherwise. It returns once it has consumed all
// of remaining or reached the end of the table (512 entries, spanning
// 512 GiB), whichever happens first.
func (as *AddressSpace) mapInPDPT(tableAddr mm.PAddr, vbase mm.VAddr, pbase mm.PAddr, remaining uintptr, rights MapAction) (uintptr, *AddressSpaceError) {
	pdpt := tableAt(tableAddr)

	var consumed uintptr
	for consumed < remaining {
		curV := vbase.Offset(consumed)
		idx := curV.Index(1)
		if idx == 0 && consumed != 0 {
			break // wrapped back to slot 0: crossed a table boundary
		}

		curP := pbase.Offset(consumed)
		left := remaining - consumed
		e := pdpt[idx]

		switch {
		case !e.present() && curV.Aligned(mm.HugePageSize) && curP.Aligned(mm.HugePageSize) && left >= mm.HugePageSize:
			pdpt[idx] = newEntry(curP, entryFlagPS|rights.leafFlags())
			consumed += mm.HugePageSize

		case !e.present():
			pdAddr, _, kerr := allocTable(as.provider)
			if kerr != nil {
				return consumed, &AddressSpaceError{Kind: ErrFrameAllocationFailed, Addr: uintptr(curV)}
			}
			pdpt[idx] = newEntry(pdAddr, intermediateFlags)
			step, err := as.mapInPD(pdAddr, curV, curP, left, rights)
			consumed += step
			if err != nil {
				return consumed, err
			}

		case e.isLeaf():
			return consumed, &AddressSpaceError{Kind: ErrAlreadyMapped, Addr: uintptr(curV)}

		default:
			step, err := as.mapInPD(e.address(), curV, curP, left, rights)
			consumed += step
			if err != nil {
				return consumed, err
			}
		}
	}
	return consumed, nil
}

// mapInPD installs mappings within a single PD table, selecting 2 MiB
// large pages where alignment and remaining size allow and falling back to
// an intermediate PT table otherwise.
func (as *AddressSpace) mapInPD(tableAddr mm.PAddr, vbase mm.VAddr, pbase mm.PAddr, remaining uintptr, rights MapAction) (uintptr, *AddressSpaceError) {
	pd := tableAt(tableAddr)

	var consumed uintptr
	for consumed < remaining {
		curV := vbase.Offset(consumed)
		idx := curV.Index(2)
		if idx == 0 && consumed != 0 {
			break
		}

		curP := pbase.Offset(consumed)
		left := remaining - consumed
		e := pd[idx]

		switch {
		case !e.present() && curV.Aligned(mm.LargePageSize) && curP.Aligned(mm.LargePageSize) && left >= mm.LargePageSize:
			pd[idx] = newEntry(curP, entryFlagPS|rights.leafFlags())
			consumed += mm.LargePageSize

		case !e.present():
			ptAddr, _, kerr := allocTable(as.provider)
			if kerr != nil {
				return consumed, &AddressSpaceError{Kind: ErrFrameAllocationFailed, Addr: uintptr(curV)}
			}
			pd[idx] = newEntry(ptAddr, intermediateFlags)
			step, err := as.mapInPT(ptAddr, curV, curP, left, rights)
			consumed += step
			if err != nil {
				return consumed, err
			}

		case e.isLeaf():
			return consumed, &AddressSpaceError{Kind: ErrAlreadyMapped, Addr: uintptr(curV)}

		default:
			step, err := as.mapInPT(e.address(), curV, curP, left, rights)
			consumed += step
			if err != nil {
				return consumed, err
			}
		}
	}
	return consumed, nil
}

// mapInPT installs 4 KiB base page mappings within a single PT table.
func (as *AddressSpace) mapInPT(tableAddr mm.PAddr, vbase mm.VAddr, pbase mm.PAddr, remaining uintptr, rights MapAction) (uintptr, *AddressSpaceError) {
	pt := tableAt(tableAddr)

	var consumed uintptr
	for consumed < remaining {
		curV := vbase.Offset(consumed)
		idx := curV.Index(3)
		if idx == 0 && consumed != 0 {
			break
		}

		if pt[idx].present() {
			return consumed, &AddressSpaceError{Kind: ErrAlreadyMapped, Addr: uintptr(curV)}
		}

		pt[idx] = newEntry(pbase.Offset(consumed), rights.leafFlags())
		consumed += mm.PageSize
	}
	return consumed, nil
}

// MapIdentityWithOffset maps the physical range [pbase, pend) to the
// virtual range [atOffset+pbase, atOffset+pend), i.e. an identity mapping
// shifted by a constant offset. It is the primitive used to set up the
// kernel's direct physical memory map.
func (as *AddressSpace) MapIdentityWithOffset(atOffset mm.VAddr, pbase, pend mm.PAddr, rights MapAction) *AddressSpaceError {
	vbase := mm.VAddr(uintptr(atOffset) + uintptr(pbase))
	return as.MapGeneric(vbase, pbase, uintptr(pend-pbase), rights)
}

// MapIdentity maps the physical range [pbase, pend) to the identical
// virtual range. It is a convenience wrapper around
// MapIdentityWithOffset with a zero offset.
func (as *AddressSpace) MapIdentity(pbase, pend mm.PAddr, rights MapAction) *AddressSpaceError {
	return as.MapIdentityWithOffset(0, pbase, pend, rights)
}

// MapFrame maps a single physical frame at the given virtual base address.
func (as *AddressSpace) MapFrame(base mm.VAddr, frame mm.Frame, rights MapAction) *AddressSpaceError {
	return as.MapGeneric(base, frame.Base, frame.Size, rights)
}

// FrameMapping pairs a physical frame with the access rights it should be
// mapped with, for use with MapFrames.
type FrameMapping struct {
	Frame  mm.Frame
	Rights MapAction
}

// MapFrames maps a list of (possibly differently sized) physical frames
// into contiguous virtual memory starting at base, in order. base must be
// aligned to the size of the first frame in the list.
func (as *AddressSpace) MapFrames(base mm.VAddr, frames []FrameMapping) *AddressSpaceError {
	if len(frames) == 0 {
		return nil
	}
	if !base.Aligned(frames[0].Frame.Size) {
		panic("vmm: base address is not aligned to the size of the first frame")
	}

	cur := base
	for _, fm := range frames {
		if err := as.MapFrame(cur, fm.Frame, fm.Rights); err != nil {
			return err
		}
		cur = cur.Offset(fm.Frame.Size)
	}
	return nil
}

// Resolve walks the page table hierarchy to translate a virtual address
// into the physical address it is mapped to, stopping at whichever level
// contains the leaf entry (huge, large or base page) that covers addr. It
// returns mm.InvalidPAddr if addr is not mapped.
func (as *AddressSpace) Resolve(addr mm.VAddr) mm.PAddr {
	pml4 := tableAt(as.root)
	e := pml4[addr.Index(0)]
	if !e.present() {
		return mm.InvalidPAddr
	}

	pdpt := tableAt(e.address())
	e = pdpt[addr.Index(1)]
	if !e.present() {
		return mm.InvalidPAddr
	}
	if e.isLeaf() {
		return e.address().Offset(uintptr(addr) & mm.HugePageMask)
	}

	pd := tableAt(e.address())
	e = pd[addr.Index(2)]
	if !e.present() {
		return mm.InvalidPAddr
	}
	if e.isLeaf() {
		return e.address().Offset(uintptr(addr) & mm.LargePageMask)
	}

	pt := tableAt(e.address())
	e = pt[addr.Index(3)]
	if !e.present() {
		return mm.InvalidPAddr
	}
	return e.address().Offset(addr.PageOffset())
}
