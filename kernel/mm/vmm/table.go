package vmm

import (
	"unsafe"

	"vaspace/kernel"
	"vaspace/kernel/mm"
)

// tableAtFn resolves the physical address of a page table to a pointer at
// which it can be read and written by the kernel. Production code reaches
// the table through the kernel's direct physical memory map; tests
// substitute a function that looks up plain Go-heap-allocated table
// structs instead, so the table-walking algorithm can be exercised without
// any real page tables or privileged instructions.
var tableAtFn = defaultTableAt

func defaultTableAt(addr mm.PAddr) *table {
	return (*table)(unsafe.Pointer(uintptr(mm.PAddrToKernelVAddr(addr))))
}

// tableAt returns a pointer to the table hosted at the given physical
// address.
func tableAt(addr mm.PAddr) *table { return tableAtFn(addr) }

// allocTableFn allocates and zeroes a single base page to host a new page
// table, returning both its physical address and a pointer to it. It is
// overridden by tests for the same reason as tableAtFn.
var allocTableFn = defaultAllocTable

func defaultAllocTable(provider mm.PhysicalPageProvider) (mm.PAddr, *table, *kernel.Error) {
	frame, err := provider.AllocateBasePage()
	if err != nil {
		return mm.InvalidPAddr, nil, err
	}
	tbl := tableAt(frame.Base)
	kernel.Memset(uintptr(unsafe.Pointer(tbl)), 0, mm.PageSize)
	return frame.Base, tbl, nil
}

// allocTable allocates a new zeroed table using provider.
func allocTable(provider mm.PhysicalPageProvider) (mm.PAddr, *table, *kernel.Error) {
	return allocTableFn(provider)
}
