package vmm

import (
	"fmt"

	"vaspace/kernel"
	"vaspace/kernel/mm"
)

// fakeProvider is a mm.PhysicalPageProvider backed by ordinary Go heap
// memory. It hands out synthetic, strictly increasing "physical" addresses
// and keeps a map from those addresses to the *table that tableAtFn should
// resolve them to, so that the page-table walking code can be exercised on
// a regular host without any real page tables, MMU or privileged
// instructions.
type fakeProvider struct {
	tables    map[mm.PAddr]*table
	next      mm.PAddr
	failAfter int // if >= 0, AllocateBasePage fails once this many succeed
	allocated int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		tables:    make(map[mm.PAddr]*table),
		next:      0x10000,
		failAfter: -1,
	}
}

func (p *fakeProvider) AllocateBasePage() (mm.Frame, *kernel.Error) {
	if p.failAfter >= 0 && p.allocated >= p.failAfter {
		return mm.InvalidFrame, &kernel.Error{Module: "fake", Message: "out of memory"}
	}
	addr := p.next
	p.next += mm.PageSize
	p.tables[addr] = &table{}
	p.allocated++
	return mm.Frame{Base: addr, Size: mm.PageSize}, nil
}

func (p *fakeProvider) lookup(addr mm.PAddr) *table {
	tb, ok := p.tables[addr]
	if !ok {
		panic(fmt.Sprintf("fakeProvider: no table backing physical address %#x", addr))
	}
	return tb
}

// withFakeTables redirects tableAtFn at the given provider's backing store
// for the duration of a test and restores it on cleanup. Tests must use a
// cleanup-registering *testing.T so callers import "testing" rather than
// this file.
func withFakeTables(p *fakeProvider, cleanup func(f func())) {
	orig := tableAtFn
	tableAtFn = p.lookup
	cleanup(func() { tableAtFn = orig })
}

// newTestAddressSpace builds an AddressSpace backed entirely by fake,
// heap-resident tables.
func newTestAddressSpace(p *fakeProvider) *AddressSpace {
	root, err := New(p)
	if err != nil {
		panic(err)
	}
	return root
}
