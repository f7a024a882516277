package vmm

import "vaspace/kernel/mm"

// entryFlags are the hardware bits stored in the low and high ends of a
// page table entry, outside of the physical address field.
type entryFlags uint64

const (
	entryFlagPresent   entryFlags = 1 << 0
	entryFlagRW        entryFlags = 1 << 1
	entryFlagUser      entryFlags = 1 << 2
	entryFlagPS        entryFlags = 1 << 7
	entryFlagNoExecute entryFlags = 1 << 63

	// intermediateFlags are the flags installed on every non-leaf entry
	// (PML4E, and PDPTE/PDE when they point at a lower table rather than
	// acting as a huge/large leaf). The hardware narrows effective
	// permissions to the AND of every level of the walk, so intermediate
	// entries are always maximally permissive and the leaf entry is
	// solely responsible for enforcing the requested MapAction.
	intermediateFlags entryFlags = entryFlagPresent | entryFlagRW | entryFlagUser
)

// has reports whether all bits of want are set in flags.
func (flags entryFlags) has(want entryFlags) bool {
	return flags&want == want
}

// entry is a single 64-bit page table entry. The same representation is
// used for all four levels (PML4E, PDPTE, PDE, PTE); which fields are
// meaningful depends on the level and on whether the PS bit is set.
type entry uint64

func newEntry(addr mm.PAddr, flags entryFlags) entry {
	return entry(uint64(addr)&mm.PhysAddrBits | uint64(flags))
}

func (e entry) hasFlags(flags entryFlags) bool {
	return uint64(e)&uint64(flags) == uint64(flags)
}

func (e entry) present() bool { return e.hasFlags(entryFlagPresent) }

func (e entry) isLeaf() bool { return e.hasFlags(entryFlagPS) }

// address returns the physical address encoded by the entry, i.e. the
// address of the next-level table for a non-leaf entry, or the base
// address of the mapped huge/large/base page for a leaf entry.
func (e entry) address() mm.PAddr {
	return mm.PAddr(uint64(e) & mm.PhysAddrBits)
}

func (e entry) String() string {
	out := ""
	for _, f := range []struct {
		flag entryFlags
		name string
	}{
		{entryFlagPresent, "P"},
		{entryFlagRW, "W"},
		{entryFlagUser, "U"},
		{entryFlagPS, "S"},
		{entryFlagNoExecute, "X"},
	} {
		if e.hasFlags(f.flag) {
			out += f.name
		} else {
			out += "-"
		}
	}
	return out
}

// table is a single level of the page table hierarchy: 512 entries, each 8
// bytes wide, occupying exactly one base page.
type table [mm.PageEntries]entry
