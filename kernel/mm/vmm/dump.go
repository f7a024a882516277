package vmm

import (
	"vaspace/kernel/klog"
	"vaspace/kernel/mm"
)

// DumpTable logs a human-readable listing of every present mapping in the
// address space via klog.Printf, skipping non-present entries at every
// level. verbosity controls how deep the walk descends: 1 logs only the
// PML4 level (which slots are populated and where they point), 2 adds the
// PDPT level (huge leaves and PD pointers), 3 adds the PD level (large
// leaves and PT pointers), and 4 or higher adds the PT level (every 4 KiB
// leaf). Each logged line shows the covered virtual address range, the
// physical address it is mapped to, the granularity of the leaf and its
// flags. It is a debugging aid only; it has no effect on the address space.
func (as *AddressSpace) DumpTable(verbosity int) {
	pml4 := tableAt(as.root)
	for i4, e4 := range pml4 {
		if !e4.present() {
			continue
		}
		vbase4 := mm.VAddr(uintptr(i4) << mm.PageLevelShift[0])

		if verbosity < 2 {
			klog.Printf("0x%016x -> 0x%016x [%s] (PDPT)\n",
				uintptr(vbase4), uintptr(e4.address()), e4.String())
			continue
		}

		pdpt := tableAt(e4.address())
		for i3, e3 := range pdpt {
			if !e3.present() {
				continue
			}
			vbase3 := vbase4.Offset(uintptr(i3) << mm.PageLevelShift[1])

			if e3.isLeaf() {
				klog.Printf("0x%016x - 0x%016x -> 0x%016x [%s] (1GiB)\n",
					uintptr(vbase3), uintptr(vbase3)+mm.HugePageSize, uintptr(e3.address()), e3.String())
				continue
			}

			if verbosity < 3 {
				klog.Printf("0x%016x -> 0x%016x [%s] (PD)\n",
					uintptr(vbase3), uintptr(e3.address()), e3.String())
				continue
			}

			pd := tableAt(e3.address())
			for i2, e2 := range pd {
				if !e2.present() {
					continue
				}
				vbase2 := vbase3.Offset(uintptr(i2) << mm.PageLevelShift[2])

				if e2.isLeaf() {
					klog.Printf("0x%016x - 0x%016x -> 0x%016x [%s] (2MiB)\n",
						uintptr(vbase2), uintptr(vbase2)+mm.LargePageSize, uintptr(e2.address()), e2.String())
					continue
				}

				if verbosity < 4 {
					klog.Printf("0x%016x -> 0x%016x [%s] (PT)\n",
						uintptr(vbase2), uintptr(e2.address()), e2.String())
					continue
				}

				pt := tableAt(e2.address())
				for i1, e1 := range pt {
					if !e1.present() {
						continue
					}
					vbase1 := vbase2.Offset(uintptr(i1) << mm.PageLevelShift[3])
					klog.Printf("0x%016x - 0x%016x -> 0x%016x [%s] (4KiB)\n",
						uintptr(vbase1), uintptr(vbase1)+mm.PageSize, uintptr(e1.address()), e1.String())
				}
			}
		}
	}
}
