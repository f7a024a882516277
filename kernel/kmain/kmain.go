package kmain

import (
	"vaspace/kernel"
	"vaspace/kernel/cpu"
	"vaspace/kernel/klog"
	"vaspace/kernel/mm"
	"vaspace/kernel/mm/bootmem"
	"vaspace/kernel/mm/vmm"
)

var errKmainReturned = &kernel.Error{Module: "kmain", Message: "Kmain returned"}

// Kmain is the architecture-independent entry point reached once the
// assembly bootstrap code has switched to long mode and handed off to Go.
// It wires together the boot-time physical frame allocator, the core-local
// control block, and the kernel's initial address space, loads that address
// space's root table into CR3 and logs its location. Everything here is thin
// glue: the interesting work is done by the packages it calls into.
//
// Kmain is not expected to return. If it does, it panics rather than
// silently halting, so that a regression here is loud instead of hanging.
func Kmain(regions []bootmem.Region, kernelStart, kernelEnd uintptr) {
	klog.Printf("starting kernel\n")

	var allocator bootmem.Allocator
	allocator.Init(regions, mm.PAddr(kernelStart), mm.PAddr(kernelEnd))
	mm.SetKcb(&mm.Kcb{PageProvider: &allocator})

	as, err := vmm.New(&allocator)
	if err != nil {
		klog.Panic(err)
	}

	if err := as.MapIdentity(mm.PAddr(kernelStart), mm.PAddr(kernelEnd), vmm.MapActionReadWriteExecuteKernel); err != nil {
		klog.Panic(err)
	}

	cpu.SwitchPDT(uintptr(as.RootPhysicalAddress()))

	klog.Printf("root page table at 0x%x, %d frames allocated\n", as.RootPhysicalAddress(), allocator.AllocCount())

	klog.Panic(errKmainReturned)
}
