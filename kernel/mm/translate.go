package mm

// KernelVAddrOffset is the fixed offset of the direct physical memory map:
// the kernel's address space reserves a contiguous virtual region, starting
// at this offset, that maps the whole of physical memory 1:1. It is set
// once during early boot by SetKernelVAddrOffset and is then treated as a
// read-only constant for the remainder of the kernel's lifetime.
var KernelVAddrOffset VAddr

// SetKernelVAddrOffset records the base of the kernel's direct physical
// memory map. It must be called once, before any call to
// PAddrToKernelVAddr or KernelVAddrToPAddr, with the offset chosen by the
// bootstrap code that set up the initial page tables.
func SetKernelVAddrOffset(offset VAddr) {
	KernelVAddrOffset = offset
}

// paddrToKernelVAddrFn and kernelVAddrToPAddrFn are indirected through
// package-level variables so that tests can redirect table-walking code at
// plain Go heap memory instead of requiring a real direct-mapped physical
// address range.
var (
	paddrToKernelVAddrFn = defaultPAddrToKernelVAddr
	kernelVAddrToPAddrFn = defaultKernelVAddrToPAddr
)

// PAddrToKernelVAddr translates a physical address into the corresponding
// address within the kernel's direct physical memory map.
func PAddrToKernelVAddr(p PAddr) VAddr { return paddrToKernelVAddrFn(p) }

// KernelVAddrToPAddr translates an address within the kernel's direct
// physical memory map back into a physical address. It is the inverse of
// PAddrToKernelVAddr.
func KernelVAddrToPAddr(v VAddr) PAddr { return kernelVAddrToPAddrFn(v) }

func defaultPAddrToKernelVAddr(p PAddr) VAddr {
	return VAddr(uintptr(p) + uintptr(KernelVAddrOffset))
}

func defaultKernelVAddrToPAddr(v VAddr) PAddr {
	return PAddr(uintptr(v) - uintptr(KernelVAddrOffset))
}
