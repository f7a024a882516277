// Package cpu exposes the small set of x86-64 primitives that the memory
// management code needs to install page table mappings and halt on a fatal
// error. The actual instructions are implemented in assembly and are
// intentionally kept outside the scope of this package; the declarations
// below describe the contract that the assembly stubs must satisfy.
package cpu

// Halt stops instruction execution on the calling core.
func Halt()

// SwitchPDT loads the root page table directory at the given physical
// address into CR3, flushing the calling core's entire TLB.
func SwitchPDT(pdtPhysAddr uintptr)
