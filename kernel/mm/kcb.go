package mm

// Kcb is the minimal slice of the core-local control block that the memory
// management code needs: a handle to the physical page provider that backs
// on-demand page table allocation. A real kernel's control block carries a
// great deal of additional per-core state (scheduler queues, interrupt
// stacks, and so on); none of that is this package's concern, so only the
// capability it actually consumes is modeled here.
type Kcb struct {
	PageProvider PhysicalPageProvider
}

// activeKcb holds the control block for the currently running core. It is
// deliberately a single global rather than a per-core slot because this
// package has no notion of which core is "current" without help from code
// outside its scope; a multi-core kernel would replace this with a
// GS-relative lookup performed by its own core-local-storage support.
var activeKcb *Kcb

// SetKcb installs the control block to be returned by CurrentKcb.
func SetKcb(kcb *Kcb) { activeKcb = kcb }

// CurrentKcb returns the control block for the currently running core, or
// nil if none has been installed yet.
func CurrentKcb() *Kcb { return activeKcb }

// CurrentPageProvider is a convenience accessor equivalent to
// CurrentKcb().PageProvider, for callers that only need a provider and do
// not otherwise care about the control block. It returns nil if no control
// block has been installed.
func CurrentPageProvider() PhysicalPageProvider {
	if activeKcb == nil {
		return nil
	}
	return activeKcb.PageProvider
}
