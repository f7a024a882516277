package mm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranslateRoundTrip(t *testing.T) {
	SetKernelVAddrOffset(VAddr(0xffff_8000_0000_0000))

	p := PAddr(0x123000)
	v := PAddrToKernelVAddr(p)
	assert.Equal(t, p, KernelVAddrToPAddr(v))
}

func TestTranslateOverride(t *testing.T) {
	orig := paddrToKernelVAddrFn
	defer func() { paddrToKernelVAddrFn = orig }()

	paddrToKernelVAddrFn = func(p PAddr) VAddr { return VAddr(uintptr(p)) }
	assert.Equal(t, VAddr(0x1000), PAddrToKernelVAddr(PAddr(0x1000)))
}
