package vmm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"vaspace/kernel/mm"
)

func TestEntryAddressRoundTrip(t *testing.T) {
	addr := mm.PAddr(0xdeadb000)
	e := newEntry(addr, entryFlagPresent|entryFlagRW)

	assert.Equal(t, addr, e.address())
	assert.True(t, e.present())
	assert.False(t, e.isLeaf())
}

func TestEntryLeafFlag(t *testing.T) {
	e := newEntry(mm.PAddr(0x40000000), entryFlagPresent|entryFlagPS|entryFlagRW)
	assert.True(t, e.isLeaf())
}

func TestEntryString(t *testing.T) {
	e := newEntry(0, entryFlagPresent|entryFlagRW|entryFlagUser)
	assert.Equal(t, "PWU--", e.String())
}
