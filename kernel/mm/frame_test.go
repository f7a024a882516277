package mm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrameValidity(t *testing.T) {
	assert.False(t, InvalidFrame.Valid())

	f := Frame{Base: 0x1000, Size: PageSize}
	assert.True(t, f.Valid())
	assert.Equal(t, PAddr(0x1000+PageSize), f.End())
}
