package mm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"vaspace/kernel"
)

type stubProvider struct{}

func (stubProvider) AllocateBasePage() (Frame, *kernel.Error) { return Frame{}, nil }

func TestKcbAccessors(t *testing.T) {
	defer SetKcb(nil)

	assert.Nil(t, CurrentKcb())
	assert.Nil(t, CurrentPageProvider())

	p := stubProvider{}
	SetKcb(&Kcb{PageProvider: p})

	assert.NotNil(t, CurrentKcb())
	assert.Equal(t, p, CurrentPageProvider())
}
