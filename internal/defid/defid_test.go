package defid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGeneratorMonotone(t *testing.T) {
	g := NewGenerator()
	var ids []ID
	for i := 0; i < 5; i++ {
		ids = append(ids, g.Fresh())
	}
	for i := 1; i < len(ids); i++ {
		assert.Less(t, uint64(ids[i-1]), uint64(ids[i]), "generator must be strictly increasing")
	}
	assert.False(t, ids[0].IsZero())
	assert.True(t, Zero.IsZero())
}

func TestPeekDoesNotConsume(t *testing.T) {
	g := NewGenerator()
	p := g.Peek()
	f := g.Fresh()
	assert.Equal(t, p, f)
	assert.Equal(t, f+1, g.Peek())
}
