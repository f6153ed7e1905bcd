package pool

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPool(t *testing.T) {
	resets := 0
	p := New("ints", func() *[]int { s := make([]int, 0, 4); return &s },
		func(s *[]int) { *s = (*s)[:0]; resets++ },
		nil)

	obj := p.Get()
	*obj = append(*obj, 1, 2)
	p.Put(obj)

	m := p.Metrics()
	assert.Equal(t, int64(1), m.Gets)
	assert.Equal(t, int64(1), m.Puts)
	assert.Equal(t, int64(1), m.Misses)
	assert.Equal(t, 1, resets)
	assert.Empty(t, *obj)
	assert.Equal(t, "ints", p.Name())
}

func TestBufferPool(t *testing.T) {
	p := NewBufferPool("buffers", 256)

	small := p.Get()
	small.WriteString("abc")
	p.Put(small)
	assert.Equal(t, 0, small.Len())

	big := p.Get()
	big.Write(bytes.Repeat([]byte("x"), 1024))
	p.Put(big)

	m := p.Metrics()
	assert.Equal(t, int64(2), m.Gets)
	assert.Equal(t, int64(2), m.Puts)
	assert.Equal(t, int64(1), m.Discarded)
	assert.Equal(t, 1024, big.Len(), "discarded buffers are not reset")
}
