package clock

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExtenderNow(t *testing.T) {
	var counter uint32
	e := NewExtender(func() uint32 { return counter })

	t.Run("follows the counter before the first wrap", func(t *testing.T) {
		counter = 10
		assert.Equal(t, Millis(10), e.Now())
		counter = 2000
		assert.Equal(t, Millis(2000), e.Now())
	})

	t.Run("carries into the high word on wrap", func(t *testing.T) {
		counter = math.MaxUint32 - 5
		before := e.Now()
		counter = 4
		after := e.Now()

		assert.Equal(t, Millis(1<<32+4), after)
		assert.Equal(t, Millis(10), after-before)
	})

	t.Run("same reading twice does not wrap", func(t *testing.T) {
		a := e.Now()
		b := e.Now()
		assert.Equal(t, a, b)
	})
}

func TestSystemIsMonotonic(t *testing.T) {
	s := NewSystem()
	a := s.Now()
	time.Sleep(2 * time.Millisecond)
	b := s.Now()
	assert.GreaterOrEqual(t, uint64(b), uint64(a)+1)
}

func TestManual(t *testing.T) {
	m := NewManual(100)
	assert.Equal(t, Millis(100), m.Now())
	assert.Equal(t, Millis(150), m.Advance(50))
	m.Set(7)
	assert.Equal(t, Millis(7), m.Now())
}

func TestDuration(t *testing.T) {
	assert.Equal(t, Millis(8), Duration(8*time.Millisecond))
	assert.Equal(t, Millis(0), Duration(-time.Second))
	assert.Equal(t, 500*time.Millisecond, Millis(500).Duration())
}
