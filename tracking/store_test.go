package tracking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-linecount/images"
)

func TestStore_Observe(t *testing.T) {
	s := NewStore(0)

	_, ok := s.Observe(1, images.Point{X: 10, Y: 230})
	assert.False(t, ok, "first sighting has no previous center")

	prev, ok := s.Observe(1, images.Point{X: 12, Y: 250})
	require.True(t, ok)
	assert.Equal(t, images.Point{X: 10, Y: 230}, prev)

	prev, ok = s.Observe(1, images.Point{X: 14, Y: 260})
	require.True(t, ok)
	assert.Equal(t, images.Point{X: 12, Y: 250}, prev)

	last, ok := s.Get(1)
	require.True(t, ok)
	assert.Equal(t, images.Point{X: 14, Y: 260}, last)

	_, ok = s.Get(2)
	assert.False(t, ok)
	assert.Equal(t, 1, s.Len())
}

func TestStore_NoEvictionByDefault(t *testing.T) {
	s := NewStore(0)
	s.Observe(7, images.Point{X: 1, Y: 1})
	for frame := 0; frame < 1000; frame++ {
		assert.Nil(t, s.Sweep(frame))
	}
	assert.Equal(t, 1, s.Len())
}

func TestStore_EvictsAfterMaxAge(t *testing.T) {
	s := NewStore(3)

	// Frame 0: both tracks seen.
	s.Observe(1, images.Point{X: 1, Y: 1})
	s.Observe(2, images.Point{X: 2, Y: 2})
	assert.Nil(t, s.Sweep(0))

	// Frames 1..3: only track 2 is seen.
	for frame := 1; frame <= 2; frame++ {
		s.Observe(2, images.Point{X: 2, Y: 2})
		assert.Nil(t, s.Sweep(frame), "frame %d", frame)
	}
	s.Observe(2, images.Point{X: 2, Y: 2})
	assert.Equal(t, []int{1}, s.Sweep(3))
	assert.Equal(t, 1, s.Len())

	// An evicted id starts over as a first sighting.
	_, ok := s.Observe(1, images.Point{X: 5, Y: 5})
	assert.False(t, ok)
}

func TestStore_ReusesFreedSlots(t *testing.T) {
	s := NewStore(1)
	for id := 0; id < 10; id++ {
		s.Observe(id, images.Point{})
	}
	assert.Len(t, s.Sweep(0), 0)
	assert.Len(t, s.Sweep(1), 10)
	assert.Equal(t, 0, s.Len())

	for id := 100; id < 110; id++ {
		s.Observe(id, images.Point{X: float32(id)})
	}
	assert.Len(t, s.records, 10, "arena should not grow when slots are free")
	for id := 100; id < 110; id++ {
		c, ok := s.Get(id)
		require.True(t, ok)
		assert.Equal(t, float32(id), c.X)
	}
}
