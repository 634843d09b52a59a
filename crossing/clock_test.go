package crossing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClock(t *testing.T) {
	c, err := NewClock(DefaultStart, DefaultFPS)
	require.NoError(t, err)

	assert.Equal(t, 33333*time.Microsecond, c.Step())
	assert.Equal(t, 0, c.Frame())
	assert.Equal(t, "2024-02-19 13:50:00.000000", c.Now().Format(TimestampLayout))

	c.Advance()
	assert.Equal(t, "2024-02-19 13:50:00.033333", c.Now().Format(TimestampLayout))

	for i := 0; i < 29; i++ {
		c.Advance()
	}
	assert.Equal(t, 30, c.Frame())
	assert.Equal(t, "2024-02-19 13:50:00.999990", c.Now().Format(TimestampLayout))
}

func TestNewClock_RejectsBadRate(t *testing.T) {
	for _, fps := range []float64{0, -1, 1e9} {
		_, err := NewClock(DefaultStart, fps)
		assert.Error(t, err, "fps %v", fps)
	}
}
