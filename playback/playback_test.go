package playback

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notehero/models"
)

func TestWallClock(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := base
	c := &WallClock{now: func() time.Time { return now }}

	assert.Zero(t, c.Elapsed())
	c.Start()
	now = base.Add(1500 * time.Millisecond)
	assert.InDelta(t, 1.5, c.Elapsed(), 1e-9)

	// a second Start does not reset
	c.Start()
	assert.InDelta(t, 1.5, c.Elapsed(), 1e-9)
}

func TestPCMReader(t *testing.T) {
	r := newPCMReader(&models.PCMBuffer{Samples: []int16{1, -1, 256}, SampleRate: 8000, Channels: 1})

	buf := make([]byte, 5)
	n, err := r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, []byte{0x01, 0x00, 0xff, 0xff}, buf[:n])

	rest, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x01}, rest)
}

func TestSilentPlayer(t *testing.T) {
	var p Player = NewSilent()
	p.Start()
	p.Stop()
	assert.GreaterOrEqual(t, p.Elapsed(), 0.0)
	assert.NoError(t, p.Close())
}
