// Package playback plays the decoded song and tells the game how far it got.
package playback

import (
	"encoding/binary"
	"io"
	"sync"
	"time"

	"notehero/models"
)

// Player is the audio side of a game: a clock that starts with the music.
type Player interface {
	Start()
	// Stop silences playback; the clock keeps running.
	Stop()
	Elapsed() float64
	Close() error
}

// WallClock measures time since Start. Before Start it reports zero.
type WallClock struct {
	mu    sync.Mutex
	start time.Time
	now   func() time.Time
}

func NewWallClock() *WallClock {
	return &WallClock{now: time.Now}
}

func (c *WallClock) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.start.IsZero() {
		c.start = c.now()
	}
}

func (c *WallClock) Elapsed() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.start.IsZero() {
		return 0
	}
	return c.now().Sub(c.start).Seconds()
}

// Silent is a Player without audio output.
type Silent struct {
	*WallClock
}

func NewSilent() *Silent {
	return &Silent{WallClock: NewWallClock()}
}

func (s *Silent) Stop()        {}
func (s *Silent) Close() error { return nil }

// pcmReader streams a PCMBuffer as little-endian 16-bit bytes.
type pcmReader struct {
	samples []int16
	pos     int
}

func newPCMReader(pcm *models.PCMBuffer) *pcmReader {
	return &pcmReader{samples: pcm.Samples}
}

func (r *pcmReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.samples) {
		return 0, io.EOF
	}
	n := 0
	for n+2 <= len(p) && r.pos < len(r.samples) {
		binary.LittleEndian.PutUint16(p[n:], uint16(r.samples[r.pos]))
		n += 2
		r.pos++
	}
	return n, nil
}
