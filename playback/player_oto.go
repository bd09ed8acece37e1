//go:build !headless

package playback

import (
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"notehero/models"
)

var (
	otoOnce sync.Once
	otoCtx  *oto.Context
	otoErr  error
	otoRate int
	otoChan int
)

// oto allows one context per process, so the first song fixes the format.
func audioContext(sampleRate, channels int) (*oto.Context, error) {
	otoOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: channels,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   50 * time.Millisecond,
		}
		ctx, ready, err := oto.NewContext(op)
		if err != nil {
			otoErr = err
			return
		}
		<-ready
		otoCtx, otoRate, otoChan = ctx, sampleRate, channels
	})
	if otoErr != nil {
		return nil, otoErr
	}
	if otoRate != sampleRate || otoChan != channels {
		return nil, fmt.Errorf("playback: audio device already opened at %d Hz x %d", otoRate, otoChan)
	}
	return otoCtx, nil
}

// OtoPlayer plays a PCM buffer on the default audio device.
type OtoPlayer struct {
	*WallClock
	mu      sync.Mutex
	player  *oto.Player
	started bool
}

func NewPlayer(pcm *models.PCMBuffer) (*OtoPlayer, error) {
	ctx, err := audioContext(pcm.SampleRate, pcm.Channels)
	if err != nil {
		return nil, fmt.Errorf("playback: %w", err)
	}
	return &OtoPlayer{
		WallClock: NewWallClock(),
		player:    ctx.NewPlayer(newPCMReader(pcm)),
	}, nil
}

func (p *OtoPlayer) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		p.player.Play()
		p.WallClock.Start()
		p.started = true
	}
}

func (p *OtoPlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.player.IsPlaying() {
		p.player.Pause()
	}
}

func (p *OtoPlayer) Close() error {
	p.Stop()
	return p.player.Close()
}
