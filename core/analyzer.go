package core

import (
	"fmt"
	"iter"

	"github.com/mjibson/go-dsp/window"

	"notehero/models"
)

const fullScale = 32768.0

const (
	WindowNone    = "none"
	WindowHann    = "hann"
	WindowHamming = "hamming"
)

type AnalyzerConfig struct {
	// FrameSize is the number of sample frames per analysis frame, a power of two.
	FrameSize int
	// Threshold is the peak magnitude a frame has to exceed to produce a candidate.
	Threshold float64
	// Window tapers each frame before the transform. Defaults to WindowNone.
	Window string
}

// Analyzer finds the dominant frequency of consecutive, non-overlapping frames of a PCM buffer.
type Analyzer struct {
	pcm    *models.PCMBuffer
	cfg    AnalyzerConfig
	window []float64
}

func NewAnalyzer(pcm *models.PCMBuffer, cfg AnalyzerConfig) (*Analyzer, error) {
	if pcm == nil || pcm.Channels < 1 || pcm.SampleRate < 1 {
		return nil, fmt.Errorf("analyzer: invalid pcm buffer")
	}
	if !isPowerOfTwo(cfg.FrameSize) || cfg.FrameSize < 4 {
		return nil, fmt.Errorf("analyzer: frame size %d is not a power of two", cfg.FrameSize)
	}

	a := &Analyzer{pcm: pcm, cfg: cfg}
	switch cfg.Window {
	case "", WindowNone:
	case WindowHann:
		a.window = window.Hann(cfg.FrameSize)
	case WindowHamming:
		a.window = window.Hamming(cfg.FrameSize)
	default:
		return nil, fmt.Errorf("analyzer: unknown window %q", cfg.Window)
	}
	return a, nil
}

// Frames is the number of whole frames in the buffer. A trailing partial frame is dropped.
func (a *Analyzer) Frames() int {
	return a.pcm.Frames() / a.cfg.FrameSize
}

// BinWidth is the frequency resolution in Hz.
func (a *Analyzer) BinWidth() float64 {
	return float64(a.pcm.SampleRate) / float64(a.cfg.FrameSize)
}

// FrameTime is the start of frame i in seconds.
func (a *Analyzer) FrameTime(i int) float64 {
	return float64(i*a.cfg.FrameSize) / float64(a.pcm.SampleRate)
}

// Magnitudes returns the half spectrum of frame i.
func (a *Analyzer) Magnitudes(i int) []float64 {
	return HalfMagnitudes(FFT(a.frame(i)))
}

// Candidates yields one candidate per frame whose peak clears the threshold,
// in frame order. Every call starts again from the first frame.
func (a *Analyzer) Candidates() iter.Seq[models.PitchCandidate] {
	return func(yield func(models.PitchCandidate) bool) {
		for i := range a.Frames() {
			c, ok := a.Analyze(i)
			if !ok {
				continue
			}
			if !yield(c) {
				return
			}
		}
	}
}

// Analyze runs a single frame. ok is false when the frame is gated as silence.
func (a *Analyzer) Analyze(i int) (models.PitchCandidate, bool) {
	bin, peak := dominantBin(a.Magnitudes(i))
	if bin == 0 || peak <= a.cfg.Threshold {
		return models.PitchCandidate{}, false
	}
	return models.PitchCandidate{
		Frame:     i,
		Time:      a.FrameTime(i),
		Frequency: float64(bin) * a.BinWidth(),
		Magnitude: peak,
	}, true
}

// frame downmixes frame i to mono in [-1, 1) and applies the window.
func (a *Analyzer) frame(i int) []float64 {
	f := a.cfg.FrameSize
	ch := a.pcm.Channels
	src := a.pcm.Samples[i*f*ch : (i+1)*f*ch]

	out := make([]float64, f)
	for j := range f {
		var sum float64
		for c := range ch {
			sum += float64(src[j*ch+c])
		}
		out[j] = sum / float64(ch) / fullScale
	}

	if a.window != nil {
		for j := range out {
			out[j] *= a.window[j]
		}
	}
	return out
}
