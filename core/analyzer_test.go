package core

import (
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notehero/models"
)

// tone renders a sine at freq for the given number of sample frames, copied to every channel.
func tone(freq float64, rate, frames, channels int) []int16 {
	out := make([]int16, frames*channels)
	for i := range frames {
		v := int16(16384 * math.Sin(2*math.Pi*freq*float64(i)/float64(rate)))
		for c := range channels {
			out[i*channels+c] = v
		}
	}
	return out
}

func defaultAnalyzer(t *testing.T, pcm *models.PCMBuffer) *Analyzer {
	t.Helper()
	a, err := NewAnalyzer(pcm, AnalyzerConfig{FrameSize: 4096, Threshold: 10})
	require.NoError(t, err)
	return a
}

func defaultQuantizer(t *testing.T) *Quantizer {
	t.Helper()
	q, err := NewQuantizer(QuantizerConfig{LowestOctave: 2, Octaves: 4, Tolerance: 0.05})
	require.NoError(t, err)
	return q
}

func TestA440ResolvesToA4(t *testing.T) {
	pcm := &models.PCMBuffer{Samples: tone(440, 44100, 4096*3, 1), SampleRate: 44100, Channels: 1}
	a := defaultAnalyzer(t, pcm)

	candidates := slices.Collect(a.Candidates())
	require.Len(t, candidates, 3)
	for i, c := range candidates {
		assert.Equal(t, i, c.Frame)
		assert.InDelta(t, 440, c.Frequency, a.BinWidth())
		assert.InDelta(t, float64(i*4096)/44100, c.Time, 1e-12)
	}

	events := BuildTimeline(a.Candidates(), defaultQuantizer(t))
	assert.Equal(t, []models.NoteEvent{{Timestamp: 0, Note: "A4"}}, events)
}

func TestStereoDownmix(t *testing.T) {
	stereo := &models.PCMBuffer{Samples: tone(440, 44100, 4096, 2), SampleRate: 44100, Channels: 2}
	c, ok := defaultAnalyzer(t, stereo).Analyze(0)
	require.True(t, ok)
	assert.InDelta(t, 440, c.Frequency, 11)

	// opposite phases cancel out
	for i := 1; i < len(stereo.Samples); i += 2 {
		stereo.Samples[i] = -stereo.Samples[i-1]
	}
	_, ok = defaultAnalyzer(t, stereo).Analyze(0)
	assert.False(t, ok)
}

func TestFramesDropsPartialTail(t *testing.T) {
	tests := []struct {
		frames int
		want   int
	}{
		{4095, 0},
		{4096, 1},
		{4096*2 + 1, 2},
		{4096 * 3, 3},
	}
	for _, tt := range tests {
		pcm := &models.PCMBuffer{Samples: make([]int16, tt.frames*2), SampleRate: 44100, Channels: 2}
		assert.Equal(t, tt.want, defaultAnalyzer(t, pcm).Frames(), "frames=%d", tt.frames)
	}
}

func TestCandidatesRestartable(t *testing.T) {
	pcm := &models.PCMBuffer{Samples: tone(261.63, 44100, 4096*2, 1), SampleRate: 44100, Channels: 1}
	a := defaultAnalyzer(t, pcm)

	first := slices.Collect(a.Candidates())
	second := slices.Collect(a.Candidates())
	assert.Equal(t, first, second)

	n := 0
	for range a.Candidates() {
		n++
		break
	}
	assert.Equal(t, 1, n)
}

func TestThresholdIsExclusive(t *testing.T) {
	pcm := &models.PCMBuffer{Samples: tone(440, 44100, 4096, 1), SampleRate: 44100, Channels: 1}
	_, peak := dominantBin(defaultAnalyzer(t, pcm).Magnitudes(0))

	at, err := NewAnalyzer(pcm, AnalyzerConfig{FrameSize: 4096, Threshold: peak})
	require.NoError(t, err)
	_, ok := at.Analyze(0)
	assert.False(t, ok)

	below, err := NewAnalyzer(pcm, AnalyzerConfig{FrameSize: 4096, Threshold: math.Nextafter(peak, 0)})
	require.NoError(t, err)
	_, ok = below.Analyze(0)
	assert.True(t, ok)
}

func TestSilenceYieldsNothing(t *testing.T) {
	pcm := &models.PCMBuffer{Samples: make([]int16, 4096*4), SampleRate: 44100, Channels: 1}
	assert.Empty(t, slices.Collect(defaultAnalyzer(t, pcm).Candidates()))
}

func TestWindowedAnalysis(t *testing.T) {
	pcm := &models.PCMBuffer{Samples: tone(440, 44100, 4096, 1), SampleRate: 44100, Channels: 1}
	for _, w := range []string{WindowHann, WindowHamming} {
		a, err := NewAnalyzer(pcm, AnalyzerConfig{FrameSize: 4096, Threshold: 10, Window: w})
		require.NoError(t, err)
		c, ok := a.Analyze(0)
		require.True(t, ok, w)
		assert.InDelta(t, 440, c.Frequency, a.BinWidth(), w)
	}
}

func TestNewAnalyzerValidates(t *testing.T) {
	pcm := &models.PCMBuffer{Samples: make([]int16, 8), SampleRate: 8000, Channels: 1}
	_, err := NewAnalyzer(pcm, AnalyzerConfig{FrameSize: 1000})
	assert.Error(t, err)
	_, err = NewAnalyzer(pcm, AnalyzerConfig{FrameSize: 1024, Window: "blackman"})
	assert.Error(t, err)
	_, err = NewAnalyzer(nil, AnalyzerConfig{FrameSize: 1024})
	assert.Error(t, err)
}

func TestSpectrogramImage(t *testing.T) {
	pcm := &models.PCMBuffer{Samples: tone(440, 44100, 4096*2, 1), SampleRate: 44100, Channels: 1}
	img, err := SpectrogramImage(defaultAnalyzer(t, pcm), 128)
	require.NoError(t, err)
	assert.Equal(t, 128, img.Bounds().Dx())
	assert.Equal(t, 2, img.Bounds().Dy())

	brightest := 0
	for x := range 128 {
		if img.GrayAt(x, 0).Y > img.GrayAt(brightest, 0).Y {
			brightest = x
		}
	}
	assert.Equal(t, 41, brightest)

	empty := &models.PCMBuffer{Samples: make([]int16, 10), SampleRate: 44100, Channels: 1}
	_, err = SpectrogramImage(defaultAnalyzer(t, empty), 0)
	assert.Error(t, err)
}
