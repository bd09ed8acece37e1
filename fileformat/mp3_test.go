package fileformat

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/hajimehoshi/go-mp3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMP3Header(t *testing.T) {
	tests := []struct {
		name     string
		header   []byte
		version  int
		rate     int
		bitrate  int
		length   int
		samples  int
	}{
		{"mpeg1 128k 44.1k joint stereo", []byte{0xff, 0xfb, 0x90, 0x64}, mpegVersion1, 44100, 128, 417, 1152},
		{"mpeg1 128k 44.1k padded", []byte{0xff, 0xfb, 0x92, 0x64}, mpegVersion1, 44100, 128, 418, 1152},
		{"mpeg1 320k 48k mono", []byte{0xff, 0xfb, 0xe4, 0xc4}, mpegVersion1, 48000, 320, 960, 1152},
		{"mpeg2 64k 22.05k", []byte{0xff, 0xf3, 0x80, 0x44}, mpegVersion2, 22050, 64, 208, 576},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, ok := parseMP3Header(tt.header)
			require.True(t, ok)
			assert.Equal(t, tt.version, h.Version)
			assert.Equal(t, tt.rate, h.SampleRate)
			assert.Equal(t, tt.bitrate, h.Bitrate)
			assert.Equal(t, tt.length, h.FrameLength())
			assert.Equal(t, tt.samples, h.SamplesPerFrame())
		})
	}
}

func TestParseMP3HeaderRejects(t *testing.T) {
	tests := map[string][]byte{
		"no sync":       {0x00, 0xfb, 0x90, 0x64},
		"layer II":      {0xff, 0xfd, 0x90, 0x64},
		"free format":   {0xff, 0xfb, 0x00, 0x64},
		"bad bitrate":   {0xff, 0xfb, 0xf0, 0x64},
		"reserved rate": {0xff, 0xfb, 0x9c, 0x64},
		"reserved ver":  {0xff, 0xeb, 0x90, 0x64},
		"short":         {0xff, 0xfb},
	}
	for name, b := range tests {
		t.Run(name, func(t *testing.T) {
			_, ok := parseMP3Header(b)
			assert.False(t, ok)
		})
	}
}

func TestID3v2Size(t *testing.T) {
	tag := []byte{'I', 'D', '3', 4, 0, 0, 0, 0, 0x02, 0x01}
	assert.Equal(t, 10+257, id3v2Size(tag))

	tag[5] = 0x10
	assert.Equal(t, 20+257, id3v2Size(tag))

	assert.Zero(t, id3v2Size([]byte{0xff, 0xfb, 0x90, 0x64, 0, 0, 0, 0, 0, 0}))
}

func TestNextSync(t *testing.T) {
	junk := []byte{0x00, 0xff, 0x00, 0x12, 0xff, 0xfb, 0x90, 0x64, 0x00}
	assert.Equal(t, 4, nextSync(junk))
	assert.Equal(t, 3, nextSync([]byte{0xff, 0x00, 0x01}))
}

func TestMP3FrameDecoderRejectsGarbage(t *testing.T) {
	_, err := Decode([]byte("definitely not an mp3 stream"), newMP3Decoder, DecodeOptions{})
	assert.ErrorIs(t, err, ErrDecode)
}

func newMP3Decoder() FrameDecoder { return NewMP3FrameDecoder() }

// referencePCM decodes the whole stream with go-mp3 alone.
func referencePCM(t *testing.T, data []byte) []int16 {
	t.Helper()
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	require.NoError(t, err)
	raw, err := io.ReadAll(dec)
	require.NoError(t, err)
	out := make([]int16, len(raw)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(raw[2*i:]))
	}
	return out
}

func TestDecodeMP3Stream(t *testing.T) {
	tests := []struct {
		file   string
		rate   int
		frames int
		perCh  int
	}{
		// ID3v2 tag, MPEG-1 256k joint stereo
		{"mpeg1.mp3", 44100, 12, 1152},
		// MPEG-2 48k mono, go-mp3 still yields stereo
		{"mpeg2.mp3", 22050, 16, 576},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			data, err := os.ReadFile(filepath.Join("testdata", tt.file))
			require.NoError(t, err)

			pcm, err := Decode(data, newMP3Decoder, DecodeOptions{})
			require.NoError(t, err)
			assert.Equal(t, tt.rate, pcm.SampleRate)
			assert.Equal(t, 2, pcm.Channels)
			assert.Equal(t, tt.frames*tt.perCh*2, pcm.Len())
			assert.Equal(t, referencePCM(t, data), pcm.Samples)
		})
	}
}

func TestDecodeMP3SkipsTrailingTags(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "mpeg1.mp3"))
	require.NoError(t, err)
	want, err := Decode(data, newMP3Decoder, DecodeOptions{})
	require.NoError(t, err)

	tag := make([]byte, id3v1TagSize)
	copy(tag, "TAG")
	tagged := append(append([]byte{}, data...), tag...)

	got, err := Decode(tagged, newMP3Decoder, DecodeOptions{})
	require.NoError(t, err)
	assert.Equal(t, want.Samples, got.Samples)
}

func TestDecodeMP3SampleCeiling(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "mpeg2.mp3"))
	require.NoError(t, err)
	_, err = Decode(data, newMP3Decoder, DecodeOptions{MaxSamples: 1000})
	assert.ErrorIs(t, err, ErrAllocation)
}

func TestLoadFileMP3(t *testing.T) {
	pcm, err := LoadFile(filepath.Join("testdata", "mpeg2.mp3"), DecodeOptions{})
	require.NoError(t, err)
	assert.Equal(t, 22050, pcm.SampleRate)
	assert.InDelta(t, 16*576/22050.0, pcm.Duration(), 1e-9)
}
