package fileformat

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"notehero/models"
)

// wavBlockFrames matches the sample frames in one MPEG-1 layer III frame.
const wavBlockFrames = 1152

// WAVFrameDecoder reads 16-bit PCM WAV data in fixed blocks so it fits the
// same two-pass decode as compressed formats.
type WAVFrameDecoder struct {
	dec         *wav.Decoder
	buf         *audio.IntBuffer
	headerBytes int
	started     bool
}

func NewWAVFrameDecoder() *WAVFrameDecoder {
	return &WAVFrameDecoder{}
}

func (d *WAVFrameDecoder) open(src []byte) error {
	d.dec = wav.NewDecoder(bytes.NewReader(src))
	if !d.dec.IsValidFile() {
		return errors.New("wav: invalid file")
	}
	if err := d.dec.FwdToPCM(); err != nil {
		return fmt.Errorf("wav: %w", err)
	}
	if d.dec.BitDepth != 16 {
		return fmt.Errorf("wav: unsupported bit depth %d", d.dec.BitDepth)
	}
	if d.dec.NumChans == 0 || d.dec.SampleRate == 0 {
		return errors.New("wav: missing format chunk")
	}

	d.headerBytes = max(len(src)-int(d.dec.PCMLen()), 0)
	d.buf = &audio.IntBuffer{
		Format: &audio.Format{NumChannels: int(d.dec.NumChans), SampleRate: int(d.dec.SampleRate)},
		Data:   make([]int, wavBlockFrames*int(d.dec.NumChans)),
	}
	return nil
}

func (d *WAVFrameDecoder) DecodeFrame(src []byte, dst []int16) (FrameInfo, error) {
	if d.dec == nil {
		if err := d.open(src); err != nil {
			return FrameInfo{}, err
		}
	}

	n, err := d.dec.PCMBuffer(d.buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return FrameInfo{}, fmt.Errorf("wav: %w", err)
	}
	channels := int(d.dec.NumChans)
	n -= n % channels
	if n == 0 {
		return FrameInfo{}, nil
	}

	info := FrameInfo{
		FrameBytes: n * 2,
		Samples:    n / channels,
		Channels:   channels,
		SampleRate: int(d.dec.SampleRate),
	}
	if !d.started {
		info.FrameBytes += d.headerBytes
		d.started = true
	}

	if dst != nil {
		if len(dst) < n {
			return FrameInfo{}, fmt.Errorf("wav: destination holds %d samples, frame has %d", len(dst), n)
		}
		for i := range n {
			dst[i] = int16(d.buf.Data[i])
		}
	}
	return info, nil
}

// WriteWavFile stores pcm as a 16-bit PCM WAV file.
func WriteWavFile(filename string, pcm *models.PCMBuffer) error {
	if pcm == nil || pcm.SampleRate <= 0 || pcm.Channels <= 0 {
		return fmt.Errorf("values must be greater than zero (sampleRate, channels)")
	}
	if pcm.Len()%pcm.Channels != 0 {
		return fmt.Errorf("invalid data or invalid no of channels")
	}

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, pcm.SampleRate, 16, pcm.Channels, 1)
	data := make([]int, pcm.Len())
	for i, s := range pcm.Samples {
		data[i] = int(s)
	}
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: pcm.Channels, SampleRate: pcm.SampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("cannot write samples to file: %w", err)
	}
	return enc.Close()
}
