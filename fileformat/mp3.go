package fileformat

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"
)

const (
	mpegVersion25 = 0
	mpegVersion2  = 2
	mpegVersion1  = 3

	layer3 = 1

	id3HeaderSize = 10
	id3v1TagSize  = 128
)

var (
	layer3Bitrates = [2][15]int{
		{0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160},     // MPEG 2 / 2.5
		{0, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320}, // MPEG 1
	}
	mpegSampleRates = map[int][3]int{
		mpegVersion1:  {44100, 48000, 32000},
		mpegVersion2:  {22050, 24000, 16000},
		mpegVersion25: {11025, 12000, 8000},
	}
)

// mp3Header is the decoded 4-byte MPEG audio frame header.
type mp3Header struct {
	Version    int
	Bitrate    int // kbit/s
	SampleRate int
	Padding    bool
}

// SamplesPerFrame is the per-channel sample count of a layer III frame.
func (h mp3Header) SamplesPerFrame() int {
	if h.Version == mpegVersion1 {
		return 1152
	}
	return 576
}

// FrameLength is the size of the whole frame in bytes, header included.
func (h mp3Header) FrameLength() int {
	coef := 144
	if h.Version != mpegVersion1 {
		coef = 72
	}
	n := coef * h.Bitrate * 1000 / h.SampleRate
	if h.Padding {
		n++
	}
	return n
}

// parseMP3Header accepts layer III headers with a fixed bitrate only;
// free-format and reserved values are rejected.
func parseMP3Header(b []byte) (mp3Header, bool) {
	if len(b) < 4 {
		return mp3Header{}, false
	}
	raw := binary.BigEndian.Uint32(b)
	if raw>>21 != 0x7ff {
		return mp3Header{}, false
	}

	version := int(raw>>19) & 0x3
	layer := int(raw>>17) & 0x3
	bitrateIdx := int(raw>>12) & 0xf
	rateIdx := int(raw>>10) & 0x3
	if version == 1 || layer != layer3 || bitrateIdx == 0 || bitrateIdx == 0xf || rateIdx == 3 {
		return mp3Header{}, false
	}

	table := 0
	if version == mpegVersion1 {
		table = 1
	}
	return mp3Header{
		Version:    version,
		Bitrate:    layer3Bitrates[table][bitrateIdx],
		SampleRate: mpegSampleRates[version][rateIdx],
		Padding:    (raw>>9)&0x1 == 1,
	}, true
}

// id3v2Size returns the full size of an ID3v2 tag at the start of b, or 0.
func id3v2Size(b []byte) int {
	if len(b) < id3HeaderSize || string(b[:3]) != "ID3" {
		return 0
	}
	size := int(b[6]&0x7f)<<21 | int(b[7]&0x7f)<<14 | int(b[8]&0x7f)<<7 | int(b[9]&0x7f)
	size += id3HeaderSize
	if b[5]&0x10 != 0 {
		size += id3HeaderSize // footer
	}
	return size
}

// nextSync returns the offset of the next plausible frame header after position 0.
func nextSync(b []byte) int {
	for i := 1; i+4 <= len(b); i++ {
		if b[i] != 0xff {
			continue
		}
		if _, ok := parseMP3Header(b[i:]); ok {
			return i
		}
	}
	return len(b)
}

// MP3FrameDecoder walks MPEG frame headers to find frame boundaries and takes
// the PCM for each frame from go-mp3, which always yields 16-bit stereo.
type MP3FrameDecoder struct {
	pcm        *mp3.Decoder
	sampleRate int
	buf        []byte
	done       bool
}

func NewMP3FrameDecoder() *MP3FrameDecoder {
	return &MP3FrameDecoder{}
}

func (d *MP3FrameDecoder) DecodeFrame(src []byte, dst []int16) (FrameInfo, error) {
	if d.done || len(src) == 0 {
		return FrameInfo{}, nil
	}

	if d.pcm == nil {
		dec, err := mp3.NewDecoder(bytes.NewReader(src))
		if err != nil {
			return FrameInfo{}, fmt.Errorf("mp3: %w", err)
		}
		d.pcm = dec
		d.sampleRate = dec.SampleRate()
	}

	if n := id3v2Size(src); n > 0 {
		return FrameInfo{FrameBytes: min(n, len(src))}, nil
	}
	if len(src) == id3v1TagSize && string(src[:3]) == "TAG" {
		return FrameInfo{FrameBytes: len(src)}, nil
	}

	header, ok := parseMP3Header(src)
	if !ok {
		return FrameInfo{FrameBytes: nextSync(src)}, nil
	}
	frameLen := header.FrameLength()
	if frameLen > len(src) {
		// truncated last frame
		d.done = true
		return FrameInfo{}, nil
	}

	const outChannels = 2
	samples := header.SamplesPerFrame()
	need := samples * outChannels * 2
	if cap(d.buf) < need {
		d.buf = make([]byte, need)
	}
	buf := d.buf[:need]

	if _, err := io.ReadFull(d.pcm, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			d.done = true
			return FrameInfo{}, nil
		}
		return FrameInfo{}, fmt.Errorf("mp3: %w", err)
	}

	info := FrameInfo{
		FrameBytes: frameLen,
		Samples:    samples,
		Channels:   outChannels,
		SampleRate: d.sampleRate,
	}
	if dst == nil {
		return info, nil
	}
	if len(dst) < samples*outChannels {
		return FrameInfo{}, fmt.Errorf("mp3: destination holds %d samples, frame has %d", len(dst), samples*outChannels)
	}
	for i := range samples * outChannels {
		dst[i] = int16(binary.LittleEndian.Uint16(buf[2*i:]))
	}
	return info, nil
}
