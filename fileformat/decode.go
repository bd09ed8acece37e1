package fileformat

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mdobak/go-xerrors"

	"notehero/models"
	"notehero/utils"
)

var (
	ErrIO         = errors.New("fileformat: cannot read input")
	ErrDecode     = errors.New("fileformat: cannot decode audio")
	ErrAllocation = errors.New("fileformat: sample buffer too large")
)

// FrameInfo describes one decoded frame. FrameBytes is how far the caller
// must advance in the source; zero means the stream has ended. Samples is
// counted per channel and is zero for skipped data such as tags.
type FrameInfo struct {
	FrameBytes int
	Samples    int
	Channels   int
	SampleRate int
}

// FrameDecoder decodes a compressed stream one frame at a time.
// src always starts at the current frame. A nil dst asks for the frame's
// shape only; otherwise the interleaved samples are written to dst.
type FrameDecoder interface {
	DecodeFrame(src []byte, dst []int16) (FrameInfo, error)
}

type DecodeOptions struct {
	// MaxSamples caps the buffer allocated between the two passes. Zero disables the cap.
	MaxSamples int
}

type passStats struct {
	frames     int
	channels   int
	sampleRate int
	total      int
}

// Decode decodes data with two passes over fresh decoders: the first only
// counts samples, the second fills a buffer allocated once with that exact
// size. Both passes must agree on every count.
func Decode(data []byte, newDecoder func() FrameDecoder, opts DecodeOptions) (*models.PCMBuffer, error) {
	first, err := decodePass(data, newDecoder(), nil)
	if err != nil {
		return nil, err
	}
	if first.frames == 0 || first.total == 0 {
		return nil, fmt.Errorf("%w: no decodable frames", ErrDecode)
	}
	if opts.MaxSamples > 0 && first.total > opts.MaxSamples {
		return nil, fmt.Errorf("%w: %d samples exceeds limit of %d", ErrAllocation, first.total, opts.MaxSamples)
	}

	samples := make([]int16, first.total)
	second, err := decodePass(data, newDecoder(), samples)
	if err != nil {
		return nil, err
	}
	if second != first {
		return nil, fmt.Errorf("%w: pass mismatch (%d frames/%d samples, then %d frames/%d samples)",
			ErrDecode, first.frames, first.total, second.frames, second.total)
	}

	return &models.PCMBuffer{
		Samples:    samples,
		SampleRate: first.sampleRate,
		Channels:   first.channels,
	}, nil
}

func decodePass(data []byte, dec FrameDecoder, dst []int16) (passStats, error) {
	var stats passStats
	for off := 0; off < len(data); {
		var out []int16
		if dst != nil {
			out = dst[stats.total:]
		}

		info, err := dec.DecodeFrame(data[off:], out)
		if err != nil {
			return stats, fmt.Errorf("%w: frame at byte %d: %w", ErrDecode, off, err)
		}
		if info.FrameBytes <= 0 {
			break
		}

		if info.Samples > 0 {
			if stats.frames == 0 {
				stats.channels = info.Channels
				stats.sampleRate = info.SampleRate
			} else if info.Channels != stats.channels || info.SampleRate != stats.sampleRate {
				return stats, fmt.Errorf("%w: stream format changed at byte %d", ErrDecode, off)
			}
			if info.Channels < 1 || info.SampleRate < 1 {
				return stats, fmt.Errorf("%w: invalid frame format at byte %d", ErrDecode, off)
			}
			stats.frames++
			stats.total += info.Samples * info.Channels
		}
		off += info.FrameBytes
	}
	return stats, nil
}

// LoadFile reads and decodes an audio file. MP3 and WAV are decoded directly,
// anything else goes through ffmpeg first.
func LoadFile(path string, opts DecodeOptions) (*models.PCMBuffer, error) {
	logger := utils.GetLogger()

	ext := strings.ToLower(filepath.Ext(path))
	var newDecoder func() FrameDecoder
	switch ext {
	case ".mp3":
		newDecoder = func() FrameDecoder { return NewMP3FrameDecoder() }
	case ".wav":
		newDecoder = func() FrameDecoder { return NewWAVFrameDecoder() }
	default:
		wavPath, err := ConvertToWAV(path, ConversionOptions{Channels: 2, UseTempDir: true})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrIO, err)
		}
		defer func() {
			if err := utils.DeleteFile(wavPath); err != nil {
				logger.Warn("failed to remove converted file", slog.String("path", wavPath), slog.Any("error", err))
			}
		}()
		path = wavPath
		newDecoder = func() FrameDecoder { return NewWAVFrameDecoder() }
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}

	pcm, err := Decode(data, newDecoder, opts)
	if err != nil {
		logger.Error("decode failed", slog.String("path", path), slog.Any("error", xerrors.New(err)))
		return nil, err
	}

	logger.Info("decoded audio",
		slog.String("path", path),
		slog.Int("sample_rate", pcm.SampleRate),
		slog.Int("channels", pcm.Channels),
		slog.Float64("duration", pcm.Duration()),
	)
	return pcm, nil
}
