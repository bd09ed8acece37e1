package models

import "time"

// PCMBuffer holds decoded audio as interleaved signed 16-bit samples.
// len(Samples) is always a multiple of Channels.
type PCMBuffer struct {
	Samples    []int16
	SampleRate int
	Channels   int
}

// Len returns the total number of interleaved samples.
func (b *PCMBuffer) Len() int {
	return len(b.Samples)
}

// Frames returns the number of sample frames (one sample per channel).
func (b *PCMBuffer) Frames() int {
	if b.Channels == 0 {
		return 0
	}
	return len(b.Samples) / b.Channels
}

// Duration returns the playing time of the buffer in seconds.
func (b *PCMBuffer) Duration() float64 {
	if b.SampleRate == 0 {
		return 0
	}
	return float64(b.Frames()) / float64(b.SampleRate)
}

// PitchCandidate is the dominant frequency found in one spectral frame.
type PitchCandidate struct {
	Frame     int
	Time      float64 // seconds from the start of the buffer
	Frequency float64 // Hz
	Magnitude float64
}

// NoteEvent is one onset in a note timeline.
type NoteEvent struct {
	Timestamp float64 `json:"timestamp"` // seconds, two decimal places
	Note      string  `json:"note"`      // pitch class + octave, e.g. "A4"
}

// RunRecord is the persisted result of one finished game.
type RunRecord struct {
	ID         string    `json:"id"`
	Song       string    `json:"song"`
	Player     string    `json:"player"`
	Score      int       `json:"score"`
	MaxCombo   int       `json:"max_combo"`
	Hits       int       `json:"hits"`
	Misses     int       `json:"misses"`
	Notes      int       `json:"notes"`
	Outcome    string    `json:"outcome"`
	FinishedAt time.Time `json:"finished_at"`
}
